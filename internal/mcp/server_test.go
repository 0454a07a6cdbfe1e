package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agira-hq/agira-context/internal/retrieval"
)

// stubBackend serves canned hits for handler tests.
type stubBackend struct {
	objects []retrieval.SearchableObject
	err     error
	lastReq retrieval.SearchRequest
}

func (s *stubBackend) HybridSearch(_ context.Context, req retrieval.SearchRequest) ([]retrieval.SearchableObject, error) {
	s.lastReq = req
	return s.objects, s.err
}

func newTestServer(t *testing.T, backend retrieval.HybridSearcher) *Server {
	t.Helper()
	builder, err := retrieval.NewContextBuilder(backend, retrieval.DefaultConfig())
	require.NoError(t, err)
	server, err := NewServer(builder)
	require.NoError(t, err)
	return server
}

func TestNewServer_NilBuilder(t *testing.T) {
	server, err := NewServer(nil)

	assert.Nil(t, server)
	assert.Error(t, err)
}

func TestNewServer_Info(t *testing.T) {
	server := newTestServer(t, &stubBackend{})

	name, _ := server.Info()
	assert.Equal(t, "agira-context", name)
	assert.NotNil(t, server.MCPServer())
}

func TestListTools(t *testing.T) {
	server := newTestServer(t, &stubBackend{})

	tools := server.ListTools()

	require.Len(t, tools, 1)
	assert.Equal(t, "related_context", tools[0].Name)
	assert.NotEmpty(t, tools[0].Description)
}

func TestRelatedContext_EmptyQuery(t *testing.T) {
	server := newTestServer(t, &stubBackend{})

	_, _, err := server.mcpRelatedContextHandler(context.Background(), nil, ContextInput{})

	require.Error(t, err)
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestRelatedContext_UnknownType(t *testing.T) {
	server := newTestServer(t, &stubBackend{})

	_, _, err := server.mcpRelatedContextHandler(context.Background(), nil, ContextInput{
		Query: "login bug",
		Types: []string{"wiki_page"},
	})

	require.Error(t, err)
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
	assert.Contains(t, mcpErr.Message, "wiki_page")
}

func TestRelatedContext_InvalidAlpha(t *testing.T) {
	server := newTestServer(t, &stubBackend{})
	alpha := 2.0

	_, _, err := server.mcpRelatedContextHandler(context.Background(), nil, ContextInput{
		Query: "login bug",
		Alpha: &alpha,
	})

	require.Error(t, err)
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr))
	assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
}

func TestRelatedContext_Success(t *testing.T) {
	// Given a backend with one strong hit
	backend := &stubBackend{objects: []retrieval.SearchableObject{
		{
			Type:  retrieval.TypeItem,
			ID:    "i-1",
			Title: "Fix login timeout",
			Text:  "Sessions expire too early.",
			URL:   "https://agira.example.com/items/i-1",
			Score: 0.9,
		},
	}}
	server := newTestServer(t, backend)

	// When the tool runs
	_, out, err := server.mcpRelatedContextHandler(context.Background(), nil, ContextInput{
		Query:     "  login bug  ",
		ProjectID: "proj-9",
	})

	// Then the output echoes the trimmed query and carries results,
	// stats, and the assembled block
	require.NoError(t, err)
	assert.Equal(t, "login bug", out.Query)
	assert.Equal(t, "Found 1 related object: 1 item.", out.Summary)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "i-1", out.Results[0].ID)
	assert.Contains(t, out.ContextText, "[CONTEXT]")
	assert.Contains(t, out.ContextText, "item:i-1")
	assert.Nil(t, out.Debug)

	// And the project scope reached the backend
	require.NotNil(t, backend.lastReq.Filters)
	assert.Equal(t, "proj-9", backend.lastReq.Filters.Clauses[0].Value)
}

func TestRelatedContext_DegradedBackend(t *testing.T) {
	// A failing backend still yields a successful, empty tool result
	server := newTestServer(t, &stubBackend{err: errors.New("connection refused")})

	_, out, err := server.mcpRelatedContextHandler(context.Background(), nil, ContextInput{
		Query: "login bug",
	})

	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.Equal(t, "No related objects found.", out.Summary)
	assert.NotEmpty(t, out.Stats.Error)
}

func TestRelatedContext_DebugRequested(t *testing.T) {
	server := newTestServer(t, &stubBackend{})

	_, out, err := server.mcpRelatedContextHandler(context.Background(), nil, ContextInput{
		Query:        "login bug",
		IncludeDebug: true,
	})

	require.NoError(t, err)
	require.NotNil(t, out.Debug)
	assert.Equal(t, retrieval.AlphaSourceHeuristic, out.Debug.AlphaSource)
}

func TestServe_UnknownTransport(t *testing.T) {
	server := newTestServer(t, &stubBackend{})

	err := server.Serve(context.Background(), "sse")

	assert.Error(t, err)
}
