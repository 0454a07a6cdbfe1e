package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agira-hq/agira-context/internal/retrieval"
)

func TestHybridSearch_Success(t *testing.T) {
	// Given a backend that returns two objects
	var gotPath string
	var gotBody searchRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(searchResponseBody{
			Objects: []retrieval.SearchableObject{
				{Type: retrieval.TypeItem, ID: "i-1", Title: "Login bug", Score: 0.9},
				{Type: retrieval.TypeComment, ID: "c-1", Score: 0.4},
			},
		})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL})
	defer client.Close()

	// When searching
	objects, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{
		Collection: "agira_objects",
		Query:      "login bug",
		Alpha:      0.5,
		Limit:      30,
	})

	// Then the wire shapes round-trip
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "i-1", objects[0].ID)
	assert.Equal(t, "/v1/collections/agira_objects/search", gotPath)
	assert.Equal(t, "login bug", gotBody.Query)
	assert.InDelta(t, 0.5, gotBody.Alpha, 1e-9)
	assert.Equal(t, 30, gotBody.Limit)
}

func TestHybridSearch_FiltersSerialized(t *testing.T) {
	var gotBody searchRequestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(searchResponseBody{})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL})
	defer client.Close()

	filters := retrieval.BuildFilters("proj-9", "", []retrieval.ObjectType{retrieval.TypeItem})
	_, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{
		Collection: "agira_objects",
		Query:      "q",
		Filters:    filters,
	})

	require.NoError(t, err)
	require.NotNil(t, gotBody.Filters)
	assert.Len(t, gotBody.Filters.Clauses, 2)
}

func TestHybridSearch_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"index corrupted"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL})
	defer client.Close()

	_, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{Collection: "c", Query: "q"})

	require.Error(t, err)
	assert.ErrorIs(t, err, retrieval.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "index corrupted")
}

func TestHybridSearch_ClientErrorIsMisconfigured(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "bad request", status: http.StatusBadRequest},
		{name: "unknown collection", status: http.StatusNotFound},
		{name: "unprocessable", status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := NewClient(ClientConfig{Endpoint: server.URL})
			defer client.Close()

			_, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{Collection: "c", Query: "q"})

			require.Error(t, err)
			assert.ErrorIs(t, err, retrieval.ErrBackendMisconfigured)
		})
	}
}

func TestHybridSearch_ConnectionRefusedIsUnavailable(t *testing.T) {
	// Given a server that is already gone
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	endpoint := server.URL
	server.Close()

	client := NewClient(ClientConfig{Endpoint: endpoint})
	defer client.Close()

	_, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{Collection: "c", Query: "q"})

	require.Error(t, err)
	assert.ErrorIs(t, err, retrieval.ErrBackendUnavailable)
}

func TestHybridSearch_MalformedResponseIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL})
	defer client.Close()

	_, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{Collection: "c", Query: "q"})

	require.Error(t, err)
	assert.ErrorIs(t, err, retrieval.ErrBackendUnavailable)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(searchResponseBody{})
	}))
	defer server.Close()

	client := NewClient(ClientConfig{Endpoint: server.URL + "/"})
	defer client.Close()

	_, err := client.HybridSearch(context.Background(), retrieval.SearchRequest{Collection: "c", Query: "q"})

	require.NoError(t, err)
	assert.Equal(t, "/v1/collections/c/search", gotPath)
}
