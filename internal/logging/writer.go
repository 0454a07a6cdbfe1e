package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter is an io.Writer that appends to a log file and rotates
// it by size. Archives are numbered suffixes of the live file:
// server.log.1 is the newest archive, higher numbers are older, and
// anything past the keep count is removed. Every write is flushed so
// the file can be followed with tail -f while the server runs.
type RotatingWriter struct {
	path      string
	limit     int64
	keepCount int

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotatingWriter opens (or creates) the log file at path. The file
// rotates once it would exceed maxSizeMB; keepCount numbered archives
// are retained.
func NewRotatingWriter(path string, maxSizeMB, keepCount int) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:      path,
		limit:     int64(maxSizeMB) << 20,
		keepCount: keepCount,
	}
	if err := w.reopen(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rotating first if the file would grow past the
// limit. A failed rotation is reported on stderr and the write lands in
// the current file; losing a rotation beats losing log lines.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err == nil {
		_ = w.file.Sync()
	}
	return n, err
}

// Sync flushes the current file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the current file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Close()
}

// archivePath returns the path of the n-th archive.
func (w *RotatingWriter) archivePath(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// reopen opens the live file for appending and records its size.
func (w *RotatingWriter) reopen() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = f
	w.size = info.Size()
	return nil
}

// rotate shifts every archive one slot up, moves the live file into
// slot 1, and starts a fresh live file. The archive past keepCount
// drops off the end.
func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.file = nil
	}

	_ = os.Remove(w.archivePath(w.keepCount))
	for n := w.keepCount - 1; n >= 1; n-- {
		_ = os.Rename(w.archivePath(n), w.archivePath(n+1))
	}

	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.archivePath(1)); err != nil {
			return fmt.Errorf("failed to archive log file: %w", err)
		}
	}

	w.size = 0
	return w.reopen()
}
