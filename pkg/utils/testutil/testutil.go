// Package testutil provides fixtures shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/m-mizutani/gt"

	"github.com/brendondgr/luna25/pkg/utils/report"
)

// BuildZip returns a zip archive holding files (path -> content). Entries
// ending in "/" become directories.
func BuildZip(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		gt.NoError(t, err).Required()
		if files[name] != "" {
			_, err = w.Write([]byte(files[name]))
			gt.NoError(t, err).Required()
		}
	}
	gt.NoError(t, zw.Close()).Required()

	return buf.Bytes()
}

// Split cuts data into n parts of near-equal size. The last part takes the remainder.
func Split(data []byte, n int) [][]byte {
	size := len(data) / n
	parts := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		start := i * size
		end := start + size
		if i == n-1 {
			end = len(data)
		}
		parts = append(parts, data[start:end])
	}
	return parts
}

// WriteFile writes content to path, creating parent directories
func WriteFile(t testing.TB, path string, content []byte) {
	t.Helper()
	gt.NoError(t, os.MkdirAll(filepath.Dir(path), 0755)).Required()
	gt.NoError(t, os.WriteFile(path, content, 0644)).Required()
}

// ReadFile returns the content of path
func ReadFile(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	return data
}

// Entries returns the sorted entry names directly inside dir
func Entries(t testing.TB, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	gt.NoError(t, err).Required()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

// NewReporter returns a reporter whose output is captured in the returned buffer
func NewReporter() (*report.Reporter, *SafeBuffer) {
	buf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return report.New(logger, report.WithWriter(buf), report.WithColor(false)), buf
}

// DiscardReporter returns a reporter that writes nowhere
func DiscardReporter() *report.Reporter {
	return report.New(slog.New(slog.DiscardHandler), report.WithWriter(io.Discard))
}

// SafeBuffer is a thread-safe buffer for capturing output of HTTP handlers and loggers
type SafeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (sb *SafeBuffer) Write(p []byte) (int, error) {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.Write(p)
}

func (sb *SafeBuffer) String() string {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.String()
}

// FileServer serves static content by URL path and counts requests per path
type FileServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests map[string]int
}

// NewFileServer starts a server serving files (URL path -> content)
func NewFileServer(t testing.TB, files map[string][]byte) *FileServer {
	t.Helper()

	fs := &FileServer{
		files:    files,
		requests: make(map[string]int),
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests[r.URL.Path]++
		data, ok := fs.files[r.URL.Path]
		fs.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)
	}))
	t.Cleanup(fs.Close)

	return fs
}

// Requests returns how often path was requested
func (fs *FileServer) Requests(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.requests[path]
}

// TotalRequests returns the number of requests served
func (fs *FileServer) TotalRequests() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var n int
	for _, c := range fs.requests {
		n += c
	}
	return n
}

// Context returns a context cancelled when the test ends
func Context(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
