//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package metadata

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/road-core/rag-content/log"
)

// staticDeriver returns a fixed URL for every file path.
type staticDeriver struct {
	url string
	err error
}

func (d *staticDeriver) DeriveURL(string) (string, error) {
	return d.url, d.err
}

// captureLogger records formatted log messages per level.
type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	debugs []string
}

func (c *captureLogger) record(dst *[]string, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*dst = append(*dst, fmt.Sprintf(format, args...))
}

func (c *captureLogger) Debug(args ...any)                 {}
func (c *captureLogger) Debugf(format string, args ...any) { c.record(&c.debugs, format, args...) }
func (c *captureLogger) Info(args ...any)                  {}
func (c *captureLogger) Infof(format string, args ...any)  {}
func (c *captureLogger) Warn(args ...any)                  {}
func (c *captureLogger) Warnf(format string, args ...any)  { c.record(&c.warns, format, args...) }
func (c *captureLogger) Error(args ...any)                 {}
func (c *captureLogger) Errorf(format string, args ...any) {}
func (c *captureLogger) Fatal(args ...any)                 {}
func (c *captureLogger) Fatalf(format string, args ...any) {}

// swapLogger installs a capture logger for the duration of the test.
func swapLogger(t *testing.T) *captureLogger {
	t.Helper()
	original := log.Default
	t.Cleanup(func() { log.Default = original })
	capture := &captureLogger{}
	log.Default = capture
	return capture
}

func writeDocFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNew_NilDeriver(t *testing.T) {
	p, err := New(nil)
	require.Error(t, err)
	require.Nil(t, p)
}

func TestFileTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "markdown header", content: "# Road-Core title\nBody text.", want: "Road-Core title"},
		{name: "nested header", content: "## Nested title\n", want: "Nested title"},
		{name: "no marker", content: "Plain title\nMore.", want: "Plain title"},
		{name: "no trailing newline", content: "# Only line", want: "Only line"},
		{name: "empty file", content: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDocFile(t, tt.content)
			require.Equal(t, tt.want, FileTitle(path))
		})
	}
}

func TestFileTitle_UnreadableFile(t *testing.T) {
	require.Equal(t, "", FileTitle(filepath.Join(t.TempDir(), "missing.txt")))
}

func TestPingURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	p, err := New(&staticDeriver{})
	require.NoError(t, err)

	require.True(t, p.PingURL(server.URL+"/ok"))
	require.False(t, p.PingURL(server.URL+"/missing"))

	// Transport errors count as unreachable.
	server.Close()
	require.False(t, p.PingURL(server.URL+"/ok"))
}

func TestPopulate(t *testing.T) {
	capture := swapLogger(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := writeDocFile(t, "# Road-Core title\nBody.")
	p, err := New(&staticDeriver{url: server.URL})
	require.NoError(t, err)

	result := p.Populate(path)

	// Exactly the two metadata keys, regardless of reachability outcome.
	require.Len(t, result, 2)
	require.Equal(t, server.URL, result[KeyDocsURL])
	require.Equal(t, "Road-Core title", result[KeyTitle])

	records := p.Records()
	require.Len(t, records, 1)
	require.Equal(t, Record{
		FilePath:  path,
		Title:     "Road-Core title",
		URL:       server.URL,
		Reachable: true,
	}, records[0])
	require.Zero(t, p.UnreachableCount())

	require.Empty(t, capture.warns)
	require.Len(t, capture.debugs, 1)
	require.Contains(t, capture.debugs[0], "Metadata populated for")
}

func TestPopulate_Unreachable(t *testing.T) {
	capture := swapLogger(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	path := writeDocFile(t, "# Broken doc\n")
	p, err := New(&staticDeriver{url: server.URL})
	require.NoError(t, err)

	result := p.Populate(path)
	require.Equal(t, server.URL, result[KeyDocsURL])

	require.Len(t, capture.warns, 1)
	require.Contains(t, capture.warns[0], "URL not reachable")
	require.Contains(t, capture.warns[0], server.URL)
	require.Contains(t, capture.warns[0], path)

	require.Equal(t, 1, p.UnreachableCount())
	require.False(t, p.Records()[0].Reachable)
}

func TestPopulate_DeriverError(t *testing.T) {
	capture := swapLogger(t)

	path := writeDocFile(t, "# Title\n")
	p, err := New(
		&staticDeriver{err: fmt.Errorf("no mapping for path")},
		WithReachabilityCheck(false),
	)
	require.NoError(t, err)

	result := p.Populate(path)

	// The deriver failure degrades to an empty URL instead of blocking.
	require.Equal(t, "", result[KeyDocsURL])
	require.Equal(t, "Title", result[KeyTitle])
	require.Len(t, capture.warns, 1)
	require.Contains(t, capture.warns[0], "Failed to derive URL")
}

func TestPopulate_ReachabilityDisabled(t *testing.T) {
	capture := swapLogger(t)

	path := writeDocFile(t, "# Title\n")
	p, err := New(
		URLDeriverFunc(func(string) (string, error) { return "https://docs.example.com/x", nil }),
		WithReachabilityCheck(false),
	)
	require.NoError(t, err)

	p.Populate(path)

	// No probe, no warning; the record is written as reachable.
	require.Empty(t, capture.warns)
	require.Zero(t, p.UnreachableCount())
	require.True(t, p.Records()[0].Reachable)
}

func TestPopulate_ConcurrentRecords(t *testing.T) {
	swapLogger(t)

	p, err := New(
		URLDeriverFunc(func(filePath string) (string, error) {
			return "https://docs.example.com/" + filepath.Base(filePath), nil
		}),
		WithReachabilityCheck(false),
	)
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.Populate(fmt.Sprintf("/docs/file-%d.txt", n))
		}(i)
	}
	wg.Wait()

	records := p.Records()
	require.Len(t, records, workers)
	seen := make(map[string]bool, workers)
	for _, record := range records {
		require.True(t, strings.HasPrefix(record.URL, "https://docs.example.com/"))
		seen[record.FilePath] = true
	}
	require.Len(t, seen, workers)
}
