//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package cli

import (
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/metadata"
	"github.com/road-core/rag-content/processor"
)

func parseFlags(t *testing.T, args ...string) *CommonFlags {
	t.Helper()
	var flags CommonFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.Register(fs)
	require.NoError(t, fs.Parse(args))
	return &flags
}

func TestRegister_Defaults(t *testing.T) {
	flags := parseFlags(t)
	require.Equal(t, processor.DefaultChunkSize, flags.ChunkSize)
	require.Equal(t, processor.DefaultChunkOverlap, flags.ChunkOverlap)
	require.Equal(t, "embeddings_model", flags.ModelDir)
	require.Equal(t, processor.VectorStoreFaiss, flags.VectorStoreType)
	require.Equal(t, processor.EmbedderOpenAI, flags.EmbedderType)
	require.Equal(t, log.LevelInfo, flags.LogLevel)
	require.Zero(t, flags.Workers)
}

func TestRegister_ShortAndLongSpellings(t *testing.T) {
	short := parseFlags(t,
		"-f", "docs", "-mn", "mpnet", "-c", "500", "-l", "50",
		"-o", "out", "-i", "ocp-4-15", "-w", "8")
	long := parseFlags(t,
		"-folder", "docs", "-model-name", "mpnet", "-chunk", "500",
		"-overlap", "50", "-output", "out", "-index", "ocp-4-15",
		"-workers", "8")
	require.Equal(t, short, long)
	require.Equal(t, "docs", short.Folder)
	require.Equal(t, 500, short.ChunkSize)
	require.Equal(t, 8, short.Workers)
}

func TestTableName(t *testing.T) {
	flags := &CommonFlags{Index: "ocp-product-docs-4_15"}
	require.Equal(t, "ocp_product_docs_4_15", flags.TableName())

	flags.Table = "custom_table"
	require.Equal(t, "custom_table", flags.TableName())
}

func TestProcessorConfig(t *testing.T) {
	flags := parseFlags(t,
		"-mn", "mpnet", "-c", "500", "-l", "50", "-w", "4",
		"-i", "ocp-4-15", "-embedder-type", "ollama",
		"-embedder-base-url", "http://localhost:11434")

	cfg := flags.ProcessorConfig()
	require.Equal(t, 500, cfg.ChunkSize)
	require.Equal(t, 50, cfg.ChunkOverlap)
	require.Equal(t, "mpnet", cfg.ModelName)
	require.Equal(t, processor.EmbedderOllama, cfg.EmbedderType)
	require.Equal(t, "http://localhost:11434", cfg.ModelBaseURL)
	require.Equal(t, 4, cfg.NumWorkers)
	require.Equal(t, processor.VectorStoreFaiss, cfg.VectorStoreType)
	require.Equal(t, "ocp_4_15", cfg.TableName)
	require.Nil(t, cfg.Postgres)
}

func TestProcessorConfig_PostgresFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_USER", "rag")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_HOST", "db.example.com")
	t.Setenv("POSTGRES_PORT", "15432")
	t.Setenv("POSTGRES_DATABASE", "docs")

	flags := parseFlags(t, "-vector-store-type", "postgres", "-i", "ocp-4-15")
	cfg := flags.ProcessorConfig()
	require.Equal(t, &processor.PostgresConfig{
		User:     "rag",
		Password: "secret",
		Host:     "db.example.com",
		Port:     15432,
		Database: "docs",
	}, cfg.Postgres)
}

func TestPostgresConfigFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("POSTGRES_PORT", "not-a-port")
	cfg := PostgresConfigFromEnv()
	require.Zero(t, cfg.Port)
}

func TestAbsRoot(t *testing.T) {
	dir := t.TempDir()
	root, err := AbsRoot(dir + "/")
	require.NoError(t, err)
	require.Equal(t, dir, root)
}

// captureLogger records formatted warnings.
type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (c *captureLogger) Debug(args ...any)                 {}
func (c *captureLogger) Debugf(format string, args ...any) {}
func (c *captureLogger) Info(args ...any)                  {}
func (c *captureLogger) Infof(format string, args ...any)  {}
func (c *captureLogger) Warn(args ...any)                  {}
func (c *captureLogger) Warnf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, fmt.Sprintf(format, args...))
}
func (c *captureLogger) Error(args ...any)                 {}
func (c *captureLogger) Errorf(format string, args ...any) {}
func (c *captureLogger) Fatal(args ...any)                 {}
func (c *captureLogger) Fatalf(format string, args ...any) {}

func swapLogger(t *testing.T) *captureLogger {
	t.Helper()
	original := log.Default
	t.Cleanup(func() { log.Default = original })
	capture := &captureLogger{}
	log.Default = capture
	return capture
}

func TestReportUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	mp, err := metadata.New(metadata.URLDeriverFunc(func(string) (string, error) {
		return server.URL, nil
	}))
	require.NoError(t, err)

	capture := swapLogger(t)
	mp.Populate("docs/a.txt")
	mp.Populate("docs/b.txt")

	ReportUnreachable(mp)
	require.NotEmpty(t, capture.warns)
	last := capture.warns[len(capture.warns)-1]
	require.Equal(t, "There were documents with 2 unreachable URLs, grep the log for 'URL not reachable'.", last)
}

func TestReportUnreachable_AllReachable(t *testing.T) {
	mp, err := metadata.New(metadata.URLDeriverFunc(func(string) (string, error) {
		return "https://docs.example.com", nil
	}), metadata.WithReachabilityCheck(false))
	require.NoError(t, err)

	capture := swapLogger(t)
	mp.Populate("docs/a.txt")
	ReportUnreachable(mp)
	require.Empty(t, capture.warns)
}
