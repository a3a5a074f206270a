//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package cli carries the flag definitions and configuration plumbing
// shared by the embedding command line tools.
package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/metadata"
	"github.com/road-core/rag-content/processor"
)

// CommonFlags holds the flag values shared by every embedding CLI. Each
// flag registers a short and a long spelling bound to the same value.
type CommonFlags struct {
	Folder          string
	ModelDir        string
	ModelName       string
	ChunkSize       int
	ChunkOverlap    int
	Output          string
	Index           string
	Workers         int
	LogLevel        string
	VectorStoreType string
	EmbedderType    string
	EmbedderBaseURL string
	Table           string
}

// Register installs the common flags on fs.
func (f *CommonFlags) Register(fs *flag.FlagSet) {
	stringVar(fs, &f.Folder, "f", "folder", "", "directory containing the plain text documentation")
	stringVar(fs, &f.ModelDir, "md", "model-dir", "embeddings_model", "directory containing the embedding model cache")
	stringVar(fs, &f.ModelName, "mn", "model-name", "", "name of the embedding model")
	intVar(fs, &f.ChunkSize, "c", "chunk", processor.DefaultChunkSize, "chunk size for embedding")
	intVar(fs, &f.ChunkOverlap, "l", "overlap", processor.DefaultChunkOverlap, "chunk overlap for embedding")
	stringVar(fs, &f.Output, "o", "output", "", "vector DB output folder")
	stringVar(fs, &f.Index, "i", "index", "", "product index ID")
	intVar(fs, &f.Workers, "w", "workers", 0, "number of workers reading the documents")
	fs.StringVar(&f.LogLevel, "log-level", log.LevelInfo, "log level: debug, info, warn, error or fatal")
	fs.StringVar(&f.VectorStoreType, "vector-store-type", processor.VectorStoreFaiss, "vector store type: faiss or postgres")
	fs.StringVar(&f.EmbedderType, "embedder-type", processor.EmbedderOpenAI, "embedding backend: openai or ollama")
	fs.StringVar(&f.EmbedderBaseURL, "embedder-base-url", "", "base URL of the embedding API")
	fs.StringVar(&f.Table, "table", "", "postgres table name, defaults to the index ID")
}

func stringVar(fs *flag.FlagSet, p *string, short, long, value, usage string) {
	fs.StringVar(p, short, value, usage)
	fs.StringVar(p, long, value, usage)
}

func intVar(fs *flag.FlagSet, p *int, short, long string, value int, usage string) {
	fs.IntVar(p, short, value, usage)
	fs.IntVar(p, long, value, usage)
}

// TableName returns the explicit table name, or the index ID with dashes
// replaced so it forms a valid identifier.
func (f *CommonFlags) TableName() string {
	if f.Table != "" {
		return f.Table
	}
	return strings.ReplaceAll(f.Index, "-", "_")
}

// ProcessorConfig resolves the flags into a processor session
// configuration. Postgres connection parameters come from the POSTGRES_*
// environment when the postgres store is selected.
func (f *CommonFlags) ProcessorConfig() *processor.Config {
	cfg := &processor.Config{
		ChunkSize:       f.ChunkSize,
		ChunkOverlap:    f.ChunkOverlap,
		ModelName:       f.ModelName,
		EmbedderType:    f.EmbedderType,
		ModelBaseURL:    f.EmbedderBaseURL,
		NumWorkers:      f.Workers,
		VectorStoreType: f.VectorStoreType,
		TableName:       f.TableName(),
	}
	if f.VectorStoreType == processor.VectorStorePostgres {
		cfg.Postgres = PostgresConfigFromEnv()
	}
	return cfg
}

// PostgresConfigFromEnv reads the POSTGRES_* environment variables. Unset
// variables stay zero so the store defaults apply.
func PostgresConfigFromEnv() *processor.PostgresConfig {
	cfg := &processor.PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Database: os.Getenv("POSTGRES_DATABASE"),
	}
	if raw := os.Getenv("POSTGRES_PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			log.Warnf("Invalid POSTGRES_PORT %q: %v", raw, err)
		} else {
			cfg.Port = port
		}
	}
	return cfg
}

// AbsRoot resolves path into the absolute directory prefix stripped from
// file paths when deriving documentation URLs.
func AbsRoot(path string) (string, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return strings.TrimSuffix(root, string(os.PathSeparator)), nil
}

// ReportUnreachable emits one end-of-run aggregate warning when any
// populated document URL was unreachable.
func ReportUnreachable(processors ...*metadata.Processor) {
	unreachable := 0
	for _, mp := range processors {
		unreachable += mp.UnreachableCount()
	}
	if unreachable > 0 {
		log.Warnf("There were documents with %d unreachable URLs, grep the log for 'URL not reachable'.", unreachable)
	}
}
