//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package main embeds the OpenStack documentation into a vector index.
//
// The docs folder is expected to hold the plaintext rendition of
// docs.openstack.org; only .txt files are embedded. Each node carries a
// docs_url pointing at the public page it was taken from.
//
// Example usage:
//
//	openstack-docs -f openstack-docs-plaintext \
//	    -md embeddings_model -mn sentence-transformers/all-mpnet-base-v2 \
//	    -o vector_db/openstack_docs -i openstack-docs
package main

import (
	"context"
	"flag"
	"strings"

	"github.com/road-core/rag-content/internal/cli"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/metadata"
	"github.com/road-core/rag-content/processor"
)

const openstackDocsBaseURL = "https://docs.openstack.org"

var flags cli.CommonFlags

func init() {
	flags.Register(flag.CommandLine)
}

// openstackDocsURL derives the docs.openstack.org page for a plaintext doc
// file. "<root>/nova/latest/index.txt" maps to
// "https://docs.openstack.org/nova/latest/index.html".
func openstackDocsURL(rootDir string) metadata.URLDeriver {
	return metadata.URLDeriverFunc(func(filePath string) (string, error) {
		rel := strings.TrimPrefix(filePath, rootDir)
		return openstackDocsBaseURL + strings.TrimSuffix(rel, "txt") + "html", nil
	})
}

func main() {
	flag.Parse()
	log.SetLevel(flags.LogLevel)

	docsRoot, err := cli.AbsRoot(flags.Folder)
	if err != nil {
		log.Fatalf("Failed to resolve docs folder: %v", err)
	}

	docsMetadata, err := metadata.New(openstackDocsURL(docsRoot))
	if err != nil {
		log.Fatalf("Failed to create metadata processor: %v", err)
	}

	p, err := processor.New(flags.ProcessorConfig())
	if err != nil {
		log.Fatalf("Failed to create document processor: %v", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warnf("Failed to close vector store: %v", err)
		}
	}()

	ctx := context.Background()
	if err := p.Process(ctx, docsRoot, docsMetadata,
		processor.WithRequiredExtensions(".txt"),
	); err != nil {
		log.Fatalf("Failed to process OpenStack docs: %v", err)
	}

	if err := p.Save(ctx, flags.Index, flags.Output); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}

	cli.ReportUnreachable(docsMetadata)
	log.Infof("Embedded %d files (%d nodes) into index %s",
		p.EmbeddedFileCount(), p.NodeCount(), flags.Index)
}
