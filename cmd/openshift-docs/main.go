//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package main embeds OpenShift product documentation and SRE runbooks into
// a single vector index.
//
// The docs folder is expected to hold the plaintext rendition of the
// product documentation for one OpenShift version; the runbooks folder
// holds the openshift/runbooks markdown tree. Each embedded node carries a
// docs_url pointing at the public page it was taken from.
//
// Example usage:
//
//	openshift-docs -f ocp-product-docs-plaintext/4.15 -r runbooks \
//	    -md embeddings_model -mn sentence-transformers/all-mpnet-base-v2 \
//	    -v 4.15 -o vector_db/ocp_product_docs/4.15 -i ocp-product-docs-4_15
package main

import (
	"context"
	"flag"
	"strings"

	"github.com/road-core/rag-content/document/reader/text"
	"github.com/road-core/rag-content/internal/cli"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/metadata"
	"github.com/road-core/rag-content/processor"
)

const (
	ocpDocsBaseURL  = "https://docs.openshift.com/container-platform/"
	runbooksBaseURL = "https://github.com/openshift/runbooks/blob/master"

	defaultOCPVersion = "4.15"
)

var (
	flags       cli.CommonFlags
	runbooksDir string
	ocpVersion  string
)

func init() {
	flags.Register(flag.CommandLine)
	flag.StringVar(&runbooksDir, "r", "", "path to the runbooks markdown directory")
	flag.StringVar(&runbooksDir, "runbooks", "", "path to the runbooks markdown directory")
	flag.StringVar(&ocpVersion, "v", defaultOCPVersion, "OpenShift version of the documentation")
	flag.StringVar(&ocpVersion, "ocp-version", defaultOCPVersion, "OpenShift version of the documentation")
}

// ocpDocsURL derives the docs.openshift.com page for a plaintext doc file.
// "<root>/installing/index.txt" maps to
// "https://docs.openshift.com/container-platform/<version>/installing/index.html".
func ocpDocsURL(rootDir, version string) metadata.URLDeriver {
	return metadata.URLDeriverFunc(func(filePath string) (string, error) {
		rel := strings.TrimPrefix(filePath, rootDir)
		return ocpDocsBaseURL + version + strings.TrimSuffix(rel, "txt") + "html", nil
	})
}

// runbookURL derives the GitHub page for a runbook markdown file.
func runbookURL(rootDir string) metadata.URLDeriver {
	return metadata.URLDeriverFunc(func(filePath string) (string, error) {
		return runbooksBaseURL + strings.TrimPrefix(filePath, rootDir), nil
	})
}

func main() {
	flag.Parse()
	log.SetLevel(flags.LogLevel)

	docsRoot, err := cli.AbsRoot(flags.Folder)
	if err != nil {
		log.Fatalf("Failed to resolve docs folder: %v", err)
	}
	runbooksRoot, err := cli.AbsRoot(runbooksDir)
	if err != nil {
		log.Fatalf("Failed to resolve runbooks folder: %v", err)
	}

	docsMetadata, err := metadata.New(ocpDocsURL(docsRoot, ocpVersion))
	if err != nil {
		log.Fatalf("Failed to create docs metadata processor: %v", err)
	}
	runbooksMetadata, err := metadata.New(runbookURL(runbooksRoot))
	if err != nil {
		log.Fatalf("Failed to create runbooks metadata processor: %v", err)
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
		log.Fatalf("Failed to process OpenShift docs: %v", err)
	}
	// Runbooks are plain markdown. Read them as text so the troubleshooting
	// steps stay verbatim instead of being rendered.
	if err := p.Process(ctx, runbooksRoot, runbooksMetadata,
		processor.WithRequiredExtensions(".md"),
		processor.WithReaderOverride(".md", text.New()),
	); err != nil {
		log.Fatalf("Failed to process runbooks: %v", err)
	}

	if err := p.Save(ctx, flags.Index, flags.Output); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}

	cli.ReportUnreachable(docsMetadata, runbooksMetadata)
	log.Infof("Embedded %d files (%d nodes) into index %s",
		p.EmbeddedFileCount(), p.NodeCount(), flags.Index)
}
