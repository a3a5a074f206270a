//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package main queries a persisted vector index from the command line.
//
// It loads the index from disk, embeds the query with the same model the
// index was built with, and prints the top matching chunks. A single stored
// node can also be fetched by ID with -n.
//
// Example usage:
//
//	rag-query -p vector_db/ocp_product_docs/4.15 -x ocp-product-docs-4_15 \
//	    -mn text-embedding-3-small -q "how do I add a worker node?" -k 3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/metadata"
	"github.com/road-core/rag-content/processor"
	"github.com/road-core/rag-content/retriever"
	"github.com/road-core/rag-content/vectorstore"
	"github.com/road-core/rag-content/vectorstore/flat"
)

var (
	dbPath          string
	index           string
	query           string
	topK            int
	nodeID          string
	threshold       float64
	modelName       string
	embedderType    string
	embedderBaseURL string
)

func init() {
	flag.StringVar(&dbPath, "p", "", "path to the vector db")
	flag.StringVar(&dbPath, "db-path", "", "path to the vector db")
	flag.StringVar(&index, "x", "", "product index")
	flag.StringVar(&index, "product-index", "", "product index")
	flag.StringVar(&query, "q", "", "query to run")
	flag.StringVar(&query, "query", "", "query to run")
	flag.IntVar(&topK, "k", 1, "number of top nodes to retrieve")
	flag.IntVar(&topK, "top-k", 1, "number of top nodes to retrieve")
	flag.StringVar(&nodeID, "n", "", "retrieve the stored node with this ID")
	flag.StringVar(&nodeID, "node", "", "retrieve the stored node with this ID")
	flag.Float64Var(&threshold, "t", 0.0, "minimal score for the top node retrieved")
	flag.Float64Var(&threshold, "threshold", 0.0, "minimal score for the top node retrieved")
	flag.StringVar(&modelName, "mn", "", "embedding model name")
	flag.StringVar(&modelName, "model-name", "", "embedding model name")
	flag.StringVar(&embedderType, "embedder-type", processor.EmbedderOpenAI, "embedding backend (openai or ollama)")
	flag.StringVar(&embedderBaseURL, "embedder-base-url", "", "base URL of the embedding backend")
}

// printNode writes one stored node to stdout.
func printNode(node *document.TextNode) {
	fmt.Printf("Node ID: %s\n", node.ID)
	if url, ok := node.Metadata[metadata.KeyDocsURL].(string); ok {
		fmt.Printf("URL: %s\n", url)
	}
	fmt.Printf("Text: %s\n", node.Text)
}

// fetchNode prints the stored node with the given ID.
func fetchNode(ctx context.Context, store *flat.Store, id string) {
	result, err := store.Search(ctx, &vectorstore.SearchQuery{
		SearchMode: vectorstore.SearchModeFilter,
		Filter:     &vectorstore.SearchFilter{IDs: []string{id}},
		Limit:      1,
	})
	if err != nil {
		log.Fatalf("Failed to look up node %s: %v", id, err)
	}
	if len(result.Results) == 0 {
		log.Fatalf("Node %s not found in index %s", id, index)
	}
	printNode(result.Results[0].Node)
}

// runQuery embeds the query, retrieves the top nodes and prints them. It
// exits non-zero when nothing is retrieved or the top score stays under
// the threshold.
func runQuery(ctx context.Context, store *flat.Store) {
	emb, err := processor.NewEmbedder(processor.Config{
		EmbedderType: embedderType,
		ModelName:    modelName,
		ModelBaseURL: embedderBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	r := retriever.New(
		retriever.WithEmbedder(emb),
		retriever.WithVectorStore(store),
	)

	result, err := r.Retrieve(ctx, &retriever.Query{Text: query, Limit: topK})
	if err != nil {
		log.Fatalf("Failed to retrieve nodes: %v", err)
	}
	if len(result.Nodes) == 0 {
		fmt.Printf("No nodes retrieved for query: %s\n", query)
		os.Exit(1)
	}
	// The threshold gates the top score only; lower-ranked nodes may still
	// fall under it.
	if top := result.Nodes[0].Score; threshold > 0.0 && top < threshold {
		fmt.Printf("Score %v of the top retrieved node for query '%s' didn't cross the minimal threshold %v.\n",
			top, query, threshold)
		os.Exit(1)
	}
	for _, n := range result.Nodes {
		printNode(n.Node)
		fmt.Printf("Score: %v\n\n", n.Score)
	}
}

func main() {
	flag.Parse()

	if dbPath == "" || index == "" {
		log.Fatalf("Both -p (db path) and -x (product index) are required")
	}
	if query == "" && nodeID == "" {
		log.Fatalf("Either -q (query) or -n (node ID) is required")
	}

	store, err := flat.Open(dbPath, index)
	if err != nil {
		log.Fatalf("Failed to open index %s at %s: %v", index, dbPath, err)
	}
	defer store.Close()

	ctx := context.Background()
	if nodeID != "" {
		fetchNode(ctx, store, nodeID)
		return
	}
	runQuery(ctx, store)
}
