//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/vectorstore"
	"github.com/road-core/rag-content/vectorstore/flat"
)

// stubEmbedder returns a fixed vector per text, defaulting to [1, 0, 0].
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (e *stubEmbedder) GetEmbedding(ctx context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vectors[text]; ok {
		return append([]float64(nil), v...), nil
	}
	return []float64{1, 0, 0}, nil
}

func (e *stubEmbedder) GetEmbeddingWithUsage(ctx context.Context, text string) ([]float64, map[string]any, error) {
	embedding, err := e.GetEmbedding(ctx, text)
	return embedding, nil, err
}

func (e *stubEmbedder) GetDimensions() int { return 3 }

// newPopulatedStore builds a flat store with three axis-aligned nodes.
func newPopulatedStore(t *testing.T) *flat.Store {
	t.Helper()
	store := flat.New(flat.WithDimension(3))
	nodes := []struct {
		node   *document.TextNode
		vector []float64
	}{
		{
			node: &document.TextNode{
				ID:   "n1",
				Text: "install the cluster",
				Metadata: map[string]any{
					"docs_url": "https://docs.example.com/install",
					"title":    "Install",
				},
			},
			vector: []float64{1, 0, 0},
		},
		{
			node:   &document.TextNode{ID: "n2", Text: "upgrade the cluster"},
			vector: []float64{0, 1, 0},
		},
		{
			node:   &document.TextNode{ID: "n3", Text: "install and upgrade"},
			vector: []float64{0.5, 0.5, 0},
		},
	}
	for _, n := range nodes {
		require.NoError(t, store.Add(context.Background(), n.node, n.vector))
	}
	return store
}

func TestRetrieve_RanksByScore(t *testing.T) {
	r := New(WithEmbedder(&stubEmbedder{}), WithVectorStore(newPopulatedStore(t)))

	result, err := r.Retrieve(context.Background(), &Query{Text: "how do I install", Limit: 2})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 2)
	require.Equal(t, "n1", result.Nodes[0].Node.ID)
	require.Equal(t, 1.0, result.Nodes[0].Score)
	require.Equal(t, "n3", result.Nodes[1].Node.ID)
}

func TestRetrieve_MinScore(t *testing.T) {
	r := New(
		WithEmbedder(&stubEmbedder{}),
		WithVectorStore(newPopulatedStore(t)),
		WithMinScore(0.6),
	)

	result, err := r.Retrieve(context.Background(), &Query{Text: "install", Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "n1", result.Nodes[0].Node.ID)

	// A query-level threshold overrides the retriever default.
	result, err = r.Retrieve(context.Background(), &Query{Text: "install", Limit: 10, MinScore: 0.4})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 2)
}

func TestRetrieve_Filter(t *testing.T) {
	r := New(WithEmbedder(&stubEmbedder{}), WithVectorStore(newPopulatedStore(t)))

	result, err := r.Retrieve(context.Background(), &Query{
		Text:   "install",
		Limit:  10,
		Filter: &QueryFilter{DocumentIDs: []string{"n3"}},
	})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "n3", result.Nodes[0].Node.ID)

	result, err = r.Retrieve(context.Background(), &Query{
		Text:   "install",
		Limit:  10,
		Filter: &QueryFilter{Metadata: map[string]any{"title": "Install"}},
	})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "n1", result.Nodes[0].Node.ID)
}

func TestRetrieve_InputErrors(t *testing.T) {
	full := New(WithEmbedder(&stubEmbedder{}), WithVectorStore(flat.New()))
	_, err := full.Retrieve(context.Background(), nil)
	require.ErrorContains(t, err, "query is required")

	noEmbedder := New(WithVectorStore(flat.New()))
	_, err = noEmbedder.Retrieve(context.Background(), &Query{Text: "q"})
	require.ErrorContains(t, err, "embedder is required")

	noStore := New(WithEmbedder(&stubEmbedder{}))
	_, err = noStore.Retrieve(context.Background(), &Query{Text: "q"})
	require.ErrorContains(t, err, "vector store is required")
}

func TestRetrieve_EmbedError(t *testing.T) {
	r := New(
		WithEmbedder(&stubEmbedder{err: errors.New("backend down")}),
		WithVectorStore(newPopulatedStore(t)),
	)
	_, err := r.Retrieve(context.Background(), &Query{Text: "install"})
	require.ErrorContains(t, err, "failed to embed query")
}

// TestRetrieve_PersistedIndex checks the round trip: an index persisted
// under an ID reopens and returns the stored chunk metadata unchanged.
func TestRetrieve_PersistedIndex(t *testing.T) {
	store := newPopulatedStore(t)
	store.SetIndexID("product-docs")
	dir := t.TempDir()
	require.NoError(t, store.Persist(dir))

	reopened, err := flat.Open(dir, "product-docs")
	require.NoError(t, err)

	r := New(WithEmbedder(&stubEmbedder{}), WithVectorStore(reopened))
	defer func() { require.NoError(t, r.Close()) }()

	result, err := r.Retrieve(context.Background(), &Query{Text: "install", Limit: 1})
	require.NoError(t, err)
	require.Len(t, result.Nodes, 1)
	require.Equal(t, "n1", result.Nodes[0].Node.ID)
	require.Equal(t, map[string]any{
		"docs_url": "https://docs.example.com/install",
		"title":    "Install",
	}, result.Nodes[0].Node.Metadata)
}

type closeRecorderStore struct {
	vectorstore.VectorStore
	closed bool
}

func (s *closeRecorderStore) Close() error {
	s.closed = true
	return nil
}

func TestClose(t *testing.T) {
	store := &closeRecorderStore{}
	r := New(WithVectorStore(store))
	require.NoError(t, r.Close())
	require.True(t, store.closed)

	require.NoError(t, New().Close())
}
