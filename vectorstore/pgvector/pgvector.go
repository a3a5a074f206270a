//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package pgvector provides a PostgreSQL vector store implementation based
// on the pgvector extension.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/road-core/rag-content/document"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/source"
	"github.com/road-core/rag-content/storage/postgres"
	"github.com/road-core/rag-content/vectorstore"
)

// BackendName identifies the pgvector backend in index metadata.
const BackendName = "postgres.PGVectorStore"

const sqlCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

const sqlCreateTable = `
CREATE TABLE IF NOT EXISTS %s (
	%s TEXT PRIMARY KEY,
	%s TEXT NOT NULL DEFAULT '',
	%s TEXT NOT NULL DEFAULT '',
	%s vector(%d),
	%s JSONB,
	%s BIGINT NOT NULL DEFAULT 0,
	%s BIGINT NOT NULL DEFAULT 0
)`

const sqlUpsertNode = `
INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (%s) DO UPDATE SET
	%s = EXCLUDED.%s,
	%s = EXCLUDED.%s,
	%s = EXCLUDED.%s,
	%s = EXCLUDED.%s,
	%s = EXCLUDED.%s`

var (
	// Identifiers are interpolated into DDL and queries, so they must be
	// plain SQL names.
	tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	languagePattern  = regexp.MustCompile(`^[a-z_]+$`)
)

// VectorStore stores nodes and their embeddings in a PostgreSQL table with
// a pgvector embedding column.
type VectorStore struct {
	client postgres.Client
	option options
}

var _ vectorstore.VectorStore = (*VectorStore)(nil)

// New creates a pgvector store. Unless a client is injected, a PostgreSQL
// client is built from the connection options. The target table and vector
// index are created if they do not exist.
func New(opts ...Option) (*VectorStore, error) {
	option := defaultOptions
	for _, opt := range opts {
		opt(&option)
	}

	if !tableNamePattern.MatchString(option.table) {
		return nil, fmt.Errorf("invalid table name: %q", option.table)
	}
	if !languagePattern.MatchString(option.language) {
		return nil, fmt.Errorf("invalid text search language: %q", option.language)
	}
	if option.indexDimension <= 0 {
		return nil, fmt.Errorf("invalid index dimension: %d", option.indexDimension)
	}

	vs := &VectorStore{option: option}
	if option.client != nil {
		vs.client = option.client
	} else {
		builder := postgres.GetClientBuilder()
		client, err := builder(context.Background(),
			postgres.WithClientConnString(option.buildConnString()))
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres client: %w", err)
		}
		vs.client = client
	}

	if err := vs.ensureTable(context.Background()); err != nil {
		return nil, err
	}
	return vs, nil
}

// buildConnString composes the connection string from the discrete
// connection options unless a full connection string was given.
func (o options) buildConnString() string {
	if o.connString != "" {
		return o.connString
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", o.host, o.port),
		Path:   o.database,
	}
	if o.user != "" {
		if o.password != "" {
			u.User = url.UserPassword(o.user, o.password)
		} else {
			u.User = url.User(o.user)
		}
	}
	return u.String()
}

// ensureTable creates the vector extension, the target table and the vector
// index if they do not exist.
func (vs *VectorStore) ensureTable(ctx context.Context) error {
	if _, err := vs.client.ExecContext(ctx, sqlCreateExtension); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(sqlCreateTable, vs.option.table,
		vs.option.idFieldName, vs.option.nameFieldName, vs.option.contentFieldName,
		vs.option.embeddingFieldName, vs.option.indexDimension,
		vs.option.metadataFieldName, vs.option.createdAtFieldName, vs.option.updatedAtFieldName)
	if _, err := vs.client.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table %s: %w", vs.option.table, err)
	}

	return vs.createVectorIndex(ctx)
}

// createVectorIndex creates the configured vector index on the embedding
// column.
func (vs *VectorStore) createVectorIndex(ctx context.Context) error {
	var indexSQL string
	switch vs.option.vectorIndexType {
	case VectorIndexHNSW:
		m := defaultHNSWM
		efConstruction := defaultHNSWEfConstruction
		if p := vs.option.hnswParams; p != nil {
			if p.M > 0 {
				m = p.M
			}
			if p.EfConstruction > 0 {
				efConstruction = p.EfConstruction
			}
		}
		indexSQL = fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING hnsw (%s vector_cosine_ops) WITH (m = %d, ef_construction = %d)`,
			vs.option.table, vs.option.table, vs.option.embeddingFieldName, m, efConstruction)
	case VectorIndexIVFFlat:
		lists := defaultIVFFlatLists
		if p := vs.option.ivfflatParams; p != nil && p.Lists > 0 {
			lists = p.Lists
		}
		indexSQL = fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s_embedding_idx ON %s USING ivfflat (%s vector_cosine_ops) WITH (lists = %d)`,
			vs.option.table, vs.option.table, vs.option.embeddingFieldName, lists)
	default:
		return fmt.Errorf("unsupported vector index type: %s", vs.option.vectorIndexType)
	}

	if _, err := vs.client.ExecContext(ctx, indexSQL); err != nil {
		return fmt.Errorf("failed to create vector index (%s): %w", vs.option.vectorIndexType, err)
	}
	return nil
}

// Backend returns the backend label written to index metadata.
func (vs *VectorStore) Backend() string {
	return BackendName
}

// Add upserts a node with its embedding.
func (vs *VectorStore) Add(ctx context.Context, node *document.TextNode, embedding []float64) error {
	if node == nil {
		return errors.New("node is required")
	}
	if len(embedding) == 0 {
		return errors.New("embedding is required")
	}
	if len(embedding) != vs.option.indexDimension {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d",
			vs.option.indexDimension, len(embedding))
	}

	name, _ := node.Metadata[source.MetaFileName].(string)
	now := time.Now().Unix()
	_, err := vs.client.ExecContext(ctx, buildUpsertSQL(vs.option),
		node.ID, name, node.Text, toPgVector(embedding), mapToJSON(node.Metadata), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", node.ID, err)
	}
	return nil
}

// Search performs a search according to the query search mode.
func (vs *VectorStore) Search(ctx context.Context, query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	if query == nil {
		return nil, errors.New("query is required")
	}

	switch query.SearchMode {
	case vectorstore.SearchModeVector:
		return vs.searchByVector(ctx, query)
	case vectorstore.SearchModeKeyword:
		return vs.searchByKeyword(ctx, query)
	case vectorstore.SearchModeHybrid:
		return vs.searchByHybrid(ctx, query)
	case vectorstore.SearchModeFilter:
		return vs.searchByFilter(ctx, query)
	default:
		return nil, fmt.Errorf("unsupported search mode: %d", query.SearchMode)
	}
}

func (vs *VectorStore) searchByVector(ctx context.Context, query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	if err := vs.validateQueryVector(query.Vector); err != nil {
		return nil, err
	}

	qb := newVectorQueryBuilder(vs.option)
	qb.addVectorArg(toPgVector(query.Vector))
	applySearchFilter(qb, query.Filter)
	if query.MinScore > 0 {
		qb.addScoreFilter(query.MinScore)
	}
	sqlQuery, args := qb.build(searchLimit(query.Limit))
	return vs.executeSearch(ctx, sqlQuery, args)
}

func (vs *VectorStore) searchByKeyword(ctx context.Context, query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	if query.Query == "" {
		return nil, errors.New("empty query text is not supported for keyword search")
	}

	qb := newKeywordQueryBuilder(vs.option)
	qb.addKeywordSearchConditions(query.Query, query.MinScore)
	applySearchFilter(qb, query.Filter)
	sqlQuery, args := qb.build(searchLimit(query.Limit))
	return vs.executeSearch(ctx, sqlQuery, args)
}

func (vs *VectorStore) searchByHybrid(ctx context.Context, query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	if err := vs.validateQueryVector(query.Vector); err != nil {
		return nil, err
	}

	qb := newHybridQueryBuilder(vs.option, vs.option.vectorWeight, vs.option.textWeight)
	qb.addVectorArg(toPgVector(query.Vector))
	if query.Query != "" {
		qb.addHybridFtsCondition(query.Query)
	}
	applySearchFilter(qb, query.Filter)
	sqlQuery, args := qb.build(searchLimit(query.Limit))

	result, err := vs.executeSearch(ctx, sqlQuery, args)
	if err != nil {
		return nil, err
	}
	// The combined score is computed in the SELECT clause, so the minimum
	// score cut happens after scanning.
	if query.MinScore > 0 {
		kept := make([]*vectorstore.ScoredNode, 0, len(result.Results))
		for _, scored := range result.Results {
			if scored.Score >= query.MinScore {
				kept = append(kept, scored)
			}
		}
		result.Results = kept
	}
	return result, nil
}

func (vs *VectorStore) searchByFilter(ctx context.Context, query *vectorstore.SearchQuery) (*vectorstore.SearchResult, error) {
	qb := newFilterQueryBuilder(vs.option)
	applySearchFilter(qb, query.Filter)
	sqlQuery, args := qb.build(searchLimit(query.Limit))
	return vs.executeSearch(ctx, sqlQuery, args)
}

func (vs *VectorStore) validateQueryVector(vector []float64) error {
	if len(vector) == 0 {
		return errors.New("empty query vector is not supported")
	}
	if len(vector) != vs.option.indexDimension {
		return fmt.Errorf("query vector dimension mismatch: expected %d, got %d",
			vs.option.indexDimension, len(vector))
	}
	return nil
}

func applySearchFilter(qb queryFilterBuilder, filter *vectorstore.SearchFilter) {
	if filter == nil {
		return
	}
	qb.addIDFilter(filter.IDs)
	qb.addMetadataFilter(filter.Metadata)
}

func (vs *VectorStore) executeSearch(ctx context.Context, sqlQuery string, args []any) (*vectorstore.SearchResult, error) {
	result := &vectorstore.SearchResult{Results: make([]*vectorstore.ScoredNode, 0)}
	err := vs.client.Query(ctx, func(rows *sql.Rows) error {
		for rows.Next() {
			scored, err := scanScoredNode(rows)
			if err != nil {
				return err
			}
			result.Results = append(result.Results, scored)
		}
		return nil
	}, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	return result, nil
}

// scanScoredNode scans one search result row. The column order follows the
// table definition plus the trailing score column.
func scanScoredNode(rows *sql.Rows) (*vectorstore.ScoredNode, error) {
	var (
		id, name, content    string
		embedding            pgvector.Vector
		metadataJSON         []byte
		createdAt, updatedAt int64
		score                float64
	)
	if err := rows.Scan(&id, &name, &content, &embedding, &metadataJSON,
		&createdAt, &updatedAt, &score); err != nil {
		return nil, fmt.Errorf("failed to scan search result row: %w", err)
	}

	var metadata map[string]any
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata for node %s: %w", id, err)
		}
	}
	return &vectorstore.ScoredNode{
		Node: &document.TextNode{
			ID:       id,
			Text:     content,
			Metadata: metadata,
		},
		Score: score,
	}, nil
}

// Count returns the number of stored nodes matching the count options.
func (vs *VectorStore) Count(ctx context.Context, opts ...vectorstore.CountOption) (int, error) {
	config := vectorstore.ApplyCountOptions(opts...)

	cqb := newCountQueryBuilder(vs.option)
	cqb.addMetadataFilter(config.Filter)
	sqlQuery, args := cqb.build()

	count := 0
	err := vs.client.Query(ctx, func(rows *sql.Rows) error {
		if rows.Next() {
			return rows.Scan(&count)
		}
		return nil
	}, sqlQuery, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count nodes: %w", err)
	}
	return count, nil
}

// DeleteByFilter removes nodes matching the delete options. At least one
// criterion is required.
func (vs *VectorStore) DeleteByFilter(ctx context.Context, opts ...vectorstore.DeleteOption) error {
	config := vectorstore.ApplyDeleteOptions(opts...)
	if !config.DeleteAll && len(config.DocumentIDs) == 0 && len(config.Filter) == 0 {
		return errors.New("no delete criteria specified")
	}

	dsb := newDeleteSQLBuilder(vs.option)
	if !config.DeleteAll {
		dsb.addIDFilter(config.DocumentIDs)
		dsb.addMetadataFilter(config.Filter)
	}
	sqlQuery, args := dsb.build()

	if _, err := vs.client.ExecContext(ctx, sqlQuery, args...); err != nil {
		return fmt.Errorf("failed to delete nodes: %w", err)
	}
	return nil
}

// Close closes the underlying PostgreSQL client.
func (vs *VectorStore) Close() error {
	return vs.client.Close()
}

// searchLimit returns the effective result limit for a search.
func searchLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}

// toPgVector converts an embedding to the pgvector wire type.
func toPgVector(embedding []float64) pgvector.Vector {
	float32Vec := make([]float32, len(embedding))
	for i, v := range embedding {
		float32Vec[i] = float32(v)
	}
	return pgvector.NewVector(float32Vec)
}

// mapToJSON converts a metadata map to its JSON representation.
func mapToJSON(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	data, err := json.Marshal(m)
	if err != nil {
		log.Warnf("Failed to marshal metadata to JSON: %v", err)
		return "{}"
	}
	return string(data)
}
