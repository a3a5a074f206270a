//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package pgvector

import (
	"github.com/road-core/rag-content/storage/postgres"
)

// VectorIndexType is the type of the vector index created on the embedding
// column.
type VectorIndexType string

const (
	// VectorIndexHNSW creates an HNSW index.
	VectorIndexHNSW VectorIndexType = "hnsw"
	// VectorIndexIVFFlat creates an IVFFlat index.
	VectorIndexIVFFlat VectorIndexType = "ivfflat"
)

const (
	defaultTable              = "documents"
	defaultIDFieldName        = "id"
	defaultNameFieldName      = "name"
	defaultContentFieldName   = "content"
	defaultEmbeddingFieldName = "embedding"
	defaultMetadataFieldName  = "metadata"
	defaultCreatedAtFieldName = "created_at"
	defaultUpdatedAtFieldName = "updated_at"
	defaultLanguage           = "english"
	defaultHost               = "localhost"
	defaultPort               = 5432
	defaultUser               = "postgres"
	defaultDatabase           = "postgres"
	defaultIndexDimension     = 1536
	defaultSearchLimit        = 10
	defaultHNSWM              = 16
	defaultHNSWEfConstruction = 64
	defaultIVFFlatLists       = 100
	defaultVectorWeight       = 0.7
	defaultTextWeight         = 0.3
)

// HNSWIndexParams holds the parameters for an HNSW index.
type HNSWIndexParams struct {
	// M is the maximum number of connections per layer.
	M int
	// EfConstruction is the size of the candidate list during construction.
	EfConstruction int
}

// IVFFlatIndexParams holds the parameters for an IVFFlat index.
type IVFFlatIndexParams struct {
	// Lists is the number of inverted lists.
	Lists int
}

type options struct {
	host       string
	port       int
	user       string
	password   string
	database   string
	connString string
	client     postgres.Client

	table              string
	idFieldName        string
	nameFieldName      string
	contentFieldName   string
	embeddingFieldName string
	metadataFieldName  string
	createdAtFieldName string
	updatedAtFieldName string
	language           string

	indexDimension  int
	vectorIndexType VectorIndexType
	hnswParams      *HNSWIndexParams
	ivfflatParams   *IVFFlatIndexParams

	vectorWeight float64
	textWeight   float64
}

var defaultOptions = options{
	host:               defaultHost,
	port:               defaultPort,
	user:               defaultUser,
	database:           defaultDatabase,
	table:              defaultTable,
	idFieldName:        defaultIDFieldName,
	nameFieldName:      defaultNameFieldName,
	contentFieldName:   defaultContentFieldName,
	embeddingFieldName: defaultEmbeddingFieldName,
	metadataFieldName:  defaultMetadataFieldName,
	createdAtFieldName: defaultCreatedAtFieldName,
	updatedAtFieldName: defaultUpdatedAtFieldName,
	language:           defaultLanguage,
	indexDimension:     defaultIndexDimension,
	vectorIndexType:    VectorIndexHNSW,
	hnswParams: &HNSWIndexParams{
		M:              defaultHNSWM,
		EfConstruction: defaultHNSWEfConstruction,
	},
	ivfflatParams: &IVFFlatIndexParams{
		Lists: defaultIVFFlatLists,
	},
	vectorWeight: defaultVectorWeight,
	textWeight:   defaultTextWeight,
}

// Option configures the pgvector store.
type Option func(*options)

// WithHost sets the PostgreSQL host.
func WithHost(host string) Option {
	return func(o *options) {
		o.host = host
	}
}

// WithPort sets the PostgreSQL port.
func WithPort(port int) Option {
	return func(o *options) {
		o.port = port
	}
}

// WithUser sets the PostgreSQL user.
func WithUser(user string) Option {
	return func(o *options) {
		o.user = user
	}
}

// WithPassword sets the PostgreSQL password.
func WithPassword(password string) Option {
	return func(o *options) {
		o.password = password
	}
}

// WithDatabase sets the PostgreSQL database name.
func WithDatabase(database string) Option {
	return func(o *options) {
		o.database = database
	}
}

// WithConnString sets the full connection string, overriding the host, port,
// user, password and database options.
func WithConnString(connString string) Option {
	return func(o *options) {
		o.connString = connString
	}
}

// WithClient injects an existing PostgreSQL client instead of building one
// from the connection options.
func WithClient(client postgres.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithTable sets the table name. The name must be a plain SQL identifier.
func WithTable(table string) Option {
	return func(o *options) {
		o.table = table
	}
}

// WithIndexDimension sets the embedding dimension of the vector column.
func WithIndexDimension(dimension int) Option {
	return func(o *options) {
		o.indexDimension = dimension
	}
}

// WithLanguage sets the text search configuration language used by keyword
// and hybrid search.
func WithLanguage(language string) Option {
	return func(o *options) {
		o.language = language
	}
}

// WithVectorIndexType sets the vector index type created on the embedding
// column.
func WithVectorIndexType(indexType VectorIndexType) Option {
	return func(o *options) {
		o.vectorIndexType = indexType
	}
}

// WithHNSWIndexParams sets the HNSW index parameters. A nil value keeps the
// defaults.
func WithHNSWIndexParams(params *HNSWIndexParams) Option {
	return func(o *options) {
		if params != nil {
			o.hnswParams = params
		}
	}
}

// WithIVFFlatIndexParams sets the IVFFlat index parameters. A nil value
// keeps the defaults.
func WithIVFFlatIndexParams(params *IVFFlatIndexParams) Option {
	return func(o *options) {
		if params != nil {
			o.ivfflatParams = params
		}
	}
}

// WithHybridSearchWeights sets the score weights used by hybrid search.
func WithHybridSearchWeights(vectorWeight, textWeight float64) Option {
	return func(o *options) {
		o.vectorWeight = vectorWeight
		o.textWeight = textWeight
	}
}
