//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package postgres provides the PostgreSQL instance info management.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// HandlerFunc processes the rows returned by a query. The rows are closed
// by the caller after the handler returns.
type HandlerFunc func(rows *sql.Rows) error

// TxFunc runs inside a transaction. Returning an error rolls the
// transaction back, otherwise it is committed.
type TxFunc func(tx *sql.Tx) error

// DefaultClientBuilder is the default PostgreSQL client builder.
// It validates and parses the connection string eagerly but does not
// connect; connections are established lazily on first use.
func DefaultClientBuilder(ctx context.Context, builderOpts ...ClientBuilderOpt) (Client, error) {
	o := &ClientBuilderOpts{}
	for _, opt := range builderOpts {
		opt(o)
	}

	if o.ConnString == "" {
		return nil, errors.New("postgres: connection string is empty")
	}

	cfg, err := pgx.ParseConfig(o.ConnString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse connection string failed: %w", err)
	}

	return NewClient(stdlib.OpenDB(*cfg)), nil
}

// Client defines the interface for PostgreSQL operations.
// It is a thin wrapper around database/sql, containing only the methods
// needed by the vector store layer.
type Client interface {
	// ExecContext executes an insert/delete/update/DDL command.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Query executes a select command and passes the rows to the handler.
	Query(ctx context.Context, handler HandlerFunc, query string, args ...any) error

	// Transaction runs fn inside a transaction.
	Transaction(ctx context.Context, fn TxFunc) error

	// Close closes the underlying connection pool.
	Close() error
}

// defaultClient wraps *sql.DB to implement the Client interface.
type defaultClient struct {
	db *sql.DB
}

// NewClient creates a Client backed by an existing database handle.
func NewClient(db *sql.DB) Client {
	return &defaultClient{db: db}
}

// ExecContext implements Client.ExecContext.
func (c *defaultClient) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Query implements Client.Query.
func (c *defaultClient) Query(ctx context.Context, handler HandlerFunc, query string, args ...any) error {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if err := handler(rows); err != nil {
		return err
	}
	return rows.Err()
}

// Transaction implements Client.Transaction.
func (c *defaultClient) Transaction(ctx context.Context, fn TxFunc) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin transaction failed: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("postgres: rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// Close implements Client.Close.
func (c *defaultClient) Close() error {
	return c.db.Close()
}
