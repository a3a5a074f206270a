//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// recordingSpan captures attributes and status for assertions. It embeds a
// noop span so only the observed methods need implementing.
type recordingSpan struct {
	trace.Span
	attrs  []attribute.KeyValue
	status codes.Code
	msg    string
}

func (s *recordingSpan) SetAttributes(kv ...attribute.KeyValue) {
	s.attrs = append(s.attrs, kv...)
	s.Span.SetAttributes(kv...)
}

func (s *recordingSpan) SetStatus(c codes.Code, msg string) {
	s.status = c
	s.msg = msg
	s.Span.SetStatus(c, msg)
}

func newRecordingSpan() *recordingSpan {
	_, baseSpan := trace.NewNoopTracerProvider().Tracer("test").Start(context.Background(), "test")
	return &recordingSpan{Span: baseSpan}
}

func (s *recordingSpan) attr(key string) (attribute.Value, bool) {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTraceEmbedding(t *testing.T) {
	span := newRecordingSpan()
	format := "float"
	inputTokens := int64(42)

	TraceEmbedding(span, &EmbeddingAttributes{
		RequestEncodingFormat: &format,
		RequestModel:          "text-embedding-3-small",
		Dimensions:            1536,
		InputToken:            &inputTokens,
	})

	v, ok := span.attr("gen_ai.operation.name")
	require.True(t, ok)
	require.Equal(t, OperationEmbeddings, v.AsString())

	v, ok = span.attr("gen_ai.request.model")
	require.True(t, ok)
	require.Equal(t, "text-embedding-3-small", v.AsString())

	v, ok = span.attr("gen_ai.embeddings.dimension.count")
	require.True(t, ok)
	require.Equal(t, int64(1536), v.AsInt64())

	v, ok = span.attr("gen_ai.usage.input_tokens")
	require.True(t, ok)
	require.Equal(t, int64(42), v.AsInt64())

	require.Equal(t, codes.Unset, span.status)
}

func TestTraceEmbeddingError(t *testing.T) {
	span := newRecordingSpan()

	TraceEmbedding(span, &EmbeddingAttributes{
		RequestModel: "text-embedding-3-small",
		Dimensions:   1536,
		Error:        errors.New("rate limited"),
	})

	require.Equal(t, codes.Error, span.status)
	require.Equal(t, "rate limited", span.msg)

	v, ok := span.attr("error.message")
	require.True(t, ok)
	require.Equal(t, "rate limited", v.AsString())

	v, ok = span.attr("error.type")
	require.True(t, ok)
	require.Equal(t, valueDefaultErrorType, v.AsString())
}

func TestTraceEmbeddingOptionalServerAttributes(t *testing.T) {
	span := newRecordingSpan()
	addr := "api.openai.com"
	port := 443

	TraceEmbedding(span, &EmbeddingAttributes{
		RequestModel:  "text-embedding-3-small",
		ServerAddress: &addr,
		ServerPort:    &port,
	})

	v, ok := span.attr("server.address")
	require.True(t, ok)
	require.Equal(t, addr, v.AsString())

	v, ok = span.attr("server.port")
	require.True(t, ok)
	require.Equal(t, int64(port), v.AsInt64())
}
