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
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EmbeddingAttributes represents the attributes of an embedding call.
type EmbeddingAttributes struct {
	RequestEncodingFormat *string
	RequestModel          string
	Dimensions            int
	Error                 error
	InputToken            *int64
	Request               *string
	Response              *string
	ServerAddress         *string
	ServerPort            *int
}

// TraceEmbedding traces the invocation of an embedding call.
func TraceEmbedding(span trace.Span, embeddingAttributes *EmbeddingAttributes) {
	span.SetAttributes(buildEmbeddingAttributes(embeddingAttributes)...)
	if embeddingAttributes.Error != nil {
		span.SetStatus(codes.Error, embeddingAttributes.Error.Error())
	}
}

func buildEmbeddingAttributes(embeddingAttributes *EmbeddingAttributes) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(keyGenAIOperationName, OperationEmbeddings),
		attribute.String(keyGenAIRequestModel, embeddingAttributes.RequestModel),
		attribute.Int(keyGenAIEmbeddingsDimensionCount, embeddingAttributes.Dimensions),
	}
	if embeddingAttributes.RequestEncodingFormat != nil {
		attrs = append(attrs, attribute.StringSlice(keyGenAIRequestEncodingFormats, []string{*embeddingAttributes.RequestEncodingFormat}))
	}
	if embeddingAttributes.InputToken != nil {
		attrs = append(attrs, attribute.Int64(keyGenAIUsageInputTokens, *embeddingAttributes.InputToken))
	}
	if embeddingAttributes.Request != nil {
		attrs = append(attrs, attribute.String(keyGenAIEmbeddingsRequest, *embeddingAttributes.Request))
	}
	if embeddingAttributes.Response != nil {
		attrs = append(attrs, attribute.String(keyGenAIEmbeddingsResponse, *embeddingAttributes.Response))
	}
	if embeddingAttributes.Error != nil {
		attrs = append(attrs, attribute.String(keyErrorType, valueDefaultErrorType), attribute.String(keyErrorMessage, embeddingAttributes.Error.Error()))
	}
	if embeddingAttributes.ServerAddress != nil {
		attrs = append(attrs, attribute.String(keyServerAddress, *embeddingAttributes.ServerAddress))
	}
	if embeddingAttributes.ServerPort != nil {
		attrs = append(attrs, attribute.Int(keyServerPort, *embeddingAttributes.ServerPort))
	}
	return attrs
}
