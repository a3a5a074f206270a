//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package telemetry provides tracing helpers for rag-content operations.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	// InstrumentName identifies this library to the tracer provider.
	InstrumentName = "github.com/road-core/rag-content"

	// OperationEmbeddings is the operation name for embedding spans.
	OperationEmbeddings = "embeddings"
)

// Attribute keys follow the OpenTelemetry GenAI semantic conventions.
const (
	keyGenAIOperationName            = "gen_ai.operation.name"
	keyGenAIRequestModel             = "gen_ai.request.model"
	keyGenAIRequestEncodingFormats   = "gen_ai.request.encoding_formats"
	keyGenAIEmbeddingsDimensionCount = "gen_ai.embeddings.dimension.count"
	keyGenAIUsageInputTokens         = "gen_ai.usage.input_tokens"
	keyGenAIEmbeddingsRequest        = "gen_ai.embeddings.request"
	keyGenAIEmbeddingsResponse       = "gen_ai.embeddings.response"
	keyErrorType                     = "error.type"
	keyErrorMessage                  = "error.message"
	keyServerAddress                 = "server.address"
	keyServerPort                    = "server.port"

	valueDefaultErrorType = "_OTHER"
)

// Tracer is the tracer used for all spans this library creates. It resolves
// through the global tracer provider, so spans are no-ops unless the host
// application installs one.
var Tracer trace.Tracer = otel.Tracer(InstrumentName)
