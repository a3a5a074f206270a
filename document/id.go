//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package document

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GenerateDocumentID generates a unique ID for a document.
// The name and a content hash form a stable, greppable prefix; a UUID
// suffix keeps repeated ingestions of the same file distinct.
func GenerateDocumentID(name, content string) string {
	hash := sha256.Sum256([]byte(content))
	contentHash := hex.EncodeToString(hash[:8])
	return strings.ReplaceAll(name, " ", "_") + "_" + contentHash + "_" + uuid.NewString()
}

// GenerateNodeID derives a chunk identifier from its parent document ID and
// the chunk's position within the document.
func GenerateNodeID(docID string, index int) string {
	if docID == "" {
		return "chunk_" + strconv.Itoa(index)
	}
	return docID + "_" + strconv.Itoa(index)
}
