//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package encoding provides rune-safe text measurement and splitting helpers.
package encoding

import "unicode/utf8"

// RuneCount returns the number of runes in s.
// Chunk sizes are expressed in runes so multi-byte characters are never
// counted as more than one unit.
func RuneCount(s string) int {
	return utf8.RuneCountInString(s)
}

// SafeSplitBySize splits s into consecutive pieces of at most size runes.
// Splits never land inside a multi-byte encoding. A non-positive size
// returns the input as a single piece.
func SafeSplitBySize(s string, size int) []string {
	if s == "" {
		return nil
	}
	if size <= 0 {
		return []string{s}
	}

	var pieces []string
	runes := []rune(s)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

// SafeOverlap returns the trailing overlap runes of s.
// If s holds fewer runes than overlap the whole string is returned.
func SafeOverlap(s string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= overlap {
		return s
	}
	return string(runes[len(runes)-overlap:])
}
