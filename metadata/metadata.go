//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package metadata populates per-file embedding metadata: the documentation
// URL derived from the file path, the page title read from the file, and a
// reachability check against the derived URL. Products plug in their own URL
// derivation; everything else is shared.
package metadata

import (
	"bufio"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/road-core/rag-content/log"
)

// Metadata keys attached to every document read from a processed file.
const (
	// KeyDocsURL is the metadata key holding the derived documentation URL.
	KeyDocsURL = "docs_url"
	// KeyTitle is the metadata key holding the extracted page title.
	KeyTitle = "title"
)

// DefaultTimeout bounds one URL reachability check.
const DefaultTimeout = 30 * time.Second

// URLDeriver derives the public documentation URL for a file path. It is
// the one product-specific piece of metadata population: every docs tree
// maps file paths to published URLs differently.
type URLDeriver interface {
	DeriveURL(filePath string) (string, error)
}

// URLDeriverFunc adapts a plain function to the URLDeriver interface.
type URLDeriverFunc func(filePath string) (string, error)

// DeriveURL implements the URLDeriver interface.
func (f URLDeriverFunc) DeriveURL(filePath string) (string, error) {
	return f(filePath)
}

// Record is one metadata population outcome, kept for end-of-run reporting.
type Record struct {
	FilePath  string
	Title     string
	URL       string
	Reachable bool
}

// Processor populates metadata for documentation files. Populate is safe to
// call from concurrent loader workers.
type Processor struct {
	deriver           URLDeriver
	client            *http.Client
	timeout           time.Duration
	checkReachability bool

	mu      sync.Mutex
	records []Record
}

// Option represents a functional option for configuring the Processor.
type Option func(*Processor)

// WithHTTPClient injects the HTTP client used for reachability checks. The
// client is used as given; WithTimeout does not apply to it.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Processor) {
		p.client = client
	}
}

// WithTimeout sets the timeout for one reachability check.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Processor) {
		p.timeout = timeout
	}
}

// WithReachabilityCheck enables or disables the HTTP probe of derived URLs.
// Disabling it speeds up large runs at the cost of the unreachable-URL
// report; records are then written as reachable.
func WithReachabilityCheck(enabled bool) Option {
	return func(p *Processor) {
		p.checkReachability = enabled
	}
}

// New creates a metadata processor around the given URL deriver.
// A nil deriver is a caller error and fails loudly so misconfigured product
// integrations are caught early.
func New(deriver URLDeriver, opts ...Option) (*Processor, error) {
	if deriver == nil {
		return nil, errors.New("url deriver is required")
	}
	p := &Processor{
		deriver:           deriver,
		timeout:           DefaultTimeout,
		checkReachability: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: p.timeout}
	}
	return p, nil
}

// Populate derives the documentation URL and title for a file and returns
// them as document metadata. Reachability and title failures degrade to
// safe defaults; one bad document never blocks the pipeline.
func (p *Processor) Populate(filePath string) map[string]any {
	docsURL, err := p.deriver.DeriveURL(filePath)
	if err != nil {
		log.Warnf("Failed to derive URL for file %s: %v", filePath, err)
		docsURL = ""
	}
	title := FileTitle(filePath)

	reachable := true
	if p.checkReachability {
		reachable = p.PingURL(docsURL)
	}

	p.mu.Lock()
	p.records = append(p.records, Record{
		FilePath:  filePath,
		Title:     title,
		URL:       docsURL,
		Reachable: reachable,
	})
	p.mu.Unlock()

	if !reachable {
		log.Warnf("URL not reachable: %s (Title: %q, File path: %s)", docsURL, title, filePath)
	} else {
		log.Debugf("Metadata populated for: %q (URL: %s, File path: %s)", title, docsURL, filePath)
	}

	return map[string]any{
		KeyDocsURL: docsURL,
		KeyTitle:   title,
	}
}

// PingURL reports whether the URL resolves to a live page. Any transport
// error or non-200 status counts as unreachable.
func (p *Processor) PingURL(url string) bool {
	resp, err := p.client.Get(url)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Records returns a copy of the metadata records in population order.
func (p *Processor) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	records := make([]Record, len(p.records))
	copy(records, p.records)
	return records
}

// UnreachableCount returns the number of processed files whose derived URL
// was unreachable.
func (p *Processor) UnreachableCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := 0
	for _, record := range p.records {
		if !record.Reachable {
			count++
		}
	}
	return count
}

// FileTitle extracts the title from the first line of a plaintext doc file,
// stripping the trailing newline and any leading "#" markers with their
// separating spaces. Files that cannot be read yield an empty title.
func FileTitle(filePath string) string {
	file, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer file.Close()

	line, err := bufio.NewReader(file).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	line = strings.TrimRight(line, "\n")
	return strings.TrimLeft(line, "# ")
}
