//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package asciidoc converts AsciiDoc documentation by driving the
// asciidoctor command. The bundled text converter extension ships inside
// the binary and is materialized on demand; built-in asciidoctor backends
// need no extension.
package asciidoc

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/road-core/rag-content/log"
)

// Output formats with first-class support. Text uses the bundled converter
// extension, the rest are asciidoctor built-ins.
const (
	FormatText     = "text"
	FormatHTML5    = "html5"
	FormatDocBook5 = "docbook5"
)

// asciidoctorBinary is the command resolved from PATH at construction.
const asciidoctorBinary = "asciidoctor"

// builtinFormats are backends asciidoctor ships with, needing no -r flag.
var builtinFormats = map[string]bool{
	FormatHTML5:    true,
	FormatDocBook5: true,
}

//go:embed asciidoc_text_converter.rb
var textConverterScript []byte

// runner executes one external command and returns its output streams.
type runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// runCommand is the default runner backed by os/exec.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Converter converts AsciiDoc files to a target format through the
// asciidoctor command.
type Converter struct {
	binary     string
	format     string
	attributes []string
	script     string
	ownsScript bool
	run        runner
}

// Option configures the converter.
type Option func(*options)

type options struct {
	format         string
	attributesFile string
	script         string
}

// WithFormat sets the target format. The default is text.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithAttributesFile sets a YAML file of document attributes passed to
// asciidoctor as -a key=value arguments.
func WithAttributesFile(path string) Option {
	return func(o *options) {
		o.attributesFile = path
	}
}

// WithConverterScript sets a custom asciidoctor extension required with -r,
// replacing the bundled converter for the target format.
func WithConverterScript(path string) Option {
	return func(o *options) {
		o.script = path
	}
}

// New creates a converter. It fails when the asciidoctor command is not on
// PATH, when the attributes file cannot be parsed, or when the target
// format has no converter.
func New(opts ...Option) (*Converter, error) {
	option := options{format: FormatText}
	for _, opt := range opts {
		opt(&option)
	}

	binary, err := exec.LookPath(asciidoctorBinary)
	if err != nil {
		return nil, fmt.Errorf("asciidoctor not found in PATH: %w", err)
	}

	attributes, err := attributeArgs(option.attributesFile)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		binary:     binary,
		format:     option.format,
		attributes: attributes,
		run:        runCommand,
	}

	switch {
	case option.script != "":
		c.script = option.script
	case builtinFormats[option.format]:
		// Built-in backend, nothing to require.
	case option.format == FormatText:
		script, err := materializeTextConverter()
		if err != nil {
			return nil, err
		}
		c.script = script
		c.ownsScript = true
	default:
		return nil, fmt.Errorf("no converter available for format %q", option.format)
	}
	return c, nil
}

// Convert converts inputFile into outputFile. An existing output file is
// overwritten with a warning; missing parent directories are created.
func (c *Converter) Convert(ctx context.Context, inputFile, outputFile string) error {
	input, err := filepath.Abs(inputFile)
	if err != nil {
		return fmt.Errorf("failed to resolve input path %s: %w", inputFile, err)
	}
	output, err := filepath.Abs(outputFile)
	if err != nil {
		return fmt.Errorf("failed to resolve output path %s: %w", outputFile, err)
	}

	if _, err := os.Stat(output); err == nil {
		log.Warnf("Output file %s exists, overwriting", output)
	} else if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	args := make([]string, 0, 2*len(c.attributes)+8)
	for _, attribute := range c.attributes {
		args = append(args, "-a", attribute)
	}
	if c.script != "" {
		args = append(args, "-r", c.script)
	}
	args = append(args, "-b", c.format, "-o", output, "--trace", "--quiet", input)

	stdout, stderr, err := c.run(ctx, c.binary, args...)
	if err != nil {
		return fmt.Errorf("asciidoctor failed for %s: %w (stdout: %s, stderr: %s)",
			input, err, bytes.TrimSpace(stdout), bytes.TrimSpace(stderr))
	}
	return nil
}

// ConvertTree converts every listed file from inputDir into outputDir,
// mapping <path>.adoc inputs to <path>.txt outputs. Entries may carry an
// extension or not; topic map traversals produce extensionless paths.
// Per-file failures are logged and skipped. Returns the number of files
// converted and failed.
func (c *Converter) ConvertTree(ctx context.Context, files []string, inputDir, outputDir string) (converted, failed int) {
	for _, file := range files {
		base := strings.TrimSuffix(file, filepath.Ext(file))
		input := filepath.Join(inputDir, base+".adoc")
		output := filepath.Join(outputDir, base+".txt")
		if err := c.Convert(ctx, input, output); err != nil {
			log.Warnf("Failed to convert %s: %v", input, err)
			failed++
			continue
		}
		converted++
	}
	return converted, failed
}

// Close removes the materialized bundled converter script. It is a no-op
// for custom scripts and built-in formats.
func (c *Converter) Close() error {
	if !c.ownsScript {
		return nil
	}
	c.ownsScript = false
	return os.Remove(c.script)
}

// attributeArgs loads a YAML attributes file into sorted key=value
// arguments. An empty path or empty file yields no attributes.
func attributeArgs(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes file: %w", err)
	}
	attributes := make(map[string]any)
	if err := yaml.Unmarshal(data, &attributes); err != nil {
		return nil, fmt.Errorf("failed to parse attributes file %s: %w", path, err)
	}

	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, fmt.Sprintf("%s=%v", k, attributes[k]))
	}
	return args, nil
}

// materializeTextConverter writes the embedded converter extension to a
// temp file so asciidoctor can require it.
func materializeTextConverter() (string, error) {
	f, err := os.CreateTemp("", "asciidoc-text-converter-*.rb")
	if err != nil {
		return "", fmt.Errorf("failed to create converter script: %w", err)
	}
	if _, err := f.Write(textConverterScript); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write converter script: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write converter script: %w", err)
	}
	return f.Name(), nil
}
