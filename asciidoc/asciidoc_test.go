//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

package asciidoc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/road-core/rag-content/log"
)

// fakeRunner records invocations instead of executing asciidoctor.
type fakeRunner struct {
	mu     sync.Mutex
	names  []string
	calls  [][]string
	stdout []byte
	stderr []byte
	failOn string
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append(f.names, name)
	f.calls = append(f.calls, args)
	input := args[len(args)-1]
	if f.failOn != "" && strings.Contains(input, f.failOn) {
		return f.stdout, f.stderr, errors.New("exit status 1")
	}
	return f.stdout, f.stderr, nil
}

// captureLogger records formatted log messages per level.
type captureLogger struct {
	mu    sync.Mutex
	warns []string
}

func (c *captureLogger) Debug(args ...any)                 {}
func (c *captureLogger) Debugf(format string, args ...any) {}
func (c *captureLogger) Info(args ...any)                  {}
func (c *captureLogger) Infof(format string, args ...any)  {}
func (c *captureLogger) Warn(args ...any)                  {}
func (c *captureLogger) Warnf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warns = append(c.warns, fmt.Sprintf(format, args...))
}
func (c *captureLogger) Error(args ...any)                 {}
func (c *captureLogger) Errorf(format string, args ...any) {}
func (c *captureLogger) Fatal(args ...any)                 {}
func (c *captureLogger) Fatalf(format string, args ...any) {}

// swapLogger installs a capture logger for the duration of the test.
func swapLogger(t *testing.T) *captureLogger {
	t.Helper()
	original := log.Default
	t.Cleanup(func() { log.Default = original })
	capture := &captureLogger{}
	log.Default = capture
	return capture
}

// installFakeAsciidoctor places an executable asciidoctor shim on PATH and
// returns its path. The shim is only resolved, never executed.
func installFakeAsciidoctor(t *testing.T) string {
	t.Helper()
	binDir := t.TempDir()
	path := filepath.Join(binDir, "asciidoctor")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0755))
	t.Setenv("PATH", binDir)
	return path
}

// newTestConverter builds a converter with a fake runner installed.
func newTestConverter(t *testing.T, opts ...Option) (*Converter, *fakeRunner) {
	t.Helper()
	installFakeAsciidoctor(t)
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, c.Close()) })
	runner := &fakeRunner{}
	c.run = runner.run
	return c, runner
}

func TestNew_MissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := New()
	require.ErrorContains(t, err, "asciidoctor not found in PATH")
}

func TestNew_MaterializesTextConverter(t *testing.T) {
	installFakeAsciidoctor(t)
	c, err := New()
	require.NoError(t, err)

	require.NotEmpty(t, c.script)
	content, err := os.ReadFile(c.script)
	require.NoError(t, err)
	require.Equal(t, textConverterScript, content)
	require.Contains(t, string(content), "register_for 'text'")

	require.NoError(t, c.Close())
	require.NoFileExists(t, c.script)
	// Close is idempotent.
	require.NoError(t, c.Close())
}

func TestNew_BuiltinFormat(t *testing.T) {
	installFakeAsciidoctor(t)
	c, err := New(WithFormat(FormatHTML5))
	require.NoError(t, err)
	require.Empty(t, c.script)
	require.NoError(t, c.Close())
}

func TestNew_UnknownFormat(t *testing.T) {
	installFakeAsciidoctor(t)
	_, err := New(WithFormat("pdfish"))
	require.ErrorContains(t, err, `no converter available for format "pdfish"`)
}

func TestNew_CustomScript(t *testing.T) {
	installFakeAsciidoctor(t)
	c, err := New(WithConverterScript("/opt/custom_converter.rb"))
	require.NoError(t, err)
	require.Equal(t, "/opt/custom_converter.rb", c.script)
	require.False(t, c.ownsScript)
}

func TestNew_AttributesFile(t *testing.T) {
	attrsFile := filepath.Join(t.TempDir(), "attributes.yaml")
	content := "product: OpenShift\ndistro: openshift-enterprise\n"
	require.NoError(t, os.WriteFile(attrsFile, []byte(content), 0644))

	installFakeAsciidoctor(t)
	c, err := New(WithAttributesFile(attrsFile))
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, []string{"distro=openshift-enterprise", "product=OpenShift"}, c.attributes)
}

func TestNew_AttributesFileEmpty(t *testing.T) {
	attrsFile := filepath.Join(t.TempDir(), "attributes.yaml")
	require.NoError(t, os.WriteFile(attrsFile, nil, 0644))

	installFakeAsciidoctor(t)
	c, err := New(WithAttributesFile(attrsFile))
	require.NoError(t, err)
	defer c.Close()

	require.Empty(t, c.attributes)
}

func TestNew_AttributesFileInvalid(t *testing.T) {
	attrsFile := filepath.Join(t.TempDir(), "attributes.yaml")
	require.NoError(t, os.WriteFile(attrsFile, []byte("[[]\n"), 0644))

	installFakeAsciidoctor(t)
	_, err := New(WithAttributesFile(attrsFile))
	require.ErrorContains(t, err, "failed to parse attributes file")
}

func TestNew_AttributesFileMissing(t *testing.T) {
	installFakeAsciidoctor(t)
	_, err := New(WithAttributesFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.ErrorContains(t, err, "failed to read attributes file")
}

func TestConvert_BuildsCommand(t *testing.T) {
	attrsFile := filepath.Join(t.TempDir(), "attributes.yaml")
	require.NoError(t, os.WriteFile(attrsFile, []byte("foo: bar\n"), 0644))

	binary := installFakeAsciidoctor(t)
	c, err := New(WithAttributesFile(attrsFile), WithConverterScript("/opt/text_converter.rb"))
	require.NoError(t, err)
	runner := &fakeRunner{}
	c.run = runner.run

	workDir := t.TempDir()
	input := filepath.Join(workDir, "about.adoc")
	output := filepath.Join(workDir, "docs", "about.txt")
	require.NoError(t, c.Convert(context.Background(), input, output))

	require.Equal(t, []string{binary}, runner.names)
	require.Equal(t, [][]string{{
		"-a", "foo=bar",
		"-r", "/opt/text_converter.rb",
		"-b", "text",
		"-o", output,
		"--trace", "--quiet",
		input,
	}}, runner.calls)
	require.DirExists(t, filepath.Dir(output))
}

func TestConvert_OverwriteWarns(t *testing.T) {
	c, _ := newTestConverter(t)
	capture := swapLogger(t)

	output := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(output, []byte("old"), 0644))

	require.NoError(t, c.Convert(context.Background(), "in.adoc", output))
	require.Len(t, capture.warns, 1)
	require.Contains(t, capture.warns[0], "overwriting")
}

func TestConvert_CommandError(t *testing.T) {
	c, runner := newTestConverter(t)
	runner.failOn = "broken"
	runner.stdout = []byte("converting broken.adoc\n")
	runner.stderr = []byte("asciidoctor: FAILED: missing include\n")

	err := c.Convert(context.Background(), "broken.adoc", filepath.Join(t.TempDir(), "broken.txt"))
	require.ErrorContains(t, err, "asciidoctor failed")
	require.ErrorContains(t, err, "missing include")
	require.ErrorContains(t, err, "converting broken.adoc")
}

func TestConvertTree(t *testing.T) {
	c, runner := newTestConverter(t)
	runner.failOn = "setup"
	capture := swapLogger(t)

	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	files := []string{"install/about", "install/setup", "monitoring/alerts.adoc"}

	converted, failed := c.ConvertTree(context.Background(), files, inputDir, outputDir)
	require.Equal(t, 2, converted)
	require.Equal(t, 1, failed)
	require.Len(t, runner.calls, 3)

	// Extensionless and .adoc entries map to the same suffix swap.
	last := runner.calls[2]
	require.Equal(t, filepath.Join(inputDir, "monitoring", "alerts.adoc"), last[len(last)-1])
	require.Equal(t, filepath.Join(outputDir, "monitoring", "alerts.txt"), last[5])

	require.Len(t, capture.warns, 1)
	require.Contains(t, capture.warns[0], "Failed to convert")
}
