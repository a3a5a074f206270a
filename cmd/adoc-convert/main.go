//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package main converts an AsciiDoc documentation tree to plain text.
//
// The set of files to convert comes from the documentation topic map, the
// same YAML the docs build uses, filtered to one distro. Conversion runs
// the asciidoctor binary with the bundled text converter, so it must be
// installed and on PATH.
//
// Example usage:
//
//	adoc-convert -i openshift-docs -o ocp-docs-plaintext \
//	    -t openshift-docs/_topic_maps/_topic_map.yml -d openshift-enterprise
package main

import (
	"context"
	"flag"

	"github.com/road-core/rag-content/asciidoc"
	"github.com/road-core/rag-content/internal/cli"
	"github.com/road-core/rag-content/log"
	"github.com/road-core/rag-content/topicmap"
)

var (
	inputDir      string
	outputDir     string
	attributes    string
	distro        string
	topicMapPath  string
	converterFile string
)

func init() {
	flag.StringVar(&inputDir, "i", "", "input directory containing AsciiDoc documentation")
	flag.StringVar(&inputDir, "input-dir", "", "input directory containing AsciiDoc documentation")
	flag.StringVar(&outputDir, "o", "", "output directory for the text rendition")
	flag.StringVar(&outputDir, "output-dir", "", "output directory for the text rendition")
	flag.StringVar(&attributes, "a", "", "optional YAML file with asciidoctor attributes")
	flag.StringVar(&attributes, "attributes", "", "optional YAML file with asciidoctor attributes")
	flag.StringVar(&distro, "d", "", "distro the docs are for, ex. openshift-enterprise")
	flag.StringVar(&distro, "distro", "", "distro the docs are for, ex. openshift-enterprise")
	flag.StringVar(&topicMapPath, "t", "", "topic map file listing the documentation tree")
	flag.StringVar(&topicMapPath, "topic-map", "", "topic map file listing the documentation tree")
	flag.StringVar(&converterFile, "c", "", "optional asciidoctor converter script to use instead of the bundled one")
	flag.StringVar(&converterFile, "converter-file", "", "optional asciidoctor converter script to use instead of the bundled one")
}

func main() {
	flag.Parse()
	if inputDir == "" || outputDir == "" || topicMapPath == "" || distro == "" {
		log.Fatalf("Flags -i (input dir), -o (output dir), -t (topic map) and -d (distro) are required")
	}

	tm, err := topicmap.Load(topicMapPath)
	if err != nil {
		log.Fatalf("Failed to load topic map: %v", err)
	}
	files := tm.FileList(distro)
	if len(files) == 0 {
		log.Fatalf("Topic map %s lists no files for distro %s", topicMapPath, distro)
	}

	var opts []asciidoc.Option
	if attributes != "" {
		opts = append(opts, asciidoc.WithAttributesFile(attributes))
	}
	if converterFile != "" {
		opts = append(opts, asciidoc.WithConverterScript(converterFile))
	}
	conv, err := asciidoc.New(opts...)
	if err != nil {
		log.Fatalf("Failed to create asciidoc converter: %v", err)
	}
	defer conv.Close()

	inputRoot, err := cli.AbsRoot(inputDir)
	if err != nil {
		log.Fatalf("Failed to resolve input directory: %v", err)
	}
	outputRoot, err := cli.AbsRoot(outputDir)
	if err != nil {
		log.Fatalf("Failed to resolve output directory: %v", err)
	}

	converted, failed := conv.ConvertTree(context.Background(), files, inputRoot, outputRoot)
	log.Infof("Converted %d of %d files (%d failed)", converted, len(files), failed)
}
