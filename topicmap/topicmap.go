//
// Tencent is pleased to support the open source community by making rag-content available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// rag-content is licensed under the Apache License Version 2.0.
//
//

// Package topicmap traverses product documentation topic maps: YAML files
// describing the directory layout of a documentation tree. A topic map is
// a multi-document stream where each document is one root node.
package topicmap

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Node is one entry of a topic map. Internal nodes carry Dir and Topics;
// leaves carry File and, for some products, a WebpageID naming the
// published page.
type Node struct {
	Name      string `yaml:"Name"`
	Dir       string `yaml:"Dir,omitempty"`
	Topics    []Node `yaml:"Topics,omitempty"`
	File      string `yaml:"File,omitempty"`
	Distros   string `yaml:"Distros,omitempty"`
	WebpageID string `yaml:"WebpageID,omitempty"`
}

// inDistro reports whether the node applies to distro. An empty Distros
// list applies to every distro.
func (n Node) inDistro(distro string) bool {
	if n.Distros == "" {
		return true
	}
	for _, d := range strings.Split(n.Distros, ",") {
		if strings.TrimSpace(d) == distro {
			return true
		}
	}
	return false
}

// TopicMap holds the root nodes of a parsed topic map file.
type TopicMap []Node

// Load parses a topic map file.
func Load(path string) (TopicMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open topic map: %w", err)
	}
	defer f.Close()

	var roots TopicMap
	decoder := yaml.NewDecoder(f)
	for {
		var root Node
		if err := decoder.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to parse topic map %s: %w", path, err)
		}
		roots = append(roots, root)
	}
	return roots, nil
}

// FileList returns the relative documentation paths for one distro in
// topic map order. Dir segments join from the root and the leaf File is
// the last segment. Nodes whose Distros comma list does not contain distro
// are skipped together with their subtrees.
func (tm TopicMap) FileList(distro string) []string {
	var files []string
	for _, root := range tm {
		files = appendFiles(files, root, distro, "")
	}
	return files
}

func appendFiles(files []string, node Node, distro, dir string) []string {
	if !node.inDistro(distro) {
		return files
	}
	if len(node.Topics) > 0 {
		dir = filepath.Join(dir, node.Dir)
		for _, topic := range node.Topics {
			files = appendFiles(files, topic, distro, dir)
		}
		return files
	}
	if node.File == "" {
		return files
	}
	return append(files, filepath.Join(dir, node.File))
}

// WebpageIDs maps the base name of each leaf directory to that leaf's
// WebpageID. Products whose published page names differ from the source
// layout use this to derive portal URLs from file paths.
func (tm TopicMap) WebpageIDs() map[string]string {
	ids := make(map[string]string)
	for _, root := range tm {
		collectWebpageIDs(ids, root, "")
	}
	return ids
}

func collectWebpageIDs(ids map[string]string, node Node, dir string) {
	if len(node.Topics) > 0 {
		dir = filepath.Join(dir, node.Dir)
		for _, topic := range node.Topics {
			collectWebpageIDs(ids, topic, dir)
		}
		return
	}
	if dir == "" || node.WebpageID == "" {
		return
	}
	ids[filepath.Base(dir)] = node.WebpageID
}
