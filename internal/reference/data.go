// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reference

import (
	"bytes"
	"compress/gzip"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Embedded compressed actor list used when no list file is configured.
//
//go:embed data/actors.txt.gz
var actorsDataGZ []byte

var (
	defaultActors    []string
	defaultActorsErr error
	loadOnce         sync.Once
)

// DefaultActorList returns the embedded actor list, decompressing it on first
// use.
func DefaultActorList() ([]string, error) {
	loadOnce.Do(func() {
		defaultActors, defaultActorsErr = loadEmbeddedActors()
	})
	return defaultActors, defaultActorsErr
}

func loadEmbeddedActors() ([]string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(actorsDataGZ))
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded actor list: %w", err)
	}
	defer gz.Close()

	names, err := LoadActorList(gz)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded actor list: %w", err)
	}
	return names, nil
}

// LoadActorFile reads an actor list from path. Files ending in .gz are
// decompressed. An empty path returns the embedded list.
func LoadActorFile(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultActorList()
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open actor list: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open actor list %s: %w", path, err)
		}
		defer gz.Close()
		return LoadActorList(gz)
	}
	return LoadActorList(f)
}
