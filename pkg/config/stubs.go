package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getmockd/mockscope/pkg/stub"
)

// stubFile is either a single stub or {stubs: [...]}.
type stubFile struct {
	stub.Stub `yaml:",inline"`
	Stubs     []*stub.Stub `yaml:"stubs" json:"stubs"`
}

// LoadStubFile reads one YAML or JSON file holding a stub, a list of stubs,
// or a document with a top-level "stubs" list. Every stub is validated.
func LoadStubFile(path string) ([]*stub.Stub, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("file is empty: %s", path)
	}

	stubs, err := decodeStubs([]byte(ExpandEnvVars(string(data))), isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i, s := range stubs {
		if s == nil {
			return nil, fmt.Errorf("%s: stub %d is empty", path, i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%s: stub %d (%s): %w", path, i, s.Label(), err)
		}
	}
	return stubs, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func decodeStubs(data []byte, asJSON bool) ([]*stub.Stub, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("no stubs after variable expansion")
	}
	if asJSON {
		if trimmed[0] == '[' {
			var list []*stub.Stub
			if err := json.Unmarshal(trimmed, &list); err != nil {
				return nil, err
			}
			return list, nil
		}
		var f stubFile
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, err
		}
		return f.stubs(), nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		var list []*stub.Stub
		if err := node.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var f stubFile
	if err := node.Decode(&f); err != nil {
		return nil, err
	}
	return f.stubs(), nil
}

func (f *stubFile) stubs() []*stub.Stub {
	if len(f.Stubs) > 0 {
		return f.Stubs
	}
	single := f.Stub
	return []*stub.Stub{&single}
}

// LoadStubs expands each pattern (relative to baseDir, ** allowed) and loads
// every matching file in lexical order. A pattern without glob characters
// must name an existing file; a glob that matches nothing is not an error.
func LoadStubs(patterns []string, baseDir string) ([]*stub.Stub, error) {
	var out []*stub.Stub
	for _, pattern := range patterns {
		resolved := pattern
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(baseDir, pattern)
		}

		var files []string
		if hasGlobMeta(pattern) {
			matches, err := doublestar.FilepathGlob(resolved, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expanding %q: %w", pattern, err)
			}
			slices.Sort(matches)
			files = matches
		} else {
			files = []string{resolved}
		}

		for _, file := range files {
			stubs, err := LoadStubFile(file)
			if err != nil {
				return nil, err
			}
			out = append(out, stubs...)
		}
	}
	return out, nil
}

func hasGlobMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
