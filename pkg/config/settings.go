package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Value sources recorded in Settings.Sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// DefaultSettingsFile is looked up in the working directory when no file
// is named explicitly.
const DefaultSettingsFile = "mockscope.yaml"

// LogSettings selects the operational logger.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Settings is the content of mockscope.yaml after overrides.
type Settings struct {
	FailOnUnmatchedRequests bool                 `yaml:"failOnUnmatchedRequests"`
	Server                  *ServerConfiguration `yaml:"server"`
	Log                     LogSettings          `yaml:"log"`
	Stubs                   []string             `yaml:"stubs,omitempty"`

	// Path is the file the settings were read from, empty if none.
	Path string `yaml:"-"`
	// Sources maps a setting key to where its value came from.
	Sources map[string]string `yaml:"-"`
}

// DefaultSettings fails on unmatched requests and serves the default
// configuration.
func DefaultSettings() *Settings {
	return &Settings{
		FailOnUnmatchedRequests: true,
		Server:                  DefaultServerConfiguration(),
		Log:                     LogSettings{Level: "info", Format: "text"},
		Sources:                 make(map[string]string),
	}
}

// Source returns where key came from.
func (s *Settings) Source(key string) string {
	if src, ok := s.Sources[key]; ok {
		return src
	}
	return SourceDefault
}

// Set records a value's source.
func (s *Settings) Set(key, source string) {
	if s.Sources == nil {
		s.Sources = make(map[string]string)
	}
	s.Sources[key] = source
}

// FileError is a settings file that could not be parsed.
type FileError struct {
	Path string
	Line int
	Err  error
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// LoadFile reads settings from path on top of the defaults. Unknown keys
// are rejected.
func LoadFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	s := DefaultSettings()
	if err := s.decode(data); err != nil {
		return nil, &FileError{Path: path, Line: yamlErrorLine(err), Err: err}
	}
	s.Path = path
	if err := s.Server.Validate(); err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	return s, nil
}

func (s *Settings) decode(data []byte) error {
	expanded := []byte(ExpandEnvVars(string(data)))
	var node yaml.Node
	if err := yaml.Unmarshal(expanded, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		return err
	}
	if s.Server == nil {
		s.Server = DefaultServerConfiguration()
	}
	markFileSources(s, &node)
	return nil
}

// markFileSources records every key present in the document.
func markFileSources(s *Settings, doc *yaml.Node) {
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if (key == "server" || key == "log") && val.Kind == yaml.MappingNode {
			for j := 0; j+1 < len(val.Content); j += 2 {
				s.Set(key+"."+val.Content[j].Value, SourceFile)
			}
			continue
		}
		s.Set(key, SourceFile)
	}
}

// yamlErrorLine extracts the line from a yaml.v3 syntax error.
func yamlErrorLine(err error) int {
	var line int
	if _, scanErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &line); scanErr == nil {
		return line
	}
	return 0
}

// Load resolves settings from path, or from $MOCKSCOPE_CONFIG, or from
// ./mockscope.yaml when present, then applies environment overrides.
// A missing default file is not an error; a missing explicit one is.
func Load(path string) (*Settings, error) {
	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfig)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultSettingsFile
	}

	var s *Settings
	switch _, err := os.Stat(path); {
	case err == nil:
		s, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	case explicit:
		return nil, fmt.Errorf("settings file %s: %w", path, err)
	default:
		s = DefaultSettings()
	}

	if err := ApplyEnv(s); err != nil {
		return nil, err
	}
	return s, nil
}

// BaseDir is the directory stub globs are resolved against.
func (s *Settings) BaseDir() string {
	if s.Path != "" {
		return filepath.Dir(s.Path)
	}
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}
	return "."
}
