package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/simphys/pkg/concurrent"
)

// LoadJSON loads a scenario from a JSON reader.
func LoadJSON(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// LoadYAML loads a scenario from a YAML reader. Unknown keys are rejected so
// typos in scenario files do not silently fall back to defaults.
func LoadYAML(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// LoadFile picks the decoder from the file extension and validates the result.
// A scenario without a name is named after its file.
func LoadFile(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s *Scenario
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		s, err = LoadJSON(f)
	case ".yaml", ".yml":
		s, err = LoadYAML(f)
	default:
		return nil, fmt.Errorf("%s: unsupported scenario format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err = s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// LoadFiles loads paths with at most workers files open at once. Scenarios keep
// the order of paths; the first failure stops the load.
func LoadFiles(ctx context.Context, paths []string, workers int) ([]*Scenario, error) {
	return concurrent.Map(ctx, paths, workers, func(_ context.Context, path string) (*Scenario, error) {
		return LoadFile(path)
	})
}
