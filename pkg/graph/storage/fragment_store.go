package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/weavebio/uniprot-ingest/pkg/graph"
)

// FragmentStore persists extracted fragments outside the database,
// used by the dump mode of the CLI and by test fixtures.
type FragmentStore interface {
	StoreFragment(ctx context.Context, fragment *graph.Fragment) error
	LoadFragment(ctx context.Context) (*graph.Fragment, error)
}

// JSONFragmentStore implements FragmentStore using a JSON file.
type JSONFragmentStore struct {
	filePath string
}

// NewJSONFragmentStore creates a fragment store backed by the given path.
func NewJSONFragmentStore(filePath string) *JSONFragmentStore {
	return &JSONFragmentStore{
		filePath: filePath,
	}
}

// StoreFragment writes the fragment as indented JSON.
func (s *JSONFragmentStore) StoreFragment(ctx context.Context, fragment *graph.Fragment) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fragment, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.filePath, data, 0644)
}

// LoadFragment reads a fragment back from its JSON file.
func (s *JSONFragmentStore) LoadFragment(ctx context.Context) (*graph.Fragment, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, err
	}

	var fragment graph.Fragment
	if err := json.Unmarshal(data, &fragment); err != nil {
		return nil, err
	}

	return &fragment, nil
}
