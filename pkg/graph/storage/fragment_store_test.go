package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavebio/uniprot-ingest/pkg/graph"
)

func TestJSONFragmentStoreRoundTrip(t *testing.T) {
	fragment := &graph.Fragment{Source: "data/Q9Y261.xml"}
	entry := fragment.AddNode(graph.NodeRecord{
		Label:      "Entry",
		Properties: map[string]any{"dataset": "Swiss-Prot"},
	})
	accession := fragment.AddNode(graph.NodeRecord{
		Label:      "Accession",
		Properties: map[string]any{"value": "Q9Y261"},
	})
	fragment.AddRelationship("HAS_ACCESSION", entry, accession)

	path := filepath.Join(t.TempDir(), "out", "fragment.json")
	store := NewJSONFragmentStore(path)

	ctx := context.Background()
	require.NoError(t, store.StoreFragment(ctx, fragment))

	loaded, err := store.LoadFragment(ctx)
	require.NoError(t, err)

	assert.Equal(t, fragment.Source, loaded.Source)
	require.Len(t, loaded.Nodes, 2)
	require.Len(t, loaded.Relationships, 1)
	assert.Equal(t, "Entry", loaded.Nodes[0].Label)
	assert.Equal(t, "Swiss-Prot", loaded.Nodes[0].Properties["dataset"])
	assert.Equal(t, graph.RelationshipRecord{Type: "HAS_ACCESSION", Parent: 0, Child: 1}, loaded.Relationships[0])
}

func TestJSONFragmentStoreMissingFile(t *testing.T) {
	store := NewJSONFragmentStore(filepath.Join(t.TempDir(), "absent.json"))
	_, err := store.LoadFragment(context.Background())
	require.Error(t, err)
}
