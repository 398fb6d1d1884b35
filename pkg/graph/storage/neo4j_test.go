package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weavebio/uniprot-ingest/pkg/graph"
)

func TestMergeNodeQuery(t *testing.T) {
	node := &graph.NodeRecord{
		Label: "Entry",
		Properties: map[string]any{
			"dataset": "Swiss-Prot",
			"created": "2000-05-30",
		},
	}

	cypher, params, err := mergeNodeQuery(node)
	require.NoError(t, err)

	// Keys render in sorted order, so the query text is stable.
	assert.Equal(t, "MERGE (n:`Entry` {`created`: $p_0, `dataset`: $p_1})", cypher)
	assert.Equal(t, map[string]interface{}{
		"p_0": "2000-05-30",
		"p_1": "Swiss-Prot",
	}, params)
}

func TestMergeNodeQueryWithoutProperties(t *testing.T) {
	cypher, params, err := mergeNodeQuery(&graph.NodeRecord{Label: "Uniprot"})
	require.NoError(t, err)
	assert.Equal(t, "MERGE (n:`Uniprot`)", cypher)
	assert.Empty(t, params)
}

func TestMergeNodeQueryRejectsInvalidLabel(t *testing.T) {
	_, _, err := mergeNodeQuery(&graph.NodeRecord{Label: "Entry) DETACH DELETE n //"})
	require.Error(t, err)
}

func TestMergeRelationshipQuery(t *testing.T) {
	fragment := &graph.Fragment{}
	parent := fragment.AddNode(graph.NodeRecord{
		Label:      "Entry",
		Properties: map[string]any{"dataset": "Swiss-Prot"},
	})
	child := fragment.AddNode(graph.NodeRecord{
		Label:      "Accession",
		Properties: map[string]any{"value": "Q9Y261"},
	})
	fragment.AddRelationship("HAS_ACCESSION", parent, child)

	cypher, params, err := mergeRelationshipQuery(fragment, fragment.Relationships[0])
	require.NoError(t, err)

	assert.Equal(t,
		"MATCH (a:`Entry` {`dataset`: $a_0})\n"+
			"MATCH (b:`Accession` {`value`: $b_0})\n"+
			"MERGE (a)-[r:`HAS_ACCESSION`]->(b)",
		cypher)
	assert.Equal(t, map[string]interface{}{
		"a_0": "Swiss-Prot",
		"b_0": "Q9Y261",
	}, params)
}

func TestMergeRelationshipQueryRejectsInvalidType(t *testing.T) {
	fragment := &graph.Fragment{}
	a := fragment.AddNode(graph.NodeRecord{Label: "N"})
	b := fragment.AddNode(graph.NodeRecord{Label: "N"})
	fragment.AddRelationship("HAS SPACE", a, b)

	_, _, err := mergeRelationshipQuery(fragment, fragment.Relationships[0])
	require.Error(t, err)
}

func TestQuoteLabel(t *testing.T) {
	quoted, err := quoteLabel("Entry_2")
	require.NoError(t, err)
	assert.Equal(t, "`Entry_2`", quoted)

	for _, bad := range []string{"", "2Entry", "Entry`", "a-b", "a b"} {
		_, err := quoteLabel(bad)
		assert.Error(t, err, "label %q should be rejected", bad)
	}
}
