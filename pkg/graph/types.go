package graph

import (
	"fmt"
	"sort"
	"strings"
)

// NodeRecord represents a node in the property graph, mapped from one
// XML element.
type NodeRecord struct {
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
	// ElementPath is the slash-joined path of the source XML element,
	// kept for error reporting and diagnostics.
	ElementPath string `json:"element_path,omitempty"`
}

// RelationshipRecord represents a typed, directed edge between two node
// records. Endpoints are indices into the owning Fragment's node arena,
// not pointers, so a fragment has no internal reference cycles.
type RelationshipRecord struct {
	Type   string `json:"type"`
	Parent int    `json:"parent"`
	Child  int    `json:"child"`
}

// Fragment is the complete set of node and relationship records extracted
// from one XML document. Records never survive past the database load of
// the invocation that produced them.
type Fragment struct {
	Source        string               `json:"source,omitempty"`
	Nodes         []NodeRecord         `json:"nodes"`
	Relationships []RelationshipRecord `json:"relationships"`
}

// AddNode appends a node record and returns its arena index.
func (f *Fragment) AddNode(n NodeRecord) int {
	f.Nodes = append(f.Nodes, n)
	return len(f.Nodes) - 1
}

// AddRelationship appends a relationship record between two existing nodes.
func (f *Fragment) AddRelationship(relType string, parent, child int) {
	f.Relationships = append(f.Relationships, RelationshipRecord{
		Type:   relType,
		Parent: parent,
		Child:  child,
	})
}

// Node returns the node record at the given arena index.
func (f *Fragment) Node(i int) *NodeRecord {
	return &f.Nodes[i]
}

// Fingerprint returns a canonical textual rendering of the fragment.
// Two extractions of the same input yield byte-identical fingerprints,
// which is how the determinism guarantee is checked.
func (f *Fragment) Fingerprint() string {
	var b strings.Builder
	for i, n := range f.Nodes {
		fmt.Fprintf(&b, "node %d %s {", i, n.Label)
		keys := make([]string, 0, len(n.Properties))
		for k := range n.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for j, k := range keys {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", k, n.Properties[k])
		}
		b.WriteString("}\n")
	}
	for _, r := range f.Relationships {
		fmt.Fprintf(&b, "rel (%d)-[%s]->(%d)\n", r.Parent, r.Type, r.Child)
	}
	return b.String()
}
