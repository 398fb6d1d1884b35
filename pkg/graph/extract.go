package graph

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"

	"github.com/weavebio/uniprot-ingest/pkg/graph/metrics"
)

// metaAttrPrefixes marks namespace plumbing attributes that never become
// node properties.
var metaAttrPrefixes = mapset.NewSet("xmlns", "xsi")

// frame tracks one open XML element during the walk.
type frame struct {
	name string
	// nodeIdx is the arena index of the node this element materialized,
	// or -1 when the element produced none (unconfigured, collection, or
	// merged into its parent).
	nodeIdx int
	// collection holds the relationship type when this element is a
	// configured collection aggregator.
	collection string
	// bytes.Buffer rather than strings.Builder: frames live in a slice
	// that append may reallocate, and strings.Builder panics when used
	// after being copied.
	text bytes.Buffer
}

// extractor walks the token stream of one document and fills a fragment.
type extractor struct {
	mapping  *Mapping
	fragment *Fragment
	stack    []frame
}

// Extract walks an XML document and produces the graph fragment described
// by the mapping. Traversal is document order, so output is deterministic
// for deterministic input. The first data mismatch aborts the extraction
// with a *DataError; no partial node is emitted for the offending element.
func Extract(r io.Reader, mapping *Mapping) (*Fragment, error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	ex := &extractor{
		mapping:  mapping,
		fragment: &Fragment{},
	}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parsing XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := ex.startElement(t); err != nil {
				return nil, err
			}
		case xml.CharData:
			if len(ex.stack) > 0 {
				ex.stack[len(ex.stack)-1].text.Write(t)
			}
		case xml.EndElement:
			ex.endElement()
		}
	}

	metrics.FragmentsExtracted.Inc()
	return ex.fragment, nil
}

// ExtractFile extracts a fragment from an XML file on disk.
func ExtractFile(path string, mapping *Mapping) (*Fragment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	fragment, err := Extract(f, mapping)
	if err != nil {
		return nil, err
	}
	fragment.Source = path
	return fragment, nil
}

func (ex *extractor) startElement(t xml.StartElement) error {
	name := t.Name.Local
	fr := frame{name: name, nodeIdx: -1}
	rule, configured := ex.mapping.Rule(name)

	if !configured {
		// Unconfigured elements are transparent: no record, children
		// attach to the nearest configured ancestor.
		ex.stack = append(ex.stack, fr)
		return nil
	}

	if rule.Collection != "" {
		fr.collection = rule.Collection
		ex.stack = append(ex.stack, fr)
		return nil
	}

	path := ex.elementPath(name)
	props, err := ex.extractProperties(t, rule, path)
	if err != nil {
		return err
	}

	if rule.MergeWithParent {
		if parent := ex.parentNode(); parent >= 0 {
			node := ex.fragment.Node(parent)
			node.Label = rule.NodeLabel(name)
			if node.Properties == nil {
				node.Properties = props
			} else {
				for k, v := range props {
					node.Properties[k] = v
				}
			}
		}
		ex.stack = append(ex.stack, fr)
		return nil
	}

	label := rule.NodeLabel(name)
	fr.nodeIdx = ex.fragment.AddNode(NodeRecord{
		Label:       label,
		Properties:  props,
		ElementPath: path,
	})
	metrics.NodesExtracted.WithLabelValues(label).Inc()

	if parent, relType := ex.parentEdge(rule, name); parent >= 0 {
		ex.fragment.AddRelationship(relType, parent, fr.nodeIdx)
		metrics.RelationshipsExtracted.WithLabelValues(relType).Inc()
	}
	ex.stack = append(ex.stack, fr)
	return nil
}

func (ex *extractor) endElement() {
	if len(ex.stack) == 0 {
		return
	}
	fr := &ex.stack[len(ex.stack)-1]
	if fr.nodeIdx >= 0 {
		rule, _ := ex.mapping.Rule(fr.name)
		if rule.TextProperty != "" {
			if txt := strings.TrimSpace(fr.text.String()); txt != "" {
				node := ex.fragment.Node(fr.nodeIdx)
				if node.Properties == nil {
					node.Properties = make(map[string]any)
				}
				node.Properties[rule.TextProperty] = txt
			}
		}
	}
	ex.stack = ex.stack[:len(ex.stack)-1]
}

// extractProperties builds the property map for one element, enforcing
// required attributes and coercion rules before any record is created.
func (ex *extractor) extractProperties(t xml.StartElement, rule ElementRule, path string) (map[string]any, error) {
	seen := make(map[string]bool, len(t.Attr))
	var props map[string]any
	for _, attr := range t.Attr {
		if isMetaAttr(attr.Name) {
			continue
		}
		seen[attr.Name.Local] = true
		prop, ok := rule.Properties[attr.Name.Local]
		if !ok {
			continue
		}
		value, err := coerce(attr.Value, prop.Type)
		if err != nil {
			return nil, &DataError{
				ElementPath: path,
				Field:       attr.Name.Local,
				Detail:      "cannot coerce value to " + string(prop.Type),
				Err:         err,
			}
		}
		name := prop.Name
		if name == "" {
			name = attr.Name.Local
		}
		if props == nil {
			props = make(map[string]any)
		}
		props[name] = value
	}
	for attr, prop := range rule.Properties {
		if prop.Required && !seen[attr] {
			return nil, &DataError{
				ElementPath: path,
				Field:       attr,
				Detail:      "required attribute missing",
			}
		}
	}
	return props, nil
}

// parentNode returns the arena index of the nearest materialized ancestor,
// or -1 at the document root.
func (ex *extractor) parentNode() int {
	for i := len(ex.stack) - 1; i >= 0; i-- {
		if ex.stack[i].nodeIdx >= 0 {
			return ex.stack[i].nodeIdx
		}
	}
	return -1
}

// parentEdge resolves the parent node and relationship type for a new
// node. A collection ancestor between the node and its parent overrides
// the relationship type with the collection's.
func (ex *extractor) parentEdge(rule ElementRule, name string) (int, string) {
	relType := rule.RelationshipType(name)
	for i := len(ex.stack) - 1; i >= 0; i-- {
		fr := ex.stack[i]
		if fr.nodeIdx >= 0 {
			return fr.nodeIdx, relType
		}
		if fr.collection != "" {
			relType = fr.collection
		}
	}
	return -1, relType
}

func (ex *extractor) elementPath(name string) string {
	var b strings.Builder
	for _, fr := range ex.stack {
		b.WriteByte('/')
		b.WriteString(fr.name)
	}
	b.WriteByte('/')
	b.WriteString(name)
	return b.String()
}

func isMetaAttr(name xml.Name) bool {
	for _, part := range []string{name.Space, name.Local} {
		if strings.Contains(part, "://") {
			return true
		}
		for _, prefix := range metaAttrPrefixes.ToSlice() {
			if strings.HasPrefix(part, prefix) {
				return true
			}
		}
	}
	return false
}
