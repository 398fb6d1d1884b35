// Package uniprot carries the built-in mapping table translating UniProt
// XML exports into the property graph. The table is pure data; the
// extraction behavior lives in pkg/graph.
package uniprot

import "github.com/weavebio/uniprot-ingest/pkg/graph"

// DefaultMapping returns the mapping applied when no external mapping
// file is supplied. It covers the element types of a UniProtKB entry
// export (uniprot.org/uniprot schema).
func DefaultMapping() *graph.Mapping {
	return &graph.Mapping{
		Elements: map[string]graph.ElementRule{
			"uniprot": {},
			"entry": {
				Properties: map[string]graph.PropertyRule{
					"dataset":  {Required: true},
					"created":  {Type: graph.PropertyDateTime},
					"modified": {Type: graph.PropertyDateTime},
					"version":  {Type: graph.PropertyInt},
				},
			},
			"accession": {TextProperty: "value"},
			"name":      {TextProperty: "value"},

			// The protein element is folded into its entry: its label
			// replaces Entry and its children hang off the same node.
			"protein":         {MergeWithParent: true},
			"recommendedName": {},
			"alternativeName": {},
			"fullName":        {TextProperty: "value"},
			"shortName":       {TextProperty: "value"},

			"gene": {Relationship: "FROM_GENE"},
			"organism": {
				Relationship: "IN_ORGANISM",
			},
			"lineage": {},
			"taxon":   {TextProperty: "value"},

			"dbReference": {
				Properties: map[string]graph.PropertyRule{
					"type": {Required: true},
					"id":   {Required: true},
				},
			},

			"sequence": {
				TextProperty: "value",
				Properties: map[string]graph.PropertyRule{
					"length":   {Type: graph.PropertyInt},
					"mass":     {Type: graph.PropertyInt},
					"checksum": {},
					"modified": {Type: graph.PropertyDateTime},
					"version":  {Type: graph.PropertyInt},
				},
			},

			"reference": {
				Properties: map[string]graph.PropertyRule{
					"key": {},
				},
			},
			"citation": {
				Properties: map[string]graph.PropertyRule{
					"type":   {},
					"date":   {},
					"name":   {},
					"volume": {},
					"first":  {},
					"last":   {},
				},
			},
			"authorList": {Collection: "HAS_AUTHOR"},
			"person": {
				Label: "Author",
				Properties: map[string]graph.PropertyRule{
					"name": {Required: true},
				},
			},

			"comment": {
				Properties: map[string]graph.PropertyRule{
					"type": {},
				},
			},
			"text": {TextProperty: "value"},
			"keyword": {
				TextProperty: "value",
				Properties: map[string]graph.PropertyRule{
					"id": {},
				},
			},
			"feature": {
				Properties: map[string]graph.PropertyRule{
					"type":        {},
					"description": {},
					"id":          {},
				},
			},
		},
	}
}
