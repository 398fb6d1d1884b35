package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMappingFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMapping(t *testing.T) {
	path := writeMappingFile(t, `{
		"elements": {
			"entry": {
				"label": "Record",
				"relationship": "HAS_RECORD",
				"properties": {
					"dataset": "dataset",
					"created": {"name": "created_at", "type": "datetime", "required": true}
				},
				"text_property": "value"
			},
			"authorList": {"collection": "HAS_AUTHOR"},
			"protein": {"merge_with_parent": true}
		}
	}`)

	mapping, err := LoadMapping(path)
	require.NoError(t, err)
	require.Len(t, mapping.Elements, 3)

	entry, ok := mapping.Rule("entry")
	require.True(t, ok)
	assert.Equal(t, "Record", entry.Label)
	assert.Equal(t, "HAS_RECORD", entry.Relationship)
	assert.Equal(t, "value", entry.TextProperty)
	assert.Equal(t, PropertyRule{Name: "dataset"}, entry.Properties["dataset"])
	assert.Equal(t,
		PropertyRule{Name: "created_at", Type: PropertyDateTime, Required: true},
		entry.Properties["created"])

	authors, _ := mapping.Rule("authorList")
	assert.Equal(t, "HAS_AUTHOR", authors.Collection)

	protein, _ := mapping.Rule("protein")
	assert.True(t, protein.MergeWithParent)
}

func TestLoadMappingRejectsInvalidJSON(t *testing.T) {
	path := writeMappingFile(t, `{"elements": `)

	_, err := LoadMapping(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestLoadMappingRequiresElementsObject(t *testing.T) {
	path := writeMappingFile(t, `{"element": {}}`)

	_, err := LoadMapping(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Detail, "elements")
}

func TestLoadMappingRejectsBadPropertyRule(t *testing.T) {
	path := writeMappingFile(t, `{
		"elements": {
			"entry": {"properties": {"created": 7}}
		}
	}`)

	_, err := LoadMapping(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "entry.properties.created", cfgErr.Section)
}

func TestLoadMappingMissingFile(t *testing.T) {
	_, err := LoadMapping(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestValidateRejectsUnknownPropertyType(t *testing.T) {
	m := &Mapping{
		Elements: map[string]ElementRule{
			"entry": {
				Properties: map[string]PropertyRule{
					"created": {Type: "date"},
				},
			},
		},
	}

	err := m.Validate()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "entry", cfgErr.Section)
}

func TestValidateRejectsDuplicateTargetProperties(t *testing.T) {
	m := &Mapping{
		Elements: map[string]ElementRule{
			"entry": {
				TextProperty: "created",
				Properties: map[string]PropertyRule{
					"created": {},
				},
			},
		},
	}

	require.Error(t, m.Validate())
}

func TestValidateRejectsCollectionWithMerge(t *testing.T) {
	m := &Mapping{
		Elements: map[string]ElementRule{
			"authorList": {Collection: "HAS_AUTHOR", MergeWithParent: true},
		},
	}

	require.Error(t, m.Validate())
}

func TestValidateRejectsEmptyMapping(t *testing.T) {
	require.Error(t, (&Mapping{}).Validate())
}

func TestDefaultLabelAndRelationship(t *testing.T) {
	var rule ElementRule

	assert.Equal(t, "Entry", rule.NodeLabel("entry"))
	assert.Equal(t, "RecommendedName", rule.NodeLabel("recommendedName"))
	assert.Equal(t, "HAS_ENTRY", rule.RelationshipType("entry"))
	assert.Equal(t, "HAS_RECOMMENDED_NAME", rule.RelationshipType("recommendedName"))
}

func TestCoerce(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		typ     PropertyType
		want    any
		wantErr bool
	}{
		{name: "default is string", value: "x", typ: "", want: "x"},
		{name: "int", value: "42", typ: PropertyInt, want: int64(42)},
		{name: "float", value: "1.5", typ: PropertyFloat, want: 1.5},
		{name: "bool", value: "true", typ: PropertyBool, want: true},
		{name: "bad int", value: "x", typ: PropertyInt, wantErr: true},
		{name: "bad datetime", value: "yesterday", typ: PropertyDateTime, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerce(tc.value, tc.typ)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
