package graph

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// PropertyType names the coercion applied to an attribute value before it
// becomes a node property.
type PropertyType string

const (
	PropertyString   PropertyType = "string"
	PropertyInt      PropertyType = "int"
	PropertyFloat    PropertyType = "float"
	PropertyBool     PropertyType = "bool"
	PropertyDateTime PropertyType = "datetime"
)

var knownPropertyTypes = mapset.NewSet(
	PropertyString, PropertyInt, PropertyFloat, PropertyBool, PropertyDateTime,
)

// PropertyRule maps one XML attribute onto a node property.
type PropertyRule struct {
	// Name is the target property name. Empty means keep the attribute name.
	Name     string       `json:"name,omitempty"`
	Type     PropertyType `json:"type,omitempty"`
	Required bool         `json:"required,omitempty"`
}

// ElementRule declares how one XML element type is translated. Only
// configured elements materialize as nodes; everything else is traversed
// transparently.
type ElementRule struct {
	// Label is the node label. Empty means capitalize the element name.
	Label string `json:"label,omitempty"`
	// Relationship is the type of the edge linking the parent's node to
	// this element's node. Empty means HAS_ + upper snake of the element
	// name.
	Relationship string `json:"relationship,omitempty"`
	// Properties maps XML attribute names to extraction rules.
	Properties map[string]PropertyRule `json:"properties,omitempty"`
	// TextProperty, when set, receives the element's trimmed text content.
	TextProperty string `json:"text_property,omitempty"`
	// MergeWithParent folds the element into its parent's node instead of
	// creating a new one: the label replaces the parent's and the
	// attributes extend the parent's properties.
	MergeWithParent bool `json:"merge_with_parent,omitempty"`
	// Collection marks the element as a pure aggregator: no node is
	// created, and each child connects to the element's parent with a
	// relationship of this type.
	Collection string `json:"collection,omitempty"`
}

// Mapping is the full XML-to-graph configuration table, keyed by XML
// element name.
type Mapping struct {
	Elements map[string]ElementRule `json:"elements"`
}

// Rule looks up the rule for an element name.
func (m *Mapping) Rule(element string) (ElementRule, bool) {
	r, ok := m.Elements[element]
	return r, ok
}

// NodeLabel resolves the node label for an element, applying the
// capitalized-element-name default.
func (r ElementRule) NodeLabel(element string) string {
	if r.Label != "" {
		return r.Label
	}
	return capitalize(element)
}

// RelationshipType resolves the type of the parent edge for an element,
// applying the HAS_<UPPER_SNAKE> default.
func (r ElementRule) RelationshipType(element string) string {
	if r.Relationship != "" {
		return r.Relationship
	}
	return "HAS_" + upperSnake(element)
}

// Validate checks the mapping for internal consistency. It is called once
// after loading; extraction assumes a valid mapping.
func (m *Mapping) Validate() error {
	if len(m.Elements) == 0 {
		return &ConfigError{Detail: "no elements configured"}
	}
	for element, rule := range m.Elements {
		if rule.Collection != "" {
			if rule.MergeWithParent {
				return &ConfigError{Section: element, Detail: "collection element cannot also merge with parent"}
			}
			if rule.Label != "" || len(rule.Properties) > 0 || rule.TextProperty != "" {
				return &ConfigError{Section: element, Detail: "collection element cannot carry a label, properties, or a text property"}
			}
			continue
		}
		targets := mapset.NewSet[string]()
		if rule.TextProperty != "" {
			targets.Add(rule.TextProperty)
		}
		for attr, prop := range rule.Properties {
			if prop.Type != "" && !knownPropertyTypes.Contains(prop.Type) {
				return &ConfigError{Section: element, Detail: fmt.Sprintf("attribute %q: unknown property type %q", attr, prop.Type)}
			}
			name := prop.Name
			if name == "" {
				name = attr
			}
			if !targets.Add(name) {
				return &ConfigError{Section: element, Detail: fmt.Sprintf("duplicate target property %q", name)}
			}
		}
	}
	return nil
}

// LoadMapping reads a mapping table from a JSON file. gjson is used over a
// blind unmarshal so malformed sections report their path instead of a
// generic decode error.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading mapping file")
	}
	if !gjson.ValidBytes(data) {
		return nil, &ConfigError{Section: path, Detail: "not valid JSON"}
	}

	root := gjson.ParseBytes(data)
	elements := root.Get("elements")
	if !elements.Exists() || !elements.IsObject() {
		return nil, &ConfigError{Section: path, Detail: `missing "elements" object`}
	}

	mapping := &Mapping{Elements: make(map[string]ElementRule)}
	var parseErr error
	elements.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			parseErr = &ConfigError{Section: key.String(), Detail: "element rule must be an object"}
			return false
		}
		rule := ElementRule{
			Label:           value.Get("label").String(),
			Relationship:    value.Get("relationship").String(),
			TextProperty:    value.Get("text_property").String(),
			MergeWithParent: value.Get("merge_with_parent").Bool(),
			Collection:      value.Get("collection").String(),
		}
		if props := value.Get("properties"); props.Exists() {
			if !props.IsObject() {
				parseErr = &ConfigError{Section: key.String() + ".properties", Detail: "must be an object"}
				return false
			}
			rule.Properties = make(map[string]PropertyRule)
			props.ForEach(func(attr, val gjson.Result) bool {
				switch {
				case val.Type == gjson.String:
					// Shorthand: "attr": "target_name".
					rule.Properties[attr.String()] = PropertyRule{Name: val.String()}
				case val.IsObject():
					rule.Properties[attr.String()] = PropertyRule{
						Name:     val.Get("name").String(),
						Type:     PropertyType(val.Get("type").String()),
						Required: val.Get("required").Bool(),
					}
				default:
					parseErr = &ConfigError{
						Section: key.String() + ".properties." + attr.String(),
						Detail:  "must be a string or an object",
					}
					return false
				}
				return true
			})
			if parseErr != nil {
				return false
			}
		}
		mapping.Elements[key.String()] = rule
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	return mapping, nil
}

// coerce converts a raw attribute value per the rule's property type.
func coerce(value string, t PropertyType) (any, error) {
	switch t {
	case "", PropertyString:
		return value, nil
	case PropertyInt:
		return strconv.ParseInt(value, 10, 64)
	case PropertyFloat:
		return strconv.ParseFloat(value, 64)
	case PropertyBool:
		return strconv.ParseBool(value)
	case PropertyDateTime:
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts, nil
		}
		return time.Parse("2006-01-02", value)
	default:
		return nil, fmt.Errorf("unknown property type %q", t)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// upperSnake converts a camelCase element name into UPPER_SNAKE, so
// recommendedName becomes RECOMMENDED_NAME.
func upperSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
