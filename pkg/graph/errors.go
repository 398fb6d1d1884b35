package graph

import "fmt"

// ConfigError reports a problem with the XML-to-graph mapping itself:
// an invalid rule, an unknown coercion type, or a configured path that
// cannot resolve against the input. Config errors are fatal for the run.
type ConfigError struct {
	Section string
	Detail  string
}

func (e *ConfigError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("mapping config: %s", e.Detail)
	}
	return fmt.Sprintf("mapping config %q: %s", e.Section, e.Detail)
}

// DataError reports a mismatch between a configured rule and a concrete
// XML element: a missing required attribute or a value that fails
// coercion. It identifies the element path and the offending field.
type DataError struct {
	ElementPath string
	Field       string
	Detail      string
	Err         error
}

func (e *DataError) Error() string {
	msg := fmt.Sprintf("element %s: field %q: %s", e.ElementPath, e.Field, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataError) Unwrap() error { return e.Err }

// LoadError reports the failure of a single node or relationship write.
// Loading continues past individual failures; the loader joins all
// LoadErrors of one invocation into its returned error.
type LoadError struct {
	Op    string // "merge node" or "merge relationship"
	Label string // node label or relationship type
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Label, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
