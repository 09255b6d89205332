package records

import "fmt"

// ParseError reports a line that is not a JSON object.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError reports a record that is valid JSON but lacks an expected field
// or carries one of the wrong type. Line is zero for file-level problems.
type SchemaError struct {
	Path   string
	Line   int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Line == 0:
		return fmt.Sprintf("schema %s: %s", e.Path, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("schema %s:%d: %s", e.Path, e.Line, e.Reason)
	default:
		return fmt.Sprintf("schema %s:%d: field %q %s", e.Path, e.Line, e.Field, e.Reason)
	}
}

// fieldError lets custom unmarshalers name the key they rejected.
type fieldError struct {
	field  string
	reason string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s %s", e.field, e.reason)
}
