// Package records decodes JSON Lines source files into typed records.
package records

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

const maxLineSize = 1 << 20

// readLines calls fn for every non-blank line of the file, numbered from 1.
func readLines(path string, fn func(line int, data []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		if err := fn(line, data); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return &ParseError{Path: path, Line: line + 1, Err: fmt.Errorf("line exceeds %d bytes: %w", maxLineSize, err)}
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

// decodeLine unmarshals one JSON object into dst after checking that every
// required key is present. Explicit nulls count as present.
func decodeLine(path string, line int, data []byte, required []string, dst any) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ParseError{Path: path, Line: line, Err: err}
	}

	for _, key := range required {
		if _, ok := raw[key]; !ok {
			return &SchemaError{Path: path, Line: line, Field: key, Reason: "is missing"}
		}
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var fieldErr *fieldError
		if errors.As(err, &fieldErr) {
			return &SchemaError{Path: path, Line: line, Field: fieldErr.field, Reason: fieldErr.reason}
		}

		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &SchemaError{
				Path:   path,
				Line:   line,
				Field:  typeErr.Field,
				Reason: fmt.Sprintf("has invalid type %s, want %s", typeErr.Value, typeErr.Type),
			}
		}
		return &SchemaError{Path: path, Line: line, Reason: err.Error()}
	}

	return validateRecord(path, line, dst)
}
