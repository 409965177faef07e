// Package schemas validates checkpoint files against the embedded JSON Schema.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed checkpoint.schema.json
var checkpointSchema []byte

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

// FieldError is one schema violation at a JSON path.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every violation found in one document.
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	parts := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("checkpoint does not match schema (%d problems): %s", len(ve.Errors), strings.Join(parts, "; "))
}

// LoadError means the schema or the document could not be parsed at all.
type LoadError struct {
	What  string
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.What, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// CheckpointSchema returns the embedded checkpoint schema.
func CheckpointSchema() []byte {
	return checkpointSchema
}

// ValidateCheckpoint validates a serialized BatchResult.
func ValidateCheckpoint(data []byte) error {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(checkpointSchema))
	})
	if compileErr != nil {
		return &LoadError{What: "checkpoint schema", Cause: compileErr}
	}

	result, err := compiled.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &LoadError{What: "checkpoint document", Cause: err}
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{Errors: make([]FieldError, 0, len(result.Errors()))}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return verr
}
