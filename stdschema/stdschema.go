// Package stdschema adapts github.com/google/jsonschema-go/jsonschema to
// the external JSON Schema validator interface the core consumes
// (spec §6.A): validate(schema, instance) against whichever draft the
// schema's $schema keyword indicates, with $ref resolution.
package stdschema

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// StdError is one standard JSON Schema validation failure, independent of
// the extension-keyword machinery.
type StdError struct {
	Message string
	Cause   error
}

func (e *StdError) Error() string { return e.Message }
func (e *StdError) Unwrap() error { return e.Cause }

// Validator wraps a resolved schema, ready to validate instances against
// it repeatedly (resolution -- $ref following, default validation -- runs
// once up front).
type Validator struct {
	resolved *jsonschema.Resolved
}

// New resolves schema and returns a Validator for it. Resolution failures
// (bad $ref, invalid draft constructs) are the caller's SchemaLoadError.
func New(schema *jsonschema.Schema) (*Validator, error) {
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("resolving schema: %w", err)
	}

	return &Validator{resolved: resolved}, nil
}

// NewFromResolved wraps an already-resolved schema, avoiding a redundant
// resolve pass when the caller (e.g. the document store) resolved it at
// load time.
func NewFromResolved(resolved *jsonschema.Resolved) *Validator {
	return &Validator{resolved: resolved}
}

// Validate runs standard JSON Schema validation of instance against the
// wrapped schema. It returns nil when the instance conforms; otherwise it
// returns exactly one [StdError] wrapping the error jsonschema-go reported.
func (v *Validator) Validate(instance any) []*StdError {
	if err := v.resolved.Validate(instance); err != nil {
		return []*StdError{{Message: err.Error(), Cause: err}}
	}

	return nil
}
