package xschema

import "go.crossdoc.dev/xschema/stdschema"

// StdValidator is the core's view of the external JSON Schema validator
// (spec §6.A): standard-draft validation of an instance against a loaded
// schema, independent of the extension-keyword machinery.
type StdValidator interface {
	Validate(schemaID SchemaID, instance any) []*Error
}

type docStoreValidator struct {
	store *DocumentStore
}

// NewStdValidator adapts store's resolved schemas (via package stdschema,
// itself wrapping github.com/google/jsonschema-go) into a [StdValidator].
func NewStdValidator(store *DocumentStore) StdValidator {
	return &docStoreValidator{store: store}
}

func (v *docStoreValidator) Validate(schemaID SchemaID, instance any) []*Error {
	resolved, ok := v.store.Resolved(schemaID)
	if !ok {
		return []*Error{{
			Kind:     KindUnknownSchema,
			SchemaID: schemaID,
			Message:  "no resolved schema for this id",
		}}
	}

	sv := stdschema.NewFromResolved(resolved)

	var errs []*Error
	for _, se := range sv.Validate(instance) {
		errs = append(errs, &Error{
			Kind:     KindStandardValidationErr,
			SchemaID: schemaID,
			Message:  se.Error(),
			Cause:    se,
		})
	}

	return errs
}
