package xschema

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"

	"go.crossdoc.dev/xschema/xyaml"
)

// LoadSchemas implements the schema half of the Document loader (spec
// §6.B): recursively walks dir for .json/.yaml/.yml files, decodes each
// as a JSON Schema, and registers it in store under its $id (or, absent
// one, a schema id derived from its path relative to dir).
func LoadSchemas(store *DocumentStore, dir string) []*Error {
	docs, err := xyaml.Walk(dir)
	if err != nil {
		return []*Error{{Kind: KindSchemaLoadError, Message: err.Error(), Cause: err}}
	}

	var errs []*Error
	for _, d := range docs {
		schema, err := decodeSchema(d.Value)
		if err != nil {
			errs = append(errs, &Error{
				Kind:        KindSchemaLoadError,
				DocumentURI: d.SourceURI,
				Message:     err.Error(),
				Cause:       err,
			})

			continue
		}

		id := SchemaID(schema.ID)
		if id == "" {
			id = derivedSchemaID(dir, d.SourceURI)
		}

		if err := store.AddSchema(id, schema); err != nil {
			if xerr, ok := err.(*Error); ok {
				xerr.DocumentURI = d.SourceURI
				errs = append(errs, xerr)
			} else {
				errs = append(errs, &Error{Kind: KindSchemaLoadError, DocumentURI: d.SourceURI, Message: err.Error(), Cause: err})
			}
		}
	}

	return errs
}

// decodeSchema re-encodes a generically-decoded JSON/YAML value as JSON
// and unmarshals it via [jsonschema.Schema]'s own JSON decoding, so Extra
// (and every other field) is populated exactly as the library intends
// regardless of whether the source file was JSON or YAML.
func decodeSchema(value any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("re-encoding schema as json: %w", err)
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}

	return &schema, nil
}

func derivedSchemaID(dir, sourceURI string) SchemaID {
	rel, err := filepath.Rel(dir, sourceURI)
	if err != nil {
		rel = sourceURI
	}

	return SchemaID(filepath.ToSlash(rel))
}

// LoadInstances implements the instance half of the Document loader:
// recursively walks dir for .json/.yaml/.yml files and registers each as
// an instance [Document] with an empty SchemaID, left for Phase 0 to
// assign (spec §4.F).
func LoadInstances(store *DocumentStore, dir string) []*Error {
	docs, err := xyaml.Walk(dir)
	if err != nil {
		return []*Error{{Kind: KindInstanceLoadError, Message: err.Error(), Cause: err}}
	}

	for _, d := range docs {
		store.AddInstance(&Document{SourceURI: d.SourceURI, Value: d.Value})
	}

	return nil
}
