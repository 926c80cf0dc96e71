package xschema

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// DocumentStore holds every schema and instance document loaded for a run.
// Schemas are indexed by [SchemaID]; instances are kept in load order so
// reports are stable across runs given the same input ordering.
type DocumentStore struct {
	mu        sync.RWMutex
	schemas   map[SchemaID]*jsonschema.Schema
	resolved  map[SchemaID]*jsonschema.Resolved
	instances []*Document
}

// NewDocumentStore constructs an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		schemas:  map[SchemaID]*jsonschema.Schema{},
		resolved: map[SchemaID]*jsonschema.Resolved{},
	}
}

// AddSchema registers a schema under id, resolving it immediately so load
// errors (bad $ref, invalid draft constructs) surface at load time rather
// than at first use (spec §7, SchemaLoadError).
func (s *DocumentStore) AddSchema(id SchemaID, schema *jsonschema.Schema) error {
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return &Error{Kind: KindSchemaLoadError, SchemaID: id, Message: err.Error(), Cause: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.schemas[id]; exists {
		return &Error{Kind: KindSchemaLoadError, SchemaID: id, Message: fmt.Sprintf("duplicate schema id %q", id)}
	}
	s.schemas[id] = schema
	s.resolved[id] = resolved

	return nil
}

// AddInstance appends an instance document to the store. SchemaID may be
// empty at load time; Phase 0 of the validator fills it in via
// --use-schemas, schema_id_path, or --guess-schema (spec §4.F).
func (s *DocumentStore) AddInstance(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances = append(s.instances, doc)
}

// Schemas returns a snapshot of every loaded schema.
func (s *DocumentStore) Schemas() map[SchemaID]*jsonschema.Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[SchemaID]*jsonschema.Schema, len(s.schemas))
	for k, v := range s.schemas {
		out[k] = v
	}

	return out
}

// Resolved returns the resolved validator for a schema id, if loaded.
func (s *DocumentStore) Resolved(id SchemaID) (*jsonschema.Resolved, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resolved[id]

	return r, ok
}

// Instances returns every instance document, in load order.
func (s *DocumentStore) Instances() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, len(s.instances))
	copy(out, s.instances)

	return out
}

// SchemaIDs returns the set of loaded schema ids, in no particular order.
func (s *DocumentStore) SchemaIDs() []SchemaID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]SchemaID, 0, len(s.schemas))
	for id := range s.schemas {
		ids = append(ids, id)
	}

	return ids
}
