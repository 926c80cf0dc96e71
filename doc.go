// Package xschema implements an extended JSON Schema validator: a
// cross-document validator that augments standard JSON Schema with five
// relational constraints -- unique, primary_key, index, foreign_keys, and
// join_keys -- whose semantics span an entire corpus of JSON/YAML documents
// rather than any single instance.
//
// # Design Principles
//
// Three tightly coupled subsystems do the work:
//
//  1. Extension discovery ([Traverser]) walks a [*jsonschema.Schema] of any
//     draft and records, for every subschema carrying an extension keyword,
//     an [ExtensionSite] whose [PathTemplate] can later be resolved against
//     concrete instance values.
//  2. A two-phase validation engine ([Validator]) loads N instance
//     documents, runs per-document standard JSON Schema checks plus
//     per-instance key-tuple gathering (phase 1), then globally resolves
//     uniqueness and referential integrity across the whole corpus
//     (phase 2).
//  3. A key-value cache layer (package [go.crossdoc.dev/xschema/cache]),
//     optionally pre-warmed by a provider fetcher (package
//     [go.crossdoc.dev/xschema/provider]), supplies primary-key tuples this
//     run's instances never mention.
//
// # Pipeline
//
//	store := xschema.NewDocumentStore()
//	// ... load schemas and instances into store ...
//	sites, err := xschema.NewTraverser().Discover(store.Schemas())
//	v := xschema.NewValidator(store, sites, xschema.NewStdValidator(store))
//	report, err := v.Run(ctx, cfg)
//
// # Extension Grammar
//
// The five extension keywords accept a boolean, an array of member names,
// or an object carrying members/name/limit_scope (plus provider fields on
// primary_key); see [MemberSpec] and [ExtensionSite].
//
// # Errors
//
// [Error] carries a [Kind] from the fixed set of error kinds (see
// errors.go). [ErrorList] accumulates errors under continue-on-error
// policy; under fail-fast policy the first error short-circuits the run.
package xschema
