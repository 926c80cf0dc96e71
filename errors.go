package xschema

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a validation [Error] (spec §7).
type Kind string

const (
	KindSchemaLoadError        Kind = "schema_load_error"
	KindInstanceLoadError      Kind = "instance_load_error"
	KindUnknownSchema          Kind = "unknown_schema"
	KindStandardValidationErr  Kind = "standard_validation_error"
	KindMissingMember          Kind = "missing_member"
	KindUniquenessViolation    Kind = "uniqueness_violation"
	KindUnresolvedReference    Kind = "unresolved_reference"
	KindDanglingForeignKey     Kind = "dangling_foreign_key"
	KindDanglingJoinKey        Kind = "dangling_join_key"
	KindProviderFetchError     Kind = "provider_fetch_error"
)

var (
	// ErrInvalidExtensionValue is returned when an extension keyword's
	// JSON value does not match any of its accepted shapes (spec §3).
	ErrInvalidExtensionValue = errors.New("invalid extension keyword value")
	// ErrUnknownSchemaID is returned when an instance cannot be paired
	// with any loaded schema (spec §4.F, Phase 0).
	ErrUnknownSchemaID = errors.New("unknown schema id")
	// ErrAmbiguousSchema names the case of an instance matching more than
	// one candidate schema. [Validator] does not return it: guess-schema
	// mode pairs the instance with every schema it validates against.
	ErrAmbiguousSchema = errors.New("ambiguous schema guess")
)

// QualifiedLocation pairs a [Location] with the document it was resolved
// against, since a uniqueness or reference violation's offending
// locations may span more than one document (spec §6.F).
type QualifiedLocation struct {
	DocumentURI string
	Path        Location
}

// Referenced describes the (schema_id, name, tuple) a dangling or
// unresolved reference pointed at (spec §6.F).
type Referenced struct {
	SchemaID SchemaID
	Name     string
	Tuple    KeyTuple
}

// Error is one validation finding, attributable to a single document and
// (usually) a single location within it.
type Error struct {
	Kind               Kind
	DocumentURI        string
	SchemaID           SchemaID
	Path               Location
	Message            string
	OffendingLocations []QualifiedLocation
	Referenced         *Referenced
	Cause              error
}

func (e *Error) Error() string {
	if e.Path != nil {
		return fmt.Sprintf("%s: %s at %s: %s", e.DocumentURI, e.Kind, e.Path, e.Message)
	}

	return fmt.Sprintf("%s: %s: %s", e.DocumentURI, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// ErrorList accumulates [Error] values under continue-on-error policy.
type ErrorList struct {
	errs []*Error
}

// Add appends an error to the list.
func (l *ErrorList) Add(e *Error) { l.errs = append(l.errs, e) }

// Errors returns the accumulated errors in the order they were added.
func (l *ErrorList) Errors() []*Error { return l.errs }

// Empty reports whether no errors have been accumulated.
func (l *ErrorList) Empty() bool { return len(l.errs) == 0 }

// Len reports the number of accumulated errors.
func (l *ErrorList) Len() int { return len(l.errs) }
