package xschema

// SchemaID identifies a loaded schema within a run: either an absolute URI
// from $id, or one derived from the schema's filesystem path. Unique within
// a run.
type SchemaID string

// Document is a loaded instance document. Value holds the decoded JSON
// tree (scalars, map[string]any, []any). Schemas are held separately by
// [DocumentStore] as resolved [*jsonschema.Schema] values.
type Document struct {
	SourceURI string
	SchemaID  SchemaID
	Value     any
}

// ExtensionKind identifies one of the five relational extension keywords.
type ExtensionKind string

const (
	KindUnique     ExtensionKind = "unique"
	KindPrimaryKey ExtensionKind = "primary_key"
	KindIndex      ExtensionKind = "index"
	KindForeignKey ExtensionKind = "foreign_keys"
	KindJoinKey    ExtensionKind = "join_keys"
)

// Origin records where a primary-key or index tuple came from.
type Origin string

const (
	OriginLocalInstance Origin = "local_instance"
	OriginInline        Origin = "inline"
	OriginProvider      Origin = "provider"
)
