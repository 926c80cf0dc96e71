package xschema

import "fmt"

// PathStep is one element of a [PathTemplate]. Exactly one of the
// constructors below should be used; the zero value is not a valid step.
type PathStep struct {
	kind  pathStepKind
	key   string
	index int
}

type pathStepKind int

const (
	stepKey pathStepKind = iota
	stepIndex
	stepAnyIndex
	stepAnyKey
)

// KeyStep steps into a mapping at the given key.
func KeyStep(name string) PathStep { return PathStep{kind: stepKey, key: name} }

// IndexStep steps into a sequence at the given index.
func IndexStep(n int) PathStep { return PathStep{kind: stepIndex, index: n} }

// AnyIndex matches every element of a sequence.
func AnyIndex() PathStep { return PathStep{kind: stepAnyIndex} }

// AnyKey matches every value of a mapping.
func AnyKey() PathStep { return PathStep{kind: stepAnyKey} }

func (s PathStep) String() string {
	switch s.kind {
	case stepKey:
		return s.key
	case stepIndex:
		return fmt.Sprintf("%d", s.index)
	case stepAnyIndex:
		return "[*]"
	case stepAnyKey:
		return "*"
	default:
		return "?"
	}
}

// PathTemplate is an ordered sequence of [PathStep]s describing the path
// from a schema root to a subschema, translated into a template applicable
// to instance values. AnyIndex/AnyKey steps expand to every matching
// location when resolved (see [Resolve]).
type PathTemplate []PathStep

func (t PathTemplate) String() string {
	s := "$"
	for _, step := range t {
		switch step.kind {
		case stepKey:
			s += "." + step.key
		case stepIndex:
			s += fmt.Sprintf("[%d]", step.index)
		case stepAnyIndex:
			s += "[*]"
		case stepAnyKey:
			s += ".*"
		}
	}

	return s
}

// Location is a concrete, fully-resolved path: the same shape as a
// PathTemplate but with every AnyIndex/AnyKey step replaced by a concrete
// index or key.
type Location PathTemplate

func (l Location) String() string { return PathTemplate(l).String() }

// MemberSpecKind distinguishes the two forms of [MemberSpec].
type MemberSpecKind int

const (
	// Whole: the value at the site itself is the key tuple (a 1-tuple).
	Whole MemberSpecKind = iota
	// Keys: the tuple is the ordered list of values at the named keys.
	Keys
)

// MemberSpec describes how to extract a [KeyTuple] from the value found at
// an [ExtensionSite]'s resolved location.
type MemberSpec struct {
	Kind    MemberSpecKind
	Members []string // only meaningful when Kind == Keys
}

// WholeSpec builds a [MemberSpec] of kind [Whole].
func WholeSpec() MemberSpec { return MemberSpec{Kind: Whole} }

// KeysSpec builds a [MemberSpec] of kind [Keys].
func KeysSpec(members []string) MemberSpec { return MemberSpec{Kind: Keys, Members: members} }

// ExtensionSite is a position inside a JSON Schema carrying one of the five
// extension keywords (spec §3).
type ExtensionSite struct {
	SchemaID         SchemaID
	HostPathTemplate PathTemplate
	Kind             ExtensionKind
	Member           MemberSpec
	Name             string // empty means the unnamed declaration
	LimitScope       bool

	// Foreign/join sites only.
	TargetSchemaID SchemaID // empty means "current schema"
	TargetName     string

	// Primary key provider configuration, absorbed from the keyword value
	// at discovery time (see traverse.go). Only meaningful for
	// Kind == KindPrimaryKey.
	Provider *PrimaryKeyProviderConfig
}

// PrimaryKeyProviderConfig carries the provider-related fields that may
// accompany a primary_key declaration (spec §4.D, §4.H, external
// interface C).
type PrimaryKeyProviderConfig struct {
	InlineProvider          map[SchemaID][]string
	ProviderPrefixes        []string
	SchemaPrefix            string
	Accept                  string
	AllowProviderDuplicates bool
}

// siteKey is the namespace key used to group sites for uniqueness/PK/index
// bookkeeping: (schema_id, name-or-empty). Per DESIGN NOTES §9, this is
// never merged across schema_ids even when Name collides.
type siteKey struct {
	SchemaID SchemaID
	Name     string
}

func (s *ExtensionSite) key() siteKey {
	return siteKey{SchemaID: s.SchemaID, Name: s.Name}
}

// targetKey resolves the (schema_id, name) pair an FK/JK site refers to.
func (s *ExtensionSite) targetKey() siteKey {
	schemaID := s.TargetSchemaID
	if schemaID == "" {
		schemaID = s.SchemaID
	}

	return siteKey{SchemaID: schemaID, Name: s.TargetName}
}
