package xschema

// Phase identifies which validation pass consumes an [ExtensionKind]'s
// bookkeeping (spec §4.F). Every kind participates in phase 1 (tuple
// gathering); this records which phase resolves its constraint.
type Phase int

const (
	// PhaseLocal constraints resolve against data already visible within
	// the phase-1 pass that discovered them (none of the five currently
	// qualify; reserved for future extension kinds).
	PhaseLocal Phase = iota
	// PhaseGlobal constraints resolve only after every instance has been
	// through phase 1, once the corpus-wide tuple sets are complete.
	PhaseGlobal
)

// keywordSpec describes one recognized extension keyword: its JSON name
// and which phase resolves it.
type keywordSpec struct {
	Kind  ExtensionKind
	Name  string
	Phase Phase
}

// registry is the fixed catalogue of the five extension keywords (spec
// §3). It never varies at runtime; a literal table here mirrors the
// closed set of kinds in [ExtensionKind].
var registry = []keywordSpec{
	{Kind: KindUnique, Name: "unique", Phase: PhaseGlobal},
	{Kind: KindPrimaryKey, Name: "primary_key", Phase: PhaseGlobal},
	{Kind: KindIndex, Name: "index", Phase: PhaseGlobal},
	{Kind: KindForeignKey, Name: "foreign_keys", Phase: PhaseGlobal},
	{Kind: KindJoinKey, Name: "join_keys", Phase: PhaseGlobal},
}

// lookupKeyword returns the keywordSpec for a JSON keyword name, if it is
// one of the five recognized extensions.
func lookupKeyword(name string) (keywordSpec, bool) {
	for _, k := range registry {
		if k.Name == name {
			return k, true
		}
	}

	return keywordSpec{}, false
}

// KnownKeywords returns the JSON names of all recognized extension
// keywords, in a stable order.
func KnownKeywords() []string {
	names := make([]string, len(registry))
	for i, k := range registry {
		names[i] = k.Name
	}

	return names
}
