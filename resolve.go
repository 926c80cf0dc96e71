package xschema

import "sort"

// referenceIndex is the pair of indices the Reference Resolver builds
// after phase 1 gathering (spec §4.I): pk_index and index_index, each
// keyed by (schema_id, name-or-empty).
type referenceIndex struct {
	pk    map[siteKey]*tupleBucket
	index map[siteKey]*tupleBucket
}

// tupleBucket groups every record sharing a (schema_id, name) namespace,
// indexed by canonical tuple key so membership and duplicate checks are
// O(1) per tuple.
type tupleBucket struct {
	byTuple map[string][]tupleRecord
}

func newTupleBucket() *tupleBucket {
	return &tupleBucket{byTuple: map[string][]tupleRecord{}}
}

func (b *tupleBucket) add(rec tupleRecord) {
	k := rec.Tuple.Key()
	b.byTuple[k] = append(b.byTuple[k], rec)
}

// has reports whether tuple is a member of the bucket, honoring
// allowProviderDuplicates the same way buildReferenceIndex's caller
// already baked in: presence of any record (of any origin) is sufficient
// for FK/JK membership per spec §4.I ("allow_provider_duplicates=true and
// a tuple exists only via Provider origin, FK/JK membership still
// succeeds").
func (b *tupleBucket) has(t KeyTuple) bool {
	_, ok := b.byTuple[t.Key()]

	return ok
}

func buildReferenceIndex(records []tupleRecord) *referenceIndex {
	idx := &referenceIndex{pk: map[siteKey]*tupleBucket{}, index: map[siteKey]*tupleBucket{}}
	for _, rec := range records {
		var target map[siteKey]*tupleBucket
		switch rec.Site.Kind {
		case KindPrimaryKey:
			target = idx.pk
		case KindIndex:
			target = idx.index
		default:
			continue
		}

		k := rec.Site.key()
		b, ok := target[k]
		if !ok {
			b = newTupleBucket()
			target[k] = b
		}
		b.add(rec)
	}

	return idx
}

// checkUniqueness implements spec §4.F.1/.2 for both Unique and
// PrimaryKey sites: group by (site namespace, scope), and for any tuple
// appearing more than once, emit one UniquenessViolation per occurrence
// beyond the first, each listing every occurrence as an offending
// location.
//
// When allowProviderDuplicates is true (only meaningful for PrimaryKey
// groups), Provider-origin occurrences are always excluded from the
// duplicate count and from the offending locations; a violation is
// reported only when two or more non-Provider occurrences collide, so a
// Provider/LocalInstance pair of the same tuple is never reported.
func checkUniqueness(records []tupleRecord, kind ExtensionKind, allowProviderDuplicates func(siteKey) bool) []*Error {
	type group struct {
		key   siteKey
		scope string
	}
	groups := map[group]map[string][]tupleRecord{}

	for _, rec := range records {
		if rec.Site.Kind != kind {
			continue
		}
		scope := "GLOBAL"
		if rec.Site.LimitScope {
			scope = rec.DocumentURI
		}
		g := group{key: rec.Site.key(), scope: scope}
		if groups[g] == nil {
			groups[g] = map[string][]tupleRecord{}
		}
		tk := rec.Tuple.Key()
		groups[g][tk] = append(groups[g][tk], rec)
	}

	orderedGroups := make([]group, 0, len(groups))
	for g := range groups {
		orderedGroups = append(orderedGroups, g)
	}
	sort.Slice(orderedGroups, func(i, j int) bool {
		a, b := orderedGroups[i], orderedGroups[j]
		if a.key.SchemaID != b.key.SchemaID {
			return a.key.SchemaID < b.key.SchemaID
		}
		if a.key.Name != b.key.Name {
			return a.key.Name < b.key.Name
		}

		return a.scope < b.scope
	})

	var errs []*Error
	for _, g := range orderedGroups {
		byTuple := groups[g]
		dedupe := allowProviderDuplicates != nil && allowProviderDuplicates(g.key)

		tupleKeys := make([]string, 0, len(byTuple))
		for tk := range byTuple {
			tupleKeys = append(tupleKeys, tk)
		}
		sort.Strings(tupleKeys)

		for _, tk := range tupleKeys {
			occurrences := byTuple[tk]
			effective := occurrences
			if dedupe {
				effective = nonProviderOccurrences(occurrences)
			}
			if len(effective) < 2 {
				continue
			}

			qlocs := make([]QualifiedLocation, len(effective))
			for i, o := range effective {
				qlocs[i] = QualifiedLocation{DocumentURI: o.DocumentURI, Path: o.Location}
			}

			for _, extra := range effective[1:] {
				errs = append(errs, &Error{
					Kind:               KindUniquenessViolation,
					DocumentURI:        extra.DocumentURI,
					SchemaID:           extra.Site.SchemaID,
					Path:               extra.Location,
					Message:            duplicateMessage(extra.Site),
					OffendingLocations: qlocs,
				})
			}
		}
	}

	return errs
}

func nonProviderOccurrences(recs []tupleRecord) []tupleRecord {
	var out []tupleRecord
	for _, r := range recs {
		if r.Origin != OriginProvider {
			out = append(out, r)
		}
	}

	return out
}

func duplicateMessage(site *ExtensionSite) string {
	if site.Name != "" {
		return "duplicate tuple for " + string(site.Kind) + " \"" + site.Name + "\""
	}

	return "duplicate tuple for " + string(site.Kind)
}

// checkForeignKeys implements spec §4.F.4: for each ForeignKey record,
// look up the target's pk_index entry by (target_schema_id, target_name).
func checkForeignKeys(records []tupleRecord, idx *referenceIndex) []*Error {
	return checkReferences(records, KindForeignKey, idx.pk, KindDanglingForeignKey)
}

// checkJoinKeys implements spec §4.F.5: identical to checkForeignKeys but
// against index_index.
func checkJoinKeys(records []tupleRecord, idx *referenceIndex) []*Error {
	return checkReferences(records, KindJoinKey, idx.index, KindDanglingJoinKey)
}

func checkReferences(records []tupleRecord, kind ExtensionKind, targets map[siteKey]*tupleBucket, danglingKind Kind) []*Error {
	var errs []*Error
	for _, rec := range records {
		if rec.Site.Kind != kind {
			continue
		}

		tk := rec.Site.targetKey()
		bucket, ok := targets[tk]
		if !ok {
			errs = append(errs, &Error{
				Kind:        KindUnresolvedReference,
				DocumentURI: rec.DocumentURI,
				SchemaID:    rec.Site.SchemaID,
				Path:        rec.Location,
				Message:     "no declaration registered for referenced target",
				Referenced:  &Referenced{SchemaID: tk.SchemaID, Name: tk.Name, Tuple: rec.Tuple},
			})

			continue
		}

		if !bucket.has(rec.Tuple) {
			errs = append(errs, &Error{
				Kind:        danglingKind,
				DocumentURI: rec.DocumentURI,
				SchemaID:    rec.Site.SchemaID,
				Path:        rec.Location,
				Message:     "referenced tuple not found",
				Referenced:  &Referenced{SchemaID: tk.SchemaID, Name: tk.Name, Tuple: rec.Tuple},
			})
		}
	}

	return errs
}
