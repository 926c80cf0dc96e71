package xschema

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Traverser discovers [ExtensionSite]s by walking a [*jsonschema.Schema]
// tree, following the same composition keywords the underlying validator
// understands: properties, patternProperties, additionalProperties, items,
// prefixItems, additionalItems, $defs/definitions, and allOf/anyOf/oneOf
// (spec §4.D). Unrecognized keywords surface through [jsonschema.Schema]'s
// Extra map, which is where the five extension keywords are read from.
type Traverser struct{}

// NewTraverser constructs a Traverser. It holds no state; the zero value
// is ready to use.
func NewTraverser() *Traverser { return &Traverser{} }

// Discover walks every schema in schemas and returns every [ExtensionSite]
// found across all of them.
func (t *Traverser) Discover(schemas map[SchemaID]*jsonschema.Schema) ([]*ExtensionSite, error) {
	var sites []*ExtensionSite
	pkSeen := map[siteKey]bool{}
	for id, root := range schemas {
		w := &walker{schemaID: id, seen: map[*jsonschema.Schema]bool{}}
		if err := w.walk(root, nil); err != nil {
			return nil, fmt.Errorf("traverse schema %q: %w", id, err)
		}
		for _, s := range w.sites {
			if s.Kind != KindPrimaryKey {
				continue
			}
			k := s.key()
			if pkSeen[k] {
				return nil, fmt.Errorf("%w: duplicate primary_key declaration for (schema_id=%s, name=%q)", ErrInvalidExtensionValue, k.SchemaID, k.Name)
			}
			pkSeen[k] = true
		}
		sites = append(sites, w.sites...)
	}

	return sites, nil
}

type walker struct {
	schemaID SchemaID
	sites    []*ExtensionSite
	seen     map[*jsonschema.Schema]bool
}

func (w *walker) walk(s *jsonschema.Schema, path PathTemplate) error {
	if s == nil {
		return nil
	}
	if w.seen[s] {
		// A schema reused at multiple positions (shared $defs pointer,
		// or a cyclic $ref) is visited once per distinct path; guard
		// only against revisiting along the *same* recursion branch to
		// avoid infinite cycles while still letting aliasing surface
		// multiple sites for non-recursive sharing.
		return nil
	}
	w.seen[s] = true
	defer delete(w.seen, s)

	if err := w.extractKeywords(s, path); err != nil {
		return err
	}

	for name, sub := range s.Properties {
		if err := w.walk(sub, append(path, KeyStep(name))); err != nil {
			return err
		}
	}
	for _, sub := range s.PatternProperties {
		if err := w.walk(sub, append(path, AnyKey())); err != nil {
			return err
		}
	}
	if ap := s.AdditionalProperties; ap != nil {
		if err := w.walk(ap, append(path, AnyKey())); err != nil {
			return err
		}
	}
	if s.Items != nil {
		if err := w.walk(s.Items, append(path, AnyIndex())); err != nil {
			return err
		}
	}
	for i, sub := range s.PrefixItems {
		if err := w.walk(sub, append(path, IndexStep(i))); err != nil {
			return err
		}
	}
	if ai := s.AdditionalItems; ai != nil {
		if err := w.walk(ai, append(path, AnyIndex())); err != nil {
			return err
		}
	}
	for _, sub := range s.AllOf {
		if err := w.walk(sub, path); err != nil {
			return err
		}
	}
	for _, sub := range s.AnyOf {
		if err := w.walk(sub, path); err != nil {
			return err
		}
	}
	for _, sub := range s.OneOf {
		if err := w.walk(sub, path); err != nil {
			return err
		}
	}
	// $defs/definitions are only reachable via $ref, which is resolved
	// separately by the underlying validator; we still walk into them so
	// their extension sites are registered, but a def that is never
	// referenced from a reachable position produces a site whose host
	// path template is rooted at the def itself and will simply never
	// resolve against any instance (harmless).
	for _, sub := range s.Defs {
		if err := w.walk(sub, nil); err != nil {
			return err
		}
	}
	for _, sub := range s.Definitions {
		if err := w.walk(sub, nil); err != nil {
			return err
		}
	}

	return nil
}

func (w *walker) extractKeywords(s *jsonschema.Schema, path PathTemplate) error {
	for _, kw := range registry {
		raw, ok := s.Extra[kw.Name]
		if !ok {
			continue
		}

		var (
			sites []*ExtensionSite
			err   error
		)
		if kw.Kind == KindForeignKey || kw.Kind == KindJoinKey {
			sites, err = parseReferenceValue(kw, raw, w.schemaID, path)
		} else {
			var site *ExtensionSite
			site, err = parseDeclValue(kw, raw, w.schemaID, path)
			if site != nil {
				sites = []*ExtensionSite{site}
			}
		}
		if err != nil {
			return fmt.Errorf("%s at %s: %w", kw.Name, path, err)
		}
		w.sites = append(w.sites, sites...)
	}

	return nil
}

// parseDeclValue interprets the value of a unique/primary_key/index
// keyword (spec §4.D, §6.E):
//   - true: a Whole-value constraint over the site itself.
//   - an array of strings: a Keys constraint over those member names.
//   - an object: {members, name, limit_scope, ...} with provider fields
//     absorbed when kind is primary_key.
func parseDeclValue(kw keywordSpec, raw any, schemaID SchemaID, path PathTemplate) (*ExtensionSite, error) {
	site := &ExtensionSite{
		SchemaID:         schemaID,
		HostPathTemplate: append(PathTemplate{}, path...),
		Kind:             kw.Kind,
	}

	switch v := raw.(type) {
	case bool:
		if !v {
			return nil, fmt.Errorf("%w: keyword present but false", ErrInvalidExtensionValue)
		}
		site.Member = WholeSpec()

	case []any:
		members, err := stringSlice(v)
		if err != nil {
			return nil, err
		}
		site.Member = KeysSpec(members)

	case map[string]any:
		if err := applyDeclObjectForm(site, v); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrInvalidExtensionValue, raw)
	}

	return site, nil
}

func applyDeclObjectForm(site *ExtensionSite, obj map[string]any) error {
	if members, ok := obj["members"]; ok {
		switch m := members.(type) {
		case bool:
			if !m {
				return fmt.Errorf("%w: members: false is not meaningful", ErrInvalidExtensionValue)
			}
			site.Member = WholeSpec()
		case []any:
			ss, err := stringSlice(m)
			if err != nil {
				return err
			}
			site.Member = KeysSpec(ss)
		default:
			return fmt.Errorf("%w: members must be true or an array", ErrInvalidExtensionValue)
		}
	} else {
		site.Member = WholeSpec()
	}

	if name, ok := obj["name"].(string); ok {
		site.Name = name
	}
	if ls, ok := obj["limit_scope"].(bool); ok {
		site.LimitScope = ls
	}

	if site.Kind != KindPrimaryKey {
		return nil
	}

	cfg := &PrimaryKeyProviderConfig{}
	if prefixes, ok := obj["provider"].([]any); ok {
		ss, err := stringSlice(prefixes)
		if err != nil {
			return err
		}
		cfg.ProviderPrefixes = ss
	}
	if sp, ok := obj["schema_prefix"].(string); ok {
		cfg.SchemaPrefix = sp
	}
	if accept, ok := obj["accept"].(string); ok {
		cfg.Accept = accept
	}
	if apd, ok := obj["allow_provider_duplicates"].(bool); ok {
		cfg.AllowProviderDuplicates = apd
	}
	if inline, ok := obj["inline_provider"].(map[string]any); ok {
		cfg.InlineProvider = map[SchemaID][]string{}
		for k, v := range inline {
			arr, ok := v.([]any)
			if !ok {
				return fmt.Errorf("%w: inline_provider entries must be arrays", ErrInvalidExtensionValue)
			}
			ss, err := stringSlice(arr)
			if err != nil {
				return err
			}
			cfg.InlineProvider[SchemaID(k)] = ss
		}
	}
	site.Provider = cfg

	return nil
}

// parseReferenceValue interprets the value of a foreign_keys/join_keys
// keyword: an array of {schema_id?, refers_to?, members} objects, each
// producing its own ExtensionSite (spec §6.E).
func parseReferenceValue(kw keywordSpec, raw any, schemaID SchemaID, path PathTemplate) ([]*ExtensionSite, error) {
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an array of reference declarations, got %T", ErrInvalidExtensionValue, raw)
	}

	sites := make([]*ExtensionSite, 0, len(arr))
	for _, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: reference declaration must be an object", ErrInvalidExtensionValue)
		}

		membersRaw, ok := obj["members"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: reference declaration requires a members array", ErrInvalidExtensionValue)
		}
		members, err := stringSlice(membersRaw)
		if err != nil {
			return nil, err
		}

		site := &ExtensionSite{
			SchemaID:         schemaID,
			HostPathTemplate: append(PathTemplate{}, path...),
			Kind:             kw.Kind,
			Member:           KeysSpec(members),
		}
		if sid, ok := obj["schema_id"].(string); ok {
			site.TargetSchemaID = SchemaID(sid)
		}
		if rt, ok := obj["refers_to"].(string); ok {
			site.TargetName = rt
		}

		sites = append(sites, site)
	}

	return sites, nil
}

func stringSlice(arr []any) ([]string, error) {
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected string, got %T", ErrInvalidExtensionValue, v)
		}
		out[i] = s
	}

	return out, nil
}
