package xschema

import (
	"context"
	"fmt"
	"runtime"

	"go.crossdoc.dev/xschema/cache"
	"go.crossdoc.dev/xschema/provider"
	"golang.org/x/sync/errgroup"
)

// Validator orchestrates phase 1 (per-document) and phase 2
// (cross-document) checks, owning error accumulation and the
// continue-on-error policy (spec §4.F, Component F).
type Validator struct {
	store *DocumentStore
	sites []*ExtensionSite
	std   StdValidator

	Cache   *cache.Store
	Fetcher *provider.Fetcher
	// ExternalPK carries the run's configuration-file primary_key
	// section (spec §6.C), if one was loaded. May be nil.
	ExternalPK *ExternalPrimaryKeyConfig
}

// NewValidator constructs a Validator over store's loaded documents and
// sites discovered by a [Traverser], delegating standard JSON Schema
// checks to std.
func NewValidator(store *DocumentStore, sites []*ExtensionSite, std StdValidator) *Validator {
	return &Validator{store: store, sites: sites, std: std}
}

// instancePairing is one (instance, schema id) assignment produced by
// Phase 0. An instance under guess-schema mode may appear more than once,
// once per schema it successfully validates against.
type instancePairing struct {
	Doc      *Document
	SchemaID SchemaID
}

// Run executes the full two-phase pipeline and returns the accumulated
// report. Under fail-fast policy (cfg.ContinueOnError == false) the first
// error encountered anywhere in the pipeline is returned immediately.
func (v *Validator) Run(ctx context.Context, cfg *Config) (*Report, error) {
	var errs ErrorList

	pairings, perr := v.pairSchemas(cfg)
	errs.errs = append(errs.errs, perr...)
	if !cfg.ContinueOnError && !errs.Empty() {
		return nil, errs.errs[0]
	}

	// warm-up and invalidate resolve provider tuples before phase 1 even
	// starts; read-only and lazy-load resolve them during phase 2, on
	// first demand (spec §4.G).
	policy := CachePolicy(cfg.CachePolicy)
	warmedUp := policy == CacheWarmUp || policy == CacheInvalidate

	var warmRecords []tupleRecord
	if warmedUp {
		var warmErrs []*Error
		warmRecords, warmErrs = gatherProviderTuples(ctx, v.sites, cfg, v.ExternalPK, v.Cache, v.Fetcher)
		errs.errs = append(errs.errs, warmErrs...)
		if !cfg.ContinueOnError && !errs.Empty() {
			return nil, errs.errs[0]
		}
	}

	records, phase1Errs, err := v.runPhase1(ctx, pairings, cfg)
	if err != nil {
		return nil, err
	}
	errs.errs = append(errs.errs, phase1Errs...)
	if !cfg.ContinueOnError && !errs.Empty() {
		return nil, errs.errs[0]
	}
	records = append(records, warmRecords...)

	records, phase2Errs := v.runPhase2(ctx, records, cfg, warmedUp)
	errs.errs = append(errs.errs, phase2Errs...)
	if !cfg.ContinueOnError && !errs.Empty() {
		return nil, errs.errs[0]
	}

	if v.Cache != nil {
		if err := v.Cache.Flush(); err != nil {
			return nil, fmt.Errorf("flushing key cache: %w", err)
		}
	}

	return buildReport(errs.errs), nil
}

// pairSchemas implements Phase 0 (spec §4.F).
func (v *Validator) pairSchemas(cfg *Config) ([]instancePairing, []*Error) {
	var (
		pairings []instancePairing
		errs     []*Error
	)

	candidates := v.store.SchemaIDs()
	if len(cfg.UseSchemas) > 0 {
		candidates = make([]SchemaID, len(cfg.UseSchemas))
		for i, s := range cfg.UseSchemas {
			candidates[i] = SchemaID(s)
		}
	}

	for _, doc := range v.store.Instances() {
		if doc.SchemaID != "" {
			pairings = append(pairings, instancePairing{Doc: doc, SchemaID: doc.SchemaID})

			continue
		}

		if id, ok := extractSchemaID(doc.Value, cfg.SchemaIDPath); ok {
			pairings = append(pairings, instancePairing{Doc: doc, SchemaID: SchemaID(id)})

			continue
		}

		if cfg.GuessSchema {
			matched := false
			for _, candidate := range candidates {
				resolved, ok := v.store.Resolved(candidate)
				if !ok {
					continue
				}
				if resolved.Validate(doc.Value) == nil {
					pairings = append(pairings, instancePairing{Doc: doc, SchemaID: candidate})
					matched = true
				}
			}
			if matched {
				continue
			}
		}

		errs = append(errs, &Error{
			Kind:        KindUnknownSchema,
			DocumentURI: doc.SourceURI,
			Message:     "instance could not be paired with a schema",
			Cause:       ErrUnknownSchemaID,
		})
	}

	return pairings, errs
}

func extractSchemaID(value any, path []string) (string, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range path {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}

	return "", false
}

// runPhase1 implements Phase 1 (spec §4.F, §5): per-instance standard
// validation and key-tuple gathering, fanned out across a bounded worker
// pool with one tupleLog shard per instance pairing.
func (v *Validator) runPhase1(ctx context.Context, pairings []instancePairing, cfg *Config) ([]tupleRecord, []*Error, error) {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	sitesBySchema := map[SchemaID][]*ExtensionSite{}
	for _, s := range v.sites {
		sitesBySchema[s.SchemaID] = append(sitesBySchema[s.SchemaID], s)
	}

	log := newTupleLog(len(pairings))
	errShards := make([][]*Error, len(pairings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, pairing := range pairings {
		i, pairing := i, pairing
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			errShards[i] = v.phase1One(log, i, pairing, sitesBySchema[pairing.SchemaID])

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("phase 1: %w", err)
	}

	var errs []*Error
	for _, shard := range errShards {
		errs = append(errs, shard...)
	}

	return log.merge(), errs, nil
}

func (v *Validator) phase1One(log *tupleLog, shard int, pairing instancePairing, sites []*ExtensionSite) []*Error {
	var errs []*Error

	for _, stdErr := range v.std.Validate(pairing.SchemaID, pairing.Doc.Value) {
		stdErr.DocumentURI = pairing.Doc.SourceURI
		errs = append(errs, stdErr)
	}

	for _, site := range sites {
		resolved := Resolve(pairing.Doc.Value, site.HostPathTemplate)
		for _, r := range resolved {
			tuple, err := extractTuple(site, r.Value)
			if err != nil {
				errs = append(errs, &Error{
					Kind:        KindMissingMember,
					DocumentURI: pairing.Doc.SourceURI,
					SchemaID:    site.SchemaID,
					Path:        r.Location,
					Message:     err.Error(),
				})

				continue
			}

			log.append(shard, tupleRecord{
				Site:        site,
				Tuple:       tuple,
				Location:    r.Location,
				DocumentURI: pairing.Doc.SourceURI,
				Origin:      OriginLocalInstance,
			})
		}
	}

	return errs
}

// extractTuple implements the Key-Tuple Extractor (spec §4.E).
func extractTuple(site *ExtensionSite, value any) (KeyTuple, error) {
	switch site.Member.Kind {
	case Whole:
		return NewWholeTuple(value), nil
	case Keys:
		obj, ok := value.(map[string]any)
		if !ok {
			return KeyTuple{}, fmt.Errorf("site value is not a mapping, cannot extract members %v", site.Member.Members)
		}
		for _, m := range site.Member.Members {
			if _, ok := obj[m]; !ok {
				return KeyTuple{}, fmt.Errorf("missing member %q", m)
			}
		}

		return NewMemberTuple(obj, site.Member.Members), nil
	default:
		return KeyTuple{}, fmt.Errorf("unknown member spec kind")
	}
}

// runPhase2 implements Phase 2 (spec §4.F.1-.5). When warmedUp is false
// (lazy-load or read-only cache policy), provider tuples are resolved here,
// on first demand, instead of having already been gathered before phase 1.
func (v *Validator) runPhase2(ctx context.Context, records []tupleRecord, cfg *Config, warmedUp bool) ([]tupleRecord, []*Error) {
	var errs []*Error

	if !warmedUp {
		providerRecords, providerErrs := gatherProviderTuples(ctx, v.sites, cfg, v.ExternalPK, v.Cache, v.Fetcher)
		records = append(records, providerRecords...)
		errs = append(errs, providerErrs...)
	}

	sortTupleRecords(records)

	errs = append(errs, checkUniqueness(records, KindUnique, nil)...)

	allowDup := allowProviderDuplicatesFor(v.sites, v.ExternalPK)
	errs = append(errs, checkUniqueness(records, KindPrimaryKey, allowDup)...)

	idx := buildReferenceIndex(records)
	errs = append(errs, checkForeignKeys(records, idx)...)
	errs = append(errs, checkJoinKeys(records, idx)...)

	return records, errs
}
