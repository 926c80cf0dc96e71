package xschema

import (
	"context"
	"fmt"

	"go.crossdoc.dev/xschema/cache"
	"go.crossdoc.dev/xschema/provider"
)

// ExternalPrimaryKeyConfig is the core's view of the run's configuration
// file primary_key section (spec §6.C): provider prefixes and inline
// tuple values unioned across every loaded configuration source,
// supplementing whatever a schema's own primary_key declaration carries.
type ExternalPrimaryKeyConfig struct {
	InlineProvider          map[SchemaID][]string
	ProviderPrefixes        []string
	AllowProviderDuplicates bool
	SchemaPrefix            string
	Accept                  string
}

// gatherProviderTuples resolves every PrimaryKey site's inline and remote
// provider sources into tupleRecords (spec §4.G/.H), honoring cfg's cache
// policy. It never mutates the phase-1 tuple log directly; callers merge
// the returned records into it before phase 2.
func gatherProviderTuples(ctx context.Context, sites []*ExtensionSite, cfg *Config, ext *ExternalPrimaryKeyConfig, cacheStore *cache.Store, fetcher *provider.Fetcher) ([]tupleRecord, []*Error) {
	var (
		records []tupleRecord
		errs    []*Error
	)

	for _, site := range sites {
		if site.Kind != KindPrimaryKey {
			continue
		}

		inline := mergedInline(site, ext)
		for _, v := range inline {
			records = append(records, tupleRecord{
				Site:   site,
				Tuple:  NewWholeTuple(v),
				Origin: OriginInline,
			})
		}

		if CachePolicy(cfg.CachePolicy) == CacheReadOnly {
			records = append(records, cachedRecordsFor(site, cacheStore)...)

			continue
		}

		prefixes := mergedPrefixes(site, ext)
		if len(prefixes) == 0 {
			continue
		}

		schemaPrefix, accept := mergedProviderOptions(site, ext)
		requests := make([]provider.Request, len(prefixes))
		for i, prefix := range prefixes {
			requests[i] = provider.Request{
				SchemaID:     string(site.SchemaID),
				Prefix:       prefix,
				SchemaPrefix: schemaPrefix,
				Accept:       accept,
			}
		}

		results, fetchErrs := fetcher.FetchAll(ctx, requests)
		var entries []cache.Entry
		for i, res := range results {
			if fetchErrs[i] != nil {
				hasPrior := len(cachedRecordsFor(site, cacheStore)) > 0
				kind := KindProviderFetchError
				msg := fetchErrs[i].Error()
				if hasPrior {
					// With a prior cached copy the cached tuples
					// participate in place of the failed fetch. The
					// failure is still reported below as a
					// ProviderFetchError, with the same kind as when no
					// cached copy exists; only its message records the
					// fallback. There is no separate warning level.
					records = append(records, cachedRecordsFor(site, cacheStore)...)
				}
				errs = append(errs, &Error{
					Kind:     kind,
					SchemaID: site.SchemaID,
					Message:  fmt.Sprintf("%s (cache fallback=%v)", msg, hasPrior),
					Cause:    fetchErrs[i],
				})

				continue
			}

			for _, v := range res.Values {
				records = append(records, tupleRecord{
					Site:   site,
					Tuple:  NewWholeTuple(v),
					Origin: OriginProvider,
				})
				entries = append(entries, cache.Entry{
					SchemaID:  string(site.SchemaID),
					Name:      site.Name,
					Elems:     []string{v},
					Origin:    string(OriginProvider),
					SourceURL: res.Request.URL(),
				})
			}
		}
		if cacheStore != nil {
			cacheStore.Put(entries...)
		}
	}

	return records, errs
}

func mergedInline(site *ExtensionSite, ext *ExternalPrimaryKeyConfig) []string {
	var out []string
	if site.Provider != nil {
		out = append(out, site.Provider.InlineProvider[site.SchemaID]...)
	}
	if ext != nil {
		out = append(out, ext.InlineProvider[site.SchemaID]...)
	}

	return out
}

func mergedPrefixes(site *ExtensionSite, ext *ExternalPrimaryKeyConfig) []string {
	var out []string
	if site.Provider != nil {
		out = append(out, site.Provider.ProviderPrefixes...)
	}
	if ext != nil {
		out = append(out, ext.ProviderPrefixes...)
	}

	return out
}

func mergedProviderOptions(site *ExtensionSite, ext *ExternalPrimaryKeyConfig) (schemaPrefix, accept string) {
	if site.Provider != nil {
		schemaPrefix = site.Provider.SchemaPrefix
		accept = site.Provider.Accept
	}
	if schemaPrefix == "" && ext != nil {
		schemaPrefix = ext.SchemaPrefix
	}
	if accept == "" && ext != nil {
		accept = ext.Accept
	}

	return schemaPrefix, accept
}

// allowProviderDuplicatesFor reports whether duplicates involving a
// Provider-origin tuple should be excluded from uniqueness checks for the
// given PK namespace (spec §4.F.2).
func allowProviderDuplicatesFor(sites []*ExtensionSite, ext *ExternalPrimaryKeyConfig) func(siteKey) bool {
	bySite := map[siteKey]bool{}
	for _, s := range sites {
		if s.Kind != KindPrimaryKey {
			continue
		}
		allow := false
		if s.Provider != nil {
			allow = s.Provider.AllowProviderDuplicates
		}
		if ext != nil && ext.AllowProviderDuplicates {
			allow = true
		}
		bySite[s.key()] = allow
	}

	return func(k siteKey) bool { return bySite[k] }
}

func cachedRecordsFor(site *ExtensionSite, cacheStore *cache.Store) []tupleRecord {
	if cacheStore == nil {
		return nil
	}

	var out []tupleRecord
	for _, e := range cacheStore.Entries() {
		if e.SchemaID != string(site.SchemaID) || e.Name != site.Name {
			continue
		}
		if len(e.Elems) == 0 {
			continue
		}
		out = append(out, tupleRecord{
			Site:   site,
			Tuple:  NewWholeTuple(e.Elems[0]),
			Origin: Origin(e.Origin),
		})
	}

	return out
}
