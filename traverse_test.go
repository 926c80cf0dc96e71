package xschema_test

import (
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.crossdoc.dev/xschema"
)

func discoverOne(t *testing.T, id xschema.SchemaID, schema *jsonschema.Schema) []*xschema.ExtensionSite {
	t.Helper()

	sites, err := xschema.NewTraverser().Discover(map[xschema.SchemaID]*jsonschema.Schema{id: schema})
	require.NoError(t, err)

	return sites
}

func TestDiscover_BooleanTrueIsWholeSpec(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Properties: map[string]*jsonschema.Schema{
			"local_id": {Extra: map[string]any{"unique": true}},
		},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	site := sites[0]
	assert.Equal(t, xschema.KindUnique, site.Kind)
	assert.Equal(t, xschema.Whole, site.Member.Kind)
	assert.Equal(t, "$.local_id", site.HostPathTemplate.String())
}

func TestDiscover_BooleanFalseIsInvalid(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{Extra: map[string]any{"unique": false}}

	_, err := xschema.NewTraverser().Discover(map[xschema.SchemaID]*jsonschema.Schema{"S1": schema})
	require.Error(t, err)
	assert.ErrorIs(t, err, xschema.ErrInvalidExtensionValue)
}

func TestDiscover_ArrayOfStringsIsKeysSpec(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Extra: map[string]any{"unique": []any{"local_id", "other_id"}},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	assert.Equal(t, xschema.Keys, sites[0].Member.Kind)
	assert.Equal(t, []string{"local_id", "other_id"}, sites[0].Member.Members)
}

func TestDiscover_ObjectFormWithNameAndLimitScope(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Extra: map[string]any{
			"unique": map[string]any{
				"name":        "pair",
				"members":     []any{"local_id", "other_id"},
				"limit_scope": true,
			},
		},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	assert.Equal(t, "pair", sites[0].Name)
	assert.True(t, sites[0].LimitScope)
	assert.Equal(t, []string{"local_id", "other_id"}, sites[0].Member.Members)
}

func TestDiscover_PrimaryKeyProviderFieldsAbsorbed(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Extra: map[string]any{
			"primary_key": map[string]any{
				"name":                      "pk",
				"members":                   []any{"local_id"},
				"provider":                  []any{"https://example.com/keys/"},
				"schema_prefix":             "urn:schema:",
				"accept":                    "text/csv",
				"allow_provider_duplicates": true,
				"inline_provider": map[string]any{
					"S1": []any{"X", "Y"},
				},
			},
		},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	require.NotNil(t, sites[0].Provider)
	cfg := sites[0].Provider
	assert.Equal(t, []string{"https://example.com/keys/"}, cfg.ProviderPrefixes)
	assert.Equal(t, "urn:schema:", cfg.SchemaPrefix)
	assert.Equal(t, "text/csv", cfg.Accept)
	assert.True(t, cfg.AllowProviderDuplicates)
	assert.Equal(t, []string{"X", "Y"}, cfg.InlineProvider["S1"])
}

func TestDiscover_PatternPropertiesAndAdditionalPropertiesAppendAnyKey(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		PatternProperties: map[string]*jsonschema.Schema{
			"^x-": {Extra: map[string]any{"index": true}},
		},
		AdditionalProperties: &jsonschema.Schema{Extra: map[string]any{"index": true}},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 2)
	for _, s := range sites {
		assert.Equal(t, "$.*", s.HostPathTemplate.String())
	}
}

func TestDiscover_ItemsAppendsAnyIndex(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Items: &jsonschema.Schema{Extra: map[string]any{"unique": true}},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	assert.Equal(t, "$[*]", sites[0].HostPathTemplate.String())
}

func TestDiscover_PrefixItemsAppendsIndexStep(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		PrefixItems: []*jsonschema.Schema{
			{},
			{Extra: map[string]any{"unique": true}},
		},
	}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	assert.Equal(t, "$[1]", sites[0].HostPathTemplate.String())
}

func TestDiscover_CompositionKeywordsDoNotAlterPath(t *testing.T) {
	t.Parallel()

	inner := &jsonschema.Schema{
		Properties: map[string]*jsonschema.Schema{
			"local_id": {Extra: map[string]any{"unique": true}},
		},
	}
	schema := &jsonschema.Schema{AllOf: []*jsonschema.Schema{inner}}

	sites := discoverOne(t, "S1", schema)

	require.Len(t, sites, 1)
	assert.Equal(t, "$.local_id", sites[0].HostPathTemplate.String())
}

func TestDiscover_DuplicatePrimaryKeySameNameFails(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Properties: map[string]*jsonschema.Schema{
			"a": {Extra: map[string]any{"primary_key": map[string]any{"name": "pk"}}},
			"b": {Extra: map[string]any{"primary_key": map[string]any{"name": "pk"}}},
		},
	}

	_, err := xschema.NewTraverser().Discover(map[xschema.SchemaID]*jsonschema.Schema{"S1": schema})
	require.Error(t, err)
}

func TestDiscover_DuplicatePrimaryKeyAcrossSchemasIsFine(t *testing.T) {
	t.Parallel()

	s1 := &jsonschema.Schema{Extra: map[string]any{"primary_key": map[string]any{"name": "pk"}}}
	s2 := &jsonschema.Schema{Extra: map[string]any{"primary_key": map[string]any{"name": "pk"}}}

	sites, err := xschema.NewTraverser().Discover(map[xschema.SchemaID]*jsonschema.Schema{"S1": s1, "S2": s2})
	require.NoError(t, err)
	assert.Len(t, sites, 2)
}

func TestDiscover_ForeignKeysProduceOneSitePerDeclaration(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Extra: map[string]any{
			"foreign_keys": []any{
				map[string]any{
					"schema_id": "S1/1.0",
					"refers_to": "pk",
					"members":   []any{"ref_local_id", "ref_other_id"},
				},
				map[string]any{
					"members": []any{"other_ref"},
				},
			},
		},
	}

	sites := discoverOne(t, "S2", schema)

	require.Len(t, sites, 2)
	assert.Equal(t, xschema.KindForeignKey, sites[0].Kind)
	assert.Equal(t, xschema.SchemaID("S1/1.0"), sites[0].TargetSchemaID)
	assert.Equal(t, "pk", sites[0].TargetName)
	assert.Equal(t, []string{"ref_local_id", "ref_other_id"}, sites[0].Member.Members)

	assert.Equal(t, xschema.SchemaID(""), sites[1].TargetSchemaID)
	assert.Equal(t, "", sites[1].TargetName)
}

func TestDiscover_ForeignKeysRequireMembersArray(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Extra: map[string]any{
			"foreign_keys": []any{
				map[string]any{"schema_id": "S1"},
			},
		},
	}

	_, err := xschema.NewTraverser().Discover(map[xschema.SchemaID]*jsonschema.Schema{"S2": schema})
	require.Error(t, err)
	assert.ErrorIs(t, err, xschema.ErrInvalidExtensionValue)
}

func TestDiscover_NoExtensionKeywordsYieldsNoSites(t *testing.T) {
	t.Parallel()

	schema := &jsonschema.Schema{
		Properties: map[string]*jsonschema.Schema{
			"local_id": {},
		},
	}

	sites := discoverOne(t, "S1", schema)
	assert.Empty(t, sites)
}
