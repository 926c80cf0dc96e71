package xschema

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CachePolicy selects one of the Key Cache's four operating modes (spec
// §4.G).
type CachePolicy string

const (
	CacheWarmUp    CachePolicy = "warm-up"
	CacheLazyLoad  CachePolicy = "lazy-load"
	CacheReadOnly  CachePolicy = "read-only"
	CacheInvalidate CachePolicy = "invalidate"
)

// GetAllCachePolicyStrings returns the accepted CachePolicy values, for
// flag help text and completion.
func GetAllCachePolicyStrings() []string {
	return []string{string(CacheWarmUp), string(CacheLazyLoad), string(CacheReadOnly), string(CacheInvalidate)}
}

// Flags holds CLI flag names for the validator core, mirroring the
// pattern used by [go.crossdoc.dev/xschema/log.Flags].
type Flags struct {
	ContinueOnError string
	GuessSchema     string
	UseSchemas      string
	SchemaIDPath    string
	CachePolicy     string
	CacheDir        string
	Concurrency     string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:        f,
		SchemaIDPath: []string{"@schema", "_schema", "$schema"},
		CachePolicy:  string(CacheLazyLoad),
		Concurrency:  8,
	}
}

// Config holds run configuration for the [Validator] (spec §4.F): cache
// policy, continue-on-error, schema pairing strategy, and concurrency.
type Config struct {
	ContinueOnError bool
	GuessSchema     bool
	UseSchemas      []string
	SchemaIDPath    []string
	CachePolicy     string
	CacheDir        string
	Concurrency     int
	Flags           Flags
}

// NewConfig returns a new [Config] with default flag names and values.
func NewConfig() *Config {
	f := Flags{
		ContinueOnError: "continue-on-error",
		GuessSchema:     "guess-schema",
		UseSchemas:      "use-schemas",
		SchemaIDPath:    "schema-id-path",
		CachePolicy:     "cache-policy",
		CacheDir:        "cache-dir",
		Concurrency:     "concurrency",
	}

	return f.NewConfig()
}

// RegisterFlags adds validator-core flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.BoolVar(&c.ContinueOnError, c.Flags.ContinueOnError, c.ContinueOnError,
		"accumulate all errors instead of stopping at the first")
	flags.BoolVar(&c.GuessSchema, c.Flags.GuessSchema, c.GuessSchema,
		"pair each instance with every schema it validates against, instead of requiring an explicit schema id")
	flags.StringSliceVar(&c.UseSchemas, c.Flags.UseSchemas, c.UseSchemas,
		"restrict schema pairing candidates to this list of schema ids")
	flags.StringSliceVar(&c.SchemaIDPath, c.Flags.SchemaIDPath, c.SchemaIDPath,
		"instance keys tried in order to extract a schema id")
	flags.StringVar(&c.CachePolicy, c.Flags.CachePolicy, c.CachePolicy,
		fmt.Sprintf("key cache mode, one of: %s", GetAllCachePolicyStrings()))
	flags.StringVar(&c.CacheDir, c.Flags.CacheDir, c.CacheDir,
		"directory backing the key cache (created if absent)")
	flags.IntVar(&c.Concurrency, c.Flags.Concurrency, c.Concurrency,
		"bound on concurrent phase-1 workers and provider HTTP requests")
}

// RegisterCompletions registers shell completions for validator-core
// flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.CachePolicy,
		cobra.FixedCompletions(GetAllCachePolicyStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering cache-policy completion: %w", err)
	}

	return nil
}
