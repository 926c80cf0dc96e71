// Package main provides the CLI entry point for xschema, an extended
// JSON Schema validator that adds cross-document relational constraints
// (unique, primary_key, index, foreign_keys, join_keys) on top of
// standard JSON Schema validation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"go.crossdoc.dev/xschema"
	"go.crossdoc.dev/xschema/cache"
	xlog "go.crossdoc.dev/xschema/log"
	"go.crossdoc.dev/xschema/profile"
	"go.crossdoc.dev/xschema/provider"
	"go.crossdoc.dev/xschema/version"
	"go.crossdoc.dev/xschema/xyaml"
)

type options struct {
	schemaDirs   []string
	instanceDirs []string
	configFile   string
	output       string

	core    *xschema.Config
	log     *xlog.Config
	profile *profile.Config
}

func main() {
	opts := &options{
		core:    xschema.NewConfig(),
		log:     xlog.NewConfig(),
		profile: profile.NewConfig(),
	}

	rootCmd := &cobra.Command{
		Use:   "xschema [flags]",
		Short: "Validate a corpus of JSON/YAML documents against extended JSON Schemas",
		Long: `xschema augments standard JSON Schema with relational constraints that span
an entire corpus of documents: unique, primary_key, index, foreign_keys, and
join_keys.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       version.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	rootCmd.Flags().StringSliceVar(&opts.schemaDirs, "schema-dir", nil, "directory to recursively load schemas from (repeatable)")
	rootCmd.Flags().StringSliceVar(&opts.instanceDirs, "instance-dir", nil, "directory to recursively load instances from (repeatable)")
	rootCmd.Flags().StringVar(&opts.configFile, "config", "", "path to a YAML configuration file (primary_key section)")
	rootCmd.Flags().StringVar(&opts.output, "output", "-", "report output path, or - for stdout")

	opts.core.RegisterFlags(rootCmd.Flags())
	opts.log.RegisterFlags(rootCmd.Flags())
	opts.profile.RegisterFlags(rootCmd.Flags())

	for _, register := range []func(*cobra.Command) error{
		opts.core.RegisterCompletions,
		opts.log.RegisterCompletions,
		opts.profile.RegisterCompletions,
	} {
		if err := register(rootCmd); err != nil {
			fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
}

func run(ctx context.Context, opts *options) error {
	handler, err := opts.log.NewHandler(os.Stderr)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	profiler := opts.profile.NewProfiler()
	if err := profiler.Start(); err != nil {
		return fmt.Errorf("starting profiler: %w", err)
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			logger.Error("stopping profiler", "error", err)
		}
	}()

	store := xschema.NewDocumentStore()

	for _, dir := range opts.schemaDirs {
		for _, e := range xschema.LoadSchemas(store, dir) {
			logger.Warn("schema load error", "document_uri", e.DocumentURI, "message", e.Message)
		}
	}
	for _, dir := range opts.instanceDirs {
		for _, e := range xschema.LoadInstances(store, dir) {
			logger.Warn("instance load error", "document_uri", e.DocumentURI, "message", e.Message)
		}
	}

	sites, err := xschema.NewTraverser().Discover(store.Schemas())
	if err != nil {
		return fmt.Errorf("discovering extension sites: %w", err)
	}

	v := xschema.NewValidator(store, sites, xschema.NewStdValidator(store))

	if opts.configFile != "" {
		runCfg, err := xyaml.LoadRunConfig(opts.configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		v.ExternalPK = &xschema.ExternalPrimaryKeyConfig{
			InlineProvider:          convertInlineProvider(runCfg.PrimaryKey.InlineProvider),
			ProviderPrefixes:        runCfg.PrimaryKey.Provider,
			AllowProviderDuplicates: runCfg.PrimaryKey.AllowProviderDuplicates,
			SchemaPrefix:            runCfg.PrimaryKey.SchemaPrefix,
			Accept:                  runCfg.PrimaryKey.Accept,
		}
	}

	if opts.core.CacheDir != "" {
		cacheStore, err := cache.Open(opts.core.CacheDir)
		if err != nil {
			return fmt.Errorf("opening key cache: %w", err)
		}
		if xschema.CachePolicy(opts.core.CachePolicy) == xschema.CacheInvalidate {
			cacheStore.Invalidate()
		}
		v.Cache = cacheStore
	}
	v.Fetcher = provider.New(opts.core.Concurrency)

	report, err := v.Run(ctx, opts.core)
	if err != nil {
		return fmt.Errorf("running validator: %w", err)
	}

	logSummary(logger, report)

	if err := writeReport(opts.output, report); err != nil {
		return err
	}

	if !report.Valid() {
		os.Exit(1)
	}

	return nil
}

// logSummary fans the run's findings through a [xlog.Publisher] and appends
// a scripting-friendly "counts per error kind" record to logger once the
// fan-out drains. The publisher decouples tallying from report assembly the
// same way a second log sink would in a long-running service.
func logSummary(logger *slog.Logger, report *xschema.Report) {
	total := 0
	for _, d := range report.Documents {
		total += len(d.Errors)
	}
	// Room for every finding, so the publisher's ring buffer never drops one
	// before the tally goroutine has read it.
	pub := xlog.NewPublisher(xlog.WithBufferSize(total))
	sub := pub.Subscribe()

	tallyHandler := slog.NewJSONHandler(pub, &slog.HandlerOptions{Level: slog.LevelDebug})
	tallyLogger := slog.New(tallyHandler)

	done := make(chan map[string]int)
	go func() {
		counts := map[string]int{}
		for b := range sub.C() {
			var rec struct {
				Kind string `json:"kind"`
			}
			if err := json.Unmarshal(b, &rec); err == nil && rec.Kind != "" {
				counts[rec.Kind]++
			}
		}
		done <- counts
	}()

	for _, d := range report.Documents {
		for _, e := range d.Errors {
			tallyLogger.Info("finding", "kind", string(e.Kind))
		}
	}
	pub.Close()
	counts := <-done

	if len(counts) == 0 {
		return
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}

	logger.Info("run summary", "counts", strings.Join(parts, " "))
}

func convertInlineProvider(m map[string][]string) map[xschema.SchemaID][]string {
	if m == nil {
		return nil
	}
	out := make(map[xschema.SchemaID][]string, len(m))
	for k, v := range m {
		out[xschema.SchemaID(k)] = v
	}

	return out
}

func writeReport(path string, report *xschema.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)

		return err
	}

	return os.WriteFile(path, data, 0o644)
}
