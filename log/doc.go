// Package log provides structured logging handler construction for use with
// [log/slog].
//
// It supports multiple output formats ([FormatJSON], [FormatLogfmt], and
// [FormatText]) and severity levels ([LevelError], [LevelWarn], [LevelInfo],
// and [LevelDebug]). Use [NewHandler] to create a handler directly, or use
// [Config] with CLI flag integration via [github.com/spf13/pflag] and shell
// completion support via [github.com/spf13/cobra].
//
// Typical usage creates a [Config], registers flags, then builds a handler
// at startup:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
//
// A [Publisher] fans out log output to multiple subscribers. The validator
// CLI logs each finding through a separate JSON handler that writes only
// into a Publisher, tallies the records from a subscription, and then
// appends a run summary (counts per error kind) to its stderr log:
//
//	pub := log.NewPublisher()
//	sub := pub.Subscribe()
//	tally := slog.New(log.NewHandler(pub, log.LevelInfo, log.FormatJSON))
//
//	go collectRunSummary(sub.C())
package log
