// Package profile adds runtime profiling capabilities to the xschema CLI.
//
// It supports CPU, heap, allocs, goroutine, threadcreate, block, and mutex
// profiles through command-line flags. Use [Config.RegisterFlags] to add CLI
// flags and [Config.RegisterCompletions] to wire up shell completions.
//
// xschema creates a [Config] in main, registers its flags alongside the
// validator's own, and wraps the validation run with a [Profiler]:
//
//	opts.profile = profile.NewConfig()
//	opts.profile.RegisterFlags(rootCmd.Flags())
//
//	profiler := opts.profile.NewProfiler()
//	if err := profiler.Start(); err != nil {
//	    return err
//	}
//	defer profiler.Stop()
//
// A run validating a large corpus enables CPU profiling with
// --cpu-profile=cpu.prof to find hot spots in phase 1's per-instance checks
// or phase 2's cross-document resolution.
package profile
