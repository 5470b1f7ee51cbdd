// Package cli contains the command line interface for scopemap.
//
// # Usage
//
//	scopemap [flags] -s base.yaml -s override.json <command>
//
// Each --source document is loaded into a scope whose parent is the scope
// of the document before it, so later documents override earlier ones and
// commands operate on the last. Documents may be YAML, JSON or bencode,
// chosen by file extension; '-' reads YAML from stdin and is always loaded
// last.
//
// # Configuration
//
// Flag defaults are read from two files in the user configuration
// directory (for example ~/.config/scopemap):
//
//   - config.json, in Kong's JSON format
//   - config.yaml, decoded into a scope; keys under a top-level "config"
//     mapping override keys at the top level
//
// YAML keys may spell flag names with hyphens or underscores:
//
//	config:
//	  log_level: debug
//	  log-pretty: true
//
// Command-line flags override config file values. The init command writes
// config.yaml from the current flag values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, none, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o scopemap .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default ~/.cache/scopemap/pprof)
package cli
