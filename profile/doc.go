// Package profile provides optional runtime profiling for the scopemap
// command.
//
// Profiling is backed by [github.com/pkg/profile] and compiled in only when
// building with the "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Config.Start] always returns a no-op handle, [Modes]
// returns nil, and the command hides its profiling flags.
//
// # Modes
//
//   - allocs:    memory allocation profiling (all allocations)
//   - block:     block (synchronization) profiling
//   - clock:     wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: goroutine profiling
//   - heap:      heap profiling (live allocations)
//   - mem:       general memory profiling
//   - mutex:     mutex contention profiling
//   - thread:    thread creation profiling
//   - trace:     execution trace
//
// # Usage
//
//	p := profile.Make(
//		profile.WithMode("cpu"),
//		profile.WithPath("/tmp/profiles"),
//	).Start()
//	defer p.Stop()
//
// From the command line:
//
//	scopemap --pprof-mode cpu --pprof-dir ./profiles get name -s vars.yaml
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// The default output directory is the "pprof" directory under the user
// cache directory, for example $XDG_CACHE_HOME/scopemap/pprof.
//
// Building with the tag also imports [net/http/pprof], registering its
// handlers on [net/http.DefaultServeMux].
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
