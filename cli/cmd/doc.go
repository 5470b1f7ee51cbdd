// Package cmd implements the scopemap subcommands.
//
// Every command that reads documents loads the sources named by --source
// into a scope chain: each source becomes the parent of the one after it,
// and the command operates on the innermost scope.
package cmd

//nolint:gochecknoglobals
var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the YAML configuration file. It also names the section of that file
	// holding flag values.
	ConfigIdentifier = "config"
)
