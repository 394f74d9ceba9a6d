// Package pkg provides the core libraries of the bonnie package installer.
//
// # Overview
//
// An install moves through five libraries:
//
//	npm registry
//	     ↓
//	[integrations/npm] (version documents and tarballs, cached)
//	     ↓
//	[deps] (normalize constraints, resolve two levels)
//	     ↓
//	[download] (parallel tarball download, partial success)
//	     ↓
//	[project] (record the seed in bonnie.toml)
//
// [pipeline] runs these phases for a list of seeds and appends the result to
// a [history] store. Supporting packages:
//
//   - [cache]: file, Redis and null response caches plus retry helpers
//   - [errors]: structured error codes shared by every package
//   - [observability]: hooks for resolve, download, cache and HTTP events
//   - [render]: Graphviz diagrams of a resolution
//   - [scripts]: bonnie.toml script lookup, templating and execution
//   - [buildinfo]: version information set at link time
//
// # Quick Start
//
//	client := npm.NewClient(npm.DefaultRegistry, cache.NewNullCache(), cache.TTLRegistry)
//	inst := pipeline.New(client, pipeline.Options{ConfigPath: "bonnie.toml"})
//	report, err := inst.Install(ctx, pipeline.SeedsFromArgs([]string{"left-pad"}))
package pkg
