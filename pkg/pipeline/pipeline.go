// Package pipeline runs installs.
//
// An install is driven by a list of seeds. A seed is a package name plus
// where it came from: a command-line argument or the dependencies table of
// bonnie.toml. Both kinds go through the same phases:
//
//  1. Version: argument seeds ask the registry for the latest version;
//     manifest seeds use their normalized constraint.
//  2. Resolve: direct dependencies plus one expansion hop ([deps.Resolver]).
//  3. Download: every resolved package and the seed itself ([download.Downloader]).
//  4. Record: argument seeds whose own tarball downloaded are written to
//     bonnie.toml.
//
// Seeds run one after another; the work inside a phase runs in parallel.
// Failures for a single package or seed are collected in the [Report] and
// the install continues. Only a failure to update bonnie.toml stops it.
//
// # Usage
//
//	inst := pipeline.New(client, pipeline.Options{ConfigPath: "bonnie.toml"})
//	report, err := inst.Install(ctx, pipeline.SeedsFromArgs([]string{"left-pad"}))
package pipeline

import (
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/bonnie/pkg/project"
)

// Origin tells where a seed came from.
type Origin int

const (
	// FromArgument seeds were named on the command line. They resolve to the
	// latest version and are recorded in bonnie.toml.
	FromArgument Origin = iota
	// FromManifest seeds come from the dependencies table and use its
	// constraint. They are never written back.
	FromManifest
)

func (o Origin) String() string {
	if o == FromManifest {
		return "manifest"
	}
	return "argument"
}

// Seed is a top-level package to install.
type Seed struct {
	Name       string
	Constraint string
	Origin     Origin
}

// SeedsFromArgs turns command-line names into seeds. Blank names are
// skipped and duplicates keep their first position.
func SeedsFromArgs(names []string) []Seed {
	seen := map[string]bool{}
	var seeds []Seed
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		seeds = append(seeds, Seed{Name: n, Origin: FromArgument})
	}
	return seeds
}

// SeedsFromDocument turns the document's dependencies into seeds, sorted by
// name.
func SeedsFromDocument(doc *project.Document) []Seed {
	seeds := make([]Seed, 0, len(doc.Dependencies))
	for _, name := range slices.Sorted(maps.Keys(doc.Dependencies)) {
		seeds = append(seeds, Seed{Name: name, Constraint: doc.Dependencies[name], Origin: FromManifest})
	}
	return seeds
}
