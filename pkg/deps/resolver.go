package deps

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Resolver builds the dependency map for a seed package.
type Resolver struct {
	source ManifestSource
	opts   Options
}

// NewResolver creates a Resolver that reads manifests from source.
func NewResolver(source ManifestSource, opts Options) *Resolver {
	return &Resolver{source: source, opts: opts.WithDefaults()}
}

// CollectDependencies fetches the manifest of (name, version) and returns
// its dependencies and devDependencies as one normalized map. devDependencies
// are written second, so a name present in both tables ends with the dev
// constraint. An error fetching this manifest is returned to the caller.
func (r *Resolver) CollectDependencies(ctx context.Context, name, version string) (*DependencyMap, error) {
	m, err := r.source.Manifest(ctx, name, version)
	if err != nil {
		return nil, fmt.Errorf("manifest %s@%s: %w", name, version, err)
	}
	deps := NewDependencyMap()
	deps.Merge(m.Dependencies)
	deps.Merge(m.DevDependencies)
	return deps, nil
}

// ExpandOneLevel fetches the manifest of every entry currently in m and
// merges each one's dependencies into m. Manifests are fetched concurrently;
// merging happens after all fetches finish, in name order of the parent.
// Entries added by the merge are not expanded. Failed fetches are logged and
// returned; they never abort the expansion. An entry whose manifest failed
// stays in m, since the map never loses entries, and is still downloaded
// with the rest.
func (r *Resolver) ExpandOneLevel(ctx context.Context, m *DependencyMap) (*DependencyMap, []Failure) {
	_, failures := r.expand(ctx, m)
	return m, failures
}

// Resolve runs CollectDependencies for seed followed by ExpandOneLevel.
func (r *Resolver) Resolve(ctx context.Context, seed PackageSpec) (*Resolution, error) {
	deps, err := r.CollectDependencies(ctx, seed.Name, seed.Version)
	if err != nil {
		return nil, err
	}

	res := &Resolution{Seed: seed, Deps: deps}
	for _, s := range deps.Specs() {
		res.Edges = append(res.Edges, Edge{From: seed.Name, To: s.Name})
	}

	children, failures := r.expand(ctx, deps)
	res.Failures = failures
	for _, c := range children {
		for _, child := range slices.Sorted(maps.Keys(c.deps)) {
			res.Edges = append(res.Edges, Edge{From: c.parent, To: child})
		}
	}
	return res, nil
}

type expansion struct {
	parent string
	deps   map[string]string
}

func (r *Resolver) expand(ctx context.Context, m *DependencyMap) ([]expansion, []Failure) {
	specs := m.Specs()
	manifests := make([]*Manifest, len(specs))
	errs := make([]error, len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, s := range specs {
		g.Go(func() error {
			mf, err := r.source.Manifest(gctx, s.Name, s.Version)
			if err != nil {
				errs[i] = err
				return nil
			}
			manifests[i] = mf
			return nil
		})
	}
	_ = g.Wait()

	var (
		out      []expansion
		failures []Failure
	)
	for i, s := range specs {
		if errs[i] != nil {
			r.opts.Logger.Warn("skipping dependencies", "package", s.Name, "version", s.Version, "error", errs[i])
			failures = append(failures, Failure{Spec: s, Err: errs[i]})
			continue
		}
		m.Merge(manifests[i].Dependencies)
		if len(manifests[i].Dependencies) > 0 {
			out = append(out, expansion{parent: s.Name, deps: manifests[i].Dependencies})
		}
		r.opts.Logger.Debug("expanded", "package", s.Name, "children", len(manifests[i].Dependencies))
	}
	return out, failures
}
