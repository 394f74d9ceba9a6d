package deps

import (
	"maps"
	"slices"
	"sync"
)

// DependencyMap maps package names to resolved versions.
// Writes overwrite (last write wins) and entries are never removed. All
// methods are safe for concurrent use.
type DependencyMap struct {
	mu sync.Mutex
	m  map[string]string
}

// NewDependencyMap returns an empty map.
func NewDependencyMap() *DependencyMap {
	return &DependencyMap{m: make(map[string]string)}
}

// Set records name at version, replacing any earlier version.
func (d *DependencyMap) Set(name, version string) {
	d.mu.Lock()
	d.m[name] = version
	d.mu.Unlock()
}

// Merge normalizes every constraint in deps and writes it in name order.
func (d *DependencyMap) Merge(deps map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, name := range slices.Sorted(maps.Keys(deps)) {
		d.m[name] = Normalize(deps[name])
	}
}

// Get returns the version recorded for name.
func (d *DependencyMap) Get(name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.m[name]
	return v, ok
}

// Len returns the number of entries.
func (d *DependencyMap) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.m)
}

// Specs returns a snapshot of the entries sorted by name.
func (d *DependencyMap) Specs() []PackageSpec {
	d.mu.Lock()
	defer d.mu.Unlock()
	specs := make([]PackageSpec, 0, len(d.m))
	for _, name := range slices.Sorted(maps.Keys(d.m)) {
		specs = append(specs, PackageSpec{Name: name, Version: d.m[name]})
	}
	return specs
}

// Map returns a copy of the entries.
func (d *DependencyMap) Map() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return maps.Clone(d.m)
}
