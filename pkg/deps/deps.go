package deps

import (
	"context"

	"github.com/charmbracelet/log"
)

// DefaultWorkers bounds concurrent registry requests per phase.
const DefaultWorkers = 8

// PackageSpec identifies one package in an install.
type PackageSpec struct {
	Name       string // Registry-unique package name
	Constraint string // Version requirement as written (may be empty)
	Version    string // Concrete version token after normalization
}

// String returns "name@version".
func (s PackageSpec) String() string { return s.Name + "@" + s.Version }

// Manifest is the registry metadata of one (name, version).
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`    // name -> constraint
	DevDependencies map[string]string `json:"devDependencies,omitempty"` // name -> constraint
}

// TarballLocation is where the archive for one (name, version) lives and the
// local file name it is saved under.
type TarballLocation struct {
	URL      string
	FileName string
}

// TarballFileName returns the slash-separated local archive path for
// (name, version), relative to the packages directory. The package name is
// kept as directory components, the way node_modules lays out scopes, so
// "@types/node" at "20.1.0" becomes "@types/node/20.1.0.tgz" and never
// collides with "types-node". Callers validate versions so they never
// contain a slash, which keeps the mapping one-to-one.
func TarballFileName(name, version string) string {
	return name + "/" + version + ".tgz"
}

// ManifestSource fetches registry manifests.
type ManifestSource interface {
	Manifest(ctx context.Context, name, version string) (*Manifest, error)
}

// Options configures a [Resolver].
type Options struct {
	Workers int         // Concurrent manifest fetches (default: 8)
	Logger  *log.Logger // Progress and failure logging (default: log.Default())
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Failure records a package whose manifest could not be fetched.
type Failure struct {
	Spec PackageSpec
	Err  error
}

func (f Failure) Error() string { return f.Spec.String() + ": " + f.Err.Error() }

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error { return f.Err }

// Edge is a parent -> child relation discovered while resolving.
type Edge struct {
	From string
	To   string
}

// Resolution is the result of resolving one seed.
type Resolution struct {
	Seed     PackageSpec
	Deps     *DependencyMap
	Edges    []Edge
	Failures []Failure
}
