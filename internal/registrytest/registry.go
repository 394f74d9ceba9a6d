// Package registrytest provides an in-memory npm-compatible registry for tests.
//
//	reg := registrytest.New(t)
//	reg.Add(registrytest.Package{Name: "left-pad", Version: "1.3.0"})
//	client := npm.NewClient(reg.URL(), cache.NewNullCache(), time.Hour)
package registrytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/bonnie/pkg/deps"
)

// Package is one published (name, version).
type Package struct {
	Name            string
	Version         string
	Dependencies    map[string]string
	DevDependencies map[string]string

	// Tarball is served as the archive body. Defaults to "tarball:<name>@<version>".
	Tarball []byte
	// NoTarball publishes the version without a dist.tarball URL.
	NoTarball bool
}

// Registry is a running fake registry. The latest version of a package is
// the one added last.
type Registry struct {
	srv *httptest.Server

	mu       sync.Mutex
	versions map[string]map[string]Package
	latest   map[string]string
	raw      map[string]string
	status   map[string]int

	hits atomic.Int64
}

// New starts a registry that is closed when the test ends.
func New(t testing.TB) *Registry {
	t.Helper()
	reg := &Registry{
		versions: map[string]map[string]Package{},
		latest:   map[string]string{},
		raw:      map[string]string{},
		status:   map[string]int{},
	}
	reg.srv = httptest.NewServer(reg.routes())
	t.Cleanup(reg.srv.Close)
	return reg
}

// URL returns the registry base URL.
func (r *Registry) URL() string { return r.srv.URL }

// Client returns an HTTP client wired to the server.
func (r *Registry) Client() *http.Client { return r.srv.Client() }

// Hits returns the number of requests served.
func (r *Registry) Hits() int64 { return r.hits.Load() }

// Add publishes packages.
func (r *Registry) Add(pkgs ...Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pkgs {
		if r.versions[p.Name] == nil {
			r.versions[p.Name] = map[string]Package{}
		}
		r.versions[p.Name][p.Version] = p
		r.latest[p.Name] = p.Version
	}
}

// SetRaw makes the version document of (name, version) return body verbatim.
func (r *Registry) SetRaw(name, version, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raw[name+"@"+version] = body
}

// Fail makes every request for name (any endpoint) answer with status.
func (r *Registry) Fail(name string, status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[name] = status
}

// TarballURL returns the URL a version document advertises for (name, version).
func (r *Registry) TarballURL(name, version string) string {
	return r.srv.URL + "/-/tarballs/" + url.PathEscape(deps.TarballFileName(name, version))
}

func (r *Registry) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.hits.Add(1)
			next.ServeHTTP(w, req)
		})
	})

	mux.Get("/-/tarballs/{file}", r.handleTarball)
	mux.Get("/{name}/latest", r.handleLatest)
	mux.Get("/{name}/{version}", r.handleVersion)
	return mux
}

func (r *Registry) handleLatest(w http.ResponseWriter, req *http.Request) {
	name, ok := r.param(w, req, "name")
	if !ok {
		return
	}
	r.mu.Lock()
	version, found := r.latest[name]
	r.mu.Unlock()
	if !found {
		http.NotFound(w, req)
		return
	}
	r.writeVersion(w, req, name, version)
}

func (r *Registry) handleVersion(w http.ResponseWriter, req *http.Request) {
	name, ok := r.param(w, req, "name")
	if !ok {
		return
	}
	r.writeVersion(w, req, name, chi.URLParam(req, "version"))
}

func (r *Registry) writeVersion(w http.ResponseWriter, req *http.Request, name, version string) {
	r.mu.Lock()
	raw, hasRaw := r.raw[name+"@"+version]
	pkg, found := r.versions[name][version]
	r.mu.Unlock()

	if hasRaw {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, raw)
		return
	}
	if !found {
		http.NotFound(w, req)
		return
	}

	doc := map[string]any{
		"name":            pkg.Name,
		"version":         pkg.Version,
		"dependencies":    pkg.Dependencies,
		"devDependencies": pkg.DevDependencies,
	}
	if !pkg.NoTarball {
		doc["dist"] = map[string]string{"tarball": r.TarballURL(pkg.Name, pkg.Version)}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}

func (r *Registry) handleTarball(w http.ResponseWriter, req *http.Request) {
	file, err := url.PathUnescape(chi.URLParam(req, "file"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, versions := range r.versions {
		for version, pkg := range versions {
			if pkg.NoTarball || deps.TarballFileName(name, version) != file {
				continue
			}
			if code := r.status[name]; code != 0 {
				w.WriteHeader(code)
				return
			}
			body := pkg.Tarball
			if body == nil {
				body = []byte("tarball:" + name + "@" + version)
			}
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(body)
			return
		}
	}
	http.NotFound(w, req)
}

func (r *Registry) param(w http.ResponseWriter, req *http.Request, key string) (string, bool) {
	v, err := url.PathUnescape(chi.URLParam(req, key))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	r.mu.Lock()
	code := r.status[v]
	r.mu.Unlock()
	if code != 0 {
		w.WriteHeader(code)
		return "", false
	}
	return v, true
}
