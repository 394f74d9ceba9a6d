package npm

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/matzehuels/bonnie/internal/registrytest"
	"github.com/matzehuels/bonnie/pkg/cache"
	errs "github.com/matzehuels/bonnie/pkg/errors"
)

func newTestClient(t *testing.T, reg *registrytest.Registry, c cache.Cache) *Client {
	t.Helper()
	client := NewClient(reg.URL()+"/", c, time.Hour)
	client.SetHTTPClient(reg.Client())
	client.SetRetry(3, time.Millisecond)
	return client
}

func TestLatestVersion(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(
		registrytest.Package{Name: "left-pad", Version: "1.2.0"},
		registrytest.Package{Name: "left-pad", Version: "1.3.0"},
	)
	client := newTestClient(t, reg, nil)

	name, version, err := client.LatestVersion(context.Background(), "left-pad")
	if err != nil {
		t.Fatalf("LatestVersion() error: %v", err)
	}
	if name != "left-pad" || version != "1.3.0" {
		t.Errorf("LatestVersion() = %s@%s, want left-pad@1.3.0", name, version)
	}
}

func TestLatestVersionSeesNewPublish(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{Name: "left-pad", Version: "1.3.0"})

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := newTestClient(t, reg, c)
	ctx := context.Background()

	if _, v, err := client.LatestVersion(ctx, "left-pad"); err != nil || v != "1.3.0" {
		t.Fatalf("LatestVersion() = %q, %v; want 1.3.0", v, err)
	}
	reg.Add(registrytest.Package{Name: "left-pad", Version: "1.4.0"})
	if _, v, err := client.LatestVersion(ctx, "left-pad"); err != nil || v != "1.4.0" {
		t.Errorf("LatestVersion() after publish = %q, %v; want 1.4.0", v, err)
	}
	if reg.Hits() != 2 {
		t.Errorf("hits = %d, want 2 (latest is never cached)", reg.Hits())
	}

	// Concrete versions are still cached.
	for range 2 {
		if _, err := client.Manifest(ctx, "left-pad", "1.4.0"); err != nil {
			t.Fatalf("Manifest() error: %v", err)
		}
	}
	if reg.Hits() != 3 {
		t.Errorf("hits = %d, want 3", reg.Hits())
	}
}

func TestLatestVersionErrors(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{Name: "flaky", Version: "1.0.0"})
	reg.Fail("flaky", http.StatusBadGateway)
	client := newTestClient(t, reg, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		pkg     string
		wantErr error
		code    errs.Code
	}{
		{"unknown package", "ghost", errs.ErrNotFound, errs.ErrCodeNotFound},
		{"server error", "flaky", errs.ErrNetwork, errs.ErrCodeNetwork},
		{"invalid name", "../etc", nil, errs.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := client.LatestVersion(ctx, tt.pkg)
			if err == nil {
				t.Fatal("LatestVersion() should fail")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !errs.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", errs.GetCode(err), tt.code)
			}
		})
	}
}

func TestNotFoundIsNotRetried(t *testing.T) {
	reg := registrytest.New(t)
	client := newTestClient(t, reg, nil)

	_, _, err := client.LatestVersion(context.Background(), "ghost")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if reg.Hits() != 1 {
		t.Errorf("hits = %d, want 1", reg.Hits())
	}
}

func TestServerErrorIsRetried(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{Name: "flaky", Version: "1.0.0"})
	reg.Fail("flaky", http.StatusServiceUnavailable)
	client := newTestClient(t, reg, nil)

	_, _, err := client.LatestVersion(context.Background(), "flaky")
	if !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
	if reg.Hits() != 3 {
		t.Errorf("hits = %d, want 3", reg.Hits())
	}
}

func TestManifest(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{
		Name:            "left-pad",
		Version:         "1.3.0",
		Dependencies:    map[string]string{"pad-core": "~1.0.0"},
		DevDependencies: map[string]string{"tap": "^12.0.0"},
	})
	client := newTestClient(t, reg, nil)

	m, err := client.Manifest(context.Background(), "left-pad", "1.3.0")
	if err != nil {
		t.Fatalf("Manifest() error: %v", err)
	}
	if m.Dependencies["pad-core"] != "~1.0.0" {
		t.Errorf("Dependencies = %v", m.Dependencies)
	}
	if m.DevDependencies["tap"] != "^12.0.0" {
		t.Errorf("DevDependencies = %v", m.DevDependencies)
	}

	if _, err := client.Manifest(context.Background(), "left-pad", "9.9.9"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing version error = %v, want ErrNotFound", err)
	}
}

func TestManifestMalformed(t *testing.T) {
	reg := registrytest.New(t)
	reg.SetRaw("broken", "1.0.0", `{"name": "broken", "dependencies": [1, 2`)
	client := newTestClient(t, reg, nil)

	_, err := client.Manifest(context.Background(), "broken", "1.0.0")
	if !errors.Is(err, errs.ErrParse) {
		t.Errorf("error = %v, want ErrParse", err)
	}
	if reg.Hits() != 1 {
		t.Errorf("parse errors should not be retried, hits = %d", reg.Hits())
	}
}

func TestManifestScopedName(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{
		Name:         "@types/node",
		Version:      "20.1.0",
		Dependencies: map[string]string{"undici-types": "~5.26.4"},
	})
	client := newTestClient(t, reg, nil)

	m, err := client.Manifest(context.Background(), "@types/node", "20.1.0")
	if err != nil {
		t.Fatalf("Manifest() error: %v", err)
	}
	if m.Dependencies["undici-types"] != "~5.26.4" {
		t.Errorf("Dependencies = %v", m.Dependencies)
	}
}

func TestManifestCached(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{Name: "left-pad", Version: "1.3.0"})

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client := newTestClient(t, reg, c)
	ctx := context.Background()

	for range 3 {
		if _, err := client.Manifest(ctx, "left-pad", "1.3.0"); err != nil {
			t.Fatalf("Manifest() error: %v", err)
		}
	}
	if reg.Hits() != 1 {
		t.Errorf("hits = %d, want 1 (cached)", reg.Hits())
	}

	client.SetRefresh(true)
	if _, err := client.Manifest(ctx, "left-pad", "1.3.0"); err != nil {
		t.Fatalf("Manifest() error: %v", err)
	}
	if reg.Hits() != 2 {
		t.Errorf("hits = %d, want 2 after refresh", reg.Hits())
	}
}

func TestTarballLocation(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(
		registrytest.Package{Name: "left-pad", Version: "1.3.0"},
		registrytest.Package{Name: "unpublished", Version: "0.1.0", NoTarball: true},
	)
	client := newTestClient(t, reg, nil)
	ctx := context.Background()

	loc, err := client.TarballLocation(ctx, "left-pad", "1.3.0")
	if err != nil {
		t.Fatalf("TarballLocation() error: %v", err)
	}
	if loc.URL != reg.TarballURL("left-pad", "1.3.0") {
		t.Errorf("URL = %q", loc.URL)
	}
	if loc.FileName != "left-pad/1.3.0.tgz" {
		t.Errorf("FileName = %q", loc.FileName)
	}

	if _, err := client.TarballLocation(ctx, "unpublished", "0.1.0"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing tarball error = %v, want ErrNotFound", err)
	}
}

func TestFetchTarball(t *testing.T) {
	reg := registrytest.New(t)
	reg.Add(registrytest.Package{Name: "left-pad", Version: "1.3.0", Tarball: []byte("archive")})
	client := newTestClient(t, reg, nil)

	var buf bytes.Buffer
	n, err := client.FetchTarball(context.Background(), reg.TarballURL("left-pad", "1.3.0"), &buf)
	if err != nil {
		t.Fatalf("FetchTarball() error: %v", err)
	}
	if n != 7 || buf.String() != "archive" {
		t.Errorf("FetchTarball() = %d %q", n, buf.String())
	}

	_, err = client.FetchTarball(context.Background(), reg.TarballURL("ghost", "1.0.0"), &buf)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
