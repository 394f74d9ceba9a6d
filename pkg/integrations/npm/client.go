package npm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/bonnie/pkg/buildinfo"
	"github.com/matzehuels/bonnie/pkg/cache"
	"github.com/matzehuels/bonnie/pkg/deps"
	errs "github.com/matzehuels/bonnie/pkg/errors"
	"github.com/matzehuels/bonnie/pkg/integrations"
)

// DefaultRegistry is the public npm registry.
const DefaultRegistry = "https://registry.npmjs.org"

const namespace = "npm"

// latestTag is the dist-tag for the newest release. Its document changes on
// every publish, so it is always fetched from the registry.
const latestTag = "latest"

// Client fetches version documents and tarballs from an npm-compatible
// registry.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a client for the registry at baseURL. Version documents
// are cached in c for ttl; a nil cache disables caching.
func NewClient(baseURL string, c cache.Cache, ttl time.Duration) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		Client: integrations.NewClient(c, integrations.HostKey(baseURL)+":", ttl, map[string]string{
			"Accept":     "application/json",
			"User-Agent": buildinfo.UserAgent(),
		}),
		baseURL: baseURL,
	}
}

// LatestVersion returns the canonical name and latest published version.
// The answer is never served from the cache.
func (c *Client) LatestVersion(ctx context.Context, name string) (string, string, error) {
	doc, err := c.versionDoc(ctx, name, latestTag)
	if err != nil {
		return "", "", err
	}
	if doc.Version == "" {
		return "", "", fmt.Errorf("%w: npm package %s: no version in latest document", errs.ErrParse, name)
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return doc.Name, doc.Version, nil
}

// Manifest returns the dependency tables of (name, version).
func (c *Client) Manifest(ctx context.Context, name, version string) (*deps.Manifest, error) {
	doc, err := c.versionDoc(ctx, name, version)
	if err != nil {
		return nil, err
	}
	return &deps.Manifest{
		Name:            name,
		Version:         version,
		Dependencies:    doc.Dependencies,
		DevDependencies: doc.DevDependencies,
	}, nil
}

// TarballLocation returns where the archive of (name, version) is published.
func (c *Client) TarballLocation(ctx context.Context, name, version string) (deps.TarballLocation, error) {
	doc, err := c.versionDoc(ctx, name, version)
	if err != nil {
		return deps.TarballLocation{}, err
	}
	if doc.Dist.Tarball == "" {
		return deps.TarballLocation{}, fmt.Errorf("%w: npm package %s@%s has no tarball", errs.ErrNotFound, name, version)
	}
	return deps.TarballLocation{
		URL:      doc.Dist.Tarball,
		FileName: deps.TarballFileName(name, version),
	}, nil
}

// FetchTarball streams the archive at url into w.
func (c *Client) FetchTarball(ctx context.Context, tarballURL string, w io.Writer) (int64, error) {
	n, err := c.Stream(ctx, tarballURL, w)
	if errors.Is(err, errs.ErrNotFound) {
		return n, fmt.Errorf("%w: tarball %s", err, tarballURL)
	}
	return n, err
}

func (c *Client) versionDoc(ctx context.Context, name, version string) (*versionDocument, error) {
	if err := errs.ValidatePackageName(name); err != nil {
		return nil, err
	}
	if err := errs.ValidateVersion(version); err != nil {
		return nil, fmt.Errorf("npm package %s: %w", name, err)
	}

	endpoint := c.baseURL + "/" + integrations.EscapePackageName(name) + "/" + url.PathEscape(version)
	var doc versionDocument
	fetch := func() error { return c.Get(ctx, endpoint, &doc) }
	var err error
	if version == latestTag {
		err = c.Uncached(ctx, fetch)
	} else {
		err = c.Cached(ctx, namespace, name+"@"+version, &doc, fetch)
	}
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: npm package %s@%s", err, name, version)
		}
		return nil, err
	}
	return &doc, nil
}

type versionDocument struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
	Dist            dist              `json:"dist"`
}

type dist struct {
	Tarball string `json:"tarball"`
}
