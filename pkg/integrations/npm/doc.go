// Package npm provides a client for npm-compatible package registries.
//
// # Overview
//
// The client talks to any registry that serves the npm version-document API
// (https://registry.npmjs.org, Verdaccio, Artifactory, GitHub Packages):
//
//	GET {registry}/{name}/latest      version document of the latest release
//	GET {registry}/{name}/{version}   version document of one release
//
// Scoped names are sent as "@scope%2Fname".
//
// # Usage
//
//	client := npm.NewClient(npm.DefaultRegistry, cache.NewNullCache(), 24*time.Hour)
//	name, version, err := client.LatestVersion(ctx, "left-pad")
//	manifest, err := client.Manifest(ctx, name, version)
//	loc, err := client.TarballLocation(ctx, name, version)
//	n, err := client.FetchTarball(ctx, loc.URL, file)
//
// # Caching
//
// Version documents are cached under a key scoped to the registry host.
// [Client.SetRefresh] bypasses cached entries. Tarballs are never cached.
//
// # Errors
//
// Unknown packages or versions, and versions without a dist.tarball, wrap
// [errors.ErrNotFound]. Malformed documents wrap [errors.ErrParse].
// Transport failures, timeouts and 5xx responses wrap [errors.ErrNetwork] and
// are retried with backoff.
//
// [errors.ErrNotFound]: github.com/matzehuels/bonnie/pkg/errors.ErrNotFound
// [errors.ErrParse]: github.com/matzehuels/bonnie/pkg/errors.ErrParse
// [errors.ErrNetwork]: github.com/matzehuels/bonnie/pkg/errors.ErrNetwork
package npm
