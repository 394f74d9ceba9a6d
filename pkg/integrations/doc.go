// Package integrations provides the shared HTTP layer for package registry
// clients.
//
// # Overview
//
// Registry-specific clients live in subpackages:
//
//   - [npm]: npm-compatible registries (registry.npmjs.org, Verdaccio, mirrors)
//
// # Shared Infrastructure
//
// [Client] wraps an [http.Client] with:
//   - response caching through [cache.Cache], keyed per registry host
//   - bounded retry with exponential backoff for transport failures and 5xx
//   - status mapping to the sentinel errors in pkg/errors (404 is NotFound,
//     5xx and transport failures are Network, undecodable bodies are Parse)
//   - request and response events through the observability HTTP hooks
//
// [npm]: github.com/matzehuels/bonnie/pkg/integrations/npm
// [cache.Cache]: github.com/matzehuels/bonnie/pkg/cache.Cache
package integrations
