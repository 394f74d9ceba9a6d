// Package deps resolves the set of packages an install needs.
//
// # Overview
//
// Resolution is deliberately shallow. Starting from a seed (name, version):
//
//  1. [Resolver.CollectDependencies] fetches the seed's manifest and returns
//     the union of its dependencies and devDependencies, each constraint
//     reduced to a version token by [Normalize].
//  2. [Resolver.ExpandOneLevel] fetches the manifest of every entry collected
//     so far and merges those packages' dependencies into the same map.
//
// That is exactly two levels: the seed's direct dependencies plus one further
// hop. Grandchildren discovered in step 2 are not expanded again.
//
// # Version collapse
//
// A [DependencyMap] holds one version per package name. When two parents ask
// for different versions of the same package the later write wins; sorted
// iteration makes "later" deterministic.
//
// # Failure policy
//
// A manifest that cannot be fetched during expansion is reported as a
// [Failure] and skipped. Resolution continues with the remaining entries, and
// the failed entry itself stays in the map so it is still downloaded.
package deps
