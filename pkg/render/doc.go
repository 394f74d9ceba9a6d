// Package render draws the resolved dependency graph of an install.
//
// [ToDOT] emits Graphviz DOT source for one or more resolutions; [RenderSVG]
// lays it out with the embedded Graphviz (go-graphviz, no system install
// needed). `bonnie install --graph deps.svg` uses both; a ".dot" target gets
// the DOT source instead.
//
// Seeds are drawn bold. Packages whose tarball failed to download are filled
// red so partial installs are visible at a glance.
package render
