package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/bonnie/pkg/deps"
)

// Options configures diagram output.
type Options struct {
	// Failed marks packages (by name) whose download failed.
	Failed map[string]bool
	// ShowVersions adds the resolved version under each name.
	ShowVersions bool
}

// ToDOT converts resolutions to Graphviz DOT. Nodes and edges shared between
// resolutions are emitted once.
func ToDOT(resolutions []*deps.Resolution, opts Options) string {
	versions := map[string]string{}
	seeds := map[string]bool{}
	edges := map[deps.Edge]bool{}
	for _, r := range resolutions {
		if r == nil {
			continue
		}
		seeds[r.Seed.Name] = true
		versions[r.Seed.Name] = r.Seed.Version
		if r.Deps != nil {
			maps.Copy(versions, r.Deps.Map())
		}
		for _, e := range r.Edges {
			edges[e] = true
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, name := range slices.Sorted(maps.Keys(versions)) {
		label := name
		if opts.ShowVersions && versions[name] != "" {
			label += "\n" + versions[name]
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if seeds[name] {
			attrs = append(attrs, "penwidth=2", "fontname=\"Helvetica-Bold\"")
		}
		if opts.Failed[name] {
			attrs = append(attrs, "fillcolor=\"#f8d7da\"", "color=\"#c0392b\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	sorted := slices.SortedFunc(maps.Keys(edges), func(a, b deps.Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	for _, e := range sorted {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the diagram scales with its
// container instead of using Graphviz's point-based width and height.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}
