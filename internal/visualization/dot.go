package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/spikeloop/internal/network"
	"github.com/nvandessel/spikeloop/internal/topology"
)

// Format specifies the output format for topology rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// layerColors maps layer kinds to DOT colors.
var layerColors = map[string]string{
	topology.KindEncoder: "goldenrod",
	topology.KindLIF:     "steelblue",
}

// RenderDOT produces a Graphviz DOT representation of a topology.
// When snap is non-nil, node labels include live spike counts and edges
// carry mean-weight labels from the snapshot's synapse stats.
func RenderDOT(spec *topology.Spec, snap *network.Snapshot) string {
	var b strings.Builder
	b.WriteString("digraph spikeloop {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=filled, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for i, l := range spec.Layers {
		name := spec.LayerName(i)
		color := layerColors[l.Kind]
		if color == "" {
			color = "lightgray"
		}

		label := fmt.Sprintf("%s\\n%d neurons", name, l.Size)
		if snap != nil && i < len(snap.Layers) {
			label = fmt.Sprintf("%s\\n%d/%d spiking", name, snap.Layers[i].SpikeCount, l.Size)
		}
		b.WriteString(fmt.Sprintf("  %q [label=\"%s\", fillcolor=%q];\n", name, label, color))
	}
	b.WriteString("\n")

	if snap != nil {
		// One DOT edge per expanded synapse, labeled with its mean weight
		for _, s := range snap.Synapses {
			b.WriteString(fmt.Sprintf("  %q -> %q [label=\"%.3f\"];\n",
				spec.LayerName(s.Pre), spec.LayerName(s.Post), s.Stats.Mean))
		}
	} else {
		for _, e := range spec.Edges {
			if e.Bidirectional {
				b.WriteString(fmt.Sprintf("  %q -> %q [dir=both];\n",
					spec.LayerName(e.Pre), spec.LayerName(e.Post)))
			} else {
				b.WriteString(fmt.Sprintf("  %q -> %q;\n",
					spec.LayerName(e.Pre), spec.LayerName(e.Post)))
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}

// RenderJSON produces a JSON-marshalable graph representation with nodes
// and edges arrays, for consumers that do their own drawing.
func RenderJSON(spec *topology.Spec, snap *network.Snapshot) map[string]any {
	nodes := make([]map[string]any, 0, len(spec.Layers))
	for i, l := range spec.Layers {
		entry := map[string]any{
			"name": spec.LayerName(i),
			"kind": l.Kind,
			"size": l.Size,
		}
		if snap != nil && i < len(snap.Layers) {
			entry["spike_count"] = snap.Layers[i].SpikeCount
			if l.Kind == topology.KindLIF {
				entry["threshold"] = snap.Layers[i].Threshold
				entry["goodness"] = snap.Layers[i].Goodness
			}
		}
		nodes = append(nodes, entry)
	}

	var edges []map[string]any
	if snap != nil {
		for _, s := range snap.Synapses {
			edges = append(edges, map[string]any{
				"source":      spec.LayerName(s.Pre),
				"target":      spec.LayerName(s.Post),
				"rule":        s.Rule,
				"learning":    s.Learning,
				"mean_weight": s.Stats.Mean,
			})
		}
	} else {
		for _, e := range spec.Edges {
			edges = append(edges, map[string]any{
				"source":        spec.LayerName(e.Pre),
				"target":        spec.LayerName(e.Post),
				"bidirectional": e.Bidirectional,
			})
		}
	}

	return map[string]any{
		"nodes":      nodes,
		"edges":      edges,
		"node_count": len(nodes),
		"edge_count": len(edges),
	}
}
