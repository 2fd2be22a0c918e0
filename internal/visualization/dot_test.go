package visualization

import (
	"strings"
	"testing"

	"github.com/nvandessel/spikeloop/internal/topology"
)

func testSpec(t *testing.T) *topology.Spec {
	t.Helper()
	spec, err := topology.Layered(2, 1, []int{4, 4})
	if err != nil {
		t.Fatalf("Layered failed: %v", err)
	}
	return spec
}

func TestRenderDOT_SpecOnly(t *testing.T) {
	spec := testSpec(t)
	dot := RenderDOT(spec, nil)

	if !strings.HasPrefix(dot, "digraph spikeloop {") {
		t.Errorf("DOT should start with digraph header, got: %s", dot[:40])
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("DOT should end with closing brace")
	}

	for _, name := range []string{"input", "context", "hidden-0", "hidden-1", "output"} {
		if !strings.Contains(dot, `"`+name+`"`) {
			t.Errorf("DOT missing layer node %q", name)
		}
	}

	// Encoders and LIF layers get distinct colors
	if !strings.Contains(dot, "goldenrod") {
		t.Error("DOT missing encoder color")
	}
	if !strings.Contains(dot, "steelblue") {
		t.Error("DOT missing lif color")
	}

	// Bidirectional edges render with dir=both
	if !strings.Contains(dot, "dir=both") {
		t.Error("DOT missing bidirectional edge style")
	}
}

func TestRenderDOT_WithSnapshot(t *testing.T) {
	spec := testSpec(t)
	net := buildTestNetwork(t)
	snap := net.Snapshot()

	dot := RenderDOT(spec, &snap)

	if !strings.Contains(dot, "spiking") {
		t.Error("snapshot-annotated DOT should include spike counts")
	}

	// With a snapshot, every expanded synapse gets its own edge line
	edgeLines := strings.Count(dot, " -> ")
	if edgeLines != len(snap.Synapses) {
		t.Errorf("DOT has %d edges, want %d (one per synapse)", edgeLines, len(snap.Synapses))
	}
}

func TestRenderJSON_SpecOnly(t *testing.T) {
	spec := testSpec(t)
	graph := RenderJSON(spec, nil)

	if graph["node_count"] != 5 {
		t.Errorf("node_count = %v, want 5", graph["node_count"])
	}
	if graph["edge_count"] != len(spec.Edges) {
		t.Errorf("edge_count = %v, want %d", graph["edge_count"], len(spec.Edges))
	}

	nodes := graph["nodes"].([]map[string]any)
	if nodes[0]["name"] != "input" || nodes[0]["kind"] != topology.KindEncoder {
		t.Errorf("unexpected first node: %v", nodes[0])
	}
}

func TestRenderJSON_WithSnapshot(t *testing.T) {
	spec := testSpec(t)
	net := buildTestNetwork(t)
	snap := net.Snapshot()

	graph := RenderJSON(spec, &snap)

	if graph["edge_count"] != len(snap.Synapses) {
		t.Errorf("edge_count = %v, want %d synapses", graph["edge_count"], len(snap.Synapses))
	}

	nodes := graph["nodes"].([]map[string]any)
	for _, n := range nodes {
		if n["kind"] == topology.KindLIF {
			if _, ok := n["threshold"]; !ok {
				t.Errorf("LIF node %v missing threshold", n["name"])
			}
		}
	}

	edges := graph["edges"].([]map[string]any)
	if edges[0]["rule"] != "csdp" {
		t.Errorf("edge rule = %v, want csdp", edges[0]["rule"])
	}
}
