package visualization

import (
	"testing"

	"github.com/nvandessel/spikeloop/internal/layer"
	"github.com/nvandessel/spikeloop/internal/network"
)

func buildTestNetwork(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.NewLayered(2, 1, []int{4, 4}, network.DefaultConfig(), layer.NewRNG(7))
	if err != nil {
		t.Fatalf("NewLayered failed: %v", err)
	}
	return net
}

func TestBoard_PublishAndSnapshot(t *testing.T) {
	b := NewBoard()

	if b.Snapshot() != nil {
		t.Error("expected nil snapshot before first publish")
	}

	net := buildTestNetwork(t)
	if !b.Publish(net.Snapshot()) {
		t.Fatal("uncontended Publish should succeed")
	}

	snap := b.Snapshot()
	if snap == nil {
		t.Fatal("expected snapshot after publish")
	}
	if len(snap.Layers) != net.NumLayers() {
		t.Errorf("snapshot has %d layers, want %d", len(snap.Layers), net.NumLayers())
	}
	if len(snap.Synapses) != net.NumSynapses() {
		t.Errorf("snapshot has %d synapses, want %d", len(snap.Synapses), net.NumSynapses())
	}
}

func TestBoard_PublishReplacesPrevious(t *testing.T) {
	b := NewBoard()
	net := buildTestNetwork(t)

	b.Publish(net.Snapshot())
	first := b.Snapshot()

	if err := net.Step([]float64{1, 1}, []float64{1}); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	b.Publish(net.Snapshot())
	second := b.Snapshot()

	if first.Step == second.Step {
		t.Errorf("expected step counter to advance: %d then %d", first.Step, second.Step)
	}
}

func TestBoard_PauseFlag(t *testing.T) {
	b := NewBoard()

	if b.Paused() {
		t.Error("board should start unpaused")
	}
	b.SetPaused(true)
	if !b.Paused() {
		t.Error("expected paused after SetPaused(true)")
	}
	b.SetPaused(false)
	if b.Paused() {
		t.Error("expected unpaused after SetPaused(false)")
	}
}

func TestBoard_Selection(t *testing.T) {
	b := NewBoard()

	if b.Selected() != "" {
		t.Error("board should start with no selection")
	}
	b.Select("hidden-0")
	if b.Selected() != "hidden-0" {
		t.Errorf("Selected = %q, want hidden-0", b.Selected())
	}
	b.Select("")
	if b.Selected() != "" {
		t.Error("expected cleared selection")
	}
}

func TestBoard_PublishDropsWhenContended(t *testing.T) {
	b := NewBoard()
	net := buildTestNetwork(t)

	b.mu.Lock()
	ok := b.Publish(net.Snapshot())
	b.mu.Unlock()

	if ok {
		t.Error("Publish should report a dropped frame while the board is held")
	}
	if b.Snapshot() != nil {
		t.Error("dropped publish must not install a snapshot")
	}
}
