// Package visualization exposes live simulation state over HTTP and
// renders network topology in DOT and JSON formats.
package visualization

import (
	"sync"

	"github.com/nvandessel/spikeloop/internal/network"
)

// Board is the handoff point between the simulation loop and the HTTP
// server. The loop publishes snapshots; readers always see the latest
// complete one.
//
// Publish uses TryLock so the simulation never blocks on a slow or
// contended reader. A dropped frame is fine; the next step publishes
// a fresh one.
type Board struct {
	mu       sync.Mutex
	snapshot *network.Snapshot
	paused   bool
	selected string
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Publish offers a new snapshot to readers. Returns false if the board
// was contended and the frame was dropped.
func (b *Board) Publish(snap network.Snapshot) bool {
	if !b.mu.TryLock() {
		return false
	}
	defer b.mu.Unlock()
	b.snapshot = &snap
	return true
}

// Snapshot returns the most recently published snapshot, or nil if
// nothing has been published yet.
func (b *Board) Snapshot() *network.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot
}

// SetPaused flags the simulation loop to pause or resume. The loop
// polls Paused between steps.
func (b *Board) SetPaused(paused bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.paused = paused
}

// Paused reports whether the simulation should hold before its next step.
func (b *Board) Paused() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paused
}

// Select records which layer the UI is focused on. Empty string clears
// the selection.
func (b *Board) Select(layer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = layer
}

// Selected returns the currently focused layer name.
func (b *Board) Selected() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}
