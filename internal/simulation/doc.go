// Package simulation drives whole training runs over the real network,
// datasets, and store, without mocks. It has two faces:
//
// The Trainer runs epochs of contrastive presentations with optional
// hooks for persistence, tracing, rasters, and the live board. The CLI
// uses it directly.
//
// The Runner is a test harness over the Trainer. Scenarios are Go
// builders that pick a dataset, topology, and schedule, and the result
// captures per-epoch goodness and weight statistics for property-based
// assertions.
//
// Usage:
//
//	func TestXorStability(t *testing.T) {
//	    r := simulation.NewRunner(t)
//	    result := r.Run(simulation.Scenario{
//	        Name:    "xor-stability",
//	        Dataset: "xor",
//	        Hidden:  []int{4, 4},
//	        Epochs:  20,
//	        Seed:    7,
//	    })
//	    simulation.AssertWeightsBounded(t, result, 25.0)
//	    simulation.AssertGoodnessInRange(t, result)
//	}
package simulation
