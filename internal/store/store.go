package store

import "time"

// Run describes one training or inference run.
type Run struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Seed       uint64     `json:"seed"`
	DT         float64    `json:"dt"`
	Timesteps  int        `json:"timesteps"`
	Epochs     int        `json:"epochs"`
	Dataset    string     `json:"dataset,omitempty"`
	Topology   string     `json:"topology,omitempty"`
}

// Run status values.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Episode records the outcome of presenting one sample to the network.
type Episode struct {
	RunID        string    `json:"run_id"`
	Epoch        int       `json:"epoch"`
	SampleIndex  int       `json:"sample_index"`
	Positive     bool      `json:"positive"`
	Goodness     float64   `json:"goodness"`
	Loss         float64   `json:"loss"`
	OutputSpikes int       `json:"output_spikes"`
	CreatedAt    time.Time `json:"created_at"`
}

// WeightStat is one sampled weight statistic row for a synapse.
type WeightStat struct {
	RunID   string  `json:"run_id"`
	Step    int64   `json:"step"`
	Synapse int     `json:"synapse"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}
