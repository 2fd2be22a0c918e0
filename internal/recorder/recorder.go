// Package recorder exports spike rasters to Arrow IPC files.
// Each episode becomes one record batch with columns step, layer,
// neuron, and spike, so external tooling can load rasters without
// touching the simulator.
package recorder

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// rasterSchema is the Arrow schema for spike raster rows.
var rasterSchema = arrow.NewSchema([]arrow.Field{
	{Name: "step", Type: arrow.PrimitiveTypes.Int64},
	{Name: "layer", Type: arrow.BinaryTypes.String},
	{Name: "neuron", Type: arrow.PrimitiveTypes.Int32},
	{Name: "spike", Type: arrow.PrimitiveTypes.Int8},
}, nil)

// RasterWriter streams spike rasters to an Arrow IPC file.
// Append rows during an episode, then call FlushEpisode to emit
// them as one record batch. Not safe for concurrent use.
type RasterWriter struct {
	f       *os.File
	mem     memory.Allocator
	builder *array.RecordBuilder
	w       *ipc.FileWriter
	rows    int
}

// NewRasterWriter creates an Arrow IPC file at path and prepares it
// for raster batches.
func NewRasterWriter(path string) (*RasterWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create raster file: %w", err)
	}

	mem := memory.NewGoAllocator()
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(rasterSchema), ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create IPC writer: %w", err)
	}

	return &RasterWriter{
		f:       f,
		mem:     mem,
		builder: array.NewRecordBuilder(mem, rasterSchema),
		w:       w,
	}, nil
}

// Append adds one row per neuron for a layer at a given step.
// A spike value above 0.5 is recorded as 1, everything else as 0.
func (rw *RasterWriter) Append(step int64, layer string, spikes []float64) {
	stepB := rw.builder.Field(0).(*array.Int64Builder)
	layerB := rw.builder.Field(1).(*array.StringBuilder)
	neuronB := rw.builder.Field(2).(*array.Int32Builder)
	spikeB := rw.builder.Field(3).(*array.Int8Builder)

	for i, s := range spikes {
		stepB.Append(step)
		layerB.Append(layer)
		neuronB.Append(int32(i))
		if s > 0.5 {
			spikeB.Append(1)
		} else {
			spikeB.Append(0)
		}
		rw.rows++
	}
}

// FlushEpisode writes the accumulated rows as one record batch and
// resets the builder. Flushing with no rows appended is a no-op.
func (rw *RasterWriter) FlushEpisode() error {
	if rw.rows == 0 {
		return nil
	}

	rec := rw.builder.NewRecord()
	defer rec.Release()
	rw.rows = 0

	if err := rw.w.Write(rec); err != nil {
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return nil
}

// Close finalizes the IPC file. Rows appended but not flushed are lost.
func (rw *RasterWriter) Close() error {
	rw.builder.Release()
	if err := rw.w.Close(); err != nil {
		rw.f.Close()
		return fmt.Errorf("failed to close IPC writer: %w", err)
	}
	return rw.f.Close()
}

// RasterRow is one decoded spike raster row.
type RasterRow struct {
	Step   int64
	Layer  string
	Neuron int32
	Spike  bool
}

// ReadRaster loads an entire raster file. Episodes preserve their
// record batch boundaries: one inner slice per episode.
func ReadRaster(path string) ([][]RasterRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster file: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC reader: %w", err)
	}
	defer r.Close()

	var episodes [][]RasterRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch: %w", err)
		}

		steps := rec.Column(0).(*array.Int64)
		layers := rec.Column(1).(*array.String)
		neurons := rec.Column(2).(*array.Int32)
		spikes := rec.Column(3).(*array.Int8)

		rows := make([]RasterRow, rec.NumRows())
		for i := range rows {
			rows[i] = RasterRow{
				Step:   steps.Value(i),
				Layer:  layers.Value(i),
				Neuron: neurons.Value(i),
				Spike:  spikes.Value(i) != 0,
			}
		}
		episodes = append(episodes, rows)
	}
	return episodes, nil
}
