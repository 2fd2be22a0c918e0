package recorder

import (
	"fmt"
	"io"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/spikeloop/internal/store"
)

// episodeSchema is the Arrow schema for exported episode rows.
var episodeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "epoch", Type: arrow.PrimitiveTypes.Int32},
	{Name: "sample", Type: arrow.PrimitiveTypes.Int32},
	{Name: "positive", Type: arrow.PrimitiveTypes.Int8},
	{Name: "goodness", Type: arrow.PrimitiveTypes.Float64},
	{Name: "loss", Type: arrow.PrimitiveTypes.Float64},
	{Name: "output_spikes", Type: arrow.PrimitiveTypes.Int32},
}, nil)

// WriteEpisodes exports a run's episode records to an Arrow IPC file as a
// single record batch.
func WriteEpisodes(path string, episodes []store.Episode) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create episode file: %w", err)
	}
	defer f.Close()

	mem := memory.NewGoAllocator()
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(episodeSchema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create IPC writer: %w", err)
	}

	builder := array.NewRecordBuilder(mem, episodeSchema)
	defer builder.Release()

	epochB := builder.Field(0).(*array.Int32Builder)
	sampleB := builder.Field(1).(*array.Int32Builder)
	positiveB := builder.Field(2).(*array.Int8Builder)
	goodnessB := builder.Field(3).(*array.Float64Builder)
	lossB := builder.Field(4).(*array.Float64Builder)
	spikesB := builder.Field(5).(*array.Int32Builder)

	for _, e := range episodes {
		epochB.Append(int32(e.Epoch))
		sampleB.Append(int32(e.SampleIndex))
		if e.Positive {
			positiveB.Append(1)
		} else {
			positiveB.Append(0)
		}
		goodnessB.Append(e.Goodness)
		lossB.Append(e.Loss)
		spikesB.Append(int32(e.OutputSpikes))
	}

	rec := builder.NewRecord()
	defer rec.Release()

	if err := w.Write(rec); err != nil {
		w.Close()
		return fmt.Errorf("failed to write record batch: %w", err)
	}
	return w.Close()
}

// EpisodeRow is one decoded exported episode.
type EpisodeRow struct {
	Epoch        int
	Sample       int
	Positive     bool
	Goodness     float64
	Loss         float64
	OutputSpikes int
}

// ReadEpisodes loads an exported episode file.
func ReadEpisodes(path string) ([]EpisodeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open episode file: %w", err)
	}
	defer f.Close()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC reader: %w", err)
	}
	defer r.Close()

	var rows []EpisodeRow
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch: %w", err)
		}

		epochs := rec.Column(0).(*array.Int32)
		samples := rec.Column(1).(*array.Int32)
		positives := rec.Column(2).(*array.Int8)
		goodness := rec.Column(3).(*array.Float64)
		losses := rec.Column(4).(*array.Float64)
		spikes := rec.Column(5).(*array.Int32)

		for i := 0; i < int(rec.NumRows()); i++ {
			rows = append(rows, EpisodeRow{
				Epoch:        int(epochs.Value(i)),
				Sample:       int(samples.Value(i)),
				Positive:     positives.Value(i) != 0,
				Goodness:     goodness.Value(i),
				Loss:         losses.Value(i),
				OutputSpikes: int(spikes.Value(i)),
			})
		}
	}
	return rows, nil
}
