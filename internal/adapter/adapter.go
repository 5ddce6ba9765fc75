// Package adapter maps the four source datasets onto the canonical tables.
//
// Every adapter has a pure mapping half (source records in, model records
// out) and a Load function that locates the files, reads them and appends
// the mapped batches through a sink.Sink. Adapters never read each other's
// output, so they can run in any order and any number of times; each run
// appends.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"retailbench/internal/config"
	"retailbench/internal/logger"
	"retailbench/internal/sink"
)

var (
	// ErrMissingSource marks a required source file that does not exist.
	ErrMissingSource = errors.New("missing source file")

	// ErrNoOffersFile is returned for a WDC variant directory without an
	// offers file. It matches ErrMissingSource too.
	ErrNoOffersFile = fmt.Errorf("%w: no offers file with the expected columns", ErrMissingSource)

	// ErrUnknownDataset is returned by Load for a tag with no adapter.
	ErrUnknownDataset = errors.New("unknown dataset")
)

// Options configures one adapter run.
type Options struct {
	// Dir is the dataset's source directory.
	Dir string

	// ChunkSize bounds how many rows are read and appended at once. <= 0
	// uses config.DefaultChunkSize.
	ChunkSize int

	// Parser carries per-dataset parser overrides (comma, has_header,
	// lazy_quotes, header_map).
	Parser config.Options

	Logger *zap.Logger
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return config.DefaultChunkSize
	}
	return o.ChunkSize
}

func (o Options) log() *zap.Logger { return logger.OrNop(o.Logger) }

// Stats counts the rows an adapter appended per table.
type Stats struct {
	Items        int64
	Queries      int64
	Labels       int64
	Pairs        int64
	Entities     int64
	ItemEntities int64
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Items += o.Items
	s.Queries += o.Queries
	s.Labels += o.Labels
	s.Pairs += o.Pairs
	s.Entities += o.Entities
	s.ItemEntities += o.ItemEntities
}

// Total is the number of rows appended across all tables.
func (s Stats) Total() int64 {
	return s.Items + s.Queries + s.Labels + s.Pairs + s.Entities + s.ItemEntities
}

// Fields renders s as zap fields.
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("items", s.Items),
		zap.Int64("queries", s.Queries),
		zap.Int64("labels", s.Labels),
		zap.Int64("pairs", s.Pairs),
		zap.Int64("entities", s.Entities),
		zap.Int64("item_entities", s.ItemEntities),
	}
}

// LoadFunc is the signature shared by the per-dataset loaders.
type LoadFunc func(ctx context.Context, s *sink.Sink, opt Options) (Stats, error)

var loaders = map[string]LoadFunc{
	config.DatasetAbtBuy: LoadAbtBuy,
	config.DatasetCIKM16: LoadCIKM16,
	config.DatasetESCI:   LoadESCI,
	config.DatasetWDC:    LoadWDC,
}

// Load runs the adapter registered for dataset. The sink is scoped to the
// dataset before use.
func Load(ctx context.Context, dataset string, s *sink.Sink, opt Options) (Stats, error) {
	fn, ok := loaders[dataset]
	if !ok {
		return Stats{}, fmt.Errorf("adapter: %w %q", ErrUnknownDataset, dataset)
	}
	return fn(ctx, s.ForDataset(dataset), opt)
}
