// Package sink appends canonical records to the output tables.
//
// The sink never upserts, deduplicates or validates content. It converts each
// record to its fixed column order, checks the shape and hands the batch to a
// Writer, which must apply it atomically.
package sink

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"retailbench/internal/logger"
	"retailbench/internal/metrics"
	"retailbench/internal/model"
	"retailbench/internal/storage"
)

// Writer appends rows to a named table. storage.Repository satisfies it.
type Writer interface {
	AppendRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

// Sink writes canonical record batches for one dataset.
type Sink struct {
	w       Writer
	log     *zap.Logger
	dataset string
}

// New returns a Sink over w. A nil logger disables logging.
func New(w Writer, log *zap.Logger) *Sink {
	return &Sink{w: w, log: logger.OrNop(log)}
}

// ForDataset returns a copy of s that tags logs and metrics with dataset.
func (s *Sink) ForDataset(dataset string) *Sink {
	cp := *s
	cp.dataset = dataset
	cp.log = s.log.With(zap.String("dataset", dataset))
	return &cp
}

type valuer interface{ Values() []any }

func appendBatch[T valuer](ctx context.Context, s *Sink, table string, columns []string, recs []T) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = r.Values()
	}
	return s.Append(ctx, table, columns, rows)
}

// Append writes raw rows. An empty batch is a no-op; a row whose length does
// not match columns fails the whole batch before anything is written.
func (s *Sink) Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := storage.CheckShape(table, columns, rows); err != nil {
		return 0, fmt.Errorf("sink: %w", err)
	}

	start := time.Now()
	n, err := s.w.AppendRows(ctx, table, columns, rows)
	if err != nil {
		s.log.Error("append failed", zap.String("table", table), zap.Int("rows", len(rows)), zap.Error(err))
		return 0, fmt.Errorf("sink: append %s: %w", table, err)
	}

	metrics.RecordBatch()
	metrics.RecordRows(s.dataset, table, len(rows))
	s.log.Debug("append ok",
		zap.String("table", table),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// Items appends rows to the items table and returns the count written.
func (s *Sink) Items(ctx context.Context, items []model.Item) (int64, error) {
	return appendBatch(ctx, s, model.TableItems, model.ItemColumns, items)
}

// Queries appends rows to the queries table.
func (s *Sink) Queries(ctx context.Context, queries []model.Query) (int64, error) {
	return appendBatch(ctx, s, model.TableQueries, model.QueryColumns, queries)
}

// Labels appends query/item labels.
func (s *Sink) Labels(ctx context.Context, labels []model.QueryItemLabel) (int64, error) {
	return appendBatch(ctx, s, model.TableQueryItemLabels, model.QueryItemLabelColumns, labels)
}

// Pairs appends item/item pairs and returns the count written.
func (s *Sink) Pairs(ctx context.Context, pairs []model.ItemItemPair) (int64, error) {
	return appendBatch(ctx, s, model.TableItemItemPairs, model.ItemItemPairColumns, pairs)
}

// Entities appends entity rows.
func (s *Sink) Entities(ctx context.Context, entities []model.Entity) (int64, error) {
	return appendBatch(ctx, s, model.TableEntities, model.EntityColumns, entities)
}

// ItemEntities appends item-to-entity links.
func (s *Sink) ItemEntities(ctx context.Context, links []model.ItemEntity) (int64, error) {
	return appendBatch(ctx, s, model.TableItemEntity, model.ItemEntityColumns, links)
}
