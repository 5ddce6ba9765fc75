// Package pipeline runs the selected dataset adapters against one store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"retailbench/internal/adapter"
	"retailbench/internal/config"
	"retailbench/internal/logger"
	"retailbench/internal/metrics"
	"retailbench/internal/model"
	"retailbench/internal/sink"
	"retailbench/internal/storage"
)

// Runner wires storage, sink and adapters for one run.
type Runner struct {
	// NewRepository opens the store; storage.New by default.
	NewRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)

	// Load runs one dataset; adapter.Load by default.
	Load func(ctx context.Context, dataset string, s *sink.Sink, opt adapter.Options) (adapter.Stats, error)

	Logger *zap.Logger
}

// NewDefaultRunner returns a Runner over the registered storage backends and
// the real adapters.
func NewDefaultRunner(log *zap.Logger) *Runner {
	return &Runner{
		NewRepository: storage.New,
		Load:          adapter.Load,
		Logger:        log,
	}
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Stats    map[string]adapter.Stats
	Failed   []string
	Duration time.Duration
}

// Run opens the configured store, creates the canonical tables unless
// disabled, and loads every selected dataset. See RunDatasets for ordering
// and failure handling.
func (r *Runner) Run(ctx context.Context, cfg config.Config) (Report, error) {
	newRepo := r.NewRepository
	if newRepo == nil {
		newRepo = storage.New
	}

	repo, err := newRepo(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return Report{}, fmt.Errorf("pipeline: open storage: %w", err)
	}
	defer repo.Close()

	if cfg.ShouldEnsureSchema() {
		if err := repo.EnsureTables(ctx, model.Tables()); err != nil {
			return Report{}, fmt.Errorf("pipeline: ensure schema: %w", err)
		}
	}

	return r.RunDatasets(ctx, repo, cfg)
}

// RunDatasets loads the datasets selected by cfg.Load through w, in the
// fixed order of config.Datasets regardless of selection order. A failing
// dataset is logged and counted; the rest still run and every failure is
// returned joined.
func (r *Runner) RunDatasets(ctx context.Context, w sink.Writer, cfg config.Config) (Report, error) {
	log := logger.OrNop(r.Logger)
	load := r.Load
	if load == nil {
		load = adapter.Load
	}

	rep := Report{RunID: uuid.NewString(), Stats: map[string]adapter.Stats{}}
	log = log.With(zap.String("run_id", rep.RunID), zap.String("job", cfg.Job))
	s := sink.New(w, log)
	start := time.Now()

	var errs []error
	for _, tag := range config.Datasets {
		if !slices.Contains(cfg.Load, tag) {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		dc := cfg.Dataset(tag)
		stepStart := time.Now()
		log.Info("stage=load start", zap.String("dataset", tag), zap.String("dir", dc.Dir))

		st, err := load(ctx, tag, s, adapter.Options{
			Dir:       dc.Dir,
			ChunkSize: cfg.ChunkSize,
			Parser:    dc.Options,
			Logger:    log,
		})
		rep.Stats[tag] = st
		d := time.Since(stepStart)

		if err != nil {
			metrics.RecordStep(tag, "error", d)
			rep.Failed = append(rep.Failed, tag)
			errs = append(errs, fmt.Errorf("%s: %w", tag, err))
			log.Error("stage=load failed", zap.String("dataset", tag), zap.Duration("duration", d), zap.Error(err))
			continue
		}
		metrics.RecordStep(tag, "ok", d)
		log.Info("stage=load ok", append(st.Fields(), zap.String("dataset", tag), zap.Duration("duration", d))...)
	}

	rep.Duration = time.Since(start)
	if err := metrics.Flush(); err != nil {
		log.Warn("metrics flush failed", zap.Error(err))
	}
	log.Info("run done", zap.Int("datasets", len(rep.Stats)), zap.Int("failed", len(rep.Failed)), zap.Duration("duration", rep.Duration))
	return rep, errors.Join(errs...)
}
