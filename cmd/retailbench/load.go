package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"retailbench/internal/config"
	"retailbench/internal/metrics"
	"retailbench/internal/metrics/datadog"
	"retailbench/internal/metrics/prompush"
	"retailbench/internal/pipeline"

	// register all backends with the storage factory.
	_ "retailbench/internal/storage/all"
)

type loadOptions struct {
	dbKind         string
	dsn            string
	load           []string
	abtDir         string
	cikmDir        string
	esciDir        string
	wdcDir         string
	chunkSize      int
	metricsBackend string
	pushgatewayURL string
	noSchema       bool
	validate       bool
}

func newLoadCommand(root *rootOptions) *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the selected datasets into the canonical tables",
		Long: `Load runs the dataset adapters in the fixed order abt_buy, cikm16, esci, wdc.

A dataset that fails is reported and the others still run; the command exits
non-zero when any dataset failed. Rows are appended, so loading the same
dataset twice duplicates it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dbKind, "db-kind", "", "storage backend: sqlite|postgres|mssql")
	f.StringVar(&opts.dsn, "dsn", "", "storage DSN")
	f.StringSliceVar(&opts.load, "load", nil, "datasets to load (abt_buy,cikm16,esci,wdc)")
	f.StringVar(&opts.abtDir, "abt-dir", "", "abt_buy source directory")
	f.StringVar(&opts.cikmDir, "cikm-dir", "", "cikm16 source directory")
	f.StringVar(&opts.esciDir, "esci-dir", "", "esci source directory")
	f.StringVar(&opts.wdcDir, "wdc-dir", "", "wdc source directory")
	f.IntVar(&opts.chunkSize, "chunk-size", 0, "rows per chunk for large files")
	f.StringVar(&opts.metricsBackend, "metrics-backend", "", "metrics backend: none|pushgateway|datadog (env METRICS_BACKEND)")
	f.StringVar(&opts.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (env PUSHGATEWAY_URL)")
	f.BoolVar(&opts.noSchema, "no-schema", false, "do not create the canonical tables before loading")
	f.BoolVar(&opts.validate, "validate", false, "validate the configuration and exit")

	return cmd
}

func runLoad(cmd *cobra.Command, root *rootOptions, opts *loadOptions) error {
	cfg, err := resolveLoadConfig(cmd, root, opts)
	if err != nil {
		return err
	}

	issues := config.Validate(cfg)
	printIssues(cmd.ErrOrStderr(), issues)
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	if opts.validate {
		fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return nil
	}

	log, err := root.newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	closeMetrics := setupMetrics(cmd.Context(), cfg, log)
	defer closeMetrics()

	rep, runErr := pipeline.NewDefaultRunner(log).Run(cmd.Context(), cfg)

	out := cmd.OutOrStdout()
	for _, tag := range config.Datasets {
		st, ok := rep.Stats[tag]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "%-8s items=%d queries=%d labels=%d pairs=%d entities=%d item_entity=%d\n",
			tag, st.Items, st.Queries, st.Labels, st.Pairs, st.Entities, st.ItemEntities)
	}
	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(out, "run %s done in %s\n", rep.RunID, rep.Duration.Round(time.Millisecond))
	return nil
}

// resolveLoadConfig layers .env, the config file and then every flag the
// user actually set.
func resolveLoadConfig(cmd *cobra.Command, root *rootOptions, opts *loadOptions) (config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(root.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	changed := cmd.Flags().Changed
	if changed("db-kind") {
		cfg.Storage.Kind = opts.dbKind
	}
	if changed("dsn") {
		cfg.Storage.DSN = os.ExpandEnv(opts.dsn)
	}
	if changed("load") {
		cfg.Load = opts.load
	}
	if changed("chunk-size") {
		cfg.ChunkSize = opts.chunkSize
	}
	if changed("no-schema") {
		ensure := !opts.noSchema
		cfg.Storage.EnsureSchema = &ensure
	}
	if root.LogMode != "" {
		cfg.LogMode = root.LogMode
	}

	dirs := map[string]string{
		"abt-dir":  config.DatasetAbtBuy,
		"cikm-dir": config.DatasetCIKM16,
		"esci-dir": config.DatasetESCI,
		"wdc-dir":  config.DatasetWDC,
	}
	values := map[string]string{
		"abt-dir":  opts.abtDir,
		"cikm-dir": opts.cikmDir,
		"esci-dir": opts.esciDir,
		"wdc-dir":  opts.wdcDir,
	}
	for flag, tag := range dirs {
		if !changed(flag) {
			continue
		}
		if cfg.Datasets == nil {
			cfg.Datasets = map[string]config.DatasetConfig{}
		}
		dc := cfg.Datasets[tag]
		dc.Dir = values[flag]
		cfg.Datasets[tag] = dc
	}

	// Metrics: flag, then env, then config.
	switch {
	case changed("metrics-backend"):
		cfg.Metrics.Backend = opts.metricsBackend
	case os.Getenv("METRICS_BACKEND") != "":
		cfg.Metrics.Backend = os.Getenv("METRICS_BACKEND")
	}
	switch {
	case changed("pushgateway-url"):
		cfg.Metrics.PushgatewayURL = opts.pushgatewayURL
	case os.Getenv("PUSHGATEWAY_URL") != "":
		cfg.Metrics.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")
	}
	if tags := datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS")); len(tags) > 0 {
		cfg.Metrics.Tags = append(cfg.Metrics.Tags, tags...)
	}

	return cfg, nil
}

func printIssues(w io.Writer, issues []config.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
}

// setupMetrics installs the configured metrics backend. A backend that fails
// to initialize leaves the nop backend in place. The returned func releases
// the backend and must always be called.
func setupMetrics(ctx context.Context, cfg config.Config, log *zap.Logger) func() {
	backend := strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	job := cfg.Job
	if job == "" {
		job = "retailbench"
	}

	switch backend {
	case "pushgateway":
		b, err := prompush.NewBackend(prompush.Options{URL: cfg.Metrics.PushgatewayURL, JobName: job})
		if err != nil {
			log.Warn("metrics: pushgateway init failed; using nop", zap.Error(err))
			return func() {}
		}
		log.Info("metrics: backend=pushgateway", zap.String("url", cfg.Metrics.PushgatewayURL), zap.String("job", job))
		metrics.SetBackend(b)
		return func() { metrics.SetBackend(nil) }

	case "datadog":
		b, err := datadog.NewBackend(ctx, datadog.Options{
			JobName:    job,
			Tags:       cfg.Metrics.Tags,
			FlushEvery: cfg.Metrics.FlushEvery,
		})
		if err != nil {
			log.Warn("metrics: datadog init failed; using nop", zap.Error(err))
			return func() {}
		}
		log.Info("metrics: backend=datadog", zap.String("job", job), zap.Strings("tags", cfg.Metrics.Tags))
		metrics.SetBackend(b)
		return func() {
			// Close stops the flush loop and submits the last window.
			if err := b.Close(); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("metrics: datadog close failed", zap.Error(err))
			}
			metrics.SetBackend(nil)
		}

	case "", "none":
		log.Debug("metrics: disabled")
	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", cfg.Metrics.Backend))
	}
	return func() {}
}
