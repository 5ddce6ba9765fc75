package config

import (
	"fmt"
	"slices"
	"strings"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path is a dotted config path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

var (
	storageKinds   = []string{"sqlite", "postgres", "mssql"}
	metricsBackend = []string{"", "none", "pushgateway", "datadog"}
	logModes       = []string{"", "dev", "development", "prod", "production"}
)

// Validate checks cfg and returns every issue found. Callers treat any
// SeverityError issue as fatal.
func Validate(cfg Config) []Issue {
	var out []Issue
	errf := func(path, format string, a ...any) {
		out = append(out, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		out = append(out, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	kind := strings.ToLower(strings.TrimSpace(cfg.Storage.Kind))
	switch {
	case kind == "":
		errf("storage.kind", "is required (one of %s)", strings.Join(storageKinds, ", "))
	case !slices.Contains(storageKinds, kind):
		errf("storage.kind", "unsupported kind %q (one of %s)", cfg.Storage.Kind, strings.Join(storageKinds, ", "))
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		errf("storage.dsn", "is required")
	}

	if len(cfg.Load) == 0 {
		errf("load", "select at least one dataset (%s)", strings.Join(Datasets, ", "))
	}
	seen := map[string]bool{}
	for i, tag := range cfg.Load {
		path := fmt.Sprintf("load[%d]", i)
		if !slices.Contains(Datasets, tag) {
			errf(path, "unknown dataset %q", tag)
			continue
		}
		if seen[tag] {
			warnf(path, "dataset %q listed more than once", tag)
		}
		seen[tag] = true
		if strings.TrimSpace(cfg.Dataset(tag).Dir) == "" {
			errf("datasets."+tag+".dir", "is required when %s is loaded", tag)
		}
	}

	if cfg.ChunkSize <= 0 {
		errf("chunk_size", "must be positive, got %d", cfg.ChunkSize)
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Metrics.Backend))
	if !slices.Contains(metricsBackend, backend) {
		warnf("metrics.backend", "unknown backend %q; metrics disabled", cfg.Metrics.Backend)
	}
	if backend == "pushgateway" && strings.TrimSpace(cfg.Metrics.PushgatewayURL) == "" {
		errf("metrics.pushgateway_url", "is required for the pushgateway backend")
	}

	if !slices.Contains(logModes, strings.ToLower(cfg.LogMode)) {
		warnf("log_mode", "unknown mode %q; using dev", cfg.LogMode)
	}

	return out
}

// HasErrors reports whether issues contains a SeverityError issue.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
