package adapter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"retailbench/internal/columns"
	"retailbench/internal/config"
	"retailbench/internal/model"
	"retailbench/internal/probe"
	"retailbench/internal/sink"
	"retailbench/internal/transformer/builtin"
	"retailbench/pkg/records"
)

const (
	wdcVersion    = "2024"
	wdcPairSource = "benchmark"

	// wdcProbeRows is how many data rows a candidate file must parse before
	// it is accepted.
	wdcProbeRows = 5
)

// Variant is one WDC benchmark directory.
type Variant struct {
	Dir   string
	Name  string
	Split *string
}

// WDCVariants lists the variants under base: its subdirectories, or base
// itself when it has none. Names are directory names; splits are inferred
// from them.
func WDCVariants(base string) ([]Variant, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, base)
		}
		return nil, err
	}

	var out []Variant
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		out = append(out, Variant{
			Dir:   filepath.Join(base, e.Name()),
			Name:  e.Name(),
			Split: InferSplit(e.Name()),
		})
	}
	if len(out) == 0 {
		name := filepath.Base(filepath.Clean(base))
		out = append(out, Variant{Dir: base, Name: name, Split: InferSplit(name)})
	}
	return out, nil
}

// WDCItems maps offer rows. Offer ids are scoped by variant.
func WDCItems(t records.Table, v Variant) ([]model.Item, error) {
	res := columns.Resolve(t.Columns, WDCOfferRules)
	mapped := res.Columns()

	out := make([]model.Item, 0, len(t.Rows))
	for _, rec := range t.Rows {
		id, _ := res.String(rec, RoleID)
		price, parsed := builtin.ParsePriceCurrency(res.Value(rec, RolePrice))

		attrs, err := builtin.EncodeAttrs(builtin.LeftoverAttrs(t.Columns, rec, mapped...))
		if err != nil {
			return nil, fmt.Errorf("wdc: %s offer %q: %w", v.Name, id, err)
		}

		out = append(out, model.Item{
			ItemID:         builtin.ItemID(config.DatasetWDC, v.Name, id),
			Dataset:        config.DatasetWDC,
			DatasetItemKey: id,
			Brand:          builtin.StringValue(res.Value(rec, RoleBrand)),
			Title:          builtin.NormalizeText(res.Value(rec, RoleTitle)),
			Description:    builtin.NormalizeText(res.Value(rec, RoleDescription)),
			Price:          price,
			Currency:       builtin.ResolveCurrency(price, parsed, builtin.StringValue(res.Value(rec, RoleCurrency))),
			Attrs:          &attrs,
			Split:          v.Split,
			Variant:        model.Ptr(v.Name),
			Version:        model.Ptr(wdcVersion),
		})
	}
	return out, nil
}

// WDCPairs maps pair rows. Labels are lowercased.
func WDCPairs(t records.Table, v Variant) []model.ItemItemPair {
	res := columns.Resolve(t.Columns, WDCPairRules)

	out := make([]model.ItemItemPair, 0, len(t.Rows))
	for _, rec := range t.Rows {
		left, _ := res.String(rec, RoleLeft)
		right, _ := res.String(rec, RoleRight)
		label, _ := res.String(rec, RoleLabel)
		out = append(out, model.ItemItemPair{
			LeftItemID:  builtin.ItemID(config.DatasetWDC, v.Name, left),
			RightItemID: builtin.ItemID(config.DatasetWDC, v.Name, right),
			Label:       strings.ToLower(label),
			PairSource:  wdcPairSource,
			Split:       v.Split,
			Variant:     model.Ptr(v.Name),
		})
	}
	return out
}

// WDCEntities maps offer-to-entity rows to the distinct entities, in first
// occurrence order, and one membership link per row. Rows without an offer
// or entity are skipped; a file lacking either column yields nothing.
func WDCEntities(t records.Table, v Variant) ([]model.Entity, []model.ItemEntity) {
	res := columns.Resolve(t.Columns, WDCMultiRules)
	if !res.Resolved(RoleID) || !res.Resolved(RoleEntity) {
		return nil, nil
	}

	seen := map[string]struct{}{}
	var (
		ents  []model.Entity
		links []model.ItemEntity
	)
	for _, rec := range t.Rows {
		offer, ok := res.String(rec, RoleID)
		if !ok {
			continue
		}
		label, ok := res.String(rec, RoleEntity)
		if !ok {
			continue
		}
		eid := EntityID(config.DatasetWDC, label)
		if _, dup := seen[eid]; !dup {
			seen[eid] = struct{}{}
			ents = append(ents, model.Entity{EntityID: eid, Dataset: config.DatasetWDC, Notes: model.Ptr(v.Name)})
		}
		links = append(links, model.ItemEntity{
			ItemID:   builtin.ItemID(config.DatasetWDC, v.Name, offer),
			EntityID: eid,
		})
	}
	return ents, links
}

// EntityID is the verbatim "<dataset>:<cluster label>" entity identifier.
func EntityID(dataset, label string) string {
	return dataset + ":" + label
}

// LoadWDC loads every variant under opt.Dir. A variant without an offers
// file fails alone; the remaining variants still load and the failures are
// returned joined.
func LoadWDC(ctx context.Context, s *sink.Sink, opt Options) (Stats, error) {
	start := time.Now()
	log := opt.log().With(zap.String("dataset", config.DatasetWDC))

	variants, err := WDCVariants(opt.Dir)
	if err != nil {
		return Stats{}, fmt.Errorf("wdc: %w", err)
	}

	var (
		st   Stats
		errs []error
	)
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		vs, err := loadWDCVariant(ctx, s, opt, v)
		st.Add(vs)
		if err != nil {
			log.Error("variant failed", zap.String("variant", v.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("wdc: variant %s: %w", v.Name, err))
			continue
		}
		log.Debug("variant ok", append(vs.Fields(), zap.String("variant", v.Name))...)
	}

	log.Info("stage=load done",
		append(st.Fields(),
			zap.Int("variants", len(variants)),
			zap.Int("failed", len(errs)),
			zap.Duration("duration", time.Since(start)))...)
	return st, errors.Join(errs...)
}

func loadWDCVariant(ctx context.Context, s *sink.Sink, opt Options, v Variant) (Stats, error) {
	var st Stats

	offers, comma, ok := findWDCFile(ctx, offerCandidates(v.Dir), func(cols []string) bool {
		return probe.HasColumns(cols, WDCOfferColumns...)
	})
	if !ok {
		return st, fmt.Errorf("%w: %s", ErrNoOffersFile, v.Dir)
	}
	err := readChunks(ctx, offers, opt.Parser.With("comma", string(comma)), opt.chunkSize(), func(t records.Table) error {
		items, err := WDCItems(t, v)
		if err != nil {
			return err
		}
		n, err := s.Items(ctx, items)
		st.Items += n
		return err
	})
	if err != nil {
		return st, err
	}

	if pairs, comma, ok := findWDCFile(ctx, pairCandidates(v.Dir), func(cols []string) bool {
		return probe.HasColumns(cols, WDCPairColumns...)
	}); ok {
		err := readChunks(ctx, pairs, opt.Parser.With("comma", string(comma)), opt.chunkSize(), func(t records.Table) error {
			n, err := s.Pairs(ctx, WDCPairs(t, v))
			st.Pairs += n
			return err
		})
		if err != nil {
			return st, err
		}
	}

	if multi, comma, ok := findWDCFile(ctx, multiCandidates(v.Dir), isMultiHeader); ok {
		t, err := readTable(ctx, multi, opt.Parser.With("comma", string(comma)))
		if err != nil {
			return st, err
		}
		ents, links := WDCEntities(t, v)
		if st.Entities, err = s.Entities(ctx, ents); err != nil {
			return st, err
		}
		if st.ItemEntities, err = s.ItemEntities(ctx, links); err != nil {
			return st, err
		}
	}
	return st, nil
}

func isMultiHeader(cols []string) bool {
	res := columns.Resolve(cols, WDCMultiRules)
	return res.Resolved(RoleID) && res.Resolved(RoleEntity)
}

// findWDCFile returns the first candidate whose header satisfies accept after
// a short parse, with the delimiter its extension implies. Candidates that
// fail to parse are skipped.
func findWDCFile(ctx context.Context, candidates []string, accept func([]string) bool) (string, rune, bool) {
	for _, p := range candidates {
		comma := ','
		if strings.EqualFold(filepath.Ext(p), ".tsv") {
			comma = '\t'
		}
		cols, err := probe.ReadHeader(ctx, p, comma, wdcProbeRows)
		if err != nil {
			continue
		}
		if accept(cols) {
			return p, comma, true
		}
	}
	return "", 0, false
}

func offerCandidates(dir string) []string {
	return globAll(dir, "*.csv", "*.tsv")
}

func pairCandidates(dir string) []string {
	return globAll(dir, "pairs.*", "*pairs*.csv", "*pairs*.tsv", "*.csv")
}

func multiCandidates(dir string) []string {
	return globAll(dir, "*offer_to_entity*.csv", "*offer*entity*.csv", "*multi*.csv")
}

// globAll expands patterns in order, each pattern's matches sorted, keeping
// the first occurrence of every regular file.
func globAll(dir string, patterns ...string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, pat := range patterns {
		matches, _ := filepath.Glob(filepath.Join(dir, pat))
		sort.Strings(matches)
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			if st, err := os.Stat(m); err != nil || st.IsDir() {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
