package adapter

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"retailbench/internal/columns"
	"retailbench/internal/config"
	"retailbench/internal/model"
	"retailbench/internal/sink"
	"retailbench/internal/transformer/builtin"
	"retailbench/pkg/records"
)

const (
	esciProducts = "shopping_queries_dataset_products"
	esciExamples = "shopping_queries_dataset_examples"
	esciSources  = "shopping_queries_dataset_sources"

	esciLabelFamily = "ESCI"
)

// esciExts are the readable encodings of an ESCI table, in lookup order.
// Parquet comes first since the benchmark ships in it.
var esciExts = []string{".parquet", ".csv", ".csv.gz", ".jsonl", ".jsonl.gz", ".json", ".json.gz"}

// ESCIItems maps product rows. Items are scoped by locale since the same
// product id appears in several marketplaces.
func ESCIItems(t records.Table) ([]model.Item, error) {
	res := columns.Resolve(t.Columns, ESCIProductRules)
	mapped := res.Columns()

	out := make([]model.Item, 0, len(t.Rows))
	for _, rec := range t.Rows {
		id, _ := res.String(rec, RoleID)
		loc, _ := res.String(rec, RoleLocale)

		attrs, err := builtin.EncodeAttrs(builtin.LeftoverAttrs(t.Columns, rec, mapped...))
		if err != nil {
			return nil, fmt.Errorf("esci: item %s:%s: %w", loc, id, err)
		}

		out = append(out, model.Item{
			ItemID:         builtin.ItemID(config.DatasetESCI, loc, id),
			Dataset:        config.DatasetESCI,
			DatasetItemKey: loc + ":" + id,
			Locale:         builtin.StringValue(res.Value(rec, RoleLocale)),
			Brand:          builtin.StringValue(res.Value(rec, RoleBrand)),
			Title:          builtin.NormalizeText(res.Value(rec, RoleTitle)),
			Description:    builtin.NormalizeText(res.Value(rec, RoleDescription)),
			BulletPoints:   builtin.NormalizeText(res.Value(rec, RoleBullets)),
			Color:          builtin.StringValue(res.Value(rec, RoleColor)),
			Attrs:          &attrs,
		})
	}
	return out, nil
}

// ESCISources maps query id -> source from the optional sources table.
func ESCISources(t records.Table) map[string]string {
	res := columns.Resolve(t.Columns, ESCISourceRules)
	out := make(map[string]string, len(t.Rows))
	for _, rec := range t.Rows {
		id, ok := res.String(rec, RoleQueryID)
		if !ok {
			continue
		}
		if src, ok := res.String(rec, RoleSource); ok {
			out[id] = src
		}
	}
	return out
}

// ESCIQueries maps example rows to queries, one per query id. seen carries
// the ids already emitted across chunks; the first occurrence wins.
func ESCIQueries(t records.Table, sources map[string]string, seen map[string]struct{}) []model.Query {
	res := columns.Resolve(t.Columns, ESCIExampleRules)

	var out []model.Query
	for _, rec := range t.Rows {
		native, _ := res.String(rec, RoleQueryID)
		if _, dup := seen[native]; dup {
			continue
		}
		seen[native] = struct{}{}

		var source *string
		if s, ok := sources[native]; ok {
			source = model.Ptr(s)
		}
		out = append(out, model.Query{
			QueryID:   builtin.QueryID(config.DatasetESCI, native),
			Dataset:   config.DatasetESCI,
			QueryText: builtin.NormalizeText(res.Value(rec, RoleQueryText)),
			Locale:    builtin.StringValue(res.Value(rec, RoleLocale)),
			QueryType: model.Ptr("full"),
			Source:    source,
		})
	}
	return out
}

// ESCILabels maps example rows to relevance judgments.
func ESCILabels(t records.Table) []model.QueryItemLabel {
	res := columns.Resolve(t.Columns, ESCIExampleRules)

	out := make([]model.QueryItemLabel, 0, len(t.Rows))
	for _, rec := range t.Rows {
		qid, _ := res.String(rec, RoleQueryID)
		pid, _ := res.String(rec, RoleItem)
		loc, _ := res.String(rec, RoleLocale)
		label, _ := res.String(rec, RoleLabel)

		out = append(out, model.QueryItemLabel{
			QueryID:     model.Ptr(builtin.QueryID(config.DatasetESCI, qid)),
			ItemID:      model.Ptr(builtin.ItemID(config.DatasetESCI, loc, pid)),
			LabelFamily: esciLabelFamily,
			Label:       label,
			Split:       builtin.StringValue(res.Value(rec, RoleSplit)),
		})
	}
	return out
}

// LoadESCI loads the Shopping Queries tables from opt.Dir. Products and
// examples are required in any encoding of esciExts.
func LoadESCI(ctx context.Context, s *sink.Sink, opt Options) (Stats, error) {
	start := time.Now()
	log := opt.log().With(zap.String("dataset", config.DatasetESCI))

	prodPath, err := esciTable(opt.Dir, esciProducts)
	if err != nil {
		return Stats{}, err
	}
	exPath, err := esciTable(opt.Dir, esciExamples)
	if err != nil {
		return Stats{}, err
	}

	sources := map[string]string{}
	if p, ok, err := firstExisting(opt.Dir, withExts(esciSources)...); err != nil {
		return Stats{}, fmt.Errorf("esci: %w", err)
	} else if ok {
		t, err := readTable(ctx, p, opt.Parser)
		if err != nil {
			return Stats{}, fmt.Errorf("esci: %w", err)
		}
		sources = ESCISources(t)
	}

	var st Stats
	err = readChunks(ctx, prodPath, opt.Parser, opt.chunkSize(), func(t records.Table) error {
		items, err := ESCIItems(t)
		if err != nil {
			return err
		}
		n, err := s.Items(ctx, items)
		st.Items += n
		return err
	})
	if err != nil {
		return st, fmt.Errorf("esci: %w", err)
	}

	seen := map[string]struct{}{}
	err = readChunks(ctx, exPath, opt.Parser, opt.chunkSize(), func(t records.Table) error {
		n, err := s.Queries(ctx, ESCIQueries(t, sources, seen))
		st.Queries += n
		if err != nil {
			return err
		}
		n, err = s.Labels(ctx, ESCILabels(t))
		st.Labels += n
		return err
	})
	if err != nil {
		return st, fmt.Errorf("esci: %w", err)
	}

	log.Info("stage=load ok", append(st.Fields(), zap.Duration("duration", time.Since(start)))...)
	return st, nil
}

func esciTable(dir, base string) (string, error) {
	p, ok, err := firstExisting(dir, withExts(base)...)
	if err != nil {
		return "", fmt.Errorf("esci: %w", err)
	}
	if ok {
		return p, nil
	}
	return "", fmt.Errorf("esci: %w: %s", ErrMissingSource, filepath.Join(dir, base+".{parquet,csv,jsonl,json}[.gz]"))
}

func withExts(base string) []string {
	out := make([]string, len(esciExts))
	for i, e := range esciExts {
		out[i] = base + e
	}
	return out
}
