package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"retailbench/internal/columns"
	"retailbench/internal/config"
	"retailbench/internal/model"
	"retailbench/internal/sink"
	"retailbench/internal/transformer/builtin"
	"retailbench/pkg/records"
)

// CIKM16 interaction logs and the label family each one produces.
var cikm16Logs = []struct {
	File   string
	Family string
}{
	{"train-item-views.csv", "view"},
	{"train-clicks.csv", "click"},
	{"train-purchases.csv", "purchase"},
}

const cikm16Split = "train"

// CIKM16Categories builds the product id -> category map. Ids are compared
// as strings; a later row for the same id wins.
func CIKM16Categories(t records.Table) map[string]string {
	res := columns.Resolve(t.Columns, CIKM16CategoryRules)
	if !res.Resolved(RoleID) || !res.Resolved(RoleCategory) {
		return nil
	}
	out := make(map[string]string, len(t.Rows))
	for _, rec := range t.Rows {
		id, ok := res.String(rec, RoleID)
		if !ok {
			continue
		}
		if c, ok := res.String(rec, RoleCategory); ok {
			out[id] = c
		}
	}
	return out
}

// CIKM16Items maps products.csv rows. The catalog is flat, so the item scope
// is empty.
func CIKM16Items(t records.Table, categories map[string]string) ([]model.Item, error) {
	res := columns.Resolve(t.Columns, CIKM16ProductRules)
	mapped := res.Columns()

	out := make([]model.Item, 0, len(t.Rows))
	for _, rec := range t.Rows {
		id, _ := res.String(rec, RoleID)
		price, parsed := builtin.ParsePriceCurrency(res.Value(rec, RolePrice))

		attrs, err := builtin.EncodeAttrs(builtin.LeftoverAttrs(t.Columns, rec, mapped...))
		if err != nil {
			return nil, fmt.Errorf("cikm16: item %q: %w", id, err)
		}

		var category *string
		if c, ok := categories[id]; ok {
			category = model.Ptr(c)
		}

		out = append(out, model.Item{
			ItemID:         builtin.ItemID(config.DatasetCIKM16, "", id),
			Dataset:        config.DatasetCIKM16,
			DatasetItemKey: id,
			Brand:          builtin.StringValue(res.Value(rec, RoleBrand)),
			Title:          builtin.NormalizeText(res.Value(rec, RoleTitle)),
			Description:    builtin.NormalizeText(res.Value(rec, RoleDescription)),
			Price:          price,
			Currency:       builtin.ResolveCurrency(price, parsed, nil),
			Category:       category,
			Attrs:          &attrs,
			Split:          model.Ptr(cikm16Split),
		})
	}
	return out, nil
}

// CIKM16Queries maps train-queries.csv rows. The native id is the query id
// column, or the normalized query text when the file has no id column.
func CIKM16Queries(t records.Table) []model.Query {
	res := columns.Resolve(t.Columns, CIKM16QueryRules)

	out := make([]model.Query, 0, len(t.Rows))
	for _, rec := range t.Rows {
		text := builtin.NormalizeText(res.Value(rec, RoleQueryText))

		var native string
		if res.Resolved(RoleQueryID) {
			native, _ = res.String(rec, RoleQueryID)
		} else if text != nil {
			native = *text
		}

		out = append(out, model.Query{
			QueryID:   builtin.QueryID(config.DatasetCIKM16, native),
			Dataset:   config.DatasetCIKM16,
			QueryText: text,
			Locale:    builtin.StringValue(res.Value(rec, RoleLocale)),
			QueryType: model.Ptr(queryType(res.Value(rec, RoleQueryless))),
			Source:    model.Ptr("train-queries"),
			SessionID: builtin.StringValue(res.Value(rec, RoleSession)),
			EventDate: builtin.StringValue(res.Value(rec, RoleEventDate)),
		})
	}
	return out
}

// queryType is "queryless" for a set queryless flag. Flags that are not a
// recognizable boolean count as set when non-empty.
func queryType(flag any) string {
	s, ok := flag.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "full"
	}
	if b, ok := builtin.ParseBoolLoose(s); ok && !b {
		return "full"
	}
	return "queryless"
}

// CIKM16Labels maps one chunk of an interaction log. A row's query is its
// query id, else the implicit query of its session (builtin.SessionQueryID,
// never equal to a real query's id); rows with neither (or with no item
// column) keep a null reference.
func CIKM16Labels(t records.Table, family string) []model.QueryItemLabel {
	res := columns.Resolve(t.Columns, CIKM16InteractionRules)

	out := make([]model.QueryItemLabel, 0, len(t.Rows))
	for _, rec := range t.Rows {
		var qid, iid *string
		if native, ok := res.String(rec, RoleQueryID); ok {
			qid = model.Ptr(builtin.QueryID(config.DatasetCIKM16, native))
		} else if session, ok := res.String(rec, RoleSession); ok {
			qid = model.Ptr(builtin.SessionQueryID(config.DatasetCIKM16, session))
		}
		if native, ok := res.String(rec, RoleItem); ok {
			iid = model.Ptr(builtin.ItemID(config.DatasetCIKM16, "", native))
		}

		out = append(out, model.QueryItemLabel{
			QueryID:     qid,
			ItemID:      iid,
			LabelFamily: family,
			Label:       "1",
			Position:    builtin.ParseIntLoose(res.Value(rec, RolePosition)),
			SessionID:   builtin.StringValue(res.Value(rec, RoleSession)),
			TimeframeMS: builtin.ParseIntLoose(res.Value(rec, RoleTimeframe)),
			Split:       model.Ptr(cikm16Split),
		})
	}
	return out
}

// LoadCIKM16 loads the DIGINETICA files from opt.Dir. Only products.csv is
// required; interaction logs are streamed in chunks of opt.ChunkSize rows.
func LoadCIKM16(ctx context.Context, s *sink.Sink, opt Options) (Stats, error) {
	start := time.Now()
	log := opt.log().With(zap.String("dataset", config.DatasetCIKM16))

	prodPath, err := requireFile(opt.Dir, "products.csv")
	if err != nil {
		return Stats{}, fmt.Errorf("cikm16: %w", err)
	}

	var categories map[string]string
	if p, ok, err := optionalFile(opt.Dir, "product-categories.csv"); err != nil {
		return Stats{}, fmt.Errorf("cikm16: %w", err)
	} else if ok {
		t, err := readTable(ctx, p, opt.Parser)
		if err != nil {
			return Stats{}, fmt.Errorf("cikm16: %w", err)
		}
		categories = CIKM16Categories(t)
	}

	var st Stats
	err = readChunks(ctx, prodPath, opt.Parser, opt.chunkSize(), func(t records.Table) error {
		items, err := CIKM16Items(t, categories)
		if err != nil {
			return err
		}
		n, err := s.Items(ctx, items)
		st.Items += n
		return err
	})
	if err != nil {
		return st, fmt.Errorf("cikm16: %w", err)
	}

	if p, ok, err := optionalFile(opt.Dir, "train-queries.csv"); err != nil {
		return st, fmt.Errorf("cikm16: %w", err)
	} else if ok {
		err := readChunks(ctx, p, opt.Parser, opt.chunkSize(), func(t records.Table) error {
			n, err := s.Queries(ctx, CIKM16Queries(t))
			st.Queries += n
			return err
		})
		if err != nil {
			return st, fmt.Errorf("cikm16: %w", err)
		}
	}

	for _, lg := range cikm16Logs {
		p, ok, err := optionalFile(opt.Dir, lg.File)
		if err != nil {
			return st, fmt.Errorf("cikm16: %w", err)
		}
		if !ok {
			log.Debug("log absent", zap.String("file", lg.File))
			continue
		}
		chunks := 0
		err = readChunks(ctx, p, opt.Parser, opt.chunkSize(), func(t records.Table) error {
			chunks++
			n, err := s.Labels(ctx, CIKM16Labels(t, lg.Family))
			st.Labels += n
			log.Debug("chunk ok", zap.String("family", lg.Family), zap.Int("chunk", chunks), zap.Int("rows", len(t.Rows)))
			return err
		})
		if err != nil {
			return st, fmt.Errorf("cikm16: %s: %w", lg.Family, err)
		}
	}

	log.Info("stage=load ok", append(st.Fields(), zap.Duration("duration", time.Since(start)))...)
	return st, nil
}
