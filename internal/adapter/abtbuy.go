package adapter

import (
	"context"
	"fmt"
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

// Abt-Buy side tags. Each side is its own merchant scope.
const (
	SideTableA = "tablea"
	SideTableB = "tableb"
)

// Column names assumed for the headerless Abt-Buy distribution.
var (
	abtTableAColumns  = []string{"id", "name", "description"}
	abtTableBColumns  = []string{"id", "name", "description", "manufacturer", "price"}
	abtMatchesColumns = []string{"tablea_id", "tableb_id"}
)

// AbtBuyItems maps one side table to items. Attrs carry every column the
// rules did not map.
func AbtBuyItems(side string, t records.Table) ([]model.Item, error) {
	res := columns.Resolve(t.Columns, AbtBuyItemRules)
	mapped := res.Columns()

	out := make([]model.Item, 0, len(t.Rows))
	for _, rec := range t.Rows {
		id, _ := res.String(rec, RoleID)
		price, parsed := builtin.ParsePriceCurrency(res.Value(rec, RolePrice))

		attrs, err := builtin.EncodeAttrs(builtin.LeftoverAttrs(t.Columns, rec, mapped...))
		if err != nil {
			return nil, fmt.Errorf("abt_buy: %s item %q: %w", side, id, err)
		}

		out = append(out, model.Item{
			ItemID:         builtin.ItemID(config.DatasetAbtBuy, side, id),
			Dataset:        config.DatasetAbtBuy,
			DatasetItemKey: side + ":" + id,
			Merchant:       model.Ptr(side),
			Site:           model.Ptr(side + ".com"),
			Brand:          builtin.StringValue(res.Value(rec, RoleBrand)),
			Title:          builtin.NormalizeText(res.Value(rec, RoleTitle)),
			Description:    builtin.NormalizeText(res.Value(rec, RoleDescription)),
			Price:          price,
			Currency:       builtin.ResolveCurrency(price, parsed, nil),
			Attrs:          &attrs,
		})
	}
	return out, nil
}

// AbtBuyPairs maps the gold matches file to pairs. The first column holds
// TableA ids and the second TableB ids, whatever they are called.
func AbtBuyPairs(t records.Table) ([]model.ItemItemPair, error) {
	if len(t.Rows) > 0 && len(t.Columns) < 2 {
		return nil, fmt.Errorf("abt_buy: matches file has %d column(s), want 2", len(t.Columns))
	}
	out := make([]model.ItemItemPair, 0, len(t.Rows))
	for _, rec := range t.Rows {
		left, _ := rec.String(t.Columns[0])
		right, _ := rec.String(t.Columns[1])
		out = append(out, model.ItemItemPair{
			LeftItemID:  builtin.ItemID(config.DatasetAbtBuy, SideTableA, left),
			RightItemID: builtin.ItemID(config.DatasetAbtBuy, SideTableB, right),
			Label:       "match",
			PairSource:  "gold",
		})
	}
	return out, nil
}

// LoadAbtBuy loads TableA.csv, TableB.csv and matches.csv from opt.Dir. All
// three are required. The files are tab separated and headerless in the
// usual distribution; both are detected per file unless set in opt.Parser.
func LoadAbtBuy(ctx context.Context, s *sink.Sink, opt Options) (Stats, error) {
	start := time.Now()
	log := opt.log().With(zap.String("dataset", config.DatasetAbtBuy))

	var paths [3]string
	for i, name := range []string{"TableA.csv", "TableB.csv", "matches.csv"} {
		p, err := requireFile(opt.Dir, name)
		if err != nil {
			return Stats{}, fmt.Errorf("abt_buy: %w", err)
		}
		paths[i] = p
	}

	ta, err := readAbtTable(ctx, paths[0], opt.Parser, abtTableAColumns)
	if err != nil {
		return Stats{}, fmt.Errorf("abt_buy: %w", err)
	}
	tb, err := readAbtTable(ctx, paths[1], opt.Parser, abtTableBColumns)
	if err != nil {
		return Stats{}, fmt.Errorf("abt_buy: %w", err)
	}
	tm, err := readAbtTable(ctx, paths[2], opt.Parser, abtMatchesColumns)
	if err != nil {
		return Stats{}, fmt.Errorf("abt_buy: %w", err)
	}

	itemsA, err := AbtBuyItems(SideTableA, ta)
	if err != nil {
		return Stats{}, err
	}
	itemsB, err := AbtBuyItems(SideTableB, tb)
	if err != nil {
		return Stats{}, err
	}
	pairs, err := AbtBuyPairs(tm)
	if err != nil {
		return Stats{}, err
	}

	var st Stats
	n, err := s.Items(ctx, append(itemsA, itemsB...))
	if err != nil {
		return st, fmt.Errorf("abt_buy: %w", err)
	}
	st.Items = n
	if st.Pairs, err = s.Pairs(ctx, pairs); err != nil {
		return st, fmt.Errorf("abt_buy: %w", err)
	}

	log.Info("stage=load ok", append(st.Fields(), zap.Duration("duration", time.Since(start)))...)
	return st, nil
}

// readAbtTable reads one Abt-Buy file, naming the columns fixed when the
// file has no header row.
func readAbtTable(ctx context.Context, path string, opt config.Options, fixed []string) (records.Table, error) {
	copt, err := csvOptions(path, opt)
	if err != nil {
		return records.Table{}, err
	}
	if _, ok := copt["has_header"]; !ok {
		hasHeader, err := probe.DetectHeader(path, copt.Rune("comma", '\t'))
		if err != nil {
			return records.Table{}, err
		}
		copt = copt.With("has_header", hasHeader)
	}
	if !copt.Bool("has_header", true) && len(copt.StringSlice("columns")) == 0 {
		copt = copt.With("columns", fixed)
	}
	return readTable(ctx, path, copt)
}
