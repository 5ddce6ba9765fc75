// Package wdcconvert turns the WDC Products JSON-lines distribution into the
// CSV layout the wdc adapter reads: one directory per source file holding
// offers.csv plus pairs.csv (pairwise files) or offer_to_entity.csv
// (multi-class files).
package wdcconvert

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"retailbench/internal/config"
	"retailbench/internal/logger"
	"retailbench/internal/parser"
	jsonparser "retailbench/internal/parser/json"
	"retailbench/pkg/records"
)

// ErrNoJSONFiles is returned when the source tree holds no JSON files.
var ErrNoJSONFiles = errors.New("wdcconvert: no JSON files found")

// Kind is the layout of one source file.
type Kind int

const (
	KindPairwise Kind = iota
	KindMulti
)

func (k Kind) String() string {
	if k == KindMulti {
		return "multi"
	}
	return "pairwise"
}

// Output file names and headers.
const (
	OffersFile = "offers.csv"
	PairsFile  = "pairs.csv"
	EntityFile = "offer_to_entity.csv"
)

var (
	offerHeader  = []string{"id", "title", "description", "price", "pricecurrency", "brand"}
	pairHeader   = []string{"left_id", "right_id", "label"}
	entityHeader = []string{"offer_id", "entity_id"}
)

var splitVocab = map[string]bool{"train": true, "valid": true, "validation": true, "test": true, "dev": true}

// ParseVariantAndSplit reads a WDC file name such as
// "wdcproducts80cc20rnd000un_train_large.json.gz". The variant is the part
// before the first underscore; the split is the first later token in the
// split vocabulary, or nil.
func ParseVariantAndSplit(filename string) (variant string, split *string) {
	parts := strings.Split(Stem(filename), "_")
	variant = parts[0]
	for _, tok := range parts[1:] {
		low := strings.ToLower(tok)
		if splitVocab[low] {
			return variant, &low
		}
	}
	return variant, nil
}

// Stem strips the directory and a ".json" or ".json.gz" suffix.
func Stem(filename string) string {
	base := filepath.Base(filename)
	for _, suf := range []string{".json.gz", ".json"} {
		if strings.HasSuffix(strings.ToLower(base), suf) {
			return base[:len(base)-len(suf)]
		}
	}
	return base
}

// DetectKind classifies a file by its variant name, falling back to the keys
// of its first record: "*_left" keys mean pairwise.
func DetectKind(variant string, first records.Record) Kind {
	v := strings.ToLower(variant)
	switch {
	case strings.HasPrefix(v, "wdcproductsmulti"):
		return KindMulti
	case strings.HasPrefix(v, "wdcproducts"):
		return KindPairwise
	}
	for k := range first {
		if strings.HasSuffix(k, "_left") {
			return KindPairwise
		}
	}
	return KindMulti
}

// Options configures Convert.
type Options struct {
	Logger *zap.Logger
}

// Result counts what Convert wrote.
type Result struct {
	Files  int
	Offers int
	Pairs  int
	Links  int
	Dirs   []string
}

// Convert walks src for *.json and *.json.gz files and converts each into
// <outBase>/<file stem>/. Existing CSVs are appended to; headers are written
// only when a file is created.
func Convert(ctx context.Context, src, outBase string, opt Options) (Result, error) {
	log := logger.OrNop(opt.Logger)
	start := time.Now()

	files, err := jsonFiles(src)
	if err != nil {
		return Result{}, err
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoJSONFiles, src)
	}

	var res Result
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		recs, err := readRecords(ctx, f)
		if err != nil {
			return res, fmt.Errorf("wdcconvert: %s: %w", f, err)
		}

		variant, split := ParseVariantAndSplit(f)
		var first records.Record
		if len(recs) > 0 {
			first = recs[0]
		}
		kind := DetectKind(variant, first)

		dir := filepath.Join(outBase, Stem(f))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("wdcconvert: %w", err)
		}

		var offers, pairs, links int
		switch kind {
		case KindPairwise:
			offers, pairs, err = convertPairwise(recs, dir)
		default:
			offers, links, err = convertMulti(recs, dir)
		}
		if err != nil {
			return res, fmt.Errorf("wdcconvert: %s: %w", f, err)
		}

		res.Files++
		res.Offers += offers
		res.Pairs += pairs
		res.Links += links
		res.Dirs = append(res.Dirs, dir)

		fields := []zap.Field{
			zap.String("file", filepath.Base(f)),
			zap.String("variant", variant),
			zap.Stringer("kind", kind),
			zap.Int("offers", offers),
			zap.Int("pairs", pairs),
			zap.Int("links", links),
		}
		if split != nil {
			fields = append(fields, zap.String("split", *split))
		}
		log.Info("convert ok", fields...)
	}

	log.Info("stage=convert done", zap.Int("files", res.Files), zap.Duration("duration", time.Since(start)))
	return res, nil
}

func jsonFiles(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		low := strings.ToLower(d.Name())
		if strings.HasSuffix(low, ".json") || strings.HasSuffix(low, ".json.gz") {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("wdcconvert: walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

func readRecords(ctx context.Context, path string) ([]records.Record, error) {
	rc, err := parser.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []records.Record
	opt := config.Options{"header_map": map[string]string{"priceCurrency": "pricecurrency"}}
	err = jsonparser.StreamObjects(ctx, rc, opt, func(rec records.Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// convertPairwise writes the distinct offers of both sides (first position,
// last values) and one pair row per record.
func convertPairwise(recs []records.Record, dir string) (offers, pairs int, err error) {
	byID := map[string][]string{}
	var order []string
	addOffer := func(rec records.Record, side string) string {
		id := cell(rec["id_"+side])
		row := []string{
			id,
			cell(rec["title_"+side]),
			cell(rec["description_"+side]),
			cell(rec["price_"+side]),
			cell(pick(rec, "priceCurrency_"+side, "pricecurrency_"+side)),
			cell(rec["brand_"+side]),
		}
		if _, ok := byID[id]; !ok {
			order = append(order, id)
		}
		byID[id] = row
		return id
	}

	pairRows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		left := addOffer(rec, "left")
		right := addOffer(rec, "right")
		pairRows = append(pairRows, []string{left, right, intLabel(rec["label"])})
	}

	offerRows := make([][]string, 0, len(order))
	for _, id := range order {
		offerRows = append(offerRows, byID[id])
	}

	if err := appendCSV(filepath.Join(dir, OffersFile), offerHeader, offerRows); err != nil {
		return 0, 0, err
	}
	if err := appendCSV(filepath.Join(dir, PairsFile), pairHeader, pairRows); err != nil {
		return 0, 0, err
	}
	return len(offerRows), len(pairRows), nil
}

// convertMulti writes every record as an offer and, when records carry a
// cluster ("label" or "cluster_id"), one offer-to-entity row each. Offers
// always get the full offer header so the wdc adapter accepts the file.
func convertMulti(recs []records.Record, dir string) (offers, links int, err error) {
	entityKey := ""
	for _, rec := range recs {
		if rec["label"] != nil {
			entityKey = "label"
			break
		}
		if entityKey == "" && rec["cluster_id"] != nil {
			entityKey = "cluster_id"
		}
	}

	offerRows := make([][]string, 0, len(recs))
	var linkRows [][]string
	for _, rec := range recs {
		row := make([]string, len(offerHeader))
		for i, c := range offerHeader {
			row[i] = cell(rec[c])
		}
		offerRows = append(offerRows, row)
		if entityKey != "" {
			linkRows = append(linkRows, []string{cell(rec["id"]), cell(rec[entityKey])})
		}
	}

	if err := appendCSV(filepath.Join(dir, OffersFile), offerHeader, offerRows); err != nil {
		return 0, 0, err
	}
	if entityKey != "" {
		if err := appendCSV(filepath.Join(dir, EntityFile), entityHeader, linkRows); err != nil {
			return 0, 0, err
		}
	}
	return len(offerRows), len(linkRows), nil
}

// appendCSV appends rows to path, writing header first when the file is new.
func appendCSV(path string, header []string, rows [][]string) (err error) {
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(header); err != nil {
			return err
		}
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// pick returns the first non-nil value among keys.
func pick(rec records.Record, keys ...string) any {
	for _, k := range keys {
		if v := rec[k]; v != nil {
			return v
		}
	}
	return nil
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// intLabel renders a pair label as an integer; absent or non-numeric labels
// are empty.
func intLabel(v any) string {
	s := strings.TrimSpace(cell(v))
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatInt(int64(f), 10)
	}
	if b, err := strconv.ParseBool(s); err == nil {
		if b {
			return "1"
		}
		return "0"
	}
	return ""
}
