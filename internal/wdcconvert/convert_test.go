package wdcconvert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailbench/pkg/records"
)

func TestParseVariantAndSplit(t *testing.T) {
	tests := []struct {
		in      string
		variant string
		split   string // "" means nil
	}{
		{"wdcproducts80cc20rnd000un_train_large.json.gz", "wdcproducts80cc20rnd000un", "train"},
		{"wdcproductsmulti50cc50rnd050un_valid_medium.json", "wdcproductsmulti50cc50rnd050un", "valid"},
		{"dir/wdcproducts80cc20rnd100un_gs.json.gz", "wdcproducts80cc20rnd100un", ""},
		{"offers_Test.json", "offers", "test"},
		{"plain.json", "plain", ""},
		{"a_trainer_dev.json", "a", "dev"},
	}
	for _, tt := range tests {
		v, s := ParseVariantAndSplit(tt.in)
		if v != tt.variant {
			t.Fatalf("%s: variant = %q, want %q", tt.in, v, tt.variant)
		}
		switch {
		case tt.split == "" && s != nil:
			t.Fatalf("%s: split = %q, want nil", tt.in, *s)
		case tt.split != "" && (s == nil || *s != tt.split):
			t.Fatalf("%s: split = %v, want %q", tt.in, s, tt.split)
		}
	}
}

func TestDetectKind(t *testing.T) {
	assert.Equal(t, KindMulti, DetectKind("wdcproductsmulti80cc20rnd000un", nil))
	assert.Equal(t, KindPairwise, DetectKind("WDCProducts80cc20rnd000un", nil))
	assert.Equal(t, KindPairwise, DetectKind("custom", records.Record{"id_left": "1"}))
	assert.Equal(t, KindMulti, DetectKind("custom", records.Record{"id": "1"}))
	assert.Equal(t, "multi", KindMulti.String())
}

func writeGz(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestConvert_Pairwise(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeGz(t, filepath.Join(src, "nested", "wdcproducts80cc20rnd000un_train_large.json.gz"),
		`{"id_left":1,"title_left":"TV","description_left":null,"price_left":"5.00","priceCurrency_left":"USD","brand_left":"Sony","id_right":2,"title_right":"TV, 2","price_right":null,"label":1}`+"\n"+
			`{"id_left":1,"title_left":"TV v2","id_right":3,"title_right":"Radio","label":0}`+"\n")

	res, err := Convert(context.Background(), src, out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 3, res.Offers)
	assert.Equal(t, 2, res.Pairs)

	dir := filepath.Join(out, "wdcproducts80cc20rnd000un_train_large")
	assert.Equal(t, []string{dir}, res.Dirs)
	assert.Equal(t,
		"id,title,description,price,pricecurrency,brand\n"+
			"1,TV v2,,,,\n"+
			"2,\"TV, 2\",,,,\n"+
			"3,Radio,,,,\n",
		readFile(t, filepath.Join(dir, OffersFile)))
	assert.Equal(t, "left_id,right_id,label\n1,2,1\n1,3,0\n", readFile(t, filepath.Join(dir, PairsFile)))

	// A second run appends rows without repeating the header.
	_, err = Convert(context.Background(), src, out, Options{})
	require.NoError(t, err)
	assert.Equal(t, "left_id,right_id,label\n1,2,1\n1,3,0\n1,2,1\n1,3,0\n", readFile(t, filepath.Join(dir, PairsFile)))
}

func TestConvert_Multi(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	body := `{"id":10,"title":"A","price":"1.5","priceCurrency":"EUR","label":77}` + "\n" +
		`{"id":11,"title":"B","label":77}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(src, "wdcproductsmulti80cc20rnd000un_test.json"), []byte(body), 0o644))

	res, err := Convert(context.Background(), src, out, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Offers)
	assert.Equal(t, 2, res.Links)

	dir := filepath.Join(out, "wdcproductsmulti80cc20rnd000un_test")
	assert.Equal(t, "id,title,description,price,pricecurrency,brand\n10,A,,1.5,EUR,\n11,B,,,,\n", readFile(t, filepath.Join(dir, OffersFile)))
	assert.Equal(t, "offer_id,entity_id\n10,77\n11,77\n", readFile(t, filepath.Join(dir, EntityFile)))
	assert.NoFileExists(t, filepath.Join(dir, PairsFile))
}

func TestConvert_NoJSONFiles(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "readme.txt"), []byte("x"), 0o644))

	_, err := Convert(context.Background(), src, t.TempDir(), Options{})
	assert.ErrorIs(t, err, ErrNoJSONFiles)
}

func TestIntLabel(t *testing.T) {
	for in, want := range map[any]string{nil: "", "1": "1", "0.0": "0", "true": "1", "x": ""} {
		if got := intLabel(in); got != want {
			t.Fatalf("intLabel(%v) = %q, want %q", in, got, want)
		}
	}
}
