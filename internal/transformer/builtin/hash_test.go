package builtin

import (
	"testing"
)

func TestHashID_Deterministic(t *testing.T) {
	t.Parallel()

	a := HashID("abt_buy", "tablea", "a1")
	b := HashID("abt_buy", "tablea", "a1")
	if a != b {
		t.Fatalf("expected identical hashes; a=%q b=%q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected sha256 hex length 64, got %d (%q)", len(a), a)
	}
}

func TestHashID_KnownValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"a"}, "69fc94c033d1f48cef62e24c0833e6baac18b6282855d12124d25f4c0bb75ac5"},
		{[]string{"abt_buy", "tablea", "a1"}, "dc66fbe2a5bd17700b2f666032d6874d44965886be893b8709387e586a1492e3"},
	}
	for _, tt := range tests {
		if got := HashID(tt.parts...); got != tt.want {
			t.Fatalf("HashID(%q)=%q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestHashID_PartBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
	}{
		{"split point moved", []string{"ds", "a", "1"}, []string{"ds", "a1"}},
		{"trailing empty part", []string{"ds", "a1"}, []string{"ds", "ab", ""}},
		{"three vs three", []string{"ds", "a", "1"}, []string{"ds", "ab", ""}},
		{"concat ambiguity", []string{"ab", "c"}, []string{"a", "bc"}},
		{"empty vs absent", []string{"a"}, []string{"a", ""}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if HashID(tt.a...) == HashID(tt.b...) {
				t.Fatalf("HashID(%q) == HashID(%q)", tt.a, tt.b)
			}
		})
	}
}

func TestItemID_ScopeSeparatesSources(t *testing.T) {
	t.Parallel()

	if ItemID("abt_buy", "tablea", "1") == ItemID("abt_buy", "tableb", "1") {
		t.Fatalf("same native id on different sides must not collide")
	}
	if ItemID("esci", "us", "B0001") == ItemID("esci", "jp", "B0001") {
		t.Fatalf("same native id under different locales must not collide")
	}
	if ItemID("wdc", "", "7") == ItemID("cikm16", "", "7") {
		t.Fatalf("same native id in different datasets must not collide")
	}
	if QueryID("esci", "1") == ItemID("esci", "", "1") {
		t.Fatalf("query and item identities must not collide")
	}
}

func TestSessionQueryID_SeparateFromQueryID(t *testing.T) {
	t.Parallel()

	if SessionQueryID("cikm16", "5") == QueryID("cikm16", "5") {
		t.Fatalf("session 5 and query 5 must not share an identity")
	}
	if SessionQueryID("cikm16", "5") != SessionQueryID("cikm16", "5") {
		t.Fatalf("SessionQueryID must be deterministic")
	}
}
