package qdrant

import (
	"sort"
	"testing"
)

func TestTokenizeAlphaNum(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Q3 Revenue-Report.pdf", []string{"q3", "revenue", "report", "pdf"}},
		{"hello   world", []string{"hello", "world"}},
		{"---", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := tokenizeAlphaNum(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("tokenize(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("tokenize(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

func TestEncodeSparseQueryDeterministic(t *testing.T) {
	a := encodeSparseQuery("deployment runbook for payments")
	b := encodeSparseQuery("deployment runbook for payments")

	if len(a.Indices) == 0 {
		t.Fatal("expected a non-empty sparse vector")
	}
	if len(a.Indices) != len(b.Indices) || len(a.Values) != len(b.Values) {
		t.Fatal("identical input must encode identically")
	}
	for i := range a.Indices {
		if a.Indices[i] != b.Indices[i] || a.Values[i] != b.Values[i] {
			t.Fatal("identical input must encode identically")
		}
	}
	if !sort.SliceIsSorted(a.Indices, func(i, j int) bool { return a.Indices[i] < a.Indices[j] }) {
		t.Fatal("indices must be sorted")
	}
}

func TestEncodeSparseChunkSaturatesRepeats(t *testing.T) {
	once := encodeSparseQuery("kubernetes")
	many := encodeSparseQuery("kubernetes kubernetes kubernetes kubernetes kubernetes")

	if len(once.Values) != 1 || len(many.Values) != 1 {
		t.Fatalf("expected single-term vectors, got %d/%d", len(once.Values), len(many.Values))
	}
	if many.Values[0] <= once.Values[0] {
		t.Fatal("repeated terms must still gain some weight")
	}
	// BM25 saturation: five repeats are worth far less than 5x.
	if many.Values[0] >= once.Values[0]*3 {
		t.Fatalf("term weight must saturate, got %v vs %v", many.Values[0], once.Values[0])
	}
}

func TestEncodeSparseChunkBoostsFilename(t *testing.T) {
	plain := encodeSparseChunk("quarterly numbers", "")
	boosted := encodeSparseChunk("quarterly numbers", "quarterly.xlsx")

	weightOf := func(v sparseVector, token string) float32 {
		idx := hashToken(token)
		for i, candidate := range v.Indices {
			if candidate == idx {
				return v.Values[i]
			}
		}
		return 0
	}

	if weightOf(boosted, "quarterly") <= weightOf(plain, "quarterly") {
		t.Fatal("filename tokens must boost matching terms")
	}
	if weightOf(boosted, "xlsx") == 0 {
		t.Fatal("filename-only tokens must be present")
	}
}

func TestEncodeSparseEmptyInput(t *testing.T) {
	v := encodeSparseQuery("")
	if len(v.Indices) != 0 || len(v.Values) != 0 {
		t.Fatalf("expected empty vector, got %v", v)
	}
}

func TestHashTokenNeverZero(t *testing.T) {
	for _, token := range []string{"a", "b", "longer-token", "0"} {
		if hashToken(token) == 0 {
			t.Fatalf("hash of %q must not be zero", token)
		}
	}
}
