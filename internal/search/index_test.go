package search

import (
	"testing"
)

// ---------- Options + defaultConfig ----------
func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.minRunes != 1 || def.stopwords != nil || def.maxDocs != 0 || def.minPrefix != 3 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}

	cfg := def
	WithMinRunes(10)(&cfg)
	if cfg.minRunes != 10 {
		t.Fatalf("WithMinRunes failed: %d", cfg.minRunes)
	}
	WithMinRunes(-5)(&cfg) // no-op
	if cfg.minRunes != 10 {
		t.Fatalf("negative minRunes should be ignored")
	}

	WithStopwords([]string{"  The ", "", "And"})(&cfg)
	if _, ok := cfg.stopwords["the"]; !ok {
		t.Fatalf("WithStopwords failed (missing 'the'): %#v", cfg.stopwords)
	}

	cfg2 := def
	WithStopwords(nil)(&cfg2)
	if cfg2.stopwords != nil {
		t.Fatalf("empty stopwords should remain nil")
	}

	WithMaxDocs(2)(&cfg)
	WithMaxDocs(0)(&cfg) // no-op
	if cfg.maxDocs != 2 {
		t.Fatalf("non-positive maxDocs should be ignored")
	}

	WithMinPrefix(0)(&cfg)
	WithMinScore(0.2)(&cfg)
	if cfg.minPrefix != 0 || cfg.minScore != 0.2 {
		t.Fatalf("prefix/score options not applied: %#v", cfg)
	}
}

func catalogDocs() []Document {
	return []Document{
		{ID: 1, Text: "Basmati Rice"},
		{ID: 2, Text: "Sona Masoori Rice"},
		{ID: 3, Text: "Toor Dal"},
		{ID: 4, Text: "Sunflower Oil 1L"},
		{ID: 5, Text: "   "},
	}
}

func TestTopK_RanksByJaccardAndCarriesIDs(t *testing.T) {
	idx := NewIndexFromDocuments(catalogDocs())

	res := idx.TopK("rice", 5)
	if len(res) != 2 {
		t.Fatalf("expected 2 rice products, got %+v", res)
	}
	// Shorter doc wins the tie-free ranking: 1/2 vs 1/3.
	if res[0].ID != 1 || res[1].ID != 2 {
		t.Fatalf("unexpected order: %+v", res)
	}
	if res[0].Score <= res[1].Score {
		t.Fatalf("scores not descending: %+v", res)
	}
}

func TestTopK_PrefixMatch(t *testing.T) {
	idx := NewIndexFromDocuments(catalogDocs())
	res := idx.TopK("basm", 3)
	if len(res) != 1 || res[0].ID != 1 {
		t.Fatalf("expected prefix to find Basmati, got %+v", res)
	}

	// Two-letter tokens never prefix-match.
	if res := idx.TopK("ba", 3); len(res) != 0 {
		t.Fatalf("expected no match for short prefix, got %+v", res)
	}

	noPrefix := NewIndexFromDocuments(catalogDocs(), WithMinPrefix(0))
	if res := noPrefix.TopK("basm", 3); len(res) != 0 {
		t.Fatalf("expected exact-only matching, got %+v", res)
	}
}

func TestTopK_EdgeCases(t *testing.T) {
	idx := NewIndexFromDocuments(catalogDocs(), WithStopwords([]string{"oil"}))
	if res := idx.TopK("", 3); res != nil {
		t.Fatalf("blank query should return nil")
	}
	if res := idx.TopK("!!!", 3); res != nil {
		t.Fatalf("punctuation-only query should return nil")
	}
	if res := idx.TopK("oil", 3); res != nil {
		t.Fatalf("stopword-only query should return nil, got %+v", res)
	}
	if res := idx.TopK("dal", 0); len(res) != 1 || res[0].ID != 3 {
		t.Fatalf("k<=0 should default, got %+v", res)
	}
	if res := NewIndexFromDocuments(nil).TopK("rice", 3); res != nil {
		t.Fatalf("empty index should return nil")
	}
	if res := NewIndexFromDocuments(catalogDocs(), WithMinScore(0.9)).TopK("rice", 3); res != nil {
		t.Fatalf("min score should filter weak matches, got %+v", res)
	}
}

func TestNewIndexFromStrings_MaxDocs(t *testing.T) {
	idx := NewIndexFromStrings([]string{"Atta 5kg", "Atta 10kg", "Atta 1kg"}, WithMaxDocs(2))
	res := idx.TopK("atta", 5)
	if len(res) != 2 {
		t.Fatalf("expected maxDocs to cap the index, got %d", len(res))
	}
	for _, r := range res {
		if r.ID < 1 || r.ID > 2 {
			t.Fatalf("unexpected positional id %d", r.ID)
		}
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := normalizeWhitespace("a \t\n  b"); got != "a b" {
		t.Fatalf("got %q", got)
	}
}
