package source

import (
	"context"
	"testing"
	"time"
)

func TestSynthetic_ProducesCanonicalSlate(t *testing.T) {
	matches, err := NewSynthetic(42).Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected a non-empty slate")
	}
	if len(matches) > maxSyntheticMatches {
		t.Fatalf("slate size %d exceeds cap %d", len(matches), maxSyntheticMatches)
	}

	seen := map[string]struct{}{}
	for i, m := range matches {
		if m.ID == "" || m.Teams == "" || m.League == "" {
			t.Fatalf("match %d has empty fields: %+v", i, m)
		}
		if _, dup := seen[m.ID]; dup {
			t.Fatalf("duplicate match id %s", m.ID)
		}
		seen[m.ID] = struct{}{}

		if len(m.Quotes) != len(syntheticBookmakers) {
			t.Fatalf("match %s has %d quotes, want %d", m.ID, len(m.Quotes), len(syntheticBookmakers))
		}
		books := map[string]struct{}{}
		for _, q := range m.Quotes {
			if q.Home <= 1 || q.Draw <= 1 || q.Away <= 1 {
				t.Fatalf("match %s quote %s has odds not > 1: %+v", m.ID, q.Bookmaker, q)
			}
			books[q.Bookmaker] = struct{}{}
		}
		if len(books) != len(m.Quotes) {
			t.Fatalf("match %s has duplicate bookmakers", m.ID)
		}
	}
}

func TestSynthetic_SameSeedSameSlate(t *testing.T) {
	ctx := context.Background()
	a, _ := NewSynthetic(7).Fetch(ctx)
	b, _ := NewSynthetic(7).Fetch(ctx)
	if len(a) != len(b) {
		t.Fatalf("slate sizes differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Teams != b[i].Teams || a[i].Quotes[0] != b[i].Quotes[0] {
			t.Fatalf("slates diverge at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSynthetic_ZeroSeedVariesAcrossGenerators(t *testing.T) {
	ctx := context.Background()
	a, _ := NewSynthetic(0).Fetch(ctx)
	time.Sleep(time.Millisecond)
	b, _ := NewSynthetic(0).Fetch(ctx)

	if len(a) == len(b) {
		same := true
		for i := range a {
			if a[i].ID != b[i].ID || a[i].Quotes[0] != b[i].Quotes[0] {
				same = false
				break
			}
		}
		if same {
			t.Fatal("zero-seed generators produced identical slates")
		}
	}
}

func TestNormalizeFeedMatch_RejectsMalformed(t *testing.T) {
	if _, ok := normalizeFeedMatch(feedMatch{ID: "", Quotes: []feedQuote{{Bookmaker: "BkA", Home: 2, Draw: 3, Away: 4}}}); ok {
		t.Fatal("expected rejection of missing id")
	}
	if _, ok := normalizeFeedMatch(feedMatch{ID: "m-1", Quotes: []feedQuote{{Bookmaker: "BkA", Home: 0.9, Draw: 3, Away: 4}}}); ok {
		t.Fatal("expected rejection when no quote is usable")
	}

	m, ok := normalizeFeedMatch(feedMatch{ID: "m-1", Teams: "A vs B", Quotes: []feedQuote{
		{Bookmaker: "BkA", Home: 2.1, Draw: 3.8, Away: 4.2},
		{Bookmaker: "", Home: 2.0, Draw: 3.5, Away: 4.0},
	}})
	if !ok {
		t.Fatal("expected acceptance with one usable quote")
	}
	if len(m.Quotes) != 1 || m.Quotes[0].Bookmaker != "BkA" {
		t.Fatalf("quotes = %+v, want single BkA quote", m.Quotes)
	}
}
