package deck

import (
	"testing"
)

func TestValidateCatalog(t *testing.T) {
	if err := ValidateCatalog(); err != nil {
		t.Fatalf("catalog invalid: %v", err)
	}
	if len(Catalog()) != CatalogSize {
		t.Fatalf("expected %d value cards, got %d", CatalogSize, len(Catalog()))
	}
	if len(Themes()) != ThemeCount {
		t.Fatalf("expected %d theme cards, got %d", ThemeCount, len(Themes()))
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	catalog := make(map[string]struct{}, CatalogSize)
	for _, name := range Catalog() {
		catalog[name] = struct{}{}
	}
	for i := 0; i < 50; i++ {
		shuffled := Shuffle()
		if len(shuffled) != CatalogSize {
			t.Fatalf("shuffle returned %d cards, want %d", len(shuffled), CatalogSize)
		}
		seen := make(map[string]struct{}, CatalogSize)
		for _, name := range shuffled {
			if _, ok := catalog[name]; !ok {
				t.Fatalf("shuffle produced unknown card %q", name)
			}
			if _, ok := seen[name]; ok {
				t.Fatalf("shuffle produced duplicate card %q", name)
			}
			seen[name] = struct{}{}
		}
	}
}

func TestShuffleChangesOrder(t *testing.T) {
	original := Catalog()
	identical := 0
	for i := 0; i < 20; i++ {
		shuffled := Shuffle()
		same := true
		for j := range shuffled {
			if shuffled[j] != original[j] {
				same = false
				break
			}
		}
		if same {
			identical++
		}
	}
	if identical == 20 {
		t.Fatalf("shuffle never changed card order across 20 runs")
	}
}

func TestDealDisjointness(t *testing.T) {
	hands, rest, err := Deal(Shuffle())
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	if len(rest) != CatalogSize-DealCount*HandSize {
		t.Fatalf("expected %d cards left in deck, got %d", CatalogSize-DealCount*HandSize, len(rest))
	}
	union := make(map[string]struct{}, CatalogSize)
	total := 0
	for i, hand := range hands {
		if len(hand) != HandSize {
			t.Fatalf("hand %d has %d cards, want %d", i, len(hand), HandSize)
		}
		for _, name := range hand {
			union[name] = struct{}{}
			total++
		}
	}
	for _, name := range rest {
		union[name] = struct{}{}
		total++
	}
	if total != CatalogSize || len(union) != CatalogSize {
		t.Fatalf("deal lost or duplicated cards: %d dealt, %d unique", total, len(union))
	}
}

func TestDealOrderIsPositional(t *testing.T) {
	cards := Catalog()
	hands, _, err := Deal(cards)
	if err != nil {
		t.Fatalf("deal failed: %v", err)
	}
	for i := 0; i < DealCount; i++ {
		for j := 0; j < HandSize; j++ {
			if hands[i][j] != cards[i*HandSize+j] {
				t.Fatalf("hand %d slot %d = %q, want %q", i, j, hands[i][j], cards[i*HandSize+j])
			}
		}
	}
}

func TestDealRejectsInvalidDeck(t *testing.T) {
	if _, _, err := Deal(Catalog()[:35]); err == nil {
		t.Fatalf("expected error for short deck")
	}
	cards := Catalog()
	cards[1] = cards[0]
	if _, _, err := Deal(cards); err == nil {
		t.Fatalf("expected error for duplicate card")
	}
}

func TestDedupeFirstOccurrenceWins(t *testing.T) {
	in := []string{"Trust", "Hope", "Trust", "Joy", "Hope"}
	out := Dedupe(in)
	want := []string{"Trust", "Hope", "Joy"}
	if len(out) != len(want) {
		t.Fatalf("expected %d cards, got %v", len(want), out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, out)
		}
	}
}

func TestThemeOptionsUnique(t *testing.T) {
	options := ThemeOptions(3)
	if len(options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(options))
	}
	seen := map[string]struct{}{}
	for _, option := range options {
		if _, ok := seen[option]; ok {
			t.Fatalf("duplicate option %q", option)
		}
		seen[option] = struct{}{}
	}
}
