// Package deck holds the fixed card vocabulary and the pure deck
// operations: shuffling, dealing and display-side deduplication.
package deck

import (
	"fmt"
	"math/rand"
)

const (
	// CatalogSize is the number of value cards in play; the conservation
	// invariant counts exactly this many names across all containers.
	CatalogSize = 36
	// ThemeCount is the number of theme cards available for voting.
	ThemeCount = 10
	// HandSize is the per-player deal.
	HandSize = 3
	// DealCount is the number of hands dealt from the front of the deck.
	DealCount = 4
)

var valueCards = []string{
	"Acceptance",
	"Adventure",
	"Authenticity",
	"Balance",
	"Belonging",
	"Compassion",
	"Connection",
	"Courage",
	"Creativity",
	"Curiosity",
	"Discipline",
	"Empathy",
	"Fairness",
	"Faith",
	"Freedom",
	"Generosity",
	"Gratitude",
	"Growth",
	"Harmony",
	"Honesty",
	"Hope",
	"Humility",
	"Humor",
	"Independence",
	"Joy",
	"Kindness",
	"Loyalty",
	"Openness",
	"Patience",
	"Peace",
	"Resilience",
	"Respect",
	"Responsibility",
	"Trust",
	"Wisdom",
	"Wonder",
}

var themeCards = []string{
	"Deep Listening",
	"Shared Purpose",
	"Mutual Trust",
	"Creative Flow",
	"Honest Dialogue",
	"Quiet Courage",
	"New Beginnings",
	"Letting Go",
	"Common Ground",
	"Future Selves",
}

// ValidateCatalog checks the fixed catalogs at startup. A violation is a
// build defect, not a runtime condition, so callers should abort on error.
func ValidateCatalog() error {
	if len(valueCards) != CatalogSize {
		return fmt.Errorf("value card catalog has %d cards, want %d", len(valueCards), CatalogSize)
	}
	if name, ok := firstDuplicate(valueCards); ok {
		return fmt.Errorf("value card catalog contains duplicate %q", name)
	}
	if len(themeCards) != ThemeCount {
		return fmt.Errorf("theme card catalog has %d cards, want %d", len(themeCards), ThemeCount)
	}
	if name, ok := firstDuplicate(themeCards); ok {
		return fmt.Errorf("theme card catalog contains duplicate %q", name)
	}
	return nil
}

// Catalog returns a copy of the full value-card catalog in fixed order.
func Catalog() []string {
	out := make([]string, len(valueCards))
	copy(out, valueCards)
	return out
}

// Themes returns a copy of the theme-card catalog.
func Themes() []string {
	out := make([]string, len(themeCards))
	copy(out, themeCards)
	return out
}

// Shuffle returns a uniformly shuffled copy of the value-card catalog and
// re-validates the result. A post-shuffle violation means the shuffle itself
// is broken, which is unrecoverable.
func Shuffle() []string {
	out := Catalog()
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if err := validateDeck(out); err != nil {
		panic(fmt.Sprintf("shuffle produced invalid deck: %v", err))
	}
	return out
}

// ThemeOptions returns count theme cards drawn at random without repeats.
func ThemeOptions(count int) []string {
	options := Themes()
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	if count > len(options) {
		count = len(options)
	}
	return options[:count]
}

// Deal slices the front of a full 36-card deck into four 3-card hands and
// returns the 24-card remainder. The input deck must be a complete unique
// deck; the dealt hands and remainder are verified to be disjoint.
func Deal(cards []string) (hands [DealCount][]string, rest []string, err error) {
	if err := validateDeck(cards); err != nil {
		return hands, nil, err
	}
	for i := 0; i < DealCount; i++ {
		hand := make([]string, HandSize)
		copy(hand, cards[i*HandSize:(i+1)*HandSize])
		hands[i] = hand
	}
	rest = make([]string, len(cards)-DealCount*HandSize)
	copy(rest, cards[DealCount*HandSize:])

	dealt := make(map[string]struct{}, DealCount*HandSize)
	for _, hand := range hands {
		for _, name := range hand {
			dealt[name] = struct{}{}
		}
	}
	for _, name := range rest {
		if _, ok := dealt[name]; ok {
			return hands, nil, fmt.Errorf("deal left %q in both a hand and the deck", name)
		}
	}
	return hands, rest, nil
}

// Dedupe returns the sequence with first-occurrence-wins semantics. The
// realtime channel can momentarily show a card twice mid-write; this keeps
// the displayed hand stable until the next reconciliation.
func Dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func validateDeck(cards []string) error {
	if len(cards) != CatalogSize {
		return fmt.Errorf("deck has %d cards, want %d", len(cards), CatalogSize)
	}
	if name, ok := firstDuplicate(cards); ok {
		return fmt.Errorf("deck contains duplicate %q", name)
	}
	return nil
}

func firstDuplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			return name, true
		}
		seen[name] = struct{}{}
	}
	return "", false
}
