package server

import (
	"fmt"
	"math/rand"

	"resonance-circle/internal/deck"
)

// IntegrityReport summarizes one conservation scan over a room's cards.
type IntegrityReport struct {
	Valid      bool     `json:"valid"`
	Total      int      `json:"total"`
	Duplicates []string `json:"duplicates,omitempty"`
	Missing    []string `json:"missing,omitempty"`
	Unknown    []string `json:"unknown,omitempty"`
}

// checkCardUniqueness scans every container a card can live in. A healthy
// room accounts for each of the 36 catalog names exactly once across the
// deck, the board, the hands, and the gifted cards.
func checkCardUniqueness(room *Room) IntegrityReport {
	catalog := deck.Catalog()
	known := make(map[string]bool, len(catalog))
	for _, name := range catalog {
		known[name] = true
	}

	seen := make(map[string]int, len(catalog))
	count := func(names []string) {
		for _, name := range names {
			seen[name]++
		}
	}
	count(room.Deck)
	count(room.DiscardPile)
	for i := range room.Players {
		count(room.Players[i].Hand)
		for _, gift := range room.Players[i].FinalGiftsReceived {
			if gift.Card != "" {
				seen[gift.Card]++
			}
		}
	}

	report := IntegrityReport{Valid: true}
	for name, occurrences := range seen {
		report.Total += occurrences
		if !known[name] {
			report.Unknown = append(report.Unknown, name)
			continue
		}
		if occurrences > 1 {
			report.Duplicates = append(report.Duplicates, name)
		}
	}
	for _, name := range catalog {
		if seen[name] == 0 {
			report.Missing = append(report.Missing, name)
		}
	}
	if len(report.Duplicates) > 0 || len(report.Unknown) > 0 {
		report.Valid = false
	}
	return report
}

// replenishBoard tops the board up to the target size from random deck
// cards. Refusing to run on a broken room keeps the scan meaningful: a
// duplicate would otherwise multiply.
func replenishBoard(room *Room, target int) (int, error) {
	if room.Status != statusPlaying && room.Status != statusExchange {
		return 0, rejectf(codeWrongPhase, "the board cannot be replenished while the room is %s", room.Status)
	}
	report := checkCardUniqueness(room)
	if !report.Valid {
		return 0, fmt.Errorf("card state is inconsistent: %d duplicates, %d unknown", len(report.Duplicates), len(report.Unknown))
	}
	moved := 0
	for len(room.DiscardPile) < target && len(room.Deck) > 0 {
		pick := rand.Intn(len(room.Deck))
		card := room.Deck[pick]
		room.Deck = append(room.Deck[:pick], room.Deck[pick+1:]...)
		room.DiscardPile = append(room.DiscardPile, card)
		moved++
	}
	return moved, nil
}
