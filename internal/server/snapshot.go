package server

import (
	"time"

	"resonance-circle/internal/deck"
)

// snapshot flattens a room into the wire payload pushed to every socket
// and returned from the room GET. Hands pass through deck.Dedupe so a
// corrupted row read back from storage never shows a doubled card.
func (s *Server) snapshot(room *Room) map[string]any {
	players := make([]map[string]any, 0, len(room.Players))
	for i := range room.Players {
		player := &room.Players[i]
		gifts := make([]map[string]any, 0, len(player.FinalGiftsReceived))
		for _, gift := range player.FinalGiftsReceived {
			entry := map[string]any{
				"from_player_id":   gift.FromPlayerID,
				"from_player_name": gift.FromPlayerName,
				"message":          gift.Message,
			}
			if gift.Card != "" {
				entry["card"] = gift.Card
			}
			gifts = append(gifts, entry)
		}
		players = append(players, map[string]any{
			"id":                         player.ID,
			"seat":                       player.Seat,
			"name":                       player.Name,
			"preferred_name":             player.PreferredName,
			"role":                       player.Role,
			"hand":                       deck.Dedupe(player.Hand),
			"is_connected":               player.IsConnected,
			"has_checked_in":             player.HasCheckedIn,
			"ready_for_next_phase":       player.ReadyForNextPhase,
			"has_shared_final_resonance": player.HasSharedFinalResonance,
			"final_resonance_text":       player.FinalResonanceText,
			"final_resonance_percentage": player.FinalResonancePercentage,
			"final_gifts_received":       gifts,
			"final_reflection_text":      player.FinalReflectionText,
			"has_given_final_gift":       player.HasGivenFinalGift,
		})
	}

	votes := make([]map[string]any, 0, len(room.Votes))
	for _, vote := range room.Votes {
		votes = append(votes, map[string]any{
			"player_id":  vote.PlayerID,
			"card_index": vote.CardIndex,
			"card_text":  vote.CardText,
		})
	}
	shares := make([]map[string]any, 0, len(room.Shares))
	for _, share := range room.Shares {
		shares = append(shares, map[string]any{
			"player_id":  share.PlayerID,
			"phase":      share.Phase,
			"percentage": share.Percentage,
		})
	}

	votingEndsAt := ""
	if room.Status == statusVoting && !room.VotingStartedAt.IsZero() {
		deadline := room.VotingStartedAt.Add(time.Duration(s.cfg.VoteCountdownSeconds) * time.Second)
		votingEndsAt = deadline.UTC().Format(time.RFC3339)
	}

	return map[string]any{
		"room_id":               room.ID,
		"join_code":             room.JoinCode,
		"status":                normalizeStatus(room.Status),
		"status_changed_at":     room.StatusChangedAt,
		"purpose_card":          room.PurposeCard,
		"card_options":          room.CardOptions,
		"voting_started_at":     room.VotingStartedAt,
		"voting_ends_at":        votingEndsAt,
		"current_turn_player":   room.CurrentTurnPlayer,
		"current_exchange_turn": room.CurrentExchangeTurn,
		"final_phase_turn":      room.FinalPhaseTurn,
		"final_phase_step":      room.FinalPhaseStep,
		"in_final_phase":        isFinalPhase(room.Status),
		"round_number":          room.RoundNumber,
		"exchange_completed":    room.ExchangeCompleted,
		"deck_count":            len(room.Deck),
		"board":                 append([]string(nil), room.DiscardPile...),
		"players":               players,
		"votes":                 votes,
		"shares":                shares,
		"can_join":              room.Status == statusWaiting && countActive(room) < activeSeats,
	}
}

// snapshotByID builds the snapshot with the store lock held, so a
// concurrent writer cannot interleave a half-applied mutation into the
// payload.
func (s *Server) snapshotByID(roomID string) (map[string]any, bool) {
	var snap map[string]any
	ok := s.store.ReadRoom(roomID, func(room *Room) {
		snap = s.snapshot(room)
	})
	return snap, ok
}

// historyFeed is the append-only activity view behind the history GET.
func historyFeed(room *Room) []map[string]any {
	feed := make([]map[string]any, 0, len(room.Gifts)+len(room.ExchangeLog))
	for _, entry := range room.ExchangeLog {
		item := map[string]any{
			"type":      "exchange",
			"player_id": entry.PlayerID,
			"turn":      entry.Turn,
			"action":    entry.Action,
		}
		if entry.Action == exchangeActionSwap {
			item["hand_card"] = entry.HandCard
			item["board_card"] = entry.BoardCard
		}
		feed = append(feed, item)
	}
	for _, gift := range room.Gifts {
		feed = append(feed, map[string]any{
			"type":           "gift",
			"from_player_id": gift.FromPlayerID,
			"to_player_id":   gift.ToPlayerID,
			"message":        gift.Message,
		})
	}
	return feed
}
