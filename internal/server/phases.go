package server

import (
	"errors"
	"log"
	"time"
)

// statusOrder is the intended progression of a room. The exchange interlude
// loops back into playing once, so the list is documentation more than a
// lookup table; every transition re-checks its expected pre-state instead.
var statusOrder = []string{
	statusWaiting,
	statusCheckin,
	statusVoting,
	statusVotingResult,
	statusResonanceInitial,
	statusPlaying,
	statusExchange,
	statusResonanceFinal,
	statusGiftExchange,
	statusComplete,
}

// errSkipTransition aborts a conditional transition without surfacing an
// error: the exit condition simply is not met yet.
var errSkipTransition = errors.New("transition preconditions not met")

func normalizeStatus(status string) string {
	if status == statusCompletedAlias {
		return statusComplete
	}
	return status
}

func isKnownStatus(status string) bool {
	status = normalizeStatus(status)
	for _, known := range statusOrder {
		if known == status {
			return true
		}
	}
	return false
}

func isFinalPhase(status string) bool {
	return status == statusResonanceFinal || status == statusGiftExchange
}

func isTerminal(status string) bool {
	return normalizeStatus(status) == statusComplete
}

func setStatus(room *Room, status string) {
	setStatusAt(room, status, timeNowUTC())
}

func setStatusAt(room *Room, status string, at time.Time) {
	room.Status = status
	if at.IsZero() {
		at = timeNowUTC()
	}
	room.StatusChangedAt = at
}

// tryTransition moves the room from one status to another only if it still
// holds the expected pre-state. Losing the race to another writer is a
// success with moved=false: the room got where it was going either way.
// apply runs before the status flip and may return errSkipTransition to
// back out quietly when the exit condition does not hold.
func (s *Server) tryTransition(roomID, from, to string, apply func(room *Room) error) (*Room, bool, error) {
	moved := false
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		current := normalizeStatus(room.Status)
		if current != from {
			// Another writer got here first; treat as success.
			log.Printf("transition skipped room_id=%s from=%s to=%s current=%s", roomID, from, to, current)
			return nil
		}
		if apply != nil {
			if err := apply(room); err != nil {
				if errors.Is(err, errSkipTransition) {
					return nil
				}
				return err
			}
		}
		setStatus(room, to)
		moved = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return room, moved, nil
}

// maybeStartCheckin fires the waiting -> checkin transition once the
// fourth active player is seated. Safe to call after every join.
func (s *Server) maybeStartCheckin(roomID string) (*Room, bool, error) {
	return s.tryTransition(roomID, statusWaiting, statusCheckin, func(room *Room) error {
		if countActive(room) < activeSeats {
			return errSkipTransition
		}
		return nil
	})
}

// maybeStartVoting fires checkin -> voting once every seated player has
// checked in. The winning writer also fixes the theme-card options and the
// countdown anchor, both set exactly once.
func (s *Server) maybeStartVoting(roomID string, pickOptions func() []string) (*Room, bool, error) {
	return s.tryTransition(roomID, statusCheckin, statusVoting, func(room *Room) error {
		players := activePlayers(room)
		if len(players) < activeSeats {
			return errSkipTransition
		}
		for _, player := range players {
			if !player.HasCheckedIn {
				return errSkipTransition
			}
		}
		if len(room.CardOptions) == 0 {
			room.CardOptions = pickOptions()
		}
		if room.VotingStartedAt.IsZero() {
			room.VotingStartedAt = timeNowUTC()
		}
		return nil
	})
}

// advanceFromVotingResult ends the display-only pause.
func (s *Server) advanceFromVotingResult(roomID string) (*Room, bool, error) {
	return s.tryTransition(roomID, statusVotingResult, statusResonanceInitial, nil)
}

// maybeFinishResonance moves resonance_initial -> playing once every active
// player is flagged ready, clearing the per-phase ready flags on the way.
func (s *Server) maybeFinishResonance(roomID string) (*Room, bool, error) {
	return s.tryTransition(roomID, statusResonanceInitial, statusPlaying, func(room *Room) error {
		for _, player := range activePlayers(room) {
			if !player.ReadyForNextPhase {
				return errSkipTransition
			}
		}
		resetReadyFlags(room)
		return nil
	})
}

// forceFinishResonance is the seat-0 fast path: once enough active players
// have submitted a share, the leader may push the room into playing even if
// ready flags are still missing, so a stalled player cannot block forever.
func (s *Server) forceFinishResonance(roomID string, requesterID int) (*Room, bool, error) {
	return s.tryTransition(roomID, statusResonanceInitial, statusPlaying, func(room *Room) error {
		requester, ok := s.store.FindPlayer(room, requesterID)
		if !ok || requester.Role != roleActive || requester.Seat != 0 {
			return rejectf(codeNotLeader, "only the seat 0 player can force this transition")
		}
		active := countActive(room)
		shared := 0
		for _, share := range room.Shares {
			if share.Phase == sharePhaseInitial {
				shared++
			}
		}
		if active == 0 || shared*100 < s.cfg.FastPathPercent*active {
			return rejectf(codeNotReady, "only %d of %d players have shared", shared, active)
		}
		resetReadyFlags(room)
		return nil
	})
}

// returnFromExchange flips the one-time exchange interlude back into
// normal play after the last seat has acted.
func (s *Server) returnFromExchange(roomID string) (*Room, bool, error) {
	return s.tryTransition(roomID, statusExchange, statusPlaying, func(room *Room) error {
		if !exchangeTurnsDone(room) {
			return errSkipTransition
		}
		room.CurrentExchangeTurn = 0
		room.ExchangeCompleted = true
		return nil
	})
}

func resetReadyFlags(room *Room) {
	for i := range room.Players {
		room.Players[i].ReadyForNextPhase = false
	}
}

func exchangeTurnsDone(room *Room) bool {
	return room.CurrentExchangeTurn >= activeSeats
}

// applyRoundTransitions is evaluated after each discard wraps the turn
// counter: round 3 hands off to the exchange interlude once, and round 5
// (after the exchange) ends normal play.
func applyRoundTransitions(room *Room) {
	if room.Status != statusPlaying {
		return
	}
	if room.RoundNumber >= exchangeRoundThreshold && !room.ExchangeCompleted {
		room.CurrentExchangeTurn = 0
		setStatus(room, statusExchange)
		return
	}
	if room.RoundNumber >= finalRoundThreshold && room.ExchangeCompleted {
		room.FinalPhaseTurn = 0
		room.FinalPhaseStep = stepSharing
		setStatus(room, statusResonanceFinal)
	}
}
