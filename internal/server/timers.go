package server

import (
	"log"
	"time"
)

// Timed statuses are driven by a single per-room timer. Every scheduled
// callback carries the status it expects to find; a room that already
// moved on makes the callback a no-op, so a stale timer can never
// double-advance.

func (s *Server) scheduleStatusTimer(room *Room) {
	duration := s.statusDuration(room)
	if duration <= 0 {
		s.cancelStatusTimer(room.ID)
		return
	}
	s.timersMu.Lock()
	if existing, ok := s.timers[room.ID]; ok {
		existing.Stop()
	}
	timer := time.AfterFunc(duration, func() {
		s.autoAdvanceStatus(room.ID, room.Status)
	})
	s.timers[room.ID] = timer
	s.timersMu.Unlock()
}

func (s *Server) cancelStatusTimer(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if timer, ok := s.timers[roomID]; ok {
		timer.Stop()
		delete(s.timers, roomID)
	}
}

func (s *Server) statusDuration(room *Room) time.Duration {
	if room == nil {
		return 0
	}
	switch room.Status {
	case statusVoting:
		// The countdown is anchored to when voting opened, not to when
		// this timer was scheduled, so restored rooms keep their deadline.
		deadline := room.VotingStartedAt.Add(time.Duration(s.cfg.VoteCountdownSeconds) * time.Second)
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return time.Millisecond
		}
		return remaining
	case statusVotingResult:
		return time.Duration(s.cfg.VotingResultDelaySeconds) * time.Second
	case statusExchange:
		if exchangeTurnsDone(room) {
			return time.Duration(s.cfg.ExchangeReturnSeconds) * time.Second
		}
		return 0
	default:
		return 0
	}
}

func (s *Server) autoAdvanceStatus(roomID string, expectedStatus string) {
	var (
		room  *Room
		moved bool
		err   error
	)
	switch expectedStatus {
	case statusVoting:
		room, moved, err = s.resolveVotingByTimeout(roomID)
	case statusVotingResult:
		room, moved, err = s.advanceFromVotingResult(roomID)
	case statusExchange:
		room, moved, err = s.returnFromExchange(roomID)
	default:
		return
	}
	if err != nil {
		log.Printf("auto-advance failed room_id=%s from=%s error=%v", roomID, expectedStatus, err)
		return
	}
	if !moved {
		return
	}
	log.Printf("room auto-advanced room_id=%s from=%s to=%s", room.ID, expectedStatus, room.Status)
	if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "timeout"}); err != nil {
		log.Printf("auto-advance persist failed room_id=%s error=%v", room.ID, err)
	}
	if expectedStatus == statusVoting {
		if err := s.persistCardState(room); err != nil {
			log.Printf("auto-advance persist cards failed room_id=%s error=%v", room.ID, err)
		}
	}
	if isTerminal(room.Status) {
		s.cancelStatusTimer(room.ID)
	} else {
		s.scheduleStatusTimer(room)
	}
	s.broadcastRoomUpdate(room)
}
