package server

import "testing"

func TestCastVoteRules(t *testing.T) {
	srv := newServer()
	room := seatRoom(t, srv)
	ada := seatPlayerID(t, room, 0)

	_, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
		return castVote(room, ada, 0)
	})
	if rule, ok := asRuleError(err); !ok || rule.Code != codeWrongPhase {
		t.Fatalf("expected wrong_phase before voting, got %v", err)
	}

	srv2 := newServer()
	room = roomInVoting(t, srv2)
	ada = seatPlayerID(t, room, 0)

	_, err = srv2.store.UpdateRoom(room.ID, func(room *Room) error {
		return castVote(room, ada, len(room.CardOptions))
	})
	if rule, ok := asRuleError(err); !ok || rule.Code != codeInvalidOption {
		t.Fatalf("expected invalid_option, got %v", err)
	}

	if _, err = srv2.store.UpdateRoom(room.ID, func(room *Room) error {
		return castVote(room, ada, 1)
	}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err = srv2.store.UpdateRoom(room.ID, func(room *Room) error {
		return castVote(room, ada, 2)
	})
	if rule, ok := asRuleError(err); !ok || rule.Code != codeAlreadyVoted {
		t.Fatalf("expected already_voted, got %v", err)
	}

	if room.Votes[0].CardText != room.CardOptions[1] {
		t.Fatalf("vote should record option text, got %q", room.Votes[0].CardText)
	}
}

func TestWinningCardIndexPlurality(t *testing.T) {
	room := &Room{CardOptions: []string{"A", "B", "C"}}
	room.Votes = []VoteEntry{
		{PlayerID: 1, CardIndex: 0},
		{PlayerID: 2, CardIndex: 0},
		{PlayerID: 3, CardIndex: 1},
		{PlayerID: 4, CardIndex: 2},
	}
	if got := winningCardIndex(room); got != 0 {
		t.Fatalf("plurality winner = %d, want 0", got)
	}
}

func TestWinningCardIndexTieBreaksLow(t *testing.T) {
	room := &Room{CardOptions: []string{"A", "B", "C"}}
	room.Votes = []VoteEntry{
		{PlayerID: 1, CardIndex: 2},
		{PlayerID: 2, CardIndex: 1},
		{PlayerID: 3, CardIndex: 2},
		{PlayerID: 4, CardIndex: 1},
	}
	if got := winningCardIndex(room); got != 1 {
		t.Fatalf("tie should break to lowest index, got %d", got)
	}
}

func TestWinningCardIndexNoVotes(t *testing.T) {
	room := &Room{CardOptions: []string{"A", "B", "C"}}
	if got := winningCardIndex(room); got != 0 {
		t.Fatalf("empty tally should pick index 0, got %d", got)
	}
}

func TestVotingResolvesWhenAllHaveVoted(t *testing.T) {
	srv := newServer()
	room := roomInVoting(t, srv)

	votes := []int{1, 1, 0, 1}
	for seat := 0; seat < activeSeats; seat++ {
		id := seatPlayerID(t, room, seat)
		index := votes[seat]
		if _, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
			return castVote(room, id, index)
		}); err != nil {
			t.Fatalf("vote seat %d: %v", seat, err)
		}
		_, moved, reason, err := srv.maybeResolveVoting(room.ID)
		if err != nil {
			t.Fatalf("maybe resolve: %v", err)
		}
		wantMoved := seat == activeSeats-1
		if moved != wantMoved {
			t.Fatalf("after seat %d moved=%v, want %v", seat, moved, wantMoved)
		}
		if moved && reason != "all_voted" {
			t.Fatalf("expected all_voted reason, got %s", reason)
		}
	}

	if room.Status != statusVotingResult {
		t.Fatalf("expected voting_result, got %s", room.Status)
	}
	if room.PurposeCard != room.CardOptions[1] {
		t.Fatalf("purpose card = %q, want option 1 %q", room.PurposeCard, room.CardOptions[1])
	}
	if len(room.Deck) != 24 {
		t.Fatalf("deck after deal = %d, want 24", len(room.Deck))
	}
	if len(room.DiscardPile) != 0 {
		t.Fatalf("board should be empty after deal, got %d", len(room.DiscardPile))
	}
	for seat := 0; seat < activeSeats; seat++ {
		player, _ := findSeat(room, seat)
		if len(player.Hand) != 3 {
			t.Fatalf("seat %d hand = %d cards, want 3", seat, len(player.Hand))
		}
	}
	if report := checkCardUniqueness(room); !report.Valid || len(report.Missing) != 0 {
		t.Fatalf("card state broken after deal: %+v", report)
	}
}

func TestVotingUnanimousReason(t *testing.T) {
	srv := newServer()
	room := roomInVoting(t, srv)

	_, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
		for seat := 0; seat < activeSeats; seat++ {
			if err := castVote(room, seatPlayerID(t, room, seat), 2); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("cast votes: %v", err)
	}
	room, moved, reason, err := srv.maybeResolveVoting(room.ID)
	if err != nil || !moved {
		t.Fatalf("resolve: moved=%v err=%v", moved, err)
	}
	if reason != "unanimous" {
		t.Fatalf("expected unanimous reason, got %s", reason)
	}
	if room.PurposeCard != room.CardOptions[2] {
		t.Fatalf("purpose card = %q, want option 2", room.PurposeCard)
	}
}

func TestVotingTimeoutResolvesPartialTally(t *testing.T) {
	srv := newServer()
	room := roomInVoting(t, srv)

	_, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
		if err := castVote(room, seatPlayerID(t, room, 0), 2); err != nil {
			return err
		}
		return castVote(room, seatPlayerID(t, room, 1), 2)
	})
	if err != nil {
		t.Fatalf("cast votes: %v", err)
	}

	room, moved, err := srv.resolveVotingByTimeout(room.ID)
	if err != nil || !moved {
		t.Fatalf("timeout resolve: moved=%v err=%v", moved, err)
	}
	if room.PurposeCard != room.CardOptions[2] {
		t.Fatalf("purpose card = %q, want option 2", room.PurposeCard)
	}

	_, moved, err = srv.resolveVotingByTimeout(room.ID)
	if err != nil {
		t.Fatalf("second timeout: %v", err)
	}
	if moved {
		t.Fatalf("stale timeout should be a no-op")
	}
}

func TestVotingTimeoutWithNoVotes(t *testing.T) {
	srv := newServer()
	room := roomInVoting(t, srv)

	room, moved, err := srv.resolveVotingByTimeout(room.ID)
	if err != nil || !moved {
		t.Fatalf("timeout resolve: moved=%v err=%v", moved, err)
	}
	if room.PurposeCard != room.CardOptions[0] {
		t.Fatalf("no votes should pick option 0, got %q", room.PurposeCard)
	}
}
