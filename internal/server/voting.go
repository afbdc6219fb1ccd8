package server

import (
	"resonance-circle/internal/deck"
)

// castVote records a player's single, immutable vote for one of the
// room's theme-card options.
func castVote(room *Room, playerID, cardIndex int) error {
	if room.Status != statusVoting {
		return rejectf(codeWrongPhase, "voting is not open while the room is %s", room.Status)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	if cardIndex < 0 || cardIndex >= len(room.CardOptions) {
		return rejectf(codeInvalidOption, "card index %d is not one of the %d options", cardIndex, len(room.CardOptions))
	}
	for _, vote := range room.Votes {
		if vote.PlayerID == player.ID {
			return rejectf(codeAlreadyVoted, "you have already voted")
		}
	}
	room.Votes = append(room.Votes, VoteEntry{
		PlayerID:  player.ID,
		CardIndex: cardIndex,
		CardText:  room.CardOptions[cardIndex],
	})
	return nil
}

func allActiveVoted(room *Room) bool {
	players := activePlayers(room)
	if len(players) == 0 {
		return false
	}
	for _, player := range players {
		voted := false
		for _, vote := range room.Votes {
			if vote.PlayerID == player.ID {
				voted = true
				break
			}
		}
		if !voted {
			return false
		}
	}
	return true
}

func votesUnanimous(room *Room) bool {
	if len(room.Votes) == 0 {
		return false
	}
	first := room.Votes[0].CardIndex
	for _, vote := range room.Votes[1:] {
		if vote.CardIndex != first {
			return false
		}
	}
	return true
}

// winningCardIndex tallies the cast votes by plurality with a lowest-index
// tie break. An empty tally also resolves to index 0, so a countdown that
// expires with no votes still picks a theme deterministically.
func winningCardIndex(room *Room) int {
	counts := make(map[int]int, len(room.CardOptions))
	for _, vote := range room.Votes {
		counts[vote.CardIndex]++
	}
	winner := 0
	best := -1
	for index := range room.CardOptions {
		if counts[index] > best {
			winner = index
			best = counts[index]
		}
	}
	return winner
}

// resolveVotingLocked settles the vote: it fixes the purpose card, deals
// the opening hands from the room's full deck, clears the board, and moves
// the room to the result pause. Callers run it inside an UpdateRoom
// closure with the status==voting guard already checked.
func resolveVotingLocked(room *Room) error {
	winner := winningCardIndex(room)
	if winner < 0 || winner >= len(room.CardOptions) {
		return rejectf(codeInvalidOption, "no card options to resolve")
	}
	hands, rest, err := deck.Deal(room.Deck)
	if err != nil {
		return err
	}
	for seat := 0; seat < activeSeats; seat++ {
		player, ok := findSeat(room, seat)
		if !ok {
			return rejectf(codePlayerNotFound, "no player at seat %d", seat)
		}
		player.Hand = hands[seat]
	}
	room.PurposeCard = room.CardOptions[winner]
	room.Deck = rest
	room.DiscardPile = make([]string, 0)
	setStatus(room, statusVotingResult)
	return nil
}

// maybeResolveVoting resolves as soon as every active player has voted;
// unanimity is just the special case where the tally needs no tie break.
func (s *Server) maybeResolveVoting(roomID string) (*Room, bool, string, error) {
	reason := "all_voted"
	room, moved, err := s.tryTransitionWith(roomID, statusVoting, func(room *Room) error {
		if !allActiveVoted(room) {
			return errSkipTransition
		}
		if votesUnanimous(room) {
			reason = "unanimous"
		}
		return resolveVotingLocked(room)
	})
	return room, moved, reason, err
}

// resolveVotingByTimeout settles by plurality when the shared countdown
// expires, no matter how many votes are in.
func (s *Server) resolveVotingByTimeout(roomID string) (*Room, bool, error) {
	return s.tryTransitionWith(roomID, statusVoting, resolveVotingLocked)
}

// tryTransitionWith is tryTransition for transitions whose apply function
// sets the new status itself (voting resolution picks voting_result while
// also dealing hands in the same commit).
func (s *Server) tryTransitionWith(roomID, from string, apply func(room *Room) error) (*Room, bool, error) {
	moved := false
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if normalizeStatus(room.Status) != from {
			return nil
		}
		if err := apply(room); err != nil {
			if err == errSkipTransition {
				return nil
			}
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return room, moved, nil
}
