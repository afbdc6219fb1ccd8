package server

// The card-mutation protocol. Every operation here runs inside a Store
// closure, so it sees a consistent room and either commits whole or leaves
// the room untouched. The conservation invariant (each of the 36 card
// names lives in exactly one of deck, discard pile, a hand, or a received
// gift) must hold on every exit path.

// drawCard pops the front of the deck into the acting player's hand and
// returns the drawn card name.
func drawCard(room *Room, playerID int) (string, error) {
	if room.Status != statusPlaying {
		return "", rejectf(codeWrongPhase, "drawing is not allowed while the room is %s", room.Status)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return "", err
	}
	if player.Seat != room.CurrentTurnPlayer {
		return "", rejectf(codeNotYourTurn, "it is seat %d's turn", room.CurrentTurnPlayer)
	}
	if len(room.Deck) == 0 {
		return "", rejectf(codeEmptyDeck, "the deck is empty")
	}
	card := room.Deck[0]
	room.Deck = room.Deck[1:]
	player.Hand = append(player.Hand, card)
	return card, nil
}

// discardCard moves the named card from the acting player's hand onto the
// board, advances the turn, and evaluates the round-driven transitions.
func discardCard(room *Room, playerID int, card string) error {
	if room.Status != statusPlaying {
		return rejectf(codeWrongPhase, "discarding is not allowed while the room is %s", room.Status)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	if player.Seat != room.CurrentTurnPlayer {
		return rejectf(codeNotYourTurn, "it is seat %d's turn", room.CurrentTurnPlayer)
	}
	index := indexOfCard(player.Hand, card)
	if index < 0 {
		return rejectf(codeCardNotInHand, "%q is not in your hand", card)
	}
	player.Hand = append(player.Hand[:index], player.Hand[index+1:]...)
	room.DiscardPile = append(room.DiscardPile, card)

	room.CurrentTurnPlayer = (room.CurrentTurnPlayer + 1) % activeSeats
	if room.CurrentTurnPlayer == 0 {
		room.RoundNumber++
	}
	applyRoundTransitions(room)
	return nil
}

// exchangeCards swaps one hand card for one board card positionally, so
// neither container changes length or shifts other entries. The two
// uniqueness guards reject any swap that would leave the same card visible
// in two places.
func exchangeCards(room *Room, playerID int, handCard, boardCard string) error {
	player, err := exchangeTurnPlayer(room, playerID)
	if err != nil {
		return err
	}
	handIndex := indexOfCard(player.Hand, handCard)
	if handIndex < 0 {
		return rejectf(codeCardNotInHand, "%q is not in your hand", handCard)
	}
	boardIndex := indexOfCard(room.DiscardPile, boardCard)
	if boardIndex < 0 {
		return rejectf(codeCardNotOnBoard, "%q is not on the board", boardCard)
	}
	if indexOfCard(room.DiscardPile, handCard) >= 0 {
		return rejectf(codeDuplicateCard, "%q already appears on the board", handCard)
	}
	for i := range room.Players {
		other := &room.Players[i]
		if other.ID == player.ID || other.Role != roleActive {
			continue
		}
		if indexOfCard(other.Hand, boardCard) >= 0 {
			return rejectf(codeDuplicateCard, "%q already appears in another hand", boardCard)
		}
	}

	player.Hand[handIndex] = boardCard
	room.DiscardPile[boardIndex] = handCard
	room.ExchangeLog = append(room.ExchangeLog, ExchangeEntry{
		PlayerID:  player.ID,
		Turn:      room.CurrentExchangeTurn,
		Action:    exchangeActionSwap,
		HandCard:  handCard,
		BoardCard: boardCard,
	})
	room.CurrentExchangeTurn++
	return nil
}

// skipExchange records an explicit pass; the turn advances either way.
func skipExchange(room *Room, playerID int) error {
	player, err := exchangeTurnPlayer(room, playerID)
	if err != nil {
		return err
	}
	room.ExchangeLog = append(room.ExchangeLog, ExchangeEntry{
		PlayerID: player.ID,
		Turn:     room.CurrentExchangeTurn,
		Action:   exchangeActionSkip,
	})
	room.CurrentExchangeTurn++
	return nil
}

func exchangeTurnPlayer(room *Room, playerID int) (*Player, error) {
	if room.Status != statusExchange {
		return nil, rejectf(codeWrongPhase, "the exchange phase is not active")
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return nil, err
	}
	if exchangeTurnsDone(room) {
		return nil, rejectf(codeNotYourTurn, "all exchange turns are done")
	}
	if player.Seat != room.CurrentExchangeTurn {
		return nil, rejectf(codeNotYourTurn, "it is seat %d's exchange turn", room.CurrentExchangeTurn)
	}
	return player, nil
}

// requireActivePlayer resolves a seated player. Spectators are rejected
// with their own code so the client can explain why the action is off
// limits rather than claiming the player does not exist.
func requireActivePlayer(room *Room, playerID int) (*Player, error) {
	for i := range room.Players {
		if room.Players[i].ID == playerID {
			if room.Players[i].Role != roleActive {
				return nil, rejectf(codeSpectator, "spectators cannot act in the game")
			}
			return &room.Players[i], nil
		}
	}
	return nil, rejectf(codePlayerNotFound, "player %d is not seated in this room", playerID)
}

func indexOfCard(cards []string, name string) int {
	for i, card := range cards {
		if card == name {
			return i
		}
	}
	return -1
}
