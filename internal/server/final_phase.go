package server

import "strings"

// The closing ceremony. Each seat in turn shares a final resonance, then
// receives one message gift from every other active player, then closes
// its turn with a reflection. After seat 3's reflection the room is done.

// shareFinalResonance records the acting seat's closing share and opens
// the gifting step for it. The share is carried by the percentage; text
// may be empty.
func shareFinalResonance(room *Room, playerID int, text string, percentage int) error {
	if room.Status != statusResonanceFinal {
		return rejectf(codeWrongPhase, "final sharing is not open while the room is %s", room.Status)
	}
	if room.FinalPhaseStep != stepSharing {
		return rejectf(codeWrongStep, "the current step is %s", room.FinalPhaseStep)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	if player.Seat != room.FinalPhaseTurn {
		return rejectf(codeNotYourTurn, "it is seat %d's turn to share", room.FinalPhaseTurn)
	}
	if player.HasSharedFinalResonance {
		return rejectf(codeWrongStep, "you have already shared this round")
	}
	if err := validatePercentage(percentage); err != nil {
		return err
	}
	player.HasSharedFinalResonance = true
	player.FinalResonanceText = text
	player.FinalResonancePercentage = percentage
	room.Shares = append(room.Shares, ShareEntry{
		PlayerID:   player.ID,
		Phase:      sharePhaseFinal,
		Percentage: percentage,
	})
	room.FinalPhaseStep = stepGifting
	setStatus(room, statusGiftExchange)
	return nil
}

// giveFinalGift delivers one message gift to the player whose turn it is.
// Card is optional; when set it must come from the giver's hand and moves
// with the gift, so the uniqueness scan keeps tracking it.
func giveFinalGift(room *Room, giverID, recipientID int, message, card string) error {
	if room.Status != statusGiftExchange {
		return rejectf(codeWrongPhase, "gifting is not open while the room is %s", room.Status)
	}
	if room.FinalPhaseStep != stepGifting {
		return rejectf(codeWrongStep, "the current step is %s", room.FinalPhaseStep)
	}
	giver, err := requireActivePlayer(room, giverID)
	if err != nil {
		return err
	}
	recipient, err := requireActivePlayer(room, recipientID)
	if err != nil {
		return err
	}
	if recipient.Seat != room.FinalPhaseTurn {
		return rejectf(codeNotRecipientTurn, "it is seat %d's turn to receive gifts", room.FinalPhaseTurn)
	}
	if giver.ID == recipient.ID {
		return rejectf(codeSelfGift, "you cannot gift yourself")
	}
	if giver.HasGivenFinalGift {
		return rejectf(codeAlreadyGifted, "you have already gifted this round")
	}
	if strings.TrimSpace(message) == "" {
		return rejectf(codeEmptyMessage, "the gift message is empty")
	}
	if card != "" {
		index := indexOfCard(giver.Hand, card)
		if index < 0 {
			return rejectf(codeCardNotInHand, "%q is not in your hand", card)
		}
		giver.Hand = append(giver.Hand[:index], giver.Hand[index+1:]...)
	}

	giver.HasGivenFinalGift = true
	recipient.FinalGiftsReceived = append(recipient.FinalGiftsReceived, FinalGift{
		FromPlayerID:   giver.ID,
		FromPlayerName: giver.Name,
		Message:        message,
		Card:           card,
	})
	room.Gifts = append(room.Gifts, GiftEntry{
		FromPlayerID: giver.ID,
		ToPlayerID:   recipient.ID,
		Message:      message,
	})

	if countGiversDone(room) >= countActive(room)-1 {
		room.FinalPhaseStep = stepReflection
	}
	return nil
}

// submitFinalReflection closes the acting seat's turn. Seats below 3 hand
// off to the next sharer with fresh gift flags; seat 3 ends the game.
func submitFinalReflection(room *Room, playerID int, text string) error {
	if room.Status != statusGiftExchange {
		return rejectf(codeWrongPhase, "reflection is not open while the room is %s", room.Status)
	}
	if room.FinalPhaseStep != stepReflection {
		return rejectf(codeWrongStep, "the current step is %s", room.FinalPhaseStep)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	if player.Seat != room.FinalPhaseTurn {
		return rejectf(codeNotYourTurn, "it is seat %d's turn to reflect", room.FinalPhaseTurn)
	}
	if strings.TrimSpace(text) == "" {
		return rejectf(codeEmptyMessage, "the reflection text is empty")
	}
	player.FinalReflectionText = text

	if room.FinalPhaseTurn >= activeSeats-1 {
		setStatus(room, statusComplete)
		return nil
	}
	room.FinalPhaseTurn++
	room.FinalPhaseStep = stepSharing
	for i := range room.Players {
		room.Players[i].HasGivenFinalGift = false
	}
	setStatus(room, statusResonanceFinal)
	return nil
}

func countGiversDone(room *Room) int {
	done := 0
	for i := range room.Players {
		if room.Players[i].Role == roleActive && room.Players[i].HasGivenFinalGift {
			done++
		}
	}
	return done
}
