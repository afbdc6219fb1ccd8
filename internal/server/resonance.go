package server

// checkIn flags the player as present during the checkin phase.
func checkIn(room *Room, playerID int) error {
	if room.Status != statusCheckin {
		return rejectf(codeWrongPhase, "checkin is not open while the room is %s", room.Status)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	player.HasCheckedIn = true
	return nil
}

// submitInitialShare records the player's opening resonance percentage.
// Re-submitting overwrites the previous value rather than erroring, so a
// retried request is harmless.
func submitInitialShare(room *Room, playerID, percentage int) error {
	if room.Status != statusResonanceInitial {
		return rejectf(codeWrongPhase, "sharing is not open while the room is %s", room.Status)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	if err := validatePercentage(percentage); err != nil {
		return err
	}
	for i := range room.Shares {
		if room.Shares[i].PlayerID == player.ID && room.Shares[i].Phase == sharePhaseInitial {
			room.Shares[i].Percentage = percentage
			return nil
		}
	}
	room.Shares = append(room.Shares, ShareEntry{
		PlayerID:   player.ID,
		Phase:      sharePhaseInitial,
		Percentage: percentage,
	})
	return nil
}

// markReady flags the player as ready to leave the initial resonance
// phase. The caller follows up with maybeFinishResonance.
func markReady(room *Room, playerID int) error {
	if room.Status != statusResonanceInitial {
		return rejectf(codeWrongPhase, "readying is not open while the room is %s", room.Status)
	}
	player, err := requireActivePlayer(room, playerID)
	if err != nil {
		return err
	}
	player.ReadyForNextPhase = true
	return nil
}
