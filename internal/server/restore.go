package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resonance-circle/internal/db"

	"github.com/google/uuid"
)

// restoreRoomFromDB rebuilds a live room from its persisted rows, so a
// restarted server can pick a circle back up where it left off. Players
// rejoin under their stored names and receive fresh auth tokens.
func (s *Server) restoreRoomFromDB(param string) (*Room, error) {
	if s.db == nil {
		return nil, errors.New("database not configured")
	}
	dbID, err := resolveRoomDBID(strings.TrimSpace(param))
	if err != nil {
		return nil, err
	}

	var record db.Room
	if err := s.db.First(&record, dbID).Error; err != nil {
		return nil, err
	}
	if isTerminal(record.Status) {
		return nil, errors.New("room already complete")
	}
	if !isKnownStatus(record.Status) {
		return nil, fmt.Errorf("stored status %q is not restorable", record.Status)
	}

	if existing, ok := s.store.GetRoom(fmt.Sprintf("room-%d", record.ID)); ok {
		return existing, nil
	}
	if existing, ok := s.store.FindRoomByJoinCode(record.JoinCode); ok {
		return existing, nil
	}

	var playerRecords []db.Player
	if err := s.db.Where("room_id = ?", record.ID).Order("joined_at asc").Find(&playerRecords).Error; err != nil {
		return nil, err
	}
	var voteRecords []db.Vote
	if err := s.db.Where("room_id = ?", record.ID).Order("id asc").Find(&voteRecords).Error; err != nil {
		return nil, err
	}
	var shareRecords []db.ResonanceShare
	if err := s.db.Where("room_id = ?", record.ID).Order("id asc").Find(&shareRecords).Error; err != nil {
		return nil, err
	}
	var giftRecords []db.Gift
	if err := s.db.Where("room_id = ?", record.ID).Order("id asc").Find(&giftRecords).Error; err != nil {
		return nil, err
	}
	var exchangeRecords []db.ExchangeAction
	if err := s.db.Where("room_id = ?", record.ID).Order("id asc").Find(&exchangeRecords).Error; err != nil {
		return nil, err
	}

	room := &Room{
		ID:                  fmt.Sprintf("room-%d", record.ID),
		DBID:                record.ID,
		JoinCode:            record.JoinCode,
		Status:              normalizeStatus(record.Status),
		StatusChangedAt:     time.Now().UTC(),
		PurposeCard:         record.PurposeCard,
		CardOptions:         decodeStrings(record.CardOptions),
		CurrentTurnPlayer:   record.CurrentTurnPlayer,
		CurrentExchangeTurn: record.CurrentExchangeTurn,
		FinalPhaseTurn:      record.FinalPhaseTurn,
		FinalPhaseStep:      record.FinalPhaseStep,
		RoundNumber:         record.RoundNumber,
		ExchangeCompleted:   record.ExchangeCompleted,
		Deck:                decodeStrings(record.Deck),
		DiscardPile:         decodeStrings(record.DiscardPile),
	}
	if record.VotingStartedAt != nil {
		room.VotingStartedAt = record.VotingStartedAt.UTC()
	}

	idByDBID := make(map[uint]int, len(playerRecords))
	for _, stored := range playerRecords {
		player := Player{
			ID:                       int(stored.ID),
			DBID:                     stored.ID,
			Seat:                     stored.Seat,
			Name:                     stored.Name,
			PreferredName:            stored.PreferredName,
			Role:                     stored.Role,
			Hand:                     decodeStrings(stored.Hand),
			AuthToken:                uuid.NewString(),
			HasCheckedIn:             stored.HasCheckedIn,
			ReadyForNextPhase:        stored.ReadyForNextPhase,
			HasSharedFinalResonance:  stored.HasSharedFinalResonance,
			FinalResonanceText:       stored.FinalResonanceText,
			FinalResonancePercentage: stored.FinalResonancePercentage,
			FinalReflectionText:      stored.FinalReflectionText,
			HasGivenFinalGift:        stored.HasGivenFinalGift,
		}
		if len(stored.FinalGiftsReceived) > 0 {
			_ = json.Unmarshal(stored.FinalGiftsReceived, &player.FinalGiftsReceived)
		}
		room.Players = append(room.Players, player)
		idByDBID[stored.ID] = player.ID
	}

	for _, vote := range voteRecords {
		room.Votes = append(room.Votes, VoteEntry{
			PlayerID:  idByDBID[vote.PlayerID],
			CardIndex: vote.CardIndex,
			CardText:  vote.CardText,
			DBID:      vote.ID,
		})
	}
	for _, share := range shareRecords {
		room.Shares = append(room.Shares, ShareEntry{
			PlayerID:   idByDBID[share.PlayerID],
			Phase:      share.Phase,
			Percentage: share.Percentage,
			DBID:       share.ID,
		})
	}
	for _, gift := range giftRecords {
		room.Gifts = append(room.Gifts, GiftEntry{
			FromPlayerID: idByDBID[gift.FromPlayerID],
			ToPlayerID:   idByDBID[gift.ToPlayerID],
			Message:      gift.Message,
			DBID:         gift.ID,
		})
	}
	for _, action := range exchangeRecords {
		room.ExchangeLog = append(room.ExchangeLog, ExchangeEntry{
			PlayerID:  idByDBID[action.PlayerID],
			Turn:      action.Turn,
			Action:    action.Action,
			HandCard:  action.HandCard,
			BoardCard: action.BoardCard,
			DBID:      action.ID,
		})
	}

	if err := s.store.RestoreRoom(room); err != nil {
		return nil, err
	}
	s.scheduleStatusTimer(room)
	return room, nil
}

func resolveRoomDBID(param string) (uint, error) {
	if param == "" {
		return 0, errors.New("room id is required")
	}
	raw := strings.TrimPrefix(param, "room-")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid room id")
	}
	return uint(id), nil
}

func decodeStrings(data []byte) []string {
	values := make([]string, 0)
	if len(data) == 0 {
		return values
	}
	_ = json.Unmarshal(data, &values)
	return values
}
