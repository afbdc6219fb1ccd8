package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"resonance-circle/internal/db"

	"github.com/jackc/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Persistence mirrors the in-memory rooms into Postgres. A nil database
// turns every writer into a no-op so the server still runs standalone;
// the in-memory store stays authoritative either way.

func (s *Server) persistRoom(room *Room) error {
	if s.db == nil {
		return nil
	}
	record := db.Room{
		JoinCode:       room.JoinCode,
		Status:         room.Status,
		FinalPhaseStep: room.FinalPhaseStep,
		CardOptions:    mustJSON(room.CardOptions),
		Deck:           mustJSON(room.Deck),
		DiscardPile:    mustJSON(room.DiscardPile),
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	room.DBID = record.ID
	newID := fmt.Sprintf("room-%d", record.ID)
	if room.ID != newID {
		s.store.UpdateRoomID(room, newID)
	}
	log.Printf("room persisted room_id=%s db_id=%d", room.ID, room.DBID)
	return nil
}

func (s *Server) persistPlayer(room *Room, player *Player) error {
	if s.db == nil {
		return nil
	}
	if player.DBID != 0 {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
		if room.DBID == 0 {
			return errors.New("room not found")
		}
	}
	record := db.Player{
		RoomID:        room.DBID,
		Name:          player.Name,
		PreferredName: player.PreferredName,
		Seat:          player.Seat,
		Role:          player.Role,
		Hand:          mustJSON(player.Hand),
		JoinedAt:      time.Now().UTC(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.findPlayerDBID(room.DBID, player.Name)
			if lookupErr == nil && existing != 0 {
				player.DBID = existing
				return nil
			}
		}
		return err
	}
	player.DBID = record.ID
	return nil
}

func (s *Server) persistStatus(room *Room, eventType string, payload map[string]any) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	updates := map[string]any{
		"status":                normalizeStatus(room.Status),
		"purpose_card":          room.PurposeCard,
		"card_options":          mustJSON(room.CardOptions),
		"current_turn_player":   room.CurrentTurnPlayer,
		"current_exchange_turn": room.CurrentExchangeTurn,
		"final_phase_turn":      room.FinalPhaseTurn,
		"final_phase_step":      room.FinalPhaseStep,
		"round_number":          room.RoundNumber,
		"exchange_completed":    room.ExchangeCompleted,
	}
	if !room.VotingStartedAt.IsZero() {
		at := room.VotingStartedAt
		updates["voting_started_at"] = &at
	}
	if err := s.db.Model(&db.Room{}).Where("id = ?", room.DBID).Updates(updates).Error; err != nil {
		return err
	}
	data, _ := json.Marshal(payload)
	log.Printf("event room_id=%s type=%s payload=%s", room.ID, eventType, data)
	return nil
}

// persistCardState writes the card containers in one transaction, with the
// room row locked so two writers cannot interleave partial card layouts.
func (s *Server) persistCardState(room *Room) error {
	if s.db == nil {
		return nil
	}
	if room.DBID == 0 {
		if err := s.ensureRoomDBID(room); err != nil {
			return err
		}
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var locked db.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", room.DBID).First(&locked).Error; err != nil {
			return err
		}
		updates := map[string]any{
			"deck":         mustJSON(room.Deck),
			"discard_pile": mustJSON(room.DiscardPile),
		}
		if err := tx.Model(&db.Room{}).Where("id = ?", room.DBID).Updates(updates).Error; err != nil {
			return err
		}
		for i := range room.Players {
			player := &room.Players[i]
			if player.DBID == 0 {
				continue
			}
			playerUpdates := map[string]any{
				"hand":                 mustJSON(player.Hand),
				"final_gifts_received": mustJSON(player.FinalGiftsReceived),
			}
			if err := tx.Model(&db.Player{}).Where("id = ?", player.DBID).Updates(playerUpdates).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Server) persistPlayerFlags(room *Room, player *Player) error {
	if s.db == nil {
		return nil
	}
	if player.DBID == 0 {
		if room.DBID != 0 {
			if existing, err := s.findPlayerDBID(room.DBID, player.Name); err == nil {
				player.DBID = existing
			}
		}
	}
	if player.DBID == 0 {
		return errors.New("player not found")
	}
	updates := map[string]any{
		"is_connected":               player.IsConnected,
		"has_checked_in":             player.HasCheckedIn,
		"ready_for_next_phase":       player.ReadyForNextPhase,
		"has_shared_final_resonance": player.HasSharedFinalResonance,
		"final_resonance_text":       player.FinalResonanceText,
		"final_resonance_percentage": player.FinalResonancePercentage,
		"final_reflection_text":      player.FinalReflectionText,
		"has_given_final_gift":       player.HasGivenFinalGift,
	}
	return s.db.Model(&db.Player{}).Where("id = ?", player.DBID).Updates(updates).Error
}

func (s *Server) persistVote(room *Room, playerID int, cardIndex int, cardText string) error {
	if s.db == nil {
		return nil
	}
	player, ok := s.store.FindPlayer(room, playerID)
	if !ok || player.DBID == 0 {
		return errors.New("player not found")
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	record := db.Vote{
		RoomID:    room.DBID,
		PlayerID:  player.DBID,
		CardIndex: cardIndex,
		CardText:  cardText,
	}
	if err := s.db.Create(&record).Error; err != nil {
		// The unique index makes a replayed vote harmless.
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *Server) persistShare(room *Room, playerID int, phase string, percentage int) error {
	if s.db == nil {
		return nil
	}
	player, ok := s.store.FindPlayer(room, playerID)
	if !ok || player.DBID == 0 {
		return errors.New("player not found")
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	record := db.ResonanceShare{
		RoomID:     room.DBID,
		PlayerID:   player.DBID,
		Phase:      phase,
		Percentage: percentage,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}, {Name: "player_id"}, {Name: "phase"}},
		DoUpdates: clause.AssignmentColumns([]string{"percentage", "updated_at"}),
	}).Create(&record).Error
}

func (s *Server) persistGift(room *Room, fromID, toID int, message string) error {
	if s.db == nil {
		return nil
	}
	from, ok := s.store.FindPlayer(room, fromID)
	if !ok || from.DBID == 0 {
		return errors.New("player not found")
	}
	to, ok := s.store.FindPlayer(room, toID)
	if !ok || to.DBID == 0 {
		return errors.New("player not found")
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	record := db.Gift{
		RoomID:       room.DBID,
		FromPlayerID: from.DBID,
		ToPlayerID:   to.DBID,
		Message:      message,
	}
	return s.db.Create(&record).Error
}

func (s *Server) persistExchangeAction(room *Room, entry ExchangeEntry) error {
	if s.db == nil {
		return nil
	}
	player, ok := s.store.FindPlayer(room, entry.PlayerID)
	if !ok || player.DBID == 0 {
		return errors.New("player not found")
	}
	if room.DBID == 0 {
		return errors.New("room not found")
	}
	record := db.ExchangeAction{
		RoomID:    room.DBID,
		PlayerID:  player.DBID,
		Turn:      entry.Turn,
		Action:    entry.Action,
		HandCard:  entry.HandCard,
		BoardCard: entry.BoardCard,
	}
	return s.db.Create(&record).Error
}

func (s *Server) ensureRoomDBID(room *Room) error {
	if s.db == nil || room.DBID != 0 {
		return nil
	}
	var record db.Room
	if err := s.db.Where("join_code = ?", room.JoinCode).First(&record).Error; err != nil {
		return nil
	}
	room.DBID = record.ID
	return nil
}

func (s *Server) findPlayerDBID(roomDBID uint, name string) (uint, error) {
	var record db.Player
	if err := s.db.Where("room_id = ? AND name = ?", roomDBID, name).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func mustJSON(value any) datatypes.JSON {
	if value == nil {
		return datatypes.JSON([]byte("[]"))
	}
	data, err := json.Marshal(value)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(data)
}
