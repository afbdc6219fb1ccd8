package server

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
)

type joinRequest struct {
	Name          string `json:"name"`
	PreferredName string `json:"preferred_name"`
	Spectator     bool   `json:"spectator"`
}

type playerRequest struct {
	PlayerID int `json:"player_id"`
}

type voteRequest struct {
	PlayerID  int `json:"player_id"`
	CardIndex int `json:"card_index"`
}

type shareRequest struct {
	PlayerID   int `json:"player_id"`
	Percentage int `json:"percentage"`
}

type cardRequest struct {
	PlayerID int    `json:"player_id"`
	Card     string `json:"card"`
}

type exchangeRequest struct {
	PlayerID  int    `json:"player_id"`
	HandCard  string `json:"hand_card"`
	BoardCard string `json:"board_card"`
	Skip      bool   `json:"skip"`
}

type finalShareRequest struct {
	PlayerID   int    `json:"player_id"`
	Text       string `json:"text"`
	Percentage int    `json:"percentage"`
}

type finalGiftRequest struct {
	PlayerID    int    `json:"player_id"`
	RecipientID int    `json:"recipient_id"`
	Message     string `json:"message"`
	Card        string `json:"card"`
}

type finalReflectionRequest struct {
	PlayerID int    `json:"player_id"`
	Text     string `json:"text"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	room := s.store.CreateRoom()
	if err := s.persistRoom(room); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	log.Printf("room created room_id=%s join_code=%s", room.ID, room.JoinCode)
	writeJSON(w, http.StatusCreated, map[string]string{
		"room_id":   room.ID,
		"join_code": room.JoinCode,
	})
	s.broadcastLobbyUpdate()
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.store.ListRoomSummaries(),
	})
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	roomID, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		switch action {
		case "":
			s.handleGetRoom(w, r, roomID)
		case "history":
			s.handleHistory(w, r, roomID)
		case "integrity":
			s.handleIntegrity(w, r, roomID)
		case "wait":
			s.handleWait(w, r, roomID)
		default:
			http.NotFound(w, r)
		}
	case http.MethodPost:
		switch action {
		case "join":
			s.handleJoinRoom(w, r, roomID)
		case "restore":
			s.handleRestoreRoom(w, r, roomID)
		case "checkin":
			s.handleCheckin(w, r, roomID)
		case "votes":
			s.handleVotes(w, r, roomID)
		case "resonance":
			s.handleResonance(w, r, roomID)
		case "ready":
			s.handleReady(w, r, roomID)
		case "advance":
			s.handleForceAdvance(w, r, roomID)
		case "draw":
			s.handleDraw(w, r, roomID)
		case "discard":
			s.handleDiscard(w, r, roomID)
		case "exchange":
			s.handleExchange(w, r, roomID)
		case "final-share":
			s.handleFinalShare(w, r, roomID)
		case "final-gift":
			s.handleFinalGift(w, r, roomID)
		case "final-reflection":
			s.handleFinalReflection(w, r, roomID)
		case "replenish":
			s.handleReplenish(w, r, roomID)
		default:
			http.NotFound(w, r)
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// authorize checks the caller's token against the player's. Requests for
// unknown players and token mismatches both come back as 401 so a probing
// client cannot tell the difference.
func (s *Server) authorize(r *http.Request, roomID string, playerID int) bool {
	token := r.Header.Get("X-Auth-Token")
	if token == "" {
		return false
	}
	_, player, ok := s.store.GetPlayer(roomID, playerID)
	if !ok || player == nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(player.AuthToken)) == 1
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	snap, ok := s.snapshotByID(roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, roomID string) {
	room, ok := s.store.GetRoom(roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id": room.ID,
		"history": historyFeed(room),
	})
}

func (s *Server) handleIntegrity(w http.ResponseWriter, r *http.Request, roomID string) {
	room, ok := s.store.GetRoom(roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, checkCardUniqueness(room))
}

func (s *Server) handleWait(w http.ResponseWriter, r *http.Request, roomID string) {
	since := r.URL.Query().Get("since")
	status, changed, err := s.awaitStatusChange(r.Context(), roomID, since)
	if err != nil {
		if err == errRoomNotFound {
			http.NotFound(w, r)
			return
		}
		// Client went away mid-wait.
		return
	}
	snap, ok := s.snapshotByID(roomID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": changed,
		"status":  status,
		"room":    snap,
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	var req joinRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	name, err := validateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, player, err := s.store.AddPlayer(roomID, name, req.PreferredName, req.Spectator)
	if err != nil {
		if errors.Is(err, errRoomNotFound) {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := s.persistPlayer(room, player); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to join room")
		return
	}
	log.Printf("player joined room_id=%s player_id=%d seat=%d role=%s", room.ID, player.ID, player.Seat, player.Role)

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":    room.ID,
		"player_id":  player.ID,
		"seat":       player.Seat,
		"role":       player.Role,
		"auth_token": player.AuthToken,
	})

	if moved, err := s.afterJoin(room.ID); err == nil && moved {
		room, _ = s.store.GetRoom(room.ID)
	}
	s.broadcastRoomUpdate(room)
}

func (s *Server) afterJoin(roomID string) (bool, error) {
	room, moved, err := s.maybeStartCheckin(roomID)
	if err != nil || !moved {
		return moved, err
	}
	if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "all_seated"}); err != nil {
		log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
	}
	return true, nil
}

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request, roomID string) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return checkIn(room, req.PlayerID)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if player, ok := s.store.FindPlayer(room, req.PlayerID); ok {
		if err := s.persistPlayerFlags(room, player); err != nil {
			log.Printf("persist checkin failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
		}
	}

	if next, moved, err := s.maybeStartVoting(roomID, s.pickOptions); err == nil && moved {
		room = next
		if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "all_checked_in"}); err != nil {
			log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
		}
		s.scheduleStatusTimer(room)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request, roomID string) {
	var req voteRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id and card_index are required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var cardText string
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if err := castVote(room, req.PlayerID, req.CardIndex); err != nil {
			return err
		}
		cardText = room.CardOptions[req.CardIndex]
		return nil
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistVote(room, req.PlayerID, req.CardIndex, cardText); err != nil {
		log.Printf("persist vote failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
	}

	if next, moved, reason, err := s.maybeResolveVoting(roomID); err == nil && moved {
		room = next
		log.Printf("voting resolved room_id=%s reason=%s card=%q", room.ID, reason, room.PurposeCard)
		if err := s.persistStatus(room, "voting_resolved", map[string]any{"status": room.Status, "reason": reason, "card": room.PurposeCard}); err != nil {
			log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
		}
		if err := s.persistCardState(room); err != nil {
			log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
		}
		s.scheduleStatusTimer(room)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleResonance(w http.ResponseWriter, r *http.Request, roomID string) {
	var req shareRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id and percentage are required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return submitInitialShare(room, req.PlayerID, req.Percentage)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistShare(room, req.PlayerID, sharePhaseInitial, req.Percentage); err != nil {
		log.Printf("persist share failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request, roomID string) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return markReady(room, req.PlayerID)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if player, ok := s.store.FindPlayer(room, req.PlayerID); ok {
		if err := s.persistPlayerFlags(room, player); err != nil {
			log.Printf("persist ready failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
		}
	}

	if next, moved, err := s.maybeFinishResonance(roomID); err == nil && moved {
		room = next
		if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "all_ready"}); err != nil {
			log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleForceAdvance(w http.ResponseWriter, r *http.Request, roomID string) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	room, moved, err := s.forceFinishResonance(roomID, req.PlayerID)
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if moved {
		log.Printf("room force-advanced room_id=%s by=%d status=%s", room.ID, req.PlayerID, room.Status)
		if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "forced"}); err != nil {
			log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request, roomID string) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var drawn string
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		card, err := drawCard(room, req.PlayerID)
		if err != nil {
			return err
		}
		drawn = card
		return nil
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistCardState(room); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "card": drawn})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleDiscard(w http.ResponseWriter, r *http.Request, roomID string) {
	var req cardRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id and card are required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return discardCard(room, req.PlayerID, req.Card)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistCardState(room); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
	}
	if room.Status != statusPlaying {
		if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "round_threshold"}); err != nil {
			log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
		}
		s.scheduleStatusTimer(room)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request, roomID string) {
	var req exchangeRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var entry ExchangeEntry
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		var err error
		if req.Skip {
			err = skipExchange(room, req.PlayerID)
		} else {
			err = exchangeCards(room, req.PlayerID, req.HandCard, req.BoardCard)
		}
		if err != nil {
			return err
		}
		entry = room.ExchangeLog[len(room.ExchangeLog)-1]
		return nil
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistExchangeAction(room, entry); err != nil {
		log.Printf("persist exchange failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
	}
	if !req.Skip {
		if err := s.persistCardState(room); err != nil {
			log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
		}
	}
	// Once the last seat has acted the return timer starts ticking.
	s.scheduleStatusTimer(room)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleFinalShare(w http.ResponseWriter, r *http.Request, roomID string) {
	var req finalShareRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id and percentage are required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	text, err := validateOptionalReflection(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return shareFinalResonance(room, req.PlayerID, text, req.Percentage)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistShare(room, req.PlayerID, sharePhaseFinal, req.Percentage); err != nil {
		log.Printf("persist share failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
	}
	if player, ok := s.store.FindPlayer(room, req.PlayerID); ok {
		if err := s.persistPlayerFlags(room, player); err != nil {
			log.Printf("persist player failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
		}
	}
	if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "final_share"}); err != nil {
		log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleFinalGift(w http.ResponseWriter, r *http.Request, roomID string) {
	var req finalGiftRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id, recipient_id and message are required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	message, err := validateMessage(req.Message)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return giveFinalGift(room, req.PlayerID, req.RecipientID, message, req.Card)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistGift(room, req.PlayerID, req.RecipientID, message); err != nil {
		log.Printf("persist gift failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
	}
	if err := s.persistCardState(room); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
	}
	if player, ok := s.store.FindPlayer(room, req.PlayerID); ok {
		if err := s.persistPlayerFlags(room, player); err != nil {
			log.Printf("persist player failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "step": room.FinalPhaseStep})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleFinalReflection(w http.ResponseWriter, r *http.Request, roomID string) {
	var req finalReflectionRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id and text are required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	text, err := validateReflection(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		return submitFinalReflection(room, req.PlayerID, text)
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if player, ok := s.store.FindPlayer(room, req.PlayerID); ok {
		if err := s.persistPlayerFlags(room, player); err != nil {
			log.Printf("persist player failed room_id=%s player_id=%d error=%v", room.ID, req.PlayerID, err)
		}
	}
	if err := s.persistStatus(room, "room_advanced", map[string]any{"status": room.Status, "reason": "reflection"}); err != nil {
		log.Printf("persist status failed room_id=%s error=%v", room.ID, err)
	}
	if isTerminal(room.Status) {
		log.Printf("room complete room_id=%s", room.ID)
		s.cancelStatusTimer(room.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": normalizeStatus(room.Status)})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleReplenish(w http.ResponseWriter, r *http.Request, roomID string) {
	var req playerRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	if !s.authorize(r, roomID, req.PlayerID) {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	moved := 0
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		count, err := replenishBoard(room, s.cfg.ReplenishTarget)
		if err != nil {
			return err
		}
		moved = count
		return nil
	})
	if err != nil {
		s.replyActionError(w, r, err)
		return
	}
	if err := s.persistCardState(room); err != nil {
		log.Printf("persist cards failed room_id=%s error=%v", room.ID, err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "moved": moved})
	s.broadcastRoomUpdate(room)
}

func (s *Server) handleRestoreRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	room, err := s.restoreRoomFromDB(roomID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	log.Printf("room restored room_id=%s status=%s", room.ID, room.Status)
	snap, ok := s.snapshotByID(room.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, snap)
	s.broadcastLobbyUpdate()
}

func (s *Server) replyActionError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, errRoomNotFound) {
		http.NotFound(w, r)
		return
	}
	writeRuleError(w, err)
}
