package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
)

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
}

type lobbyHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func newLobbyHub() *lobbyHub {
	return &lobbyHub{
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *wsHub) Add(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[roomID] = group
	}
	group[conn] = struct{}{}
}

func (h *wsHub) Remove(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

func (h *wsHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *wsHub) Broadcast(roomID string, payload any) {
	h.mu.Lock()
	group := h.groups[roomID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(roomID, conn)
		}
	}
}

func (h *lobbyHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *lobbyHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
	_ = conn.Close()
}

func (h *lobbyHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *lobbyHub) Broadcast(payload any) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(conn)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if _, exists := s.store.GetRoom(roomID); !exists {
		http.NotFound(w, r)
		return
	}
	playerID := 0
	if raw := r.URL.Query().Get("player_id"); raw != "" {
		playerID, _ = strconv.Atoi(raw)
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_id=%s player_id=%d remote=%s", roomID, playerID, r.RemoteAddr)
	s.ws.Add(roomID, conn)
	s.markConnected(roomID, playerID, true)
	if snap, ok := s.snapshotByID(roomID); ok {
		s.ws.Send(conn, snap)
	}
	go s.readWS(roomID, playerID, conn)
}

func (s *Server) handleLobbyWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected lobby remote=%s", r.RemoteAddr)
	s.lobbyWS.Add(conn)
	s.lobbyWS.Send(conn, map[string]any{
		"rooms": s.store.ListRoomSummaries(),
	})
	go s.readLobbyWS(conn)
}

func (s *Server) readWS(roomID string, playerID int, conn *websocket.Conn) {
	defer func() {
		s.ws.Remove(roomID, conn)
		if room := s.markConnected(roomID, playerID, false); room != nil {
			s.broadcastRoomUpdate(room)
		}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_id=%s player_id=%d error=%v", roomID, playerID, err)
			return
		}
	}
}

func (s *Server) readLobbyWS(conn *websocket.Conn) {
	defer s.lobbyWS.Remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("lobby ws disconnected error=%v", err)
			return
		}
	}
}

// markConnected flips the player's liveness flag. A zero playerID means an
// unauthenticated observer socket; the room snapshot still flows.
func (s *Server) markConnected(roomID string, playerID int, connected bool) *Room {
	room, err := s.store.UpdateRoom(roomID, func(room *Room) error {
		if playerID == 0 {
			return nil
		}
		if player, ok := s.store.FindPlayer(room, playerID); ok {
			player.IsConnected = connected
		}
		return nil
	})
	if err != nil {
		return nil
	}
	return room
}

func (s *Server) broadcastRoomUpdate(room *Room) {
	if s.ws == nil || room == nil {
		return
	}
	snap, ok := s.snapshotByID(room.ID)
	if !ok {
		return
	}
	s.ws.Broadcast(room.ID, snap)
	s.broadcastLobbyUpdate()
}

func (s *Server) broadcastLobbyUpdate() {
	if s.lobbyWS == nil {
		return
	}
	s.lobbyWS.Broadcast(map[string]any{
		"rooms": s.store.ListRoomSummaries(),
	})
}
