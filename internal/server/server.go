package server

import (
	"net/http"
	"sync"
	"time"

	"resonance-circle/internal/config"
	"resonance-circle/internal/deck"

	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	ws       *wsHub
	lobbyWS  *lobbyHub
	cfg      config.Config
	timersMu sync.Mutex
	timers   map[string]*time.Timer
}

func New(conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		store:   NewStore(),
		db:      conn,
		ws:      newWSHub(),
		lobbyWS: newLobbyHub(),
		cfg:     cfg,
		timers:  make(map[string]*time.Timer),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	mux.HandleFunc("GET /ws/lobby", s.handleLobbyWebsocket)
	return mux
}

func (s *Server) pickOptions() []string {
	return deck.ThemeOptions(s.cfg.VotingOptionCount)
}
