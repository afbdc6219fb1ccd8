package server

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"resonance-circle/internal/deck"

	"github.com/google/uuid"
)

// Store is the authoritative in-memory home of every live room. All
// mutation goes through UpdateRoom so that writers always observe the
// current state before changing it; there is no other write path.
type Store struct {
	mu           sync.Mutex
	nextID       int
	nextPlayerID int
	rooms        map[string]*Room
}

func NewStore() *Store {
	return &Store{
		nextID:       1,
		nextPlayerID: 1,
		rooms:        make(map[string]*Room),
	}
}

func (s *Store) CreateRoom() *Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("room-%d", s.nextID)
	s.nextID++
	room := &Room{
		ID:              id,
		JoinCode:        newJoinCode(),
		Status:          statusWaiting,
		StatusChangedAt: timeNowUTC(),
		FinalPhaseStep:  stepSharing,
		Deck:            deck.Shuffle(),
		DiscardPile:     make([]string, 0),
	}
	s.rooms[id] = room
	return room
}

func (s *Store) GetRoom(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	return room, ok
}

// UpdateRoom applies fn to the room while holding the store lock. A nil
// error from fn commits the mutation; any error leaves the room exactly as
// fn left it, so closures must not partially mutate before failing.
func (s *Store) UpdateRoom(id string, fn func(room *Room) error) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, errRoomNotFound
	}
	if err := fn(room); err != nil {
		return nil, err
	}
	return room, nil
}

// ReadRoom runs fn with the store lock held, so readers see a consistent
// room while writers are paused.
func (s *Store) ReadRoom(id string, fn func(room *Room)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return false
	}
	fn(room)
	return true
}

// RoomStatus reads the room's current status under the store lock.
func (s *Store) RoomStatus(id string) (string, bool) {
	status := ""
	ok := s.ReadRoom(id, func(room *Room) {
		status = room.Status
	})
	return status, ok
}

func (s *Store) FindRoomByJoinCode(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, room := range s.rooms {
		if room.JoinCode == code {
			return room, true
		}
	}
	return nil, false
}

func (s *Store) UpdateRoomID(room *Room, newID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room.ID == newID {
		return
	}
	delete(s.rooms, room.ID)
	room.ID = newID
	s.rooms[newID] = room
}

// AddPlayer seats the first four active joiners at seats 0-3; everyone
// after that (or anyone asking for it) joins as a spectator. Rejoining
// under an existing name reclaims that player instead of creating one.
func (s *Store) AddPlayer(roomIDOrCode, name, preferredName string, spectator bool) (*Room, *Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomIDOrCode]
	if !ok {
		for _, candidate := range s.rooms {
			if candidate.JoinCode == roomIDOrCode {
				room = candidate
				ok = true
				break
			}
		}
	}
	if !ok {
		return nil, nil, errRoomNotFound
	}

	for i := range room.Players {
		if strings.EqualFold(room.Players[i].Name, name) {
			if preferredName != "" {
				room.Players[i].PreferredName = preferredName
			}
			return room, &room.Players[i], nil
		}
	}

	seat := spectatorSeat
	role := roleSpectator
	if !spectator {
		if room.Status != statusWaiting {
			return nil, nil, errors.New("game already started")
		}
		active := countActive(room)
		if active < activeSeats {
			seat = active
			role = roleActive
		}
	}

	player := Player{
		ID:            s.nextPlayerID,
		Seat:          seat,
		Name:          name,
		PreferredName: preferredName,
		Role:          role,
		Hand:          make([]string, 0),
		AuthToken:     uuid.NewString(),
	}
	s.nextPlayerID++
	room.Players = append(room.Players, player)
	return room, &room.Players[len(room.Players)-1], nil
}

// RestoreRoom re-registers a room rebuilt from the database.
func (s *Store) RestoreRoom(room *Room) error {
	if room == nil {
		return errors.New("room is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return errors.New("room already running")
	}
	for _, existing := range s.rooms {
		if existing.JoinCode == room.JoinCode {
			return errors.New("room already running")
		}
	}
	s.rooms[room.ID] = room
	if id := roomSortKey(room.ID); id >= s.nextID {
		s.nextID = id + 1
	}
	maxPlayerID := 0
	for _, player := range room.Players {
		if player.ID > maxPlayerID {
			maxPlayerID = player.ID
		}
	}
	if maxPlayerID >= s.nextPlayerID {
		s.nextPlayerID = maxPlayerID + 1
	}
	return nil
}

func (s *Store) ListRoomSummaries() []RoomSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]RoomSummary, 0, len(s.rooms))
	for _, room := range s.rooms {
		list = append(list, RoomSummary{
			ID:       room.ID,
			JoinCode: room.JoinCode,
			Status:   room.Status,
			Players:  len(room.Players),
		})
	}
	sort.Slice(list, func(i, j int) bool {
		return roomSortKey(list[i].ID) < roomSortKey(list[j].ID)
	})
	return list
}

func roomSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}

func (s *Store) GetPlayer(roomID string, playerID int) (*Room, *Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, nil, false
	}
	for i := range room.Players {
		if room.Players[i].ID == playerID {
			return room, &room.Players[i], true
		}
	}
	return room, nil, false
}

func (s *Store) FindPlayer(room *Room, playerID int) (*Player, bool) {
	for i := range room.Players {
		if room.Players[i].ID == playerID {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func findSeat(room *Room, seat int) (*Player, bool) {
	for i := range room.Players {
		if room.Players[i].Role == roleActive && room.Players[i].Seat == seat {
			return &room.Players[i], true
		}
	}
	return nil, false
}

func countActive(room *Room) int {
	count := 0
	for i := range room.Players {
		if room.Players[i].Role == roleActive {
			count++
		}
	}
	return count
}

func activePlayers(room *Room) []*Player {
	players := make([]*Player, 0, activeSeats)
	for i := range room.Players {
		if room.Players[i].Role == roleActive {
			players = append(players, &room.Players[i])
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Seat < players[j].Seat
	})
	return players
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
