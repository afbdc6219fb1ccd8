package server

import (
	"bytes"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"resonance-circle/internal/config"
)

var testNames = []string{"Ada", "Ben", "Cleo", "Dev"}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newServer() *Server {
	return New(nil, config.Default())
}

// seatRoom creates a room and seats four active players.
func seatRoom(t *testing.T, srv *Server) *Room {
	t.Helper()
	room := srv.store.CreateRoom()
	for _, name := range testNames {
		if _, _, err := srv.store.AddPlayer(room.ID, name, "", false); err != nil {
			t.Fatalf("add player %s: %v", name, err)
		}
	}
	return room
}

// roomInVoting advances a seated room through checkin into voting.
func roomInVoting(t *testing.T, srv *Server) *Room {
	t.Helper()
	room := seatRoom(t, srv)
	if _, moved, err := srv.maybeStartCheckin(room.ID); err != nil || !moved {
		t.Fatalf("start checkin: moved=%v err=%v", moved, err)
	}
	_, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
		for seat := 0; seat < activeSeats; seat++ {
			if err := checkIn(room, seatPlayerID(t, room, seat)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	room, moved, err := srv.maybeStartVoting(room.ID, srv.pickOptions)
	if err != nil || !moved {
		t.Fatalf("start voting: moved=%v err=%v", moved, err)
	}
	return room
}

// roomInPlaying resolves voting with a unanimous vote and skips the
// result pause and the initial resonance round.
func roomInPlaying(t *testing.T, srv *Server) *Room {
	t.Helper()
	room := roomInVoting(t, srv)
	_, err := srv.store.UpdateRoom(room.ID, func(room *Room) error {
		for seat := 0; seat < activeSeats; seat++ {
			if err := castVote(room, seatPlayerID(t, room, seat), 0); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("cast votes: %v", err)
	}
	room, moved, _, err := srv.maybeResolveVoting(room.ID)
	if err != nil || !moved {
		t.Fatalf("resolve voting: moved=%v err=%v", moved, err)
	}
	if _, moved, err = srv.advanceFromVotingResult(room.ID); err != nil || !moved {
		t.Fatalf("leave voting result: moved=%v err=%v", moved, err)
	}
	_, err = srv.store.UpdateRoom(room.ID, func(room *Room) error {
		for seat := 0; seat < activeSeats; seat++ {
			id := seatPlayerID(t, room, seat)
			if err := submitInitialShare(room, id, 80); err != nil {
				return err
			}
			if err := markReady(room, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("initial resonance: %v", err)
	}
	room, moved, err = srv.maybeFinishResonance(room.ID)
	if err != nil || !moved {
		t.Fatalf("finish resonance: moved=%v err=%v", moved, err)
	}
	return room
}

func seatPlayerID(t *testing.T, room *Room, seat int) int {
	t.Helper()
	player, ok := findSeat(room, seat)
	if !ok {
		t.Fatalf("no player at seat %d", seat)
	}
	return player.ID
}

// totalCards counts every card the room tracks across all containers.
func totalCards(room *Room) int {
	total := len(room.Deck) + len(room.DiscardPile)
	for i := range room.Players {
		total += len(room.Players[i].Hand)
		for _, gift := range room.Players[i].FinalGiftsReceived {
			if gift.Card != "" {
				total++
			}
		}
	}
	return total
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Auth-Token", token)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}
