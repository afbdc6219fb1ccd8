package server

import (
	"net/http"
	"testing"
)

func TestRoomFlowOverHTTP(t *testing.T) {
	srv := newServer()
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", "", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room: status %d", resp.StatusCode)
	}
	created := decodeBody(t, resp)
	roomID := created["room_id"].(string)

	playerIDs := make([]int, 0, activeSeats)
	tokens := make([]string, 0, activeSeats)
	for _, name := range testNames {
		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", "", map[string]any{
			"name": name,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("join %s: status %d", name, resp.StatusCode)
		}
		joined := decodeBody(t, resp)
		playerIDs = append(playerIDs, int(joined["player_id"].(float64)))
		tokens = append(tokens, joined["auth_token"].(string))
	}

	room, ok := srv.store.GetRoom(roomID)
	if !ok {
		t.Fatalf("room not found")
	}
	if room.Status != statusCheckin {
		t.Fatalf("expected checkin after four joins, got %s", room.Status)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/checkin", "bogus-token", map[string]any{
		"player_id": playerIDs[0],
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bogus token: status %d, want 401", resp.StatusCode)
	}

	for i, id := range playerIDs {
		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/checkin", tokens[i], map[string]any{
			"player_id": id,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("checkin %d: status %d", id, resp.StatusCode)
		}
	}
	if room.Status != statusVoting {
		t.Fatalf("expected voting after checkins, got %s", room.Status)
	}

	votes := []int{1, 1, 0, 1}
	for i, id := range playerIDs {
		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/votes", tokens[i], map[string]any{
			"player_id":  id,
			"card_index": votes[i],
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("vote %d: status %d", id, resp.StatusCode)
		}
	}
	if room.Status != statusVotingResult {
		t.Fatalf("expected voting_result, got %s", room.Status)
	}
	if room.PurposeCard != room.CardOptions[1] {
		t.Fatalf("purpose card = %q, want option 1", room.PurposeCard)
	}

	if _, moved, err := srv.advanceFromVotingResult(roomID); err != nil || !moved {
		t.Fatalf("leave voting result: moved=%v err=%v", moved, err)
	}
	for i, id := range playerIDs {
		resp := doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/resonance", tokens[i], map[string]any{
			"player_id":  id,
			"percentage": 80,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("resonance %d: status %d", id, resp.StatusCode)
		}
		resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/ready", tokens[i], map[string]any{
			"player_id": id,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ready %d: status %d", id, resp.StatusCode)
		}
	}
	if room.Status != statusPlaying {
		t.Fatalf("expected playing, got %s", room.Status)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/draw", tokens[0], map[string]any{
		"player_id": playerIDs[0],
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("draw: status %d", resp.StatusCode)
	}
	drawn := decodeBody(t, resp)["card"].(string)

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/discard", tokens[0], map[string]any{
		"player_id": playerIDs[0],
		"card":      drawn,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("discard: status %d", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/draw", tokens[0], map[string]any{
		"player_id": playerIDs[0],
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("out-of-turn draw: status %d, want 409", resp.StatusCode)
	}
	rejection := decodeBody(t, resp)
	if rejection["error"] != codeNotYourTurn {
		t.Fatalf("out-of-turn draw error = %v, want %s", rejection["error"], codeNotYourTurn)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID+"/integrity", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("integrity: status %d", resp.StatusCode)
	}
	report := decodeBody(t, resp)
	if report["valid"] != true {
		t.Fatalf("integrity report invalid: %v", report)
	}

	resp = doRequest(t, ts, http.MethodGet, "/api/rooms/"+roomID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get room: status %d", resp.StatusCode)
	}
	snap := decodeBody(t, resp)
	if snap["status"] != statusPlaying {
		t.Fatalf("snapshot status = %v, want playing", snap["status"])
	}
	if int(snap["deck_count"].(float64)) != 23 {
		t.Fatalf("deck_count = %v, want 23", snap["deck_count"])
	}
}

func TestJoinRejectsAfterStartOverHTTP(t *testing.T) {
	srv := newServer()
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodPost, "/api/rooms", "", nil)
	roomID := decodeBody(t, resp)["room_id"].(string)
	for _, name := range testNames {
		doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", "", map[string]any{"name": name})
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", "", map[string]any{"name": "Eve"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("late active join: status %d, want 409", resp.StatusCode)
	}

	resp = doRequest(t, ts, http.MethodPost, "/api/rooms/"+roomID+"/join", "", map[string]any{
		"name":      "Fay",
		"spectator": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("spectator join: status %d", resp.StatusCode)
	}
	if decodeBody(t, resp)["role"] != roleSpectator {
		t.Fatalf("expected spectator role")
	}
}

func TestUnknownRoomIsNotFound(t *testing.T) {
	srv := newServer()
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(ts.Close)

	resp := doRequest(t, ts, http.MethodGet, "/api/rooms/room-404", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown room: status %d, want 404", resp.StatusCode)
	}
}
