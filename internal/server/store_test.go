package server

import "testing"

func TestAddPlayerAssignsSeatsInJoinOrder(t *testing.T) {
	store := NewStore()
	room := store.CreateRoom()

	for i, name := range testNames {
		_, player, err := store.AddPlayer(room.ID, name, "", false)
		if err != nil {
			t.Fatalf("add player %s: %v", name, err)
		}
		if player.Seat != i {
			t.Fatalf("expected seat %d for %s, got %d", i, name, player.Seat)
		}
		if player.Role != roleActive {
			t.Fatalf("expected active role for %s, got %s", name, player.Role)
		}
		if player.AuthToken == "" {
			t.Fatalf("expected auth token for %s", name)
		}
	}

	_, fifth, err := store.AddPlayer(room.ID, "Eve", "", false)
	if err != nil {
		t.Fatalf("add fifth player: %v", err)
	}
	if fifth.Role != roleSpectator || fifth.Seat != spectatorSeat {
		t.Fatalf("expected fifth joiner to spectate, got seat=%d role=%s", fifth.Seat, fifth.Role)
	}
}

func TestAddPlayerReclaimsExistingName(t *testing.T) {
	store := NewStore()
	room := store.CreateRoom()

	_, first, err := store.AddPlayer(room.ID, "Ada", "", false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	_, again, err := store.AddPlayer(room.ID, "ada", "Lady Ada", false)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.ID != first.ID {
		t.Fatalf("expected rejoin to reclaim player %d, got %d", first.ID, again.ID)
	}
	if again.PreferredName != "Lady Ada" {
		t.Fatalf("expected preferred name update, got %q", again.PreferredName)
	}
	if len(room.Players) != 1 {
		t.Fatalf("expected one player, got %d", len(room.Players))
	}
}

func TestAddPlayerRejectsActiveJoinAfterStart(t *testing.T) {
	store := NewStore()
	room := store.CreateRoom()
	room.Status = statusCheckin

	_, _, err := store.AddPlayer(room.ID, "Ada", "", false)
	if err == nil || err.Error() != "game already started" {
		t.Fatalf("expected started error, got %v", err)
	}

	_, watcher, err := store.AddPlayer(room.ID, "Eve", "", true)
	if err != nil {
		t.Fatalf("spectator join: %v", err)
	}
	if watcher.Role != roleSpectator {
		t.Fatalf("expected spectator role, got %s", watcher.Role)
	}
}

func TestAddPlayerByJoinCode(t *testing.T) {
	store := NewStore()
	room := store.CreateRoom()

	joined, player, err := store.AddPlayer(room.JoinCode, "Ada", "", false)
	if err != nil {
		t.Fatalf("join by code: %v", err)
	}
	if joined.ID != room.ID {
		t.Fatalf("expected room %s, got %s", room.ID, joined.ID)
	}
	if player.Seat != 0 {
		t.Fatalf("expected seat 0, got %d", player.Seat)
	}
}

func TestCreateRoomSeedsFullDeck(t *testing.T) {
	store := NewStore()
	room := store.CreateRoom()

	if len(room.Deck) != 36 {
		t.Fatalf("expected 36-card deck, got %d", len(room.Deck))
	}
	if room.Status != statusWaiting {
		t.Fatalf("expected waiting status, got %s", room.Status)
	}
	if room.JoinCode == "" {
		t.Fatalf("expected join code")
	}
}

func TestRestoreRoomRefusesDuplicates(t *testing.T) {
	store := NewStore()
	room := store.CreateRoom()

	if err := store.RestoreRoom(&Room{ID: room.ID, JoinCode: "OTHER1"}); err == nil {
		t.Fatalf("expected duplicate id to be refused")
	}
	if err := store.RestoreRoom(&Room{ID: "room-99", JoinCode: room.JoinCode}); err == nil {
		t.Fatalf("expected duplicate join code to be refused")
	}

	restored := &Room{ID: "room-50", JoinCode: "OTHER2", Players: []Player{{ID: 70}}}
	if err := store.RestoreRoom(restored); err != nil {
		t.Fatalf("restore: %v", err)
	}
	next := store.CreateRoom()
	if next.ID == restored.ID {
		t.Fatalf("id counter did not advance past restored room")
	}
	_, player, err := store.AddPlayer(next.ID, "Ada", "", false)
	if err != nil {
		t.Fatalf("add player: %v", err)
	}
	if player.ID <= 70 {
		t.Fatalf("player id counter did not advance, got %d", player.ID)
	}
}
