package server

import (
	"context"
	"testing"
	"time"

	"resonance-circle/internal/config"
)

func TestAwaitStatusChangeReturnsImmediatelyOnDrift(t *testing.T) {
	srv := newServer()
	room := seatRoom(t, srv)

	status, changed, err := srv.awaitStatusChange(context.Background(), room.ID, statusCheckin)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if !changed {
		t.Fatalf("caller's stale status should report a change")
	}
	if status != statusWaiting {
		t.Fatalf("expected waiting, got %s", status)
	}
}

func TestAwaitStatusChangeTimesOut(t *testing.T) {
	cfg := config.Default()
	cfg.PollIntervalSeconds = 1
	cfg.AwaitMaxWaitSeconds = 1
	srv := New(nil, cfg)
	room := seatRoom(t, srv)

	start := time.Now()
	_, changed, err := srv.awaitStatusChange(context.Background(), room.ID, statusWaiting)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if changed {
		t.Fatalf("status never changed, got changed=true")
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Fatalf("await returned too early: %v", elapsed)
	}
}

func TestAwaitStatusChangeObservesTransition(t *testing.T) {
	cfg := config.Default()
	cfg.PollIntervalSeconds = 1
	cfg.AwaitMaxWaitSeconds = 5
	srv := New(nil, cfg)
	room := seatRoom(t, srv)

	go func() {
		time.Sleep(200 * time.Millisecond)
		srv.maybeStartCheckin(room.ID)
	}()

	status, changed, err := srv.awaitStatusChange(context.Background(), room.ID, statusWaiting)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if !changed {
		t.Fatalf("expected to observe the transition")
	}
	if status != statusCheckin {
		t.Fatalf("expected checkin, got %s", status)
	}
}

func TestAwaitStatusChangeUnknownRoom(t *testing.T) {
	srv := newServer()
	if _, _, err := srv.awaitStatusChange(context.Background(), "room-404", statusWaiting); err != errRoomNotFound {
		t.Fatalf("expected room not found, got %v", err)
	}
}

func TestAwaitStatusChangeHonorsContext(t *testing.T) {
	cfg := config.Default()
	cfg.AwaitMaxWaitSeconds = 10
	srv := New(nil, cfg)
	room := seatRoom(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, _, err := srv.awaitStatusChange(ctx, room.ID, statusWaiting)
	if err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSnapshotByIDUnderConcurrentWrites(t *testing.T) {
	srv := newServer()
	room := seatRoom(t, srv)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_, _ = srv.store.UpdateRoom(room.ID, func(room *Room) error {
				if len(room.Deck) > 0 {
					room.DiscardPile = append(room.DiscardPile, room.Deck[0])
					room.Deck = room.Deck[1:]
				} else {
					room.Deck = append(room.Deck, room.DiscardPile...)
					room.DiscardPile = room.DiscardPile[:0]
				}
				return nil
			})
		}
	}()

	for i := 0; i < 200; i++ {
		snap, ok := srv.snapshotByID(room.ID)
		if !ok {
			t.Fatalf("room disappeared mid-run")
		}
		deckCount := snap["deck_count"].(int)
		board := snap["board"].([]string)
		if deckCount+len(board) != 36 {
			t.Fatalf("snapshot saw a torn card state: deck=%d board=%d", deckCount, len(board))
		}
	}
	<-done
}
