package server

import (
	"context"
	"time"
)

// awaitStatusChange blocks until the room's status differs from the one
// the caller last saw, the wait budget runs out, or ctx is cancelled. It
// is the long-poll fallback for clients without a socket; the returned
// bool reports whether the status actually changed. Status reads go
// through the store lock so a concurrent writer is never observed
// mid-mutation.
func (s *Server) awaitStatusChange(ctx context.Context, roomID, sinceStatus string) (string, bool, error) {
	status, ok := s.store.RoomStatus(roomID)
	if !ok {
		return "", false, errRoomNotFound
	}
	since := normalizeStatus(sinceStatus)
	if normalizeStatus(status) != since {
		return normalizeStatus(status), true, nil
	}

	interval := time.Duration(s.cfg.PollIntervalSeconds) * time.Second
	deadline := time.NewTimer(time.Duration(s.cfg.AwaitMaxWaitSeconds) * time.Second)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return normalizeStatus(status), false, ctx.Err()
		case <-deadline.C:
			return normalizeStatus(status), normalizeStatus(status) != since, nil
		case <-ticker.C:
			status, ok = s.store.RoomStatus(roomID)
			if !ok {
				return "", false, errRoomNotFound
			}
			if normalizeStatus(status) != since {
				return normalizeStatus(status), true, nil
			}
		}
	}
}
