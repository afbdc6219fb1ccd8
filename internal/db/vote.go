package db

import "time"

// Vote is immutable once cast; the (room, player) unique index enforces
// one vote per player per room.
type Vote struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null;uniqueIndex:idx_votes_room_player"`
	PlayerID  uint      `gorm:"index;not null;uniqueIndex:idx_votes_room_player"`
	CardIndex int       `gorm:"not null"`
	CardText  string    `gorm:"size:64;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
