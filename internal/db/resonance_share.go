package db

import "time"

// ResonanceShare is upsertable by (room, player, phase); a resubmission
// overwrites the percentage.
type ResonanceShare struct {
	ID         uint      `gorm:"primaryKey"`
	RoomID     uint      `gorm:"index;not null;uniqueIndex:idx_shares_room_player_phase"`
	PlayerID   uint      `gorm:"index;not null;uniqueIndex:idx_shares_room_player_phase"`
	Phase      string    `gorm:"size:16;not null;uniqueIndex:idx_shares_room_player_phase"`
	Percentage int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
