package db

import "time"

// ExchangeAction records one swap or skip per exchange turn, append-only.
type ExchangeAction struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"index;not null"`
	PlayerID  uint      `gorm:"index;not null"`
	Turn      int       `gorm:"not null"`
	Action    string    `gorm:"size:16;not null"`
	HandCard  string    `gorm:"size:64;not null;default:''"`
	BoardCard string    `gorm:"size:64;not null;default:''"`
	CreatedAt time.Time `gorm:"not null"`
}
