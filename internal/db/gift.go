package db

import "time"

// Gift is append-only; rows double as the UI's history feed.
type Gift struct {
	ID           uint      `gorm:"primaryKey"`
	RoomID       uint      `gorm:"index;not null"`
	FromPlayerID uint      `gorm:"index;not null"`
	ToPlayerID   uint      `gorm:"index;not null"`
	Message      string    `gorm:"size:1024;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}
