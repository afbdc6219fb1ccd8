package db

import (
	"time"

	"gorm.io/datatypes"
)

type Player struct {
	ID                       uint           `gorm:"primaryKey"`
	RoomID                   uint           `gorm:"index;not null;uniqueIndex:idx_players_room_name"`
	Name                     string         `gorm:"size:64;not null;uniqueIndex:idx_players_room_name"`
	PreferredName            string         `gorm:"size:64;not null;default:''"`
	Seat                     int            `gorm:"not null;default:-1"`
	Role                     string         `gorm:"size:16;not null;default:'player'"`
	Hand                     datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	IsConnected              bool           `gorm:"not null;default:false"`
	HasCheckedIn             bool           `gorm:"not null;default:false"`
	ReadyForNextPhase        bool           `gorm:"not null;default:false"`
	HasSharedFinalResonance  bool           `gorm:"not null;default:false"`
	FinalResonanceText       string         `gorm:"size:1024;not null;default:''"`
	FinalResonancePercentage int            `gorm:"not null;default:0"`
	FinalGiftsReceived       datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	FinalReflectionText      string         `gorm:"size:2048;not null;default:''"`
	HasGivenFinalGift        bool           `gorm:"not null;default:false"`
	JoinedAt                 time.Time      `gorm:"not null"`
	CreatedAt                time.Time      `gorm:"not null"`
	UpdatedAt                time.Time      `gorm:"not null"`
}
