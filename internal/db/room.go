package db

import (
	"time"

	"gorm.io/datatypes"
)

type Room struct {
	ID                  uint           `gorm:"primaryKey"`
	JoinCode            string         `gorm:"size:12;uniqueIndex;not null"`
	Status              string         `gorm:"size:32;not null"`
	PurposeCard         string         `gorm:"size:64;not null;default:''"`
	CardOptions         datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	VotingStartedAt     *time.Time
	CurrentTurnPlayer   int            `gorm:"not null;default:0"`
	CurrentExchangeTurn int            `gorm:"not null;default:0"`
	FinalPhaseTurn      int            `gorm:"not null;default:0"`
	FinalPhaseStep      string         `gorm:"size:16;not null;default:'sharing'"`
	RoundNumber         int            `gorm:"not null;default:0"`
	ExchangeCompleted   bool           `gorm:"not null;default:false"`
	Deck                datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	DiscardPile         datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt           time.Time      `gorm:"not null"`
	UpdatedAt           time.Time      `gorm:"not null"`
	Players             []Player
}
