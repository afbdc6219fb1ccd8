package server

import "time"

const (
	statusWaiting          = "waiting"
	statusCheckin          = "checkin"
	statusVoting           = "voting"
	statusVotingResult     = "voting_result"
	statusResonanceInitial = "resonance_initial"
	statusPlaying          = "playing"
	statusExchange         = "exchange"
	statusResonanceFinal   = "resonance_final"
	statusGiftExchange     = "gift_exchange"
	statusComplete         = "complete"

	// Legacy spelling still present in old rows; accepted on read,
	// never written.
	statusCompletedAlias = "completed"
)

const (
	stepSharing    = "sharing"
	stepGifting    = "gifting"
	stepReflection = "reflection"
)

const (
	roleActive    = "player"
	roleSpectator = "spectator"

	spectatorSeat = -1
	activeSeats   = 4
)

const (
	sharePhaseInitial = "initial"
	sharePhaseFinal   = "final"
)

const (
	// Round counters at which normal play hands off to the exchange
	// interlude and, later, to the final resonance phase.
	exchangeRoundThreshold = 3
	finalRoundThreshold    = 5
)

const (
	exchangeActionSwap = "swap"
	exchangeActionSkip = "skip"
)

type RoomSummary struct {
	ID       string
	JoinCode string
	Status   string
	Players  int
}

type Room struct {
	ID                  string
	DBID                uint
	JoinCode            string
	Status              string
	StatusChangedAt     time.Time
	PurposeCard         string
	CardOptions         []string
	VotingStartedAt     time.Time
	CurrentTurnPlayer   int
	CurrentExchangeTurn int
	FinalPhaseTurn      int
	FinalPhaseStep      string
	RoundNumber         int
	ExchangeCompleted   bool
	Deck                []string
	DiscardPile         []string
	Players             []Player
	Votes               []VoteEntry
	Shares              []ShareEntry
	Gifts               []GiftEntry
	ExchangeLog         []ExchangeEntry
}

type Player struct {
	ID                       int
	DBID                     uint
	Seat                     int
	Name                     string
	PreferredName            string
	Role                     string
	Hand                     []string
	AuthToken                string
	IsConnected              bool
	HasCheckedIn             bool
	ReadyForNextPhase        bool
	HasSharedFinalResonance  bool
	FinalResonanceText       string
	FinalResonancePercentage int
	FinalGiftsReceived       []FinalGift
	FinalReflectionText      string
	HasGivenFinalGift        bool
}

// FinalGift is one message gift delivered to the sharing player. Card is
// empty for plain message gifts and participates in the uniqueness scan
// when set.
type FinalGift struct {
	FromPlayerID   int    `json:"from_player_id"`
	FromPlayerName string `json:"from_player_name"`
	Message        string `json:"message"`
	Card           string `json:"card,omitempty"`
}

type VoteEntry struct {
	PlayerID  int
	CardIndex int
	CardText  string
	DBID      uint
}

type ShareEntry struct {
	PlayerID   int
	Phase      string
	Percentage int
	DBID       uint
}

type GiftEntry struct {
	FromPlayerID int
	ToPlayerID   int
	Message      string
	DBID         uint
}

type ExchangeEntry struct {
	PlayerID  int
	Turn      int
	Action    string
	HandCard  string
	BoardCard string
	DBID      uint
}
