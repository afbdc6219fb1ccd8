package server

import (
	"errors"
	"fmt"
)

// Rule rejection codes. These travel to the client alongside the message so
// the UI can present a retryable, action-specific error.
const (
	codeWrongPhase        = "wrong_phase"
	codeNotYourTurn       = "not_your_turn"
	codeEmptyDeck         = "empty_deck"
	codeCardNotInHand     = "card_not_in_hand"
	codeCardNotOnBoard    = "card_not_on_board"
	codeDuplicateCard     = "duplicate_card"
	codeWrongStep         = "wrong_step"
	codeNotRecipientTurn  = "not_recipient_turn"
	codeSelfGift          = "self_gift"
	codeAlreadyGifted     = "already_gifted"
	codeEmptyMessage      = "empty_message"
	codeAlreadyVoted      = "already_voted"
	codeInvalidOption     = "invalid_option"
	codePlayerNotFound    = "player_not_found"
	codeSpectator         = "spectator"
	codeNotLeader         = "not_leader"
	codeNotReady          = "not_ready"
	codeInvalidPercentage = "invalid_percentage"
)

var errRoomNotFound = errors.New("room not found")

// ruleError is a business-rule rejection: the request was understood and
// refused. It is surfaced to the acting player as a retryable message,
// unlike transport or store failures.
type ruleError struct {
	Code    string
	Message string
}

func (e *ruleError) Error() string {
	return e.Message
}

func rejectf(code, format string, args ...any) error {
	return &ruleError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func asRuleError(err error) (*ruleError, bool) {
	var rule *ruleError
	if errors.As(err, &rule) {
		return rule, true
	}
	return nil, false
}
