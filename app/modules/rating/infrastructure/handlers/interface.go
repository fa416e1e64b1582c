package ratinghandlers

import (
	"github.com/ThreeDotsLabs/watermill/message"
)

// Handlers defines the interface for rating event handlers.
type Handlers interface {
	// HandleSessionCompleted rates all rounds of a finished session.
	HandleSessionCompleted(msg *message.Message) ([]*message.Message, error)

	// HandleTournamentRoundCompleted rates one finished tournament pass.
	HandleTournamentRoundCompleted(msg *message.Message) ([]*message.Message, error)
}
