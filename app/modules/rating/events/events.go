// Package ratingevents defines the topics and payloads of the rating module.
package ratingevents

import (
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Topics consumed and produced by the rating module.
const (
	SessionCompletedV1         = "session.completed.v1"
	TournamentRoundCompletedV1 = "tournament.round.completed.v1"

	SessionRatingsProcessedV1 = "rating.session.processed.v1"
	SessionRatingsFailedV1    = "rating.session.failed.v1"

	TournamentRoundRatingProcessedV1 = "rating.tournament.round.processed.v1"
	TournamentRoundRatingFailedV1    = "rating.tournament.round.failed.v1"
)

// SessionCompletedPayloadV1 triggers rating processing for a completed session.
type SessionCompletedPayloadV1 struct {
	GroupID   apptypes.GroupID   `json:"group_id"`
	SessionID apptypes.SessionID `json:"session_id"`
}

// TournamentRoundCompletedPayloadV1 triggers rating processing for one pass.
type TournamentRoundCompletedPayloadV1 struct {
	TournamentID apptypes.TournamentID `json:"tournament_id"`
	RoundID      apptypes.RoundID      `json:"round_id"`
}

// PlayerRatingChangeV1 reports one player's rating movement.
type PlayerRatingChangeV1 struct {
	PlayerID apptypes.PlayerID `json:"player_id"`
	Rating   apptypes.Rating   `json:"rating"`
	Delta    float64           `json:"delta"`
}

// SessionRatingsProcessedPayloadV1 reports a completed session rating run.
type SessionRatingsProcessedPayloadV1 struct {
	GroupID       apptypes.GroupID       `json:"group_id"`
	SessionID     apptypes.SessionID     `json:"session_id"`
	RoundsApplied int                    `json:"rounds_applied"`
	RoundsSkipped int                    `json:"rounds_skipped"`
	Changes       []PlayerRatingChangeV1 `json:"changes"`
}

// SessionRatingsFailedPayloadV1 reports a failed session rating run.
type SessionRatingsFailedPayloadV1 struct {
	GroupID   apptypes.GroupID   `json:"group_id"`
	SessionID apptypes.SessionID `json:"session_id"`
	Reason    string             `json:"reason"`
}

// TournamentRatingsProcessedPayloadV1 reports a whole-tournament rating replay.
type TournamentRatingsProcessedPayloadV1 struct {
	TournamentID  apptypes.TournamentID  `json:"tournament_id"`
	RoundsApplied int                    `json:"rounds_applied"`
	RoundsSkipped int                    `json:"rounds_skipped"`
	Changes       []PlayerRatingChangeV1 `json:"changes"`
}

// TournamentRatingsFailedPayloadV1 reports a failed whole-tournament replay.
type TournamentRatingsFailedPayloadV1 struct {
	TournamentID apptypes.TournamentID `json:"tournament_id"`
	Reason       string                `json:"reason"`
}

// TournamentRoundRatingProcessedPayloadV1 reports a processed tournament pass.
// AlreadyProcessed marks the idempotent no-op case.
type TournamentRoundRatingProcessedPayloadV1 struct {
	TournamentID     apptypes.TournamentID  `json:"tournament_id"`
	RoundID          apptypes.RoundID       `json:"round_id"`
	PassNumber       int                    `json:"pass_number"`
	AlreadyProcessed bool                   `json:"already_processed"`
	Changes          []PlayerRatingChangeV1 `json:"changes"`
}

// TournamentRoundRatingFailedPayloadV1 reports a failed pass rating run.
type TournamentRoundRatingFailedPayloadV1 struct {
	TournamentID apptypes.TournamentID `json:"tournament_id"`
	RoundID      apptypes.RoundID      `json:"round_id"`
	Reason       string                `json:"reason"`
}
