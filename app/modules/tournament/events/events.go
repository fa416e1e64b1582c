// Package tournamentevents defines the topics and payloads of the tournament module.
package tournamentevents

import (
	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Topics consumed and produced by the tournament module.
const (
	FinalizeRequestedV1 = "tournament.finalize.requested.v1"
	FinalizedV1         = "tournament.finalized.v1"
	FinalizeFailedV1    = "tournament.finalize.failed.v1"
)

// FinalizeRequestedPayloadV1 triggers tournament finalization.
type FinalizeRequestedPayloadV1 struct {
	TournamentID apptypes.TournamentID `json:"tournament_id"`
}

// FinalizedPayloadV1 reports a finalized tournament. Note carries the
// descriptive message for empty rankings and idempotent no-ops.
type FinalizedPayloadV1 struct {
	TournamentID apptypes.TournamentID            `json:"tournament_id"`
	Ranking      []tournamentdomain.RankingRecord `json:"ranking"`
	Note         string                           `json:"note,omitempty"`
}

// FinalizeFailedPayloadV1 reports a failed finalization attempt. Fatal marks
// failures recorded on the tournament's LastError; all of them are retriable.
type FinalizeFailedPayloadV1 struct {
	TournamentID apptypes.TournamentID `json:"tournament_id"`
	Reason       string                `json:"reason"`
	Fatal        bool                  `json:"fatal"`
}
