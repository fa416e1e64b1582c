// Package api serves the read-only query surface over HTTP: ratings, ranking
// views and exports. All writes flow through the event bus, never through
// this API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	tournamentservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/application"
	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// StatsReader is the slice of the stats service the API needs.
type StatsReader interface {
	RenderRatingChart(ctx context.Context, playerID apptypes.PlayerID) ([]byte, error)
	CurrentTier(ctx context.Context, playerID apptypes.PlayerID) (string, string, error)
}

// Handlers serves the query endpoints.
type Handlers struct {
	ratings     ratingservice.Service
	tournaments tournamentservice.Service
	stats       StatsReader
	logger      *slog.Logger
}

// NewHandlers creates the API handlers.
func NewHandlers(ratings ratingservice.Service, tournaments tournamentservice.Service, stats StatsReader, logger *slog.Logger) *Handlers {
	return &Handlers{
		ratings:     ratings,
		tournaments: tournaments,
		stats:       stats,
		logger:      logger,
	}
}

// RegisterRoutes mounts the query endpoints on the router.
func (h *Handlers) RegisterRoutes(r chi.Router, limiter *IPRateLimiter) {
	r.Get("/healthz", h.HandleHealthz)

	r.Route("/api", func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter))
		}

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/rating", h.HandlePlayerRating)
			r.Get("/rating/chart", h.HandlePlayerRatingChart)
		})

		r.Route("/tournaments/{tournamentID}", func(r chi.Router) {
			r.Get("/ranking", h.HandleTournamentRanking)
			r.Get("/ranking/export", h.HandleTournamentRankingExport)
		})
	})
}

// HandleHealthz reports process liveness.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ratingResponse is the rating query payload. Rated is false when the value
// is the default fallback for a player with no ledger entries.
type ratingResponse struct {
	PlayerID apptypes.PlayerID `json:"player_id"`
	Rating   apptypes.Rating   `json:"rating"`
	Rated    bool              `json:"rated"`
	Tier     string            `json:"tier,omitempty"`
	Emoji    string            `json:"emoji,omitempty"`
	At       *time.Time        `json:"at,omitempty"`
}

// HandlePlayerRating answers the current or as-of rating query. The optional
// "at" query parameter takes an RFC 3339 timestamp.
func (h *Handlers) HandlePlayerRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := apptypes.PlayerID(chi.URLParam(r, "playerID"))

	var at *time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid 'at' timestamp, want RFC 3339", http.StatusBadRequest)
			return
		}
		at = &parsed
	}

	rating, rated, err := h.ratings.RatingAsOf(ctx, playerID, at)
	if err != nil {
		h.logger.ErrorContext(ctx, "Rating query failed", attr.PlayerID("player_id", playerID), attr.Error(err))
		http.Error(w, "failed to resolve rating", http.StatusInternalServerError)
		return
	}

	resp := ratingResponse{
		PlayerID: playerID,
		Rating:   rating,
		Rated:    rated,
		At:       at,
	}
	if h.stats != nil {
		if tier, emoji, err := h.stats.CurrentTier(ctx, playerID); err == nil {
			resp.Tier = tier
			resp.Emoji = emoji
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandlePlayerRatingChart renders the rating progression chart.
func (h *Handlers) HandlePlayerRatingChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playerID := apptypes.PlayerID(chi.URLParam(r, "playerID"))

	png, err := h.stats.RenderRatingChart(ctx, playerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Chart rendering failed", attr.PlayerID("player_id", playerID), attr.Error(err))
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// rankingResponse is the ranking query payload.
type rankingResponse struct {
	TournamentID apptypes.TournamentID            `json:"tournament_id"`
	Ranking      []tournamentdomain.RankingRecord `json:"ranking"`
}

// HandleTournamentRanking answers the stored ranking of a tournament.
func (h *Handlers) HandleTournamentRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tournamentID, err := parseTournamentID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ranking, err := h.tournaments.Ranking(ctx, tournamentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Ranking query failed", attr.TournamentID("tournament_id", tournamentID), attr.Error(err))
		http.Error(w, "failed to load ranking", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rankingResponse{TournamentID: tournamentID, Ranking: ranking})
}

// HandleTournamentRankingExport streams the ranking as a spreadsheet.
func (h *Handlers) HandleTournamentRankingExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tournamentID, err := parseTournamentID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := h.tournaments.ExportRankingXLSX(ctx, tournamentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "Ranking export failed", attr.TournamentID("tournament_id", tournamentID), attr.Error(err))
		http.Error(w, "failed to export ranking", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ranking-"+tournamentID.String()+".xlsx"))
	w.Write(data)
}

func parseTournamentID(r *http.Request) (apptypes.TournamentID, error) {
	raw := chi.URLParam(r, "tournamentID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return apptypes.TournamentID{}, fmt.Errorf("invalid tournament id %q", raw)
	}
	return apptypes.TournamentID(id), nil
}
