// Package statsservice exposes derived player statistics: snapshot queries,
// tier lookup and the rating progression chart.
package statsservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	statsdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/stats/infrastructure/repositories"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// TierFunc maps a rating to a display tier. The mapping is presentation
// policy owned by the caller, so it is injected rather than hard-coded here.
type TierFunc func(rating apptypes.Rating) (name string, emoji string)

// RatingReader is the slice of the rating service the stats module needs.
type RatingReader interface {
	History(ctx context.Context, playerID apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error)
	CurrentRating(ctx context.Context, playerID apptypes.PlayerID) (apptypes.Rating, error)
}

// StatsService implements snapshot and chart queries.
type StatsService struct {
	repo    statsdb.Repository
	ratings RatingReader
	tier    TierFunc
	palette ChartPalette
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewStatsService creates a new StatsService. A nil tier falls back to
// DefaultTierFunc.
func NewStatsService(
	repo statsdb.Repository,
	ratings RatingReader,
	tier TierFunc,
	palette ChartPalette,
	logger *slog.Logger,
	tracer trace.Tracer,
) *StatsService {
	if tier == nil {
		tier = DefaultTierFunc
	}
	return &StatsService{
		repo:    repo,
		ratings: ratings,
		tier:    tier,
		palette: palette,
		logger:  logger,
		tracer:  tracer,
	}
}

// DefaultTierFunc is the stock rating-to-tier mapping.
func DefaultTierFunc(rating apptypes.Rating) (string, string) {
	switch {
	case rating >= 160:
		return "Jasskönig", "\U0001F451"
	case rating >= 130:
		return "Stammspieler", "⭐"
	case rating >= 100:
		return "Aufsteiger", "\U0001F4C8"
	default:
		return "Lehrling", "\U0001F331"
	}
}

// Snapshots returns a player's snapshots in chronological order.
func (s *StatsService) Snapshots(ctx context.Context, playerID apptypes.PlayerID) ([]ratingservice.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "Snapshots")
	defer span.End()
	return s.repo.SnapshotsForPlayer(ctx, nil, playerID)
}

// CurrentTier resolves the player's display tier from their current rating.
func (s *StatsService) CurrentTier(ctx context.Context, playerID apptypes.PlayerID) (string, string, error) {
	rating, err := s.ratings.CurrentRating(ctx, playerID)
	if err != nil {
		return "", "", fmt.Errorf("failed to resolve current rating: %w", err)
	}
	name, emoji := s.tier(rating)
	return name, emoji, nil
}

// WriteSnapshot appends one snapshot row on behalf of a rating run.
func (s *StatsService) WriteSnapshot(ctx context.Context, db bun.IDB, snap ratingservice.Snapshot) error {
	return s.repo.WriteSnapshot(ctx, db, snap)
}
