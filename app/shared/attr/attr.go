// Package attr provides slog attribute helpers so call sites stay terse and
// attribute keys stay consistent across modules.
package attr

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

type correlationIDKey struct{}

// WithCorrelationID stores a correlation ID on the context for later log extraction.
func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, correlationID)
}

// ExtractCorrelationID returns the correlation_id attribute from the context,
// or an empty value if none was set.
func ExtractCorrelationID(ctx context.Context) slog.Attr {
	if v, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return slog.String("correlation_id", v)
	}
	return slog.String("correlation_id", "")
}

// CorrelationIDFromMsg reads the watermill correlation ID off a message.
func CorrelationIDFromMsg(msg *message.Message) slog.Attr {
	return slog.String("correlation_id", middleware.MessageCorrelationID(msg))
}

func String(key, value string) slog.Attr      { return slog.String(key, value) }
func Int(key string, value int) slog.Attr     { return slog.Int(key, value) }
func Int64(key string, value int64) slog.Attr { return slog.Int64(key, value) }
func Float64(key string, v float64) slog.Attr { return slog.Float64(key, v) }
func Bool(key string, value bool) slog.Attr   { return slog.Bool(key, value) }
func Any(key string, value any) slog.Attr     { return slog.Any(key, value) }
func Time(key string, v time.Time) slog.Attr  { return slog.Time(key, v) }

func Duration(key string, d time.Duration) slog.Attr { return slog.Duration(key, d) }

func Error(err error) slog.Attr { return slog.Any("error", err) }

func PlayerID(key string, id apptypes.PlayerID) slog.Attr {
	return slog.String(key, string(id))
}

func GroupID(key string, id apptypes.GroupID) slog.Attr {
	return slog.String(key, string(id))
}

func RoundID(key string, id apptypes.RoundID) slog.Attr {
	return slog.String(key, id.String())
}

func SessionID(key string, id apptypes.SessionID) slog.Attr {
	return slog.String(key, id.String())
}

func TournamentID(key string, id apptypes.TournamentID) slog.Attr {
	return slog.String(key, id.String())
}

func Rating(key string, r apptypes.Rating) slog.Attr {
	return slog.Float64(key, float64(r))
}
