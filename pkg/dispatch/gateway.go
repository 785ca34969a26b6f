package dispatch

import (
	"context"
	"log/slog"

	"github.com/fieldworks/sentinel/pkg/core"
)

// LogGateway is a gateway that only logs outbound messages. Useful until a
// real delivery integration is plugged in, and in development.
type LogGateway struct {
	Logger *slog.Logger
}

func (g *LogGateway) Send(ctx context.Context, messages []core.Message) error {
	logger := g.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, msg := range messages {
		logger.Info("outbound message", "id", msg.ID, "to", msg.To, "body", msg.Body)
	}
	return nil
}
