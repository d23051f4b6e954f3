package notify

import (
	"context"

	"go.uber.org/zap"
)

// Notifier delivers user-facing emails. Callers treat delivery as
// fire-and-forget: an error is logged, never propagated to the booking flow.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// LogNotifier only logs. Used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) SendEmail(_ context.Context, to, subject, _ string) error {
	n.log.Info("email notification", zap.String("to", to), zap.String("subject", subject))
	return nil
}
