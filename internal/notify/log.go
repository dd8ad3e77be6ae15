package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes alerts to the application log. It is always enabled so
// every alert leaves a trace even when no external channel is configured.
type LogNotifier struct {
	log *zap.SugaredLogger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Name implements Notifier.
func (n *LogNotifier) Name() string { return "log" }

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, to Recipient, subject, body string) error {
	n.log.Infow("ALERT",
		"user", to.Username,
		"user_id", to.UserID,
		"subject", subject,
		"message", body,
	)
	return nil
}
