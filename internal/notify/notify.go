// Package notify delivers budget alerts. The ledger decides whether and what
// to alert; each Notifier here is one way of getting the message to the user.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tally/internal/metrics"
)

// Recipient identifies who an alert is for.
type Recipient struct {
	UserID   string
	Username string
	Email    string
}

// Notifier delivers one message to one recipient.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, to Recipient, subject, body string) error
}

// Dispatcher fans an alert out to every configured sink. Delivery failures
// are logged and counted but never returned: an alert that cannot be sent
// must not undo the expense that triggered it.
type Dispatcher struct {
	sinks   []Notifier
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewDispatcher creates a Dispatcher over the given sinks.
func NewDispatcher(log *zap.SugaredLogger, sinks ...Notifier) *Dispatcher {
	return &Dispatcher{sinks: sinks, timeout: 5 * time.Second, log: log}
}

// Add registers another sink.
func (d *Dispatcher) Add(n Notifier) {
	d.sinks = append(d.sinks, n)
}

// Dispatch sends the message through every sink and reports how many
// succeeded.
func (d *Dispatcher) Dispatch(to Recipient, subject, body string) int {
	delivered := 0
	for _, sink := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := sink.Notify(ctx, to, subject, body)
		cancel()

		if err != nil {
			metrics.NotificationsSent.WithLabelValues(sink.Name(), "error").Inc()
			d.log.Warnw("notification delivery failed",
				"sink", sink.Name(),
				"user_id", to.UserID,
				"subject", subject,
				"error", err,
			)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(sink.Name(), "ok").Inc()
		delivered++
	}
	return delivered
}
