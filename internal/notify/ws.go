package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olahol/melody"
)

// SessionUserKey is the melody session key holding the authenticated user ID.
const SessionUserKey = "userID"

// WSNotifier pushes alerts to the recipient's open WebSocket sessions.
// Users without an open session simply receive nothing on this channel.
type WSNotifier struct {
	hub *melody.Melody
}

// NewWSNotifier wraps a melody hub.
func NewWSNotifier(hub *melody.Melody) *WSNotifier {
	return &WSNotifier{hub: hub}
}

// Name implements Notifier.
func (n *WSNotifier) Name() string { return "websocket" }

// Notify implements Notifier.
func (n *WSNotifier) Notify(_ context.Context, to Recipient, subject, body string) error {
	payload, err := json.Marshal(map[string]string{
		"type":    "budget_alert",
		"subject": subject,
		"body":    body,
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return n.hub.BroadcastFilter(payload, func(s *melody.Session) bool {
		uid, ok := s.Get(SessionUserKey)
		return ok && uid == to.UserID
	})
}
