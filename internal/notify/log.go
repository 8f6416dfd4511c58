// Package notify holds the outbound channels a fired reminder is sent to.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
)

// Log writes the notification to the process log. It never fails.
type Log struct{}

func (Log) Handle(ctx context.Context, n domain.Notification) error {
	log.Info().
		Str("reminder_id", n.ReminderID).
		Str("owner", n.Owner).
		Str("chat_id", n.ChatID).
		Str("text", n.Text).
		Msg("reminder notification")
	return nil
}
