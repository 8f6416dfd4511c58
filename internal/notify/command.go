package notify

import (
	"context"
	"fmt"
	"os/exec"

	"remindflow/internal/domain"
)

// Command runs an external program with the notification message appended
// as its last argument, e.g. notify-send.
type Command struct {
	Command string
	Args    []string
}

func (h Command) Handle(ctx context.Context, n domain.Notification) error {
	if h.Command == "" {
		return fmt.Errorf("command is required")
	}
	args := append(append([]string(nil), h.Args...), n.Message)
	cmd := exec.CommandContext(ctx, h.Command, args...)
	cmd.Env = append(cmd.Environ(),
		"REMINDER_ID="+n.ReminderID,
		"REMINDER_OWNER="+n.Owner,
		"REMINDER_CHAT_ID="+n.ChatID,
		"REMINDER_TEXT="+n.Text,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("command error: %v; out=%s", err, string(out))
	}
	return nil
}
