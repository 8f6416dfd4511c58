package reminder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"remindflow/internal/domain"
)

// TimeLayout is how absolute reminder times are shown to users.
const TimeLayout = "2006-01-02 03:04 PM"

const HelpText = `Welcome to Reminder Bot! 🔔

I can help you set reminders. Here's how to use me:

📝 Examples:
• "Remind me to buy milk in 2 hours"
• "Remind me to call mom tomorrow at 3pm"
• "Remind me about the meeting in 30 minutes"
• "Remind me to exercise on Friday at 6am"

⏰ Time formats I understand:
• Relative: "in 5 minutes", "in 2 hours", "in 3 days"
• Specific: "tomorrow at 3pm", "on Monday at 9am"
• Date and time: "on Jan 15 at 2pm", "on 2025-01-20 at 14:30"

📋 Commands:
/start - Show this help message
/list - Show all your active reminders
/cancel [number] - Cancel a reminder by its number

Just send me a message with your reminder and I'll take care of it!`

// HumanOffset truncates to whole days, else whole hours, else whole minutes.
func HumanOffset(d time.Duration) string {
	if days := int64(d / (24 * time.Hour)); days > 0 {
		return fmt.Sprintf("in %d day(s)", days)
	}
	secs := int64(d / time.Second)
	if secs >= 3600 {
		return fmt.Sprintf("in %d hour(s)", secs/3600)
	}
	return fmt.Sprintf("in %d minute(s)", secs/60)
}

func ConfirmationText(r domain.Reminder, offset string) string {
	return fmt.Sprintf("✅ Reminder set!\n\n📝 %s\n⏰ %s\n(%s)", r.Text, r.ScheduledAt.Format(TimeLayout), offset)
}

func ListText(list []domain.Reminder) string {
	if len(list) == 0 {
		return "You don't have any active reminders."
	}
	var b strings.Builder
	b.WriteString("📋 Your Active Reminders:\n\n")
	for i, r := range list {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Text)
		fmt.Fprintf(&b, "   ⏰ %s\n\n", r.ScheduledAt.Format(TimeLayout))
	}
	return b.String()
}

func CancelText(r domain.Reminder) string {
	return "✅ Cancelled reminder: " + r.Text
}

// UserMessage maps a service error to the reply shown to the requester.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrTimeNotUnderstood):
		return "I couldn't understand when you want to be reminded. 🤔\n\n" +
			"Try something like:\n" +
			"• 'Remind me to buy milk in 2 hours'\n" +
			"• 'Remind me to call mom tomorrow at 3pm'\n" +
			"• 'Remind me about the meeting in 30 minutes'"
	case errors.Is(err, domain.ErrTimeInPast):
		return "That time is in the past! ⏰\nPlease specify a future time for your reminder."
	case errors.Is(err, domain.ErrOutOfRange), errors.Is(err, domain.ErrUnknownOwner):
		return "Invalid reminder number. Use /list to see your reminders."
	case errors.Is(err, domain.ErrPersistence):
		return "Sorry, I couldn't save your reminders right now. Please try again."
	}
	return "Something went wrong. Please try again."
}
