package domain

import (
	"errors"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
)

var (
	ErrTimeNotUnderstood = errors.New("time not understood")
	ErrTimeInPast        = errors.New("time is in the past")
	ErrOutOfRange        = errors.New("reminder index out of range")
	ErrUnknownOwner      = errors.New("owner has no reminders")
	ErrPersistence       = errors.New("persist reminders")
	ErrDelivery          = errors.New("deliver reminder")
)

// Reminder is owned by the store; everything else works on copies.
type Reminder struct {
	ID          string
	Owner       string
	ChatID      string
	Text        string
	ScheduledAt time.Time
	Status      Status
	CreatedAt   time.Time
}

// Record is the persisted shape of a reminder inside an owner's list.
type Record struct {
	ID     string `json:"id,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
	Text   string `json:"text"`
	Time   string `json:"time"`
}

const RecordTimeLayout = time.RFC3339Nano

func (r Reminder) Record() Record {
	return Record{
		ID:     r.ID,
		ChatID: r.ChatID,
		Text:   r.Text,
		Time:   r.ScheduledAt.Format(RecordTimeLayout),
	}
}

// ReminderFromRecord rebuilds a pending reminder. Times are returned in the
// process's local zone.
func ReminderFromRecord(owner string, rec Record) (Reminder, error) {
	at, err := ParseRecordTime(rec.Time)
	if err != nil {
		return Reminder{}, err
	}
	return Reminder{
		ID:          rec.ID,
		Owner:       owner,
		ChatID:      rec.ChatID,
		Text:        rec.Text,
		ScheduledAt: at,
		Status:      StatusPending,
	}, nil
}

// ParseRecordTime accepts RFC 3339 and the offset-less ISO form written by
// older reminder files.
func ParseRecordTime(s string) (time.Time, error) {
	if t, err := time.Parse(RecordTimeLayout, s); err == nil {
		return t.Local(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid reminder time: " + s)
}

// Notification is what gets sent to the owner when a reminder fires.
type Notification struct {
	ReminderID  string    `json:"reminder_id"`
	Owner       string    `json:"owner_id"`
	ChatID      string    `json:"chat_id,omitempty"`
	Text        string    `json:"text"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Message     string    `json:"message"`
}

func NotificationMessage(text string) string {
	return "🔔 Reminder!\n\n" + text
}
