// Package reminder wires time resolution, the reminder store and the one-shot
// scheduler into the create/list/cancel operations the chat host calls.
package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
	"remindflow/internal/metrics"
	"remindflow/internal/scheduler"
	"remindflow/internal/store"
	"remindflow/internal/timeparse"
)

type Scheduler interface {
	Schedule(job scheduler.Job, onFire scheduler.FireFunc)
	Cancel(id string) bool
}

// Deliverer sends a fired reminder to its owner.
type Deliverer interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

type Service struct {
	resolver *timeparse.Resolver
	store    *store.Store
	sched    Scheduler
	deliver  Deliverer
	metrics  *metrics.Observer
	now      func() time.Time
}

type Option func(*Service)

func WithResolver(r *timeparse.Resolver) Option { return func(s *Service) { s.resolver = r } }

func WithMetrics(m *metrics.Observer) Option { return func(s *Service) { s.metrics = m } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(st *store.Store, sched Scheduler, d Deliverer, opts ...Option) *Service {
	s := &Service{
		resolver: timeparse.NewResolver(),
		store:    st,
		sched:    sched,
		deliver:  d,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request is one inbound free-text reminder. A zero Now means the service clock.
type Request struct {
	Owner  string
	ChatID string
	Text   string
	Now    time.Time
}

// Confirmation is returned for a created reminder.
type Confirmation struct {
	Reminder domain.Reminder
	Offset   string
	Message  string
}

func (s *Service) Create(ctx context.Context, req Request) (Confirmation, error) {
	now := req.Now
	if now.IsZero() {
		now = s.now()
	}

	at, ok := s.resolver.Resolve(req.Text, now)
	if !ok {
		s.metrics.Rejected("time_not_understood")
		return Confirmation{}, domain.ErrTimeNotUnderstood
	}
	if !at.After(now) {
		s.metrics.Rejected("time_in_past")
		return Confirmation{}, domain.ErrTimeInPast
	}

	r, err := s.store.Add(ctx, domain.Reminder{
		Owner:       req.Owner,
		ChatID:      req.ChatID,
		Text:        timeparse.Extract(req.Text),
		ScheduledAt: at,
		CreatedAt:   now,
	})
	if err != nil {
		s.metrics.Rejected("persistence")
		return Confirmation{}, err
	}
	s.sched.Schedule(jobFor(r), s.fire)
	s.metrics.Created()

	offset := HumanOffset(at.Sub(now))
	log.Info().
		Str("reminder_id", r.ID).
		Str("owner", r.Owner).
		Time("at", at).
		Str("offset", offset).
		Msg("reminder created")
	return Confirmation{Reminder: r, Offset: offset, Message: ConfirmationText(r, offset)}, nil
}

func (s *Service) List(ctx context.Context, owner string) []domain.Reminder {
	return s.store.List(owner)
}

// Cancel removes the reminder at the 1-based index and disarms its timer.
func (s *Service) Cancel(ctx context.Context, owner string, index int) (domain.Reminder, error) {
	r, err := s.store.CancelAt(ctx, owner, index)
	if err != nil {
		return domain.Reminder{}, err
	}
	if !s.sched.Cancel(r.ID) {
		log.Warn().Str("reminder_id", r.ID).Msg("cancelled reminder had no armed timer")
	}
	s.metrics.Cancelled()
	log.Info().Str("reminder_id", r.ID).Str("owner", owner).Int("index", index).Msg("reminder cancelled")
	return r, nil
}

// Restore arms a timer for every stored reminder. Reminders that came due
// while the process was down fire as soon as the scheduler starts.
func (s *Service) Restore(ctx context.Context) int {
	pending := s.store.Pending()
	for _, r := range pending {
		s.sched.Schedule(jobFor(r), s.fire)
	}
	log.Info().Int("rearmed", len(pending)).Msg("restored reminder timers")
	return len(pending)
}

func (s *Service) fire(ctx context.Context, job scheduler.Job) error {
	r, ok := s.store.Get(job.Owner, job.ID)
	if !ok {
		// Cancelled between the timer firing and this lookup.
		log.Info().Str("reminder_id", job.ID).Msg("skipping delivery of cancelled reminder")
		return nil
	}
	n := domain.Notification{
		ReminderID:  r.ID,
		Owner:       r.Owner,
		ChatID:      r.ChatID,
		Text:        r.Text,
		ScheduledAt: r.ScheduledAt,
		Message:     domain.NotificationMessage(r.Text),
	}

	start := time.Now()
	err := s.deliver.Deliver(ctx, n)
	s.metrics.Delivered(time.Since(start))
	if err != nil && !errors.Is(err, domain.ErrDelivery) {
		err = errors.Join(domain.ErrDelivery, err)
	}
	return err
}

func jobFor(r domain.Reminder) scheduler.Job {
	return scheduler.Job{ID: r.ID, Owner: r.Owner, At: r.ScheduledAt, Text: r.Text}
}

// StoreRetirer lets the scheduler retire fired reminders from st.
func StoreRetirer(st *store.Store) scheduler.Retirer {
	return storeRetirer{st: st}
}

type storeRetirer struct{ st *store.Store }

func (r storeRetirer) RetireJob(ctx context.Context, job scheduler.Job) error {
	_, ok, err := r.st.Retire(ctx, job.Owner, job.ID)
	if err != nil {
		return err
	}
	if !ok {
		log.Debug().Str("reminder_id", job.ID).Msg("fired reminder already gone from store")
	}
	return nil
}
