package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job is the scheduler's weak reference to a stored reminder.
type Job struct {
	ID    string
	Owner string
	At    time.Time
	Text  string
}

// FireFunc delivers a due job. Its error is logged; the job is retired anyway.
type FireFunc func(ctx context.Context, job Job) error

// Retirer removes a fired job from durable state.
type Retirer interface {
	RetireJob(ctx context.Context, job Job) error
}

// Observer is notified of timer lifecycle changes.
type Observer interface {
	Armed(n int)
	Fired(job Job, err error)
}

// Service arms one-shot timers on a cron engine. Each job moves
// Armed -> Fired -> Retired exactly once, or is dropped by Cancel while Armed.
type Service struct {
	cron     *cron.Cron
	retirer  Retirer
	observer Observer

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	armed map[string]cron.EntryID
}

type Option func(*Service)

func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

func NewService(retirer Retirer, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		retirer: retirer,
		ctx:     ctx,
		cancel:  cancel,
		armed:   make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	logger := cronLogger{}
	s.cron = cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger)),
	)
	return s
}

func (s *Service) Start() {
	s.cron.Start()
	log.Info().Int("armed", s.Armed()).Msg("reminder scheduler started")
}

// Stop halts the timer loop and waits for in-flight deliveries.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	log.Info().Msg("reminder scheduler stopped")
}

// Schedule arms job. A job whose time has already passed fires as soon as
// the engine runs. Scheduling an id that is already armed replaces the old
// timer.
func (s *Service) Schedule(job Job, onFire FireFunc) {
	s.mu.Lock()
	if old, ok := s.armed[job.ID]; ok {
		s.cron.Remove(old)
	}
	s.armed[job.ID] = s.cron.Schedule(&once{at: job.At}, cron.FuncJob(func() {
		s.fire(job, onFire)
	}))
	n := len(s.armed)
	s.mu.Unlock()

	s.notifyArmed(n)
	log.Debug().Str("job_id", job.ID).Str("owner", job.Owner).Time("at", job.At).Msg("reminder armed")
}

// Cancel disarms a job that has not fired yet.
func (s *Service) Cancel(id string) bool {
	s.mu.Lock()
	entry, ok := s.armed[id]
	if ok {
		delete(s.armed, id)
		s.cron.Remove(entry)
	}
	n := len(s.armed)
	s.mu.Unlock()

	if ok {
		s.notifyArmed(n)
		log.Debug().Str("job_id", id).Msg("reminder disarmed")
	}
	return ok
}

// Armed reports how many jobs are waiting to fire.
func (s *Service) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.armed)
}

// IsArmed reports whether id is still waiting to fire.
func (s *Service) IsArmed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.armed[id]
	return ok
}

func (s *Service) fire(job Job, onFire FireFunc) {
	// Claim the job; a cancelled or already fired job is gone from armed.
	s.mu.Lock()
	entry, ok := s.armed[job.ID]
	if ok {
		delete(s.armed, job.ID)
		s.cron.Remove(entry)
	}
	n := len(s.armed)
	s.mu.Unlock()
	if !ok {
		return
	}
	s.notifyArmed(n)

	err := onFire(s.ctx, job)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("owner", job.Owner).Msg("reminder delivery failed")
	} else {
		log.Info().Str("job_id", job.ID).Str("owner", job.Owner).Time("at", job.At).Msg("reminder fired")
	}
	if s.observer != nil {
		s.observer.Fired(job, err)
	}

	if rerr := s.retirer.RetireJob(s.ctx, job); rerr != nil {
		log.Error().Err(rerr).Str("job_id", job.ID).Msg("failed to retire fired reminder")
	}
}

func (s *Service) notifyArmed(n int) {
	if s.observer != nil {
		s.observer.Armed(n)
	}
}

// once is a cron.Schedule for a single activation. The first call always
// yields at, so a time that passed before the engine saw the entry still
// fires; afterwards the zero time parks the entry.
type once struct {
	at     time.Time
	issued bool
}

func (o *once) Next(t time.Time) time.Time {
	if !o.issued {
		o.issued = true
		return o.at
	}
	if t.Before(o.at) {
		return o.at
	}
	return time.Time{}
}

type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
