// Package store keeps every owner's ordered reminder list in memory and
// mirrors each mutation to a durable Backend before reporting success.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
)

// Backend is the durable owner -> records surface. Save replaces the whole
// list of one owner atomically; an empty list removes the owner.
type Backend interface {
	Load(ctx context.Context) (map[string][]domain.Record, error)
	Save(ctx context.Context, owner string, records []domain.Record) error
}

type Store struct {
	backend Backend
	now     func() time.Time

	mu    sync.RWMutex
	lists map[string][]domain.Reminder
}

// NewID returns a fresh reminder correlation id.
func NewID() string { return "rem_" + uuid.NewString() }

// New loads the backend's state. Records persisted without an id get one and
// are written back.
func New(ctx context.Context, backend Backend) (*Store, error) {
	data, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", domain.ErrPersistence, err)
	}
	s := &Store{backend: backend, now: time.Now, lists: make(map[string][]domain.Reminder, len(data))}
	for owner, recs := range data {
		list := make([]domain.Reminder, 0, len(recs))
		assigned := false
		for _, rec := range recs {
			r, err := domain.ReminderFromRecord(owner, rec)
			if err != nil {
				log.Warn().Err(err).Str("owner", owner).Str("text", rec.Text).Msg("skipping unreadable reminder")
				continue
			}
			if r.ID == "" {
				r.ID = NewID()
				assigned = true
			}
			list = append(list, r)
		}
		if assigned {
			if err := backend.Save(ctx, owner, records(list)); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
			}
		}
		if len(list) > 0 {
			s.lists[owner] = list
		}
	}
	return s, nil
}

// Add appends a pending reminder to r.Owner's list.
func (s *Store) Add(ctx context.Context, r domain.Reminder) (domain.Reminder, error) {
	if r.ID == "" {
		r.ID = NewID()
	}
	r.Status = domain.StatusPending
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.lists[r.Owner]
	next := make([]domain.Reminder, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, r)
	if err := s.commit(ctx, r.Owner, next); err != nil {
		return domain.Reminder{}, err
	}
	return r, nil
}

// List returns a copy of owner's reminders in insertion order.
func (s *Store) List(owner string) []domain.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cur := s.lists[owner]
	out := make([]domain.Reminder, len(cur))
	copy(out, cur)
	return out
}

// Get finds a reminder by id.
func (s *Store) Get(owner, id string) (domain.Reminder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.lists[owner] {
		if r.ID == id {
			return r, true
		}
	}
	return domain.Reminder{}, false
}

// Pending returns every stored reminder across all owners.
func (s *Store) Pending() []domain.Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Reminder
	for _, list := range s.lists {
		out = append(out, list...)
	}
	return out
}

// CancelAt removes the entry at the 1-based index. Later entries shift down.
func (s *Store) CancelAt(ctx context.Context, owner string, index int) (domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.lists[owner]
	if len(cur) == 0 {
		return domain.Reminder{}, domain.ErrUnknownOwner
	}
	if index <= 0 || index > len(cur) {
		return domain.Reminder{}, fmt.Errorf("%w: %d of %d", domain.ErrOutOfRange, index, len(cur))
	}
	removed := cur[index-1]
	if err := s.commit(ctx, owner, without(cur, index-1)); err != nil {
		return domain.Reminder{}, err
	}
	return removed, nil
}

// Retire removes the reminder with the given id. A missing id is not an error.
func (s *Store) Retire(ctx context.Context, owner, id string) (domain.Reminder, bool, error) {
	return s.retireFirst(ctx, owner, func(r domain.Reminder) bool { return r.ID == id })
}

// RetireMatch removes the first reminder whose text and time both match.
// Reminders sharing text and time are indistinguishable here; prefer Retire.
func (s *Store) RetireMatch(ctx context.Context, owner, text string, at time.Time) (domain.Reminder, bool, error) {
	return s.retireFirst(ctx, owner, func(r domain.Reminder) bool {
		return r.Text == text && r.ScheduledAt.Equal(at)
	})
}

func (s *Store) retireFirst(ctx context.Context, owner string, match func(domain.Reminder) bool) (domain.Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.lists[owner]
	for i, r := range cur {
		if !match(r) {
			continue
		}
		if err := s.commit(ctx, owner, without(cur, i)); err != nil {
			return domain.Reminder{}, false, err
		}
		r.Status = domain.StatusDelivered
		return r, true, nil
	}
	return domain.Reminder{}, false, nil
}

// commit persists next and only then swaps it in. Callers hold mu.
func (s *Store) commit(ctx context.Context, owner string, next []domain.Reminder) error {
	if err := s.backend.Save(ctx, owner, records(next)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	if len(next) == 0 {
		delete(s.lists, owner)
		return nil
	}
	s.lists[owner] = next
	return nil
}

func without(list []domain.Reminder, i int) []domain.Reminder {
	out := make([]domain.Reminder, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func records(list []domain.Reminder) []domain.Record {
	out := make([]domain.Record, len(list))
	for i, r := range list {
		out[i] = r.Record()
	}
	return out
}
