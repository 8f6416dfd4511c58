package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
)

type Handler interface {
	Handle(ctx context.Context, n domain.Notification) error
}

type HandlerFunc func(ctx context.Context, n domain.Notification) error

func (f HandlerFunc) Handle(ctx context.Context, n domain.Notification) error { return f(ctx, n) }

// Pool fans a notification out to every registered handler. The semaphore
// bounds concurrent handler calls across all deliveries.
type Pool struct {
	handlers map[string]Handler
	names    []string
	sem      chan struct{}
	timeout  time.Duration
}

func NewPool(handlers map[string]Handler, size int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Pool{handlers: handlers, names: names, sem: make(chan struct{}, size), timeout: timeout}
}

// Deliver runs every handler once and waits for all of them. The returned
// error wraps domain.ErrDelivery and lists each failed handler.
func (p *Pool) Deliver(ctx context.Context, n domain.Notification) error {
	if len(p.names) == 0 {
		return fmt.Errorf("%w: no handlers", domain.ErrDelivery)
	}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, name := range p.names {
		select {
		case p.sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return fmt.Errorf("%w: %w", domain.ErrDelivery, ctx.Err())
		}
		wg.Add(1)
		go func(name string, h Handler) {
			defer wg.Done()
			defer func() { <-p.sem }()
			c, cancel := p.withTimeout(ctx)
			defer cancel()
			if err := h.Handle(c, n); err != nil {
				log.Warn().Err(err).Str("handler", name).Str("reminder_id", n.ReminderID).Msg("handler failed")
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}(name, p.handlers[name])
	}
	wg.Wait()
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrDelivery, errors.Join(errs...))
	}
	return nil
}

func (p *Pool) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
