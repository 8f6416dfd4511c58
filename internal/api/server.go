package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"remindflow/internal/domain"
	"remindflow/internal/reminder"
)

// Reminders is the reminder service as seen by the HTTP layer.
type Reminders interface {
	Create(ctx context.Context, req reminder.Request) (reminder.Confirmation, error)
	List(ctx context.Context, owner string) []domain.Reminder
	Cancel(ctx context.Context, owner string, index int) (domain.Reminder, error)
}

type Options struct {
	// Hub serves websocket subscriptions on /ws when set.
	Hub         http.Handler
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Debug       bool
}

type Server struct {
	r   *chi.Mux
	svc Reminders
}

func NewServer(svc Reminders, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	s := &Server{r: r, svc: svc}

	r.Get("/health", s.health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Hub != nil {
		r.Handle("/ws", opts.Hub)
	}

	r.Get("/api/help", s.help)
	r.Post("/api/reminders", s.createReminder)
	r.Get("/api/reminders/{owner}", s.listReminders)
	r.Delete("/api/reminders/{owner}/{index}", s.cancelReminder)

	if opts.Debug {
		r.HandleFunc("/debug/pprof/", pprof.Index)
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
		r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
		r.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
		r.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	}

	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) help(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResp{Message: reminder.HelpText})
}

type createReq struct {
	Owner  string `json:"owner_id"`
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type createResp struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	ScheduledAt string `json:"scheduled_at"`
	Offset      string `json:"offset"`
	Message     string `json:"message"`
}

type messageResp struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResp{Error: "invalid body", Message: err.Error()})
		return
	}
	if req.Owner == "" {
		writeJSON(w, http.StatusBadRequest, messageResp{Error: "owner_id is required"})
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, messageResp{Error: "text is required"})
		return
	}

	conf, err := s.svc.Create(r.Context(), reminder.Request{Owner: req.Owner, ChatID: req.ChatID, Text: req.Text})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResp{
		ID:          conf.Reminder.ID,
		Text:        conf.Reminder.Text,
		ScheduledAt: conf.Reminder.ScheduledAt.Format(time.RFC3339),
		Offset:      conf.Offset,
		Message:     conf.Message,
	})
}

type listItem struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Text        string `json:"text"`
	ScheduledAt string `json:"scheduled_at"`
}

type listResp struct {
	Reminders []listItem `json:"reminders"`
	Message   string     `json:"message"`
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	list := s.svc.List(r.Context(), chi.URLParam(r, "owner"))
	items := make([]listItem, 0, len(list))
	for i, rem := range list {
		items = append(items, listItem{
			Index:       i + 1,
			ID:          rem.ID,
			Text:        rem.Text,
			ScheduledAt: rem.ScheduledAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, listResp{Reminders: items, Message: reminder.ListText(list)})
}

type cancelResp struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

func (s *Server) cancelReminder(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, messageResp{
			Error:   "index must be a number",
			Message: "Usage: /cancel [number]\nUse /list to see your reminders.",
		})
		return
	}
	rem, err := s.svc.Cancel(r.Context(), chi.URLParam(r, "owner"), index)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResp{Text: rem.Text, Message: reminder.CancelText(rem)})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTimeNotUnderstood), errors.Is(err, domain.ErrTimeInPast):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOutOfRange), errors.Is(err, domain.ErrUnknownOwner):
		code = http.StatusNotFound
	}
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("reminder request failed")
	}
	writeJSON(w, code, messageResp{Error: err.Error(), Message: reminder.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}
