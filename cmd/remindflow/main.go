package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"remindflow/internal/api"
	"remindflow/internal/config"
	"remindflow/internal/metrics"
	"remindflow/internal/notify"
	"remindflow/internal/reminder"
	"remindflow/internal/scheduler"
	"remindflow/internal/store"
	"remindflow/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP bind address")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "reminder store: sqlite or file")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite DB path")
	flag.StringVar(&cfg.FilePath, "file", cfg.FilePath, "JSON reminder file path")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setupLogging(cfg)

	backend, closeBackend := openBackend(cfg)
	defer closeBackend()

	ctx := context.Background()
	st, err := store.New(ctx, backend)
	if err != nil {
		log.Fatal().Err(err).Msg("load reminders")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New("remindflow", reg)
	if err != nil {
		log.Fatal().Err(err).Msg("register metrics")
	}

	// Notifiers registry
	hub := notify.NewHub()
	handlers := map[string]worker.Handler{
		"log":       notify.Log{},
		"websocket": hub,
	}
	if cfg.WebhookURL != "" {
		handlers["webhook"] = notify.NewWebhook(cfg.WebhookURL, cfg.DeliveryTimeout)
	}
	if fields := strings.Fields(cfg.NotifyCommand); len(fields) > 0 {
		handlers["command"] = notify.Command{Command: fields[0], Args: fields[1:]}
	}
	pool := worker.NewPool(handlers, cfg.DeliveryWorkers, cfg.DeliveryTimeout)

	sched := scheduler.NewService(reminder.StoreRetirer(st), scheduler.WithObserver(m))
	svc := reminder.NewService(st, sched, pool, reminder.WithMetrics(m))
	svc.Restore(ctx)
	sched.Start()

	// HTTP server
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewServer(svc, api.Options{
			Hub:         hub,
			Gatherer:    reg,
			CORSOrigins: cfg.CORSOrigins,
			Debug:       cfg.Debug,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.Store).Int("notifiers", len(handlers)).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("shutting down")
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	_ = srv.Shutdown(ctxTimeout)
	sched.Stop()
	hub.Close()
}

func setupLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, using info")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

func openBackend(cfg config.Config) (store.Backend, func()) {
	if cfg.Store == config.StoreFile {
		return store.NewFileBackend(afero.NewOsFs(), cfg.FilePath), func() {}
	}
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	if err := store.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	return store.NewSQLiteBackend(db), func() { _ = db.Close() }
}
