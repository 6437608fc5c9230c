// Command checkd runs the check scheduler: the worker that issues recording
// checks for registered events and the HTTP API dashboards talk to.
//
// @title        Panopto Checks API
// @version      1.0
// @description  Schedules recording checks for registered events and notifies connected dashboards.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/panopto-checks/internal/broadcast"
	"github.com/tbourn/panopto-checks/internal/config"
	httpapi "github.com/tbourn/panopto-checks/internal/http"
	"github.com/tbourn/panopto-checks/internal/messaging"
	"github.com/tbourn/panopto-checks/internal/notify"
	"github.com/tbourn/panopto-checks/internal/observability"
	"github.com/tbourn/panopto-checks/internal/repo"
	"github.com/tbourn/panopto-checks/internal/services"
	"github.com/tbourn/panopto-checks/internal/sysutil"
	"github.com/tbourn/panopto-checks/internal/worker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version string

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("ignoring unreadable .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	sysutil.SetupLogging(os.Stdout, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("checkd stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ver := sysutil.FirstNonEmpty(version, os.Getenv("APP_VERSION"), "dev")
	gin.SetMode(cfg.GinMode)

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	timing := services.Timing{
		Interval:     cfg.Schedule.CheckInterval,
		Expiry:       cfg.Schedule.CheckExpiry,
		CheckAtStart: cfg.Schedule.CheckAtStart,
		Location:     loc,
	}

	store := repo.NewStore(cfg.DBPath, repo.Options{Tracing: cfg.OTEL.Enabled})
	hub := broadcast.NewHub(broadcast.DefaultBuffer)

	sinks := broadcast.Multi{hub}
	var syncer services.CompletionSyncer = services.LogSyncer{}
	var nc *messaging.Client
	if cfg.NATS.URL != "" {
		nc, err = messaging.Connect(cfg.NATS.URL, cfg.NATS.ClientName, cfg.NATS.SubjectPrefix)
		if err != nil {
			return err
		}
		sinks = append(sinks, nc)
		syncer = nc
	}

	alerts := notify.Multi{notify.HubAlerter{Hub: sinks}, notify.LogAlerter{}}
	if cfg.Telegram.Enabled() {
		alerts = append(alerts, notify.NewTelegramAlerter(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.APIURL))
	}

	disp := &services.Dispatcher{Store: store, Alerter: alerts, Broadcaster: sinks}
	flusher := &services.SyncService{Store: store, Syncer: syncer}
	checks := &services.CheckService{Store: store, Dispatcher: disp, Sync: flusher}
	sched := &services.Scheduler{
		Store:      store,
		Timing:     timing,
		Dispatcher: disp,
		Reaper:     &services.Reaper{Store: store, Expiry: timing.Expiry},
		Sync:       flusher,
	}

	w := worker.New(worker.NewRouter(checks), sched, checks, cfg.Schedule.TickInterval, cfg.Schedule.InboxSize)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go w.Run(workerCtx)

	unsubscribe := func() error { return nil }
	if nc != nil {
		if unsub, serr := nc.ServeCommands(workerCtx, w); serr != nil {
			log.Warn().Err(serr).Msg("nats commands disabled")
		} else {
			unsubscribe = unsub
		}
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, w, hub, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", ver).
			Str("timezone", loc.String()).
			Bool("nats", nc != nil).
			Bool("telegram", cfg.Telegram.Enabled()).
			Msg("checkd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-errc:
	}

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Open streams return once their channels close.
	hub.Close()
	if serr := srv.Shutdown(sctx); serr != nil {
		log.Warn().Err(serr).Msg("http shutdown")
	}

	_ = unsubscribe()
	stopWorker()
	select {
	case <-w.Done():
	case <-sctx.Done():
		log.Warn().Msg("worker did not stop in time")
	}

	nc.Close()
	if cerr := store.Close(); cerr != nil {
		log.Warn().Err(cerr).Msg("store close")
	}
	if oerr := shutdownOTel(sctx); oerr != nil {
		log.Warn().Err(oerr).Msg("otel shutdown")
	}
	return err
}
