package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"calendar-scheduler/internal/config"
	"calendar-scheduler/internal/notify"
	"calendar-scheduler/internal/repository"
	"calendar-scheduler/internal/server"
	"calendar-scheduler/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger("info")
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	log = newLogger(cfg.LogLevel)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	habitRepo := repository.NewHabitRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)

	scheduleSvc := service.NewScheduleService(habitRepo, taskRepo, eventRepo, workspaceRepo, log)
	lifecycleSvc := service.NewLifecycleService(eventRepo, creatorOnlyPermissions{}, log)
	batchSvc := service.NewBatchService(workspaceRepo, scheduleSvc, service.BatchConfig{
		Workers:          cfg.BatchWorkers,
		WorkspaceTimeout: cfg.WorkspaceTimeout,
		Budget:           cfg.BatchBudget,
		WindowDays:       cfg.WindowDays,
	}, log)

	notifier, err := notify.New(cfg.TelegramToken, cfg.OpsChatID, log)
	if err != nil {
		log.Fatal().Err(err).Msg("notifier")
	}

	batch := &notifyingBatch{batch: batchSvc, notifier: notifier}

	trigger := service.NewBatchTrigger(time.UTC, log)
	runBatch := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), cfg.BatchBudget+time.Minute)
		defer cancel()
		if _, err := batch.Run(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("scheduled batch run failed")
		}
	}
	if cfg.BatchDailyAt != "" {
		err = trigger.DailyAt(cfg.BatchDailyAt, runBatch)
	} else {
		err = trigger.EveryInterval(cfg.CronInterval, runBatch)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("schedule batch")
	}
	trigger.Start()
	defer trigger.Stop()

	srv := server.New(cfg.HTTPAddr, cfg.CronSecret, batch, scheduleSvc, lifecycleSvc, log)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Msg("calendar scheduler started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server stopped with error")
	}
	log.Info().Msg("shutdown complete")
}

// notifyingBatch posts the ops summary after every batch run.
type notifyingBatch struct {
	batch    *service.BatchService
	notifier *notify.Notifier
}

func (n *notifyingBatch) Run(ctx context.Context) (*service.BatchSummary, error) {
	summary, err := n.batch.Run(ctx)
	if err == nil {
		n.notifier.BatchFinished(summary)
	}
	return summary, err
}

// creatorOnlyPermissions stands in for the platform's auth service when the
// scheduler runs standalone: the creator check in the lifecycle service is
// the only gate left, so management permission is always granted.
type creatorOnlyPermissions struct{}

func (creatorOnlyPermissions) CanManageCalendar(ctx context.Context, userID, workspaceID uint) (bool, error) {
	return true, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}
