package service

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// BatchTrigger fires the recurring batch off a cron schedule, either on a
// fixed interval or once a day at a configured wall-clock time.
type BatchTrigger struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func NewBatchTrigger(loc *time.Location, log zerolog.Logger) *BatchTrigger {
	return &BatchTrigger{
		cron: cron.New(cron.WithLocation(loc)),
		log:  log.With().Str("component", "trigger").Logger(),
	}
}

// EveryInterval fires job on a fixed period. Periods under a second make no
// sense for a batch and are rejected.
func (t *BatchTrigger) EveryInterval(period time.Duration, job func()) error {
	if period < time.Second {
		return fmt.Errorf("trigger interval %s is too short", period)
	}
	if _, err := t.cron.AddFunc(fmt.Sprintf("@every %s", period), job); err != nil {
		return fmt.Errorf("register interval trigger: %w", err)
	}
	t.log.Info().Dur("period", period).Msg("interval trigger registered")
	return nil
}

// DailyAt fires job once per day at the given HH:MM wall-clock time in the
// trigger's location.
func (t *BatchTrigger) DailyAt(clock string, job func()) error {
	at, err := time.Parse("15:04", clock)
	if err != nil {
		return fmt.Errorf("daily trigger time %q: expected HH:MM", clock)
	}
	if _, err := t.cron.AddFunc(fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour()), job); err != nil {
		return fmt.Errorf("register daily trigger: %w", err)
	}
	t.log.Info().Str("at", clock).Msg("daily trigger registered")
	return nil
}

func (t *BatchTrigger) Start() {
	t.cron.Start()
}

// Stop halts the trigger and waits for an in-flight job to return.
func (t *BatchTrigger) Stop() {
	<-t.cron.Stop().Done()
}
