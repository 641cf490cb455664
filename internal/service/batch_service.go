package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Orchestrator is the per-workspace scheduling entry point the batch
// coordinator drives. ScheduleService satisfies it.
type Orchestrator interface {
	ScheduleWorkspace(ctx context.Context, workspaceID uint, windowDays int, forceReschedule bool) (*Summary, error)
}

// WorkspaceDirectory discovers which workspaces have schedulable work.
type WorkspaceDirectory interface {
	ListAutoSchedulable(ctx context.Context) ([]uint, error)
}

// WorkspaceResult is one workspace's outcome within a batch.
type WorkspaceResult struct {
	WorkspaceID   uint
	Success       bool
	EventsCreated int
	Err           string
}

// BatchSummary aggregates a whole batch run.
type BatchSummary struct {
	RunID               string
	WorkspacesProcessed int
	Successful          int
	Failed              int
	TotalEventsCreated  int
	Results             []WorkspaceResult
}

// BatchConfig bounds a batch run.
type BatchConfig struct {
	Workers          int           // concurrent workspace runs, default 4
	WorkspaceTimeout time.Duration // per-workspace wall clock, default 60s
	Budget           time.Duration // whole-batch wall clock, 0 = unbounded
	WindowDays       int
}

// BatchService fans a scheduling run out across every workspace with
// auto-schedulable work. Workspaces are independent, so they run on a
// bounded worker pool; one workspace's failure is recorded and never stops
// the rest. When the batch budget expires, workspaces not yet started are
// simply left for the next run.
type BatchService struct {
	dir  WorkspaceDirectory
	orch Orchestrator
	cfg  BatchConfig
	log  zerolog.Logger
}

func NewBatchService(dir WorkspaceDirectory, orch Orchestrator, cfg BatchConfig, log zerolog.Logger) *BatchService {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.WorkspaceTimeout <= 0 {
		cfg.WorkspaceTimeout = time.Minute
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	return &BatchService{
		dir:  dir,
		orch: orch,
		cfg:  cfg,
		log:  log.With().Str("component", "batch").Logger(),
	}
}

// Run executes one batch. The returned error covers only discovery: once
// workspaces are known, every failure lands in the summary instead.
func (b *BatchService) Run(ctx context.Context) (*BatchSummary, error) {
	runID := uuid.NewString()
	start := time.Now()

	ids, err := b.dir.ListAutoSchedulable(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover workspaces: %w", err)
	}

	batchCtx := ctx
	cancel := context.CancelFunc(func() {})
	if b.cfg.Budget > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, b.cfg.Budget)
	}
	defer cancel()

	jobs := make(chan uint)
	var (
		mu      sync.Mutex
		results []WorkspaceResult
		wg      sync.WaitGroup
	)

	for i := 0; i < b.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wsID := range jobs {
				res := b.runOne(batchCtx, wsID)
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, wsID := range ids {
		select {
		case <-batchCtx.Done():
			// Budget exhausted: remaining workspaces wait for the next run.
			mu.Lock()
			processed := len(results)
			mu.Unlock()
			b.log.Warn().Str("run", runID).Int("left", len(ids)-processed).Msg("batch budget exhausted")
			break feed
		case jobs <- wsID:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].WorkspaceID < results[j].WorkspaceID })

	summary := &BatchSummary{
		RunID:               runID,
		WorkspacesProcessed: len(results),
		Results:             results,
	}
	for _, r := range results {
		if r.Success {
			summary.Successful++
			summary.TotalEventsCreated += r.EventsCreated
		} else {
			summary.Failed++
		}
	}

	b.log.Info().
		Str("run", runID).
		Int("processed", summary.WorkspacesProcessed).
		Int("ok", summary.Successful).
		Int("failed", summary.Failed).
		Int("events", summary.TotalEventsCreated).
		Dur("took", time.Since(start)).
		Msg("batch finished")
	return summary, nil
}

func (b *BatchService) runOne(ctx context.Context, workspaceID uint) (res WorkspaceResult) {
	res.WorkspaceID = workspaceID

	// One panicking workspace must not take the batch down with it.
	defer func() {
		if r := recover(); r != nil {
			res.Success = false
			res.Err = fmt.Sprintf("panic: %v", r)
			b.log.Error().Uint("workspace", workspaceID).Interface("panic", r).Msg("workspace run panicked")
		}
	}()

	wsCtx, cancel := context.WithTimeout(ctx, b.cfg.WorkspaceTimeout)
	defer cancel()

	summary, err := b.orch.ScheduleWorkspace(wsCtx, workspaceID, b.cfg.WindowDays, false)
	if err != nil {
		res.Err = err.Error()
		b.log.Warn().Uint("workspace", workspaceID).Err(err).Msg("workspace run failed")
		return res
	}

	res.Success = true
	res.EventsCreated = summary.EventsCreated
	return res
}
