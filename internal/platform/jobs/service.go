package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
)

const JobLiquidationBook = "liquidation_book"

const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var (
	ErrQueueFull   = errors.New("job queue full")
	ErrRunNotFound = errors.New("job run not found")
)

type Run struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenantId"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Details     json.RawMessage `json:"details,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

type Func func(context.Context) (any, error)

type Service struct {
	runs  RunStore
	queue chan job
}

type job struct {
	RunID    string
	Type     string
	TenantID string
	Run      Func
}

func New(runs RunStore, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Service{
		runs:  runs,
		queue: make(chan job, queueSize),
	}
}

// Start runs queued jobs on a single worker until ctx is done.
func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
}

// Enqueue records a queued run and hands it to the worker. The returned id can be
// polled with Get.
func (s *Service) Enqueue(ctx context.Context, jobType, tenantID string, run Func) (string, error) {
	runID, err := s.runs.CreateRun(ctx, tenantID, jobType, StatusQueued)
	if err != nil {
		return "", err
	}
	select {
	case s.queue <- job{RunID: runID, Type: jobType, TenantID: tenantID, Run: run}:
		return runID, nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
		s.finish(context.WithoutCancel(ctx), runID, StatusFailed, map[string]string{"error": ErrQueueFull.Error()})
		return "", ErrQueueFull
	}
}

// RunNow executes run synchronously while still recording it in job_runs.
func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run Func) (any, error) {
	runID, err := s.runs.CreateRun(ctx, tenantID, jobType, StatusRunning)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", jobType, "err", err)
	}
	return s.execute(ctx, job{RunID: runID, Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) Get(ctx context.Context, tenantID, runID string) (Run, error) {
	return s.runs.GetRun(ctx, tenantID, runID)
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if err := s.runs.UpdateStatus(ctx, j.RunID, StatusRunning); err != nil {
				slog.Warn("job run update failed", "runId", j.RunID, "err", err)
			}
			if _, err := s.execute(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "runId", j.RunID, "err", err)
			}
		}
	}
}

func (s *Service) execute(ctx context.Context, j job) (any, error) {
	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		if details == nil {
			details = map[string]string{"error": err.Error()}
		}
	}
	if j.RunID != "" {
		s.finish(ctx, j.RunID, status, details)
	}
	return details, err
}

func (s *Service) finish(ctx context.Context, runID, status string, details any) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "runId", runID, "err", err)
		detailsJSON = []byte("{}")
	}
	if err := s.runs.FinishRun(ctx, runID, status, detailsJSON); err != nil {
		slog.Warn("job run update failed", "runId", runID, "err", err)
	}
}
