package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Pelanglene/213bot/internal/pkg/metrics"
	"github.com/Pelanglene/213bot/internal/ports/jobs"
	"github.com/Pelanglene/213bot/internal/ports/service"
)

// DefaultRetryDelays паузы перед повторными попытками: now + 1m + 10m + 30m
var DefaultRetryDelays = []time.Duration{
	1 * time.Minute,
	10 * time.Minute,
	30 * time.Minute,
}

// Scheduler управляет запуском периодических джоб
type Scheduler struct {
	jobs           []jobs.Job
	alerterService service.IAlerterService
	metrics        *metrics.Metrics
	retryDelays    []time.Duration
	log            *slog.Logger
}

// NewScheduler создаёт новый планировщик джоб; alerterService и m могут быть nil
func NewScheduler(log *slog.Logger, alerterService service.IAlerterService, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		jobs:           make([]jobs.Job, 0),
		alerterService: alerterService,
		metrics:        m,
		retryDelays:    DefaultRetryDelays,
		log:            log,
	}
}

// SetRetryDelays переопределяет паузы между попытками (пустой список - без ретраев)
func (s *Scheduler) SetRetryDelays(delays []time.Duration) {
	s.retryDelays = delays
}

// Register регистрирует джобу в планировщике
func (s *Scheduler) Register(job jobs.Job) {
	s.jobs = append(s.jobs, job)
	s.log.Debug("job registered", "job_name", job.Name(), "total_jobs", len(s.jobs))
}

// Start запускает все зарегистрированные джобы и блокируется до отмены ctx
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.jobs) == 0 {
		s.log.Warn("no jobs registered, scheduler not started")
		return nil
	}

	s.log.Info("starting job scheduler", "jobs_count", len(s.jobs))

	var wg sync.WaitGroup
	for _, job := range s.jobs {
		job := job
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runJob(ctx, job)
		}()
	}

	wg.Wait()
	s.log.Info("job scheduler stopped")
	return nil
}

// runJob запускает отдельную джобу в цикле
func (s *Scheduler) runJob(ctx context.Context, job jobs.Job) {
	jobName := job.Name()

	for {
		now := time.Now()
		nextRun := job.NextRun(now)

		s.log.Debug("job scheduled", "job_name", jobName, "next_run", nextRun)

		if !sleep(ctx, nextRun.Sub(now)) {
			s.log.Info("job stopped by context", "job_name", jobName)
			return
		}

		attemptErrors, err := s.executeJobWithRetry(ctx, job)
		s.metrics.JobRun(jobName, err)

		if err != nil {
			if ctx.Err() != nil {
				s.log.Info("job stopped by context", "job_name", jobName)
				return
			}
			s.log.Error("job failed after all retries",
				"job_name", jobName,
				"error", err,
				"attempts", len(attemptErrors),
			)
			s.sendAlert(ctx, jobName, attemptErrors)
			continue
		}

		s.log.Info("job executed successfully", "job_name", jobName)
	}
}

// jobAttemptError ошибка конкретной попытки выполнения джобы
type jobAttemptError struct {
	attempt int
	err     error
}

// executeJobWithRetry выполняет джобу, повторяя её после пауз из retryDelays.
// Возвращает ошибки всех попыток и финальную ошибку
func (s *Scheduler) executeJobWithRetry(ctx context.Context, job jobs.Job) ([]jobAttemptError, error) {
	jobName := job.Name()
	var attemptErrors []jobAttemptError

	for attempt := 1; ; attempt++ {
		err := job.Run(ctx)
		if err == nil {
			return nil, nil
		}
		attemptErrors = append(attemptErrors, jobAttemptError{attempt: attempt, err: err})

		retriesRemaining := len(s.retryDelays) - attempt + 1
		if retriesRemaining <= 0 {
			break
		}

		s.log.Warn("job execution failed, will retry",
			"job_name", jobName,
			"attempt", attempt,
			"retries_remaining", retriesRemaining,
			"error", err,
		)

		if !sleep(ctx, s.retryDelays[attempt-1]) {
			return attemptErrors, ctx.Err()
		}
	}

	return attemptErrors, fmt.Errorf("all retry attempts failed (total attempts: %d): %w",
		len(attemptErrors), attemptErrors[len(attemptErrors)-1].err)
}

// sendAlert алертит на финальную ошибку после ретраев
func (s *Scheduler) sendAlert(ctx context.Context, jobName string, attemptErrors []jobAttemptError) {
	if s.alerterService == nil {
		return
	}

	var errorLines []string
	for _, attemptErr := range attemptErrors {
		errorLines = append(errorLines, fmt.Sprintf("Попытка %d: %s", attemptErr.attempt, attemptErr.err.Error()))
	}

	var message strings.Builder
	message.WriteString("⚠️ Финальная ошибка планировщика, ретраи исчерпаны\n\n")
	message.WriteString(fmt.Sprintf("Джоба: %s\n\n", jobName))
	message.WriteString("Ошибки попыток:\n")
	message.WriteString(strings.Join(errorLines, "\n"))

	if alertErr := s.alerterService.SendAlert(ctx, message.String()); alertErr != nil {
		s.log.Warn("failed to send job failure alert",
			"job_name", jobName,
			"error", alertErr,
		)
	}
}

// sleep ждёт d или отмены ctx; false - контекст отменён
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
