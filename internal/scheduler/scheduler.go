package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/tinoq/sense-backend/internal/telemetry"
)

// Scheduler archives the previous day's daily report every night. The job is
// best-effort: a failure is logged and retried the next night.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *telemetry.Service
}

// New creates a new Scheduler.
func New(service *telemetry.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
	}
}

// Start schedules the nightly job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	// 00:05 rather than midnight, so readings written right at the day
	// boundary are already committed.
	_, err := s.scheduler.Every(1).Day().At("00:05").Do(func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		start := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report, err := s.service.GenerateReport(ctx, telemetry.ReportRequest{
			Type:        telemetry.ReportDaily,
			Start:       start,
			RequestedBy: "scheduler",
		})
		if err != nil {
			log.Printf("scheduler: nightly report for %s failed: %v", start.Format("2006-01-02"), err)
			return
		}
		log.Printf("scheduler: archived %s", report.Filename)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
