// Package scheduler refreshes the prescription records on a daily schedule,
// sweeps abandoned confirmation sessions and warns when data goes stale.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/giygas/prescriptions-api/interfaces"
	"github.com/giygas/prescriptions-api/logging"
	"github.com/giygas/prescriptions-api/recordsparser/entities"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

const (
	staleAfter  = 25 * time.Hour
	loadTimeout = 10 * time.Minute
)

// Options tunes the scheduled jobs.
type Options struct {
	RefreshSpec   string        // gocron At() spec, e.g. "06:00;18:00"
	SessionMaxAge time.Duration // idle age after which confirmation sessions are swept
}

// Scheduler handles data updates and session housekeeping using dependency injection
type Scheduler struct {
	store     interfaces.RecordStore
	source    interfaces.RecordSource
	validator interfaces.RecordValidator
	sweeper   interfaces.SessionSweeper
	opts      Options
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler. A nil source disables loading and
// refreshes; a nil sweeper disables the session sweep.
func NewScheduler(
	store interfaces.RecordStore,
	source interfaces.RecordSource,
	validator interfaces.RecordValidator,
	sweeper interfaces.SessionSweeper,
	opts Options,
) *Scheduler {
	if opts.RefreshSpec == "" {
		opts.RefreshSpec = "06:00;18:00"
	}
	if opts.SessionMaxAge <= 0 {
		opts.SessionMaxAge = 15 * time.Minute
	}
	return &Scheduler{
		store:     store,
		source:    source,
		validator: validator,
		sweeper:   sweeper,
		opts:      opts,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial load and schedules the recurring jobs.
func (s *Scheduler) Start() error {
	if s.source == nil {
		logging.Warn("No records source configured, serving an empty record set")
	} else {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to perform initial data load", "error", err)
			return fmt.Errorf("initial data load failed: %w", err)
		}

		_, err := s.scheduler.Every(1).Days().At(s.opts.RefreshSpec).Do(func() {
			if err := s.updateData(); err != nil {
				logging.Error("Failed to update data", "error", err)
			}
		})
		if err != nil {
			logging.Error("Failed to schedule updates", "error", err)
			return fmt.Errorf("failed to schedule updates: %w", err)
		}

		_, err = s.scheduler.Every(1).Hour().WaitForSchedule().Do(s.checkStaleness)
		if err != nil {
			return fmt.Errorf("failed to schedule staleness check: %w", err)
		}
	}

	if s.sweeper != nil {
		_, err := s.scheduler.Every(1).Minute().Do(s.sweepSessions)
		if err != nil {
			return fmt.Errorf("failed to schedule session sweep: %w", err)
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateData reloads the records, drops invalid ones and swaps them in.
func (s *Scheduler) updateData() error {
	// Prevent concurrent updates
	if !s.store.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.store.EndUpdate()

	logging.Info("Starting records update", "at", time.Now().Format(time.RFC3339))
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	loaded, err := s.source.LoadRecords(ctx)
	if err != nil {
		logging.Error("Failed to load records", "error", err)
		return fmt.Errorf("failed to load records: %w", err)
	}

	records := make([]entities.Prescription, 0, len(loaded))
	rejected := 0
	for i := range loaded {
		if err := s.validator.ValidateRecord(&loaded[i]); err != nil {
			rejected++
			logging.Debug("Rejected record", "error", err)
			continue
		}
		records = append(records, loaded[i])
	}
	if rejected > 0 {
		logging.Warn("Invalid records dropped", "count", rejected)
	}

	report := s.validator.ReportDataQuality(records)

	if report.UnparsableIssuedAt > 0 {
		logging.Warn("Records with unparsable issue dates",
			"count", report.UnparsableIssuedAt,
			"ids", report.UnparsableIssuedAtIDs,
		)
	}

	if report.UnknownStatuses > 0 {
		logging.Warn("Records with unknown status",
			"count", report.UnknownStatuses,
			"ids", report.UnknownStatusIDs,
		)
	}

	if len(report.ConflictingDoctorNames) > 0 {
		logging.Warn("Doctors with conflicting names",
			"doctor_ids", report.ConflictingDoctorNames,
		)
	}

	if report.MissingPatientIdentifier > 0 {
		logging.Warn("Records without patient identifier", "count", report.MissingPatientIdentifier)
	}

	s.store.UpdateData(records, report)

	logging.Info("Records update completed", "duration", time.Since(start).String(), "record_count", len(records))
	return nil
}

func (s *Scheduler) sweepSessions() {
	if removed := s.sweeper.Sweep(s.opts.SessionMaxAge); removed > 0 {
		logging.Debug("Swept confirmation sessions", "removed", removed)
	}
}

func (s *Scheduler) checkStaleness() {
	lastUpdate := s.store.GetLastUpdated()
	if time.Since(lastUpdate) > staleAfter {
		logging.Warn("Records haven't been updated in over 25 hours", "last_update", lastUpdate)
	}
}
