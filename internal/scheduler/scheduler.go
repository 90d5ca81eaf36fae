package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sumalatex/suma/internal/domain/models"
)

// SummaryBuilder produces the end-of-day summary.
type SummaryBuilder interface {
	DailySummary(ctx context.Context, day time.Time) (models.DailySummary, string, error)
}

// SummaryArchive stores summaries. Optional.
type SummaryArchive interface {
	SaveDailySummary(ctx context.Context, summary models.DailySummary) error
}

// OwnerNotifier sends the summary text. Optional.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, message string) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	loc      *time.Location
	reports  SummaryBuilder
	archive  SummaryArchive
	notifier OwnerNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler running in the shop timezone. archive and
// notifier may be nil.
func NewScheduler(schedule string, loc *time.Location, reports SummaryBuilder, archive SummaryArchive, notifier OwnerNotifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		loc:      loc,
		reports:  reports,
		archive:  archive,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the daily summary job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule), zap.String("timezone", s.loc.String()))

	if _, err := s.cron.AddFunc(s.schedule, s.sendDailySummary); err != nil {
		return fmt.Errorf("schedule daily summary %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDailySummary(ctx); err != nil {
		s.logger.Error("daily summary failed", zap.Error(err))
	}
}

// RunDailySummary builds today's summary, archives it and sends it to the owner.
// Archive and delivery failures are logged; only a failed build is returned.
func (s *Scheduler) RunDailySummary(ctx context.Context) error {
	today := s.now().In(s.loc)
	s.logger.Info("generating daily summary", zap.String("date", today.Format("2006-01-02")))

	summary, text, err := s.reports.DailySummary(ctx, today)
	if err != nil {
		return fmt.Errorf("build daily summary: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.SaveDailySummary(ctx, summary); err != nil {
			s.logger.Error("failed to archive daily summary", zap.Error(err))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyOwner(ctx, text); err != nil {
			s.logger.Error("failed to send daily summary", zap.Error(err))
		} else {
			s.logger.Info("daily summary sent successfully")
		}
	}

	return nil
}
