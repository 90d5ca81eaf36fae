package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sumalatex/suma/internal/domain/models"
)

type fakeReports struct {
	days []time.Time
	err  error
}

func (f *fakeReports) DailySummary(_ context.Context, day time.Time) (models.DailySummary, string, error) {
	f.days = append(f.days, day)
	if f.err != nil {
		return models.DailySummary{}, "", f.err
	}
	return models.DailySummary{Date: day, Income: 100}, "summary text", nil
}

type fakeArchive struct {
	saved []models.DailySummary
	err   error
}

func (f *fakeArchive) SaveDailySummary(_ context.Context, summary models.DailySummary) error {
	f.saved = append(f.saved, summary)
	return f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) NotifyOwner(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

func TestRunDailySummary(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	reports := &fakeReports{}
	archive := &fakeArchive{err: errors.New("mongo down")}
	notifier := &fakeNotifier{}

	s := NewScheduler("0 20 * * *", bangkok, reports, archive, notifier, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC) }

	if err := s.RunDailySummary(context.Background()); err != nil {
		t.Fatalf("Expected archive failure not to fail the job, got %v", err)
	}

	if len(reports.days) != 1 || reports.days[0].Day() != 2 {
		t.Errorf("Expected the summary for the shop-local day 2, got %v", reports.days)
	}
	if len(archive.saved) != 1 {
		t.Errorf("Expected archive attempt, got %d", len(archive.saved))
	}
	if len(notifier.messages) != 1 || notifier.messages[0] != "summary text" {
		t.Errorf("Expected summary to be sent, got %v", notifier.messages)
	}
}

func TestRunDailySummary_BuildFailure(t *testing.T) {
	notifier := &fakeNotifier{}
	s := NewScheduler("0 20 * * *", time.UTC, &fakeReports{err: errors.New("backend down")}, nil, notifier, nil)

	if err := s.RunDailySummary(context.Background()); err == nil {
		t.Fatalf("Expected build failure to be returned")
	}
	if len(notifier.messages) != 0 {
		t.Errorf("Expected nothing sent")
	}
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := NewScheduler("every evening", time.UTC, &fakeReports{}, nil, nil, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatalf("Expected invalid schedule to be rejected")
	}
}

func TestStart_Stop(t *testing.T) {
	s := NewScheduler("0 20 * * *", time.UTC, &fakeReports{}, nil, nil, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Expected scheduler to start, got %v", err)
	}
	if len(s.cron.Entries()) != 1 {
		t.Errorf("Expected 1 scheduled entry, got %d", len(s.cron.Entries()))
	}
	s.Stop()
}
