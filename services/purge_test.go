package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eduscan-api/config"
	"eduscan-api/pkg/logging"
)

type stubPurger struct {
	days chan int
	err  error
}

func (p *stubPurger) Purge(_ context.Context, daysOld int) (PurgeReport, error) {
	p.days <- daysOld
	return PurgeReport{DaysOld: daysOld, Predictions: 3}, p.err
}

func TestPurgeSchedulerRunsOnStart(t *testing.T) {
	purger := &stubPurger{days: make(chan int, 1)}
	reports := make(chan PurgeReport, 1)
	s := NewPurgeScheduler(purger, config.PurgeConfig{Enabled: true, DaysOld: 90, IntervalHours: 24}, logging.Nop(),
		func(_ context.Context, r PurgeReport) { reports <- r })

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Stop()

	select {
	case d := <-purger.days:
		if d != 90 {
			t.Errorf("daysOld = %d, want 90", d)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("purge did not run")
	}
	select {
	case r := <-reports:
		if r.Predictions != 3 {
			t.Errorf("Predictions = %d, want 3", r.Predictions)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("onPurged not called")
	}
}

func TestPurgeSchedulerSkipsCallbackOnError(t *testing.T) {
	purger := &stubPurger{days: make(chan int, 1), err: errors.New("disk full")}
	called := make(chan struct{}, 1)
	s := NewPurgeScheduler(purger, config.PurgeConfig{DaysOld: 30, IntervalHours: 1}, logging.Nop(),
		func(context.Context, PurgeReport) { called <- struct{}{} })

	s.run()
	<-purger.days
	select {
	case <-called:
		t.Error("onPurged called after a failed purge")
	default:
	}
}

func TestPurgeSchedulerRejectsZeroInterval(t *testing.T) {
	s := NewPurgeScheduler(&stubPurger{days: make(chan int, 1)}, config.PurgeConfig{IntervalHours: 0}, logging.Nop(), nil)
	if err := s.Start(); err == nil {
		t.Error("expected error for zero interval")
	}
}
