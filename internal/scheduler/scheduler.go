// Package scheduler runs the once-a-day bulk reset at the configured
// wall-clock cutoff.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Resetter is what fires at the cutoff; satisfied by the ledger engine.
type Resetter interface {
	ResetAll(ctx context.Context) (int, error)
}

// Scheduler sleeps until the next cutoff occurrence, fires the bulk reset,
// and re-arms. The next fire time is re-derived from calendar arithmetic
// each cycle, so variable day lengths across DST transitions are handled
// by the zone database rather than by a fixed-duration timer. A process
// paused across one or more cutoffs fires exactly once on resume for the
// next future occurrence; missed days are caught by the engine's lazy
// reset.
type Scheduler struct {
	resetter   Resetter
	cutoffHour int
	loc        *time.Location

	// now is stubbed in tests.
	now func() time.Time
}

func New(resetter Resetter, cutoffHour int, loc *time.Location) *Scheduler {
	return &Scheduler{
		resetter:   resetter,
		cutoffHour: cutoffHour,
		loc:        loc,
		now:        time.Now,
	}
}

// NextFire returns the next instant at or after now whose wall clock in loc
// reads cutoffHour:00. If today's occurrence has already passed (or is
// exactly now), tomorrow's is chosen.
func NextFire(now time.Time, cutoffHour int, loc *time.Location) time.Time {
	local := now.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), cutoffHour, 0, 0, 0, loc)
	if !target.After(now) {
		target = time.Date(local.Year(), local.Month(), local.Day()+1, cutoffHour, 0, 0, 0, loc)
	}
	return target
}

// Run blocks until ctx is cancelled, firing the reset at each cutoff. The
// sleep is the only blocking point and cancellation never leaves store
// state half-written: the reset itself is a single store transaction.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := NextFire(s.now(), s.cutoffHour, s.loc)
		slog.Info("reset scheduled", "at", next)

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("reset scheduler stopped")
			return
		case <-timer.C:
		}

		if _, err := s.resetter.ResetAll(ctx); err != nil {
			slog.Error("scheduled reset failed", "error", err)
		}
	}
}
