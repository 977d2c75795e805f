package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kkalbot/kkalbot/internal/config"
	"github.com/kkalbot/kkalbot/internal/metrics"
)

// Engine owns per-key daily totals and limits. All mutations go through the
// store's per-key atomic Upsert; the engine itself keeps no record state.
//
// Unknown-key policy, applied engine-wide: SetLimit and RecordIntake create
// a missing record (RecordIntake seeds the default limit, the way the
// original tracker behaved); GetStatus and ResetToday fail with
// ErrUnknownUser.
type Engine struct {
	store Store
	tiers Tiers

	defaultLimit int
	maxIntake    int
	cutoffHour   int
	loc          *time.Location

	// now is stubbed in tests.
	now func() time.Time
}

// NewEngine builds an engine over store using the configured zone, limits
// and tier breakpoints.
func NewEngine(store Store, cfg config.LedgerConfig) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolving ledger time zone: %w", err)
	}
	return &Engine{
		store:        store,
		tiers:        Tiers{Intake: cfg.IntakeBreakpoints, Headroom: cfg.HeadroomBreakpoints},
		defaultLimit: cfg.DefaultLimit,
		maxIntake:    cfg.MaxIntake,
		cutoffHour:   cfg.CutoffHour,
		loc:          loc,
		now:          time.Now,
	}, nil
}

// Tiers exposes the engine's classifiers to the front end.
func (e *Engine) Tiers() Tiers {
	return e.tiers
}

// SetLimit sets the daily limit for key, creating the record if absent.
// Used is left untouched on existing records.
func (e *Engine) SetLimit(ctx context.Context, key string, limit int) (Status, error) {
	if limit <= 0 {
		return Status{}, ErrInvalidLimit
	}
	rec, err := e.store.Upsert(ctx, key, func(rec Record, found bool) Record {
		if !found {
			rec = e.freshRecord()
		}
		rec = e.lazyReset(rec)
		rec.Limit = limit
		return rec
	})
	if err != nil {
		return Status{}, storageErr(err)
	}
	return statusOf(rec), nil
}

// RecordIntake adds amount to the key's daily total. A missing record is
// created with the default limit. Amounts beyond the sanity ceiling (in
// either direction; negative corrections are allowed through here only by
// explicit caller choice) are rejected before touching the store.
func (e *Engine) RecordIntake(ctx context.Context, key string, amount int) (Status, error) {
	if amount > e.maxIntake || amount < -e.maxIntake {
		return Status{}, ErrAmountOutOfRange
	}
	rec, err := e.store.Upsert(ctx, key, func(rec Record, found bool) Record {
		if !found {
			rec = e.freshRecord()
		}
		rec = e.lazyReset(rec)
		rec.Used += amount
		return rec
	})
	if err != nil {
		return Status{}, storageErr(err)
	}
	metrics.IntakesRecordedTotal.Inc()
	return statusOf(rec), nil
}

// GetStatus reads the key's current totals, applying the lazy-reset check
// first so a stale record reads the same whether or not the scheduled bulk
// reset already ran.
func (e *Engine) GetStatus(ctx context.Context, key string) (Status, error) {
	rec, found, err := e.store.Get(ctx, key)
	if err != nil {
		return Status{}, storageErr(err)
	}
	if !found {
		return Status{}, ErrUnknownUser
	}
	if e.resetDue(rec) {
		rec, err = e.store.Upsert(ctx, key, func(rec Record, found bool) Record {
			if !found {
				return rec
			}
			return e.lazyReset(rec)
		})
		if err != nil {
			return Status{}, storageErr(err)
		}
	}
	return statusOf(rec), nil
}

// ResetToday zeroes the key's usage immediately, independent of the
// schedule. The record survives; only Used is cleared.
func (e *Engine) ResetToday(ctx context.Context, key string) (Status, error) {
	_, found, err := e.store.Get(ctx, key)
	if err != nil {
		return Status{}, storageErr(err)
	}
	if !found {
		return Status{}, ErrUnknownUser
	}
	rec, err := e.store.Upsert(ctx, key, func(rec Record, found bool) Record {
		if !found {
			return rec
		}
		rec.Used = 0
		if today := e.today(); rec.LastReset < today {
			rec.LastReset = today
		}
		return rec
	})
	if err != nil {
		return Status{}, storageErr(err)
	}
	metrics.ResetsTotal.WithLabelValues("manual").Inc()
	return statusOf(rec), nil
}

// ResetAll zeroes every record's usage in one bulk pass, invoked by the
// scheduler at the daily cutoff. Running it twice on the same date is a
// no-op the second time.
func (e *Engine) ResetAll(ctx context.Context) (int, error) {
	today := e.today()
	n, err := e.store.ForEach(ctx, func(key string, rec Record) Record {
		rec.Used = 0
		if rec.LastReset < today {
			rec.LastReset = today
		}
		return rec
	})
	if err != nil {
		return 0, storageErr(err)
	}
	metrics.ResetsTotal.WithLabelValues("scheduled").Inc()
	slog.Info("daily reset applied", "records", n, "date", today)
	return n, nil
}

func (e *Engine) freshRecord() Record {
	return Record{Limit: e.defaultLimit, Used: 0, LastReset: e.today()}
}

func (e *Engine) today() string {
	return e.now().In(e.loc).Format(DateLayout)
}

// resetDue reports whether a daily cutoff has passed since rec.LastReset:
// either the record is from before yesterday, or it is from yesterday and
// today's cutoff hour has been reached. This makes the reset self-healing
// when the scheduler missed a tick.
func (e *Engine) resetDue(rec Record) bool {
	now := e.now().In(e.loc)
	today := now.Format(DateLayout)
	yesterday := now.AddDate(0, 0, -1).Format(DateLayout)
	if rec.LastReset < yesterday {
		return true
	}
	return rec.LastReset < today && now.Hour() >= e.cutoffHour
}

func (e *Engine) lazyReset(rec Record) Record {
	if !e.resetDue(rec) {
		return rec
	}
	rec.Used = 0
	rec.LastReset = e.today()
	metrics.ResetsTotal.WithLabelValues("lazy").Inc()
	return rec
}

func statusOf(rec Record) Status {
	return Status{Limit: rec.Limit, Used: rec.Used, Remaining: rec.Remaining()}
}
