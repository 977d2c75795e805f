package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kkalbot/kkalbot/internal/config"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	store := setupStore(t)
	eng, err := NewEngine(store, config.LedgerConfig{
		DefaultLimit:        2000,
		MaxIntake:           5000,
		CutoffHour:          6,
		Timezone:            "Europe/Moscow",
		IntakeBreakpoints:   []int{80, 200, 450, 800},
		HeadroomBreakpoints: []float64{0.25, 0.55, 0.8, 1.0},
	})
	require.NoError(t, err)
	return eng
}

// at pins the engine clock to a local wall-clock instant in its zone.
func at(eng *Engine, day string, hour int) {
	d, err := time.ParseInLocation(DateLayout, day, eng.loc)
	if err != nil {
		panic(err)
	}
	pinned := d.Add(time.Duration(hour) * time.Hour)
	eng.now = func() time.Time { return pinned }
}

func TestEngine_SetLimitCreatesRecord(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	st, err := eng.SetLimit(ctx, "42", 1800)
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 1800, Used: 0, Remaining: 1800}, st)
}

func TestEngine_SetLimitRejectsNonPositive(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	_, err := eng.SetLimit(ctx, "42", 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	_, err = eng.SetLimit(ctx, "42", -100)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestEngine_SetLimitKeepsUsage(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	_, err := eng.RecordIntake(ctx, "42", 700)
	require.NoError(t, err)

	st, err := eng.SetLimit(ctx, "42", 2500)
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 2500, Used: 700, Remaining: 1800}, st)
}

func TestEngine_RecordIntakeAutoCreates(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	st, err := eng.RecordIntake(ctx, "42", 300)
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 2000, Used: 300, Remaining: 1700}, st)
}

func TestEngine_RecordIntakeAccumulates(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	_, err := eng.RecordIntake(ctx, "42", 300)
	require.NoError(t, err)
	st, err := eng.RecordIntake(ctx, "42", 450)
	require.NoError(t, err)
	assert.Equal(t, 750, st.Used)

	got, err := eng.GetStatus(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, st, got)
}

func TestEngine_RecordIntakeCeiling(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	_, err := eng.RecordIntake(ctx, "42", 6000)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = eng.RecordIntake(ctx, "42", -6000)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	// Boundary value passes
	_, err = eng.RecordIntake(ctx, "42", 5000)
	assert.NoError(t, err)
}

func TestEngine_ZeroIntakeIsValid(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	st, err := eng.RecordIntake(ctx, "42", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Used)
}

func TestEngine_NegativeCorrection(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	_, err := eng.RecordIntake(ctx, "42", 500)
	require.NoError(t, err)
	st, err := eng.RecordIntake(ctx, "42", -200)
	require.NoError(t, err)
	assert.Equal(t, 300, st.Used)
}

func TestEngine_GetStatusUnknown(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)

	_, err := eng.GetStatus(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestEngine_ResetTodayUnknown(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)

	_, err := eng.ResetToday(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUnknownUser)
}

func TestEngine_ResetToday(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	_, err := eng.SetLimit(ctx, "42", 1800)
	require.NoError(t, err)
	_, err = eng.RecordIntake(ctx, "42", 900)
	require.NoError(t, err)

	st, err := eng.ResetToday(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 1800, Used: 0, Remaining: 1800}, st)
}

func TestEngine_LazyResetAfterCutoff(t *testing.T) {
	eng := setupEngine(t)
	ctx := context.Background()

	at(eng, "2026-08-31", 12)
	_, err := eng.RecordIntake(ctx, "42", 1500)
	require.NoError(t, err)

	// Next day, past the 06:00 cutoff: the scheduler never ran, the
	// record still reads fresh.
	at(eng, "2026-09-01", 7)
	st, err := eng.GetStatus(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 2000, Used: 0, Remaining: 2000}, st)
}

func TestEngine_NoLazyResetBeforeCutoff(t *testing.T) {
	eng := setupEngine(t)
	ctx := context.Background()

	at(eng, "2026-08-31", 23)
	_, err := eng.RecordIntake(ctx, "42", 1500)
	require.NoError(t, err)

	// 05:00 next day is still inside yesterday's tracking day.
	at(eng, "2026-09-01", 5)
	st, err := eng.GetStatus(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 1500, st.Used)
}

func TestEngine_LazyResetAfterMissedDays(t *testing.T) {
	eng := setupEngine(t)
	ctx := context.Background()

	at(eng, "2026-08-28", 12)
	_, err := eng.RecordIntake(ctx, "42", 1500)
	require.NoError(t, err)

	// Several cutoffs passed while the process was down; even before
	// today's cutoff the record is stale.
	at(eng, "2026-09-01", 5)
	st, err := eng.GetStatus(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Used)
}

// A stale record must read identically whether the scheduled bulk reset
// already ran or the lazy check catches it on access.
func TestEngine_LazyResetEquivalence(t *testing.T) {
	ctx := context.Background()

	seed := func(eng *Engine) {
		at(eng, "2026-08-31", 12)
		_, err := eng.RecordIntake(ctx, "k", 1234)
		require.NoError(t, err)
		at(eng, "2026-09-01", 8)
	}

	lazy := setupEngine(t)
	seed(lazy)

	scheduled := setupEngine(t)
	seed(scheduled)
	_, err := scheduled.ResetAll(ctx)
	require.NoError(t, err)

	lazySt, err := lazy.GetStatus(ctx, "k")
	require.NoError(t, err)
	schedSt, err := scheduled.GetStatus(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, schedSt, lazySt)
}

func TestEngine_ResetAllIdempotent(t *testing.T) {
	eng := setupEngine(t)
	ctx := context.Background()

	at(eng, "2026-08-31", 12)
	for _, key := range []string{"1", "2"} {
		_, err := eng.RecordIntake(ctx, key, 800)
		require.NoError(t, err)
	}

	at(eng, "2026-09-01", 6)
	_, err := eng.ResetAll(ctx)
	require.NoError(t, err)

	firstSt, err := eng.GetStatus(ctx, "1")
	require.NoError(t, err)
	firstRec, _, err := eng.store.Get(ctx, "1")
	require.NoError(t, err)

	_, err = eng.ResetAll(ctx)
	require.NoError(t, err)

	secondSt, err := eng.GetStatus(ctx, "1")
	require.NoError(t, err)
	secondRec, _, err := eng.store.Get(ctx, "1")
	require.NoError(t, err)

	assert.Equal(t, firstSt, secondSt)
	assert.Equal(t, firstRec.LastReset, secondRec.LastReset)
	assert.Equal(t, 0, secondSt.Used)
}

func TestEngine_LastResetNeverMovesBackward(t *testing.T) {
	eng := setupEngine(t)
	ctx := context.Background()

	at(eng, "2026-09-01", 12)
	_, err := eng.RecordIntake(ctx, "42", 100)
	require.NoError(t, err)

	_, err = eng.ResetAll(ctx)
	require.NoError(t, err)

	rec, _, err := eng.store.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-01", rec.LastReset)
}

// No lost updates: N concurrent intakes of 1 leave Used == N.
func TestEngine_ConcurrentIntakes(t *testing.T) {
	eng := setupEngine(t)
	at(eng, "2026-09-01", 12)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := eng.RecordIntake(ctx, "shared", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	st, err := eng.GetStatus(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, n, st.Used)
}

func TestEngine_EndToEnd(t *testing.T) {
	eng := setupEngine(t)
	ctx := context.Background()

	at(eng, "2026-08-31", 12)
	_, err := eng.SetLimit(ctx, "k", 2000)
	require.NoError(t, err)

	_, err = eng.RecordIntake(ctx, "k", 300)
	require.NoError(t, err)

	st, err := eng.GetStatus(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 2000, Used: 300, Remaining: 1700}, st)

	// The scheduled reset fires at the next cutoff.
	at(eng, "2026-09-01", 6)
	_, err = eng.ResetAll(ctx)
	require.NoError(t, err)

	st, err = eng.GetStatus(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, Status{Limit: 2000, Used: 0, Remaining: 2000}, st)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "123", UserKey(123))
	assert.Equal(t, "-100456:123", ChatUserKey(-100456, 123))
	assert.NotEqual(t, ChatUserKey(1, 23), ChatUserKey(12, 3))
}
