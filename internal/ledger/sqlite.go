package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS ledger_records (
	key         TEXT PRIMARY KEY,
	daily_limit INTEGER NOT NULL,
	used_today  INTEGER NOT NULL,
	last_reset  TEXT NOT NULL
);`

const lockStripes = 64

// SQLiteStore is a Store backed by an embedded SQLite database. Durability
// comes from synchronous=FULL: a committed transaction is flushed before
// Upsert/ForEach returns. Per-key serialization uses striped mutexes held
// under the read side of bulkMu; ForEach takes the write side so a bulk
// pass never interleaves with a single-key mutation.
type SQLiteStore struct {
	db     *sql.DB
	bulkMu sync.RWMutex
	locks  [lockStripes]sync.Mutex
}

// OpenSQLite opens (creating if needed) the database at path. A file that
// cannot be opened or migrated is moved aside and replaced by an empty
// database: availability wins over pre-existing broken state.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := openAndMigrate(path)
	if err != nil {
		aside := path + ".corrupt"
		slog.Warn("ledger store unreadable, starting empty", "path", path, "moved_to", aside, "error", err)
		if renameErr := os.Rename(path, aside); renameErr != nil && !errors.Is(renameErr, os.ErrNotExist) {
			return nil, fmt.Errorf("moving corrupt database aside: %w", renameErr)
		}
		db, err = openAndMigrate(path)
		if err != nil {
			return nil, fmt.Errorf("recreating ledger database: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func openAndMigrate(path string) (*sql.DB, error) {
	// _txlock=immediate: write transactions take the write lock at BEGIN,
	// so concurrent upserts queue on busy_timeout instead of failing a
	// deferred lock upgrade.
	dsn := "file:" + path + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) keyLock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &s.locks[h.Sum32()%lockStripes]
}

// Get returns the record for key, reporting whether one exists.
func (s *SQLiteStore) Get(ctx context.Context, key string) (Record, bool, error) {
	s.bulkMu.RLock()
	defer s.bulkMu.RUnlock()

	var rec Record
	err := s.db.QueryRowContext(ctx,
		`SELECT daily_limit, used_today, last_reset FROM ledger_records WHERE key = ?`, key,
	).Scan(&rec.Limit, &rec.Used, &rec.LastReset)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("fetching ledger record: %w", err)
	}
	return rec, true, nil
}

// Upsert applies mutate to the current record inside one transaction and
// commits the result. No caller ever observes a partially-applied mutation.
func (s *SQLiteStore) Upsert(ctx context.Context, key string, mutate func(rec Record, found bool) Record) (Record, error) {
	s.bulkMu.RLock()
	defer s.bulkMu.RUnlock()

	mu := s.keyLock(key)
	mu.Lock()
	defer mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback()

	var rec Record
	found := true
	err = tx.QueryRowContext(ctx,
		`SELECT daily_limit, used_today, last_reset FROM ledger_records WHERE key = ?`, key,
	).Scan(&rec.Limit, &rec.Used, &rec.LastReset)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
	} else if err != nil {
		return Record{}, fmt.Errorf("reading ledger record: %w", err)
	}

	rec = mutate(rec, found)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_records (key, daily_limit, used_today, last_reset)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   daily_limit = excluded.daily_limit,
		   used_today  = excluded.used_today,
		   last_reset  = excluded.last_reset`,
		key, rec.Limit, rec.Used, rec.LastReset)
	if err != nil {
		return Record{}, fmt.Errorf("writing ledger record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("committing upsert: %w", err)
	}
	return rec, nil
}

// ForEach applies visit to every record in one transaction. Single-key
// operations wait until the pass commits.
func (s *SQLiteStore) ForEach(ctx context.Context, visit func(key string, rec Record) Record) (int, error) {
	s.bulkMu.Lock()
	defer s.bulkMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning bulk pass: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT key, daily_limit, used_today, last_reset FROM ledger_records`)
	if err != nil {
		return 0, fmt.Errorf("listing ledger records: %w", err)
	}

	type keyed struct {
		key string
		rec Record
	}
	var all []keyed
	for rows.Next() {
		var kr keyed
		if err := rows.Scan(&kr.key, &kr.rec.Limit, &kr.rec.Used, &kr.rec.LastReset); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning ledger record: %w", err)
		}
		all = append(all, kr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterating ledger records: %w", err)
	}
	rows.Close()

	for _, kr := range all {
		updated := visit(kr.key, kr.rec)
		if updated == kr.rec {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE ledger_records SET daily_limit = ?, used_today = ?, last_reset = ? WHERE key = ?`,
			updated.Limit, updated.Used, updated.LastReset, kr.key)
		if err != nil {
			return 0, fmt.Errorf("updating ledger record %q: %w", kr.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing bulk pass: %w", err)
	}
	return len(all), nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
