package ledger

import "context"

// Store is durable keyed storage of ledger records. Every successful write
// is on disk before the call returns; Upsert is the sole mutation path for
// single keys and serializes concurrent callers per key without blocking
// operations on other keys.
type Store interface {
	// Get returns the record for key, reporting whether one exists.
	Get(ctx context.Context, key string) (Record, bool, error)

	// Upsert applies mutate to the current record (found=false and a zero
	// Record when absent) and persists the result as one atomic unit.
	// It returns the record as persisted.
	Upsert(ctx context.Context, key string, mutate func(rec Record, found bool) Record) (Record, error)

	// ForEach applies visit to every record in a single transaction and
	// persists the returned values. An Upsert arriving during the pass
	// applies entirely before or entirely after it. Returns the number of
	// records visited.
	ForEach(ctx context.Context, visit func(key string, rec Record) Record) (int, error)

	// Ping verifies the store is reachable, for readiness probes.
	Ping(ctx context.Context) error

	Close() error
}
