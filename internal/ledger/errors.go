package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLimit is returned by SetLimit for a non-positive limit.
	ErrInvalidLimit = errors.New("daily limit must be positive")

	// ErrUnknownUser is returned by read operations on a key that has no
	// ledger record yet.
	ErrUnknownUser = errors.New("no ledger record for key")

	// ErrAmountOutOfRange is returned when an intake's magnitude exceeds
	// the configured sanity ceiling.
	ErrAmountOutOfRange = errors.New("amount exceeds sanity ceiling")

	// ErrStorageUnavailable wraps failures of the durable store. A caller
	// seeing it must not assume the update was persisted.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
)

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
