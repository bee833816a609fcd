package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrStorageConflict marks a duplicate-key conflict on a path where none is
// expected, after one internal retry. Callers should treat it as transient.
var ErrStorageConflict = errors.New("storage conflict")

// retryOnConflict runs a write, retrying once when the storage layer reports
// an unexpected duplicate key. The check-in ledger does NOT use this: there a
// duplicate is the idempotency signal, not a conflict.
func retryOnConflict(fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	if err = fn(); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrStorageConflict, err)
		}
		return err
	}
	return nil
}
