package video

import (
	"errors"
	"fmt"

	"github.com/ldynamics/vidstore/internal/storage"
)

// Every error returned by Gateway wraps exactly one of these.
var (
	ErrInvalidName      = errors.New("invalid object name")
	ErrInvalidContent   = errors.New("upload content could not be read")
	ErrNotFound         = errors.New("object not found")
	ErrStoreUnavailable = errors.New("object store unavailable")
	ErrLocalStaging     = errors.New("local staging failure")
)

// storeError maps a failed store call to the gateway taxonomy, keeping the
// cause in the chain.
func storeError(op, key string, err error) error {
	if errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("%s %q: %w: %w", op, key, ErrNotFound, err)
	}
	return fmt.Errorf("%s %q: %w: %w", op, key, ErrStoreUnavailable, err)
}

// outcome is the metrics status label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidContent):
		return "rejected"
	case errors.Is(err, ErrLocalStaging):
		return "staging_error"
	default:
		return "store_error"
	}
}
