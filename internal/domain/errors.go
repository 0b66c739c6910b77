package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the symbol has too few valid PE points
	ErrInsufficientData = errors.New("insufficient valid PE history")
	// ErrForecastUnavailable means no profit forecast is stored for the symbol
	ErrForecastUnavailable = errors.New("profit forecast unavailable")
	// ErrInvalidForecast means the stored forecast cannot be used as a divisor
	ErrInvalidForecast = errors.New("forecast net profit must be positive")
)

// InsufficientDataError carries the counts behind ErrInsufficientData
type InsufficientDataError struct {
	Symbol   string
	Valid    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %d valid PE points, need %d: %v", e.Symbol, e.Valid, e.Required, ErrInsufficientData)
}

// Is lets errors.Is match ErrInsufficientData
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// StorageError is an I/O or transactional failure of the store.
// It is fatal to a run: persisted state can no longer be trusted.
type StorageError struct {
	Op     string
	Symbol string
	Err    error
}

func (e *StorageError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Symbol, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsStorageError reports whether err wraps a *StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
