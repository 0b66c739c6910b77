package domain

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientDataError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("valuation: %w", &InsufficientDataError{Symbol: "SH600519", Valid: 999, Required: 1000})

	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.False(t, errors.Is(err, ErrForecastUnavailable))

	var ide *InsufficientDataError
	assert.True(t, errors.As(err, &ide))
	assert.Equal(t, 999, ide.Valid)
	assert.Contains(t, err.Error(), "999 valid PE points, need 1000")
}

func TestStorageError(t *testing.T) {
	err := fmt.Errorf("ingest: %w", &StorageError{Op: "upsert price point", Symbol: "SZ000001", Err: sql.ErrConnDone})

	assert.True(t, IsStorageError(err))
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.Contains(t, err.Error(), "storage: upsert price point SZ000001")

	assert.False(t, IsStorageError(ErrForecastUnavailable))
	assert.Equal(t, "storage: begin: boom", (&StorageError{Op: "begin", Err: errors.New("boom")}).Error())
}

func TestSharesOutstanding(t *testing.T) {
	assert.Equal(t, 100.0, SharesOutstanding(1000, 10))
	assert.Equal(t, 0.0, SharesOutstanding(1000, 0))
	assert.Equal(t, 0.0, SharesOutstanding(1000, -1))
}

func TestPricePoint_HasValidPE(t *testing.T) {
	pos, zero, neg := 12.5, 0.0, -3.0

	assert.True(t, PricePoint{PE: &pos}.HasValidPE())
	assert.False(t, PricePoint{PE: &zero}.HasValidPE())
	assert.False(t, PricePoint{PE: &neg}.HasValidPE())
	assert.False(t, PricePoint{}.HasValidPE())
}
