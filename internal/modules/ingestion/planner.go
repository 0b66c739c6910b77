// Package ingestion pulls price series and profit forecasts from external
// sources into the history store.
package ingestion

import "github.com/aristath/valuator/internal/domain"

const (
	// IncrementalCount is the catch-up window for a symbol already in the store
	IncrementalCount = 10
	// BackfillCount is the cold-start window, about ten years of trading days
	BackfillCount = domain.TenYearsTradingDays
)

// PlanRequestSize returns how many of the most recent trading days to request.
// A warm symbol only needs the latest increment; a cold one gets a full backfill.
// Misclassifying a symbol only costs extra fetched days, upserts absorb them.
func PlanRequestSize(symbol string, storeHasData bool) int {
	if storeHasData {
		return IncrementalCount
	}
	return BackfillCount
}
