package valuation

import (
	"errors"

	"github.com/aristath/valuator/internal/domain"
)

// Status is the per-symbol result of a valuation pass
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Skip reasons
const (
	ReasonInsufficientData    = "insufficient_data"
	ReasonForecastUnavailable = "forecast_unavailable"
	ReasonInvalidForecast     = "invalid_forecast"
	ReasonStorage             = "storage_error"
)

// Outcome records what happened to one symbol
type Outcome struct {
	Symbol   string                    `json:"symbol"`
	Status   Status                    `json:"status"`
	Reason   string                    `json:"reason,omitempty"`
	Err      error                     `json:"-"`
	Snapshot *domain.ValuationSnapshot `json:"-"`
}

// Summary aggregates outcomes of a run
type Summary struct {
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Add counts o into the summary
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case StatusOK:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// SkipReasons counts skipped symbols per reason
func (s Summary) SkipReasons() map[string]int {
	reasons := make(map[string]int)
	for _, o := range s.Outcomes {
		if o.Status == StatusSkipped {
			reasons[o.Reason]++
		}
	}
	return reasons
}

// classify maps a compute error to a skip outcome.
// ok is false for errors that are not per-symbol skips.
func classify(symbol string, err error) (Outcome, bool) {
	var reason string
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		reason = ReasonInsufficientData
	case errors.Is(err, domain.ErrForecastUnavailable):
		reason = ReasonForecastUnavailable
	case errors.Is(err, domain.ErrInvalidForecast):
		reason = ReasonInvalidForecast
	default:
		return Outcome{}, false
	}
	return Outcome{Symbol: symbol, Status: StatusSkipped, Reason: reason, Err: err}, true
}
