// Package export turns stored valuation snapshots into the published
// per-symbol and aggregate artifacts.
package export

import (
	"sort"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/pkg/formulas"
)

// Record is one exported snapshot with derived display fields
type Record struct {
	domain.ValuationSnapshot
	Date                      string   `json:"date"`
	PredictedNetProfitBillion *float64 `json:"predicted_net_profit_billion,omitempty"`
}

// Series is the ascending snapshot history of one symbol
type Series struct {
	Symbol  string   `json:"symbol"`
	Records []Record `json:"records"`
}

// Report is everything the export writes
type Report struct {
	Series []Series `json:"series"`
	Latest []Record `json:"latest"`
}

// Symbols returns the exported symbols in canonical order
func (r Report) Symbols() []string {
	out := make([]string, len(r.Series))
	for i, s := range r.Series {
		out[i] = s.Symbol
	}
	return out
}

// Find returns the series for symbol
func (r Report) Find(symbol string) (Series, bool) {
	for _, s := range r.Series {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return Series{}, false
}

// BuildReport groups snapshots by symbol, sorts each group by ascending
// timestamp and emits groups in the canonical order. Symbols missing from
// either side are dropped. The aggregate takes the last record of each group.
func BuildReport(snapshots []domain.ValuationSnapshot, order []string, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}

	grouped := make(map[string][]domain.ValuationSnapshot)
	for _, s := range snapshots {
		grouped[s.Symbol] = append(grouped[s.Symbol], s)
	}

	report := Report{
		Series: make([]Series, 0, len(order)),
		Latest: make([]Record, 0, len(order)),
	}
	seen := make(map[string]bool, len(order))

	for _, symbol := range order {
		group, ok := grouped[symbol]
		if !ok || seen[symbol] {
			continue
		}
		seen[symbol] = true

		// stable keeps forecast vintages of the same day in store order
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp < group[j].Timestamp
		})

		records := make([]Record, len(group))
		for i, s := range group {
			records[i] = newRecord(s, loc)
		}

		report.Series = append(report.Series, Series{Symbol: symbol, Records: records})
		report.Latest = append(report.Latest, records[len(records)-1])
	}

	return report
}

func newRecord(s domain.ValuationSnapshot, loc *time.Location) Record {
	s.CurrentClose = formulas.Round2(s.CurrentClose)
	s.CurrentPE = formulas.Round2(s.CurrentPE)
	s.AvgPE5Y = formulas.Round2(s.AvgPE5Y)
	s.StdPE5Y = formulas.Round2(s.StdPE5Y)
	s.PEPercentile90 = formulas.Round2(s.PEPercentile90)
	s.ReasonablePE = formulas.Round2(s.ReasonablePE)
	s.PEValuationRatio = formulas.Round2(s.PEValuationRatio)
	s.NetProfitValuationRatio = formulas.Round2(s.NetProfitValuationRatio)
	s.PEBuyPoint = formulas.Round2(s.PEBuyPoint)
	s.ProfitBuyPoint = formulas.Round2(s.ProfitBuyPoint)
	s.PredictedNetProfit = formulas.Round2(s.PredictedNetProfit)

	r := Record{
		ValuationSnapshot: s,
		Date:              time.UnixMilli(s.Timestamp).In(loc).Format(domain.ForecastDateLayout),
	}
	if s.PredictedNetProfit != 0 {
		billion := formulas.Round2(s.PredictedNetProfit / 1e8)
		r.PredictedNetProfitBillion = &billion
	}
	return r
}
