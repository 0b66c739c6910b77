package work

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/valuator/internal/modules/export"
	"github.com/aristath/valuator/internal/modules/ingestion"
	"github.com/aristath/valuator/internal/modules/valuation"
)

// RunTimeout is the maximum duration of one pipeline run.
// A full backfill of a large universe at 1s spacing stays well below it.
const RunTimeout = 2 * time.Hour

// Mode selects the stages of a run
type Mode string

const (
	ModeBasicData  Mode = "basic_data"
	ModeProfitData Mode = "profit_data"
	ModeProcess    Mode = "process"
	ModeExport     Mode = "export"
	ModeAll        Mode = "all"
)

// Stage identifies one step of the pipeline
type Stage string

const (
	StagePrices    Stage = "prices"
	StageForecasts Stage = "forecasts"
	StageValuation Stage = "valuation"
	StageExport    Stage = "export"
)

var modeStages = map[Mode][]Stage{
	ModeBasicData:  {StagePrices},
	ModeProfitData: {StageForecasts},
	ModeProcess:    {StageValuation, StageExport},
	ModeExport:     {StageExport},
	ModeAll:        {StagePrices, StageForecasts, StageValuation, StageExport},
}

// Modes lists every accepted mode
func Modes() []Mode {
	return []Mode{ModeAll, ModeBasicData, ModeProfitData, ModeProcess, ModeExport}
}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := modeStages[m]; !ok {
		names := make([]string, 0, len(modeStages))
		for _, mode := range Modes() {
			names = append(names, string(mode))
		}
		return "", fmt.Errorf("unknown mode %q (expected one of %s)", s, strings.Join(names, ", "))
	}
	return m, nil
}

// Stages returns the ordered stages of the mode
func (m Mode) Stages() []Stage {
	return modeStages[m]
}

// RunReport is the outcome of one pipeline run
type RunReport struct {
	RunID     string                 `json:"run_id"`
	Mode      Mode                   `json:"mode"`
	StartedAt time.Time              `json:"started_at"`
	Duration  time.Duration          `json:"duration"`
	Symbols   int                    `json:"symbols"`
	Prices    *ingestion.SyncSummary `json:"prices,omitempty"`
	Forecasts *ingestion.SyncSummary `json:"forecasts,omitempty"`
	Valuation *valuation.Summary     `json:"valuation,omitempty"`
	Export    *export.Result         `json:"export,omitempty"`
}
