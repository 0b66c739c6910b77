package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WorkbookFile is the name of the optional xlsx aggregate
const WorkbookFile = "all_stocks_valuation.xlsx"

const workbookSheet = "Valuation"

var workbookHeaders = []string{
	"Symbol", "Date", "Close", "PE", "Avg PE 5Y", "Std PE 5Y", "PE P90",
	"Reasonable PE", "PE Valuation", "Net Profit Valuation", "PE Buy Point",
	"Profit Buy Point", "Forecast Profit (1e8)", "Profit Date", "Calculated At",
}

// BuildWorkbook lays the aggregate rows out on a single sheet
func BuildWorkbook(records []Record) (*excelize.File, error) {
	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", workbookSheet); err != nil {
		return nil, err
	}

	for i, h := range workbookHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := wb.SetCellValue(workbookSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for idx, r := range records {
		var billion interface{}
		if r.PredictedNetProfitBillion != nil {
			billion = *r.PredictedNetProfitBillion
		}

		row := []interface{}{
			r.Symbol, r.Date, r.CurrentClose, r.CurrentPE, r.AvgPE5Y, r.StdPE5Y,
			r.PEPercentile90, r.ReasonablePE, r.PEValuationRatio, r.NetProfitValuationRatio,
			r.PEBuyPoint, r.ProfitBuyPoint, billion, r.ProfitDate, r.CalculationDate,
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return nil, err
		}
		if err := wb.SetSheetRow(workbookSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	_ = wb.SetColWidth(workbookSheet, "A", "O", 14)

	return wb, nil
}

// WriteWorkbook builds and saves the workbook
func WriteWorkbook(path string, records []Record) error {
	wb, err := BuildWorkbook(records)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to render workbook: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}
