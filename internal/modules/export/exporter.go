package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/rs/zerolog"
)

// AggregateFile is the name of the all-symbols artifact
const AggregateFile = "all_stocks_valuation.json"

// SeriesFile returns the per-symbol artifact name
func SeriesFile(symbol string) string {
	return symbol + "_valuation.json"
}

// SnapshotReader reads every stored snapshot
type SnapshotReader interface {
	AllValuationSnapshots() ([]domain.ValuationSnapshot, error)
}

// Result describes one export run
type Result struct {
	Symbols int      `json:"symbols"`
	Files   []string `json:"files"`
}

// Exporter writes the JSON artifacts and, optionally, the workbook
type Exporter struct {
	reader   SnapshotReader
	outDir   string
	location *time.Location
	workbook bool
	log      zerolog.Logger
}

// NewExporter creates a new exporter writing into outDir
func NewExporter(reader SnapshotReader, outDir string, location *time.Location, log zerolog.Logger) *Exporter {
	if location == nil {
		location = time.UTC
	}
	return &Exporter{
		reader:   reader,
		outDir:   outDir,
		location: location,
		log:      log.With().Str("component", "exporter").Logger(),
	}
}

// EnableWorkbook toggles the xlsx aggregate
func (e *Exporter) EnableWorkbook(enabled bool) {
	e.workbook = enabled
}

// Build reads the store and builds the report without writing anything
func (e *Exporter) Build(order []string) (Report, error) {
	snapshots, err := e.reader.AllValuationSnapshots()
	if err != nil {
		return Report{}, err
	}
	return BuildReport(snapshots, order, e.location), nil
}

// Export writes one file per exported symbol plus the aggregate.
// An empty store logs a warning and writes nothing.
func (e *Exporter) Export(order []string) (*Result, error) {
	snapshots, err := e.reader.AllValuationSnapshots()
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		e.log.Warn().Msg("No valuation data in store, nothing exported")
		return &Result{}, nil
	}

	report := BuildReport(snapshots, order, e.location)

	if err := os.MkdirAll(e.outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &Result{Symbols: len(report.Series)}

	for _, series := range report.Series {
		path := filepath.Join(e.outDir, SeriesFile(series.Symbol))
		if err := WriteJSON(path, series.Records); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	aggregate := filepath.Join(e.outDir, AggregateFile)
	if err := WriteJSON(aggregate, report.Latest); err != nil {
		return nil, err
	}
	result.Files = append(result.Files, aggregate)

	if e.workbook {
		path := filepath.Join(e.outDir, WorkbookFile)
		if err := WriteWorkbook(path, report.Latest); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	e.log.Info().
		Int("symbols", result.Symbols).
		Int("files", len(result.Files)).
		Str("dir", e.outDir).
		Msg("Valuation export written")

	return result, nil
}

// Marshal encodes v as 2-space indented JSON without HTML escaping
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes v to path through a temp file and rename
func WriteJSON(path string, v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", path, err)
	}
	return nil
}
