package config

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/valuator/internal/domain"
	"gopkg.in/yaml.v3"
)

// CSV header aliases, Chinese names first
var (
	symbolHeaders     = []string{"股票代码", "symbol"}
	nameHeaders       = []string{"股票名称", "name"}
	multiplierHeaders = []string{"市盈率标准差倍数", "std_multiplier"}
)

// LoadSymbols reads the ordered symbol universe from a CSV or YAML file.
// The file order is the canonical export order.
func LoadSymbols(path string) ([]domain.SymbolConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol list: %w", err)
	}
	defer f.Close()

	var symbols []domain.SymbolConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		symbols, err = ParseSymbolsYAML(f)
	default:
		symbols, err = ParseSymbolsCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return symbols, nil
}

// ParseSymbolsCSV reads a header row followed by one symbol per row
func ParseSymbolsCSV(r io.Reader) ([]domain.SymbolConfig, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	symbolCol := findColumn(header, symbolHeaders)
	nameCol := findColumn(header, nameHeaders)
	multCol := findColumn(header, multiplierHeaders)
	if symbolCol < 0 || multCol < 0 {
		return nil, fmt.Errorf("header must contain a symbol and a std multiplier column, got %v", header)
	}

	var symbols []domain.SymbolConfig
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}

		cfg := domain.SymbolConfig{Symbol: field(record, symbolCol), Name: field(record, nameCol)}
		raw := field(record, multCol)
		cfg.StdMultiplier, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid std multiplier %q", line, raw)
		}
		symbols = append(symbols, cfg)
	}

	return symbols, validateSymbols(symbols)
}

type symbolsDocument struct {
	Symbols []domain.SymbolConfig `yaml:"symbols"`
}

// ParseSymbolsYAML reads either a top-level list or a {symbols: [...]} document
func ParseSymbolsYAML(r io.Reader) ([]domain.SymbolConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var symbols []domain.SymbolConfig
	if err := yaml.Unmarshal(data, &symbols); err != nil {
		var doc symbolsDocument
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", docErr)
		}
		symbols = doc.Symbols
	}

	for i := range symbols {
		symbols[i].Symbol = strings.TrimSpace(symbols[i].Symbol)
	}
	return symbols, validateSymbols(symbols)
}

// SymbolCodes returns the symbols in order
func SymbolCodes(symbols []domain.SymbolConfig) []string {
	codes := make([]string, len(symbols))
	for i, s := range symbols {
		codes[i] = s.Symbol
	}
	return codes
}

// SelectSymbols keeps the entries named in only, in universe order.
// An empty only returns the full universe; unknown names are an error.
func SelectSymbols(symbols []domain.SymbolConfig, only []string) ([]domain.SymbolConfig, error) {
	if len(only) == 0 {
		return symbols, nil
	}

	wanted := make(map[string]bool, len(only))
	for _, s := range only {
		wanted[s] = true
	}

	selected := make([]domain.SymbolConfig, 0, len(only))
	for _, s := range symbols {
		if wanted[s.Symbol] {
			selected = append(selected, s)
			delete(wanted, s.Symbol)
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for _, s := range only {
			if wanted[s] {
				unknown = append(unknown, s)
			}
		}
		return nil, fmt.Errorf("symbols not in universe: %s", strings.Join(unknown, ", "))
	}

	return selected, nil
}

func validateSymbols(symbols []domain.SymbolConfig) error {
	if len(symbols) == 0 {
		return fmt.Errorf("symbol list is empty")
	}
	seen := make(map[string]bool, len(symbols))
	for i, s := range symbols {
		if s.Symbol == "" {
			return fmt.Errorf("entry %d has an empty symbol", i+1)
		}
		if seen[s.Symbol] {
			return fmt.Errorf("duplicate symbol %s", s.Symbol)
		}
		seen[s.Symbol] = true
	}
	return nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, n := range names {
			if strings.EqualFold(h, n) {
				return i
			}
		}
	}
	return -1
}

func field(record []string, col int) string {
	if col < 0 || col >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[col])
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
