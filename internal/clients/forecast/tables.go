package forecast

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var yearPattern = regexp.MustCompile(`[0-9]{4}`)

// Table is a parsed HTML table: the first row is the header
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseTables returns every <table> of the document in document order,
// nested tables included. Rows of a nested table are not attributed to its parent.
func ParseTables(body []byte) ([]Table, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var tables []Table
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			tables = append(tables, parseTable(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tables, nil
}

func parseTable(table *html.Node) Table {
	var rows [][]string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
				// nested table, parsed on its own
			case atom.Tr:
				rows = append(rows, parseRow(c))
			default:
				walk(c)
			}
		}
	}
	walk(table)

	t := Table{}
	if len(rows) > 0 {
		t.Header = rows[0]
		t.Rows = rows[1:]
	}
	return t
}

func parseRow(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			cells = append(cells, cellText(c))
		}
	}
	return cells
}

func cellText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return normalizeSpace(sb.String())
}

// normalizeSpace trims and collapses runs of whitespace to one space
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LastRow returns the last data row keyed by header
func (t Table) LastRow() (map[string]string, bool) {
	if len(t.Rows) == 0 {
		return nil, false
	}
	row := t.Rows[len(t.Rows)-1]
	out := make(map[string]string, len(t.Header))
	for i, h := range t.Header {
		if i < len(row) {
			out[h] = row[i]
		}
	}
	return out, true
}

// parseNumber accepts thousands separators and surrounding text like "2025年"
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimSuffix(s, "年")
	if s == "" || s == "-" || s == "--" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(s, 64)
}

// parseYear reads the first run of four digits in a fiscal-year cell,
// so "2025年", "2025E" and "预测2025" all yield 2025
func parseYear(s string) (int, error) {
	match := yearPattern.FindString(s)
	if match == "" {
		return 0, fmt.Errorf("invalid year %q: no four-digit year", strings.TrimSpace(s))
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q: %w", s, err)
	}
	return year, nil
}
