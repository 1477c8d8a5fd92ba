package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"regime-allocator/internal/domain"
)

// CSV errors
var (
	ErrMissingColumn = errors.New("csv: required column missing")
	ErrMalformedRow  = errors.New("csv: malformed row")
)

// Accepted header names, case-insensitive.
var (
	dateColumns   = []string{"date", "time", "timestamp", "timestamp_ms"}
	symbolColumns = []string{"symbol", "ticker"}
	closeColumns  = []string{"adj_close", "adjclose", "close"}
)

// CSVSource serves bars parsed from CSV data. Column order is free: the
// header must name a date column and a close column, plus a symbol column
// unless a default symbol is given. Dates are YYYY-MM-DD (midnight UTC) or
// Unix milliseconds. When both adj_close and close exist, adj_close wins.
type CSVSource struct {
	bars map[string][]*domain.PriceBar
}

// NewCSVSource parses r. defaultSymbol applies to files without a symbol column.
func NewCSVSource(r io.Reader, defaultSymbol string) (*CSVSource, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	dateIdx, ok := firstColumn(cols, dateColumns)
	if !ok {
		return nil, fmt.Errorf("%w: date", ErrMissingColumn)
	}
	closeIdx, ok := firstColumn(cols, closeColumns)
	if !ok {
		return nil, fmt.Errorf("%w: close", ErrMissingColumn)
	}
	symbolIdx, hasSymbol := firstColumn(cols, symbolColumns)
	if !hasSymbol && defaultSymbol == "" {
		return nil, fmt.Errorf("%w: symbol", ErrMissingColumn)
	}

	src := &CSVSource{bars: make(map[string][]*domain.PriceBar)}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		need := max(dateIdx, closeIdx)
		if hasSymbol {
			need = max(need, symbolIdx)
		}
		if len(rec) <= need {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedRow, line, len(rec))
		}

		ts, err := parseTimestamp(rec[dateIdx])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRow, line, err)
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(rec[closeIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: close: %v", ErrMalformedRow, line, err)
		}
		symbol := defaultSymbol
		if hasSymbol {
			symbol = strings.ToUpper(strings.TrimSpace(rec[symbolIdx]))
		}

		src.bars[symbol] = append(src.bars[symbol], &domain.PriceBar{
			Symbol:      symbol,
			TimestampMs: ts,
			Close:       closePrice,
		})
	}
	return src, nil
}

// OpenCSVSource parses the file at path.
func OpenCSVSource(path, defaultSymbol string) (*CSVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, err := NewCSVSource(f, defaultSymbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}

// Fetch returns the parsed bars of symbol within [from, to], in file order.
func (s *CSVSource) Fetch(_ context.Context, symbol string, from, to int64) ([]*domain.PriceBar, error) {
	var out []*domain.PriceBar
	for _, b := range s.bars[symbol] {
		if b.TimestampMs >= from && b.TimestampMs <= to {
			barCopy := *b
			out = append(out, &barCopy)
		}
	}
	return out, nil
}

// Symbols lists parsed symbols, sorted.
func (s *CSVSource) Symbols(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.bars))
	for sym := range s.bars {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func firstColumn(cols map[string]int, names []string) (int, bool) {
	for _, n := range names {
		if i, ok := cols[n]; ok {
			return i, true
		}
	}
	return 0, false
}

func parseTimestamp(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t.UnixMilli(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UnixMilli(), nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: want YYYY-MM-DD, RFC 3339 or unix ms", v)
	}
	return ms, nil
}

var _ BarSource = (*CSVSource)(nil)
