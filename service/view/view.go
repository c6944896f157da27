// Package view holds the presentation logic behind the explorer page:
// query cleanup, pagination and chart data.
package view

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/shopspring/decimal"
)

// DefaultPageSize is the number of transactions per table page.
const DefaultPageSize = 20

// ErrEmptyQuery is returned for a search that is blank after trimming.
var ErrEmptyQuery = errors.New("address is required")

// NormalizeQuery trims whitespace from a search string and rejects empty input.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}

// Page is one page of the transaction table.
type Page struct {
	Items      []contract.TransactionRecord
	Number     int // 1-based
	Size       int
	TotalPages int
	Total      int
}

// HasPrev reports whether a previous page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev returns the previous page number.
func (p Page) Prev() int { return p.Number - 1 }

// Next returns the next page number.
func (p Page) Next() int { return p.Number + 1 }

// Paginate returns page number `page` of records. Out-of-range pages are
// clamped to the nearest valid page; size <= 0 uses DefaultPageSize.
func Paginate(records []contract.TransactionRecord, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(records)
	totalPages := (total + size - 1) / size

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * size
	end := min(start+size, total)
	if start > total {
		start = total
	}

	return Page{
		Items:      records[start:end],
		Number:     page,
		Size:       size,
		TotalPages: totalPages,
		Total:      total,
	}
}

// Filter selects transactions by direction.
type Filter string

const (
	FilterAll Filter = "all"
	FilterIn  Filter = "in"
	FilterOut Filter = "out"
)

// ParseFilter maps a query value to a Filter. Unknown values mean FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterIn:
		return FilterIn
	case FilterOut:
		return FilterOut
	default:
		return FilterAll
	}
}

// FilterByType returns the records matching f, preserving order.
func FilterByType(records []contract.TransactionRecord, f Filter) []contract.TransactionRecord {
	out := make([]contract.TransactionRecord, 0, len(records))
	for _, r := range records {
		if f == FilterAll || string(r.Type) == string(f) {
			out = append(out, r)
		}
	}
	return out
}

// SortByTimestamp returns a copy of records ordered by ascending timestamp.
// Records with equal timestamps keep their relative order.
func SortByTimestamp(records []contract.TransactionRecord) []contract.TransactionRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b contract.TransactionRecord) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Point is one sample of the amount-over-time line chart.
type Point struct {
	Date   string          `json:"date"` // MM/DD
	Amount float64         `json:"amount"`
	Type   contract.TxType `json:"type"`
}

// LineSeries builds the line chart for the records matching f, oldest first.
// Records without a timestamp cannot be placed on the axis and are skipped.
func LineSeries(records []contract.TransactionRecord, f Filter) []Point {
	sorted := SortByTimestamp(FilterByType(records, f))
	points := make([]Point, 0, len(sorted))
	for _, r := range sorted {
		if r.Timestamp <= 0 {
			continue
		}
		points = append(points, Point{
			Date:   time.Unix(r.Timestamp, 0).UTC().Format("01/02"),
			Amount: parseAmount(r.Amount).InexactFloat64(),
			Type:   r.Type,
		})
	}
	return points
}

// Totals is the incoming vs. outgoing breakdown for the category chart.
type Totals struct {
	Incoming decimal.Decimal
	Outgoing decimal.Decimal
}

// Aggregate sums amounts by direction. Unparseable amounts count as zero.
func Aggregate(records []contract.TransactionRecord) Totals {
	var t Totals
	for _, r := range records {
		amt := parseAmount(r.Amount)
		switch r.Type {
		case contract.TxIn:
			t.Incoming = t.Incoming.Add(amt)
		case contract.TxOut:
			t.Outgoing = t.Outgoing.Add(amt)
		}
	}
	return t
}

// Slice is a named value of the category chart.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// PieSlices renders Totals in chart order.
func (t Totals) PieSlices() []Slice {
	return []Slice{
		{Name: "Incoming", Value: t.Incoming.InexactFloat64()},
		{Name: "Outgoing", Value: t.Outgoing.InexactFloat64()},
	}
}

func parseAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Truncate shortens s to n runes followed by "..." for compact table cells.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
