// Package funnel implements the metrics aggregation core: normalization of
// schema-drifting daily rows, date-range filtering, field aggregation,
// pro-rated cost allocation and derived KPIs. Everything here is pure
// computation over data already fetched; no I/O, no state.
package funnel

import (
	"strconv"
	"strings"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
)

// CanonicalRecord is the normalized form of one raw metrics row: a calendar
// date plus a numeric value for every non-reserved column. A field absent
// from the map was absent from the source row; a field present with value 0
// was present but empty, zero or unparseable.
type CanonicalRecord struct {
	Date   time.Time
	Fields map[string]float64

	// DateFallback marks a row whose date could not be parsed and was
	// attributed to "today" so it still counts somewhere. Surfaced as a
	// counter for data-quality monitoring.
	DateFallback bool
}

// Defined reports the value of a field and whether the source row carried it.
func (r CanonicalRecord) Defined(key string) (float64, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// defaultDateKeys are tried in order when the caller does not name the
// date column explicitly.
var defaultDateKeys = []string{"data_referencia", "data"}

// reservedKeys are identity/contact/text columns that never become metrics.
var reservedKeys = map[string]struct{}{
	"id":       {},
	"telefone": {},
	"email":    {},
	"nome":     {},
	"origem":   {},
	"status":   {},
}

// positiveTokens are status strings that count as 1 when a boolean-like
// column arrives as text. Matched after trim + lowercase.
var positiveTokens = map[string]struct{}{
	"sim":       {},
	"s":         {},
	"x":         {},
	"true":      {},
	"ok":        {},
	"concluido": {},
	"concluído": {},
	"pendente":  {},
	"fila":      {},
	"acordo":    {},
}

// Normalize converts one raw row into a CanonicalRecord. It never fails:
// malformed values coerce to 0 and an unparseable date falls back first to
// the next date candidate and finally to the current day, so dirty rows
// degrade instead of blanking the dashboard.
//
// dateKeys name the column(s) holding the row's date, tried in order;
// when empty the defaults (data_referencia, data) apply.
func Normalize(raw domain.MetricRow, dateKeys ...string) CanonicalRecord {
	if len(dateKeys) == 0 {
		dateKeys = defaultDateKeys
	}

	rec := CanonicalRecord{Fields: make(map[string]float64, len(raw))}

	for _, k := range dateKeys {
		if s, ok := raw[k].(string); ok {
			if d, ok := ParseDay(s); ok {
				rec.Date = d
				break
			}
		}
	}
	if rec.Date.IsZero() {
		rec.Date = Day(time.Now())
		rec.DateFallback = true
	}

	for k, v := range raw {
		if _, reserved := reservedKeys[k]; reserved {
			continue
		}
		if isDateKey(k, dateKeys) {
			continue
		}
		rec.Fields[k] = coerceValue(v)
	}

	return rec
}

// NormalizeAll normalizes a batch in input order and reports how many rows
// needed the "today" date fallback.
func NormalizeAll(rows []domain.MetricRow, dateKeys ...string) (records []CanonicalRecord, dateFallbacks int) {
	records = make([]CanonicalRecord, 0, len(rows))
	for _, row := range rows {
		rec := Normalize(row, dateKeys...)
		if rec.DateFallback {
			dateFallbacks++
		}
		records = append(records, rec)
	}
	return records, dateFallbacks
}

// ParseDay parses a date-like string at day granularity. Accepted forms:
// YYYY-MM-DD, DD/MM/YYYY, and either with a time suffix separated by
// '_', 'T' or a space (the suffix is discarded). A four-character first
// segment means year-first; anything else is read day-first.
func ParseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "_T "); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, false
	}

	sep := "-"
	if !strings.Contains(s, sep) {
		sep = "/"
	}
	first, _, found := strings.Cut(s, sep)
	if !found {
		return time.Time{}, false
	}

	var layout string
	switch {
	case len(first) == 4 && sep == "-":
		layout = "2006-01-02"
	case len(first) == 4:
		layout = "2006/01/02"
	case sep == "-":
		layout = "02-01-2006"
	default:
		layout = "02/01/2006"
	}

	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return Day(t), true
}

// Day truncates a time to UTC midnight. All core comparisons happen at this
// granularity so callers cannot introduce fractional-day drift.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isDateKey(k string, dateKeys []string) bool {
	for _, dk := range dateKeys {
		if k == dk {
			return true
		}
	}
	return false
}

func coerceValue(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if _, ok := positiveTokens[s]; ok {
			return 1
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}
