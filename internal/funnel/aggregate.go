package funnel

import (
	"sort"
	"strings"
	"time"
)

// DateRange is an inclusive [Start, End] calendar range. The label is for
// display only and never influences aggregation.
type DateRange struct {
	Start time.Time
	End   time.Time
	Label string
}

// NewDateRange builds a range with both bounds truncated to day granularity.
func NewDateRange(start, end time.Time, label string) DateRange {
	return DateRange{Start: Day(start), End: Day(end), Label: label}
}

// Contains reports whether the day of t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// FilterByRange returns the records whose date falls inside the range,
// preserving input order. An empty result means "no data for this period"
// and is a valid state, not an error.
func FilterByRange(records []CanonicalRecord, r DateRange) []CanonicalRecord {
	out := make([]CanonicalRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	return out
}

// FirstDefined scans candidate keys in priority order and returns the value
// of the first key the record actually carries, zero included. A present
// zero is a legitimate zero-day and must not fall through to a later alias.
func FirstDefined(rec CanonicalRecord, keys []string) (float64, bool) {
	for _, k := range keys {
		if v, ok := rec.Defined(k); ok {
			return v, true
		}
	}
	return 0, false
}

// SumField sums a metric across records, resolving each record's value via
// FirstDefined. Records carrying none of the candidate keys contribute 0.
func SumField(records []CanonicalRecord, keys []string) float64 {
	var total float64
	for _, rec := range records {
		v, _ := FirstDefined(rec, keys)
		total += v
	}
	return total
}

// SnapshotField reads a stock-style metric: the value in the chronologically
// last record of the filtered set. When that value is zero or absent it
// scans the full history backward for the most recent nonzero reading, so a
// missing daily row does not reset a real backlog to zero.
func SnapshotField(filtered, history []CanonicalRecord, keys []string) float64 {
	if len(filtered) > 0 {
		if v, ok := FirstDefined(filtered[len(filtered)-1], keys); ok && v != 0 {
			return v
		}
	}
	for i := len(history) - 1; i >= 0; i-- {
		if v, ok := FirstDefined(history[i], keys); ok && v != 0 {
			return v
		}
	}
	return 0
}

// RatioPct computes a percentage as the ratio of two summed metrics
// (e.g. contracts over leads). A zero denominator yields 0, never NaN.
func RatioPct(records []CanonicalRecord, numKeys, denKeys []string) float64 {
	den := SumField(records, denKeys)
	if den == 0 {
		return 0
	}
	return SumField(records, numKeys) / den * 100
}

// Mean is the arithmetic mean of a single field's daily values across the
// set; absent fields count as 0. Used for percentage-like fields with no
// known numerator/denominator pair, and for queue averages.
func Mean(records []CanonicalRecord, key string) float64 {
	if len(records) == 0 {
		return 0
	}
	var total float64
	for _, rec := range records {
		total += rec.Fields[key]
	}
	return total / float64(len(records))
}

// FieldStat is one entry of the dynamic per-column statistics, discovered
// from whatever fields the history actually carries.
type FieldStat struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Total     float64 `json:"total"`
	Today     float64 `json:"today"`
	LabelType string  `json:"label_type"`
	IsPercent bool    `json:"is_percent"`
}

// FieldStats computes a statistic for every numeric field present anywhere
// in the history, choosing the aggregation strategy by field name pattern:
// taxa/percentual fields are percentage-like (the conversion rate is
// recomputed from summed counts when possible, otherwise averaged),
// queue-style names are averaged, everything else is summed.
func FieldStats(history, filtered []CanonicalRecord) []FieldStat {
	seen := make(map[string]struct{})
	for _, rec := range history {
		for k := range rec.Fields {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stats := make([]FieldStat, 0, len(keys))
	for _, key := range keys {
		isPct := strings.Contains(key, "taxa") || strings.Contains(key, "percentual")
		isQueue := strings.Contains(key, "aguardando") || strings.Contains(key, "pendente") ||
			strings.Contains(key, "estoque") || strings.Contains(key, "producao")

		var total float64
		labelType := "Total no período"

		switch {
		case isPct:
			if strings.Contains(key, "conversao") {
				total = RatioPct(filtered, Keys(MetricContracts), Keys(MetricLeads))
			} else {
				total = Mean(filtered, key)
			}
			labelType = "Média/Ponderada"
		case isQueue:
			total = Mean(filtered, key)
			labelType = "Média da Fila"
		default:
			for _, rec := range filtered {
				total += rec.Fields[key]
			}
		}

		var today float64
		if len(filtered) > 0 {
			today = filtered[len(filtered)-1].Fields[key]
		}

		stats = append(stats, FieldStat{
			Key:       key,
			Label:     labelize(key),
			Total:     total,
			Today:     today,
			LabelType: labelType,
			IsPercent: isPct,
		})
	}
	return stats
}

// labelize turns a column name into a display label: underscores become
// spaces and each word is capitalized.
func labelize(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
