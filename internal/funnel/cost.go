package funnel

import (
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
)

// CostEntry is a validated spend allocation: an amount pro-rated evenly
// across each day of its inclusive [Start, End] span.
type CostEntry struct {
	Start    time.Time
	End      time.Time
	Amount   float64
	Platform string
}

// NewCostEntry validates and builds a cost entry. An inverted span or a
// negative amount is rejected at construction.
func NewCostEntry(start, end time.Time, amount float64, platform string) (CostEntry, error) {
	start, end = Day(start), Day(end)
	if start.After(end) {
		return CostEntry{}, &domain.ErrValidation{Field: "data_fim", Message: "end date before start date"}
	}
	if amount < 0 {
		return CostEntry{}, &domain.ErrValidation{Field: "valor", Message: "must be nonnegative"}
	}
	return CostEntry{Start: start, End: end, Amount: amount, Platform: platform}, nil
}

// SpanDays is the number of calendar days the entry covers, both boundary
// days included, floored at 1.
func (e CostEntry) SpanDays() int {
	days := int(e.End.Sub(e.Start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

func (e CostEntry) contains(day time.Time) bool {
	return !day.Before(e.Start) && !day.After(e.End)
}

// DailyCost is the total spend attributed to one calendar day: the sum of
// amount/spanDays over every entry whose span contains the day. Overlapping
// entries are additive, not capped.
func DailyCost(date time.Time, entries []CostEntry) float64 {
	day := Day(date)
	var total float64
	for _, e := range entries {
		if e.contains(day) {
			total += e.Amount / float64(e.SpanDays())
		}
	}
	return total
}

// TotalCost sums DailyCost over every day of the range, both bounds
// inclusive.
func TotalCost(r DateRange, entries []CostEntry) float64 {
	var total float64
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		total += DailyCost(d, entries)
	}
	return total
}
