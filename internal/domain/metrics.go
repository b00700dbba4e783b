// Package domain holds the core types shared across the funnelboard service.
package domain

import "time"

// MetricRow is one raw row from the daily metrics table. The column set is
// non-contractual: names change between releases and values arrive as
// numbers, booleans or status strings. Normalization happens in the funnel
// package, not here.
type MetricRow map[string]any

// Investment is a spend entry from the investimentos table. The amount is
// pro-rated evenly across each day of the [DataInicio, DataFim] span.
type Investment struct {
	ID         int64   `json:"id,omitempty"`
	DataInicio string  `json:"data_inicio"` // YYYY-MM-DD
	DataFim    string  `json:"data_fim"`    // YYYY-MM-DD
	Valor      float64 `json:"valor"`
	Plataforma string  `json:"plataforma,omitempty"`
}

// FinancialSettings is the singleton financial configuration row.
// Only the average ticket is consumed by the KPI calculation.
type FinancialSettings struct {
	ID            int64   `json:"id,omitempty"`
	AverageTicket float64 `json:"average_ticket"`
}

// Period describes the date range a summary was computed for.
type Period struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// FunnelTotals are the flow metrics summed over the selected period.
type FunnelTotals struct {
	Leads     float64 `json:"leads"`
	Meetings  float64 `json:"meetings"`
	Contracts float64 `json:"contracts"`
	Protocols float64 `json:"protocols"`
}

// BacklogSnapshot carries the stock-style metrics: the value at the end of
// the period, not a sum over it.
type BacklogSnapshot struct {
	Pending       float64 `json:"pending"`
	Scheduling    float64 `json:"scheduling"`
	Documentation float64 `json:"documentation"`
	Production    float64 `json:"production"`
	Finance       float64 `json:"finance"`
}

// FinancialSummary combines allocated cost with the derived KPIs.
type FinancialSummary struct {
	InvestedCost    float64 `json:"invested_cost"`
	InvestedCostBRL string  `json:"invested_cost_brl"`
	CPA             float64 `json:"cpa"`
	CPABRL          string  `json:"cpa_brl"`
	Revenue         float64 `json:"revenue"`
	RevenueBRL      string  `json:"revenue_brl"`
	ROIPct          float64 `json:"roi_pct"`
	CostPerProtocol float64 `json:"cost_per_protocol"`
	AverageTicket   float64 `json:"average_ticket"`
}

// DashboardSummary is the full aggregate served to the frontend for one
// date range. It is recomputed from scratch on every request; Stale marks
// a summary replayed from the last successful computation after an
// upstream fetch failure.
type DashboardSummary struct {
	SnapshotID        string           `json:"snapshot_id"`
	Period            Period           `json:"period"`
	Records           int              `json:"records"`
	Totals            FunnelTotals     `json:"totals"`
	ConversionRatePct float64          `json:"conversion_rate_pct"`
	Backlog           BacklogSnapshot  `json:"backlog"`
	Financial         FinancialSummary `json:"financial"`
	Stale             bool             `json:"stale"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// EvolutionPoint is one day of the chart series.
type EvolutionPoint struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Leads     float64 `json:"leads"`
	Contracts float64 `json:"contracts"`
	Protocols float64 `json:"protocols"`
}

// --- Auth ---

type LoginRequest struct {
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// SuccessResponse is the generic acknowledgement body.
type SuccessResponse struct {
	Message string `json:"message"`
}

// FetchStats is the counter snapshot served by GET /v1/metrics/fetch.
type FetchStats struct {
	TotalFetches     int64   `json:"total_fetches"`
	FetchErrors      int64   `json:"fetch_errors"`
	ErrorRate        float64 `json:"error_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	RowsNormalized   int64   `json:"rows_normalized"`
	UnparseableDates int64   `json:"unparseable_dates"`
	StaleSummaries   int64   `json:"stale_summaries"`
	Period           string  `json:"period"`
}
