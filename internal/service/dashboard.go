package service

import (
	"context"
	"fmt"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/funnel"
	"github.com/moreirajr/funnelboard-go/internal/infra/observability"
	"github.com/moreirajr/funnelboard-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/dashboard")

// DashboardService orchestrates the summary pipeline: fetch raw rows,
// investments and settings concurrently, normalize, aggregate and derive
// KPIs for the requested range.
type DashboardService struct {
	metricsClient port.MetricsFetcher
	investments   port.InvestmentsStore
	settings      port.SettingsStore
	lastGood      port.Cache[*domain.DashboardSummary]
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewDashboardService creates the dashboard service with all dependencies
// injected. lastGood holds the most recent successful summary per range,
// replayed (marked stale) when an upstream fetch fails.
func NewDashboardService(
	metricsClient port.MetricsFetcher,
	investments port.InvestmentsStore,
	settings port.SettingsStore,
	lastGood port.Cache[*domain.DashboardSummary],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		metricsClient: metricsClient,
		investments:   investments,
		settings:      settings,
		lastGood:      lastGood,
		metrics:       metrics,
		logger:        logger,
	}
}

// fetched bundles the three upstream datasets a summary is computed from.
type fetched struct {
	rows        []domain.MetricRow
	investments []domain.Investment
	settings    *domain.FinancialSettings
}

// GetSummary computes the full dashboard aggregate for the range. On an
// upstream failure the last successful summary for the same range is
// replayed with Stale set; the error propagates only when there is no
// last-good copy to fall back on.
func (s *DashboardService) GetSummary(ctx context.Context, r funnel.DateRange) (*domain.DashboardSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Dashboard.GetSummary")
	defer span.End()
	span.SetAttributes(
		attribute.String("range.from", r.Start.Format("2006-01-02")),
		attribute.String("range.to", r.End.Format("2006-01-02")),
	)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("summary", time.Since(start))
	}()

	cacheKey := fmt.Sprintf("summary:%s:%s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))

	data, err := s.fetchAll(ctx, r)
	if err != nil {
		s.metrics.IncrFetch("error")
		if cached, ok := s.lastGood.Get(cacheKey); ok {
			s.metrics.IncrCacheHit("summary")
			s.metrics.IncrStaleSummary()
			s.logger.Warn("serving stale summary after fetch failure",
				zap.String("range", r.Label),
				zap.Error(err),
			)
			stale := *cached
			stale.Stale = true
			return &stale, nil
		}
		s.metrics.IncrCacheMiss("summary")
		return nil, err
	}
	s.metrics.IncrFetch("success")

	summary := s.compute(r, data)
	s.lastGood.Set(cacheKey, summary)
	return summary, nil
}

// fetchAll pulls rows, investments and settings concurrently. Any single
// failure fails the batch; partial aggregates would be misleading.
func (s *DashboardService) fetchAll(ctx context.Context, r funnel.DateRange) (*fetched, error) {
	var data fetched

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// History is fetched unbounded below the range end so backlog
		// snapshots can scan back past the range start.
		rows, err := s.metricsClient.FetchDailyMetrics(gCtx, "", r.End.Format("2006-01-02"))
		if err != nil {
			s.logger.Error("failed to fetch daily metrics", zap.Error(err))
			s.metrics.IncrExternalError("metrics")
			return fmt.Errorf("metrics fetch: %w", err)
		}
		data.rows = rows
		return nil
	})

	g.Go(func() error {
		invs, err := s.investments.ListInvestments(gCtx)
		if err != nil {
			s.logger.Error("failed to fetch investments", zap.Error(err))
			s.metrics.IncrExternalError("investments")
			return fmt.Errorf("investments fetch: %w", err)
		}
		data.investments = invs
		return nil
	})

	g.Go(func() error {
		st, err := s.settings.GetSettings(gCtx)
		if err != nil {
			s.logger.Error("failed to fetch settings", zap.Error(err))
			s.metrics.IncrExternalError("settings")
			return fmt.Errorf("settings fetch: %w", err)
		}
		data.settings = st
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

// compute runs the pure aggregation pipeline over already-fetched data.
func (s *DashboardService) compute(r funnel.DateRange, data *fetched) *domain.DashboardSummary {
	history, fallbacks := funnel.NormalizeAll(data.rows)
	s.metrics.RecordNormalization(len(history), fallbacks)
	if fallbacks > 0 {
		s.logger.Warn("rows with unparseable dates attributed to today",
			zap.Int("count", fallbacks),
		)
	}

	filtered := funnel.FilterByRange(history, r)

	entries := s.costEntries(data.investments)
	totalCost := funnel.TotalCost(r, entries)

	contracts := funnel.SumField(filtered, funnel.Keys(funnel.MetricContracts))
	protocols := funnel.SumField(filtered, funnel.Keys(funnel.MetricProtocols))
	kpis := funnel.ComputeKPIs(contracts, totalCost, protocols, data.settings.AverageTicket)

	return &domain.DashboardSummary{
		SnapshotID: uuid.NewString(),
		Period: domain.Period{
			From:  r.Start.Format("2006-01-02"),
			To:    r.End.Format("2006-01-02"),
			Label: r.Label,
		},
		Records: len(filtered),
		Totals: domain.FunnelTotals{
			Leads:     funnel.SumField(filtered, funnel.Keys(funnel.MetricLeads)),
			Meetings:  funnel.SumField(filtered, funnel.Keys(funnel.MetricMeetings)),
			Contracts: contracts,
			Protocols: protocols,
		},
		ConversionRatePct: funnel.RatioPct(filtered, funnel.Keys(funnel.MetricContracts), funnel.Keys(funnel.MetricLeads)),
		Backlog: domain.BacklogSnapshot{
			Pending:       funnel.SnapshotField(filtered, history, funnel.Keys(funnel.MetricPendingBacklog)),
			Scheduling:    funnel.SnapshotField(filtered, history, funnel.Keys(funnel.MetricSchedulingBacklog)),
			Documentation: funnel.SnapshotField(filtered, history, funnel.Keys(funnel.MetricDocumentationBacklog)),
			Production:    funnel.SnapshotField(filtered, history, funnel.Keys(funnel.MetricProductionBacklog)),
			Finance:       funnel.SnapshotField(filtered, history, funnel.Keys(funnel.MetricFinanceBacklog)),
		},
		Financial: domain.FinancialSummary{
			InvestedCost:    totalCost,
			InvestedCostBRL: domain.FormatBRL(totalCost),
			CPA:             kpis.CPA,
			CPABRL:          domain.FormatBRL(kpis.CPA),
			Revenue:         kpis.Revenue,
			RevenueBRL:      domain.FormatBRL(kpis.Revenue),
			ROIPct:          kpis.ROIPct,
			CostPerProtocol: kpis.CostPerProtocol,
			AverageTicket:   data.settings.AverageTicket,
		},
		GeneratedAt: time.Now().UTC(),
	}
}

// costEntries converts stored investments into validated cost entries,
// skipping rows with unparseable dates or inverted spans. A bad row loses
// its own allocation, not the whole financial block.
func (s *DashboardService) costEntries(investments []domain.Investment) []funnel.CostEntry {
	entries := make([]funnel.CostEntry, 0, len(investments))
	for _, inv := range investments {
		start, okS := funnel.ParseDay(inv.DataInicio)
		end, okE := funnel.ParseDay(inv.DataFim)
		if !okS || !okE {
			s.logger.Warn("skipping investment with unparseable dates",
				zap.Int64("id", inv.ID),
				zap.String("data_inicio", inv.DataInicio),
				zap.String("data_fim", inv.DataFim),
			)
			continue
		}
		entry, err := funnel.NewCostEntry(start, end, inv.Valor, inv.Plataforma)
		if err != nil {
			s.logger.Warn("skipping invalid investment",
				zap.Int64("id", inv.ID),
				zap.Error(err),
			)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

// GetFieldStats returns the dynamic per-column statistics for the range.
func (s *DashboardService) GetFieldStats(ctx context.Context, r funnel.DateRange) ([]funnel.FieldStat, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.GetFieldStats")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("field_stats", time.Since(start))
	}()

	rows, err := s.metricsClient.FetchDailyMetrics(ctx, "", r.End.Format("2006-01-02"))
	if err != nil {
		s.metrics.IncrExternalError("metrics")
		return nil, fmt.Errorf("metrics fetch: %w", err)
	}

	history, fallbacks := funnel.NormalizeAll(rows)
	s.metrics.RecordNormalization(len(history), fallbacks)
	filtered := funnel.FilterByRange(history, r)

	return funnel.FieldStats(history, filtered), nil
}

// GetEvolution returns the per-day chart series for the range: one point
// per record, resolved through the alias table.
func (s *DashboardService) GetEvolution(ctx context.Context, r funnel.DateRange) ([]domain.EvolutionPoint, error) {
	ctx, span := tracer.Start(ctx, "Dashboard.GetEvolution")
	defer span.End()

	rows, err := s.metricsClient.FetchDailyMetrics(ctx,
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	if err != nil {
		s.metrics.IncrExternalError("metrics")
		return nil, fmt.Errorf("metrics fetch: %w", err)
	}

	history, fallbacks := funnel.NormalizeAll(rows)
	s.metrics.RecordNormalization(len(history), fallbacks)
	filtered := funnel.FilterByRange(history, r)

	points := make([]domain.EvolutionPoint, 0, len(filtered))
	for _, rec := range filtered {
		leads, _ := funnel.FirstDefined(rec, funnel.Keys(funnel.MetricLeads))
		contracts, _ := funnel.FirstDefined(rec, funnel.Keys(funnel.MetricContracts))
		protocols, _ := funnel.FirstDefined(rec, funnel.Keys(funnel.MetricProtocols))
		points = append(points, domain.EvolutionPoint{
			Date:      rec.Date.Format("2006-01-02"),
			Leads:     leads,
			Contracts: contracts,
			Protocols: protocols,
		})
	}
	return points, nil
}
