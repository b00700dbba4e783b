package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/funnel"
	"github.com/moreirajr/funnelboard-go/internal/infra/cache"
	"github.com/moreirajr/funnelboard-go/internal/infra/observability"
	"github.com/moreirajr/funnelboard-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockMetricsFetcher struct {
	rows []domain.MetricRow
	err  error
}

func (m *mockMetricsFetcher) FetchDailyMetrics(_ context.Context, _, _ string) ([]domain.MetricRow, error) {
	return m.rows, m.err
}

type mockInvestmentsStore struct {
	investments []domain.Investment
	created     *domain.Investment
	deleteErr   error
	err         error
}

func (m *mockInvestmentsStore) ListInvestments(_ context.Context) ([]domain.Investment, error) {
	return m.investments, m.err
}

func (m *mockInvestmentsStore) CreateInvestment(_ context.Context, inv *domain.Investment) (*domain.Investment, error) {
	if m.err != nil {
		return nil, m.err
	}
	created := *inv
	created.ID = 1
	m.created = &created
	return &created, nil
}

func (m *mockInvestmentsStore) UpdateInvestment(_ context.Context, id int64, _ map[string]any) (*domain.Investment, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Investment{ID: id}, nil
}

func (m *mockInvestmentsStore) DeleteInvestment(_ context.Context, _ int64) error {
	return m.deleteErr
}

type mockSettingsStore struct {
	settings *domain.FinancialSettings
	err      error
}

func (m *mockSettingsStore) GetSettings(_ context.Context) (*domain.FinancialSettings, error) {
	if m.settings == nil {
		return &domain.FinancialSettings{}, m.err
	}
	return m.settings, m.err
}

func (m *mockSettingsStore) SaveSettings(_ context.Context, s *domain.FinancialSettings) (*domain.FinancialSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	saved := *s
	saved.ID = 1
	return &saved, nil
}

func newDashboard(fetcher *mockMetricsFetcher, inv *mockInvestmentsStore, set *mockSettingsStore) *service.DashboardService {
	return service.NewDashboardService(
		fetcher,
		inv,
		set,
		cache.New[*domain.DashboardSummary](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func janRange(startDay, endDay int) funnel.DateRange {
	return funnel.NewDateRange(
		time.Date(2024, 1, startDay, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, endDay, 0, 0, 0, 0, time.UTC),
		"custom",
	)
}

// --- Tests ---

func TestGetSummary_Success(t *testing.T) {
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "total_leads_dia": float64(10), "total_contratos_dia": float64(1), "juridico_protocolados": float64(2), "comercial_pendentes_total": float64(4)},
		{"data_referencia": "2024-01-02", "total_leads_dia": float64(30), "total_contratos_dia": float64(1), "juridico_protocolados": float64(0), "comercial_pendentes_total": float64(7)},
	}}
	inv := &mockInvestmentsStore{investments: []domain.Investment{
		{ID: 1, DataInicio: "2024-01-01", DataFim: "2024-01-02", Valor: 1000},
	}}
	set := &mockSettingsStore{settings: &domain.FinancialSettings{ID: 1, AverageTicket: 3000}}

	svc := newDashboard(fetcher, inv, set)

	summary, err := svc.GetSummary(context.Background(), janRange(1, 2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if summary.Records != 2 {
		t.Errorf("records = %d, want 2", summary.Records)
	}
	if summary.Totals.Leads != 40 {
		t.Errorf("leads = %v, want 40", summary.Totals.Leads)
	}
	if summary.Totals.Contracts != 2 {
		t.Errorf("contracts = %v, want 2", summary.Totals.Contracts)
	}
	if summary.ConversionRatePct != 5 {
		t.Errorf("conversion = %v, want 5", summary.ConversionRatePct)
	}
	if summary.Backlog.Pending != 7 {
		t.Errorf("pending backlog = %v, want 7", summary.Backlog.Pending)
	}
	if summary.Financial.InvestedCost != 1000 {
		t.Errorf("invested cost = %v, want 1000", summary.Financial.InvestedCost)
	}
	// 2 contracts * 3000 ticket, cpa 500, roi (6000-1000)/1000
	if summary.Financial.Revenue != 6000 {
		t.Errorf("revenue = %v, want 6000", summary.Financial.Revenue)
	}
	if summary.Financial.CPA != 500 {
		t.Errorf("cpa = %v, want 500", summary.Financial.CPA)
	}
	if summary.Financial.ROIPct != 500 {
		t.Errorf("roi = %v, want 500", summary.Financial.ROIPct)
	}
	if summary.Stale {
		t.Error("fresh summary must not be stale")
	}
	if summary.SnapshotID == "" {
		t.Error("snapshot id missing")
	}
}

func TestGetSummary_BacklogScansHistoryBeyondRange(t *testing.T) {
	// Backlog reading comes from Jan 1, outside the queried Jan 2 range,
	// because Jan 2 reports zero.
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "comercial_pendentes_total": float64(9)},
		{"data_referencia": "2024-01-02", "comercial_pendentes_total": float64(0)},
	}}
	svc := newDashboard(fetcher, &mockInvestmentsStore{}, &mockSettingsStore{})

	summary, err := svc.GetSummary(context.Background(), janRange(2, 2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Backlog.Pending != 9 {
		t.Errorf("pending backlog = %v, want 9 from history", summary.Backlog.Pending)
	}
}

func TestGetSummary_StaleFallbackAfterFetchFailure(t *testing.T) {
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "total_leads_dia": float64(5)},
	}}
	svc := newDashboard(fetcher, &mockInvestmentsStore{}, &mockSettingsStore{})

	r := janRange(1, 1)
	first, err := svc.GetSummary(context.Background(), r)
	if err != nil {
		t.Fatalf("seed summary failed: %v", err)
	}

	fetcher.err = errors.New("connection refused")

	second, err := svc.GetSummary(context.Background(), r)
	if err != nil {
		t.Fatalf("expected stale fallback, got error %v", err)
	}
	if !second.Stale {
		t.Error("replayed summary must be marked stale")
	}
	if second.Totals.Leads != first.Totals.Leads {
		t.Errorf("stale summary diverged: %v vs %v", second.Totals.Leads, first.Totals.Leads)
	}
	if first.Stale {
		t.Error("cached original must stay unmarked")
	}
}

func TestGetSummary_FetchFailureWithoutCache(t *testing.T) {
	fetcher := &mockMetricsFetcher{err: errors.New("boom")}
	svc := newDashboard(fetcher, &mockInvestmentsStore{}, &mockSettingsStore{})

	_, err := svc.GetSummary(context.Background(), janRange(1, 1))
	if err == nil {
		t.Fatal("expected error with no last-good summary")
	}
}

func TestGetSummary_SkipsInvalidInvestments(t *testing.T) {
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "total_contratos_dia": float64(1)},
	}}
	inv := &mockInvestmentsStore{investments: []domain.Investment{
		{ID: 1, DataInicio: "garbage", DataFim: "2024-01-02", Valor: 100},
		{ID: 2, DataInicio: "2024-01-01", DataFim: "2024-01-01", Valor: 50},
	}}
	svc := newDashboard(fetcher, inv, &mockSettingsStore{})

	summary, err := svc.GetSummary(context.Background(), janRange(1, 1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Financial.InvestedCost != 50 {
		t.Errorf("invested cost = %v, want 50 (bad entry skipped)", summary.Financial.InvestedCost)
	}
}

func TestGetSummary_ZeroContractsNeutralKPIs(t *testing.T) {
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "total_leads_dia": float64(20)},
	}}
	inv := &mockInvestmentsStore{investments: []domain.Investment{
		{ID: 1, DataInicio: "2024-01-01", DataFim: "2024-01-01", Valor: 500},
	}}
	svc := newDashboard(fetcher, inv, &mockSettingsStore{settings: &domain.FinancialSettings{AverageTicket: 3000}})

	summary, err := svc.GetSummary(context.Background(), janRange(1, 1))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	f := summary.Financial
	if f.CPA != 0 || f.Revenue != 0 || f.ROIPct != 0 {
		t.Errorf("expected neutral kpis without contracts, got %+v", f)
	}
	if f.InvestedCost != 500 {
		t.Errorf("cost must still be reported, got %v", f.InvestedCost)
	}
}

func TestGetSummary_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newDashboard(&mockMetricsFetcher{}, &mockInvestmentsStore{}, &mockSettingsStore{})

	if _, err := svc.GetSummary(ctx, janRange(1, 1)); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestGetEvolution_ResolvesAliases(t *testing.T) {
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "contratos_fechados": "sim", "aguardando_analise": float64(12)},
		{"data_referencia": "2024-01-02", "total_contratos_dia": float64(3), "total_leads_dia": float64(8)},
	}}
	svc := newDashboard(fetcher, &mockInvestmentsStore{}, &mockSettingsStore{})

	points, err := svc.GetEvolution(context.Background(), janRange(1, 2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Contracts != 1 || points[0].Leads != 12 {
		t.Errorf("legacy aliases not resolved: %+v", points[0])
	}
	if points[1].Contracts != 3 || points[1].Leads != 8 {
		t.Errorf("new columns not resolved: %+v", points[1])
	}
}

func TestGetFieldStats(t *testing.T) {
	fetcher := &mockMetricsFetcher{rows: []domain.MetricRow{
		{"data_referencia": "2024-01-01", "reunioes_feitas": float64(2), "aguardando_analise": float64(4)},
		{"data_referencia": "2024-01-02", "reunioes_feitas": float64(3), "aguardando_analise": float64(6)},
	}}
	svc := newDashboard(fetcher, &mockInvestmentsStore{}, &mockSettingsStore{})

	stats, err := svc.GetFieldStats(context.Background(), janRange(1, 2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}
}

// --- InvestmentsService ---

func TestInvestmentsCreate_RejectsInvertedSpan(t *testing.T) {
	svc := service.NewInvestmentsService(&mockInvestmentsStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), &domain.Investment{
		DataInicio: "2024-01-10",
		DataFim:    "2024-01-01",
		Valor:      100,
	})

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestInvestmentsCreate_RejectsBadDate(t *testing.T) {
	svc := service.NewInvestmentsService(&mockInvestmentsStore{}, zap.NewNop())

	_, err := svc.Create(context.Background(), &domain.Investment{
		DataInicio: "not-a-date",
		DataFim:    "2024-01-01",
		Valor:      100,
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestInvestmentsCreate_Success(t *testing.T) {
	store := &mockInvestmentsStore{}
	svc := service.NewInvestmentsService(store, zap.NewNop())

	created, err := svc.Create(context.Background(), &domain.Investment{
		DataInicio: "2024-01-01",
		DataFim:    "2024-01-03",
		Valor:      300,
		Plataforma: "meta",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned id")
	}
}

// --- SettingsService ---

func TestSettingsSave_RejectsNegativeTicket(t *testing.T) {
	svc := service.NewSettingsService(&mockSettingsStore{}, zap.NewNop())

	_, err := svc.Save(context.Background(), &domain.FinancialSettings{AverageTicket: -1})

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSettingsSave_Success(t *testing.T) {
	svc := service.NewSettingsService(&mockSettingsStore{}, zap.NewNop())

	saved, err := svc.Save(context.Background(), &domain.FinancialSettings{AverageTicket: 2500})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if saved.AverageTicket != 2500 {
		t.Errorf("ticket = %v, want 2500", saved.AverageTicket)
	}
}
