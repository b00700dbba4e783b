package funnel_test

import (
	"testing"
	"time"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/funnel"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(date time.Time, fields map[string]float64) funnel.CanonicalRecord {
	return funnel.CanonicalRecord{Date: date, Fields: fields}
}

func TestFilterByRange_InclusiveBounds(t *testing.T) {
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), nil),
		rec(day(2024, 1, 2), nil),
		rec(day(2024, 1, 3), nil),
		rec(day(2024, 1, 4), nil),
	}
	r := funnel.NewDateRange(day(2024, 1, 2), day(2024, 1, 3), "")

	got := funnel.FilterByRange(records, r)

	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].Date.Equal(day(2024, 1, 2)) || !got[1].Date.Equal(day(2024, 1, 3)) {
		t.Errorf("wrong records selected: %v", got)
	}
}

func TestFilterByRange_Idempotent(t *testing.T) {
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), nil),
		rec(day(2024, 1, 5), nil),
		rec(day(2024, 1, 9), nil),
	}
	r := funnel.NewDateRange(day(2024, 1, 1), day(2024, 1, 7), "")

	once := funnel.FilterByRange(records, r)
	twice := funnel.FilterByRange(once, r)

	if len(once) != len(twice) {
		t.Fatalf("filter not idempotent: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if !once[i].Date.Equal(twice[i].Date) {
			t.Errorf("record %d differs after refiltering", i)
		}
	}
}

func TestFilterByRange_TimeOfDayIgnored(t *testing.T) {
	records := []funnel.CanonicalRecord{rec(day(2024, 1, 2), nil)}
	r := funnel.NewDateRange(
		time.Date(2024, 1, 2, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 1, 0, 0, time.UTC),
		"")

	if got := funnel.FilterByRange(records, r); len(got) != 1 {
		t.Errorf("day-granularity comparison expected to match, got %d records", len(got))
	}
}

func TestSumField_Empty(t *testing.T) {
	if got := funnel.SumField(nil, []string{"a", "b", "c"}); got != 0 {
		t.Errorf("expected 0 over empty set, got %v", got)
	}
}

func TestSumField_MixedEncodings(t *testing.T) {
	// Raw rows as they arrive from the source: a "sim" one day, a plain
	// number the next.
	rows := []domain.MetricRow{
		{"data_referencia": "2024-01-01", "contratos_fechados": "sim"},
		{"data_referencia": "2024-01-02", "contratos_fechados": float64(2)},
	}
	records, _ := funnel.NormalizeAll(rows)
	r := funnel.NewDateRange(day(2024, 1, 1), day(2024, 1, 2), "")

	got := funnel.SumField(funnel.FilterByRange(records, r), []string{"contratos_fechados"})
	if got != 3 {
		t.Errorf("expected 3, got %v", got)
	}
}

func TestSumField_FirstDefinedKeyWinsEvenWhenZero(t *testing.T) {
	// The newer column is present with a legitimate zero; it must not fall
	// through to the legacy column.
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{
			"total_contratos_dia": 0,
			"contratos_fechados":  5,
		}),
		rec(day(2024, 1, 2), map[string]float64{
			"contratos_fechados": 2,
		}),
	}

	got := funnel.SumField(records, []string{"total_contratos_dia", "contratos_fechados"})
	if got != 2 {
		t.Errorf("expected 2 (0 from new column + 2 from legacy fallback), got %v", got)
	}
}

func TestSnapshotField_LastRecordWins(t *testing.T) {
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"aguardando_documentacao": 4}),
		rec(day(2024, 1, 2), map[string]float64{"aguardando_documentacao": 9}),
	}

	got := funnel.SnapshotField(records, records, funnel.Keys(funnel.MetricDocumentationBacklog))
	if got != 9 {
		t.Errorf("expected 9, got %v", got)
	}
}

func TestSnapshotField_BackwardScanOnZero(t *testing.T) {
	history := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"aguardando_documentacao": 7}),
		rec(day(2024, 1, 2), map[string]float64{"aguardando_documentacao": 0}),
	}
	filtered := history[1:]

	got := funnel.SnapshotField(filtered, history, []string{"aguardando_documentacao"})
	if got != 7 {
		t.Errorf("expected backlog 7 from history, got %v", got)
	}
}

func TestSnapshotField_AllZero(t *testing.T) {
	history := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"x": 0}),
	}
	if got := funnel.SnapshotField(history, history, []string{"x"}); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestRatioPct_ZeroDenominator(t *testing.T) {
	// Zero leads but nonzero contracts: a data anomaly that must yield 0,
	// not NaN.
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"total_contratos_dia": 3, "total_leads_dia": 0}),
	}

	got := funnel.RatioPct(records, funnel.Keys(funnel.MetricContracts), funnel.Keys(funnel.MetricLeads))
	if got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestRatioPct_ConversionRate(t *testing.T) {
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"total_contratos_dia": 2, "total_leads_dia": 40}),
		rec(day(2024, 1, 2), map[string]float64{"total_contratos_dia": 3, "total_leads_dia": 60}),
	}

	got := funnel.RatioPct(records, funnel.Keys(funnel.MetricContracts), funnel.Keys(funnel.MetricLeads))
	if got != 5 {
		t.Errorf("expected 5%%, got %v", got)
	}
}

func TestMean(t *testing.T) {
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"taxa_resposta": 10}),
		rec(day(2024, 1, 2), map[string]float64{"taxa_resposta": 20}),
		rec(day(2024, 1, 3), map[string]float64{}), // absent counts as 0
	}

	if got := funnel.Mean(records, "taxa_resposta"); got != 10 {
		t.Errorf("expected 10, got %v", got)
	}
	if got := funnel.Mean(nil, "taxa_resposta"); got != 0 {
		t.Errorf("expected 0 over empty set, got %v", got)
	}
}

func TestFieldStats_StrategySelection(t *testing.T) {
	records := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{
			"total_leads_dia":           10,
			"total_contratos_dia":       1,
			"taxa_conversao_percentual": 99, // stored value is ignored for conversao
			"aguardando_analise":        4,
			"reunioes_feitas":           2,
		}),
		rec(day(2024, 1, 2), map[string]float64{
			"total_leads_dia":           30,
			"total_contratos_dia":       1,
			"taxa_conversao_percentual": 99,
			"aguardando_analise":        6,
			"reunioes_feitas":           3,
		}),
	}

	stats := funnel.FieldStats(records, records)
	byKey := make(map[string]funnel.FieldStat, len(stats))
	for _, s := range stats {
		byKey[s.Key] = s
	}

	if got := byKey["reunioes_feitas"].Total; got != 5 {
		t.Errorf("flow field: expected sum 5, got %v", got)
	}
	if got := byKey["aguardando_analise"].Total; got != 5 {
		t.Errorf("queue field: expected mean 5, got %v", got)
	}
	// conversao recomputed from counts: 2 contracts / 40 leads = 5%
	if got := byKey["taxa_conversao_percentual"].Total; got != 5 {
		t.Errorf("conversao field: expected recomputed 5%%, got %v", got)
	}
	if !byKey["taxa_conversao_percentual"].IsPercent {
		t.Error("taxa field should be flagged percent")
	}
	if got := byKey["total_leads_dia"].Today; got != 30 {
		t.Errorf("today: expected 30, got %v", got)
	}
	if got := byKey["aguardando_analise"].Label; got != "Aguardando Analise" {
		t.Errorf("label: got %q", got)
	}
}

func TestFieldStats_EmptyFiltered(t *testing.T) {
	history := []funnel.CanonicalRecord{
		rec(day(2024, 1, 1), map[string]float64{"leads": 5}),
	}

	stats := funnel.FieldStats(history, nil)
	if len(stats) != 1 {
		t.Fatalf("expected 1 stat, got %d", len(stats))
	}
	if stats[0].Total != 0 || stats[0].Today != 0 {
		t.Errorf("expected zeros for empty period, got %+v", stats[0])
	}
}
