package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Daily metrics store (implements port.MetricsFetcher)
// ============================================================

const (
	metricsTable         = "dashboard_diario"
	metricsFallbackTable = "leads"
)

// FetchDailyMetrics retrieves raw daily rows ordered by date ascending.
// from/to are inclusive ISO dates; an empty bound is left open. If the
// primary table does not exist the legacy leads table is tried once, so
// older databases keep working after the schema rename.
func (c *Client) FetchDailyMetrics(ctx context.Context, from, to string) ([]domain.MetricRow, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FetchDailyMetrics")
	defer span.End()
	span.SetAttributes(attribute.String("range.from", from), attribute.String("range.to", to))

	var rows []domain.MetricRow

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doRequest(ctx, http.MethodGet, metricsPath(metricsTable, from, to))
			if err != nil {
				return err
			}

			if body == nil {
				// Table missing; older deployments keep the data under the
				// original leads table.
				c.logger.Warn("supabase: primary metrics table missing, trying fallback",
					zap.String("table", metricsFallbackTable),
				)
				body, err = c.doRequest(ctx, http.MethodGet, metricsPath(metricsFallbackTable, from, to))
				if err != nil {
					return err
				}
			}

			if body == nil || string(body) == "[]" {
				rows = []domain.MetricRow{}
				return nil
			}

			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode daily metrics: %w", err)
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/metrics", Err: err}
	}

	return rows, nil
}

func metricsPath(table, from, to string) string {
	path := table + "?select=*&order=data.asc"
	if from != "" {
		path += "&data=gte." + from
	}
	if to != "" {
		path += "&data=lte." + to
	}
	return path
}
