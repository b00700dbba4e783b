package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moreirajr/funnelboard-go/internal/domain"
)

// ============================================================
// Financial settings store (singleton row)
// ============================================================

const settingsTable = "financial_settings"

// GetSettings returns the latest settings row. A missing row is not an
// error: the zero value (ticket 0) disables revenue KPIs until configured.
func (c *Client) GetSettings(ctx context.Context) (*domain.FinancialSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSettings")
	defer span.End()

	path := settingsTable + "?select=*&order=id.desc&limit=1"
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/settings", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return &domain.FinancialSettings{}, nil
	}

	var rows []domain.FinancialSettings
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode financial_settings: %w", err)
	}
	if len(rows) == 0 {
		return &domain.FinancialSettings{}, nil
	}
	return &rows[0], nil
}

// SaveSettings upserts the singleton: patch the latest row if one exists,
// insert otherwise.
func (c *Client) SaveSettings(ctx context.Context, s *domain.FinancialSettings) (*domain.FinancialSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveSettings")
	defer span.End()

	current, err := c.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	if current.ID != 0 {
		err := c.doPatch(ctx, fmt.Sprintf("%s?id=eq.%d", settingsTable, current.ID), map[string]any{
			"average_ticket": s.AverageTicket,
		})
		if err != nil {
			return nil, &domain.ErrExternalService{Service: "supabase/settings", Err: err}
		}
		return &domain.FinancialSettings{ID: current.ID, AverageTicket: s.AverageTicket}, nil
	}

	body, err := c.doPost(ctx, settingsTable, map[string]any{
		"average_ticket": s.AverageTicket,
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/settings", Err: err}
	}

	var rows []domain.FinancialSettings
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode financial_settings: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no result from financial_settings insert")
	}
	return &rows[0], nil
}
