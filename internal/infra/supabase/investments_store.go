package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/infra/resilience"
)

// ============================================================
// Investments store: list, create, update, delete
// ============================================================

const investmentsTable = "investimentos"

func (c *Client) ListInvestments(ctx context.Context) ([]domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListInvestments")
	defer span.End()

	var rows []domain.Investment

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := investmentsTable + "?select=*&order=data_inicio.desc"
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				rows = []domain.Investment{}
				return nil
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode investments: %w", err)
			}
			return nil
		})
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/investments", Err: err}
	}

	return rows, nil
}

func (c *Client) CreateInvestment(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateInvestment")
	defer span.End()

	row := map[string]any{
		"data_inicio": inv.DataInicio,
		"data_fim":    inv.DataFim,
		"valor":       inv.Valor,
	}
	if inv.Plataforma != "" {
		row["plataforma"] = inv.Plataforma
	}

	body, err := c.doPost(ctx, investmentsTable, row)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/investments", Err: err}
	}

	var results []domain.Investment
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode investment: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result from investimentos insert")
	}
	return &results[0], nil
}

func (c *Client) UpdateInvestment(ctx context.Context, id int64, updates map[string]any) (*domain.Investment, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateInvestment")
	defer span.End()

	body, err := c.doPatchReturning(ctx, fmt.Sprintf("%s?id=eq.%d", investmentsTable, id), updates)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/investments", Err: err}
	}

	var results []domain.Investment
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode investment: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "investimento", ID: fmt.Sprintf("%d", id)}
	}
	return &results[0], nil
}

// DeleteInvestment removes an entry. PostgREST answers 200 even when RLS
// silently filters the row out, so the returned representation is checked:
// an empty array means nothing was deleted.
func (c *Client) DeleteInvestment(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInvestment")
	defer span.End()

	body, err := c.doDeleteReturning(ctx, fmt.Sprintf("%s?id=eq.%d", investmentsTable, id))
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/investments", Err: err}
	}
	if len(body) == 0 || string(body) == "[]" {
		return &domain.ErrForbidden{Action: fmt.Sprintf("delete investimento %d (blocked or already gone)", id)}
	}
	return nil
}
