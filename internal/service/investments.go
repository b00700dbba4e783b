package service

import (
	"context"
	"fmt"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/funnel"
	"github.com/moreirajr/funnelboard-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var invTracer = otel.Tracer("service/investments")

// InvestmentsService manages ad spend entries. Validation happens here, at
// the boundary, so the store only ever sees well-formed spans.
type InvestmentsService struct {
	store  port.InvestmentsStore
	logger *zap.Logger
}

func NewInvestmentsService(store port.InvestmentsStore, logger *zap.Logger) *InvestmentsService {
	return &InvestmentsService{store: store, logger: logger}
}

func (s *InvestmentsService) List(ctx context.Context) ([]domain.Investment, error) {
	ctx, span := invTracer.Start(ctx, "Investments.List")
	defer span.End()

	return s.store.ListInvestments(ctx)
}

func (s *InvestmentsService) Create(ctx context.Context, inv *domain.Investment) (*domain.Investment, error) {
	ctx, span := invTracer.Start(ctx, "Investments.Create")
	defer span.End()

	if err := validateInvestment(inv); err != nil {
		return nil, err
	}

	created, err := s.store.CreateInvestment(ctx, inv)
	if err != nil {
		return nil, fmt.Errorf("create investment: %w", err)
	}

	s.logger.Info("investment created",
		zap.Int64("id", created.ID),
		zap.String("data_inicio", created.DataInicio),
		zap.String("data_fim", created.DataFim),
		zap.Float64("valor", created.Valor),
	)
	return created, nil
}

func (s *InvestmentsService) Update(ctx context.Context, id int64, inv *domain.Investment) (*domain.Investment, error) {
	ctx, span := invTracer.Start(ctx, "Investments.Update")
	defer span.End()

	if err := validateInvestment(inv); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"data_inicio": inv.DataInicio,
		"data_fim":    inv.DataFim,
		"valor":       inv.Valor,
	}
	if inv.Plataforma != "" {
		updates["plataforma"] = inv.Plataforma
	}

	updated, err := s.store.UpdateInvestment(ctx, id, updates)
	if err != nil {
		return nil, err
	}

	s.logger.Info("investment updated", zap.Int64("id", id))
	return updated, nil
}

func (s *InvestmentsService) Delete(ctx context.Context, id int64) error {
	ctx, span := invTracer.Start(ctx, "Investments.Delete")
	defer span.End()

	if err := s.store.DeleteInvestment(ctx, id); err != nil {
		return err
	}

	s.logger.Info("investment deleted", zap.Int64("id", id))
	return nil
}

// validateInvestment checks dates and span through the same constructor the
// cost allocator uses, so nothing storable can later be skipped as invalid.
func validateInvestment(inv *domain.Investment) error {
	start, ok := funnel.ParseDay(inv.DataInicio)
	if !ok {
		return &domain.ErrValidation{Field: "data_inicio", Message: "invalid date"}
	}
	end, ok := funnel.ParseDay(inv.DataFim)
	if !ok {
		return &domain.ErrValidation{Field: "data_fim", Message: "invalid date"}
	}
	if _, err := funnel.NewCostEntry(start, end, inv.Valor, inv.Plataforma); err != nil {
		return err
	}
	return nil
}
