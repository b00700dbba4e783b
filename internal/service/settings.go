package service

import (
	"context"
	"fmt"

	"github.com/moreirajr/funnelboard-go/internal/domain"
	"github.com/moreirajr/funnelboard-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var settingsTracer = otel.Tracer("service/settings")

// SettingsService manages the financial settings singleton.
type SettingsService struct {
	store  port.SettingsStore
	logger *zap.Logger
}

func NewSettingsService(store port.SettingsStore, logger *zap.Logger) *SettingsService {
	return &SettingsService{store: store, logger: logger}
}

func (s *SettingsService) Get(ctx context.Context) (*domain.FinancialSettings, error) {
	ctx, span := settingsTracer.Start(ctx, "Settings.Get")
	defer span.End()

	return s.store.GetSettings(ctx)
}

func (s *SettingsService) Save(ctx context.Context, in *domain.FinancialSettings) (*domain.FinancialSettings, error) {
	ctx, span := settingsTracer.Start(ctx, "Settings.Save")
	defer span.End()

	if in.AverageTicket < 0 {
		return nil, &domain.ErrValidation{Field: "average_ticket", Message: "must be nonnegative"}
	}

	saved, err := s.store.SaveSettings(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("financial settings saved",
		zap.Float64("average_ticket", saved.AverageTicket),
	)
	return saved, nil
}
