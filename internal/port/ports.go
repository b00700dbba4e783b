// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/moreirajr/funnelboard-go/internal/domain"
)

// MetricsFetcher retrieves raw daily funnel rows from the metrics source.
// from and to are inclusive ISO dates (YYYY-MM-DD); an empty from or to
// leaves that bound open.
type MetricsFetcher interface {
	FetchDailyMetrics(ctx context.Context, from, to string) ([]domain.MetricRow, error)
}

// InvestmentsStore defines all data operations for ad spend entries.
// Implemented by the Supabase adapter (or any other persistence layer).
type InvestmentsStore interface {
	ListInvestments(ctx context.Context) ([]domain.Investment, error)
	CreateInvestment(ctx context.Context, inv *domain.Investment) (*domain.Investment, error)
	UpdateInvestment(ctx context.Context, id int64, updates map[string]any) (*domain.Investment, error)
	DeleteInvestment(ctx context.Context, id int64) error
}

// SettingsStore persists the financial settings singleton.
type SettingsStore interface {
	GetSettings(ctx context.Context) (*domain.FinancialSettings, error)
	SaveSettings(ctx context.Context, s *domain.FinancialSettings) (*domain.FinancialSettings, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
