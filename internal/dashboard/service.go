package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/stockdeskhq/stockdesk-backend/pkg/errors"
	"github.com/stockdeskhq/stockdesk-backend/pkg/logger"
	"github.com/stockdeskhq/stockdesk-backend/pkg/redis"
)

const (
	defaultPanelLimit = 10
	maxPanelLimit     = 50
)

// Service serves dashboard rollups with a read-through summary cache.
type Service struct {
	repo       Repository
	cache      redis.Cache
	summaryTTL time.Duration
	logg       *logger.Logger
}

// NewService wires the dashboard service. The cache is optional; when nil
// every summary read hits the database.
func NewService(repo Repository, cache redis.Cache, summaryTTL time.Duration, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("dashboard repository is required")
	}
	return &Service{repo: repo, cache: cache, summaryTTL: summaryTTL, logg: logg}, nil
}

// Summary returns the headline rollup, cached for a short window.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	if s.cache != nil {
		key := s.cache.CacheKey("dashboard", "summary")
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			cached := &Summary{}
			if unmarshalErr := json.Unmarshal([]byte(raw), cached); unmarshalErr == nil {
				return cached, nil
			}
			if s.logg != nil {
				s.logg.Warn(ctx, "dashboard summary cache entry unreadable, recomputing")
			}
		} else if !redis.IsNil(err) && s.logg != nil {
			s.logg.Error(ctx, "dashboard summary cache read failed", err)
		}
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "computing dashboard summary")
	}

	if s.cache != nil {
		payload, marshalErr := json.Marshal(summary)
		if marshalErr == nil {
			key := s.cache.CacheKey("dashboard", "summary")
			if setErr := s.cache.Set(ctx, key, payload, s.summaryTTL); setErr != nil && s.logg != nil {
				s.logg.Error(ctx, "dashboard summary cache write failed", setErr)
			}
		}
	}
	return summary, nil
}

// MonthlyRevenue returns paid revenue per month for the given year,
// zero-filled for months without orders.
func (s *Service) MonthlyRevenue(ctx context.Context, year int) (*MonthlyRevenue, error) {
	if year < 2000 || year > 2100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "year out of range")
	}
	revenue, err := s.repo.MonthlyRevenue(ctx, year)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "computing monthly revenue")
	}
	return revenue, nil
}

// LowStock lists products at or below their reorder threshold,
// lowest quantity first.
func (s *Service) LowStock(ctx context.Context, limit int) ([]LowStockProduct, error) {
	rows, err := s.repo.LowStock(ctx, clampPanelLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing low stock products")
	}
	return rows, nil
}

// RecentOrders lists the most recently placed orders.
func (s *Service) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	rows, err := s.repo.RecentOrders(ctx, clampPanelLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing recent orders")
	}
	return rows, nil
}

func clampPanelLimit(limit int) int {
	if limit <= 0 {
		return defaultPanelLimit
	}
	if limit > maxPanelLimit {
		return maxPanelLimit
	}
	return limit
}
