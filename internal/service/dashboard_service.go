package service

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

const statsCacheKey = "helpdesk:dashboard:stats"

// DashboardService computes aggregate ticket statistics, with a short
// lived Redis cache in front of the full-table scan.
type DashboardService struct {
	tickets  repository.TicketRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs the service. cache may be nil.
func NewDashboardService(tickets repository.TicketRepository, cache *redis.Client, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{tickets: tickets, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Stats returns dashboard statistics over the full ticket set.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats := ComputeDashboardStats(tickets)
	s.toCache(ctx, &stats)
	return &stats, nil
}

// ComputeDashboardStats aggregates counts and the average resolution
// time. The average covers only tickets whose status is resolved or
// closed AND which carry a resolved_at stamp; tickets closed without
// ever being resolved are excluded. Hours are rounded to 2 decimals.
func ComputeDashboardStats(tickets []domain.Ticket) domain.DashboardStats {
	stats := domain.DashboardStats{
		TicketsByCategory: map[domain.TicketCategory]int{
			domain.TicketCategoryTechnical: 0,
			domain.TicketCategoryBilling:   0,
			domain.TicketCategoryGeneral:   0,
		},
	}

	var totalHours float64
	var resolvedWithTimes int

	for i := range tickets {
		t := &tickets[i]
		stats.TotalTickets++

		switch t.Status {
		case domain.TicketStatusOpen:
			stats.OpenTickets++
		case domain.TicketStatusInProgress:
			stats.InProgressTickets++
		case domain.TicketStatusResolved:
			stats.ResolvedTickets++
		case domain.TicketStatusClosed:
			stats.ClosedTickets++
		}

		switch t.Priority {
		case domain.TicketPriorityCritical:
			stats.CriticalTickets++
		case domain.TicketPriorityHigh:
			stats.HighPriorityTickets++
		}

		if _, known := stats.TicketsByCategory[t.Category]; known {
			stats.TicketsByCategory[t.Category]++
		}

		terminal := t.Status == domain.TicketStatusResolved || t.Status == domain.TicketStatusClosed
		if terminal && t.ResolvedAt != nil {
			totalHours += t.ResolvedAt.Sub(t.CreatedAt).Hours()
			resolvedWithTimes++
		}
	}

	if resolvedWithTimes > 0 {
		avg := totalHours / float64(resolvedWithTimes)
		stats.AvgResolutionTimeHours = math.Round(avg*100) / 100
	}
	return stats
}

func (s *DashboardService) fromCache(ctx context.Context) *domain.DashboardStats {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *DashboardService) toCache(ctx context.Context, stats *domain.DashboardStats) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Debug("dashboard cache write failed", zap.Error(err))
	}
}
