package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// DashboardStatsResponse is the wire form of the staff dashboard.
type DashboardStatsResponse struct {
	TotalTickets           int            `json:"total_tickets"`
	OpenTickets            int            `json:"open_tickets"`
	InProgressTickets      int            `json:"in_progress_tickets"`
	ResolvedTickets        int            `json:"resolved_tickets"`
	ClosedTickets          int            `json:"closed_tickets"`
	CriticalTickets        int            `json:"critical_tickets"`
	HighPriorityTickets    int            `json:"high_priority_tickets"`
	TicketsByCategory      map[string]int `json:"tickets_by_category"`
	AvgResolutionTimeHours float64        `json:"avg_resolution_time_hours"`
}

// NewDashboardStatsResponse maps computed statistics.
func NewDashboardStatsResponse(stats *domain.DashboardStats) DashboardStatsResponse {
	byCategory := make(map[string]int, len(stats.TicketsByCategory))
	for category, count := range stats.TicketsByCategory {
		byCategory[string(category)] = count
	}
	return DashboardStatsResponse{
		TotalTickets:           stats.TotalTickets,
		OpenTickets:            stats.OpenTickets,
		InProgressTickets:      stats.InProgressTickets,
		ResolvedTickets:        stats.ResolvedTickets,
		ClosedTickets:          stats.ClosedTickets,
		CriticalTickets:        stats.CriticalTickets,
		HighPriorityTickets:    stats.HighPriorityTickets,
		TicketsByCategory:      byCategory,
		AvgResolutionTimeHours: stats.AvgResolutionTimeHours,
	}
}
