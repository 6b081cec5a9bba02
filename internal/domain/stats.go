package domain

// DashboardStats aggregates counts and the average resolution time over
// the full ticket set.
type DashboardStats struct {
	TotalTickets           int
	OpenTickets            int
	InProgressTickets      int
	ResolvedTickets        int
	ClosedTickets          int
	CriticalTickets        int
	HighPriorityTickets    int
	TicketsByCategory      map[TicketCategory]int
	AvgResolutionTimeHours float64
}
