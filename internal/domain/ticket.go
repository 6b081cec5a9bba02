package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency levels.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityCritical, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// TicketCategory enumerates ticket subject areas.
type TicketCategory string

const (
	TicketCategoryTechnical TicketCategory = "technical"
	TicketCategoryBilling   TicketCategory = "billing"
	TicketCategoryGeneral   TicketCategory = "general"
)

// Valid reports whether the category is a known value.
func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryTechnical, TicketCategoryBilling, TicketCategoryGeneral:
		return true
	}
	return false
}

// TitleMaxLen caps ticket titles.
const TitleMaxLen = 120

// Ticket is the aggregate for support requests.
//
// CreatedBy holds the creating user id in the authenticated variant.
// RequesterEmail is set instead of CreatedBy for tickets filed through
// the public portal, where an email address is the correlation key.
// ResolvedAt/ClosedAt are set when the ticket first reaches the
// corresponding status and are never cleared, even on reopen.
type Ticket struct {
	ID             string
	Title          string
	Description    string
	Priority       TicketPriority
	Category       TicketCategory
	Status         TicketStatus
	CreatedBy      string
	RequesterEmail *string
	AssignedTo     *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ResolvedAt     *time.Time
	ClosedAt       *time.Time
}
