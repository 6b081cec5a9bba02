package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
)

// CreateTicketRequest is the ticket creation payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category"`
}

// UpdateTicketRequest carries a partial ticket update. Absent fields
// stay untouched.
type UpdateTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	Category    *domain.TicketCategory `json:"category"`
	Status      *domain.TicketStatus   `json:"status"`
	AssignedTo  *string                `json:"assigned_to"`
}

// TicketResponse is the wire form of a ticket, enriched with display
// names where known.
type TicketResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Category       domain.TicketCategory `json:"category"`
	Status         domain.TicketStatus   `json:"status"`
	CreatedBy      string                `json:"created_by"`
	CreatedByName  string                `json:"created_by_name"`
	RequesterEmail *string               `json:"requester_email,omitempty"`
	AssignedTo     *string               `json:"assigned_to"`
	AssignedToName *string               `json:"assigned_to_name"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ResolvedAt     *time.Time            `json:"resolved_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
}

// NewTicketResponse maps an enriched ticket view.
func NewTicketResponse(v *service.TicketView) TicketResponse {
	resp := newTicketResponse(&v.Ticket)
	resp.CreatedByName = v.CreatedByName
	resp.AssignedToName = v.AssignedToName
	return resp
}

// NewTicketListResponse maps a slice of enriched views.
func NewTicketListResponse(views []service.TicketView) []TicketResponse {
	out := make([]TicketResponse, 0, len(views))
	for i := range views {
		out = append(out, NewTicketResponse(&views[i]))
	}
	return out
}

func newTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Category:       t.Category,
		Status:         t.Status,
		CreatedBy:      t.CreatedBy,
		RequesterEmail: t.RequesterEmail,
		AssignedTo:     t.AssignedTo,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ResolvedAt:     t.ResolvedAt,
		ClosedAt:       t.ClosedAt,
	}
}
