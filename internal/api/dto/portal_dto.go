package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// PortalCreateTicketRequest files a ticket through the public portal.
// The requester email is the correlation key for all later access.
type PortalCreateTicketRequest struct {
	Email       string                `json:"email"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Category    domain.TicketCategory `json:"category"`
}

// PortalAddCommentRequest appends a public comment to a portal ticket.
type PortalAddCommentRequest struct {
	Email   string `json:"email"`
	Content string `json:"content"`
}

// PortalTicketResponse is the portal wire form of a ticket. Assignment
// details stay internal.
type PortalTicketResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	Priority       domain.TicketPriority `json:"priority"`
	Category       domain.TicketCategory `json:"category"`
	Status         domain.TicketStatus   `json:"status"`
	RequesterEmail *string               `json:"requester_email"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	ResolvedAt     *time.Time            `json:"resolved_at"`
	ClosedAt       *time.Time            `json:"closed_at"`
}

// AttachmentResponse is attachment metadata; file bytes are served by
// the download endpoint.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPortalTicketResponse maps a domain ticket.
func NewPortalTicketResponse(t *domain.Ticket) PortalTicketResponse {
	return PortalTicketResponse{
		ID:             t.ID,
		Title:          t.Title,
		Description:    t.Description,
		Priority:       t.Priority,
		Category:       t.Category,
		Status:         t.Status,
		RequesterEmail: t.RequesterEmail,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
		ResolvedAt:     t.ResolvedAt,
		ClosedAt:       t.ClosedAt,
	}
}

// NewPortalTicketListResponse maps a slice of domain tickets.
func NewPortalTicketListResponse(tickets []domain.Ticket) []PortalTicketResponse {
	out := make([]PortalTicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewPortalTicketResponse(&tickets[i]))
	}
	return out
}

// NewAttachmentResponse maps attachment metadata.
func NewAttachmentResponse(a *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        a.ID,
		TicketID:  a.TicketID,
		FileName:  a.FileName,
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
		CreatedAt: a.CreatedAt,
	}
}

// NewAttachmentListResponse maps a slice of attachments.
func NewAttachmentListResponse(attachments []domain.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		out = append(out, NewAttachmentResponse(&attachments[i]))
	}
	return out
}
