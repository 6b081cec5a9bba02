package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, users repository.UserRepository, dispatcher events.Dispatcher) *TicketService {
	return &TicketService{tickets: tickets, users: users, dispatcher: dispatcher}
}

// CreatorRef identifies who a new ticket belongs to: an authenticated
// user id, or a bare email for portal tickets.
type CreatorRef struct {
	UserID string
	Email  string
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    domain.TicketCategory
}

// TicketUpdateInput carries a partial update; nil fields are untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Category    *domain.TicketCategory
	Status      *domain.TicketStatus
	AssignedTo  *string
}

// TicketListFilter captures the listing query.
type TicketListFilter struct {
	Status       *domain.TicketStatus
	Category     *domain.TicketCategory
	Priority     *domain.TicketPriority
	AssignedToMe bool
}

// TicketView is a ticket enriched with display names for its creator
// and assignee.
type TicketView struct {
	domain.Ticket
	CreatedByName  string
	AssignedToName *string
}

// Create validates input and persists a new open ticket.
func (s *TicketService) Create(ctx context.Context, creator CreatorRef, input TicketCreateInput) (*domain.Ticket, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Priority:    input.Priority,
		Category:    input.Category,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   creator.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if creator.Email != "" {
		email := creator.Email
		ticket.RequesterEmail = &email
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  creator.UserID,
		Payload: events.TicketCreatedPayload{
			Title:    ticket.Title,
			Priority: ticket.Priority,
			Category: ticket.Category,
		},
	})
	return ticket, nil
}

// Update merges the provided fields into the ticket. A status change to
// resolved or closed stamps the corresponding timestamp; neither stamp
// is ever cleared, even when the ticket is later reopened.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if !authz.Can(actor.Role, authz.ActionUpdateTicket) {
		return nil, apperrors.NewForbidden("insufficient permissions")
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" || utf8.RuneCountInString(title) > domain.TitleMaxLen {
			return nil, apperrors.NewValidationError("title must be 1-120 characters", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("unknown priority", nil)
		}
		ticket.Priority = *input.Priority
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, apperrors.NewValidationError("unknown category", nil)
		}
		ticket.Category = *input.Category
	}
	if input.AssignedTo != nil {
		ticket.AssignedTo = input.AssignedTo
	}

	now := time.Now()
	var oldStatus domain.TicketStatus
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", nil)
		}
		oldStatus = ticket.Status
		ticket.Status = *input.Status
		switch ticket.Status {
		case domain.TicketStatusResolved:
			ticket.ResolvedAt = &now
		case domain.TicketStatusClosed:
			ticket.ClosedAt = &now
		}
	}
	ticket.UpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if input.Status != nil {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
			Payload: events.TicketStatusChangedPayload{
				Title:     ticket.Title,
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// List returns tickets visible to the actor, newest first. End-users
// are scoped to their own tickets regardless of filters.
func (s *TicketService) List(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]TicketView, error) {
	repoFilter := repository.TicketFilter{
		Status:   filter.Status,
		Category: filter.Category,
		Priority: filter.Priority,
	}
	if !authz.Can(actor.Role, authz.ActionListAllTickets) {
		createdBy := actor.ID
		repoFilter.CreatedBy = &createdBy
	}
	if filter.AssignedToMe {
		assignee := actor.ID
		repoFilter.AssignedTo = &assignee
	}

	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.enrich(ctx, tickets)
}

// Get fetches a single ticket, enforcing end-user ownership.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*TicketView, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if !authz.CanViewTicket(actor.Role, actor.ID, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	views, err := s.enrich(ctx, []domain.Ticket{*ticket})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// GetView enriches an already authorized ticket.
func (s *TicketService) GetView(ctx context.Context, ticket *domain.Ticket) (*TicketView, error) {
	views, err := s.enrich(ctx, []domain.Ticket{*ticket})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TicketService) enrich(ctx context.Context, tickets []domain.Ticket) ([]TicketView, error) {
	idSet := make(map[string]struct{})
	for i := range tickets {
		if tickets[i].CreatedBy != "" {
			idSet[tickets[i].CreatedBy] = struct{}{}
		}
		if tickets[i].AssignedTo != nil {
			idSet[*tickets[i].AssignedTo] = struct{}{}
		}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		users, err := s.users.ListByIDs(ctx, ids)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		for i := range users {
			names[users[i].ID] = users[i].Name
		}
	}

	views := make([]TicketView, 0, len(tickets))
	for i := range tickets {
		view := TicketView{Ticket: tickets[i]}
		view.CreatedByName = "Unknown"
		if tickets[i].RequesterEmail != nil {
			view.CreatedByName = *tickets[i].RequesterEmail
		}
		if name, ok := names[tickets[i].CreatedBy]; ok {
			view.CreatedByName = name
		}
		if tickets[i].AssignedTo != nil {
			if name, ok := names[*tickets[i].AssignedTo]; ok {
				view.AssignedToName = &name
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ListForRequester returns portal tickets correlated by email.
func (s *TicketService) ListForRequester(ctx context.Context, email string) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{RequesterEmail: &email})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// GetForRequester fetches a portal ticket, requiring the correlation
// email to match.
func (s *TicketService) GetForRequester(ctx context.Context, email, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.RequesterEmail == nil || !strings.EqualFold(*ticket.RequesterEmail, email) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func validateCreateInput(input TicketCreateInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	if utf8.RuneCountInString(title) > domain.TitleMaxLen {
		return apperrors.NewValidationError("title must be at most 120 characters", nil)
	}
	if strings.TrimSpace(input.Description) == "" {
		return apperrors.NewValidationError("description required", nil)
	}
	if !input.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", nil)
	}
	if !input.Category.Valid() {
		return apperrors.NewValidationError("unknown category", nil)
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
