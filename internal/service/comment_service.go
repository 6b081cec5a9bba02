package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/authz"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// CommentService manages ticket threads and their visibility rules.
type CommentService struct {
	comments   repository.CommentRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, tickets repository.TicketRepository, dispatcher events.Dispatcher) *CommentService {
	return &CommentService{comments: comments, tickets: tickets, dispatcher: dispatcher}
}

// Add appends a comment to a ticket. Internal comments are rejected for
// end-users. The author's display name is captured at creation time and
// never updated afterwards.
func (s *CommentService) Add(ctx context.Context, actor *domain.User, ticketID, content string, isInternal bool) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	if isInternal && !authz.Can(actor.Role, authz.ActionCreateInternalComment) {
		return nil, apperrors.NewForbidden("cannot create internal comments")
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		UserID:     actor.ID,
		UserName:   actor.Name,
		Content:    content,
		IsInternal: isInternal,
		CreatedAt:  time.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAdded(ctx, ticket, comment)
	return comment, nil
}

// AddForRequester appends a public comment to a portal ticket. The
// requester email doubles as author id and display name.
func (s *CommentService) AddForRequester(ctx context.Context, email, ticketID, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterEmail == nil || !strings.EqualFold(*ticket.RequesterEmail, email) {
		return nil, apperrors.NewForbidden("access denied")
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TicketID:  ticket.ID,
		UserID:    email,
		UserName:  email,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishAdded(ctx, ticket, comment)
	return comment, nil
}

// List returns the ticket thread in creation order. Internal comments
// are stripped for roles without internal visibility.
func (s *CommentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !authz.CanViewTicket(actor.Role, actor.ID, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if authz.Can(actor.Role, authz.ActionViewInternalComments) {
		return comments, nil
	}
	return filterInternal(comments), nil
}

// ListForRequester returns the public thread of a portal ticket.
func (s *CommentService) ListForRequester(ctx context.Context, email, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.RequesterEmail == nil || !strings.EqualFold(*ticket.RequesterEmail, email) {
		return nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return filterInternal(comments), nil
}

func (s *CommentService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func filterInternal(comments []domain.Comment) []domain.Comment {
	visible := make([]domain.Comment, 0, len(comments))
	for _, comment := range comments {
		if comment.IsInternal {
			continue
		}
		visible = append(visible, comment)
	}
	return visible
}

func (s *CommentService) publishAdded(ctx context.Context, ticket *domain.Ticket, comment *domain.Comment) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  comment.UserID,
		Payload: events.TicketCommentAddedPayload{
			Title:      ticket.Title,
			CommentID:  comment.ID,
			AuthorName: comment.UserName,
			Content:    comment.Content,
			IsInternal: comment.IsInternal,
		},
	})
}
