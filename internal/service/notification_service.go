package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/mailer"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// NotificationService turns domain events into email. Delivery is
// best-effort and at-most-once: failures are logged by the dispatcher
// and never reach the request that triggered the event.
type NotificationService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
	mail    mailer.Mailer
	logger  *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(tickets repository.TicketRepository, users repository.UserRepository, mail mailer.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{tickets: tickets, users: users, mail: mail, logger: logger}
}

// RegisterHandlers subscribes to lifecycle events.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleTicketCommentAdded)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	name, email, err := n.creatorContact(ctx, event.TicketID)
	if err != nil || email == "" {
		return err
	}

	subject := fmt.Sprintf("Ticket Created: %s", payload.Title)
	body := fmt.Sprintf(`
        <p>Hi %s,</p>
        <p>Your ticket with the title "<strong>%s</strong>" has been successfully created.</p>
        <p>You will be notified of any updates.</p>
        <p>Thank you!</p>`, name, payload.Title)
	return n.mail.Send(ctx, subject, []string{email}, body)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	name, email, err := n.creatorContact(ctx, event.TicketID)
	if err != nil || email == "" {
		return err
	}

	subject := fmt.Sprintf("Ticket Status Updated: %s", payload.Title)
	body := fmt.Sprintf(`
        <p>Hi %s,</p>
        <p>The status of your ticket "<strong>%s</strong>" has been updated to <strong>%s</strong>.</p>
        <p>Thank you!</p>`, name, payload.Title, payload.NewStatus)
	return n.mail.Send(ctx, subject, []string{email}, body)
}

func (n *NotificationService) handleTicketCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCommentAddedPayload)
	if !ok {
		return nil
	}

	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	var recipients []string
	if _, email, err := n.contactFor(ctx, ticket); err == nil && email != "" {
		recipients = append(recipients, email)
	}
	if ticket.AssignedTo != nil {
		if assignee, err := n.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			if !contains(recipients, assignee.Email) {
				recipients = append(recipients, assignee.Email)
			}
		}
	}
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("New Comment on Ticket: %s", payload.Title)
	body := fmt.Sprintf(`
        <p>A new comment has been added to the ticket "<strong>%s</strong>".</p>
        <p><strong>Comment:</strong></p>
        <p>%s</p>
        <p>Thank you!</p>`, payload.Title, payload.Content)
	return n.mail.Send(ctx, subject, recipients, body)
}

func (n *NotificationService) creatorContact(ctx context.Context, ticketID string) (name, email string, err error) {
	ticket, err := n.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil
		}
		return "", "", err
	}
	return n.contactFor(ctx, ticket)
}

func (n *NotificationService) contactFor(ctx context.Context, ticket *domain.Ticket) (name, email string, err error) {
	if ticket.CreatedBy != "" {
		user, err := n.users.GetByID(ctx, ticket.CreatedBy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return "", "", nil
			}
			return "", "", err
		}
		return user.Name, user.Email, nil
	}
	if ticket.RequesterEmail != nil {
		return *ticket.RequesterEmail, *ticket.RequesterEmail, nil
	}
	return "", "", nil
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
