package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/storage"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AttachmentService stores uploaded files against portal tickets.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	tickets     repository.TicketRepository
	store       *storage.LocalStore
}

// NewAttachmentService constructs the service.
func NewAttachmentService(attachments repository.AttachmentRepository, tickets repository.TicketRepository, store *storage.LocalStore) *AttachmentService {
	return &AttachmentService{attachments: attachments, tickets: tickets, store: store}
}

// Add saves the file content under a generated key and records its
// metadata. The requester email must match the ticket.
func (s *AttachmentService) Add(ctx context.Context, email, ticketID, fileName, mimeType string, content io.Reader) (*domain.Attachment, error) {
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

	stored, err := s.store.Save(fileName, content)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	attachment := &domain.Attachment{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		StorageKey: stored.Key,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  stored.SizeBytes,
		CreatedAt:  time.Now(),
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// Open returns the stored content of one attachment along with its
// metadata, after the same ownership check as ListForRequester.
func (s *AttachmentService) Open(ctx context.Context, email, ticketID, attachmentID string) (io.ReadCloser, *domain.Attachment, error) {
	attachments, err := s.ListForRequester(ctx, email, ticketID)
	if err != nil {
		return nil, nil, err
	}
	for i := range attachments {
		if attachments[i].ID != attachmentID {
			continue
		}
		reader, err := s.store.Open(attachments[i].StorageKey)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		return reader, &attachments[i], nil
	}
	return nil, nil, apperrors.NewNotFound("attachment", nil)
}

// ListForRequester returns attachment metadata for a portal ticket.
func (s *AttachmentService) ListForRequester(ctx context.Context, email, ticketID string) ([]domain.Attachment, error) {
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

	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}
