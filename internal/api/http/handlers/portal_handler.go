package handlers

import (
	"net/mail"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// PortalHandler serves the public, unauthenticated ticket surface.
// Every operation is correlated by the requester's email address.
type PortalHandler struct {
	tickets     *service.TicketService
	comments    *service.CommentService
	attachments *service.AttachmentService
}

// NewPortalHandler constructs the handler.
func NewPortalHandler(tickets *service.TicketService, comments *service.CommentService, attachments *service.AttachmentService) *PortalHandler {
	return &PortalHandler{tickets: tickets, comments: comments, attachments: attachments}
}

// CreateTicket files a new portal ticket.
func (h *PortalHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.PortalCreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperrors.NewValidationError("invalid email address", nil)
	}

	ticket, err := h.tickets.Create(c.UserContext(), service.CreatorRef{Email: req.Email}, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPortalTicketResponse(ticket)})
}

// ListTickets returns every ticket filed under the given email.
func (h *PortalHandler) ListTickets(c *fiber.Ctx) error {
	email, err := requesterEmail(c)
	if err != nil {
		return err
	}

	tickets, err := h.tickets.ListForRequester(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalTicketListResponse(tickets)})
}

// GetTicket returns a single portal ticket.
func (h *PortalHandler) GetTicket(c *fiber.Ctx) error {
	email, err := requesterEmail(c)
	if err != nil {
		return err
	}

	ticket, err := h.tickets.GetForRequester(c.UserContext(), email, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPortalTicketResponse(ticket)})
}

// AddComment appends a public comment to a portal ticket.
func (h *PortalHandler) AddComment(c *fiber.Ctx) error {
	var req dto.PortalAddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return apperrors.NewValidationError("invalid email address", nil)
	}

	comment, err := h.comments.AddForRequester(c.UserContext(), req.Email, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments returns the public thread of a portal ticket.
func (h *PortalHandler) ListComments(c *fiber.Ctx) error {
	email, err := requesterEmail(c)
	if err != nil {
		return err
	}

	comments, err := h.comments.ListForRequester(c.UserContext(), email, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentListResponse(comments)})
}

// UploadAttachment stores a multipart file against a portal ticket.
// The form carries an "email" field and a "file" part.
func (h *PortalHandler) UploadAttachment(c *fiber.Ctx) error {
	email := c.FormValue("email")
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.NewValidationError("invalid email address", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file part required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.MapError(err)
	}
	defer file.Close()

	attachment, err := h.attachments.Add(c.UserContext(), email, c.Params("id"),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// ListAttachments returns attachment metadata for a portal ticket.
func (h *PortalHandler) ListAttachments(c *fiber.Ctx) error {
	email, err := requesterEmail(c)
	if err != nil {
		return err
	}

	attachments, err := h.attachments.ListForRequester(c.UserContext(), email, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAttachmentListResponse(attachments)})
}

// DownloadAttachment streams the stored file bytes.
func (h *PortalHandler) DownloadAttachment(c *fiber.Ctx) error {
	email, err := requesterEmail(c)
	if err != nil {
		return err
	}

	reader, attachment, err := h.attachments.Open(c.UserContext(), email, c.Params("id"), c.Params("attachmentID"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	return c.SendStream(reader, int(attachment.SizeBytes))
}

func requesterEmail(c *fiber.Ctx) (string, error) {
	email := c.Query("email")
	if _, err := mail.ParseAddress(email); err != nil {
		return "", apperrors.NewValidationError("email query parameter required", nil)
	}
	return email, nil
}
