package domain

import "time"

// Comment captures a single entry in a ticket thread. Comments are
// immutable after creation. UserName is a denormalized snapshot of the
// author's display name taken at creation time.
type Comment struct {
	ID         string
	TicketID   string
	UserID     string
	UserName   string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}

// Attachment stores metadata for a file uploaded against a ticket
// through the public portal. StorageKey is the generated unique name
// under the attachment store.
type Attachment struct {
	ID         string
	TicketID   string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
