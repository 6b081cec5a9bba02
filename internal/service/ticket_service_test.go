package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func newTestUser(repo *fakeUserRepo, id, name string, role domain.Role) *domain.User {
	user := domain.User{
		ID:        id,
		Email:     id + "@example.com",
		Name:      name,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	repo.users[id] = user
	return &user
}

func requireDomainErr(t *testing.T, err error, code string, status int) {
	t.Helper()
	domainErr := apperrors.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, code, domainErr.Code)
	assert.Equal(t, status, domainErr.HTTPStatus)
}

func TestTicketCreate(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(tickets, users, dispatcher)

	creator := newTestUser(users, "u1", "Alice", domain.RoleEndUser)

	ticket, err := svc.Create(context.Background(), CreatorRef{UserID: creator.ID}, TicketCreateInput{
		Title:       "Printer on fire",
		Description: "Smoke everywhere",
		Priority:    domain.TicketPriorityHigh,
		Category:    domain.TicketCategoryTechnical,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, creator.ID, ticket.CreatedBy)
	assert.Nil(t, ticket.AssignedTo)
	assert.Nil(t, ticket.ResolvedAt)
	assert.False(t, ticket.CreatedAt.IsZero())
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTicketCreated, dispatcher.published[0].Type)
	assert.Equal(t, ticket.ID, dispatcher.published[0].TicketID)
}

func TestTicketCreateValidation(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo(), newFakeUserRepo(), nil)

	cases := []struct {
		name  string
		input TicketCreateInput
	}{
		{"empty title", TicketCreateInput{Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral}},
		{"whitespace title", TicketCreateInput{Title: "   ", Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral}},
		{"title too long", TicketCreateInput{Title: strings.Repeat("x", domain.TitleMaxLen+1), Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral}},
		{"empty description", TicketCreateInput{Title: "t", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral}},
		{"bad priority", TicketCreateInput{Title: "t", Description: "d", Priority: "urgent", Category: domain.TicketCategoryGeneral}},
		{"bad category", TicketCreateInput{Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: "sales"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreatorRef{UserID: "u1"}, tc.input)
			requireDomainErr(t, err, "VALIDATION_FAILED", 400)
		})
	}
}

func TestTicketCreateTitleAtLimit(t *testing.T) {
	svc := NewTicketService(newFakeTicketRepo(), newFakeUserRepo(), nil)

	ticket, err := svc.Create(context.Background(), CreatorRef{UserID: "u1"}, TicketCreateInput{
		Title:       strings.Repeat("a", domain.TitleMaxLen),
		Description: "d",
		Priority:    domain.TicketPriorityMedium,
		Category:    domain.TicketCategoryBilling,
	})
	require.NoError(t, err)
	assert.Len(t, ticket.Title, domain.TitleMaxLen)
}

func TestTicketUpdateForbiddenForEndUser(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewTicketService(newFakeTicketRepo(), users, nil)
	endUser := newTestUser(users, "u1", "Alice", domain.RoleEndUser)

	status := domain.TicketStatusClosed
	_, err := svc.Update(context.Background(), endUser, "t1", TicketUpdateInput{Status: &status})
	requireDomainErr(t, err, "FORBIDDEN", 403)
}

func TestTicketUpdateNotFound(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewTicketService(newFakeTicketRepo(), users, nil)
	agent := newTestUser(users, "a1", "Bob", domain.RoleSupportAgent)

	_, err := svc.Update(context.Background(), agent, "missing", TicketUpdateInput{})
	requireDomainErr(t, err, "NOT_FOUND", 404)
}

func TestTicketUpdatePartialMerge(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	svc := NewTicketService(tickets, users, nil)
	agent := newTestUser(users, "a1", "Bob", domain.RoleSupportAgent)

	creator := newTestUser(users, "u1", "Alice", domain.RoleEndUser)
	original, err := svc.Create(context.Background(), CreatorRef{UserID: creator.ID}, TicketCreateInput{
		Title:       "Original title",
		Description: "Original description",
		Priority:    domain.TicketPriorityLow,
		Category:    domain.TicketCategoryGeneral,
	})
	require.NoError(t, err)

	priority := domain.TicketPriorityCritical
	updated, err := svc.Update(context.Background(), agent, original.ID, TicketUpdateInput{Priority: &priority})
	require.NoError(t, err)

	assert.Equal(t, domain.TicketPriorityCritical, updated.Priority)
	assert.Equal(t, "Original title", updated.Title)
	assert.Equal(t, "Original description", updated.Description)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)
}

func TestTicketUpdateStampsResolvedAndClosed(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(tickets, users, dispatcher)
	agent := newTestUser(users, "a1", "Bob", domain.RoleSupportAgent)

	ticket, err := svc.Create(context.Background(), CreatorRef{UserID: agent.ID}, TicketCreateInput{
		Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral,
	})
	require.NoError(t, err)
	dispatcher.published = nil

	resolved := domain.TicketStatusResolved
	updated, err := svc.Update(context.Background(), agent, ticket.ID, TicketUpdateInput{Status: &resolved})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	firstResolvedAt := *updated.ResolvedAt

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTicketStatusChanged, dispatcher.published[0].Type)
	payload, ok := dispatcher.published[0].Payload.(events.TicketStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusOpen, payload.OldStatus)
	assert.Equal(t, domain.TicketStatusResolved, payload.NewStatus)

	// Reopening keeps the resolution stamp.
	open := domain.TicketStatusOpen
	updated, err = svc.Update(context.Background(), agent, ticket.ID, TicketUpdateInput{Status: &open})
	require.NoError(t, err)
	require.NotNil(t, updated.ResolvedAt)
	assert.Equal(t, firstResolvedAt, *updated.ResolvedAt)

	closed := domain.TicketStatusClosed
	updated, err = svc.Update(context.Background(), agent, ticket.ID, TicketUpdateInput{Status: &closed})
	require.NoError(t, err)
	require.NotNil(t, updated.ClosedAt)
	assert.Equal(t, firstResolvedAt, *updated.ResolvedAt)
}

func TestTicketUpdateNoEventWithoutStatusChange(t *testing.T) {
	users := newFakeUserRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(newFakeTicketRepo(), users, dispatcher)
	agent := newTestUser(users, "a1", "Bob", domain.RoleSupportAgent)

	ticket, err := svc.Create(context.Background(), CreatorRef{UserID: agent.ID}, TicketCreateInput{
		Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral,
	})
	require.NoError(t, err)
	dispatcher.published = nil

	title := "new title"
	_, err = svc.Update(context.Background(), agent, ticket.ID, TicketUpdateInput{Title: &title})
	require.NoError(t, err)
	assert.Empty(t, dispatcher.published)
}

func TestTicketListScopesEndUsers(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	svc := NewTicketService(tickets, users, nil)

	alice := newTestUser(users, "u1", "Alice", domain.RoleEndUser)
	bob := newTestUser(users, "u2", "Bob", domain.RoleEndUser)
	agent := newTestUser(users, "a1", "Carol", domain.RoleSupportAgent)

	for _, creator := range []*domain.User{alice, bob} {
		_, err := svc.Create(context.Background(), CreatorRef{UserID: creator.ID}, TicketCreateInput{
			Title: "from " + creator.Name, Description: "d",
			Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral,
		})
		require.NoError(t, err)
	}

	mine, err := svc.List(context.Background(), alice, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].CreatedBy)
	assert.Equal(t, "Alice", mine[0].CreatedByName)

	all, err := svc.List(context.Background(), agent, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestTicketListAssignedToMe(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	svc := NewTicketService(tickets, users, nil)
	agent := newTestUser(users, "a1", "Carol", domain.RoleSupportAgent)

	ticket, err := svc.Create(context.Background(), CreatorRef{UserID: agent.ID}, TicketCreateInput{
		Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral,
	})
	require.NoError(t, err)

	assignee := agent.ID
	_, err = svc.Update(context.Background(), agent, ticket.ID, TicketUpdateInput{AssignedTo: &assignee})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreatorRef{UserID: agent.ID}, TicketCreateInput{
		Title: "unassigned", Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral,
	})
	require.NoError(t, err)

	views, err := svc.List(context.Background(), agent, TicketListFilter{AssignedToMe: true})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, ticket.ID, views[0].ID)
	require.NotNil(t, views[0].AssignedToName)
	assert.Equal(t, "Carol", *views[0].AssignedToName)
}

func TestTicketGetOwnership(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	svc := NewTicketService(tickets, users, nil)

	alice := newTestUser(users, "u1", "Alice", domain.RoleEndUser)
	bob := newTestUser(users, "u2", "Bob", domain.RoleEndUser)
	agent := newTestUser(users, "a1", "Carol", domain.RoleSupportAgent)

	ticket, err := svc.Create(context.Background(), CreatorRef{UserID: alice.ID}, TicketCreateInput{
		Title: "t", Description: "d", Priority: domain.TicketPriorityLow, Category: domain.TicketCategoryGeneral,
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), alice, ticket.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), agent, ticket.ID)
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), bob, ticket.ID)
	requireDomainErr(t, err, "FORBIDDEN", 403)

	_, err = svc.Get(context.Background(), alice, "missing")
	requireDomainErr(t, err, "NOT_FOUND", 404)
}

func TestTicketPortalAccess(t *testing.T) {
	users := newFakeUserRepo()
	tickets := newFakeTicketRepo()
	svc := NewTicketService(tickets, users, nil)

	ticket, err := svc.Create(context.Background(), CreatorRef{Email: "visitor@example.com"}, TicketCreateInput{
		Title: "portal ticket", Description: "d",
		Priority: domain.TicketPriorityMedium, Category: domain.TicketCategoryBilling,
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.RequesterEmail)
	assert.Empty(t, ticket.CreatedBy)

	listed, err := svc.ListForRequester(context.Background(), "visitor@example.com")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	got, err := svc.GetForRequester(context.Background(), "VISITOR@example.com", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, got.ID)

	_, err = svc.GetForRequester(context.Background(), "other@example.com", ticket.ID)
	requireDomainErr(t, err, "FORBIDDEN", 403)
}
