package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func TestCan(t *testing.T) {
	staffActions := []Action{
		ActionUpdateTicket,
		ActionListAllTickets,
		ActionCreateInternalComment,
		ActionViewInternalComments,
		ActionViewDashboard,
	}
	for _, action := range staffActions {
		assert.False(t, Can(domain.RoleEndUser, action), "end_user should be denied %s", action)
		assert.True(t, Can(domain.RoleSupportAgent, action), "support_agent should be allowed %s", action)
		assert.True(t, Can(domain.RoleTeamLead, action), "team_lead should be allowed %s", action)
		assert.True(t, Can(domain.RoleAdmin, action), "admin should be allowed %s", action)
	}

	assert.False(t, Can(domain.RoleEndUser, ActionListUsers))
	assert.False(t, Can(domain.RoleSupportAgent, ActionListUsers))
	assert.True(t, Can(domain.RoleTeamLead, ActionListUsers))
	assert.True(t, Can(domain.RoleAdmin, ActionListUsers))
}

func TestCanUnknownInputs(t *testing.T) {
	assert.False(t, Can(domain.RoleAdmin, Action("drop_database")))
	assert.False(t, Can(domain.Role("superuser"), ActionUpdateTicket))
}

func TestCanViewTicket(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", CreatedBy: "u1"}

	assert.True(t, CanViewTicket(domain.RoleEndUser, "u1", ticket))
	assert.False(t, CanViewTicket(domain.RoleEndUser, "u2", ticket))
	assert.True(t, CanViewTicket(domain.RoleSupportAgent, "u2", ticket))
	assert.True(t, CanViewTicket(domain.RoleTeamLead, "u2", ticket))
	assert.True(t, CanViewTicket(domain.RoleAdmin, "u2", ticket))
}
