// Package authz holds the pure access-control policy. Decisions depend
// only on the actor role (plus ownership for per-ticket visibility),
// never on transport or storage state.
package authz

import "github.com/spec-kit/helpdesk/internal/domain"

// Action identifies a guarded operation.
type Action string

const (
	ActionUpdateTicket          Action = "update_ticket"
	ActionListAllTickets        Action = "list_all_tickets"
	ActionCreateInternalComment Action = "create_internal_comment"
	ActionViewInternalComments  Action = "view_internal_comments"
	ActionListUsers             Action = "list_users"
	ActionViewDashboard         Action = "view_dashboard"
)

// grants is the whitelist of roles per action. Roles absent from an
// action's set are denied.
var grants = map[Action]map[domain.Role]struct{}{
	ActionUpdateTicket:          staffOnly(),
	ActionListAllTickets:        staffOnly(),
	ActionCreateInternalComment: staffOnly(),
	ActionViewInternalComments:  staffOnly(),
	ActionViewDashboard:         staffOnly(),
	ActionListUsers: {
		domain.RoleTeamLead: {},
		domain.RoleAdmin:    {},
	},
}

func staffOnly() map[domain.Role]struct{} {
	return map[domain.Role]struct{}{
		domain.RoleSupportAgent: {},
		domain.RoleTeamLead:     {},
		domain.RoleAdmin:        {},
	}
}

// Can reports whether the role is allowed to perform the action.
func Can(role domain.Role, action Action) bool {
	allowed, ok := grants[action]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// CanViewTicket reports whether an actor may read a single ticket.
// End-users see only their own tickets; staff see everything.
func CanViewTicket(role domain.Role, actorID string, ticket *domain.Ticket) bool {
	if role != domain.RoleEndUser {
		return true
	}
	return ticket.CreatedBy == actorID
}
