package domain

import "time"

// Role enumerates the closed set of caller roles.
type Role string

const (
	RoleEndUser      Role = "end_user"
	RoleSupportAgent Role = "support_agent"
	RoleTeamLead     Role = "team_lead"
	RoleAdmin        Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleEndUser, RoleSupportAgent, RoleTeamLead, RoleAdmin:
		return true
	}
	return false
}

// IsStaff reports whether the role belongs to helpdesk staff.
func (r Role) IsStaff() bool {
	return r == RoleSupportAgent || r == RoleTeamLead || r == RoleAdmin
}

// User is the domain model for any account, end-user or staff.
// Role is fixed at registration; the only mutable field is IsActive.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
