// internal/models/role.go
package models

import (
	"fmt"
	"strings"
)

// Role is the organisational tier a user belongs to.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleSalesStaff Role = "SalesStaff"
	RoleTeamLeader Role = "TeamLeader"
	RoleAgent      Role = "Agent"
)

// Rank 0 is the top of the hierarchy. TeamLeader and Agent share the lowest rank.
var roleRanks = map[Role]int{
	RoleAdmin:      0,
	RoleManager:    1,
	RoleSalesStaff: 2,
	RoleTeamLeader: 3,
	RoleAgent:      3,
}

// AllRoles lists every role from the top of the hierarchy down.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleSalesStaff, RoleTeamLeader, RoleAgent}

// ParseRole accepts the canonical role names, case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, r := range AllRoles {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns -1 for an unknown role.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// Supervises reports whether a user with role r may be the direct manager of
// a user with role sub.
func (r Role) Supervises(sub Role) bool {
	if !r.Valid() || !sub.Valid() {
		return false
	}
	return sub.Rank() == r.Rank()+1
}

// IsField is true for the roles that work in the field: agents and team leaders.
func (r Role) IsField() bool {
	return r == RoleAgent || r == RoleTeamLeader
}

func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

func (r Role) String() string { return string(r) }
