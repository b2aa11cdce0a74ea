// Package policy decides what an authenticated user may do. Every
// permission check in the application goes through one table: the role
// matrix below.
package policy

import "agentdesk/internal/models"

type Resource string

const (
	ResourceUsers        Resource = "users" // any user, regardless of role
	ResourceManagers     Resource = "managers"
	ResourceSalesStaff   Resource = "sales_staff"
	ResourceFieldUsers   Resource = "field_users" // agents and team leaders
	ResourceClients      Resource = "clients"
	ResourceAgentGroups  Resource = "agent_groups"
	ResourceGroupMembers Resource = "group_members"
	ResourceAttendance   Resource = "attendance"
	ResourceDailyReports Resource = "daily_reports"
	ResourceHelpRequests Resource = "help_requests"
	ResourceActivities   Resource = "activities"
	ResourceTimeFrames   Resource = "attendance_time_frames"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Scope is how far a grant reaches. Wider scopes compare greater.
type Scope int

const (
	ScopeNone    Scope = iota
	ScopeOwn           // owning id equals the actor
	ScopeTeam          // the actor, or members of groups the actor leads
	ScopeSubtree       // the actor, or anyone below the actor
	ScopeAll
)

func (s Scope) String() string {
	switch s {
	case ScopeOwn:
		return "own"
	case ScopeTeam:
		return "team"
	case ScopeSubtree:
		return "subtree"
	case ScopeAll:
		return "all"
	default:
		return "none"
	}
}

type grant map[Action]Scope

func crud(s Scope) grant {
	return grant{ActionCreate: s, ActionRead: s, ActionUpdate: s, ActionDelete: s}
}

func readOnly(s Scope) grant {
	return grant{ActionRead: s}
}

// rolePolicies is the role matrix. A missing entry means no access.
var rolePolicies = map[Resource]map[models.Role]grant{
	ResourceUsers: {
		models.RoleAdmin: {ActionRead: ScopeAll, ActionUpdate: ScopeAll},
	},
	ResourceManagers: {
		models.RoleAdmin: crud(ScopeAll),
	},
	ResourceSalesStaff: {
		models.RoleAdmin:   readOnly(ScopeAll),
		models.RoleManager: crud(ScopeOwn),
	},
	ResourceFieldUsers: {
		models.RoleAdmin:      readOnly(ScopeAll),
		models.RoleManager:    readOnly(ScopeSubtree),
		models.RoleSalesStaff: crud(ScopeOwn),
	},
	ResourceClients: {
		models.RoleSalesStaff: readOnly(ScopeSubtree),
		models.RoleTeamLeader: crud(ScopeOwn),
		models.RoleAgent:      crud(ScopeOwn),
	},
	ResourceAgentGroups: {
		models.RoleSalesStaff: crud(ScopeOwn),
		models.RoleTeamLeader: readOnly(ScopeTeam),
	},
	ResourceGroupMembers: {
		models.RoleSalesStaff: {ActionCreate: ScopeOwn, ActionRead: ScopeOwn, ActionDelete: ScopeOwn},
		models.RoleTeamLeader: readOnly(ScopeTeam),
	},
	ResourceAttendance: {
		models.RoleManager:    readOnly(ScopeAll),
		models.RoleSalesStaff: readOnly(ScopeSubtree),
		models.RoleTeamLeader: {ActionCreate: ScopeOwn, ActionRead: ScopeTeam},
		models.RoleAgent:      {ActionCreate: ScopeOwn, ActionRead: ScopeOwn},
	},
	ResourceDailyReports: {
		models.RoleTeamLeader: {ActionCreate: ScopeOwn, ActionRead: ScopeTeam},
		models.RoleAgent:      {ActionCreate: ScopeOwn, ActionRead: ScopeOwn},
	},
	ResourceHelpRequests: {
		models.RoleAdmin: {ActionRead: ScopeAll, ActionUpdate: ScopeAll},
	},
	ResourceActivities: {
		models.RoleAdmin: {ActionCreate: ScopeAll, ActionRead: ScopeAll},
	},
	ResourceTimeFrames: {
		models.RoleManager: {ActionCreate: ScopeOwn, ActionRead: ScopeOwn, ActionUpdate: ScopeOwn},
	},
}

// ScopeFor returns the scope role has for action on res.
func ScopeFor(role models.Role, res Resource, action Action) Scope {
	return rolePolicies[res][role][action]
}

// ResourceForRole maps a user role to the resource that governs users of that role.
func ResourceForRole(role models.Role) Resource {
	switch role {
	case models.RoleManager:
		return ResourceManagers
	case models.RoleSalesStaff:
		return ResourceSalesStaff
	case models.RoleAgent, models.RoleTeamLeader:
		return ResourceFieldUsers
	default:
		return ResourceUsers
	}
}
