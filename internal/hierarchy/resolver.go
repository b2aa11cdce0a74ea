// Package hierarchy answers questions about the reporting tree: who reports
// to whom, directly or transitively, and who sits in a leader's team.
package hierarchy

import (
	"context"
	"errors"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
	"agentdesk/internal/store"
)

// maxDepth is the number of manager hops between Admin and the field roles.
const maxDepth = 3

// Directory is the read side of the user store the resolver needs.
type Directory interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, roles ...models.Role) ([]models.User, error)
	ListUsersByManager(ctx context.Context, managerID uint, roles ...models.Role) ([]models.User, error)
	ListUsersByManagers(ctx context.Context, f store.OwnerFilter, roles ...models.Role) ([]models.User, error)
	ListAgentGroupsByLeader(ctx context.Context, leaderID uint) ([]models.AgentGroup, error)
	ListGroupMembers(ctx context.Context, groupID uint) ([]models.User, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// SubordinatesOf returns the direct reports of userID.
func (r *Resolver) SubordinatesOf(ctx context.Context, userID uint) ([]models.User, error) {
	return r.dir.ListUsersByManager(ctx, userID)
}

// TransitiveSubordinatesOf walks the tree below userID breadth-first and
// returns every user reached, filtered to roles when any are given. The walk
// stops after maxDepth levels and never visits a user twice, so corrupt
// manager links cannot make it loop. Each level is one directory query.
func (r *Resolver) TransitiveSubordinatesOf(ctx context.Context, userID uint, roles ...models.Role) ([]models.User, error) {
	visited := map[uint]bool{userID: true}
	frontier := []uint{userID}
	var found []models.User

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		children, err := r.dir.ListUsersByManagers(ctx, store.OwnedBy(frontier...))
		if err != nil {
			return nil, err
		}
		var next []uint
		for _, child := range children {
			if visited[child.ID] {
				continue
			}
			visited[child.ID] = true
			next = append(next, child.ID)
			if len(roles) == 0 || child.Role.In(roles...) {
				found = append(found, child)
			}
		}
		frontier = next
	}
	return found, nil
}

// SubtreeIDs returns userID followed by the ids of everyone below it.
func (r *Resolver) SubtreeIDs(ctx context.Context, userID uint) ([]uint, error) {
	subs, err := r.TransitiveSubordinatesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(subs)+1)
	ids = append(ids, userID)
	for _, u := range subs {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// GroupMembersOf returns the Agent members of a group. Stray non-Agent rows
// are dropped.
func (r *Resolver) GroupMembersOf(ctx context.Context, groupID uint) ([]models.User, error) {
	users, err := r.dir.ListGroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	agents := users[:0]
	for _, u := range users {
		if u.Role == models.RoleAgent {
			agents = append(agents, u)
		}
	}
	return agents, nil
}

// TeamOf returns the agents in every active group led by leaderID, without
// duplicates.
func (r *Resolver) TeamOf(ctx context.Context, leaderID uint) ([]models.User, error) {
	groups, err := r.dir.ListAgentGroupsByLeader(ctx, leaderID)
	if err != nil {
		return nil, err
	}
	seen := map[uint]bool{}
	var team []models.User
	for _, g := range groups {
		members, err := r.GroupMembersOf(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if !seen[m.ID] {
				seen[m.ID] = true
				team = append(team, m)
			}
		}
	}
	return team, nil
}

// SuperiorOf returns the user's direct manager, or nil when the user has none
// or the manager row no longer exists.
func (r *Resolver) SuperiorOf(ctx context.Context, u *models.User) (*models.User, error) {
	if u == nil || u.ManagerID == nil {
		return nil, nil
	}
	boss, err := r.dir.GetUser(ctx, *u.ManagerID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return boss, nil
}

// ChainOf returns the managers above u, nearest first.
func (r *Resolver) ChainOf(ctx context.Context, u *models.User) ([]models.User, error) {
	var chain []models.User
	seen := map[uint]bool{u.ID: true}
	cur := u
	for i := 0; i < maxDepth; i++ {
		boss, err := r.SuperiorOf(ctx, cur)
		if err != nil {
			return nil, err
		}
		if boss == nil || seen[boss.ID] {
			break
		}
		seen[boss.ID] = true
		chain = append(chain, *boss)
		cur = boss
	}
	return chain, nil
}

// IsInSubtree reports whether targetID sits strictly below rootID.
func (r *Resolver) IsInSubtree(ctx context.Context, rootID, targetID uint) (bool, error) {
	if rootID == targetID {
		return false, nil
	}
	target, err := r.dir.GetUser(ctx, targetID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	chain, err := r.ChainOf(ctx, target)
	if err != nil {
		return false, err
	}
	for _, boss := range chain {
		if boss.ID == rootID {
			return true, nil
		}
	}
	return false, nil
}

// UsersWithRole lists every user holding one of roles.
func (r *Resolver) UsersWithRole(ctx context.Context, roles ...models.Role) ([]models.User, error) {
	return r.dir.ListUsers(ctx, roles...)
}
