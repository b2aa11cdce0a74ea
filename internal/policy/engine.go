package policy

import (
	"context"

	"agentdesk/internal/apperr"
	"agentdesk/internal/hierarchy"
	"agentdesk/internal/models"
	"agentdesk/internal/store"
)

// Target describes the owned entity an action is aimed at.
type Target struct {
	OwnerID  uint  // owning foreign key: managerId, agentId, salesStaffId or userId
	LeaderID *uint // set for group-scoped entities
}

// Owned is a Target with only an owner.
func Owned(ownerID uint) Target { return Target{OwnerID: ownerID} }

type Engine struct {
	resolver *hierarchy.Resolver

	strictManagerMessaging bool
}

type Option func(*Engine)

// WithStrictManagerMessaging controls whether a SalesStaff may message any
// Manager (false) or only their own (true, the default).
func WithStrictManagerMessaging(strict bool) Option {
	return func(e *Engine) { e.strictManagerMessaging = strict }
}

func New(dir hierarchy.Directory, opts ...Option) *Engine {
	e := &Engine{
		resolver:               hierarchy.NewResolver(dir),
		strictManagerMessaging: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Resolver() *hierarchy.Resolver { return e.resolver }

func errNoPermission() error {
	return apperr.Forbidden("You do not have permission to perform this action")
}

func errOutOfScope() error {
	return apperr.Forbidden("Access denied")
}

// Require fails with Forbidden when actor's role has no grant for action on res.
func (e *Engine) Require(actor *models.User, res Resource, action Action) (Scope, error) {
	if actor == nil {
		return ScopeNone, apperr.Unauthenticated("Not authenticated")
	}
	scope := ScopeFor(actor.Role, res, action)
	if scope == ScopeNone {
		return ScopeNone, errNoPermission()
	}
	return scope, nil
}

// Authorize is the write-scope check: target must be the freshly loaded
// entity, never owner ids taken from the request.
func (e *Engine) Authorize(ctx context.Context, actor *models.User, res Resource, action Action, target Target) error {
	scope, err := e.Require(actor, res, action)
	if err != nil {
		return err
	}
	ok, err := e.inScope(ctx, actor, scope, target)
	if err != nil {
		return err
	}
	if !ok {
		return errOutOfScope()
	}
	return nil
}

func (e *Engine) inScope(ctx context.Context, actor *models.User, scope Scope, target Target) (bool, error) {
	switch scope {
	case ScopeAll:
		return true, nil
	case ScopeOwn:
		return target.OwnerID == actor.ID, nil
	case ScopeSubtree:
		if target.OwnerID == actor.ID {
			return true, nil
		}
		return e.resolver.IsInSubtree(ctx, actor.ID, target.OwnerID)
	case ScopeTeam:
		if target.OwnerID == actor.ID || (target.LeaderID != nil && *target.LeaderID == actor.ID) {
			return true, nil
		}
		team, err := e.resolver.TeamOf(ctx, actor.ID)
		if err != nil {
			return false, err
		}
		for _, member := range team {
			if member.ID == target.OwnerID {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

// Visible computes the owner filter for a listing of res by actor.
func (e *Engine) Visible(ctx context.Context, actor *models.User, res Resource) (store.OwnerFilter, error) {
	scope, err := e.Require(actor, res, ActionRead)
	if err != nil {
		return store.OwnerFilter{}, err
	}
	switch scope {
	case ScopeAll:
		return store.AnyOwner(), nil
	case ScopeSubtree:
		ids, err := e.resolver.SubtreeIDs(ctx, actor.ID)
		if err != nil {
			return store.OwnerFilter{}, err
		}
		return store.OwnedBy(ids...), nil
	case ScopeTeam:
		team, err := e.resolver.TeamOf(ctx, actor.ID)
		if err != nil {
			return store.OwnerFilter{}, err
		}
		ids := []uint{actor.ID}
		for _, member := range team {
			ids = append(ids, member.ID)
		}
		return store.OwnedBy(ids...), nil
	default:
		return store.OwnedBy(actor.ID), nil
	}
}

// CheckCreatableRole rejects creating a user whose role is not exactly one
// rung below the actor's.
func CheckCreatableRole(actor *models.User, role models.Role) error {
	if !role.Valid() {
		return apperr.InvalidField("role", "unknown role")
	}
	if !actor.Role.Supervises(role) {
		return apperr.Validation("%s cannot create a user with role %s", actor.Role, role)
	}
	return nil
}
