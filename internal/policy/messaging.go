package policy

import (
	"context"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
)

// messagingRule allows sender to message receivers of the listed roles when
// check passes. A nil check allows unconditionally.
type messagingRule struct {
	sender    models.Role
	receivers []models.Role
	check     func(e *Engine, sender, receiver *models.User) bool
}

func receiverReportsToSender(_ *Engine, sender, receiver *models.User) bool {
	return receiver.ReportsTo(sender.ID)
}

func receiverIsOwnManager(_ *Engine, sender, receiver *models.User) bool {
	return sender.ReportsTo(receiver.ID)
}

func salesStaffToManager(e *Engine, sender, receiver *models.User) bool {
	if !e.strictManagerMessaging {
		return true
	}
	return sender.ReportsTo(receiver.ID)
}

// Evaluated in order; the first rule matching the role pair decides.
var messagingRules = []messagingRule{
	{models.RoleAdmin, []models.Role{models.RoleManager}, nil},
	{models.RoleManager, []models.Role{models.RoleSalesStaff, models.RoleAdmin}, nil},
	{models.RoleSalesStaff, []models.Role{models.RoleAgent, models.RoleTeamLeader}, receiverReportsToSender},
	{models.RoleSalesStaff, []models.Role{models.RoleManager}, salesStaffToManager},
	{models.RoleTeamLeader, []models.Role{models.RoleSalesStaff}, receiverIsOwnManager},
	{models.RoleAgent, []models.Role{models.RoleSalesStaff}, receiverIsOwnManager},
}

// CanMessage reports whether sender may send a message to receiver.
func (e *Engine) CanMessage(sender, receiver *models.User) bool {
	if sender == nil || receiver == nil {
		return false
	}
	for _, rule := range messagingRules {
		if sender.Role != rule.sender || !receiver.Role.In(rule.receivers...) {
			continue
		}
		return rule.check == nil || rule.check(e, sender, receiver)
	}
	return false
}

func (e *Engine) AuthorizeMessage(sender, receiver *models.User) error {
	if !e.CanMessage(sender, receiver) {
		return apperr.Forbidden("You are not allowed to message this user")
	}
	return nil
}

// AvailableReceivers lists who actor can pick as a message recipient.
func (e *Engine) AvailableReceivers(ctx context.Context, actor *models.User) ([]models.User, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return e.resolver.UsersWithRole(ctx, models.RoleManager)

	case models.RoleManager:
		subs, err := e.resolver.SubordinatesOf(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		admins, err := e.resolver.UsersWithRole(ctx, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		out := filterRole(subs, models.RoleSalesStaff)
		return append(out, admins...), nil

	case models.RoleSalesStaff:
		subs, err := e.resolver.SubordinatesOf(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		out := filterRole(subs, models.RoleAgent, models.RoleTeamLeader)
		boss, err := e.resolver.SuperiorOf(ctx, actor)
		if err != nil {
			return nil, err
		}
		if boss != nil && boss.Role == models.RoleManager {
			out = append(out, *boss)
		}
		return out, nil

	case models.RoleTeamLeader, models.RoleAgent:
		boss, err := e.resolver.SuperiorOf(ctx, actor)
		if err != nil {
			return nil, err
		}
		if boss == nil || boss.Role != models.RoleSalesStaff {
			return []models.User{}, nil
		}
		return []models.User{*boss}, nil
	}
	return []models.User{}, nil
}

func filterRole(users []models.User, roles ...models.Role) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role.In(roles...) {
			out = append(out, u)
		}
	}
	return out
}
