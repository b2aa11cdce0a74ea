package store

import (
	"context"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
)

// AgentGroupPatch edits a group. ClearLeader removes the leader and wins over LeaderID.
type AgentGroupPatch struct {
	Name        *string
	LeaderID    *uint
	ClearLeader bool
}

func (s *Store) CreateAgentGroup(ctx context.Context, g *models.AgentGroup) error {
	g.IsActive = true
	return s.db.WithContext(ctx).Create(g).Error
}

// GetAgentGroup returns an active group. Deleted groups are reported as missing.
func (s *Store) GetAgentGroup(ctx context.Context, id uint) (*models.AgentGroup, error) {
	var g models.AgentGroup
	err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&g, id).Error
	if err != nil {
		return nil, lookupErr(err, "Agent group")
	}
	return &g, nil
}

// ListAgentGroups returns active groups whose owning SalesStaff passes f.
func (s *Store) ListAgentGroups(ctx context.Context, f OwnerFilter) ([]models.AgentGroup, error) {
	var groups []models.AgentGroup
	err := f.apply(s.db.WithContext(ctx), "sales_staff_id").
		Where("is_active = ?", true).
		Order("id").
		Find(&groups).Error
	return groups, err
}

func (s *Store) ListAgentGroupsByLeader(ctx context.Context, leaderID uint) ([]models.AgentGroup, error) {
	var groups []models.AgentGroup
	err := s.db.WithContext(ctx).
		Where("leader_id = ? AND is_active = ?", leaderID, true).
		Order("id").
		Find(&groups).Error
	return groups, err
}

func (s *Store) UpdateAgentGroup(ctx context.Context, id uint, patch AgentGroupPatch) (*models.AgentGroup, error) {
	if _, err := s.GetAgentGroup(ctx, id); err != nil {
		return nil, err
	}
	cols := map[string]any{}
	if patch.Name != nil {
		cols["name"] = *patch.Name
	}
	switch {
	case patch.ClearLeader:
		cols["leader_id"] = nil
	case patch.LeaderID != nil:
		cols["leader_id"] = *patch.LeaderID
	}
	if len(cols) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.AgentGroup{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetAgentGroup(ctx, id)
}

// DeactivateAgentGroup soft-deletes a group. Memberships are kept for history.
func (s *Store) DeactivateAgentGroup(ctx context.Context, id uint) error {
	if _, err := s.GetAgentGroup(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.AgentGroup{}).Where("id = ?", id).Update("is_active", false).Error
}

func (s *Store) AddGroupMember(ctx context.Context, groupID, agentID uint) (*models.AgentGroupMember, error) {
	m := &models.AgentGroupMember{GroupID: groupID, AgentID: agentID}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, writeErr(err, "Agent is already a member of this group")
	}
	return m, nil
}

func (s *Store) RemoveGroupMember(ctx context.Context, groupID, agentID uint) error {
	res := s.db.WithContext(ctx).
		Where("group_id = ? AND agent_id = ?", groupID, agentID).
		Delete(&models.AgentGroupMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Group member")
	}
	return nil
}

// ListGroupMembers returns the users linked to a group, in membership order.
func (s *Store) ListGroupMembers(ctx context.Context, groupID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN agent_group_members ON agent_group_members.agent_id = users.id").
		Where("agent_group_members.group_id = ?", groupID).
		Order("agent_group_members.created_at, users.id").
		Find(&users).Error
	return users, err
}
