package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/activity"
	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
	"agentdesk/internal/policy"
	"agentdesk/internal/store"
)

// GroupController manages agent groups for their owning SalesStaff and
// exposes read-only team views to the group's TeamLeader.
type GroupController struct {
	base
}

func NewGroupController(deps *Deps) *GroupController {
	return &GroupController{base: newBase(deps)}
}

type groupInput struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	LeaderID *uint  `json:"leaderId"`
}

type groupPatch struct {
	Name         *string `json:"name" binding:"omitempty,notblank,max=100"`
	LeaderID     *uint   `json:"leaderId"`
	RemoveLeader bool    `json:"removeLeader"`
}

type memberInput struct {
	AgentID uint `json:"agentId" binding:"required"`
}

// checkLeader requires an active TeamLeader reporting to the owner.
func (gc *GroupController) checkLeader(ctx context.Context, owner *models.User, leaderID uint) error {
	leader, err := gc.Store.GetUser(ctx, leaderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.InvalidField("leaderId", "user does not exist")
		}
		return err
	}
	if leader.Role != models.RoleTeamLeader || !leader.IsActive || !leader.ReportsTo(owner.ID) {
		return apperr.InvalidField("leaderId", "must be an active TeamLeader reporting to you")
	}
	return nil
}

// loadGroup fetches an active group and authorizes action on it.
func (gc *GroupController) loadGroup(c *gin.Context, res policy.Resource, action policy.Action) (*models.User, *models.AgentGroup, error) {
	actor, err := currentUser(c)
	if err != nil {
		return nil, nil, err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return nil, nil, err
	}
	ctx := c.Request.Context()
	group, err := gc.Store.GetAgentGroup(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	target := policy.Target{OwnerID: group.SalesStaffID, LeaderID: group.LeaderID}
	if err := gc.Policy.Authorize(ctx, actor, res, action, target); err != nil {
		return nil, nil, err
	}
	return actor, group, nil
}

func (gc *GroupController) Create(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	if _, err := gc.Policy.Require(actor, policy.ResourceAgentGroups, policy.ActionCreate); err != nil {
		gc.respondError(c, err)
		return
	}
	var in groupInput
	if err := bindJSON(c, &in); err != nil {
		gc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if in.LeaderID != nil {
		if err := gc.checkLeader(ctx, actor, *in.LeaderID); err != nil {
			gc.respondError(c, err)
			return
		}
	}
	group := &models.AgentGroup{
		Name:         strings.TrimSpace(in.Name),
		SalesStaffID: actor.ID,
		LeaderID:     in.LeaderID,
	}
	if err := gc.Store.CreateAgentGroup(ctx, group); err != nil {
		gc.respondError(c, err)
		return
	}
	gc.Activity.Recordf(ctx, actor.ID, activity.ActionCreateGroup, "%s created agent group %q", actor.FullName(), group.Name)
	c.JSON(http.StatusCreated, group)
}

func (gc *GroupController) List(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	filter, err := gc.Policy.Visible(ctx, actor, policy.ResourceAgentGroups)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	var groups []models.AgentGroup
	if actor.Role == models.RoleTeamLeader {
		// team leaders see groups by leadership, not ownership
		groups, err = gc.Store.ListAgentGroupsByLeader(ctx, actor.ID)
	} else {
		groups, err = gc.Store.ListAgentGroups(ctx, filter)
	}
	if err != nil {
		gc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (gc *GroupController) Update(c *gin.Context) {
	actor, group, err := gc.loadGroup(c, policy.ResourceAgentGroups, policy.ActionUpdate)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	var in groupPatch
	if err := bindJSON(c, &in); err != nil {
		gc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if in.LeaderID != nil && !in.RemoveLeader {
		if err := gc.checkLeader(ctx, actor, *in.LeaderID); err != nil {
			gc.respondError(c, err)
			return
		}
	}
	updated, err := gc.Store.UpdateAgentGroup(ctx, group.ID, store.AgentGroupPatch{
		Name:        trimmed(in.Name),
		LeaderID:    in.LeaderID,
		ClearLeader: in.RemoveLeader,
	})
	if err != nil {
		gc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete deactivates the group.
func (gc *GroupController) Delete(c *gin.Context) {
	_, group, err := gc.loadGroup(c, policy.ResourceAgentGroups, policy.ActionDelete)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	if err := gc.Store.DeactivateAgentGroup(c.Request.Context(), group.ID); err != nil {
		gc.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMember links one of the owner's Agents to the group.
func (gc *GroupController) AddMember(c *gin.Context) {
	actor, group, err := gc.loadGroup(c, policy.ResourceGroupMembers, policy.ActionCreate)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	var in memberInput
	if err := bindJSON(c, &in); err != nil {
		gc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	agent, err := gc.Store.GetUser(ctx, in.AgentID)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	if agent.Role != models.RoleAgent {
		gc.respondError(c, apperr.InvalidField("agentId", "only Agents can be group members"))
		return
	}
	if !agent.ReportsTo(actor.ID) {
		gc.respondError(c, apperr.Forbidden("You can only add your own agents"))
		return
	}
	member, err := gc.Store.AddGroupMember(ctx, group.ID, agent.ID)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (gc *GroupController) RemoveMember(c *gin.Context) {
	_, group, err := gc.loadGroup(c, policy.ResourceGroupMembers, policy.ActionDelete)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	agentID, err := idParam(c, "agentId")
	if err != nil {
		gc.respondError(c, err)
		return
	}
	if err := gc.Store.RemoveGroupMember(c.Request.Context(), group.ID, agentID); err != nil {
		gc.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMembers is open to the owning SalesStaff and to the group's leader.
func (gc *GroupController) ListMembers(c *gin.Context) {
	_, group, err := gc.loadGroup(c, policy.ResourceGroupMembers, policy.ActionRead)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	members, err := gc.Policy.Resolver().GroupMembersOf(c.Request.Context(), group.ID)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries(members))
}

// LedGroups lists the groups the calling TeamLeader leads.
func (gc *GroupController) LedGroups(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	if _, err := gc.Policy.Require(actor, policy.ResourceAgentGroups, policy.ActionRead); err != nil {
		gc.respondError(c, err)
		return
	}
	groups, err := gc.Store.ListAgentGroupsByLeader(c.Request.Context(), actor.ID)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Team lists every agent in the groups the caller leads.
func (gc *GroupController) Team(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	if _, err := gc.Policy.Require(actor, policy.ResourceGroupMembers, policy.ActionRead); err != nil {
		gc.respondError(c, err)
		return
	}
	team, err := gc.Policy.Resolver().TeamOf(c.Request.Context(), actor.ID)
	if err != nil {
		gc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries(team))
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}
