package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/activity"
	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
	"agentdesk/internal/policy"
	"agentdesk/internal/security"
	"agentdesk/internal/store"
)

// UserController manages the users of one tier: Managers for an Admin,
// SalesStaff for a Manager, field users for a SalesStaff. The resource it is
// built for picks the roles and the policy rows that apply.
type UserController struct {
	base
	resource policy.Resource
	roles    []models.Role
	label    string
}

var tierRoles = map[policy.Resource][]models.Role{
	policy.ResourceManagers:   {models.RoleManager},
	policy.ResourceSalesStaff: {models.RoleSalesStaff},
	policy.ResourceFieldUsers: {models.RoleAgent, models.RoleTeamLeader},
	policy.ResourceUsers:      nil,
}

var tierLabels = map[policy.Resource]string{
	policy.ResourceManagers:   "Manager",
	policy.ResourceSalesStaff: "Sales staff",
	policy.ResourceFieldUsers: "Agent",
	policy.ResourceUsers:      "User",
}

func NewUserController(deps *Deps, resource policy.Resource) *UserController {
	return &UserController{
		base:     newBase(deps),
		resource: resource,
		roles:    tierRoles[resource],
		label:    tierLabels[resource],
	}
}

type createUserInput struct {
	FirstName   string `json:"firstName" binding:"required,notblank,max=100"`
	LastName    string `json:"lastName" binding:"required,notblank,max=100"`
	Email       string `json:"email" binding:"required,email,max=255"`
	WorkID      string `json:"workId" binding:"required,notblank,max=50"`
	Password    string `json:"password" binding:"required,min=6"`
	NationalID  string `json:"nationalId" binding:"max=50"`
	PhoneNumber string `json:"phoneNumber" binding:"max=30"`
	Role        string `json:"role"`
}

type updateUserInput struct {
	FirstName   *string `json:"firstName" binding:"omitempty,notblank,max=100"`
	LastName    *string `json:"lastName" binding:"omitempty,notblank,max=100"`
	Email       *string `json:"email" binding:"omitempty,email,max=255"`
	WorkID      *string `json:"workId" binding:"omitempty,notblank,max=50"`
	Password    *string `json:"password" binding:"omitempty,min=6"`
	NationalID  *string `json:"nationalId" binding:"omitempty,max=50"`
	PhoneNumber *string `json:"phoneNumber" binding:"omitempty,max=30"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List returns the users of this tier visible to the caller.
func (uc *UserController) List(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	filter, err := uc.Policy.Visible(c.Request.Context(), actor, uc.resource)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	users, err := uc.Store.ListUsersByManagers(c.Request.Context(), filter, uc.roles...)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// roleFor decides the role of a new user. An explicit role must be one the
// caller may create and must belong to this tier.
func (uc *UserController) roleFor(actor *models.User, raw string) (models.Role, error) {
	role := uc.roles[0]
	if strings.TrimSpace(raw) != "" {
		parsed, err := models.ParseRole(raw)
		if err != nil {
			return "", apperr.InvalidField("role", "unknown role")
		}
		role = parsed
	}
	if err := policy.CheckCreatableRole(actor, role); err != nil {
		return "", err
	}
	if !role.In(uc.roles...) {
		return "", apperr.Validation("Role %s cannot be created here", role)
	}
	return role, nil
}

func (uc *UserController) Create(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	if _, err := uc.Policy.Require(actor, uc.resource, policy.ActionCreate); err != nil {
		uc.respondError(c, err)
		return
	}
	var in createUserInput
	if err := bindJSON(c, &in); err != nil {
		uc.respondError(c, err)
		return
	}
	role, err := uc.roleFor(actor, in.Role)
	if err != nil {
		uc.respondError(c, err)
		return
	}

	hashed, err := security.HashPassword(in.Password)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	managerID := actor.ID
	user := &models.User{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       normalizeEmail(in.Email),
		WorkID:      strings.TrimSpace(in.WorkID),
		NationalID:  strings.TrimSpace(in.NationalID),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Password:    hashed,
		Role:        role,
		ManagerID:   &managerID,
		IsActive:    true,
	}
	ctx := c.Request.Context()
	if err := uc.Store.CreateUser(ctx, user); err != nil {
		uc.respondError(c, err)
		return
	}
	uc.Activity.Recordf(ctx, actor.ID, activity.ActionCreateUser,
		"%s created %s %s (%s)", actor.FullName(), role, user.FullName(), user.WorkID)

	c.JSON(http.StatusCreated, user)
}

// load fetches a user of this tier and runs the write-scope check against
// its stored manager.
func (uc *UserController) load(ctx context.Context, actor *models.User, id uint, action policy.Action) (*models.User, error) {
	user, err := uc.Store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(uc.roles) > 0 && !user.Role.In(uc.roles...) {
		return nil, apperr.NotFound(uc.label)
	}
	var owner uint
	if user.ManagerID != nil {
		owner = *user.ManagerID
	}
	if err := uc.Policy.Authorize(ctx, actor, uc.resource, action, policy.Owned(owner)); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserController) Update(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		uc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if _, err := uc.load(ctx, actor, id, policy.ActionUpdate); err != nil {
		uc.respondError(c, err)
		return
	}

	var in updateUserInput
	if err := bindJSON(c, &in); err != nil {
		uc.respondError(c, err)
		return
	}
	patch := store.UserPatch{
		FirstName:   trimmed(in.FirstName),
		LastName:    trimmed(in.LastName),
		WorkID:      trimmed(in.WorkID),
		NationalID:  trimmed(in.NationalID),
		PhoneNumber: trimmed(in.PhoneNumber),
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		patch.Email = &email
	}
	if in.Password != nil {
		hashed, err := security.HashPassword(*in.Password)
		if err != nil {
			uc.respondError(c, err)
			return
		}
		patch.Password = &hashed
	}

	user, err := uc.Store.UpdateUser(ctx, id, patch)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	uc.Activity.Recordf(ctx, actor.ID, activity.ActionUpdateUser,
		"%s updated %s %s (%s)", actor.FullName(), user.Role, user.FullName(), user.WorkID)
	c.JSON(http.StatusOK, user)
}

// Deactivate is the "delete" of a user: the row stays, IsActive goes false.
func (uc *UserController) Deactivate(c *gin.Context) {
	uc.setActive(c, false, false)
}

// Suspend deactivates and returns the updated user.
func (uc *UserController) Suspend(c *gin.Context) {
	uc.setActive(c, false, true)
}

// Activate reverses a deactivation.
func (uc *UserController) Activate(c *gin.Context) {
	uc.setActive(c, true, true)
}

func (uc *UserController) setActive(c *gin.Context, active, withBody bool) {
	actor, err := currentUser(c)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		uc.respondError(c, err)
		return
	}
	action := policy.ActionDelete
	if uc.resource == policy.ResourceUsers || active {
		action = policy.ActionUpdate
	}
	ctx := c.Request.Context()
	if _, err := uc.load(ctx, actor, id, action); err != nil {
		uc.respondError(c, err)
		return
	}
	if !active && id == actor.ID {
		uc.respondError(c, apperr.Validation("You cannot deactivate your own account"))
		return
	}

	user, err := uc.Store.SetUserActive(ctx, id, active)
	if err != nil {
		uc.respondError(c, err)
		return
	}
	if active {
		uc.Activity.Recordf(ctx, actor.ID, activity.ActionActivateUser,
			"%s activated %s %s (%s)", actor.FullName(), user.Role, user.FullName(), user.WorkID)
	} else {
		uc.Activity.Recordf(ctx, actor.ID, activity.ActionDeactivateUser,
			"%s deactivated %s %s (%s)", actor.FullName(), user.Role, user.FullName(), user.WorkID)
	}

	if !withBody {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, user)
}
