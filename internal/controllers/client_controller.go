package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
	"agentdesk/internal/policy"
	"agentdesk/internal/store"
)

type ClientController struct {
	base
}

func NewClientController(deps *Deps) *ClientController {
	return &ClientController{base: newBase(deps)}
}

type clientInput struct {
	FirstName        string           `json:"firstName" binding:"required,notblank,max=100"`
	LastName         string           `json:"lastName" binding:"required,notblank,max=100"`
	NationalID       string           `json:"nationalId" binding:"max=50"`
	PhoneNumber      string           `json:"phoneNumber" binding:"max=30"`
	InsuranceProduct string           `json:"insuranceProduct" binding:"max=100"`
	PaymentMethod    string           `json:"paymentMethod" binding:"max=50"`
	FeePaid          *decimal.Decimal `json:"feePaid"`
	Location         string           `json:"location" binding:"max=255"`
}

type clientPatch struct {
	FirstName        *string          `json:"firstName" binding:"omitempty,notblank,max=100"`
	LastName         *string          `json:"lastName" binding:"omitempty,notblank,max=100"`
	NationalID       *string          `json:"nationalId" binding:"omitempty,max=50"`
	PhoneNumber      *string          `json:"phoneNumber" binding:"omitempty,max=30"`
	InsuranceProduct *string          `json:"insuranceProduct" binding:"omitempty,max=100"`
	PaymentMethod    *string          `json:"paymentMethod" binding:"omitempty,max=50"`
	FeePaid          *decimal.Decimal `json:"feePaid"`
	Location         *string          `json:"location" binding:"omitempty,max=255"`
}

func checkFee(fee *decimal.Decimal) error {
	if fee != nil && fee.IsNegative() {
		return apperr.InvalidField("feePaid", "must not be negative")
	}
	return nil
}

func (cc *ClientController) Create(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	if _, err := cc.Policy.Require(actor, policy.ResourceClients, policy.ActionCreate); err != nil {
		cc.respondError(c, err)
		return
	}
	var in clientInput
	if err := bindJSON(c, &in); err != nil {
		cc.respondError(c, err)
		return
	}
	if err := checkFee(in.FeePaid); err != nil {
		cc.respondError(c, err)
		return
	}
	client := &models.Client{
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		NationalID:       strings.TrimSpace(in.NationalID),
		PhoneNumber:      strings.TrimSpace(in.PhoneNumber),
		InsuranceProduct: strings.TrimSpace(in.InsuranceProduct),
		PaymentMethod:    strings.TrimSpace(in.PaymentMethod),
		Location:         strings.TrimSpace(in.Location),
		AgentID:          actor.ID,
	}
	if in.FeePaid != nil {
		client.FeePaid = decimal.NewNullDecimal(*in.FeePaid)
	}
	if err := cc.Store.CreateClient(c.Request.Context(), client); err != nil {
		cc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// List returns the caller's own clients, or their subtree's for SalesStaff.
func (cc *ClientController) List(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	filter, err := cc.Policy.Visible(c.Request.Context(), actor, policy.ResourceClients)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	clients, err := cc.Store.ListClients(c.Request.Context(), filter)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

func (cc *ClientController) load(c *gin.Context, action policy.Action) (*models.Client, error) {
	actor, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	client, err := cc.Store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cc.Policy.Authorize(ctx, actor, policy.ResourceClients, action, policy.Owned(client.AgentID)); err != nil {
		return nil, err
	}
	return client, nil
}

func (cc *ClientController) Get(c *gin.Context) {
	client, err := cc.load(c, policy.ActionRead)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

func (cc *ClientController) Update(c *gin.Context) {
	client, err := cc.load(c, policy.ActionUpdate)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	var in clientPatch
	if err := bindJSON(c, &in); err != nil {
		cc.respondError(c, err)
		return
	}
	if err := checkFee(in.FeePaid); err != nil {
		cc.respondError(c, err)
		return
	}
	updated, err := cc.Store.UpdateClient(c.Request.Context(), client.ID, store.ClientPatch{
		FirstName:        trimmed(in.FirstName),
		LastName:         trimmed(in.LastName),
		NationalID:       trimmed(in.NationalID),
		PhoneNumber:      trimmed(in.PhoneNumber),
		InsuranceProduct: trimmed(in.InsuranceProduct),
		PaymentMethod:    trimmed(in.PaymentMethod),
		FeePaid:          in.FeePaid,
		Location:         trimmed(in.Location),
	})
	if err != nil {
		cc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (cc *ClientController) Delete(c *gin.Context) {
	client, err := cc.load(c, policy.ActionDelete)
	if err != nil {
		cc.respondError(c, err)
		return
	}
	if err := cc.Store.DeleteClient(c.Request.Context(), client.ID); err != nil {
		cc.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
