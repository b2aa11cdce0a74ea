package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
)

type MessageController struct {
	base
}

func NewMessageController(deps *Deps) *MessageController {
	return &MessageController{base: newBase(deps)}
}

type sendMessageInput struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Content    string `json:"content" binding:"required,notblank,max=5000"`
}

// messageView is a message with both parties attached.
type messageView struct {
	models.Message
	Sender   *participant `json:"sender"`
	Receiver *participant `json:"receiver"`
}

type participant struct {
	ID        uint        `json:"id"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
}

func (mc *MessageController) Send(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	var in sendMessageInput
	if err := bindJSON(c, &in); err != nil {
		mc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	receiver, err := mc.Store.GetUser(ctx, in.ReceiverID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			err = apperr.NotFound("Receiver")
		}
		mc.respondError(c, err)
		return
	}
	if err := mc.Policy.AuthorizeMessage(actor, receiver); err != nil {
		mc.respondError(c, err)
		return
	}
	msg := &models.Message{
		SenderID:   actor.ID,
		ReceiverID: receiver.ID,
		Content:    strings.TrimSpace(in.Content),
	}
	if err := mc.Store.CreateMessage(ctx, msg); err != nil {
		mc.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// List returns every message the caller sent or received.
func (mc *MessageController) List(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	msgs, err := mc.Store.ListMessagesForUser(c.Request.Context(), actor.ID)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	mc.respondMessages(c, msgs)
}

func (mc *MessageController) Conversation(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	otherID, err := idParam(c, "userId")
	if err != nil {
		mc.respondError(c, err)
		return
	}
	msgs, err := mc.Store.ListConversation(c.Request.Context(), actor.ID, otherID)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	mc.respondMessages(c, msgs)
}

func (mc *MessageController) MarkRead(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	id, err := idParam(c, "id")
	if err != nil {
		mc.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	msg, err := mc.Store.GetMessage(ctx, id)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	if msg.ReceiverID != actor.ID {
		mc.respondError(c, apperr.Forbidden("You can only mark messages sent to you as read"))
		return
	}
	msg, err = mc.Store.MarkMessageRead(ctx, msg.ID)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// Receivers lists the users the caller may start a conversation with.
func (mc *MessageController) Receivers(c *gin.Context) {
	actor, err := currentUser(c)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	users, err := mc.Policy.AvailableReceivers(c.Request.Context(), actor)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries(users))
}

func (mc *MessageController) respondMessages(c *gin.Context, msgs []models.Message) {
	seen := map[uint]bool{}
	var ids []uint
	for _, m := range msgs {
		for _, id := range []uint{m.SenderID, m.ReceiverID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := mc.Store.GetUsers(c.Request.Context(), ids)
	if err != nil {
		mc.respondError(c, err)
		return
	}
	lookup := func(id uint) *participant {
		u, ok := users[id]
		if !ok {
			return nil
		}
		return &participant{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageView{Message: m, Sender: lookup(m.SenderID), Receiver: lookup(m.ReceiverID)})
	}
	c.JSON(http.StatusOK, out)
}
