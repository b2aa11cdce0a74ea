package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
)

const currentUserKey = "current_user"

// UserLoader reads a user by id.
type UserLoader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator resolves the caller from the session cookie or a bearer token.
type Authenticator struct {
	users  UserLoader
	tokens *TokenIssuer
}

func NewAuthenticator(users UserLoader, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

func (a *Authenticator) Tokens() *TokenIssuer { return a.tokens }

// Identify returns the signed-in user. The user is re-read on every call so
// a deactivation takes effect on the next request.
func (a *Authenticator) Identify(c *gin.Context) (*models.User, error) {
	id, ok := sessionUserID(c)
	if !ok {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return nil, apperr.Unauthenticated("Not authenticated")
		}
		var err error
		id, err = a.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return nil, apperr.Unauthenticated("Invalid or expired token")
		}
	}

	user, err := a.users.GetUser(c.Request.Context(), id)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthenticated("Account inactive. Please contact administrator.")
	}
	return user, nil
}

// RequireAuth aborts with 401 unless the request carries a live identity.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := a.Identify(c)
		if err != nil {
			c.AbortWithStatusJSON(apperr.Status(err), apperr.BodyOf(err))
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Body{Message: "Not authenticated"})
			return
		}
		if !user.Role.In(roles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, apperr.Body{Message: "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by RequireAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
