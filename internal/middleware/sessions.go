package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
)

const (
	SessionCookieName = "agentdesk_session"
	sessionUserKey    = "user_id"
)

type SessionOptions struct {
	Secret        string
	Backend       string // memory or redis
	RedisAddr     string
	RedisPassword string
	MaxAge        time.Duration
	Secure        bool
}

// Sessions builds the server-side session middleware. Only the session id
// travels in the cookie.
func Sessions(opts SessionOptions) (gin.HandlerFunc, error) {
	var store sessions.Store
	switch opts.Backend {
	case "", "memory":
		store = memstore.NewStore([]byte(opts.Secret))
	case "redis":
		rs, err := redis.NewStore(10, "tcp", opts.RedisAddr, opts.RedisPassword, []byte(opts.Secret))
		if err != nil {
			return nil, fmt.Errorf("connect session store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unknown session backend %q", opts.Backend)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(SessionCookieName, store), nil
}

// StartSession binds the current session to userID under a freshly issued
// session id. Whatever id the client arrived with is dropped from the store.
func StartSession(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	if err := renewID(c, session); err != nil {
		return err
	}
	session.Clear()
	session.Set(sessionUserKey, userID)
	return session.Save()
}

// gorillaBacked is satisfied by gin-contrib's session, which wraps a gorilla one.
type gorillaBacked interface {
	Session() *gsessions.Session
}

// renewID deletes the stored pre-login session and clears the id so the next
// Save makes the store generate a new one.
func renewID(c *gin.Context, session sessions.Session) error {
	gb, ok := session.(gorillaBacked)
	if !ok {
		return nil
	}
	gs := gb.Session()
	if gs == nil || gs.ID == "" || gs.Options == nil {
		return nil
	}
	opts := *gs.Options
	if !gs.IsNew {
		gs.Options.MaxAge = -1
		if err := gs.Save(c.Request, c.Writer); err != nil {
			return fmt.Errorf("drop previous session: %w", err)
		}
	}
	gs.ID = ""
	gs.IsNew = true
	gs.Options = &opts
	return nil
}

// EndSession drops everything stored in the session and expires the cookie.
func EndSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	return session.Save()
}

func sessionUserID(c *gin.Context) (uint, bool) {
	id, ok := sessions.Default(c).Get(sessionUserKey).(uint)
	return id, ok && id > 0
}
