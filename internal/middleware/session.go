package middleware

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/auth"
	"flower_shop/internal/config"
	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

const (
	SessionName = "flower_shop"

	sessionKey = "session"
	actorKey   = "actor"
	sidKey     = "sid"
	userIDKey  = "user_id"
)

type FlashMessage struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func init() {
	gob.Register(FlashMessage{})
}

type UserLookup interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

// NewCookieStore returns the signed cookie store shared by the shop session
// and the OAuth handshake.
func NewCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   cfg.IsProd(),
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// Session loads the cookie session, hands out a cart token on first visit
// and resolves the request's actor from a bearer token or the session.
func Session(store sessions.Store, users UserLookup, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, SessionName)
		if err != nil {
			// Tampered or rotated-secret cookie: start over.
			log.Debug().Err(err).Msg("session cookie rejected")
		}
		c.Set(sessionKey, sess)

		sid, _ := sess.Values[sidKey].(string)
		if sid == "" {
			sid = uuid.NewString()
			sess.Values[sidKey] = sid
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Error().Err(err).Msg("❌ session save failed")
			}
		}

		actor := resolveActor(c, sess, users, tokens)
		c.Set(actorKey, actor)
		if actor.UserID != nil {
			c.Set(userIDKey, strconv.FormatUint(uint64(*actor.UserID), 10))
		}

		c.Next()
	}
}

func resolveActor(c *gin.Context, sess *sessions.Session, users UserLookup, tokens *auth.Tokens) auth.Actor {
	ctx := c.Request.Context()

	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") && tokens != nil {
		claims, err := tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Debug().Err(err).Msg("bearer token rejected")
			return auth.Guest()
		}
		u, err := users.FindUserByID(ctx, claims.UserID)
		if err != nil {
			return auth.Guest()
		}
		return auth.ActorFor(u)
	}

	id, ok := sess.Values[userIDKey].(uint)
	if !ok {
		return auth.Guest()
	}
	u, err := users.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		delete(sess.Values, userIDKey)
		_ = sess.Save(c.Request, c.Writer)
		return auth.Guest()
	}
	if err != nil {
		log.Error().Err(err).Uint("user_id", id).Msg("❌ session user lookup failed")
		return auth.Guest()
	}
	return auth.ActorFor(u)
}

func session(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(*sessions.Session)
	}
	return nil
}

// SessionID is the cart token of the current visitor.
func SessionID(c *gin.Context) string {
	if sess := session(c); sess != nil {
		sid, _ := sess.Values[sidKey].(string)
		return sid
	}
	return ""
}

func CurrentActor(c *gin.Context) auth.Actor {
	if v, ok := c.Get(actorKey); ok {
		return v.(auth.Actor)
	}
	return auth.Guest()
}

// Login binds the session to userID. The cart token is kept.
func Login(c *gin.Context, u *models.User) error {
	sess := session(c)
	if sess == nil {
		return errors.New("no session")
	}
	sess.Values[userIDKey] = u.ID
	c.Set(actorKey, auth.ActorFor(u))
	return sess.Save(c.Request, c.Writer)
}

// Logout forgets the user but keeps the cart token.
func Logout(c *gin.Context) error {
	sess := session(c)
	if sess == nil {
		return nil
	}
	delete(sess.Values, userIDKey)
	c.Set(actorKey, auth.Guest())
	return sess.Save(c.Request, c.Writer)
}

func Flash(c *gin.Context, category, message string) {
	sess := session(c)
	if sess == nil {
		return
	}
	sess.AddFlash(FlashMessage{Category: category, Message: message})
	if err := sess.Save(c.Request, c.Writer); err != nil {
		log.Error().Err(err).Msg("❌ flash save failed")
	}
}

// Flashes pops every pending flash message.
func Flashes(c *gin.Context) []FlashMessage {
	sess := session(c)
	if sess == nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return []FlashMessage{}
	}
	_ = sess.Save(c.Request, c.Writer)

	out := make([]FlashMessage, 0, len(raw))
	for _, f := range raw {
		if fm, ok := f.(FlashMessage); ok {
			out = append(out, fm)
		}
	}
	return out
}
