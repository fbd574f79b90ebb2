package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/audit"
	"flower_shop/internal/auth"
	"flower_shop/internal/middleware"
)

type registerInput struct {
	Username        string `form:"username" json:"username" binding:"required,min=3,max=20"`
	Email           string `form:"email" json:"email" binding:"required,email"`
	Password        string `form:"password" json:"password" binding:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" binding:"required,eqfield=Password"`
}

type loginInput struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

// GET /login and GET /register only report pending flashes; the forms live
// in the front end.
func (h *Handler) AuthPage(c *gin.Context) {
	if middleware.CurrentActor(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	providers := h.OAuthProviders
	if providers == nil {
		providers = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"flashes": middleware.Flashes(c), "oauth_providers": providers})
}

// POST /register
func (h *Handler) Register(c *gin.Context) {
	if middleware.CurrentActor(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var in registerInput
	if err := c.ShouldBind(&in); err != nil {
		finish(c, http.StatusBadRequest, gin.H{"error": "invalid registration form"},
			"/register", "danger", "Please check the registration form.")
		return
	}

	u, err := h.Auth.Register(c.Request.Context(), auth.Registration{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
	})
	switch {
	case errors.Is(err, auth.ErrEmailTaken):
		finish(c, http.StatusConflict, gin.H{"error": err.Error(), "redirect": "/login"},
			"/login", "warning", "This email is already registered. Please log in.")
		return
	case errors.Is(err, auth.ErrUsernameTaken):
		finish(c, http.StatusConflict, gin.H{"error": err.Error()},
			"/register", "warning", "This username is taken, please choose another one.")
		return
	case err != nil:
		log.Error().Err(err).Msg("❌ register")
		finish(c, http.StatusInternalServerError, gin.H{"error": "registration failed"},
			"/register", "danger", "Registration failed, please try again.")
		return
	}

	h.Audit.Record(c, &u.ID, audit.ActionUserRegister, "user", strconv.FormatUint(uint64(u.ID), 10), nil)
	finish(c, http.StatusCreated, gin.H{"user": u}, "/login", "success", "Account created, you can log in now!")
}

// POST /login
func (h *Handler) Login(c *gin.Context) {
	if middleware.CurrentActor(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var in loginInput
	if err := c.ShouldBind(&in); err != nil {
		finish(c, http.StatusBadRequest, gin.H{"error": "email and password are required"},
			"/login", "danger", "Please enter your email and password.")
		return
	}

	u, err := h.Auth.Login(c.Request.Context(), in.Email, in.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.Audit.Record(c, nil, audit.ActionUserLogin, "user", "", err)
		finish(c, http.StatusUnauthorized, gin.H{"error": err.Error()},
			"/login", "danger", "Invalid email or password.")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("❌ login")
		finish(c, http.StatusInternalServerError, gin.H{"error": "login failed"}, "/login", "danger", "Login failed, please try again.")
		return
	}

	if err := middleware.Login(c, u); err != nil {
		log.Error().Err(err).Msg("❌ session save failed")
	}
	h.Audit.Record(c, &u.ID, audit.ActionUserLogin, "user", strconv.FormatUint(uint64(u.ID), 10), nil)

	body := gin.H{"user": u}
	if h.Tokens != nil {
		if token, err := h.Tokens.Issue(u); err == nil {
			body["token"] = token
		} else {
			log.Warn().Err(err).Msg("⚠️ token not issued")
		}
	}
	finish(c, http.StatusOK, body, "/", "success", "Logged in successfully!")
}

// GET /logout keeps the cart.
func (h *Handler) Logout(c *gin.Context) {
	if err := middleware.Logout(c); err != nil {
		log.Error().Err(err).Msg("❌ logout")
	}
	finish(c, http.StatusOK, gin.H{"ok": true}, "/", "", "")
}

// GET /api/orders
func (h *Handler) MyOrders(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	orders, err := h.Orders.ListOrdersByUser(c.Request.Context(), *actor.UserID)
	if err != nil {
		log.Error().Err(err).Msg("❌ list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
