package handlers

import (
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/audit"
	"flower_shop/internal/middleware"
)

// gothic reads the provider name from the query string.
func (h *Handler) withProvider(c *gin.Context) bool {
	provider := c.Param("provider")
	if !slices.Contains(h.OAuthProviders, provider) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return false
	}
	q := c.Request.URL.Query()
	q.Set("provider", provider)
	c.Request.URL.RawQuery = q.Encode()
	return true
}

// GET /auth/:provider
func (h *Handler) BeginOAuth(c *gin.Context) {
	if !h.withProvider(c) {
		return
	}
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// GET /auth/:provider/callback
func (h *Handler) OAuthCallback(c *gin.Context) {
	if !h.withProvider(c) {
		return
	}

	gu, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Warn().Err(err).Str("provider", c.Param("provider")).Msg("⚠️ OAuth callback failed")
		finish(c, http.StatusUnauthorized, gin.H{"error": "oauth failed"}, "/login", "danger", "Social login failed.")
		return
	}

	u, err := h.Auth.LoginOAuth(c.Request.Context(), gu)
	if err != nil {
		log.Error().Err(err).Str("provider", gu.Provider).Msg("❌ OAuth login")
		finish(c, http.StatusUnauthorized, gin.H{"error": "oauth failed"}, "/login", "danger", "Social login failed.")
		return
	}

	if err := middleware.Login(c, u); err != nil {
		log.Error().Err(err).Msg("❌ session save failed")
	}
	h.Audit.Record(c, &u.ID, audit.ActionUserLoginOAuth, "user", strconv.FormatUint(uint64(u.ID), 10), nil)
	finish(c, http.StatusOK, gin.H{"user": u}, "/", "success", "Logged in successfully!")
}
