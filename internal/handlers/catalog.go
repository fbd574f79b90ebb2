package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/catalog"
	"flower_shop/internal/middleware"
	"flower_shop/internal/repository"
)

// GET /api/products?category=&q=
func (h *Handler) ListProducts(c *gin.Context) {
	var f catalog.Filter
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category"})
			return
		}
		f.CategoryID = &id
	}
	f.Query = c.Query("q")

	products, err := h.Catalog.List(c.Request.Context(), f)
	if err != nil {
		log.Error().Err(err).Msg("❌ list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": viewProducts(products)})
}

// GET /api/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	ctx := c.Request.Context()
	p, err := h.Catalog.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Uint("product_id", id).Msg("❌ get product")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}

	related, err := h.Catalog.Related(ctx, p)
	if err != nil {
		log.Warn().Err(err).Uint("product_id", id).Msg("⚠️ related products unavailable")
	}
	c.JSON(http.StatusOK, gin.H{"product": viewProduct(p), "related": viewProducts(related)})
}

// GET /api/categories
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.Categories(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("❌ list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GET /api/session returns what every page header needs.
func (h *Handler) Session(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.Carts.Count(ctx, middleware.SessionID(c))
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ cart count unavailable")
	}
	categories, err := h.Catalog.Categories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ categories unavailable")
	}

	providers := h.OAuthProviders
	if providers == nil {
		providers = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"actor":           middleware.CurrentActor(c),
		"cart_count":      count,
		"categories":      categories,
		"flashes":         middleware.Flashes(c),
		"oauth_providers": providers,
	})
}
