package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"flower_shop/internal/audit"
	"flower_shop/internal/catalog"
	"flower_shop/internal/middleware"
	"flower_shop/internal/models"
)

// GET /api/admin
func (h *Handler) AdminDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	products, err := h.Catalog.List(ctx, catalog.Filter{})
	if err != nil {
		log.Error().Err(err).Msg("❌ admin products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}
	orders, err := h.Orders.ListOrders(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ admin orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": viewProducts(products),
		"orders":   orders,
		"flashes":  middleware.Flashes(c),
	})
}

// POST /admin/product/new (multipart: name, price, category, stock,
// description, image)
func (h *Handler) CreateProduct(c *gin.Context) {
	const back = "/admin/product/new"
	invalid := func(msg string) {
		finish(c, http.StatusBadRequest, gin.H{"error": msg}, back, "danger", msg)
	}

	price, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("price")))
	if err != nil {
		invalid("Price must be a number.")
		return
	}
	categoryID, ok := parseID(strings.TrimSpace(c.PostForm("category")))
	if !ok {
		invalid("Please choose a category.")
		return
	}
	stock := models.DefaultProductStock
	if raw := strings.TrimSpace(c.PostForm("stock")); raw != "" {
		if stock, err = strconv.Atoi(raw); err != nil {
			invalid("Stock must be a whole number.")
			return
		}
	}

	ctx := c.Request.Context()
	image := models.DefaultProductImage
	if file, err := c.FormFile("image"); err == nil {
		if image, err = h.Images.Save(ctx, file); err != nil {
			log.Error().Err(err).Msg("❌ image upload")
			finish(c, http.StatusInternalServerError, gin.H{"error": "image upload failed"}, back, "danger", "Image upload failed.")
			return
		}
	}

	p, err := h.Catalog.Create(ctx, catalog.NewProduct{
		Name:        c.PostForm("name"),
		Price:       price,
		CategoryID:  categoryID,
		Stock:       stock,
		Description: c.PostForm("description"),
		Image:       image,
	})
	actor := middleware.CurrentActor(c)
	switch {
	case errors.Is(err, catalog.ErrUnknownCategory):
		invalid("Unknown category.")
		return
	case errors.Is(err, catalog.ErrInvalidProduct):
		invalid(err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("❌ create product")
		h.Audit.Record(c, actor.UserID, audit.ActionProductCreate, "product", "", err)
		finish(c, http.StatusInternalServerError, gin.H{"error": "could not create product"}, back, "danger", "Could not create product.")
		return
	}

	h.Audit.Record(c, actor.UserID, audit.ActionProductCreate, "product", strconv.FormatUint(uint64(p.ID), 10), nil)
	finish(c, http.StatusCreated, gin.H{"product": viewProduct(p)}, "/admin", "success", "Product added.")
}
