// Package handlers exposes the shop over HTTP. Form posts answer with
// redirects and session flashes; clients sending "Accept: application/json"
// get JSON bodies instead.
package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flower_shop/internal/audit"
	"flower_shop/internal/auth"
	"flower_shop/internal/cart"
	"flower_shop/internal/catalog"
	"flower_shop/internal/checkout"
	"flower_shop/internal/middleware"
	"flower_shop/internal/models"
	"flower_shop/internal/services"
)

type OrderReader interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error)
}

type CartEvents interface {
	Subscribe(ctx context.Context, sid string) (<-chan string, func())
}

type Deps struct {
	Catalog        *catalog.Service
	Carts          *cart.Manager
	CartEvents     CartEvents
	Checkout       *checkout.Transactor
	Auth           *auth.Service
	Tokens         *auth.Tokens
	Orders         OrderReader
	Images         *services.ImageStore
	Audit          *audit.Logger
	OAuthProviders []string
}

type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	return &Handler{Deps: d}
}

type productView struct {
	models.Product
	ImageURL string `json:"image_url"`
}

func viewProduct(p *models.Product) productView {
	return productView{Product: *p, ImageURL: p.ImageURL()}
}

func viewProducts(products []models.Product) []productView {
	out := make([]productView, len(products))
	for i := range products {
		out[i] = viewProduct(&products[i])
	}
	return out
}

// finish ends a form action: JSON clients get status and body, browsers a
// 303 to location with the flash queued in their session.
func finish(c *gin.Context, status int, body gin.H, location, category, flash string) {
	if middleware.WantsJSON(c) {
		if body == nil {
			body = gin.H{}
		}
		if flash != "" {
			body["message"] = flash
		}
		c.JSON(status, body)
		return
	}
	if flash != "" {
		middleware.Flash(c, category, flash)
	}
	c.Redirect(http.StatusSeeOther, location)
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
