package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/checkout"
	"flower_shop/internal/middleware"
)

type checkoutInput struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Phone   string `form:"phone" json:"phone" binding:"required"`
	Address string `form:"address" json:"address" binding:"required"`
}

func (in *checkoutInput) trim() bool {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	return in.Name != "" && in.Phone != "" && in.Address != ""
}

// GET /api/checkout
func (h *Handler) CheckoutForm(c *gin.Context) {
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)

	contents, err := h.Carts.Get(ctx, sid)
	if err != nil {
		log.Error().Err(err).Msg("❌ load cart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}
	if len(contents) == 0 {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	lines, total, err := h.Carts.Materialize(ctx, sid)
	if err != nil {
		log.Error().Err(err).Msg("❌ materialize cart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}

	prefill := gin.H{"name": "", "phone": "", "address": ""}
	if actor := middleware.CurrentActor(c); actor.Authenticated() {
		prefill["name"] = actor.Username
	}

	body := cartBody(lines, total.StringFixed(2))
	body["form"] = prefill
	body["flashes"] = middleware.Flashes(c)
	c.JSON(http.StatusOK, body)
}

// POST /checkout. Only the shipping fields are read from the request; the
// total is always recomputed from live prices.
func (h *Handler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)

	contents, err := h.Carts.Get(ctx, sid)
	if err != nil {
		log.Error().Err(err).Msg("❌ load cart")
		finish(c, http.StatusInternalServerError, gin.H{"error": "order failed"}, "/checkout", "danger", "Order failed, please try again.")
		return
	}
	if len(contents) == 0 {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var in checkoutInput
	if err := c.ShouldBind(&in); err != nil || !in.trim() {
		finish(c, http.StatusBadRequest, gin.H{"error": "name, phone and address are required"},
			"/checkout", "danger", "Please fill in your name, phone and address.")
		return
	}

	actor := middleware.CurrentActor(c)
	order, err := h.Deps.Checkout.Checkout(ctx, checkout.Request{
		SessionID: sid,
		Shipping:  checkout.Shipping{Name: in.Name, Phone: in.Phone, Address: in.Address},
		UserID:    actor.UserID,
		ClientIP:  c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})

	var stockErr *checkout.StockError
	switch {
	case err == nil:
		finish(c, http.StatusCreated, gin.H{"order": order}, "/", "success", "Order placed! We will contact you soon.")
	case errors.Is(err, checkout.ErrEmptyCart):
		c.Redirect(http.StatusSeeOther, "/")
	case errors.As(err, &stockErr):
		msg := fmt.Sprintf("Sorry, there is not enough stock left for %s.", stockErr.Name)
		finish(c, http.StatusConflict, gin.H{"error": "insufficient stock", "product_id": stockErr.ProductID},
			"/checkout", "danger", msg)
	default:
		log.Error().Err(err).Str("sid", sid).Msg("❌ checkout failed")
		finish(c, http.StatusInternalServerError, gin.H{"error": "order failed"}, "/checkout", "danger", "Order failed, please try again.")
	}
}
