package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"flower_shop/internal/cart"
	"flower_shop/internal/middleware"
)

type addToCartInput struct {
	Quantity *int `form:"quantity" json:"quantity"`
}

// POST /cart/add/:id
func (h *Handler) AddToCart(c *gin.Context) {
	back := c.GetHeader("Referer")
	if back == "" {
		back = "/"
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	var in addToCartInput
	if err := c.ShouldBind(&in); err != nil {
		finish(c, http.StatusBadRequest, gin.H{"error": "invalid quantity"}, back, "danger", "Invalid quantity.")
		return
	}

	// A blank form field counts as not given.
	if raw, ok := c.GetPostForm("quantity"); ok && strings.TrimSpace(raw) == "" {
		in.Quantity = nil
	}
	quantity := cart.DefaultQuantity
	if in.Quantity != nil {
		quantity = *in.Quantity
	}

	ctx := c.Request.Context()
	sid := middleware.SessionID(c)
	if err := h.Carts.Add(ctx, sid, id, quantity); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			finish(c, http.StatusBadRequest, gin.H{"error": err.Error()}, back, "danger", "Invalid quantity.")
			return
		}
		log.Error().Err(err).Uint("product_id", id).Msg("❌ add to cart")
		finish(c, http.StatusInternalServerError, gin.H{"error": "cart unavailable"}, back, "danger", "Could not update your cart.")
		return
	}

	count, _ := h.Carts.Count(ctx, sid)
	finish(c, http.StatusOK, gin.H{"cart_count": count}, back, "success", "Added to cart!")
}

// GET /api/cart
func (h *Handler) GetCart(c *gin.Context) {
	lines, total, err := h.Carts.Materialize(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		log.Error().Err(err).Msg("❌ materialize cart")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
		return
	}
	c.JSON(http.StatusOK, cartBody(lines, total.StringFixed(2)))
}

func cartBody(lines []cart.Line, total string) gin.H {
	items := make([]gin.H, len(lines))
	count := 0
	for i, l := range lines {
		items[i] = gin.H{
			"product":  viewProduct(l.Product),
			"quantity": l.Quantity,
			"subtotal": l.Subtotal.StringFixed(2),
		}
		count += l.Quantity
	}
	return gin.H{"items": items, "total": total, "count": count}
}

type updateCartInput struct {
	Quantities map[string]int `json:"quantities"`
	Action     string         `json:"action"`
}

// POST /cart replaces the quantities of the entries already in the cart
// with the submitted qty_<productID> values. Missing or unparsable values
// keep the current quantity; zero or less removes the entry.
func (h *Handler) UpdateCart(c *gin.Context) {
	ctx := c.Request.Context()
	sid := middleware.SessionID(c)

	current, err := h.Carts.Get(ctx, sid)
	if err != nil {
		log.Error().Err(err).Msg("❌ load cart")
		finish(c, http.StatusInternalServerError, gin.H{"error": "cart unavailable"}, "/cart", "danger", "Could not update your cart.")
		return
	}

	submitted := map[string]string{}
	action := c.PostForm("action")
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var in updateCartInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		for pid, qty := range in.Quantities {
			submitted[pid] = strconv.Itoa(qty)
		}
		action = in.Action
	} else {
		for pid := range current {
			key := "qty_" + strconv.FormatUint(uint64(pid), 10)
			if v, ok := c.GetPostForm(key); ok {
				submitted[strconv.FormatUint(uint64(pid), 10)] = v
			}
		}
	}

	next := make(map[uint]int, len(current))
	for pid, qty := range current {
		next[pid] = qty
		if raw, ok := submitted[strconv.FormatUint(uint64(pid), 10)]; ok {
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				next[pid] = n
			}
		}
	}

	if err := h.Carts.UpdateAll(ctx, sid, next); err != nil {
		log.Error().Err(err).Msg("❌ update cart")
		finish(c, http.StatusInternalServerError, gin.H{"error": "cart unavailable"}, "/cart", "danger", "Could not update your cart.")
		return
	}

	location := "/cart"
	if action == "checkout" {
		location = "/checkout"
	}
	if middleware.WantsJSON(c) {
		lines, total, err := h.Carts.Materialize(ctx, sid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cart unavailable"})
			return
		}
		body := cartBody(lines, total.StringFixed(2))
		body["next"] = location
		c.JSON(http.StatusOK, body)
		return
	}
	c.Redirect(http.StatusSeeOther, location)
}
