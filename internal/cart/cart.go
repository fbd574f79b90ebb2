// Package cart keeps the per-session product to quantity mapping and prices
// it against the live catalog.
package cart

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

var ErrInvalidQuantity = errors.New("quantity must be positive")

// DefaultQuantity is added when a request names no quantity.
const DefaultQuantity = 1

// SessionStore holds one cart per session token.
type SessionStore interface {
	Get(ctx context.Context, sid string) (models.Cart, error)
	Set(ctx context.Context, sid string, cart models.Cart) error
	Pop(ctx context.Context, sid string) error
}

type Catalog interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
}

// Line is one priced cart entry.
type Line struct {
	Product  *models.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type Manager struct {
	store   SessionStore
	catalog Catalog
}

func NewManager(store SessionStore, catalog Catalog) *Manager {
	return &Manager{store: store, catalog: catalog}
}

// Add increments the quantity for productID, inserting it if absent. The
// quantity must be positive and the resulting line must fit in an int.
func (m *Manager) Add(ctx context.Context, sid string, productID uint, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	cart, err := m.store.Get(ctx, sid)
	if err != nil {
		return err
	}
	current := max(cart[productID], 0)
	if quantity > math.MaxInt-current {
		return ErrInvalidQuantity
	}
	cart[productID] = current + quantity
	return m.store.Set(ctx, sid, cart)
}

// UpdateAll replaces the cart with quantities, dropping every entry that is
// not strictly positive.
func (m *Manager) UpdateAll(ctx context.Context, sid string, quantities map[uint]int) error {
	next := make(models.Cart, len(quantities))
	for id, qty := range quantities {
		if qty > 0 {
			next[id] = qty
		}
	}
	return m.store.Set(ctx, sid, next)
}

func (m *Manager) Get(ctx context.Context, sid string) (models.Cart, error) {
	return m.store.Get(ctx, sid)
}

// Materialize prices the cart with live catalog prices. Entries whose
// product no longer exists are skipped.
func (m *Manager) Materialize(ctx context.Context, sid string) ([]Line, decimal.Decimal, error) {
	cart, err := m.store.Get(ctx, sid)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return Price(ctx, m.catalog, cart)
}

// Price resolves cart against catalog in ascending product id order.
// Entries without a positive quantity are ignored.
func Price(ctx context.Context, catalog Catalog, cart models.Cart) ([]Line, decimal.Decimal, error) {
	cart = cart.Valid()
	lines := make([]Line, 0, len(cart))
	total := decimal.Zero

	for _, id := range cart.ProductIDs() {
		p, err := catalog.GetProduct(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("load product %d: %w", id, err)
		}

		qty := cart[id]
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, Line{Product: p, Quantity: qty, Subtotal: subtotal})
		total = total.Add(subtotal)
	}
	return lines, total, nil
}

func (m *Manager) Clear(ctx context.Context, sid string) error {
	return m.store.Pop(ctx, sid)
}

// Count is the number of units in the cart, orphans included.
func (m *Manager) Count(ctx context.Context, sid string) (int, error) {
	cart, err := m.store.Get(ctx, sid)
	if err != nil {
		return 0, err
	}
	return cart.Count(), nil
}
