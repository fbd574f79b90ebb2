// Package checkout turns a session cart into a persisted order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"flower_shop/internal/cart"
	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = repository.ErrInsufficientStock
)

// StockError names the product that ran out.
type StockError struct {
	ProductID uint
	Name      string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q", e.Name)
}

func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type Store interface {
	Transaction(ctx context.Context, fn func(tx repository.Tx) error) error
}

type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
}

type Notifier interface {
	NotifyOrder(ctx context.Context, order *models.Order) error
}

type Auditor interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, ids ...uint)
}

type Shipping struct {
	Name    string
	Phone   string
	Address string
}

type Request struct {
	SessionID string
	Shipping  Shipping
	UserID    *uint
	ClientIP  string
	UserAgent string
}

type Transactor struct {
	store Store
	carts cart.SessionStore

	publisher Publisher
	notifier  Notifier
	auditor   Auditor
	products  CacheInvalidator

	now           func() time.Time
	sideEffectTTL time.Duration
	pending       sync.WaitGroup
}

type Option func(*Transactor)

func WithPublisher(p Publisher) Option { return func(t *Transactor) { t.publisher = p } }

func WithNotifier(n Notifier) Option { return func(t *Transactor) { t.notifier = n } }

func WithAuditor(a Auditor) Option { return func(t *Transactor) { t.auditor = a } }

func WithProductCache(c CacheInvalidator) Option { return func(t *Transactor) { t.products = c } }

func WithClock(now func() time.Time) Option { return func(t *Transactor) { t.now = now } }

func NewTransactor(store Store, carts cart.SessionStore, opts ...Option) *Transactor {
	t := &Transactor{
		store:         store,
		carts:         carts,
		now:           time.Now,
		sideEffectTTL: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Checkout prices the session cart from live product rows, writes the order
// header, its items and the stock deductions in one transaction, then clears
// the cart. On any failure nothing is written and the cart is left as is.
func (t *Transactor) Checkout(ctx context.Context, req Request) (*models.Order, error) {
	stored, err := t.carts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	contents := stored.Valid()
	if len(contents) < len(stored) {
		log.Warn().Str("sid", req.SessionID).Int("dropped", len(stored)-len(contents)).
			Msg("⚠️ cart entries without a positive quantity ignored")
	}
	if len(contents) == 0 {
		return nil, ErrEmptyCart
	}

	var order *models.Order
	err = t.store.Transaction(ctx, func(tx repository.Tx) error {
		items := make([]models.OrderItem, 0, len(contents))
		total := decimal.Zero

		for _, id := range contents.ProductIDs() {
			p, err := tx.GetProduct(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			if err != nil {
				return fmt.Errorf("load product %d: %w", id, err)
			}

			qty := contents[id]
			if err := tx.DeductStock(ctx, id, qty); err != nil {
				if errors.Is(err, repository.ErrInsufficientStock) {
					return &StockError{ProductID: id, Name: p.Name}
				}
				return fmt.Errorf("deduct stock %d: %w", id, err)
			}

			item := models.OrderItem{ProductID: p.ID, Quantity: qty, PriceAtPurchase: p.Price}
			items = append(items, item)
			total = total.Add(item.Subtotal())
		}

		if len(items) == 0 {
			return ErrEmptyCart
		}

		o := &models.Order{
			UserID:          req.UserID,
			CustomerName:    req.Shipping.Name,
			CustomerPhone:   req.Shipping.Phone,
			CustomerAddress: req.Shipping.Address,
			TotalPrice:      total,
			Status:          models.OrderStatusPending,
			DateOrdered:     t.now().UTC(),
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		o.Items = items
		order = o
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEmptyCart) {
			t.audit(req, nil, err)
		}
		return nil, err
	}

	if err := t.carts.Pop(ctx, req.SessionID); err != nil {
		log.Error().Err(err).Uint("order_id", order.ID).Msg("❌ order saved but cart not cleared")
	}

	t.afterCommit(req, order)
	return order, nil
}

// Wait blocks until every post-commit side effect has finished.
func (t *Transactor) Wait() {
	t.pending.Wait()
}

func (t *Transactor) afterCommit(req Request, order *models.Order) {
	ids := make([]uint, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ProductID
	}
	snapshot := *order

	t.async(func(ctx context.Context) {
		if t.products != nil {
			t.products.Invalidate(ctx, ids...)
		}
	})
	if t.publisher != nil {
		t.async(func(ctx context.Context) {
			if err := t.publisher.PublishOrderCreated(ctx, &snapshot); err != nil {
				log.Warn().Err(err).Uint("order_id", snapshot.ID).Msg("⚠️ order event not published")
			}
		})
	}
	if t.notifier != nil {
		t.async(func(ctx context.Context) {
			if err := t.notifier.NotifyOrder(ctx, &snapshot); err != nil {
				log.Warn().Err(err).Uint("order_id", snapshot.ID).Msg("⚠️ order email not sent")
			}
		})
	}
	t.audit(req, &snapshot, nil)

	log.Info().
		Uint("order_id", order.ID).
		Str("total", order.TotalPrice.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("✅ order created")
}

func (t *Transactor) audit(req Request, order *models.Order, failure error) {
	if t.auditor == nil {
		return
	}

	entry := models.AuditLog{
		UserID:    "guest",
		Action:    "order.create",
		Resource:  "order",
		IPAddress: req.ClientIP,
		UserAgent: req.UserAgent,
		Success:   failure == nil,
		Timestamp: t.now().UTC(),
	}
	if req.UserID != nil {
		entry.UserID = strconv.FormatUint(uint64(*req.UserID), 10)
	}
	if order != nil {
		entry.ResourceID = strconv.FormatUint(uint64(order.ID), 10)
		entry.NewValue = order.TotalPrice.StringFixed(2)
	}
	if failure != nil {
		entry.ErrorMsg = failure.Error()
	}

	t.async(func(ctx context.Context) {
		if err := t.auditor.Log(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("⚠️ audit log write failed")
		}
	})
}

func (t *Transactor) async(fn func(ctx context.Context)) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.sideEffectTTL)
		defer cancel()
		fn(ctx)
	}()
}
