package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"flower_shop/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Tx is the set of writes that must commit or roll back together.
type Tx interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	DeductStock(ctx context.Context, productID uint, quantity int) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
}

// Store is the GORM backed repository shared by every package.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside a database transaction. Any error returned by
// fn (or a panic) rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&txStore{db: gtx})
	})
}

type txStore struct {
	db *gorm.DB
}

func (t *txStore) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return getProduct(t.db.WithContext(ctx), id)
}

// DeductStock only succeeds when enough units are left.
func (t *txStore) DeductStock(ctx context.Context, productID uint, quantity int) error {
	res := t.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, quantity).
		Update("stock", gorm.Expr("stock - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (t *txStore) CreateOrder(ctx context.Context, order *models.Order) error {
	// Items are written separately by CreateOrderItems.
	return t.db.WithContext(ctx).Omit("Items").Create(order).Error
}

func (t *txStore) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Create(&items).Error
}

func getProduct(db *gorm.DB, id uint) (*models.Product, error) {
	var p models.Product
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
