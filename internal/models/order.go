package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusCompleted OrderStatus = "Completed"
)

// Order is written once at checkout; only Status may change afterwards.
type Order struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	UserID          *uint           `json:"user_id,omitempty" gorm:"index"`
	CustomerName    string          `json:"customer_name" gorm:"type:varchar(150);not null"`
	CustomerPhone   string          `json:"customer_phone" gorm:"type:varchar(20);not null"`
	CustomerAddress string          `json:"customer_address" gorm:"type:text;not null"`
	TotalPrice      decimal.Decimal `json:"total_price" gorm:"type:decimal(12,2);not null"`
	Status          OrderStatus     `json:"status" gorm:"type:varchar(50);not null;default:Pending"`
	DateOrdered     time.Time       `json:"date_ordered" gorm:"not null;index"`
	Items           []OrderItem     `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

type OrderItem struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	OrderID         uint            `json:"order_id" gorm:"not null;index"`
	ProductID       uint            `json:"product_id" gorm:"not null;index"`
	Quantity        int             `json:"quantity" gorm:"not null"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" gorm:"type:decimal(12,2);not null"`
}

// Subtotal is quantity times the snapshotted price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
