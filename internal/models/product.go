package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	DefaultProductImage = "default.jpg"
	DefaultProductStock = 10

	// UploadsURLPrefix is where locally stored images are served from.
	UploadsURLPrefix = "/static/uploads/"
)

type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"type:varchar(150);not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
	Image       string          `json:"image" gorm:"type:varchar(255);not null;default:default.jpg"`
	Stock       int             `json:"stock" gorm:"not null"`
	CategoryID  uint            `json:"category_id" gorm:"not null;index"`
	Category    *Category       `json:"category,omitempty"`
}

// ImageURL returns the image as-is when it is already an absolute link
// (seed data, MinIO objects), otherwise the local uploads path.
func (p Product) ImageURL() string {
	if strings.HasPrefix(p.Image, "http://") || strings.HasPrefix(p.Image, "https://") {
		return p.Image
	}
	image := p.Image
	if image == "" {
		image = DefaultProductImage
	}
	return UploadsURLPrefix + image
}
