// Package seed fills an empty database with an admin account and a small
// demo catalog.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"flower_shop/internal/auth"
	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin123"
	adminUsername = "AdminBoss"
	demoStock     = 20
)

var categories = []string{
	"Love Bouquets",
	"Birthday Flowers",
	"Grand Opening Stands",
	"Wedding Flowers",
	"Phalaenopsis Orchids",
}

var products = []struct {
	name     string
	price    int64
	category int
	image    string
}{
	{"Crimson Rose Bouquet", 500000, 0, "https://placehold.co/400x400/ffadad/white?text=Red+Rose"},
	{"Sunflower Basket", 350000, 1, "https://placehold.co/400x400/ffd6a5/white?text=Sunflower"},
	{"Congratulations Stand", 1200000, 2, "https://placehold.co/400x400/fdffb6/black?text=Congrats"},
	{"White Baby's Breath", 450000, 0, "https://placehold.co/400x400/caffbf/black?text=Baby+White"},
	{"Golden Orchid", 2500000, 4, "https://placehold.co/400x400/9bf6ff/black?text=Gold+Orchid"},
	{"Bridal Bouquet", 800000, 3, "https://placehold.co/400x400/a0c4ff/white?text=Bridal"},
}

type Result struct {
	AdminCreated    bool
	ProductsCreated int
}

type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	FirstOrCreateCategory(ctx context.Context, name string) (*models.Category, error)
	CountProducts(ctx context.Context) (int64, error)
	CreateProduct(ctx context.Context, p *models.Product) error
}

// Run is idempotent: existing admin, categories and products are left alone.
func Run(ctx context.Context, store Store) (Result, error) {
	var res Result

	_, err := store.FindUserByEmail(ctx, AdminEmail)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		hash, err := auth.HashPassword(AdminPassword)
		if err != nil {
			return res, err
		}
		admin := &models.User{
			Username: adminUsername,
			Email:    AdminEmail,
			Password: hash,
			IsAdmin:  true,
			Provider: models.ProviderLocal,
		}
		if err := store.CreateUser(ctx, admin); err != nil {
			return res, fmt.Errorf("create admin: %w", err)
		}
		res.AdminCreated = true
		log.Info().Str("email", AdminEmail).Msg("✅ admin created")
	case err != nil:
		return res, err
	}

	cats := make([]*models.Category, len(categories))
	for i, name := range categories {
		c, err := store.FirstOrCreateCategory(ctx, name)
		if err != nil {
			return res, fmt.Errorf("category %q: %w", name, err)
		}
		cats[i] = c
	}

	n, err := store.CountProducts(ctx)
	if err != nil {
		return res, err
	}
	if n > 0 {
		log.Info().Int64("products", n).Msg("products already exist")
		return res, nil
	}

	for _, p := range products {
		prod := &models.Product{
			Name:        p.name,
			Price:       decimal.NewFromInt(p.price),
			Description: "A modern arrangement for special occasions.",
			Image:       p.image,
			Stock:       demoStock,
			CategoryID:  cats[p.category].ID,
		}
		if err := store.CreateProduct(ctx, prod); err != nil {
			return res, fmt.Errorf("product %q: %w", p.name, err)
		}
		res.ProductsCreated++
	}
	log.Info().Int("products", res.ProductsCreated).Msg("✅ demo products seeded")
	return res, nil
}
