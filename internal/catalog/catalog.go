// Package catalog answers product listing and lookup queries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"flower_shop/internal/models"
	"flower_shop/internal/repository"
)

const RelatedLimit = 4

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidProduct  = errors.New("invalid product")
)

type Filter struct {
	CategoryID *uint
	Query      string
}

type Store interface {
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	ListProducts(ctx context.Context, f repository.ProductFilter) ([]models.Product, error)
	RelatedProducts(ctx context.Context, p *models.Product, limit int) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateProduct(ctx context.Context, p *models.Product) error
}

// Index is an optional full-text index over product names.
type Index interface {
	Enabled() bool
	SearchIDs(ctx context.Context, query string) ([]uint, error)
	IndexProduct(ctx context.Context, p *models.Product) error
}

type Service struct {
	store Store
	index Index
}

func New(store Store, index Index) *Service {
	return &Service{store: store, index: index}
}

// List filters by category and by a case-insensitive name substring.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Product, error) {
	query := strings.TrimSpace(f.Query)
	filter := repository.ProductFilter{CategoryID: f.CategoryID}

	if query == "" {
		return s.store.ListProducts(ctx, filter)
	}

	if s.index != nil && s.index.Enabled() {
		ids, err := s.index.SearchIDs(ctx, query)
		if err == nil {
			if len(ids) == 0 {
				return []models.Product{}, nil
			}
			filter.IDs = ids
			return s.store.ListProducts(ctx, filter)
		}
		log.Warn().Err(err).Str("query", query).Msg("⚠️ search index failed, falling back to SQL")
	}

	filter.Query = query
	return s.store.ListProducts(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) Related(ctx context.Context, p *models.Product) ([]models.Product, error) {
	return s.store.RelatedProducts(ctx, p, RelatedLimit)
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// NewProduct is the admin form input.
type NewProduct struct {
	Name        string
	Price       decimal.Decimal
	CategoryID  uint
	Stock       int
	Description string
	Image       string
}

func (s *Service) Create(ctx context.Context, in NewProduct) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}

	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownCategory
		}
		return nil, err
	}

	image := in.Image
	if image == "" {
		image = models.DefaultProductImage
	}
	p := &models.Product{
		Name:        name,
		Price:       in.Price.Round(2),
		CategoryID:  in.CategoryID,
		Stock:       in.Stock,
		Description: in.Description,
		Image:       image,
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if s.index != nil && s.index.Enabled() {
		snapshot := *p
		go func() {
			if err := s.index.IndexProduct(context.Background(), &snapshot); err != nil {
				log.Warn().Err(err).Uint("product_id", snapshot.ID).Msg("⚠️ product not indexed")
			}
		}()
	}

	log.Info().Uint("product_id", p.ID).Str("name", p.Name).Msg("✅ product created")
	return p, nil
}
