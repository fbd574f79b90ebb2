package repository

import (
	"context"
	"strings"

	"flower_shop/internal/models"
)

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID *uint
	Query      string
	IDs        []uint
}

func (s *Store) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return getProduct(s.db.WithContext(ctx), id)
}

func (s *Store) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Query != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(f.Query)+"%")
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}

	var products []models.Product
	err := q.Order("id asc").Find(&products).Error
	return products, err
}

// RelatedProducts returns up to limit products sharing p's category.
func (s *Store) RelatedProducts(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("category_id = ? AND id <> ?", p.CategoryID, p.ID).
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	return s.db.WithContext(ctx).Omit("Category").Create(p).Error
}

func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.db.WithContext(ctx).Order("id asc").Find(&categories).Error
	return categories, err
}

func (s *Store) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	res := s.db.WithContext(ctx).Limit(1).Find(&c, id)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &c, nil
}

// FirstOrCreateCategory is used by the seed command.
func (s *Store) FirstOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	c := models.Category{}
	err := s.db.WithContext(ctx).Where(models.Category{Name: name}).FirstOrCreate(&c).Error
	return &c, err
}
