package repository

import (
	"context"

	"gorm.io/gorm"

	"flower_shop/internal/models"
)

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(s.db.WithContext(ctx).Where("email = ?", email))
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(s.db.WithContext(ctx).Where("username = ?", username))
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.findUser(s.db.WithContext(ctx).Where("id = ?", id))
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

func (s *Store) findUser(q *gorm.DB) (*models.User, error) {
	var u models.User
	res := q.Limit(1).Find(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &u, nil
}
