package comment

import (
	"context"
	"errors"

	"minishop/internal/model"

	"gorm.io/gorm"
)

// Store 评论与统计相关的持久化接口。
type Store interface {
	ProductByID(ctx context.Context, id uint) (*model.Product, error)
	CreateComment(ctx context.Context, comment *model.ProductComment) error
	CommentByID(ctx context.Context, id uint) (*model.ProductComment, error)
	DeleteComment(ctx context.Context, id uint) error
	ApprovedComments(ctx context.Context, productID uint, limit, offset int) ([]model.ProductComment, error)
	CountApprovedComments(ctx context.Context, productID uint) (int64, error)
	CountPurchases(ctx context.Context, productID uint) (int64, error)
	CountViews(ctx context.Context, productID uint) (int64, error)
	AverageApprovedRating(ctx context.Context, productID uint) (float64, error)
	HasPurchased(ctx context.Context, userID, productID uint) (bool, error)
}

// GormStore 是基于 gorm 的 Store 实现。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ProductByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := s.db.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *GormStore) CreateComment(ctx context.Context, comment *model.ProductComment) error {
	return s.db.WithContext(ctx).Create(comment).Error
}

func (s *GormStore) CommentByID(ctx context.Context, id uint) (*model.ProductComment, error) {
	var comment model.ProductComment
	err := s.db.WithContext(ctx).First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *GormStore) DeleteComment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&model.ProductComment{}, id).Error
}

func (s *GormStore) ApprovedComments(ctx context.Context, productID uint, limit, offset int) ([]model.ProductComment, error) {
	var comments []model.ProductComment
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ? AND is_approved = ?", productID, true).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	return comments, err
}

func (s *GormStore) CountApprovedComments(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductComment{}).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CountPurchases(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductPurchase{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) CountViews(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductView{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (s *GormStore) AverageApprovedRating(ctx context.Context, productID uint) (float64, error) {
	var avg *float64
	err := s.db.WithContext(ctx).
		Model(&model.ProductComment{}).
		Select("AVG(rating)").
		Where("product_id = ? AND is_approved = ? AND rating IS NOT NULL", productID, true).
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

func (s *GormStore) HasPurchased(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductPurchase{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}
