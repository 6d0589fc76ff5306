package recommend

import (
	"context"
	"errors"
	"fmt"

	"minishop/internal/model"

	"gorm.io/gorm"
)

// Store 推荐引擎需要的查询接口。
type Store interface {
	ProductByID(ctx context.Context, id uint) (*model.Product, error)
	// SameCategoryByPriceProximity 返回同分类上架商品, 按价格接近度优先排序。
	SameCategoryByPriceProximity(ctx context.Context, category string, refPrice int, excludeIDs []uint, limit int) ([]model.Product, error)
	// PopularOutsideCategory 返回其他分类的上架商品, 按热度排序。
	PopularOutsideCategory(ctx context.Context, category string, excludeIDs []uint, limit int) ([]model.Product, error)
	Popular(ctx context.Context, excludeIDs []uint, limit int) ([]model.Product, error)
	PopularInCategories(ctx context.Context, categories []string, excludeIDs []uint, limit int) ([]model.Product, error)
	RecentViewsByUser(ctx context.Context, userID uint, limit int) ([]model.ProductView, error)
	RecentViewsBySession(ctx context.Context, sessionID string, limit int) ([]model.ProductView, error)
	FavoritesByUser(ctx context.Context, userID uint) ([]model.Favorite, error)
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

func (s *GormStore) SameCategoryByPriceProximity(ctx context.Context, category string, refPrice int, excludeIDs []uint, limit int) ([]model.Product, error) {
	var products []model.Product
	q := s.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	// refPrice 为整数, 直接内联到排序表达式是安全的
	err := q.Order(fmt.Sprintf("ABS(price - %d) ASC", refPrice)).
		Order("view_count DESC").
		Order("rating DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (s *GormStore) PopularOutsideCategory(ctx context.Context, category string, excludeIDs []uint, limit int) ([]model.Product, error) {
	var products []model.Product
	q := s.db.WithContext(ctx).
		Where("category <> ? AND is_active = ?", category, true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	err := q.Order("view_count DESC").
		Order("rating DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (s *GormStore) Popular(ctx context.Context, excludeIDs []uint, limit int) ([]model.Product, error) {
	var products []model.Product
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	err := q.Order("view_count DESC").
		Order("rating DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (s *GormStore) PopularInCategories(ctx context.Context, categories []string, excludeIDs []uint, limit int) ([]model.Product, error) {
	var products []model.Product
	q := s.db.WithContext(ctx).
		Where("category IN ? AND is_active = ?", categories, true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	err := q.Order("view_count DESC").
		Order("rating DESC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (s *GormStore) RecentViewsByUser(ctx context.Context, userID uint, limit int) ([]model.ProductView, error) {
	var views []model.ProductView
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error
	return views, err
}

func (s *GormStore) RecentViewsBySession(ctx context.Context, sessionID string, limit int) ([]model.ProductView, error) {
	// 归并后的行同时带 session_id 和 user_id, 这里只按会话过滤,
	// 否则登录归并后同一会话的匿名请求会丢掉全部历史
	var views []model.ProductView
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("session_id = ?", sessionID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error
	return views, err
}

func (s *GormStore) FavoritesByUser(ctx context.Context, userID uint) ([]model.Favorite, error) {
	var favorites []model.Favorite
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Find(&favorites).Error
	return favorites, err
}
