package activity

import (
	"context"
	"errors"

	"minishop/internal/model"

	"gorm.io/gorm"
)

// ViewStore 浏览事件的持久化接口。
type ViewStore interface {
	CreateView(ctx context.Context, view *model.ProductView) error
	ViewsByUser(ctx context.Context, userID uint, limit int) ([]model.ProductView, error)
	ViewsBySession(ctx context.Context, sessionID string, limit int) ([]model.ProductView, error)
	ViewsByProduct(ctx context.Context, productID uint) ([]model.ProductView, error)
	ReassignSessionViews(ctx context.Context, userID uint, sessionID string) (int64, error)
}

// PurchaseStore 购买事件的持久化接口。
type PurchaseStore interface {
	CreatePurchase(ctx context.Context, purchase *model.ProductPurchase) error
	SumQuantity(ctx context.Context, productID uint) (int64, error)
	SumQuantityByProduct(ctx context.Context) (map[uint]int64, error)
}

// FavoriteStore 收藏关系的持久化接口。
type FavoriteStore interface {
	ProductByID(ctx context.Context, id uint) (*model.Product, error)
	FavoriteExists(ctx context.Context, userID, productID uint) (bool, error)
	CreateFavorite(ctx context.Context, fav *model.Favorite) error
	DeleteFavorite(ctx context.Context, userID, productID uint) (int64, error)
	FavoritesByUser(ctx context.Context, userID uint) ([]model.Favorite, error)
}

// GormStore 是基于 gorm 的存储实现，同时满足本包的全部 store 接口。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateView(ctx context.Context, view *model.ProductView) error {
	return s.db.WithContext(ctx).Create(view).Error
}

func (s *GormStore) ViewsByUser(ctx context.Context, userID uint, limit int) ([]model.ProductView, error) {
	var views []model.ProductView
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error
	return views, err
}

func (s *GormStore) ViewsBySession(ctx context.Context, sessionID string, limit int) ([]model.ProductView, error) {
	var views []model.ProductView
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("session_id = ?", sessionID).
		Order("viewed_at DESC").
		Limit(limit).
		Find(&views).Error
	return views, err
}

func (s *GormStore) ViewsByProduct(ctx context.Context, productID uint) ([]model.ProductView, error) {
	var views []model.ProductView
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("viewed_at DESC").
		Find(&views).Error
	return views, err
}

func (s *GormStore) ReassignSessionViews(ctx context.Context, userID uint, sessionID string) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.ProductView{}).
		Where("session_id = ? AND user_id IS NULL", sessionID).
		Update("user_id", userID)
	return res.RowsAffected, res.Error
}

func (s *GormStore) CreatePurchase(ctx context.Context, purchase *model.ProductPurchase) error {
	return s.db.WithContext(ctx).Create(purchase).Error
}

func (s *GormStore) SumQuantity(ctx context.Context, productID uint) (int64, error) {
	var total *int64
	err := s.db.WithContext(ctx).
		Model(&model.ProductPurchase{}).
		Select("SUM(quantity)").
		Where("product_id = ?", productID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

func (s *GormStore) SumQuantityByProduct(ctx context.Context) (map[uint]int64, error) {
	rows := []struct {
		ProductID uint  `gorm:"column:product_id"`
		Total     int64 `gorm:"column:total"`
	}{}
	err := s.db.WithContext(ctx).
		Model(&model.ProductPurchase{}).
		Select("product_id, SUM(quantity) AS total").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.ProductID] = row.Total
	}
	return counts, nil
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

func (s *GormStore) FavoriteExists(ctx context.Context, userID, productID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CreateFavorite(ctx context.Context, fav *model.Favorite) error {
	return s.db.WithContext(ctx).Create(fav).Error
}

func (s *GormStore) DeleteFavorite(ctx context.Context, userID, productID uint) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{})
	return res.RowsAffected, res.Error
}

func (s *GormStore) FavoritesByUser(ctx context.Context, userID uint) ([]model.Favorite, error) {
	var favorites []model.Favorite
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Find(&favorites).Error
	return favorites, err
}
