package catalog

import (
	"context"
	"errors"

	"minishop/internal/model"

	"gorm.io/gorm"
)

// Store 商品与分类的持久化接口。
type Store interface {
	Products(ctx context.Context, category string, limit, offset int) ([]model.Product, int64, error)
	AllProducts(ctx context.Context) ([]model.Product, error)
	ProductByID(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, product *model.Product) error
	SaveProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id uint) (int64, error)
	FilterProducts(ctx context.Context, f Filter) ([]model.Product, error)

	Categories(ctx context.Context) ([]model.Category, error)
	CategoryByID(ctx context.Context, id uint) (*model.Category, error)
	CategoryByName(ctx context.Context, name string) (*model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	SaveCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uint) (int64, error)
}

// Filter 商品筛选条件, 零值字段不参与过滤。
type Filter struct {
	Category     string
	PriceMin     *int
	PriceMax     *int
	DiscountMin  *int
	ViewCountMin *int
	RatingMin    *float64
	OnlyActive   bool
}

// GormStore 是基于 gorm 的 Store 实现。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Products(ctx context.Context, category string, limit, offset int) ([]model.Product, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Product{})
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error
	return products, total, err
}

func (s *GormStore) AllProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&products).Error
	return products, err
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

func (s *GormStore) CreateProduct(ctx context.Context, product *model.Product) error {
	return s.db.WithContext(ctx).Create(product).Error
}

func (s *GormStore) SaveProduct(ctx context.Context, product *model.Product) error {
	return s.db.WithContext(ctx).Save(product).Error
}

func (s *GormStore) DeleteProduct(ctx context.Context, id uint) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	return res.RowsAffected, res.Error
}

func (s *GormStore) FilterProducts(ctx context.Context, f Filter) ([]model.Product, error) {
	q := s.db.WithContext(ctx).Model(&model.Product{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.PriceMin != nil {
		q = q.Where("price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("price <= ?", *f.PriceMax)
	}
	if f.DiscountMin != nil {
		q = q.Where("discount >= ?", *f.DiscountMin)
	}
	if f.ViewCountMin != nil {
		q = q.Where("view_count >= ?", *f.ViewCountMin)
	}
	if f.RatingMin != nil {
		q = q.Where("rating >= ?", *f.RatingMin)
	}
	if f.OnlyActive {
		q = q.Where("is_active = ?", true)
	}

	var products []model.Product
	err := q.Order("created_at DESC").Find(&products).Error
	return products, err
}

func (s *GormStore) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *GormStore) CategoryByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *GormStore) CategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var category model.Category
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (s *GormStore) CreateCategory(ctx context.Context, category *model.Category) error {
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *GormStore) SaveCategory(ctx context.Context, category *model.Category) error {
	return s.db.WithContext(ctx).Save(category).Error
}

func (s *GormStore) DeleteCategory(ctx context.Context, id uint) (int64, error) {
	res := s.db.WithContext(ctx).Delete(&model.Category{}, id)
	return res.RowsAffected, res.Error
}
