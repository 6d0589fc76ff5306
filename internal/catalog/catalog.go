package catalog

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
)

// Page 分页后的商品列表。
type Page struct {
	Products   []model.Product `json:"products"`
	Pagination Pagination      `json:"pagination"`
}

// Pagination 商品列表的分页信息。
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// ProductInput 创建商品的输入。
type ProductInput struct {
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     int     `json:"price"`
	Thumbnail string  `json:"thumbnail"`
	Discount  int     `json:"discount"`
	Stock     int     `json:"stock"`
	IsActive  *bool   `json:"isActive"`
	Rating    float64 `json:"rating"`
}

// ProductUpdate 部分更新商品, nil 字段不变。
type ProductUpdate struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Price     *int     `json:"price"`
	Thumbnail *string  `json:"thumbnail"`
	Discount  *int     `json:"discount"`
	Stock     *int     `json:"stock"`
	IsActive  *bool    `json:"isActive"`
	Rating    *float64 `json:"rating"`
}

// CategoryInput 创建或更新分类的输入。
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Service 实现商品与分类的增删改查和搜索筛选。
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// ListProducts 返回分页的商品列表, category 为空时不过滤分类。
func (s *Service) ListProducts(ctx context.Context, category string, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 12
	}

	products, total, err := s.store.Products(ctx, category, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	return &Page{
		Products: products,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   int(math.Ceil(float64(total) / float64(pageSize))),
			TotalItems:   total,
			ItemsPerPage: pageSize,
		},
	}, nil
}

func (s *Service) AllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.AllProducts(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return products, nil
}

func (s *Service) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	if id == 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu productId")
	}
	product, err := s.store.ProductByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if product == nil {
		return nil, apperr.New(apperr.NotFound, "Không tìm thấy sản phẩm")
	}
	return product, nil
}

// CreateProduct 创建商品, 名称与分类为必填。
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*model.Product, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || category == "" || in.Price < 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu thông tin sản phẩm")
	}
	if in.Rating < 0 || in.Rating > 5 {
		return nil, apperr.New(apperr.Invalid, "Đánh giá không hợp lệ")
	}

	product := &model.Product{
		Name:      name,
		Category:  category,
		Price:     in.Price,
		Thumbnail: in.Thumbnail,
		Discount:  in.Discount,
		Stock:     in.Stock,
		Rating:    in.Rating,
		IsActive:  true,
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	s.logger.Info("product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct 部分更新商品。
func (s *Service) UpdateProduct(ctx context.Context, id uint, in ProductUpdate) (*model.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Thumbnail != nil {
		product.Thumbnail = *in.Thumbnail
	}
	if in.Discount != nil {
		product.Discount = *in.Discount
	}
	if in.Stock != nil {
		product.Stock = *in.Stock
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			return nil, apperr.New(apperr.Invalid, "Đánh giá không hợp lệ")
		}
		product.Rating = *in.Rating
	}
	if product.Name == "" || product.Category == "" || product.Price < 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu thông tin sản phẩm")
	}

	if err := s.store.SaveProduct(ctx, product); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	if id == 0 {
		return apperr.New(apperr.Invalid, "Thiếu productId")
	}
	rows, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "Không tìm thấy sản phẩm")
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// FilterProducts 按筛选条件返回商品。
func (s *Service) FilterProducts(ctx context.Context, f Filter) ([]model.Product, error) {
	products, err := s.store.FilterProducts(ctx, f)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return products, nil
}

// ListCategories 返回全部分类。
func (s *Service) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	if id == 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu categoryId")
	}
	category, err := s.store.CategoryByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if category == nil {
		return nil, apperr.New(apperr.NotFound, "Không tìm thấy danh mục")
	}
	return category, nil
}

// CreateCategory 创建分类, 名称唯一。
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.New(apperr.Invalid, "Thiếu tên danh mục")
	}

	existing, err := s.store.CategoryByName(ctx, name)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if existing != nil {
		return nil, apperr.New(apperr.Invalid, "Danh mục đã tồn tại")
	}

	category := &model.Category{
		Name:        name,
		Description: in.Description,
		Thumbnail:   in.Thumbnail,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	s.logger.Info("category created", "category_id", category.ID, "name", category.Name)
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uint, in CategoryInput) (*model.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name != "" && name != category.Name {
		existing, err := s.store.CategoryByName(ctx, name)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
		}
		if existing != nil {
			return nil, apperr.New(apperr.Invalid, "Danh mục đã tồn tại")
		}
		category.Name = name
	}
	if in.Description != "" {
		category.Description = in.Description
	}
	if in.Thumbnail != "" {
		category.Thumbnail = in.Thumbnail
	}

	if err := s.store.SaveCategory(ctx, category); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id uint) error {
	if id == 0 {
		return apperr.New(apperr.Invalid, "Thiếu categoryId")
	}
	rows, err := s.store.DeleteCategory(ctx, id)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if rows == 0 {
		return apperr.New(apperr.NotFound, "Không tìm thấy danh mục")
	}
	return nil
}
