package activity

import (
	"context"
	"testing"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
	"minishop/internal/pkg/metrics"
)

type mockFavoriteStore struct {
	productFunc func(ctx context.Context, id uint) (*model.Product, error)
	existsFunc  func(ctx context.Context, userID, productID uint) (bool, error)
	createFunc  func(ctx context.Context, fav *model.Favorite) error
	deleteFunc  func(ctx context.Context, userID, productID uint) (int64, error)
	listFunc    func(ctx context.Context, userID uint) ([]model.Favorite, error)
	createCalls int
}

func (m *mockFavoriteStore) ProductByID(ctx context.Context, id uint) (*model.Product, error) {
	if m.productFunc != nil {
		return m.productFunc(ctx, id)
	}
	return &model.Product{ID: id}, nil
}

func (m *mockFavoriteStore) FavoriteExists(ctx context.Context, userID, productID uint) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, userID, productID)
	}
	return false, nil
}

func (m *mockFavoriteStore) CreateFavorite(ctx context.Context, fav *model.Favorite) error {
	m.createCalls++
	if m.createFunc != nil {
		return m.createFunc(ctx, fav)
	}
	return nil
}

func (m *mockFavoriteStore) DeleteFavorite(ctx context.Context, userID, productID uint) (int64, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, productID)
	}
	return 0, nil
}

func (m *mockFavoriteStore) FavoritesByUser(ctx context.Context, userID uint) ([]model.Favorite, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func TestFavoritesAdd_UnknownProduct(t *testing.T) {
	metrics.InitMetrics()
	store := &mockFavoriteStore{
		productFunc: func(ctx context.Context, id uint) (*model.Product, error) { return nil, nil },
	}
	favs := NewFavorites(store, testLogger())

	_, err := favs.Add(context.Background(), 1, 404)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if store.createCalls != 0 {
		t.Fatalf("expected no insert on unknown product")
	}
}

func TestFavoritesAdd_Duplicate(t *testing.T) {
	metrics.InitMetrics()
	store := &mockFavoriteStore{
		existsFunc: func(ctx context.Context, userID, productID uint) (bool, error) { return true, nil },
	}
	favs := NewFavorites(store, testLogger())

	_, err := favs.Add(context.Background(), 1, 7)
	if !apperr.Is(err, apperr.Invalid) {
		t.Fatalf("expected Invalid for duplicate favorite, got %v", err)
	}
}

func TestFavoritesRemove_NotFound(t *testing.T) {
	metrics.InitMetrics()
	favs := NewFavorites(&mockFavoriteStore{}, testLogger())

	err := favs.Remove(context.Background(), 1, 7)
	if !apperr.Is(err, apperr.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestFavoritesList_FiltersDeletedProducts(t *testing.T) {
	metrics.InitMetrics()
	store := &mockFavoriteStore{
		listFunc: func(ctx context.Context, userID uint) ([]model.Favorite, error) {
			return []model.Favorite{
				{UserID: userID, ProductID: 7, Product: model.Product{ID: 7, Name: "còn hàng"}},
				{UserID: userID, ProductID: 8}, // 商品已被删除，Product 为零值
			}, nil
		},
	}
	favs := NewFavorites(store, testLogger())

	products, err := favs.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list favorites: %v", err)
	}
	if len(products) != 1 || products[0].ID != 7 {
		t.Fatalf("expected only existing product, got %v", products)
	}
}
