package activity

import (
	"context"
	"log/slog"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
)

// Favorites 管理用户收藏的商品。
type Favorites struct {
	store  FavoriteStore
	logger *slog.Logger
}

// NewFavorites 创建收藏服务。
func NewFavorites(store FavoriteStore, logger *slog.Logger) *Favorites {
	return &Favorites{store: store, logger: logger}
}

// Add 把商品加入用户收藏。商品不存在返回 NotFound，重复收藏返回 Invalid。
func (f *Favorites) Add(ctx context.Context, userID, productID uint) (*model.Favorite, error) {
	product, err := f.store.ProductByID(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if product == nil {
		return nil, apperr.New(apperr.NotFound, "Sản phẩm không tồn tại")
	}

	exists, err := f.store.FavoriteExists(ctx, userID, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if exists {
		return nil, apperr.New(apperr.Invalid, "Sản phẩm đã tồn tại trong yêu thích")
	}

	fav := &model.Favorite{UserID: userID, ProductID: productID}
	if err := f.store.CreateFavorite(ctx, fav); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return fav, nil
}

// Remove 把商品移出用户收藏，不在收藏中返回 NotFound。
func (f *Favorites) Remove(ctx context.Context, userID, productID uint) error {
	deleted, err := f.store.DeleteFavorite(ctx, userID, productID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if deleted == 0 {
		return apperr.New(apperr.NotFound, "Không tìm thấy sản phẩm trong yêu thích")
	}
	return nil
}

// List 返回用户收藏的商品列表，已被删除的商品会被过滤掉。
func (f *Favorites) List(ctx context.Context, userID uint) ([]model.Product, error) {
	favorites, err := f.store.FavoritesByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	products := make([]model.Product, 0, len(favorites))
	for _, fav := range favorites {
		if fav.Product.ID == 0 {
			continue
		}
		products = append(products, fav.Product)
	}
	return products, nil
}

// Status 返回某商品是否已被该用户收藏。
func (f *Favorites) Status(ctx context.Context, userID, productID uint) (bool, error) {
	exists, err := f.store.FavoriteExists(ctx, userID, productID)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return exists, nil
}
