package activity

import (
	"context"
	"log/slog"
	"time"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
)

// PurchaseTracker 记录与聚合购买事件。
//
// 购买不扣减库存、不更新任何缓存计数，统计全部从事件行按需聚合。
type PurchaseTracker struct {
	store  PurchaseStore
	logger *slog.Logger
}

// NewPurchaseTracker 创建购买事件跟踪器。
func NewPurchaseTracker(store PurchaseStore, logger *slog.Logger) *PurchaseTracker {
	return &PurchaseTracker{store: store, logger: logger}
}

// RecordPurchase 插入一条购买事件。quantity 未指定（0）时默认为 1。
func (t *PurchaseTracker) RecordPurchase(ctx context.Context, userID *uint, productID uint, orderID *uint, quantity int, purchasePrice int) (*model.ProductPurchase, error) {
	if productID == 0 {
		return nil, apperr.New(apperr.Invalid, "productId là bắt buộc")
	}
	if quantity < 0 {
		return nil, apperr.New(apperr.Invalid, "quantity không hợp lệ")
	}
	if quantity == 0 {
		quantity = 1
	}

	purchase := &model.ProductPurchase{
		UserID:        userID,
		ProductID:     productID,
		OrderID:       orderID,
		Quantity:      quantity,
		PurchasePrice: purchasePrice,
		PurchasedAt:   time.Now(),
	}
	if err := t.store.CreatePurchase(ctx, purchase); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Có lỗi xảy ra khi tạo lượt mua sản phẩm", err)
	}
	return purchase, nil
}

// PurchaseCount 返回某商品所有购买事件的 quantity 之和，无记录时为 0。
func (t *PurchaseTracker) PurchaseCount(ctx context.Context, productID uint) (int64, error) {
	total, err := t.store.SumQuantity(ctx, productID)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "Có lỗi xảy ra khi lấy số lượt mua sản phẩm", err)
	}
	return total, nil
}

// AllPurchaseCounts 返回所有有购买记录的商品的 quantity 合计。
func (t *PurchaseTracker) AllPurchaseCounts(ctx context.Context) (map[uint]int64, error) {
	counts, err := t.store.SumQuantityByProduct(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Có lỗi xảy ra khi lấy tất cả số lượt mua sản phẩm", err)
	}
	return counts, nil
}
