package activity

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
	"minishop/internal/pkg/metrics"
)

// 带身份过滤时单次查询取回的浏览记录上限。
const viewFetchLimit = 50

// ViewTracker 记录与查询商品浏览事件。
//
// 匿名用户用 sessionId 标识，登录用户用 userId 标识；登录后两者可以
// 通过 MergeSessionToUser 归并。sessionId 只是尽力而为的浏览器关联键，
// 不做过期与碰撞保护，不能用于任何安全敏感的判断。
type ViewTracker struct {
	store  ViewStore
	logger *slog.Logger
}

// NewViewTracker 创建浏览事件跟踪器。
func NewViewTracker(store ViewStore, logger *slog.Logger) *ViewTracker {
	return &ViewTracker{store: store, logger: logger}
}

// RecordView 插入一条浏览事件。
//
// userID 与 sessionID 至少要有一个，否则返回 Invalid；productId 是否
// 存在不在本层校验，交给外键约束。不更新 Product.ViewCount 缓存值，
// 该值由 refresh 包定时重算。
func (t *ViewTracker) RecordView(ctx context.Context, userID *uint, productID uint, sessionID string) (*model.ProductView, error) {
	if productID == 0 {
		return nil, apperr.New(apperr.Invalid, "productId là bắt buộc")
	}
	if userID == nil && sessionID == "" {
		return nil, apperr.New(apperr.Invalid, "Thiếu userId hoặc sessionId")
	}

	view := &model.ProductView{
		UserID:    userID,
		ProductID: productID,
		SessionID: sessionID,
		ViewedAt:  time.Now(),
	}
	if err := t.store.CreateView(ctx, view); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Có lỗi xảy ra khi tạo lượt xem sản phẩm", err)
	}

	metrics.ViewsRecordedTotal.Inc()
	return view, nil
}

// ListViewedProducts 返回某个身份最近浏览过的商品，按时间倒序去重。
//
// 已登录且带 sessionID 时会额外查询 session 维度的历史（登录前的匿名
// 浏览），合并后按 productId 去重，每个商品只出现一次。
func (t *ViewTracker) ListViewedProducts(ctx context.Context, userID *uint, sessionID string, limit int) ([]model.Product, error) {
	if limit <= 0 {
		limit = viewFetchLimit
	}

	var views []model.ProductView
	var err error
	switch {
	case userID != nil:
		views, err = t.store.ViewsByUser(ctx, *userID, viewFetchLimit)
		if err == nil && sessionID != "" {
			var sessionViews []model.ProductView
			sessionViews, err = t.store.ViewsBySession(ctx, sessionID, viewFetchLimit)
			views = append(views, sessionViews...)
		}
	case sessionID != "":
		views, err = t.store.ViewsBySession(ctx, sessionID, viewFetchLimit)
	default:
		return []model.Product{}, nil
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server khi lấy danh sách sản phẩm đã xem", err)
	}

	sort.SliceStable(views, func(i, j int) bool {
		return views[i].ViewedAt.After(views[j].ViewedAt)
	})

	seen := make(map[uint]bool)
	products := make([]model.Product, 0, len(views))
	for _, view := range views {
		if view.Product.ID == 0 || seen[view.Product.ID] {
			continue
		}
		seen[view.Product.ID] = true
		products = append(products, view.Product)
		if len(products) >= limit {
			break
		}
	}
	return products, nil
}

// MergeSessionToUser 把 session 维度的浏览历史归并到用户名下。
//
// 只更新 user_id 仍为 NULL 的记录，因此重复归并是幂等的：第二次调用
// 返回 0。返回实际更新的行数。
func (t *ViewTracker) MergeSessionToUser(ctx context.Context, userID uint, sessionID string) (int64, error) {
	if userID == 0 || sessionID == "" {
		return 0, apperr.New(apperr.Invalid, "userId và sessionId là bắt buộc")
	}

	updated, err := t.store.ReassignSessionViews(ctx, userID, sessionID)
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "Có lỗi xảy ra khi merge dữ liệu session", err)
	}

	metrics.SessionMergesTotal.Inc()
	metrics.MergedViewsTotal.Add(float64(updated))
	t.logger.Info("session views merged",
		slog.Uint64("user_id", uint64(userID)),
		slog.String("session_id", sessionID),
		slog.Int64("updated", updated),
	)
	return updated, nil
}

// ViewsByProduct 返回某个商品的全部浏览记录（管理用途）。
func (t *ViewTracker) ViewsByProduct(ctx context.Context, productID uint) ([]model.ProductView, error) {
	views, err := t.store.ViewsByProduct(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Có lỗi xảy ra khi lấy lượt xem sản phẩm", err)
	}
	return views, nil
}
