package recommend

import (
	"context"
	"log/slog"
	"sort"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
	"minishop/internal/pkg/metrics"
)

// 构建分类画像时回看的浏览事件数量。
const recentViewWindow = 20

// 回看的浏览分类数量上限。
const topCategoryCount = 3

// Engine 是无状态的推荐引擎, 所有结果实时从存储查询。
type Engine struct {
	store  Store
	logger *slog.Logger
}

func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Similar 返回与指定商品相似的商品。
//
// 优先取同分类商品, 按价格接近度、浏览量、评分排序;
// 不足 limit 时用其他分类的热门商品补齐。
func (e *Engine) Similar(ctx context.Context, productID uint, limit int) ([]model.Product, error) {
	metrics.RecommendationRequestsTotal.WithLabelValues("similar").Inc()
	if productID == 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu productId")
	}
	if limit <= 0 {
		limit = 8
	}

	ref, err := e.store.ProductByID(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if ref == nil {
		return nil, apperr.New(apperr.NotFound, "Không tìm thấy sản phẩm")
	}

	// 取 limit*2 条候选, 给补齐阶段留出排除空间
	primary, err := e.store.SameCategoryByPriceProximity(ctx, ref.Category, ref.Price, []uint{productID}, limit*2)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	result := primary
	if len(result) > limit {
		result = result[:limit]
	}

	if len(result) < limit {
		exclude := make([]uint, 0, len(result)+1)
		exclude = append(exclude, productID)
		for _, p := range result {
			exclude = append(exclude, p.ID)
		}
		backfill, err := e.store.PopularOutsideCategory(ctx, ref.Category, exclude, limit-len(result))
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
		}
		result = append(result, backfill...)
	}
	return result, nil
}

// Recommended 基于用户的浏览与收藏历史返回个性化推荐。
//
// 统计最近 20 次浏览和全部收藏的分类, 取出现次数最多的 3 个分类,
// 在其中挑选用户尚未浏览或收藏的热门商品; 历史为空或结果不足时
// 回退到全局热门。
func (e *Engine) Recommended(ctx context.Context, userID *uint, limit int) ([]model.Product, error) {
	metrics.RecommendationRequestsTotal.WithLabelValues("recommended").Inc()
	if limit <= 0 {
		limit = 8
	}
	if userID == nil {
		return e.popular(ctx, limit, nil)
	}

	views, err := e.store.RecentViewsByUser(ctx, *userID, recentViewWindow)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	favorites, err := e.store.FavoritesByUser(ctx, *userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	tally := map[string]int{}
	seen := map[uint]bool{}
	for _, v := range views {
		if v.Product.ID == 0 {
			continue
		}
		tally[v.Product.Category]++
		seen[v.Product.ID] = true
	}
	for _, f := range favorites {
		if f.Product.ID == 0 {
			continue
		}
		tally[f.Product.Category]++
		seen[f.Product.ID] = true
	}

	if len(tally) == 0 {
		return e.popular(ctx, limit, nil)
	}

	categories := topCategories(tally, topCategoryCount)
	exclude := make([]uint, 0, len(seen))
	for id := range seen {
		exclude = append(exclude, id)
	}

	result, err := e.store.PopularInCategories(ctx, categories, exclude, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	if len(result) < limit {
		backExclude := append([]uint{}, exclude...)
		for _, p := range result {
			backExclude = append(backExclude, p.ID)
		}
		backfill, err := e.store.Popular(ctx, backExclude, limit-len(result))
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
		}
		result = append(result, backfill...)
	}
	return result, nil
}

// Popular 返回全局热门商品, 按浏览量与评分排序。
func (e *Engine) Popular(ctx context.Context, limit int, excludeIDs []uint) ([]model.Product, error) {
	metrics.RecommendationRequestsTotal.WithLabelValues("popular").Inc()
	if limit <= 0 {
		limit = 8
	}
	return e.popular(ctx, limit, excludeIDs)
}

func (e *Engine) popular(ctx context.Context, limit int, excludeIDs []uint) ([]model.Product, error) {
	products, err := e.store.Popular(ctx, excludeIDs, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	return products, nil
}

// RecentlyViewed 返回当前身份最近浏览的商品, 按时间倒序去重。
// 登录用户优先按用户维度查询, 匿名用户按会话维度。
func (e *Engine) RecentlyViewed(ctx context.Context, userID *uint, sessionID string, excludeProductID uint, limit int) ([]model.Product, error) {
	metrics.RecommendationRequestsTotal.WithLabelValues("recently_viewed").Inc()
	if limit <= 0 {
		limit = 8
	}
	if userID == nil && sessionID == "" {
		return []model.Product{}, nil
	}

	// 多取一行, 去掉当前商品后仍能填满 limit; 大 limit 不被窗口截断
	fetch := limit + 1
	if fetch < recentViewWindow {
		fetch = recentViewWindow
	}
	var views []model.ProductView
	var err error
	if userID != nil {
		views, err = e.store.RecentViewsByUser(ctx, *userID, fetch)
	} else {
		views, err = e.store.RecentViewsBySession(ctx, sessionID, fetch)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	result := make([]model.Product, 0, limit)
	dedup := map[uint]bool{}
	for _, v := range views {
		p := v.Product
		if p.ID == 0 || !p.IsActive || p.ID == excludeProductID || dedup[p.ID] {
			continue
		}
		dedup[p.ID] = true
		result = append(result, p)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// topCategories 取出现次数最多的 n 个分类, 次数相同时按名称升序保证稳定。
func topCategories(tally map[string]int, n int) []string {
	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if tally[names[i]] != tally[names[j]] {
			return tally[names[i]] > tally[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}
