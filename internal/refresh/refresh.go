// Package refresh 定时把商品的近似缓存计数(view_count 和 rating)
// 从事件表重新计算回写。浏览和评论写入时不更新计数, 读取到的
// 永远是上一次刷新的近似值。
package refresh

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"minishop/internal/pkg/metrics"

	"gorm.io/gorm"
)

// Store 刷新任务需要的批量回写接口。
type Store interface {
	RecountViews(ctx context.Context) error
	RecomputeRatings(ctx context.Context) error
}

// GormStore 用两条相关子查询 UPDATE 完成全量回写。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) RecountViews(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE products p
		SET view_count = (
			SELECT COUNT(*) FROM product_views v WHERE v.product_id = p.id
		)`).Error
}

func (s *GormStore) RecomputeRatings(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec(`
		UPDATE products p
		SET rating = COALESCE((
			SELECT AVG(c.rating) FROM product_comments c
			WHERE c.product_id = p.id AND c.is_approved = 1 AND c.rating IS NOT NULL
		), 0)`).Error
}

// Refresher 周期性执行统计回写的后台任务。
type Refresher struct {
	store    Store
	interval time.Duration
	logger   *slog.Logger
}

func NewRefresher(store Store, interval time.Duration, logger *slog.Logger) *Refresher {
	return &Refresher{store: store, interval: interval, logger: logger}
}

// Run 阻塞运行刷新循环直到 ctx 取消。启动时先刷新一次。
func (r *Refresher) Run(ctx context.Context) {
	r.logger.Info("stat refresher started", "interval", r.interval)

	r.refreshOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stat refresher stopped")
			return
		case <-ticker.C:
			r.refreshOnce(ctx)
		}
	}
}

// refreshOnce 执行一轮回写。失败只记录日志, 等待下一轮, 不重试。
func (r *Refresher) refreshOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("stat refresh panic", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	start := time.Now()
	if err := r.store.RecountViews(ctx); err != nil {
		r.logger.Error("recount views failed", "error", err)
		return
	}
	if err := r.store.RecomputeRatings(ctx); err != nil {
		r.logger.Error("recompute ratings failed", "error", err)
		return
	}
	elapsed := time.Since(start)
	metrics.StatsRefreshDuration.Observe(elapsed.Seconds())
	r.logger.Info("stats refreshed", "elapsed", elapsed)
}
