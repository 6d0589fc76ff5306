package comment

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
)

// Entry 是返回给前端的单条评论。
type Entry struct {
	ID           uint     `json:"id"`
	Comment      string   `json:"comment"`
	Rating       *float64 `json:"rating"`
	CreatedAt    string   `json:"createdAt"`
	User         UserInfo `json:"user"`
	HasPurchased bool     `json:"hasPurchased"`
}

// UserInfo 评论作者的公开信息。
type UserInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Pagination 评论列表的分页信息。
type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalItems   int64 `json:"totalItems"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// Page 分页后的评论列表。
type Page struct {
	Comments   []Entry    `json:"comments"`
	Pagination Pagination `json:"pagination"`
}

// Stats 单个商品的互动统计汇总。
type Stats struct {
	ProductID      uint    `json:"productId"`
	TotalPurchases int64   `json:"totalPurchases"`
	TotalComments  int64   `json:"totalComments"`
	TotalViews     int64   `json:"totalViews"`
	AverageRating  float64 `json:"averageRating"`
}

// Service 实现评论的增删查与商品统计。
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Add 为商品创建一条评论。评分可选, 范围 [0,5]。
func (s *Service) Add(ctx context.Context, userID, productID uint, text string, rating *float64) (*Entry, error) {
	text = strings.TrimSpace(text)
	if productID == 0 || text == "" {
		return nil, apperr.New(apperr.Invalid, "Thiếu thông tin bình luận")
	}
	if rating != nil && (*rating < 0 || *rating > 5) {
		return nil, apperr.New(apperr.Invalid, "Đánh giá không hợp lệ")
	}

	product, err := s.store.ProductByID(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if product == nil {
		return nil, apperr.New(apperr.NotFound, "Không tìm thấy sản phẩm")
	}

	comment := &model.ProductComment{
		UserID:     userID,
		ProductID:  productID,
		Comment:    text,
		Rating:     rating,
		IsApproved: true,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	purchased, err := s.store.HasPurchased(ctx, userID, productID)
	if err != nil {
		s.logger.Warn("check purchase failed", "user_id", userID, "product_id", productID, "error", err)
		purchased = false
	}

	s.logger.Info("comment created", "comment_id", comment.ID, "user_id", userID, "product_id", productID)
	return &Entry{
		ID:           comment.ID,
		Comment:      comment.Comment,
		Rating:       comment.Rating,
		CreatedAt:    comment.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		HasPurchased: purchased,
	}, nil
}

// List 返回商品的已审核评论, 按创建时间倒序分页。
func (s *Service) List(ctx context.Context, productID uint, page, pageSize int) (*Page, error) {
	if productID == 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu productId")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	total, err := s.store.CountApprovedComments(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	comments, err := s.store.ApprovedComments(ctx, productID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	entries := make([]Entry, 0, len(comments))
	for _, c := range comments {
		purchased, err := s.store.HasPurchased(ctx, c.UserID, productID)
		if err != nil {
			s.logger.Warn("check purchase failed", "user_id", c.UserID, "product_id", productID, "error", err)
			purchased = false
		}
		entries = append(entries, Entry{
			ID:        c.ID,
			Comment:   c.Comment,
			Rating:    c.Rating,
			CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			User: UserInfo{
				ID:    c.User.ID,
				Name:  c.User.Name,
				Email: c.User.Email,
			},
			HasPurchased: purchased,
		})
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return &Page{
		Comments: entries,
		Pagination: Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages,
			TotalItems:   total,
			ItemsPerPage: pageSize,
		},
	}, nil
}

// Delete 删除评论。仅评论作者或管理员可以删除。
func (s *Service) Delete(ctx context.Context, commentID, userID uint, role string) error {
	if commentID == 0 {
		return apperr.New(apperr.Invalid, "Thiếu commentId")
	}

	comment, err := s.store.CommentByID(ctx, commentID)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if comment == nil {
		return apperr.New(apperr.NotFound, "Không tìm thấy bình luận")
	}
	if comment.UserID != userID && role != "admin" {
		return apperr.New(apperr.Forbidden, "Bạn không có quyền xóa bình luận này")
	}

	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	s.logger.Info("comment deleted", "comment_id", commentID, "by_user", userID, "role", role)
	return nil
}

// ProductStats 汇总商品的购买数, 评论数, 浏览数与平均评分。
// 浏览数优先取商品缓存的 view_count, 为 0 时回退到浏览明细计数。
func (s *Service) ProductStats(ctx context.Context, productID uint) (*Stats, error) {
	if productID == 0 {
		return nil, apperr.New(apperr.Invalid, "Thiếu productId")
	}

	product, err := s.store.ProductByID(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	if product == nil {
		return nil, apperr.New(apperr.NotFound, "Không tìm thấy sản phẩm")
	}

	purchases, err := s.store.CountPurchases(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}
	comments, err := s.store.CountApprovedComments(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	views := int64(product.ViewCount)
	if views == 0 {
		views, err = s.store.CountViews(ctx, productID)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
		}
	}

	avg, err := s.store.AverageApprovedRating(ctx, productID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Lỗi server", err)
	}

	return &Stats{
		ProductID:      productID,
		TotalPurchases: purchases,
		TotalComments:  comments,
		TotalViews:     views,
		AverageRating:  math.Round(avg*10) / 10,
	}, nil
}
