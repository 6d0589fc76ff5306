package comment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"minishop/internal/model"
	"minishop/internal/pkg/apperr"
)

type mockStore struct {
	productByID           func(ctx context.Context, id uint) (*model.Product, error)
	createComment         func(ctx context.Context, comment *model.ProductComment) error
	commentByID           func(ctx context.Context, id uint) (*model.ProductComment, error)
	deleteComment         func(ctx context.Context, id uint) error
	approvedComments      func(ctx context.Context, productID uint, limit, offset int) ([]model.ProductComment, error)
	countApprovedComments func(ctx context.Context, productID uint) (int64, error)
	countPurchases        func(ctx context.Context, productID uint) (int64, error)
	countViews            func(ctx context.Context, productID uint) (int64, error)
	averageRating         func(ctx context.Context, productID uint) (float64, error)
	hasPurchased          func(ctx context.Context, userID, productID uint) (bool, error)

	deleted []uint
}

func (m *mockStore) ProductByID(ctx context.Context, id uint) (*model.Product, error) {
	return m.productByID(ctx, id)
}

func (m *mockStore) CreateComment(ctx context.Context, comment *model.ProductComment) error {
	return m.createComment(ctx, comment)
}

func (m *mockStore) CommentByID(ctx context.Context, id uint) (*model.ProductComment, error) {
	return m.commentByID(ctx, id)
}

func (m *mockStore) DeleteComment(ctx context.Context, id uint) error {
	m.deleted = append(m.deleted, id)
	if m.deleteComment != nil {
		return m.deleteComment(ctx, id)
	}
	return nil
}

func (m *mockStore) ApprovedComments(ctx context.Context, productID uint, limit, offset int) ([]model.ProductComment, error) {
	return m.approvedComments(ctx, productID, limit, offset)
}

func (m *mockStore) CountApprovedComments(ctx context.Context, productID uint) (int64, error) {
	return m.countApprovedComments(ctx, productID)
}

func (m *mockStore) CountPurchases(ctx context.Context, productID uint) (int64, error) {
	return m.countPurchases(ctx, productID)
}

func (m *mockStore) CountViews(ctx context.Context, productID uint) (int64, error) {
	return m.countViews(ctx, productID)
}

func (m *mockStore) AverageApprovedRating(ctx context.Context, productID uint) (float64, error) {
	return m.averageRating(ctx, productID)
}

func (m *mockStore) HasPurchased(ctx context.Context, userID, productID uint) (bool, error) {
	return m.hasPurchased(ctx, userID, productID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ratingPtr(v float64) *float64 { return &v }

func TestAdd_RejectsEmptyComment(t *testing.T) {
	svc := NewService(&mockStore{}, testLogger())

	_, err := svc.Add(context.Background(), 1, 2, "   ", nil)
	if apperr.KindOf(err) != apperr.Invalid {
		t.Fatalf("expected Invalid, got %v", err)
	}
}

func TestAdd_RejectsOutOfRangeRating(t *testing.T) {
	svc := NewService(&mockStore{}, testLogger())

	for _, bad := range []float64{-0.5, 5.5} {
		_, err := svc.Add(context.Background(), 1, 2, "ok lắm", ratingPtr(bad))
		if apperr.KindOf(err) != apperr.Invalid {
			t.Fatalf("rating %v: expected Invalid, got %v", bad, err)
		}
	}
}

func TestAdd_UnknownProduct(t *testing.T) {
	store := &mockStore{
		productByID: func(ctx context.Context, id uint) (*model.Product, error) {
			return nil, nil
		},
	}
	svc := NewService(store, testLogger())

	_, err := svc.Add(context.Background(), 1, 99, "tốt", nil)
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestAdd_CreatesComment(t *testing.T) {
	var created *model.ProductComment
	store := &mockStore{
		productByID: func(ctx context.Context, id uint) (*model.Product, error) {
			return &model.Product{ID: id}, nil
		},
		createComment: func(ctx context.Context, comment *model.ProductComment) error {
			comment.ID = 7
			comment.CreatedAt = time.Now()
			created = comment
			return nil
		},
		hasPurchased: func(ctx context.Context, userID, productID uint) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(store, testLogger())

	entry, err := svc.Add(context.Background(), 3, 5, "  Sản phẩm rất tốt  ", ratingPtr(4.5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil || created.Comment != "Sản phẩm rất tốt" {
		t.Fatalf("expected trimmed comment to be stored, got %+v", created)
	}
	if !created.IsApproved {
		t.Fatal("expected comment to be auto approved")
	}
	if entry.ID != 7 || !entry.HasPurchased {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestList_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	store := &mockStore{
		countApprovedComments: func(ctx context.Context, productID uint) (int64, error) {
			return 25, nil
		},
		approvedComments: func(ctx context.Context, productID uint, limit, offset int) ([]model.ProductComment, error) {
			gotLimit, gotOffset = limit, offset
			return []model.ProductComment{
				{ID: 1, UserID: 2, Comment: "ok", CreatedAt: time.Now(), User: model.User{ID: 2, Name: "An"}},
			}, nil
		},
		hasPurchased: func(ctx context.Context, userID, productID uint) (bool, error) {
			return false, nil
		},
	}
	svc := NewService(store, testLogger())

	page, err := svc.List(context.Background(), 1, 3, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 10 || gotOffset != 20 {
		t.Fatalf("expected limit=10 offset=20, got %d/%d", gotLimit, gotOffset)
	}
	p := page.Pagination
	if p.CurrentPage != 3 || p.TotalPages != 3 || p.TotalItems != 25 || p.ItemsPerPage != 10 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if len(page.Comments) != 1 || page.Comments[0].User.Name != "An" {
		t.Fatalf("unexpected comments: %+v", page.Comments)
	}
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	newStore := func() *mockStore {
		return &mockStore{
			commentByID: func(ctx context.Context, id uint) (*model.ProductComment, error) {
				return &model.ProductComment{ID: id, UserID: 10}, nil
			},
		}
	}

	// 非作者且非管理员
	store := newStore()
	svc := NewService(store, testLogger())
	err := svc.Delete(context.Background(), 1, 11, "user")
	if apperr.KindOf(err) != apperr.Forbidden {
		t.Fatalf("expected Forbidden, got %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatal("comment should not be deleted")
	}

	// 作者本人
	store = newStore()
	svc = NewService(store, testLogger())
	if err := svc.Delete(context.Background(), 1, 10, "user"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}

	// 管理员
	store = newStore()
	svc = NewService(store, testLogger())
	if err := svc.Delete(context.Background(), 1, 11, "admin"); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatal("expected delete to reach the store")
	}
}

func TestDelete_UnknownComment(t *testing.T) {
	store := &mockStore{
		commentByID: func(ctx context.Context, id uint) (*model.ProductComment, error) {
			return nil, nil
		},
	}
	svc := NewService(store, testLogger())

	err := svc.Delete(context.Background(), 1, 1, "admin")
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestProductStats_ViewCountPrecedence(t *testing.T) {
	countViewsCalled := 0
	store := &mockStore{
		productByID: func(ctx context.Context, id uint) (*model.Product, error) {
			return &model.Product{ID: id, ViewCount: 42}, nil
		},
		countPurchases: func(ctx context.Context, productID uint) (int64, error) {
			return 3, nil
		},
		countApprovedComments: func(ctx context.Context, productID uint) (int64, error) {
			return 2, nil
		},
		countViews: func(ctx context.Context, productID uint) (int64, error) {
			countViewsCalled++
			return 999, nil
		},
		averageRating: func(ctx context.Context, productID uint) (float64, error) {
			return 4.4444, nil
		},
	}
	svc := NewService(store, testLogger())

	stats, err := svc.ProductStats(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalViews != 42 {
		t.Fatalf("expected cached view count 42, got %d", stats.TotalViews)
	}
	if countViewsCalled != 0 {
		t.Fatal("should not count view rows when cached counter is set")
	}
	if stats.AverageRating != 4.4 {
		t.Fatalf("expected rating rounded to 4.4, got %v", stats.AverageRating)
	}
}

func TestProductStats_FallsBackToCountedViews(t *testing.T) {
	store := &mockStore{
		productByID: func(ctx context.Context, id uint) (*model.Product, error) {
			return &model.Product{ID: id, ViewCount: 0}, nil
		},
		countPurchases: func(ctx context.Context, productID uint) (int64, error) {
			return 0, nil
		},
		countApprovedComments: func(ctx context.Context, productID uint) (int64, error) {
			return 0, nil
		},
		countViews: func(ctx context.Context, productID uint) (int64, error) {
			return 17, nil
		},
		averageRating: func(ctx context.Context, productID uint) (float64, error) {
			return 0, nil
		},
	}
	svc := NewService(store, testLogger())

	stats, err := svc.ProductStats(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalViews != 17 {
		t.Fatalf("expected counted views 17, got %d", stats.TotalViews)
	}
}
