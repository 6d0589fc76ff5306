package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"minishop/internal/activity"
	"minishop/internal/config"
	"minishop/internal/model"
	"minishop/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
)

type mockViewStore struct {
	createFunc   func(ctx context.Context, view *model.ProductView) error
	byUserFunc   func(ctx context.Context, userID uint, limit int) ([]model.ProductView, error)
	reassignFunc func(ctx context.Context, userID uint, sessionID string) (int64, error)

	createCalls   int
	reassignCalls int
}

func (m *mockViewStore) CreateView(ctx context.Context, view *model.ProductView) error {
	m.createCalls++
	return m.createFunc(ctx, view)
}

func (m *mockViewStore) ViewsByUser(ctx context.Context, userID uint, limit int) ([]model.ProductView, error) {
	if m.byUserFunc != nil {
		return m.byUserFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockViewStore) ViewsBySession(ctx context.Context, sessionID string, limit int) ([]model.ProductView, error) {
	return nil, nil
}

func (m *mockViewStore) ViewsByProduct(ctx context.Context, productID uint) ([]model.ProductView, error) {
	return nil, nil
}

func (m *mockViewStore) ReassignSessionViews(ctx context.Context, userID uint, sessionID string) (int64, error) {
	m.reassignCalls++
	return m.reassignFunc(ctx, userID, sessionID)
}

func testServer(views *activity.ViewTracker) *Server {
	return &Server{
		cfg:    &config.Config{App: config.AppConfig{DefaultPageSize: 12, MaxPageSize: 100}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		views:  views,
	}
}

func TestRecordView_SynthesizesSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	var storedSession string
	store := &mockViewStore{
		createFunc: func(ctx context.Context, view *model.ProductView) error {
			view.ID = 1
			storedSession = view.SessionID
			return nil
		},
	}
	s := testServer(activity.NewViewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := gin.New()
	r.POST("/productviews", s.handleRecordView)

	payload, _ := json.Marshal(recordViewRequest{ProductID: 7})
	req := httptest.NewRequest(http.MethodPost, "/productviews", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		EC int `json:"EC"`
		DT struct {
			SessionID string `json:"sessionId"`
		} `json:"DT"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.EC != 0 {
		t.Fatalf("expected EC 0, got %d", resp.EC)
	}
	if !strings.HasPrefix(resp.DT.SessionID, "session_") {
		t.Fatalf("expected synthesized session id, got %q", resp.DT.SessionID)
	}
	if storedSession != resp.DT.SessionID {
		t.Fatalf("stored session %q differs from echoed %q", storedSession, resp.DT.SessionID)
	}
}

func TestRecordView_ReusesHeaderSessionID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	var storedSession string
	store := &mockViewStore{
		createFunc: func(ctx context.Context, view *model.ProductView) error {
			storedSession = view.SessionID
			return nil
		},
	}
	s := testServer(activity.NewViewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := gin.New()
	r.POST("/productviews", s.handleRecordView)

	payload, _ := json.Marshal(recordViewRequest{ProductID: 7})
	req := httptest.NewRequest(http.MethodPost, "/productviews", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-session-id", "sess-keep")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if storedSession != "sess-keep" {
		t.Fatalf("expected existing session id to be reused, got %q", storedSession)
	}
}

func TestRecordView_MissingProductID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	store := &mockViewStore{
		createFunc: func(ctx context.Context, view *model.ProductView) error { return nil },
	}
	s := testServer(activity.NewViewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := gin.New()
	r.POST("/productviews", s.handleRecordView)

	req := httptest.NewRequest(http.MethodPost, "/productviews", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if store.createCalls != 0 {
		t.Fatal("view should not be stored")
	}
}

func TestMergeSession_ReturnsMergedCount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	store := &mockViewStore{
		reassignFunc: func(ctx context.Context, userID uint, sessionID string) (int64, error) {
			if userID != 5 || sessionID != "sess-1" {
				t.Fatalf("unexpected merge args: %d %q", userID, sessionID)
			}
			return 3, nil
		},
	}
	s := testServer(activity.NewViewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := gin.New()
	r.POST("/merge-session-data", func(c *gin.Context) {
		c.Set("userID", uint(5))
		s.handleMergeSession(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/merge-session-data", strings.NewReader(`{"sessionId":"sess-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		EC int `json:"EC"`
		DT struct {
			MergedViews int64 `json:"mergedViews"`
		} `json:"DT"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.DT.MergedViews != 3 {
		t.Fatalf("expected 3 merged views, got %d", resp.DT.MergedViews)
	}
}

func TestMergeSession_MissingSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics.InitMetrics()

	store := &mockViewStore{
		reassignFunc: func(ctx context.Context, userID uint, sessionID string) (int64, error) {
			return 0, nil
		},
	}
	s := testServer(activity.NewViewTracker(store, slog.New(slog.NewTextHandler(io.Discard, nil))))

	r := gin.New()
	r.POST("/merge-session-data", func(c *gin.Context) {
		c.Set("userID", uint(5))
		s.handleMergeSession(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/merge-session-data", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if store.reassignCalls != 0 {
		t.Fatal("merge should not reach the store without a session id")
	}
}
