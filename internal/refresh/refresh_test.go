package refresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"minishop/internal/pkg/metrics"
)

type mockStore struct {
	recountViews     func(ctx context.Context) error
	recomputeRatings func(ctx context.Context) error

	recountCalls   atomic.Int64
	recomputeCalls atomic.Int64
}

func (m *mockStore) RecountViews(ctx context.Context) error {
	m.recountCalls.Add(1)
	if m.recountViews != nil {
		return m.recountViews(ctx)
	}
	return nil
}

func (m *mockStore) RecomputeRatings(ctx context.Context) error {
	m.recomputeCalls.Add(1)
	if m.recomputeRatings != nil {
		return m.recomputeRatings(ctx)
	}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshOnce_RunsBothUpdates(t *testing.T) {
	metrics.InitMetrics()
	store := &mockStore{}
	r := NewRefresher(store, time.Minute, testLogger())

	r.refreshOnce(context.Background())

	if store.recountCalls.Load() != 1 || store.recomputeCalls.Load() != 1 {
		t.Fatalf("expected one call each, got %d/%d", store.recountCalls.Load(), store.recomputeCalls.Load())
	}
}

func TestRefreshOnce_SkipsRatingsOnViewError(t *testing.T) {
	metrics.InitMetrics()
	store := &mockStore{
		recountViews: func(ctx context.Context) error {
			return errors.New("db down")
		},
	}
	r := NewRefresher(store, time.Minute, testLogger())

	r.refreshOnce(context.Background())

	if store.recomputeCalls.Load() != 0 {
		t.Fatal("rating recompute should be skipped after view recount failure")
	}
}

func TestRefreshOnce_RecoversFromPanic(t *testing.T) {
	metrics.InitMetrics()
	store := &mockStore{
		recountViews: func(ctx context.Context) error {
			panic("boom")
		},
	}
	r := NewRefresher(store, time.Minute, testLogger())

	// 不应让 panic 逃逸
	r.refreshOnce(context.Background())
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	metrics.InitMetrics()
	store := &mockStore{}
	r := NewRefresher(store, 10*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}

	// 启动时一次, 再加至少一次 tick
	if store.recountCalls.Load() < 2 {
		t.Fatalf("expected at least 2 refresh rounds, got %d", store.recountCalls.Load())
	}
}
