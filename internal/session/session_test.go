package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[],"total":0}`))
	}))
	t.Cleanup(server.Close)
	client, err := commerce.New(commerce.Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return NewManager(Deps{Client: client, Settings: Settings{IdleTTL: time.Minute}})
}

func TestViewPerOwner(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	ctx := context.Background()

	guest := m.View(ctx, identity.Identity{SessionID: "s1"})
	if guest != m.View(ctx, identity.Identity{SessionID: "s1"}) {
		t.Fatalf("same owner should reuse the view")
	}
	user := m.View(ctx, identity.Identity{SessionID: "s1", UserID: 3, Token: "tok"})
	if user == guest || user.Owner != "user:3" {
		t.Fatalf("authenticated identity should own a separate view: %s", user.Owner)
	}
	if !guest.Cart.Ready() || !guest.Wishlist.Ready() {
		t.Fatalf("stores should be hydrated on first access")
	}
	if got := m.Owners(); len(got) != 2 || got[0] != "guest:s1" || got[1] != "user:3" {
		t.Fatalf("unexpected owners: %v", got)
	}
}

func TestLazyViewsCreatedOnce(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	view := m.View(context.Background(), identity.Identity{SessionID: "s1"})
	if view.SellerItems() != view.SellerItems() {
		t.Fatalf("seller table should be created once")
	}
	if view.CustomerOrders() != view.CustomerOrders() || view.SellerOrders() != view.SellerOrders() {
		t.Fatalf("order lists should be created once")
	}
}

func TestSweepEvictsIdleViews(t *testing.T) {
	m := newTestManager(t)
	defer m.Close()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	ctx := context.Background()

	stale := m.View(ctx, identity.Identity{SessionID: "old"})
	_ = stale.Cart.Add(ctx, models.CartLine{ItemID: 1, Quantity: 1})
	table := stale.SellerItems()
	m.now = func() time.Time { return base.Add(50 * time.Second) }
	m.View(ctx, identity.Identity{SessionID: "fresh"})

	if n := m.Sweep(base.Add(70 * time.Second)); n != 1 {
		t.Fatalf("expected one evicted view, got %d", n)
	}
	if m.Len() != 1 || m.Owners()[0] != "guest:fresh" {
		t.Fatalf("unexpected remaining views: %v", m.Owners())
	}
	if table.Refresh() != 0 {
		t.Fatalf("closed view should not schedule work")
	}
	again := m.View(ctx, identity.Identity{SessionID: "old"})
	if again == stale {
		t.Fatalf("evicted owner should get a new view")
	}
}

func TestJanitorStopsWithContext(t *testing.T) {
	m := newTestManager(t)
	janitor := NewJanitor(m, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- janitor.Start(ctx) }()
	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("start returned error: %v", err)
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := janitor.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if janitor.Name() != "session-janitor" {
		t.Fatalf("unexpected name: %s", janitor.Name())
	}
}
