package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// memoryCartPersister 内存持久化，可注入读写失败
type memoryCartPersister struct {
	mu        sync.Mutex
	stored    []models.CartLine
	loadFails int
	saveErr   error
	saves     int
}

func (p *memoryCartPersister) Load(context.Context) ([]models.CartLine, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadFails > 0 {
		p.loadFails--
		return nil, errors.New("load failed")
	}
	return copyLines(p.stored), nil
}

func (p *memoryCartPersister) Save(_ context.Context, lines []models.CartLine) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves++
	if p.saveErr != nil {
		return p.saveErr
	}
	p.stored = copyLines(lines)
	return nil
}

type memoryFactory struct {
	cart *memoryCartPersister
}

func (f memoryFactory) Cart(string) CartPersister         { return f.cart }
func (f memoryFactory) Wishlist(string) WishlistPersister { return nil }

func line(id uint, price float64, qty int) models.CartLine {
	return models.CartLine{ItemID: id, Title: fmt.Sprintf("item-%d", id), Price: models.NewMoneyFromFloat(price), Quantity: qty}
}

func newReadyCart(t *testing.T) *CartStore {
	t.Helper()
	cart := NewCartStore("guest:test", nil)
	cart.Hydrate(context.Background())
	return cart
}

func setupStoreDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestCartMutationBeforeHydrate(t *testing.T) {
	cart := NewCartStore("guest:x", nil)
	if err := cart.Add(context.Background(), line(1, 10, 1)); !errors.Is(err, ErrStoreNotReady) {
		t.Fatalf("expected ErrStoreNotReady, got %v", err)
	}
	if cart.Ready() {
		t.Fatalf("cart should not be ready before hydrate")
	}
}

func TestCartAddIncrementsAndKeepsIdsUnique(t *testing.T) {
	ctx := context.Background()
	cart := newReadyCart(t)
	ops := []struct {
		add bool
		id  uint
		qty int
	}{
		{true, 1, 2}, {true, 2, 1}, {true, 1, 3}, {false, 2, 0}, {true, 3, 0}, {true, 2, 1}, {true, 3, 1},
	}
	for _, op := range ops {
		var err error
		if op.add {
			err = cart.Add(ctx, line(op.id, 1, op.qty))
		} else {
			err = cart.Remove(ctx, op.id)
		}
		if err != nil {
			t.Fatalf("op %+v failed: %v", op, err)
		}
	}

	lines := cart.Lines()
	want := map[uint]int{1: 5, 3: 2, 2: 1}
	if len(lines) != len(want) {
		t.Fatalf("expected %d distinct lines, got %+v", len(want), lines)
	}
	for _, l := range lines {
		if want[l.ItemID] != l.Quantity {
			t.Fatalf("item %d qty want %d got %d", l.ItemID, want[l.ItemID], l.Quantity)
		}
	}
	if lines[0].ItemID != 1 || lines[1].ItemID != 3 || lines[2].ItemID != 2 {
		t.Fatalf("insertion order not preserved: %+v", lines)
	}
	if cart.Count() != 8 {
		t.Fatalf("count want 8 got %d", cart.Count())
	}
}

func TestCartSetQuantityAndSubtotal(t *testing.T) {
	ctx := context.Background()
	cart := newReadyCart(t)
	_ = cart.Add(ctx, line(1, 10, 2))
	_ = cart.Add(ctx, line(2, 2.5, 1))
	if got := cart.Subtotal().String(); got != "22.50" {
		t.Fatalf("subtotal want 22.50 got %s", got)
	}
	if err := cart.SetQuantity(ctx, 2, 4); err != nil {
		t.Fatalf("set quantity failed: %v", err)
	}
	if got := cart.Subtotal().String(); got != "30.00" {
		t.Fatalf("subtotal want 30.00 got %s", got)
	}
	if err := cart.SetQuantity(ctx, 1, 0); err != nil {
		t.Fatalf("set zero quantity failed: %v", err)
	}
	if len(cart.Lines()) != 1 {
		t.Fatalf("zero quantity should remove the line")
	}
	if err := cart.SetQuantity(ctx, 99, 1); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestCartPersistFailureIsNonFatal(t *testing.T) {
	persister := &memoryCartPersister{saveErr: errors.New("disk full")}
	cart := NewCartStore("guest:x", persister)
	if err := cart.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate failed: %v", err)
	}
	if err := cart.Add(context.Background(), line(1, 3, 1)); err != nil {
		t.Fatalf("persist failure must not surface: %v", err)
	}
	if persister.saves != 1 || len(cart.Lines()) != 1 {
		t.Fatalf("state should continue in memory: saves=%d lines=%d", persister.saves, len(cart.Lines()))
	}
}

func TestCartLoadFailureKeepsSavedLines(t *testing.T) {
	persister := &memoryCartPersister{stored: []models.CartLine{line(1, 5, 1), line(2, 7, 1)}, loadFails: 1}
	cart := NewCartStore("user:3", persister)
	if err := cart.Hydrate(context.Background()); err == nil {
		t.Fatalf("load failure should be returned")
	}
	if cart.Ready() {
		t.Fatalf("cart must stay not ready after a failed load")
	}
	if err := cart.Add(context.Background(), line(9, 1, 1)); !errors.Is(err, ErrStoreNotReady) {
		t.Fatalf("expected ErrStoreNotReady, got %v", err)
	}
	if persister.saves != 0 || len(persister.stored) != 2 {
		t.Fatalf("saved lines must be untouched: saves=%d stored=%d", persister.saves, len(persister.stored))
	}

	if err := cart.Hydrate(context.Background()); err != nil {
		t.Fatalf("retry hydrate failed: %v", err)
	}
	if err := cart.Add(context.Background(), line(9, 1, 1)); err != nil {
		t.Fatalf("add after retry failed: %v", err)
	}
	if len(persister.stored) != 3 {
		t.Fatalf("persisted cart should keep earlier lines, got %d", len(persister.stored))
	}
}

func TestRegistryRetriesFailedHydrate(t *testing.T) {
	ctx := context.Background()
	persister := &memoryCartPersister{stored: []models.CartLine{line(4, 2, 2)}, loadFails: 1}
	registry := NewRegistry(memoryFactory{cart: persister})

	first := registry.Get(ctx, "user:4")
	if first.Cart.Ready() || !first.Wishlist.Ready() {
		t.Fatalf("only the failed store should stay not ready")
	}
	second := registry.Get(ctx, "user:4")
	if second != first || !second.Cart.Ready() {
		t.Fatalf("second Get should retry hydration on the same stores")
	}
	if lines := second.Cart.Lines(); len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("saved lines should be restored: %+v", lines)
	}
}

func TestCartRoundTripThroughRepository(t *testing.T) {
	ctx := context.Background()
	db := setupStoreDB(t)
	factory := NewRepositoryPersisters(repository.NewCartRepository(db), repository.NewWishlistRepository(db))

	first := NewRegistry(factory).Get(ctx, "user:7")
	_ = first.Cart.Add(ctx, line(5, 4.2, 1))
	service := line(3, 50, 1)
	service.Type = constants.ItemTypeServices
	_ = first.Cart.Add(ctx, service)
	_ = first.Cart.Add(ctx, line(5, 4.2, 2))
	_ = first.Wishlist.Add(ctx, models.WishlistEntry{ItemID: 8, Title: "rug"})

	second := NewRegistry(factory).Get(ctx, "user:7")
	before, after := first.Cart.Lines(), second.Cart.Lines()
	if len(before) != len(after) {
		t.Fatalf("reloaded cart size mismatch: %d vs %d", len(before), len(after))
	}
	for i := range before {
		b, a := before[i], after[i]
		if b.ItemID != a.ItemID || b.Quantity != a.Quantity || b.Type != a.Type || !b.Price.Equal(a.Price.Decimal) {
			t.Fatalf("line %d differs after reload: %+v vs %+v", i, b, a)
		}
	}
	if !second.Cart.HasServices() {
		t.Fatalf("service line should survive reload")
	}
	if items := second.Wishlist.Items(); len(items) != 1 || items[0].ItemID != 8 {
		t.Fatalf("wishlist not restored: %+v", items)
	}
}

func TestSubscribersRunOutsideLock(t *testing.T) {
	ctx := context.Background()
	cart := newReadyCart(t)
	var seen []string
	unsubscribe := cart.Subscribe(func(e CartEvent) {
		seen = append(seen, fmt.Sprintf("%s:%d:%d", e.Kind, e.ItemID, len(cart.Lines())))
	})
	_ = cart.Add(ctx, line(1, 1, 1))
	_ = cart.Clear(ctx)
	unsubscribe()
	_ = cart.Add(ctx, line(2, 1, 1))

	want := []string{"added:1:1", "cleared:0:0"}
	if strings.Join(seen, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected events: %v", seen)
	}
}

func TestWishlistDuplicateAddIsNoop(t *testing.T) {
	ctx := context.Background()
	wishlist := NewWishlistStore("guest:x", nil)
	wishlist.Hydrate(ctx)
	events := 0
	wishlist.Subscribe(func(WishlistEvent) { events++ })

	_ = wishlist.Add(ctx, models.WishlistEntry{ItemID: 4, Title: "first"})
	_ = wishlist.Add(ctx, models.WishlistEntry{ItemID: 4, Title: "second"})
	items := wishlist.Items()
	if len(items) != 1 || items[0].Title != "first" {
		t.Fatalf("duplicate add should not modify wishlist: %+v", items)
	}
	if events != 1 {
		t.Fatalf("duplicate add should not publish, events=%d", events)
	}
}

func TestMoveToCart(t *testing.T) {
	ctx := context.Background()
	stores := NewRegistry(nil).Get(ctx, "guest:m")
	_ = stores.Wishlist.Add(ctx, models.WishlistEntry{ItemID: 6, Title: "vase", Price: models.NewMoneyFromFloat(12)})
	_ = stores.Cart.Add(ctx, line(6, 12, 2))

	if err := MoveToCart(ctx, stores.Wishlist, stores.Cart, 6); err != nil {
		t.Fatalf("move to cart failed: %v", err)
	}
	if len(stores.Wishlist.Items()) != 0 {
		t.Fatalf("entry should leave the wishlist")
	}
	lines := stores.Cart.Lines()
	if len(lines) != 1 || lines[0].Quantity != 3 {
		t.Fatalf("moved entry should add one unit: %+v", lines)
	}
	if err := MoveToCart(ctx, stores.Wishlist, stores.Cart, 6); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}
