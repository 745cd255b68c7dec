package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/models"
	"github.com/ayokah-next/internal/store"
)

type fakeAccount struct {
	addresses []commerce.Address
	saved     []commerce.Address
	saveErr   error
	wishlist  []commerce.WishlistSaveRequest
}

func (f *fakeAccount) GetAddresses(context.Context) ([]commerce.Address, error) {
	return f.addresses, nil
}

func (f *fakeAccount) UpdateAddress(_ context.Context, addr commerce.Address) (*commerce.Address, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, addr)
	return &addr, nil
}

func (f *fakeAccount) GetCommunicationPreferences(context.Context) (*commerce.CommunicationPreferences, error) {
	return &commerce.CommunicationPreferences{Promotions: true}, nil
}

func (f *fakeAccount) SaveCommunicationPreferences(context.Context, commerce.CommunicationPreferences) (*commerce.SaveResponse, error) {
	return &commerce.SaveResponse{}, nil
}

func (f *fakeAccount) ListWishlists(context.Context) ([]commerce.Item, error) {
	return nil, nil
}

func (f *fakeAccount) SaveWishlist(_ context.Context, req commerce.WishlistSaveRequest) error {
	f.wishlist = append(f.wishlist, req)
	return nil
}

func TestAddressFallsBackToProfileDefault(t *testing.T) {
	client := &fakeAccount{}
	svc := NewAccountService(client, "")
	addr, err := svc.Address(context.Background(), identity.Identity{Phone: " 0700 "})
	if err != nil {
		t.Fatalf("address failed: %v", err)
	}
	if addr.Country != "UK" || addr.Phone != "0700" || addr.AddressLabel != "Home" || addr.AddressID != nil {
		t.Fatalf("unexpected default address: %+v", addr)
	}

	id := uint(4)
	client.addresses = []commerce.Address{{AddressID: &id, City: "Leeds"}, {City: "York"}}
	addr, _ = svc.Address(context.Background(), identity.Identity{})
	if addr.City != "Leeds" {
		t.Fatalf("first address should win, got %+v", addr)
	}
}

func TestSaveAddress(t *testing.T) {
	client := &fakeAccount{}
	svc := NewAccountService(client, "NG")
	if _, err := svc.SaveAddress(context.Background(), AddressInput{City: "Lagos"}); !errors.Is(err, commerce.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	in := AddressInput{StreetAddress: " 2 Broad St ", City: "Lagos", State: "LA", ZipCode: "100001", Phone: "080"}
	saved, err := svc.SaveAddress(context.Background(), in)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.StreetAddress != "2 Broad St" || saved.Country != "NG" || saved.AddressLabel != "Home" {
		t.Fatalf("unexpected saved address: %+v", saved)
	}

	client.saveErr = &commerce.APIError{Status: 422, Body: []byte(`{"zip_code":["Invalid zip"]}`)}
	_, err = svc.SaveAddress(context.Background(), in)
	if !errors.Is(err, ErrAddressSaveFailed) || commerce.HumanMessage(err, "") != "Zip Code: Invalid zip" {
		t.Fatalf("unexpected failure: %v / %q", err, commerce.HumanMessage(err, ""))
	}
}

func TestSaveServerWishlistRequiresProduct(t *testing.T) {
	client := &fakeAccount{}
	svc := NewAccountService(client, "")
	if err := svc.SaveServerWishlist(context.Background(), commerce.WishlistSaveRequest{}); !errors.Is(err, commerce.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := svc.SaveServerWishlist(context.Background(), commerce.WishlistSaveRequest{ProductID: 3}); err != nil || len(client.wishlist) != 1 {
		t.Fatalf("save failed: %v", err)
	}
}

type fakeCatalog struct {
	items map[string]*commerce.Item
}

func (f *fakeCatalog) ListItems(context.Context, commerce.ItemListQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	return &commerce.ListEnvelope[commerce.Item]{}, nil
}

func (f *fakeCatalog) GetItem(_ context.Context, slug string) (*commerce.Item, error) {
	return f.items[slug], nil
}

func (f *fakeCatalog) ListShops(context.Context, commerce.ShopListQuery) (*commerce.ListEnvelope[commerce.Shop], error) {
	return &commerce.ListEnvelope[commerce.Shop]{}, nil
}

func (f *fakeCatalog) ListShopItems(context.Context, string, commerce.PageQuery) (*commerce.ListEnvelope[commerce.Item], error) {
	return &commerce.ListEnvelope[commerce.Item]{}, nil
}

func TestAddToCartUsesItemSnapshot(t *testing.T) {
	catalog := &fakeCatalog{items: map[string]*commerce.Item{
		"oak-stool": {ID: 8, Title: "Oak Stool", Slug: "oak-stool", SalesPrice: models.NewMoneyFromFloat(30), RegularPrice: models.NewMoneyFromFloat(45), Images: []string{"a.jpg"}, Quantity: 4},
	}}
	svc := NewStorefrontService(catalog)
	ctx := context.Background()
	stores := store.NewRegistry(nil).Get(ctx, "guest:s")

	if err := svc.AddToCart(ctx, stores.Cart, "oak-stool", 2); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	lines := stores.Cart.Lines()
	if len(lines) != 1 || lines[0].Price.String() != "30.00" || lines[0].Image != "a.jpg" || lines[0].Stock != 4 {
		t.Fatalf("unexpected cart line: %+v", lines)
	}
	if err := svc.AddToCart(ctx, stores.Cart, "missing", 1); !errors.Is(err, ErrItemUnavailable) {
		t.Fatalf("expected ErrItemUnavailable, got %v", err)
	}
	if err := svc.AddToWishlist(ctx, stores.Wishlist, "oak-stool"); err != nil {
		t.Fatalf("wishlist add failed: %v", err)
	}
	if entry, ok := stores.Wishlist.Get(8); !ok || entry.Title != "Oak Stool" {
		t.Fatalf("unexpected wishlist entry: %+v", entry)
	}
}
