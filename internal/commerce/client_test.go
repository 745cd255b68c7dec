package commerce

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ayokah-next/internal/constants"
	"github.com/ayokah-next/internal/metrics"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memoryCache) Get(_ context.Context, url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.items[url]
	return body, ok
}

func (m *memoryCache) Set(_ context.Context, url string, body []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = map[string][]byte{}
	}
	m.items[url] = body
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts.BaseURL = server.URL + "/api/v1"
	client, err := New(opts)
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	return client
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
}

func TestListItemsQueryAndBearer(t *testing.T) {
	var gotQuery, gotAuth, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"status":"success","data":[{"id":1,"title":"Lamp","sales_price":"12.50","regular_price":20}],"total":11,"offset":10,"limit":10}`))
	}, Options{Metrics: metrics.New()})

	ctx := ContextWithToken(context.Background(), "tok-1")
	out, err := client.ListItems(ctx, ItemListQuery{Limit: 10, Offset: 10, Search: "lamp", Category: "5", Type: "products"})
	if err != nil {
		t.Fatalf("list items failed: %v", err)
	}
	if gotPath != "/api/v1/items" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if strings.Contains(gotQuery, "category=") {
		t.Fatalf("category must be dropped when searching: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "offset=10") || !strings.Contains(gotQuery, "search=lamp") || !strings.Contains(gotQuery, "type=products") {
		t.Fatalf("unexpected query: %s", gotQuery)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("bearer token not forwarded: %q", gotAuth)
	}
	if out.Total != 11 || len(out.Data) != 1 || out.Data[0].UnitPrice().String() != "12.50" {
		t.Fatalf("unexpected envelope: %+v", out)
	}
}

func TestPublicGetUsesCache(t *testing.T) {
	calls := 0
	cache := &memoryCache{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"data":[],"total":0}`))
	}, Options{Cache: cache, CacheTTL: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := client.ListShops(context.Background(), ShopListQuery{Limit: 5, Type: "products"}); err != nil {
			t.Fatalf("list shops failed: %v", err)
		}
	}
	if calls != 1 {
		t.Fatalf("second call should hit cache, upstream calls=%d", calls)
	}
	if _, err := client.ListSellerItems(context.Background(), PageQuery{Limit: 5}); err != nil {
		t.Fatalf("list seller items failed: %v", err)
	}
	if _, err := client.ListSellerItems(context.Background(), PageQuery{Limit: 5}); err != nil {
		t.Fatalf("list seller items failed: %v", err)
	}
	if calls != 3 {
		t.Fatalf("seller items must not be cached, upstream calls=%d", calls)
	}
}

func TestNonSuccessReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"The given data was invalid.","errors":{"zip_code":["The zip code field is required."]}}`))
	}, Options{})

	_, err := client.UpdateAddress(context.Background(), Address{City: "Leeds"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("expected APIError 422, got %v", err)
	}
	if got := HumanMessage(err, constants.MsgAddressSaveFailed); got != "Zip Code: The zip code field is required." {
		t.Fatalf("unexpected human message: %s", got)
	}
}

func TestTransportErrorIsRequestFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client, err := New(Options{BaseURL: baseURL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	_, err = client.ListCustomerOrders(context.Background(), PageQuery{Limit: 2})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected TransportError, got %T", err)
	}
}

func TestUpdateItemStatusPath(t *testing.T) {
	var method, path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}, Options{})

	if err := client.UpdateItemStatus(context.Background(), 42, constants.ItemStatusInactive); err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if method != http.MethodPatch || path != "/api/v1/vendor/product/42/status/inactive" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestCreateItemSendsMultipart(t *testing.T) {
	var title, filename string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart failed: %v", err)
		}
		title = r.FormValue("title")
		if files := r.MultipartForm.File["images[]"]; len(files) == 1 {
			filename = files[0].Filename
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"id":9,"title":"Desk lamp"}}`))
	}, Options{})

	payload := &MultipartPayload{}
	payload.Add("title", "Desk lamp")
	payload.AddFile(FormFile{Field: "images[]", Filename: "a.png", ContentType: "image/png", Data: []byte("png")})
	item, err := client.CreateItem(context.Background(), payload)
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	if title != "Desk lamp" || filename != "a.png" {
		t.Fatalf("multipart not received: title=%q file=%q", title, filename)
	}
	if item.ID != 9 {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestShippingRateMissingRate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}, Options{})
	if _, err := client.ShippingRate(context.Background(), ShippingRateRequest{}); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got %v", err)
	}
}

func TestSaveCommunicationPreferencesSendsStrings(t *testing.T) {
	var payload map[string]interface{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &payload)
		_, _ = w.Write([]byte(`{"status":"success","message":"Saved"}`))
	}, Options{})

	out, err := client.SaveCommunicationPreferences(context.Background(), CommunicationPreferences{Promotions: true})
	if err != nil {
		t.Fatalf("save prefs failed: %v", err)
	}
	if payload["promotions"] != "true" || payload["events"] != "false" {
		t.Fatalf("expected string booleans, got %v", payload)
	}
	if out.Message != "Saved" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestGetAddressesAcceptsBothShapes(t *testing.T) {
	bodies := []string{
		`[{"address_id":3,"city":"Leeds"}]`,
		`{"status":"success","data":[{"address_id":3,"city":"Leeds"}]}`,
	}
	for _, body := range bodies {
		body := body
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}, Options{})
		list, err := client.GetAddresses(context.Background())
		if err != nil {
			t.Fatalf("get addresses failed for %s: %v", body, err)
		}
		if len(list) != 1 || list[0].City != "Leeds" || list[0].AddressID == nil || *list[0].AddressID != 3 {
			t.Fatalf("unexpected addresses for %s: %+v", body, list)
		}
	}
}
