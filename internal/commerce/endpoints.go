package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ListItems 公开商品列表，带搜索时忽略分类
func (c *Client) ListItems(ctx context.Context, q ItemListQuery) (*ListEnvelope[Item], error) {
	query := pageQuery(q.Limit, q.Offset, q.Search)
	setIfNotBlank(query, "type", q.Type)
	setIfNotBlank(query, "status", q.Status)
	if strings.TrimSpace(q.Search) == "" {
		setIfNotBlank(query, "category", q.Category)
	}
	setIfNotBlank(query, "sort", q.Sort)
	if q.MaxPrice > 0 {
		query.Set("max_price", strconv.FormatFloat(q.MaxPrice, 'f', -1, 64))
	}
	setIfNotBlank(query, "availability", q.Availability)

	var out ListEnvelope[Item]
	if err := c.getJSON(ctx, call{path: "/items", label: "/items", query: query, cacheable: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetItem 商品详情
func (c *Client) GetItem(ctx context.Context, slug string) (*Item, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrConfigInvalid)
	}
	body, err := c.do(ctx, call{
		method:    http.MethodGet,
		path:      "/product/" + url.PathEscape(slug),
		label:     "/product/:slug",
		cacheable: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeDataObject[Item](body)
}

// ListSellerItems 卖家商品列表
func (c *Client) ListSellerItems(ctx context.Context, q PageQuery) (*ListEnvelope[Item], error) {
	var out ListEnvelope[Item]
	req := call{path: "/vendor/items", label: "/vendor/items", query: pageQuery(q.Limit, q.Offset, q.Search)}
	if err := c.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ItemStatistics 卖家商品统计
func (c *Client) ItemStatistics(ctx context.Context) (ItemStatistics, error) {
	var out Envelope[ItemStatistics]
	req := call{path: "/vendor/items/statistics", label: "/vendor/items/statistics"}
	if err := c.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// UpdateItemStatus 修改商品上下架状态
func (c *Client) UpdateItemStatus(ctx context.Context, itemID uint, status string) error {
	_, err := c.do(ctx, call{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/vendor/product/%d/status/%s", itemID, url.PathEscape(strings.TrimSpace(status))),
		label:  "/vendor/product/:id/status/:status",
	})
	return err
}

// CreateItem 创建商品
func (c *Client) CreateItem(ctx context.Context, payload *MultipartPayload) (*Item, error) {
	return c.sendItemForm(ctx, "/vendor/item/create", "/vendor/item/create", payload)
}

// UpdateItem 更新商品
func (c *Client) UpdateItem(ctx context.Context, itemID uint, payload *MultipartPayload) (*Item, error) {
	return c.sendItemForm(ctx, fmt.Sprintf("/vendor/item/%d/update", itemID), "/vendor/item/:id/update", payload)
}

func (c *Client) sendItemForm(ctx context.Context, path, label string, payload *MultipartPayload) (*Item, error) {
	if payload == nil {
		payload = &MultipartPayload{}
	}
	buf, contentType, err := payload.encode()
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        path,
		label:       label,
		body:        buf,
		contentType: contentType,
	})
	if err != nil {
		return nil, err
	}
	return decodeDataObject[Item](body)
}

// DeleteItem 删除商品
func (c *Client) DeleteItem(ctx context.Context, itemID uint) error {
	_, err := c.do(ctx, call{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/vendor/item/%d", itemID),
		label:  "/vendor/item/:id",
	})
	return err
}

// ListShops 店铺列表
func (c *Client) ListShops(ctx context.Context, q ShopListQuery) (*ListEnvelope[Shop], error) {
	query := pageQuery(q.Limit, q.Offset, "")
	setIfNotBlank(query, "type", q.Type)
	var out ListEnvelope[Shop]
	if err := c.getJSON(ctx, call{path: "/shops", label: "/shops", query: query, cacheable: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListShopItems 店铺商品列表
func (c *Client) ListShopItems(ctx context.Context, slug string, q PageQuery) (*ListEnvelope[Item], error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrConfigInvalid)
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	var out ListEnvelope[Item]
	req := call{
		path:      "/shop/items/" + url.PathEscape(slug),
		label:     "/shop/items/:slug",
		query:     pageQuery(q.Limit, q.Offset, q.Search),
		cacheable: true,
	}
	if err := c.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ShippingRate 请求运费报价
func (c *Client) ShippingRate(ctx context.Context, req ShippingRateRequest) (*ShippingRates, error) {
	var out ShippingRateResponse
	if err := c.sendJSON(ctx, call{method: http.MethodPost, path: "/shipping/rate", label: "/shipping/rate"}, req, &out); err != nil {
		return nil, err
	}
	if out.Rate == nil || (out.Rate.Cheapest == nil && out.Rate.Fastest == nil) {
		return nil, fmt.Errorf("%w: missing rate", ErrResponseInvalid)
	}
	return out.Rate, nil
}

// Checkout 创建托管支付会话
func (c *Client) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error) {
	var out CheckoutResponse
	if err := c.sendJSON(ctx, call{method: http.MethodPost, path: "/session/checkout", label: "/session/checkout"}, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifySession 校验支付会话
func (c *Client) VerifySession(ctx context.Context, sessionID string) (*VerifySessionResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", ErrConfigInvalid)
	}
	query := url.Values{}
	query.Set("session_id", sessionID)
	var out VerifySessionResponse
	if err := c.getJSON(ctx, call{path: "/stripe/verify-session", label: "/stripe/verify-session", query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCustomerOrders 客户订单
func (c *Client) ListCustomerOrders(ctx context.Context, q PageQuery) (*ListEnvelope[CustomerOrder], error) {
	var out ListEnvelope[CustomerOrder]
	req := call{path: "/customer/orders", label: "/customer/orders", query: pageQuery(q.Limit, q.Offset, q.Search)}
	if err := c.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVendorOrders 卖家订单
func (c *Client) ListVendorOrders(ctx context.Context, q PageQuery) (*ListEnvelope[VendorOrderItem], error) {
	var out ListEnvelope[VendorOrderItem]
	req := call{path: "/vendor/orders", label: "/vendor/orders", query: pageQuery(q.Limit, q.Offset, q.Search)}
	if err := c.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAddresses 客户地址列表
func (c *Client) GetAddresses(ctx context.Context) ([]Address, error) {
	body, err := c.do(ctx, call{method: http.MethodGet, path: "/customer/addresses", label: "/customer/addresses"})
	if err != nil {
		return nil, err
	}
	return decodeDataList[Address](body)
}

// UpdateAddress 保存地址（覆盖）
func (c *Client) UpdateAddress(ctx context.Context, addr Address) (*Address, error) {
	data, err := json.Marshal(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request failed", ErrRequestFailed)
	}
	body, err := c.do(ctx, call{
		method:      http.MethodPost,
		path:        "/customer/address/update",
		label:       "/customer/address/update",
		body:        bytes.NewReader(data),
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}
	return decodeDataObject[Address](body)
}

// ListWishlists 服务端收藏夹
func (c *Client) ListWishlists(ctx context.Context) ([]Item, error) {
	body, err := c.do(ctx, call{method: http.MethodGet, path: "/customer/wishlists", label: "/customer/wishlists"})
	if err != nil {
		return nil, err
	}
	return decodeDataList[Item](body)
}

// SaveWishlist 同步收藏到服务端
func (c *Client) SaveWishlist(ctx context.Context, req WishlistSaveRequest) error {
	return c.sendJSON(ctx, call{method: http.MethodPost, path: "/customer/wishlist/store", label: "/customer/wishlist/store"}, req, nil)
}

// GetCommunicationPreferences 读取通知偏好
func (c *Client) GetCommunicationPreferences(ctx context.Context) (*CommunicationPreferences, error) {
	var out Envelope[CommunicationPreferences]
	req := call{path: "/communication-preferences", label: "/communication-preferences"}
	if err := c.getJSON(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// SaveCommunicationPreferences 保存通知偏好
func (c *Client) SaveCommunicationPreferences(ctx context.Context, prefs CommunicationPreferences) (*SaveResponse, error) {
	var out SaveResponse
	req := call{method: http.MethodPost, path: "/communication/create", label: "/communication/create"}
	if err := c.sendJSON(ctx, req, prefs.payload(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func setIfNotBlank(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}

// decodeDataList 兼容裸数组与 {data: [...]} 两种形态
func decodeDataList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []T
		if err := decodeJSON(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}
	var env Envelope[[]T]
	if err := decodeJSON(trimmed, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// decodeDataObject 兼容裸对象与 {data: {...}} 两种形态
func decodeDataObject[T any](body []byte) (*T, error) {
	var probe map[string]json.RawMessage
	if err := decodeJSON(body, &probe); err != nil {
		return nil, err
	}
	if raw, ok := probe["data"]; ok && len(bytes.TrimSpace(raw)) > 0 && bytes.TrimSpace(raw)[0] == '{' {
		var out T
		if err := decodeJSON(raw, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
	var out T
	if err := decodeJSON(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
