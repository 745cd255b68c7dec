package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ayokah-next/internal/logger"
	"github.com/ayokah-next/internal/metrics"

	"golang.org/x/time/rate"
)

var (
	ErrConfigInvalid   = errors.New("commerce config invalid")
	ErrRequestFailed   = errors.New("commerce request failed")
	ErrResponseInvalid = errors.New("commerce response invalid")
)

const defaultTimeout = 15 * time.Second

// ResponseCache 公开 GET 响应缓存
type ResponseCache interface {
	Get(ctx context.Context, url string) ([]byte, bool)
	Set(ctx context.Context, url string, body []byte, ttl time.Duration) error
}

// Options 客户端配置
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Cache          ResponseCache
	CacheTTL       time.Duration
	Metrics        *metrics.Recorder
	HTTPClient     *http.Client
}

// Client 上游商城 API 客户端，不做重试
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	cache    ResponseCache
	cacheTTL time.Duration
	metrics  *metrics.Recorder
}

// TransportError 网络层失败（无 HTTP 响应）
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrRequestFailed, e.Method, e.Path, e.Err)
}

// Unwrap 返回底层错误
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is 使 errors.Is(err, ErrRequestFailed) 成立
func (e *TransportError) Is(target error) bool {
	return target == ErrRequestFailed
}

// APIError 上游返回非 2xx，Body 保留原始响应体
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce api status %d", e.Status)
}

// Retryable 5xx 与 429 可重试，其余 4xx 不重试
func (e *APIError) Retryable() bool {
	return e.Status >= 500 || e.Status == 429
}

// New 创建客户端
func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		baseURL:  baseURL,
		http:     httpClient,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		metrics:  opts.Metrics,
	}
	if opts.RateLimitRPS > 0 {
		burst := opts.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), burst)
	}
	return c, nil
}

type tokenKey struct{}

// ContextWithToken 把会话的 bearer token 放入 context
func ContextWithToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tokenKey{}, strings.TrimSpace(token))
}

// TokenFromContext 取出 bearer token
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// call 描述一次上游请求；label 是不含变量的路由模板，用作指标标签
type call struct {
	method      string
	path        string
	label       string
	query       url.Values
	body        io.Reader
	contentType string
	cacheable   bool
}

func (c *Client) do(ctx context.Context, req call) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}
	useCache := req.cacheable && req.method == http.MethodGet && c.cache != nil && c.cacheTTL > 0
	if useCache {
		if body, ok := c.cache.Get(ctx, endpoint); ok {
			return body, nil
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, req.body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token := TokenFromContext(ctx); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.ObserveUpstream(req.label, req.method, 0, time.Since(started))
		return nil, &TransportError{Method: req.method, Path: req.path, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveUpstream(req.label, req.method, resp.StatusCode, time.Since(started))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.FromContext(ctx).Debugw("commerce_api_rejected",
			"method", req.method,
			"path", req.path,
			"status", resp.StatusCode,
		)
		return nil, &APIError{Status: resp.StatusCode, Body: body}
	}
	if useCache {
		if err := c.cache.Set(ctx, endpoint, body, c.cacheTTL); err != nil {
			logger.FromContext(ctx).Warnw("commerce_cache_write_failed", "path", req.path, "error", err)
		}
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, req call, dest interface{}) error {
	req.method = http.MethodGet
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return decodeJSON(body, dest)
}

func (c *Client) sendJSON(ctx context.Context, req call, payload interface{}, dest interface{}) error {
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: encode request failed", ErrRequestFailed)
		}
		req.body = bytes.NewReader(data)
		req.contentType = "application/json"
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return decodeJSON(body, dest)
}

func decodeJSON(body []byte, dest interface{}) error {
	if dest == nil {
		return nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", ErrResponseInvalid)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return nil
}

func pageQuery(limit, offset int, search string) url.Values {
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))
	if s := strings.TrimSpace(search); s != "" {
		q.Set("search", s)
	}
	return q
}
