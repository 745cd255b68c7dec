package router

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ayokah-next/internal/authz"
	"github.com/ayokah-next/internal/commerce"
	"github.com/ayokah-next/internal/config"
	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/identity"
	"github.com/ayokah-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"
const sessionIDKey = "session_id"
const sessionIDHeader = "X-Session-ID"
const userIDHeader = "X-User-ID"
const roleHeader = "X-User-Role"

const (
	defaultSessionCookie = "ayk_sid"
	defaultTokenCookie   = "token"
	defaultRoleCookie    = "role"
	userIDCookie         = "user_id"
	defaultCookieMaxAge  = 30 * 24 * 3600
)

const (
	msgLoginRequired = "Please log in to continue"
	msgForbidden     = "You are not allowed to access this page"
	msgAuthzFailed   = "Authorization check failed"
)

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"X-Session-ID",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), requestIDKey, requestID))
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// SessionMiddleware 访客会话中间件：读取或签发会话 cookie
func SessionMiddleware(cfg config.SessionConfig) gin.HandlerFunc {
	name := strings.TrimSpace(cfg.Cookie)
	if name == "" {
		name = defaultSessionCookie
	}
	maxAge := cfg.CookieMaxAgeSeconds
	if maxAge <= 0 {
		maxAge = defaultCookieMaxAge
	}
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(sessionIDHeader))
		if sessionID == "" {
			sessionID, _ = c.Cookie(name)
		}
		if _, err := uuid.Parse(sessionID); err != nil {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(name, sessionID, maxAge, "/", "", false, true)
		}
		c.Set(sessionIDKey, sessionID)
		c.Writer.Header().Set(sessionIDHeader, sessionID)
		c.Next()
	}
}

// StorefrontClaims 上游签发令牌中的身份字段
type StorefrontClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	jwt.RegisteredClaims
}

// IdentityMiddleware 解析令牌与角色，构建请求身份
// 令牌为 JWT 时读取声明（配置密钥时校验 HS256 签名）；否则从 cookie/请求头读取角色与用户 id
func IdentityMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	tokenCookie := strings.TrimSpace(cfg.TokenCookie)
	if tokenCookie == "" {
		tokenCookie = defaultTokenCookie
	}
	roleCookie := strings.TrimSpace(cfg.RoleCookie)
	if roleCookie == "" {
		roleCookie = defaultRoleCookie
	}
	secret := strings.TrimSpace(cfg.JWTSecret)
	return func(c *gin.Context) {
		id := identity.Identity{SessionID: getContextString(c, sessionIDKey)}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(tokenCookie)
		}
		token = strings.TrimSpace(token)

		if token != "" {
			claims, isJWT, err := parseClaims(token, secret)
			switch {
			case isJWT && err != nil:
				logger.FromContext(c.Request.Context()).Debugw("identity_token_invalid", "error", err)
				token = ""
			case isJWT:
				id.UserID = claims.UserID
				if id.UserID == 0 {
					id.UserID = parseUint(claims.Subject)
				}
				id.Role = claims.Role
				id.Email = claims.Email
				id.Name = claims.Name
				id.Phone = claims.Phone
			default:
				id.UserID = parseUint(firstNonEmpty(c.GetHeader(userIDHeader), cookieValue(c, userIDCookie)))
			}
			if id.Role == "" {
				id.Role = firstNonEmpty(c.GetHeader(roleHeader), cookieValue(c, roleCookie))
			}
			id.Token = token
		}

		handlershared.SetIdentity(c, id)
		ctx := commerce.ContextWithToken(c.Request.Context(), id.Token)
		ctx = logger.WithContext(ctx, "owner", id.Owner())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RoleGuardMiddleware 角色路由守卫：未登录返回 401 与登录跳转提示，角色不符返回 403
func RoleGuardMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := handlershared.CurrentIdentity(c)
		if !id.Authenticated() {
			response.ErrorWithData(c, response.CodeUnauthorized, msgLoginRequired, gin.H{
				"redirect": loginRedirect(c.Request.URL.Path),
			})
			c.Abort()
			return
		}
		if authzService == nil {
			logger.Errorw("role_guard_service_unavailable")
			response.Error(c, response.CodeInternal, msgAuthzFailed)
			c.Abort()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		decision, err := authzService.Check(id.Subject(), resource, c.Request.Method)
		if err != nil {
			logger.FromContext(c.Request.Context()).Errorw("role_guard_enforce_failed",
				"role", id.Subject(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			response.Error(c, response.CodeInternal, msgAuthzFailed)
			c.Abort()
			return
		}
		if !decision.Allowed {
			logger.FromContext(c.Request.Context()).Warnw("role_guard_denied",
				"role", decision.Role,
				"method", decision.Action,
				"resource", decision.Object,
			)
			response.ErrorWithData(c, response.CodeForbidden, msgForbidden, gin.H{"redirect": "/unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func loginRedirect(path string) string {
	return "/login?redirect=" + url.QueryEscape(authz.NormalizeObject(path))
}

// parseClaims 返回声明、是否为 JWT 以及校验错误
func parseClaims(token, secret string) (*StorefrontClaims, bool, error) {
	if strings.Count(token, ".") != 2 {
		return nil, false, nil
	}
	claims := &StorefrontClaims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, true, err
		}
		if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
			return nil, true, jwt.ErrTokenExpired
		}
		return claims, true, nil
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, true, err
	}
	if !parsed.Valid {
		return nil, true, jwt.ErrTokenSignatureInvalid
	}
	return claims, true, nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func cookieValue(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

func getContextString(c *gin.Context, key string) string {
	value, ok := c.Get(key)
	if !ok {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func parseUint(raw string) uint {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
