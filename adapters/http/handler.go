package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redderi/avatar-colour/domain"
	"github.com/redderi/avatar-colour/usecase"
	"github.com/redderi/avatar-colour/utils/config"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

const (
	MaxConcurrent = 64
	TokenIssuer   = "avatar-colour"
)

type AvatarHandler struct {
	avatars   *usecase.AvatarService
	jwtSecret []byte
	jwtExpiry time.Duration
	apiKey    string
	apiSecret string
	service   string
	inflight  chan struct{}
	now       func() time.Time
}

type AvatarResponse struct {
	Username string     `json:"username"`
	Initial  string     `json:"initial"`
	Hex      string     `json:"hex"`
	R        float32    `json:"r"`
	G        float32    `json:"g"`
	B        float32    `json:"b"`
	RGB      [3]float32 `json:"rgb"`
	Fallback bool       `json:"fallback,omitempty"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type JWTClaims struct {
	jwt.RegisteredClaims
}

func NewAvatarHandler(avatars *usecase.AvatarService, cfg config.Config) *AvatarHandler {
	return &AvatarHandler{
		avatars:   avatars,
		jwtSecret: cfg.JWTSecret,
		jwtExpiry: cfg.JWTExpiry,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		service:   cfg.ServiceTag,
		inflight:  make(chan struct{}, MaxConcurrent),
		now:       time.Now,
	}
}

func newAvatarResponse(a domain.Avatar) AvatarResponse {
	return AvatarResponse{
		Username: a.Username,
		Initial:  a.Initial,
		Hex:      a.Hex,
		R:        a.Colour.R,
		G:        a.Colour.G,
		B:        a.Colour.B,
		RGB:      a.Colour.Triple(),
	}
}

// GenerateJWT issues a token whose subject is the username the client acts as.
func (h *AvatarHandler) GenerateJWT(c echo.Context) error {
	key := c.Request().Header.Get("X-API-Key")
	secret := c.Request().Header.Get("X-API-Secret")

	if key != h.apiKey || secret != h.apiSecret {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	username := c.FormValue("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}

	now := h.now()
	expiresAt := now.Add(h.jwtExpiry)
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.WithCtx(requestContext(c)).Error("Error signing JWT", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     tokenString,
		Type:      "Bearer",
		ExpiresAt: expiresAt.UTC(),
	})
}

// JWTMiddleware rejects requests without a valid bearer token and stores the
// token subject under "username".
func (h *AvatarHandler) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		username, err := h.ParseToken(tokenString)
		if err != nil {
			log.WithCtx(requestContext(c)).Debug("JWT validation error", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		c.Set("username", username)
		return next(c)
	}
}

// ParseToken validates tokenString and returns its subject.
func (h *AvatarHandler) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return h.jwtSecret, nil
	}, jwt.WithIssuer(TokenIssuer), jwt.WithTimeFunc(h.now))
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", errors.New("invalid token claims")
	}
	return claims.Subject, nil
}

// RateLimitMiddleware caps in-flight requests across every route it wraps.
func (h *AvatarHandler) RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		select {
		case h.inflight <- struct{}{}:
			defer func() { <-h.inflight }()
			return next(c)
		default:
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many concurrent requests")
		}
	}
}

// GetColour resolves the colour of the :username path parameter.
// With ?fallback=true an underivable colour yields grey instead of 400.
func (h *AvatarHandler) GetColour(c echo.Context) error {
	username := c.Param("username")
	// the router matches on RawPath when set, leaving params escaped
	if c.Request().URL.RawPath != "" {
		unescaped, err := url.PathUnescape(username)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "InvalidInput: malformed username")
		}
		username = unescaped
	}
	return h.respond(c, username, c.QueryParam("fallback") == "true")
}

// GetMyColour resolves the colour of the authenticated user.
func (h *AvatarHandler) GetMyColour(c echo.Context) error {
	username, _ := c.Get("username").(string)
	return h.respond(c, username, false)
}

func (h *AvatarHandler) respond(c echo.Context, username string, fallback bool) error {
	ctx := context.WithValue(requestContext(c), log.UsernameKey, username)

	avatar, err := h.avatars.Resolve(ctx, username)
	if errors.Is(err, domain.ErrInvalidInput) {
		if fallback {
			resp := newAvatarResponse(h.avatars.Fallback(username))
			resp.Fallback = true
			return c.JSON(http.StatusOK, resp)
		}
		return echo.NewHTTPError(http.StatusBadRequest, "InvalidInput: username must not be empty")
	}
	if err != nil {
		log.WithCtx(ctx).Error("Failed to resolve avatar", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to resolve colour")
	}

	return c.JSON(http.StatusOK, newAvatarResponse(avatar))
}

// Register mounts the API routes on g, normally the /api/v1 group.
func (h *AvatarHandler) Register(g *echo.Group) {
	g.GET("/health", h.HealthCheck)
	g.POST("/auth/token", h.GenerateJWT)

	// "/colours/" has no param segment, so it is routed explicitly
	g.GET("/colours/", h.GetColour, h.RateLimitMiddleware)
	g.GET("/colours/:username", h.GetColour, h.RateLimitMiddleware)
	g.GET("/me/colour", h.GetMyColour, h.JWTMiddleware, h.RateLimitMiddleware)
}

// Health check endpoint
func (h *AvatarHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC(),
		"service":   h.service,
	})
}

// RequestIDMiddleware tags each request with an ID for log correlation.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)

		ctx := context.WithValue(c.Request().Context(), log.RequestIDKey, id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func requestContext(c echo.Context) context.Context {
	return c.Request().Context()
}
