package main

import (
	"context"
	"errors"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redderi/avatar-colour/adapters/hasher"
	"github.com/redderi/avatar-colour/adapters/http"
	"github.com/redderi/avatar-colour/adapters/message_broker"
	"github.com/redderi/avatar-colour/adapters/websocket"
	"github.com/redderi/avatar-colour/usecase"
	"github.com/redderi/avatar-colour/utils/config"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()
	log.Init(cfg.Debug)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()

	avatars := usecase.NewAvatarService(hasher.New(), broker)
	avatarHandler := http.NewAvatarHandler(avatars, cfg)

	server := websocket.NewServer(avatars.Resolve, broker, avatarHandler)
	go server.ListenAssignments(ctx)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Recover())
	e.Use(http.RequestIDMiddleware)
	e.Use(middleware.Logger())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
		},
		MaxAge: 86400,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	wsGroup := e.Group("/ws")
	wsGroup.Use(server.JWTMiddleware)
	wsGroup.GET("", server.Handler)

	// Colour endpoints share one in-flight limit
	avatarHandler.Register(e.Group("/api/v1"))

	go func() {
		log.With(zap.String("addr", cfg.Addr())).Info("Starting server")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.With(zap.Error(err)).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server.Shutdown(shutdownCtx)
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.With(zap.Error(err)).Error("Graceful shutdown failed")
	}
	log.With().Info("Server stopped")
}
