package websocket

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redderi/avatar-colour/utils/log"
	"go.uber.org/zap"
)

// JWTMiddleware accepts the token from the Authorization header or, for
// browsers that cannot set headers on upgrade requests, a token query param.
func (s *Server) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = c.QueryParam("token")
		}
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
		}

		username, err := s.tokens.ParseToken(token)
		if err != nil {
			log.WithCtx(c.Request().Context()).Debug("WebSocket token rejected", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		c.Set("username", username)
		return next(c)
	}
}

// Handler upgrades "/ws" and blocks until the connection ends.
func (s *Server) Handler(c echo.Context) error {
	username, _ := c.Get("username").(string)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(conn, username, s.resolve)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	client.Run()

	<-client.Context().Done()
	return nil
}
