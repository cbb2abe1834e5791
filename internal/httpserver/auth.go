package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/pkg/logging"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func setPair(c echo.Context, pair *tokens.Pair) error {
	for _, ck := range tokens.PairCookies(pair) {
		c.SetCookie(ck)
	}
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		Role:         pair.Role,
	})
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "register", err)
	}

	user, err := h.Svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return writeError(c, l, "register", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, l, "login", err)
	}

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return writeError(c, l, "login", err)
	}
	return setPair(c, pair)
}

func refreshToken(c echo.Context) (string, error) {
	var req transport.RefreshRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return "", &service.ValidationError{Fields: map[string]string{"body": "must be valid JSON"}}
		}
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if ck, err := c.Cookie(tokens.RefreshCookie); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	return "", service.ErrInvalidRefreshToken
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	token, err := refreshToken(c)
	if err != nil {
		return writeError(c, l, "refresh", err)
	}

	pair, err := h.Svc.Refresh(ctx, token)
	if err != nil {
		c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
		c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
		return writeError(c, l, "refresh", err)
	}
	return setPair(c, pair)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if token, err := refreshToken(c); err == nil {
		if err := h.Svc.Logout(ctx, token); err != nil {
			l.Warn("logout_error", "status", http.StatusOK, "reason", "revoke failed", "error", err)
		}
	}

	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) BecomeSeller(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.become_seller")

	pair, err := h.Svc.BecomeSeller(ctx, identity(c))
	if err != nil {
		return writeError(c, l, "become_seller", err)
	}

	l.Info("role_upgraded", "role", pair.Role)
	return setPair(c, pair)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	profile, err := h.Svc.Me(ctx, identity(c))
	if err != nil {
		return writeError(c, l, "me", err)
	}
	return c.JSON(http.StatusOK, profile)
}
