package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// Refresher rotates a refresh token into a new pair.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error)
}

type Middleware struct {
	JWTSecret []byte
	Refresher Refresher
}

func New(secret []byte, refresher Refresher) *Middleware {
	return &Middleware{JWTSecret: secret, Refresher: refresher}
}

type validatorFunc func(claims *tokens.AccessClaims) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Middleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
			if !slices.Contains(roles, claims.Role) {
				return echo.NewHTTPError(http.StatusForbidden, "you don't have enough rights to perform this action")
			}
			return nil
		})
	}
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireRole("admin")(next)
}

func (m *Middleware) requireAuthWithValidator(next echo.HandlerFunc, validator validatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, fromCookie := accessToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil {
			// only cookie sessions can be refreshed transparently
			if !fromCookie || !errors.Is(err, jwt.ErrTokenExpired) || m.Refresher == nil {
				if fromCookie {
					clearAuthCookies(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			claims, err = m.refresh(c)
			if err != nil {
				clearAuthCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "refresh failed")
			}
		}

		if validator != nil {
			if vErr := validator(claims); vErr != nil {
				return vErr
			}
		}

		if err := setUserContext(c, claims); err != nil {
			return err
		}
		return next(c)
	}
}

func (m *Middleware) refresh(c echo.Context) (*tokens.AccessClaims, error) {
	refreshCookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || refreshCookie.Value == "" {
		return nil, errors.New("refresh token missing")
	}

	pair, err := m.Refresher.Refresh(c.Request().Context(), refreshCookie.Value)
	if err != nil {
		return nil, err
	}
	for _, ck := range tokens.PairCookies(pair) {
		c.SetCookie(ck)
	}
	return tokens.AccessClaimsFromToken(pair.AccessToken, m.JWTSecret)
}

func accessToken(c echo.Context) (string, bool) {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return "", false
		}
		return strings.TrimSpace(token), false
	}
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil {
		return ck.Value, true
	}
	return "", false
}

func clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/"))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) error {
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
	}
	c.Set(CtxUserID, uint(id))
	c.Set(CtxRole, claims.Role)
	return nil
}

// UserID returns the authenticated caller set by the middleware.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(CtxUserID).(uint)
	return id, ok && id != 0
}

func Role(c echo.Context) string {
	role, _ := c.Get(CtxRole).(string)
	return role
}
