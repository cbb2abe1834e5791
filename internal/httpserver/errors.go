package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/pkg/logging"
)

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details map[string]any    `json:"details,omitempty"`
}

type mapping struct {
	sentinel error
	status   int
	code     string
}

var mappings = []mapping{
	{service.ErrValidation, http.StatusBadRequest, "BAD_USER_INPUT"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrStoreNotFound, http.StatusNotFound, "STORE_NOT_FOUND"},
	{service.ErrAddressNotFound, http.StatusNotFound, "ADDRESS_NOT_FOUND"},
	{service.ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{service.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{service.ErrNotificationNotFound, http.StatusNotFound, "NOTIFICATION_NOT_FOUND"},
	{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{service.ErrProductStoreMismatch, http.StatusUnprocessableEntity, "PRODUCT_STORE_MISMATCH"},
	{service.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
	{service.ErrInvalidTransition, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
	{service.ErrConflict, http.StatusConflict, "CONFLICT"},
	{service.ErrRequestInProgress, http.StatusConflict, "REQUEST_IN_PROGRESS"},
	{service.ErrBusy, http.StatusServiceUnavailable, "BUSY"},
}

func classify(err error) (int, errorBody) {
	for _, m := range mappings {
		if !errors.Is(err, m.sentinel) {
			continue
		}
		body := errorBody{Code: m.code, Message: err.Error()}

		var ve *service.ValidationError
		if errors.As(err, &ve) {
			body.Fields = ve.Fields
		}
		var se *service.StockError
		if errors.As(err, &se) {
			body.Details = map[string]any{
				"product_id": se.ProductID,
				"available":  se.Available,
				"requested":  se.Requested,
			}
		}
		return m.status, body
	}
	return http.StatusInternalServerError, errorBody{Code: "INTERNAL", Message: "internal error"}
}

// writeError is the single point where service errors become HTTP responses.
func writeError(c echo.Context, l *slog.Logger, op string, err error) error {
	status, body := classify(err)

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		l.Error(op+"_error", "status", status, "reason", body.Code, "error", err)
	} else {
		l.Warn(op+"_error", "status", status, "reason", body.Code, "error", err)
	}

	if status == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", "1")
	}
	return c.JSON(status, body)
}

// HTTPErrorHandler renders echo errors (binding, routing, auth) in the same body shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		status, body := classify(err)
		if status == http.StatusInternalServerError {
			logging.FromContext(c.Request().Context()).Error("unhandled_error", "error", err)
		}
		_ = c.JSON(status, body)
		return
	}

	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok {
		msg = m
	}
	code := "INTERNAL"
	switch he.Code {
	case http.StatusBadRequest:
		code = "BAD_USER_INPUT"
	case http.StatusUnauthorized:
		code = "UNAUTHENTICATED"
	case http.StatusForbidden:
		code = "FORBIDDEN"
	case http.StatusNotFound:
		code = "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		code = "BAD_USER_INPUT"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, errorBody{Code: code, Message: msg})
}
