package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/service"
	"github.com/Skotchmaster/marketplace/internal/util"
	"github.com/Skotchmaster/marketplace/pkg/middleware/auth"
)

type page[T any] struct {
	Data []T       `json:"data"`
	Meta util.Meta `json:"meta"`
}

func identity(c echo.Context) service.Identity {
	uid, _ := auth.UserID(c)
	return service.Identity{UserID: uid, Role: auth.Role(c)}
}

// bind decodes and validates the request body. Decode failures surface as
// validation errors so every 400 has the same shape.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &service.ValidationError{Fields: map[string]string{"body": "must be valid JSON"}}
	}
	return c.Validate(req)
}

func pathID(c echo.Context, name string) (uint, error) {
	id, ok := util.ParseUint(c.Param(name))
	if !ok {
		return 0, &service.ValidationError{Fields: map[string]string{name: "must be a positive integer"}}
	}
	return id, nil
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit = util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return page, offset, limit
}

func paged[T any](c echo.Context, pg, offset, limit int, total int64, data []T) error {
	if data == nil {
		data = []T{}
	}
	return c.JSON(http.StatusOK, page[T]{Data: data, Meta: util.NewMeta(pg, offset, limit, total)})
}
