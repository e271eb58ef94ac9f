package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// serveView отдаёт представление из кэша или строит его через load и кладёт в кэш.
// Ошибки load кэш не трогают. Ответ, построенный до сброса ключа, в кэш не попадает.
func (h *handler) serveView(c echo.Context, key domain.ViewKey, load func() (interface{}, error)) error {
	ctx := c.Request().Context()
	var gen uint64
	if h.Cache != nil {
		if payload, hit := h.Cache.Get(ctx, key); hit {
			c.Response().Header().Set("X-View-Cache", "hit")
			return c.JSONBlob(http.StatusOK, payload)
		}
		gen = h.Cache.Generation(key)
	}

	data, err := load()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(envelope{Data: data})
	if err != nil {
		return err
	}
	if h.Cache != nil {
		if h.Cache.SetIfCurrent(ctx, key, payload, gen) {
			c.Response().Header().Set("X-View-Cache", "miss")
		} else {
			c.Response().Header().Set("X-View-Cache", "stale")
		}
	}
	return c.JSONBlob(http.StatusOK, payload)
}
