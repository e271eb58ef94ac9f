package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type cartRecommendationRequest struct {
	Descriptions []string `json:"descriptions"`
}

type historyRecommendationRequest struct {
	History []string `json:"history"`
}

func (h *handler) recommendForCart(c echo.Context) error {
	var req cartRecommendationRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}
	return h.recommend(c, req.Descriptions, h.Recommender.ForCart)
}

func (h *handler) recommendForHistory(c echo.Context) error {
	var req historyRecommendationRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}
	return h.recommend(c, req.History, h.Recommender.ForHistory)
}

func (h *handler) recommend(c echo.Context, inputs []string, fn func(context.Context, []string) ([]domain.Recommendation, error)) error {
	recs, err := fn(c.Request().Context(), inputs)
	if errors.Is(err, domain.ErrRecommendationsUnavailable) {
		return fail(c, http.StatusServiceUnavailable, codeUnavailable, "Failed to fetch recommendations")
	}
	if err != nil {
		return err
	}
	return ok(c, recs)
}
