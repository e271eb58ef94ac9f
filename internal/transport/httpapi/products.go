package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRequest struct {
	Name              string          `json:"name" validate:"required,notblank"`
	Description       string          `json:"description" validate:"required,notblank"`
	Price             decimal.Decimal `json:"price" validate:"gte=0.01"`
	Image             string          `json:"image" validate:"omitempty,url"`
	ImageHint         string          `json:"imageHint"`
	AvailableQuantity *int            `json:"availableQuantity" validate:"required,gte=0"`
	IsVisible         bool            `json:"isVisible"`
}

type productPatchRequest struct {
	Name              *string          `json:"name" validate:"omitnil,notblank"`
	Description       *string          `json:"description" validate:"omitnil,notblank"`
	Price             *decimal.Decimal `json:"price" validate:"omitempty,gte=0.01"`
	Image             *string          `json:"image" validate:"omitempty,url"`
	ImageHint         *string          `json:"imageHint"`
	AvailableQuantity *int             `json:"availableQuantity" validate:"omitempty,gte=0"`
	IsVisible         *bool            `json:"isVisible"`
}

func (r productPatchRequest) patch() domain.ProductPatch {
	p := domain.ProductPatch{
		Description:       r.Description,
		Price:             r.Price,
		Image:             r.Image,
		ImageHint:         r.ImageHint,
		AvailableQuantity: r.AvailableQuantity,
		IsVisible:         r.IsVisible,
	}
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		p.Name = &name
	}
	return p
}

func (h *handler) listVisibleProducts(c echo.Context) error {
	return h.serveView(c, domain.ViewHomepage, func() (interface{}, error) {
		return h.Catalog.List(c.Request().Context(), false)
	})
}

func (h *handler) listInventory(c echo.Context) error {
	return h.serveView(c, domain.ViewInventory, func() (interface{}, error) {
		return h.Catalog.List(c.Request().Context(), true)
	})
}

func (h *handler) getProduct(c echo.Context) error {
	slug := c.Param("slug")
	err := h.serveView(c, domain.ProductView(slug), func() (interface{}, error) {
		return h.Catalog.GetBySlug(c.Request().Context(), slug)
	})
	if errors.Is(err, domain.ErrProductNotFound) {
		return fail(c, http.StatusNotFound, codeNotFound, "Product not found")
	}
	return err
}

func (h *handler) getProductByID(c echo.Context) error {
	product, err := h.Catalog.GetByID(c.Request().Context(), c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrInvalidID):
		return fail(c, http.StatusBadRequest, codeInvalidID, "Invalid product ID")
	case errors.Is(err, domain.ErrProductNotFound):
		return fail(c, http.StatusNotFound, codeNotFound, "Product not found")
	case err != nil:
		return err
	}
	return ok(c, product)
}

func (h *handler) createProduct(c echo.Context) error {
	var req productRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}

	product, err := h.Catalog.Add(c.Request().Context(), domain.ProductInput{
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		Price:             req.Price,
		Image:             strings.TrimSpace(req.Image),
		ImageHint:         req.ImageHint,
		AvailableQuantity: *req.AvailableQuantity,
		IsVisible:         req.IsVisible,
	})
	if err != nil {
		return err
	}
	return created(c, product)
}

// updateProduct и deleteProduct не различают "нет такого товара" и успех.
func (h *handler) updateProduct(c echo.Context) error {
	var req productPatchRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}
	if err := h.Catalog.Update(c.Request().Context(), c.Param("id"), req.patch()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) deleteProduct(c echo.Context) error {
	if err := h.Catalog.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
