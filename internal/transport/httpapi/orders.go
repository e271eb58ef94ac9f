package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type customerRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type cartItemRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
}

type checkoutRequest struct {
	Customer customerRequest   `json:"customer"`
	Items    []cartItemRequest `json:"items" validate:"required,min=1,dive"`
	Total    decimal.Decimal   `json:"total" validate:"gte=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *handler) checkout(c echo.Context) error {
	var req checkoutRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}

	cart := make([]domain.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		cart = append(cart, domain.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.Orders.Create(c.Request().Context(),
		domain.Customer{Name: req.Customer.Name, Email: req.Customer.Email}, cart, req.Total)
	if err != nil {
		// Заказ уже сохранён; покупателю отвечаем успехом, расхождение остатков видно в логе и метриках.
		if errors.Is(err, domain.ErrStockNotDecreased) {
			h.Logger.WithError(err).WithField("order_id", order.ID).Warn("order placed without stock decrement")
			return created(c, order)
		}
		return err
	}
	return created(c, order)
}

func (h *handler) listOrders(c echo.Context) error {
	return h.serveView(c, domain.ViewOrders, func() (interface{}, error) {
		return h.Orders.List(c.Request().Context())
	})
}

// getOrder не кэшируется: админка открывает заказ редко.
func (h *handler) getOrder(c echo.Context) error {
	order, err := h.Orders.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, domain.ErrInvalidID) {
		return fail(c, http.StatusBadRequest, codeInvalidID, "Invalid order ID")
	}
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *handler) updateOrderStatus(c echo.Context) error {
	var req statusRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}

	err := h.Orders.UpdateStatus(c.Request().Context(), c.Param("id"), domain.OrderStatus(req.Status))
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, domain.ErrInvalidOrderStatus):
		return fail(c, http.StatusBadRequest, codeInvalidStatus, "Unknown order status")
	case errors.Is(err, domain.ErrInvalidID):
		return fail(c, http.StatusBadRequest, codeInvalidID, "Invalid order ID")
	case errors.Is(err, domain.ErrOrderNotFound):
		return fail(c, http.StatusNotFound, codeNotFound, "Order not found")
	case errors.Is(err, domain.ErrOrderStatusUnchanged):
		return fail(c, http.StatusConflict, codeStatusUnchanged, "Order already has this status")
	default:
		return err
	}
}
