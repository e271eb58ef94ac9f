// Package httpapi: JSON API витрины поверх echo: каталог, оформление заказа,
// админка товаров и заказов, рекомендации и проверка учётных данных.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/invalidation"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Catalog: операции репозитория товаров, нужные API.
type Catalog interface {
	List(ctx context.Context, includeHidden bool) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (domain.Product, error)
	Add(ctx context.Context, input domain.ProductInput) (domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) error
	Delete(ctx context.Context, id string) error
}

// Orders: операции репозитория заказов.
type Orders interface {
	List(ctx context.Context) ([]domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, error)
	Create(ctx context.Context, customer domain.Customer, cart []domain.CartItem, total decimal.Decimal) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// Authenticator проверяет учётные данные администратора.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
}

// Recommender: сервис рекомендаций.
type Recommender interface {
	ForCart(ctx context.Context, descriptions []string) ([]domain.Recommendation, error)
	ForHistory(ctx context.Context, history []string) ([]domain.Recommendation, error)
}

// Deps: зависимости API. Cache и Metrics необязательны.
type Deps struct {
	Catalog     Catalog
	Orders      Orders
	Auth        Authenticator
	Recommender Recommender
	Cache       invalidation.ViewCache
	Metrics     *metrics.StorefrontMetrics
	Logger      *log.Entry
}

type handler struct {
	Deps
}

// New собирает echo-приложение со всеми маршрутами.
func New(deps Deps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = log.WithField("component", "httpapi")
	}
	h := &handler{Deps: deps}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = h.handleError

	e.Use(h.observe)
	e.Use(middleware.Recover())

	api := e.Group("/api")
	api.GET("/products", h.listVisibleProducts)
	api.GET("/products/:slug", h.getProduct)
	api.POST("/checkout", h.checkout)
	api.POST("/recommendations", h.recommendForCart)
	api.POST("/recommendations/history", h.recommendForHistory)

	admin := api.Group("/admin")
	admin.POST("/login", h.login)
	admin.GET("/products", h.listInventory)
	admin.GET("/products/:id", h.getProductByID)
	admin.POST("/products", h.createProduct)
	admin.PUT("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.GET("/orders", h.listOrders)
	admin.GET("/orders/:id", h.getOrder)
	admin.PUT("/orders/:id/status", h.updateOrderStatus)

	return e
}

// observe пишет метрики запросов; маршрут берётся из шаблона, а не из URL.
func (h *handler) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		h.Metrics.RecordHTTPRequest(route, c.Response().Status, time.Since(start))
		return nil
	}
}

// handleError отдаёт клиенту общее сообщение; подробности остаются в логе.
func (h *handler) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			_ = fail(c, he.Code, codeNotFound, "Resource not found")
		case http.StatusMethodNotAllowed:
			_ = fail(c, he.Code, codeMethodNotAllowed, "Method not allowed")
		default:
			_ = fail(c, he.Code, codeInvalidRequest, http.StatusText(he.Code))
		}
		return
	}

	// Отсутствие сущности, не разобранное обработчиком, остаётся 404.
	if domain.IsNotFound(err) {
		_ = fail(c, http.StatusNotFound, codeNotFound, "Resource not found")
		return
	}

	h.Logger.WithError(err).WithFields(log.Fields{
		"method": c.Request().Method,
		"path":   c.Path(),
	}).Error("request failed")
	_ = fail(c, http.StatusInternalServerError, codeInternal, "Internal server error")
}

// bindAndValidate разбирает тело запроса и проверяет его.
// При ошибке ответ уже записан, и вызывающий должен вернуть handled.
func bindAndValidate(c echo.Context, req interface{}) (handled bool, err error) {
	if err := c.Bind(req); err != nil {
		return true, fail(c, http.StatusBadRequest, codeInvalidRequest, "Unable to parse request body")
	}
	if err := c.Validate(req); err != nil {
		if fields := fieldErrors(err); fields != nil {
			return true, failFields(c, fields)
		}
		return true, fail(c, http.StatusBadRequest, codeInvalidRequest, "Invalid request")
	}
	return false, nil
}
