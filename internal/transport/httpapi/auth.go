package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// login только проверяет учётные данные; сессии выдаёт внешний слой.
func (h *handler) login(c echo.Context) error {
	var req loginRequest
	if handled, err := bindAndValidate(c, &req); handled {
		return err
	}

	user, err := h.Auth.Authenticate(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return fail(c, http.StatusUnauthorized, codeUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return err
	}
	return ok(c, user)
}
