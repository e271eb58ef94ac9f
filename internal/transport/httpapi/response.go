package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// envelope: общий формат ответа API.
type envelope struct {
	Data  interface{} `json:"data,omitempty"`
	Error *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const (
	codeInvalidRequest   = "INVALID_REQUEST"
	codeValidation       = "VALIDATION_FAILED"
	codeInvalidID        = "INVALID_ID"
	codeNotFound         = "NOT_FOUND"
	codeStatusUnchanged  = "STATUS_UNCHANGED"
	codeInvalidStatus    = "INVALID_STATUS"
	codeUnauthorized     = "INVALID_CREDENTIALS"
	codeUnavailable      = "UNAVAILABLE"
	codeInternal         = "INTERNAL_ERROR"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, envelope{Data: data})
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, envelope{Data: data})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, envelope{Error: &apiError{Code: code, Message: message}})
}

func failFields(c echo.Context, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, envelope{Error: &apiError{
		Code:    codeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	}})
}
