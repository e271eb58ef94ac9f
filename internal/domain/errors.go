package domain

import "errors"

var (
	// ErrInvalidID: идентификатор не соответствует формату хранилища.
	// Проверяется до обращения к хранилищу и отличается от "не найдено".
	ErrInvalidID = errors.New("invalid id format")
	// ErrProductNotFound возвращается, если товар не найден.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists: заказ с таким ID уже сохранён.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderStatusUnchanged: заказ уже находится в запрошенном статусе.
	ErrOrderStatusUnchanged = errors.New("order status not modified")
	// ErrInvalidOrderStatus: статус не входит в перечисление.
	ErrInvalidOrderStatus = errors.New("invalid order status")
	// ErrStockNotDecreased: заказ сохранён, но остатки не списаны. Откат не выполняется.
	ErrStockNotDecreased = errors.New("order persisted but stock was not decreased")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists: пользователь с таким email уже есть.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials: неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrRecommendationsUnavailable: сервис рекомендаций не настроен или вернул ошибку.
	ErrRecommendationsUnavailable = errors.New("recommendations unavailable")
)

// IsNotFound проверяет, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
