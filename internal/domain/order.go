package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает состояние заказа. Граф переходов не навязывается:
// администратор может выставить любой статус.
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// ParseOrderStatus проверяет, что строка: один из известных статусов.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", ErrInvalidOrderStatus
	}
	return status, nil
}

// Valid сообщает, входит ли статус в перечисление.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// OrderItem: снимок позиции корзины на момент покупки.
// Последующие изменения товара на заказ не влияют.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order агрегирует данные оформленного заказа.
type Order struct {
	ID            string          `json:"id"`
	CustomerName  string          `json:"customerName"`
	CustomerEmail string          `json:"customerEmail"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Customer: контактные данные покупателя из формы оформления.
type Customer struct {
	Name  string
	Email string
}

// CartItem: строка корзины, переданная клиентом при оформлении.
type CartItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// SnapshotItems копирует строки корзины в позиции заказа.
func SnapshotItems(cart []CartItem) []OrderItem {
	items := make([]OrderItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}
	return items
}

// StockDecrements формирует списания остатков по строкам корзины.
func StockDecrements(cart []CartItem) []StockDecrement {
	out := make([]StockDecrement, 0, len(cart))
	for _, line := range cart {
		out = append(out, StockDecrement{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out
}

// Clone возвращает копию заказа с независимым срезом позиций.
func (o Order) Clone() Order {
	o.Items = append([]OrderItem(nil), o.Items...)
	return o
}
