package domain

import "strings"

// ViewKey именует закэшированное представление, которое нужно обновить после изменения данных.
type ViewKey string

const (
	// ViewInventory: список товаров в админке.
	ViewInventory ViewKey = "inventory"
	// ViewHomepage: витрина с видимыми товарами.
	ViewHomepage ViewKey = "homepage"
	// ViewOrders: список заказов в админке.
	ViewOrders ViewKey = "orders"

	productViewPrefix = "product:"
)

// ProductView возвращает ключ карточки товара по slug.
func ProductView(slug string) ViewKey {
	return ViewKey(productViewPrefix + slug)
}

// Kind возвращает вид представления без параметра (для меток метрик).
func (k ViewKey) Kind() string {
	if strings.HasPrefix(string(k), productViewPrefix) {
		return "product"
	}
	return string(k)
}
