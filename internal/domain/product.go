package domain

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const placeholderImageBase = "https://placehold.co/600x600/cccccc/FFFFFF.png?text="

var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// Product описывает товар каталога витрины.
type Product struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Image             string          `json:"image"`
	Slug              string          `json:"slug"`
	ImageHint         string          `json:"imageHint"`
	AvailableQuantity int             `json:"availableQuantity"`
	IsVisible         bool            `json:"isVisible"`
}

// ProductInput содержит данные нового товара из админки.
// Image можно не указывать: тогда будет сгенерирована заглушка.
type ProductInput struct {
	Name              string
	Description       string
	Price             decimal.Decimal
	Image             string
	ImageHint         string
	AvailableQuantity int
	IsVisible         bool
}

// ProductPatch: частичное обновление товара. nil означает "поле не меняется".
type ProductPatch struct {
	Name              *string
	Description       *string
	Price             *decimal.Decimal
	Image             *string
	ImageHint         *string
	AvailableQuantity *int
	IsVisible         *bool
}

// StockDecrement: уменьшение остатка одного товара.
type StockDecrement struct {
	ProductID string
	Quantity  int
}

// Slugify строит slug из названия: нижний регистр, пробельные последовательности заменяются на "-".
// Уникальность не гарантируется.
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-")
}

// PlaceholderImage возвращает URL картинки-заглушки с названием товара.
// Название кодируется как значение query: "&", "#" и "+" не ломают параметр text.
func PlaceholderImage(name string) string {
	return placeholderImageBase + strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}

// NewProduct собирает товар из входных данных; ID назначает хранилище.
func NewProduct(in ProductInput) Product {
	image := in.Image
	if image == "" {
		image = PlaceholderImage(in.Name)
	}
	return Product{
		Name:              in.Name,
		Description:       in.Description,
		Price:             in.Price,
		Image:             image,
		Slug:              Slugify(in.Name),
		ImageHint:         in.ImageHint,
		AvailableQuantity: in.AvailableQuantity,
		IsVisible:         in.IsVisible,
	}
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil &&
		p.Description == nil &&
		p.Price == nil &&
		p.Image == nil &&
		p.ImageHint == nil &&
		p.AvailableQuantity == nil &&
		p.IsVisible == nil
}

// Apply поэлементно переносит заданные поля патча в копию товара.
// При смене названия slug пересчитывается.
func (p ProductPatch) Apply(product Product) Product {
	if p.Name != nil {
		product.Name = *p.Name
		product.Slug = Slugify(*p.Name)
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Image != nil {
		product.Image = *p.Image
	}
	if p.ImageHint != nil {
		product.ImageHint = *p.ImageHint
	}
	if p.AvailableQuantity != nil {
		product.AvailableQuantity = *p.AvailableQuantity
	}
	if p.IsVisible != nil {
		product.IsVisible = *p.IsVisible
	}
	return product
}

// RemainingStock возвращает остаток после списания qty, не опускаясь ниже нуля.
func RemainingStock(available, qty int) int {
	if rest := available - qty; rest > 0 {
		return rest
	}
	return 0
}
