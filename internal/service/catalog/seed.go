package catalog

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type seedItem struct {
	name        string
	description string
	price       string
	color       string
	hint        string
	quantity    int
}

var seedItems = []seedItem{
	{
		name:        "Classic Denim Jacket",
		description: "A timeless denim jacket, perfect for layering. Made with 100% organic cotton for a comfortable fit and feel. Features classic button-front closure and two chest pockets.",
		price:       "89.99",
		color:       "5E7CE2/FFFFFF",
		hint:        "denim jacket",
		quantity:    10,
	},
	{
		name:        "Linen Blend Shirt",
		description: "Stay cool and stylish with this breathable linen-blend shirt. Ideal for warm weather, it offers a relaxed fit and a sharp look for any casual occasion.",
		price:       "49.99",
		color:       "A2C4C3/FFFFFF",
		hint:        "linen shirt",
		quantity:    15,
	},
	{
		name:        "Slim-Fit Chinos",
		description: "Versatile and modern slim-fit chinos that can be dressed up or down. Crafted from a soft-stretch cotton twill for all-day comfort and a perfect fit.",
		price:       "64.99",
		color:       "D2B48C/333333",
		hint:        "chinos pants",
		quantity:    20,
	},
	{
		name:        "Leather Ankle Boots",
		description: "Step up your shoe game with these stylish leather ankle boots. Featuring a sleek design, durable sole, and cushioned insole for maximum comfort.",
		price:       "129.99",
		color:       "5D4037/FFFFFF",
		hint:        "leather boots",
		quantity:    8,
	},
	{
		name:        "Merino Wool Sweater",
		description: "A luxurious and soft merino wool sweater. This lightweight knit provides excellent warmth and is perfect for layering during colder months. A true wardrobe staple.",
		price:       "99.99",
		color:       "808080/FFFFFF",
		hint:        "wool sweater",
		quantity:    12,
	},
	{
		name:        "Graphic Print T-Shirt",
		description: "Express yourself with this unique graphic print t-shirt. Made from soft, high-quality cotton for a comfortable fit and feel, featuring a bold, artistic design.",
		price:       "34.99",
		color:       "E57373/FFFFFF",
		hint:        "graphic t-shirt",
		quantity:    25,
	},
	{
		name:        "Tailored Wool Blazer",
		description: "A sharp and sophisticated tailored wool blazer. Fully lined with a structured fit, it adds a touch of class to any outfit, whether for business or formal events.",
		price:       "199.99",
		color:       "424242/FFFFFF",
		hint:        "wool blazer",
		quantity:    5,
	},
	{
		name:        "Performance Joggers",
		description: "Comfort meets performance in these stylish joggers. Made with moisture-wicking fabric, they are perfect for the gym or a relaxed day out. Tapered fit and zip pockets.",
		price:       "79.99",
		color:       "37474F/FFFFFF",
		hint:        "performance joggers",
		quantity:    18,
	},
}

// SeedProducts возвращает стартовый каталог из 8 видимых товаров с ID "1".."8".
// Хранилища с собственными ID (MongoDB) переназначают их при вставке.
func SeedProducts() []domain.Product {
	products := make([]domain.Product, 0, len(seedItems))
	for i, item := range seedItems {
		products = append(products, domain.Product{
			ID:                strconv.Itoa(i + 1),
			Name:              item.name,
			Description:       item.description,
			Price:             decimal.RequireFromString(item.price),
			Image:             "https://placehold.co/600x600/" + item.color + ".png",
			Slug:              domain.Slugify(item.name),
			ImageHint:         item.hint,
			AvailableQuantity: item.quantity,
			IsVisible:         true,
		})
	}
	return products
}
