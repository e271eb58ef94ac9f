package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productDocument struct {
	ID                primitive.ObjectID   `bson:"_id,omitempty"`
	Name              string               `bson:"name"`
	Description       string               `bson:"description"`
	Price             primitive.Decimal128 `bson:"price"`
	Image             string               `bson:"image"`
	Slug              string               `bson:"slug"`
	ImageHint         string               `bson:"imageHint"`
	AvailableQuantity int                  `bson:"availableQuantity"`
	IsVisible         bool                 `bson:"isVisible"`
}

type orderItemDocument struct {
	ProductID string               `bson:"productId"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type orderDocument struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	CustomerName  string               `bson:"customerName"`
	CustomerEmail string               `bson:"customerEmail"`
	Items         []orderItemDocument  `bson:"items"`
	Total         primitive.Decimal128 `bson:"total"`
	Status        string               `bson:"status"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"passwordHash"`
}

// parseObjectID переводит внешний строковый id во внутренний ObjectID.
func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("convert %s to decimal128: %w", d.String(), err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("convert decimal128 %s: %w", v.String(), err)
	}
	return d, nil
}

// patchFields собирает содержимое $set из заданных полей патча.
// Смена названия тянет за собой slug.
func patchFields(patch domain.ProductPatch) (bson.D, error) {
	fields := bson.D{}
	if patch.Name != nil {
		fields = append(fields,
			bson.E{Key: "name", Value: *patch.Name},
			bson.E{Key: "slug", Value: domain.Slugify(*patch.Name)})
	}
	if patch.Description != nil {
		fields = append(fields, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Price != nil {
		price, err := toDecimal128(*patch.Price)
		if err != nil {
			return nil, err
		}
		fields = append(fields, bson.E{Key: "price", Value: price})
	}
	if patch.Image != nil {
		fields = append(fields, bson.E{Key: "image", Value: *patch.Image})
	}
	if patch.ImageHint != nil {
		fields = append(fields, bson.E{Key: "imageHint", Value: *patch.ImageHint})
	}
	if patch.AvailableQuantity != nil {
		fields = append(fields, bson.E{Key: "availableQuantity", Value: *patch.AvailableQuantity})
	}
	if patch.IsVisible != nil {
		fields = append(fields, bson.E{Key: "isVisible", Value: *patch.IsVisible})
	}
	return fields, nil
}

// newProductDocument не переносит ID: его назначает MongoDB.
func newProductDocument(p domain.Product) (productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDocument{}, err
	}
	return productDocument{
		Name:              p.Name,
		Description:       p.Description,
		Price:             price,
		Image:             p.Image,
		Slug:              p.Slug,
		ImageHint:         p.ImageHint,
		AvailableQuantity: p.AvailableQuantity,
		IsVisible:         p.IsVisible,
	}, nil
}

func (d productDocument) toDomain() (domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:                d.ID.Hex(),
		Name:              d.Name,
		Description:       d.Description,
		Price:             price,
		Image:             d.Image,
		Slug:              d.Slug,
		ImageHint:         d.ImageHint,
		AvailableQuantity: d.AvailableQuantity,
		IsVisible:         d.IsVisible,
	}, nil
}

func newOrderDocument(o domain.Order) (orderDocument, error) {
	total, err := toDecimal128(o.Total)
	if err != nil {
		return orderDocument{}, err
	}
	items := make([]orderItemDocument, 0, len(o.Items))
	for _, item := range o.Items {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return orderDocument{}, err
		}
		items = append(items, orderItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return orderDocument{
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		Items:         items,
		Total:         total,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
	}, nil
}

func (d orderDocument) toDomain() (domain.Order, error) {
	total, err := fromDecimal128(d.Total)
	if err != nil {
		return domain.Order{}, err
	}
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return domain.Order{}, err
		}
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     price,
		})
	}
	return domain.Order{
		ID:            d.ID.Hex(),
		CustomerName:  d.CustomerName,
		CustomerEmail: d.CustomerEmail,
		Items:         items,
		Total:         total,
		Status:        domain.OrderStatus(d.Status),
		CreatedAt:     d.CreatedAt.UTC(),
	}, nil
}

func (d userDocument) toDomain() domain.User {
	return domain.User{ID: d.ID.Hex(), Email: d.Email, PasswordHash: d.PasswordHash}
}
