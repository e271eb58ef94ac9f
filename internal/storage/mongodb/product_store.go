package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// insertionOrder: ObjectID растёт со временем вставки, сортировка по _id
// даёт порядок добавления.
var insertionOrder = bson.D{{Key: "_id", Value: 1}}

type productStore struct {
	coll *mongo.Collection
}

// NewProductStore создаёт MongoDB-реализацию ProductStore поверх коллекции products.
func NewProductStore(db *mongo.Database) domain.ProductStore {
	return &productStore{coll: db.Collection(collectionProducts)}
}

func (s *productStore) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return int(n), nil
}

// InsertMany игнорирует переданные ID: идентификаторы назначает MongoDB.
func (s *productStore) InsertMany(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	docs := make([]interface{}, 0, len(products))
	for _, p := range products {
		doc, err := newProductDocument(p)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}

func (s *productStore) List(ctx context.Context, includeHidden bool) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.D{}
	if !includeHidden {
		filter = bson.D{{Key: "isVisible", Value: true}}
	}

	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(insertionOrder))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *productStore) Get(ctx context.Context, id string) (domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return domain.Product{}, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// FindBySlug возвращает самый ранний документ с таким slug.
func (s *productStore) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	return s.findOne(ctx, bson.D{{Key: "slug", Value: slug}}, options.FindOne().SetSort(insertionOrder))
}

func (s *productStore) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	doc, err := newProductDocument(product)
	if err != nil {
		return domain.Product{}, err
	}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return domain.Product{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	product.ID = oid.Hex()
	return product, nil
}

// ApplyPatch отправляет одним FindOneAndUpdate только поля патча через $set,
// поэтому остаток, списанный параллельно, не перезаписывается.
func (s *productStore) ApplyPatch(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return domain.Product{}, domain.Product{}, err
	}
	fields, err := patchFields(patch)
	if err != nil {
		return domain.Product{}, domain.Product{}, err
	}
	if len(fields) == 0 {
		current, err := s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
		return current, current, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var doc productDocument
	err = s.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: fields}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	before, err := doc.toDomain()
	if err != nil {
		return domain.Product{}, domain.Product{}, err
	}
	return before, patch.Apply(before), nil
}

func (s *productStore) Delete(ctx context.Context, id string) (domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return domain.Product{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc productDocument
	if err := s.coll.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("delete product: %w", err)
	}
	return doc.toDomain()
}

// DecreaseStock отправляет все списания одним неупорядоченным BulkWrite.
// Остаток считается на сервере: max(0, availableQuantity - qty).
func (s *productStore) DecreaseStock(ctx context.Context, items []domain.StockDecrement) error {
	models := make([]mongo.WriteModel, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		oid, err := parseObjectID(item.ProductID)
		if err != nil {
			continue
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: oid}}).
			SetUpdate(decrementPipeline(item.Quantity)))
	}
	if len(models) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("bulk decrease stock: %w", err)
	}
	return nil
}

func decrementPipeline(qty int) mongo.Pipeline {
	remaining := bson.D{{Key: "$max", Value: bson.A{0, bson.D{{Key: "$subtract", Value: bson.A{"$availableQuantity", qty}}}}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "availableQuantity", Value: remaining}}}},
	}
}

func (s *productStore) findOne(ctx context.Context, filter bson.D, opts ...*options.FindOneOptions) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var doc productDocument
	if err := s.coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("find product: %w", err)
	}
	return doc.toDomain()
}

var _ domain.ProductStore = (*productStore)(nil)
