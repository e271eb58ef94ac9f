// Package mongodb реализует документный режим хранения: коллекции products, orders и users.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultConnTimeout = 5 * time.Second
	opTimeout          = 5 * time.Second

	collectionProducts = "products"
	collectionOrders   = "orders"
	collectionUsers    = "users"
)

// Connector лениво открывает и кэширует подключение к MongoDB на всё время жизни процесса.
type Connector struct {
	uri    string
	dbName string
	logger *log.Entry

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// NewConnector создаёт адаптер; подключение выполняется при первом Connect.
func NewConnector(uri, dbName string, logger *log.Entry) *Connector {
	if logger == nil {
		logger = log.WithField("component", "mongodb")
	}
	return &Connector{uri: uri, dbName: dbName, logger: logger}
}

// Connect возвращает закэшированную базу или nil, если конфигурации нет либо сервер недоступен.
// Ошибки не пробрасываются: nil означает "работаем в памяти". Неудачная попытка не кэшируется.
func (c *Connector) Connect(ctx context.Context) *mongo.Database {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db
	}
	if c.uri == "" || c.dbName == "" {
		c.logger.Warn("MONGODB_URI or MONGODB_DB_NAME is not set, falling back to in-memory storage")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(c.uri))
	if err != nil {
		c.logger.WithError(err).Warn("failed to connect to mongodb, falling back to in-memory storage")
		return nil
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		c.logger.WithError(err).Warn("mongodb ping failed, falling back to in-memory storage")
		return nil
	}

	c.client = client
	c.db = client.Database(c.dbName)
	c.logger.WithField("database", c.dbName).Info("connected to mongodb")
	return c.db
}

// Ping проверяет доступность уже открытого подключения.
func (c *Connector) Ping(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return fmt.Errorf("mongodb is not connected")
	}
	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return client.Ping(pingCtx, readpref.Primary())
}

// Close закрывает подключение при остановке процесса.
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	return err
}

// EnsureIndexes создаёт индексы: уникальный email у пользователей и поиск по slug.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := db.Collection(collectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create users email index: %w", err)
	}
	if _, err := db.Collection(collectionProducts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "slug", Value: 1}},
	}); err != nil {
		return fmt.Errorf("create products slug index: %w", err)
	}
	if _, err := db.Collection(collectionOrders).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("create orders createdAt index: %w", err)
	}
	return nil
}
