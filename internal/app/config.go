package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverMongo    = "mongo"
	StorageDriverPostgres = "postgres"
)

// storageDrivers: все известные драйверы (для gauge активного хранилища).
var storageDrivers = []string{StorageDriverMemory, StorageDriverMongo, StorageDriverPostgres}

// Config описывает настройки запуска витрины.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       string
	MongoURI            string
	MongoDBName         string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers: список через запятую; пусто означает работу без Kafka.
	KafkaBrokers      string
	InvalidationTopic string
	RedisAddr         string
	ViewCacheSize     int
	ViewCacheTTL      time.Duration

	RecommenderURL string
	AdminEmail     string
	AdminPassword  string

	// NodeID: номер snowflake-узла и идентификатор инстанса в событиях сброса.
	NodeID int64
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMongo,
		PostgresAutoMigrate: true,
		InvalidationTopic:   kafka.TopicViewInvalidations,
		ViewCacheSize:       512,
		ViewCacheTTL:        10 * time.Minute,
		NodeID:              1,
	}
}

// LoadConfig читает переменные окружения поверх DefaultConfig.
// Файлы envFiles (по умолчанию .env) подгружаются, если существуют; уже заданные переменные не перезаписываются.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	setString(&cfg.HTTPAddr, "STOREFRONT_HTTP_ADDR")
	setString(&cfg.MetricsAddr, "STOREFRONT_METRICS_ADDR")
	setString(&cfg.StorageDriver, "STOREFRONT_STORAGE_DRIVER")
	setString(&cfg.MongoURI, "MONGODB_URI")
	setString(&cfg.MongoDBName, "MONGODB_DB_NAME")
	setString(&cfg.PostgresDSN, "STOREFRONT_POSTGRES_DSN")
	setString(&cfg.KafkaBrokers, "KAFKA_BROKERS")
	setString(&cfg.InvalidationTopic, "STOREFRONT_INVALIDATION_TOPIC")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RecommenderURL, "STOREFRONT_RECOMMENDER_URL")
	setString(&cfg.AdminEmail, "STOREFRONT_ADMIN_EMAIL")
	setString(&cfg.AdminPassword, "STOREFRONT_ADMIN_PASSWORD")
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)

	var errs []error
	if v, ok := lookup("STOREFRONT_POSTGRES_AUTO_MIGRATE"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrapEnvErr("STOREFRONT_POSTGRES_AUTO_MIGRATE", err))
		cfg.PostgresAutoMigrate = b
	}
	if v, ok := lookup("STOREFRONT_NODE_ID"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		errs = append(errs, wrapEnvErr("STOREFRONT_NODE_ID", err))
		cfg.NodeID = n
	}
	if v, ok := lookup("STOREFRONT_VIEW_CACHE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnvErr("STOREFRONT_VIEW_CACHE_SIZE", err))
		cfg.ViewCacheSize = n
	}
	if v, ok := lookup("STOREFRONT_VIEW_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		errs = append(errs, wrapEnvErr("STOREFRONT_VIEW_CACHE_TTL", err))
		cfg.ViewCacheTTL = d
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func wrapEnvErr(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid %s: %w", key, err)
}

// brokerList разбирает KafkaBrokers, отбрасывая пустые элементы и пробелы.
func (c Config) brokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// instanceID отличает собственные события сброса от чужих.
func (c Config) instanceID() string {
	return fmt.Sprintf("storefront-%d", c.NodeID)
}
