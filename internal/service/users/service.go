// Package users хранит учётную запись администратора витрины.
package users

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	DefaultAdminEmail    = "admin@gmail.com"
	DefaultAdminPassword = "admin123"

	// BcryptCost совпадает с cost, которым были захешированы существующие учётные записи.
	BcryptCost = 10
)

// Service: репозиторий пользователей.
type Service struct {
	store         domain.UserStore
	adminEmail    string
	adminPassword string
	cost          int
	logger        *log.Entry
}

// Option настраивает Service.
type Option func(*Service)

// WithAdminCredentials переопределяет email и пароль сидируемого администратора.
// Пустые значения оставляют значения по умолчанию.
func WithAdminCredentials(email, password string) Option {
	return func(s *Service) {
		if email != "" {
			s.adminEmail = email
		}
		if password != "" {
			s.adminPassword = password
		}
	}
}

// WithBcryptCost задаёт cost хеширования; нужен тестам, чтобы не тратить время.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService создаёт репозиторий пользователей.
func NewService(store domain.UserStore, opts ...Option) *Service {
	s := &Service{
		store:         store,
		adminEmail:    DefaultAdminEmail,
		adminPassword: DefaultAdminPassword,
		cost:          BcryptCost,
		logger:        log.WithField("component", "users"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdminEmail возвращает email сидируемого администратора.
func (s *Service) AdminEmail() string {
	return s.adminEmail
}

// SeedAdminIfAbsent создаёт администратора, если его ещё нет. Повторный вызов ничего не меняет.
func (s *Service) SeedAdminIfAbsent(ctx context.Context) error {
	_, err := s.store.FindByEmail(ctx, s.adminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("lookup admin user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), s.cost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := s.store.Insert(ctx, domain.User{Email: s.adminEmail, PasswordHash: string(hash)}); err != nil {
		// Параллельный инстанс мог успеть раньше.
		if errors.Is(err, domain.ErrUserExists) {
			return nil
		}
		return fmt.Errorf("insert admin user: %w", err)
	}
	s.logger.WithField("email", s.adminEmail).Info("admin user created")
	return nil
}

// GetByEmail ищет пользователя по точному (регистрозависимому) совпадению email.
func (s *Service) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.store.FindByEmail(ctx, email)
}

// Authenticate сверяет пароль с сохранённым bcrypt-хешем.
// Любое несовпадение, включая неизвестный email, даёт ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("email", email).Warn("admin authentication failed")
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return user, nil
}
