package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type userStoreInMemory struct {
	mu      sync.RWMutex
	byEmail map[string]domain.User
}

// NewUserStore возвращает in-memory хранилище администраторов.
func NewUserStore() domain.UserStore {
	return &userStoreInMemory{byEmail: make(map[string]domain.User)}
}

func (s *userStoreInMemory) FindByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *userStoreInMemory) Insert(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return domain.User{}, domain.ErrUserExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.byEmail[user.Email] = user
	return user, nil
}

var _ domain.UserStore = (*userStoreInMemory)(nil)
