package users

import (
	"context"
	"fmt"
	"sync"

	"postboard/schemas"
	"postboard/storage"
)

type MemoryStorage struct {
	mu    sync.RWMutex
	users map[schemas.UserId]schemas.User
}

func NewMemoryStorage(users ...schemas.User) *MemoryStorage {
	s := &MemoryStorage{users: map[schemas.UserId]schemas.User{}}
	for _, u := range users {
		s.PutUser(u)
	}
	return s
}

func (s *MemoryStorage) PutUser(user schemas.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *MemoryStorage) DeleteUser(userId schemas.UserId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userId)
}

func (s *MemoryStorage) GetUser(_ context.Context, userId schemas.UserId) (*schemas.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userId]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userId, storage.ErrNotFound)
	}
	return &user, nil
}
