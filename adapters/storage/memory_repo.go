package storage

import (
	"context"
	"sync"

	"github.com/gruzdev-dev/codex-users/core/domain"
	"github.com/gruzdev-dev/codex-users/core/ports"
)

type inMemoryRepo struct {
	mu    sync.Mutex
	users []domain.User
}

// NewInMemoryRepo keeps the collection in process memory. Nothing survives a
// restart; it backs the memory storage driver and tests.
func NewInMemoryRepo(seed ...domain.User) ports.UserRepository {
	return &inMemoryRepo{
		users: cloneUsers(seed),
	}
}

func (r *inMemoryRepo) Load(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUsers(r.users), nil
}

func (r *inMemoryRepo) Save(_ context.Context, users []domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = cloneUsers(users)
	return nil
}

func cloneUsers(users []domain.User) []domain.User {
	cloned := make([]domain.User, len(users))
	for i, u := range users {
		cloned[i] = u.Clone()
	}
	return cloned
}
