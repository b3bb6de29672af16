package ports

import (
	"context"

	"github.com/gruzdev-dev/codex-users/core/domain"
)

//go:generate mockgen -source=user.go -destination=user_mocks.go -package=ports UserRepository

// UserRepository persists the whole user collection as a single document.
// Load returns an empty collection and no error when the document does not
// exist yet; any other read or decode failure wraps domain.ErrStorageRead.
// Save failures wrap domain.ErrStorageWrite.
type UserRepository interface {
	Load(ctx context.Context) ([]domain.User, error)
	Save(ctx context.Context, users []domain.User) error
}
