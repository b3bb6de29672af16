package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gruzdev-dev/codex-users/adapters/storage"
	"github.com/gruzdev-dev/codex-users/core/domain"
	"github.com/gruzdev-dev/codex-users/core/ports"
)

type FileRepo struct {
	path string
}

func NewFileRepo(path string) ports.UserRepository {
	return &FileRepo{
		path: path,
	}
}

func (r *FileRepo) Load(_ context.Context) ([]domain.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.User{}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}

	users, err := storage.DecodeUsers(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrStorageRead, r.path, err)
	}

	return users, nil
}

// Save replaces the document through a temp file in the same directory so a
// concurrent reader sees either the old or the new collection.
func (r *FileRepo) Save(_ context.Context, users []domain.User) error {
	data, err := storage.EncodeUsers(users)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrStorageWrite, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), "."+filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}
	tmpName := tmp.Name()

	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
