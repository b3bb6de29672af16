package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/gruzdev-dev/codex-users/core/domain"
	"github.com/gruzdev-dev/codex-users/core/ports"
	"github.com/gruzdev-dev/codex-users/pkg/requestid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReadPolicy decides what a failed load means for a request.
type ReadPolicy string

const (
	// ReadPolicyLenient treats an unreadable document as an empty collection.
	ReadPolicyLenient ReadPolicy = "lenient"
	// ReadPolicyStrict fails the request with domain.ErrStorageRead.
	ReadPolicyStrict ReadPolicy = "strict"
)

var tracer = otel.Tracer("github.com/gruzdev-dev/codex-users/core/services")

// UserService runs every operation as a load-mutate-save cycle over the whole
// collection. mu serializes writers so concurrent requests cannot lose updates.
type UserService struct {
	mu         sync.RWMutex
	repo       ports.UserRepository
	readPolicy ReadPolicy
}

func NewUserService(repo ports.UserRepository, readPolicy ReadPolicy) *UserService {
	if readPolicy == "" {
		readPolicy = ReadPolicyLenient
	}
	return &UserService{
		repo:       repo,
		readPolicy: readPolicy,
	}
}

func (s *UserService) List(ctx context.Context) (_ []domain.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.List")
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("users.count", len(users)))

	return users, nil
}

func (s *UserService) Get(ctx context.Context, id int) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Get", trace.WithAttributes(attribute.Int("user.id", id)))
	defer func() { endSpan(span, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(users, id)
	if idx == -1 {
		return nil, domain.ErrUserNotFound
	}

	return &users[idx], nil
}

func (s *UserService) Create(ctx context.Context, input map[string]any) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Create")
	defer func() { endSpan(span, err) }()

	name, age, email, err := validateNewUser(input)
	if err != nil {
		logf(ctx, "validation failed: %v", err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(domain.NextID(users), name, age, email)
	span.SetAttributes(attribute.Int("user.id", user.ID))

	if err := s.repo.Save(ctx, append(users, user)); err != nil {
		logf(ctx, "failed to save new user %d: %v", user.ID, err)
		return nil, storageWriteError(err)
	}

	logf(ctx, "created user %d", user.ID)
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id int, patch map[string]any) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Update", trace.WithAttributes(attribute.Int("user.id", id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(users, id)
	if idx == -1 {
		return nil, domain.ErrUserNotFound
	}

	updated := users[idx].Clone()
	if err := updated.Merge(patch); err != nil {
		return nil, err
	}
	users[idx] = updated

	if err := s.repo.Save(ctx, users); err != nil {
		logf(ctx, "failed to save user %d: %v", id, err)
		return nil, storageWriteError(err)
	}

	logf(ctx, "user %d updated", id)
	return &updated, nil
}

// Delete removes the user and returns it as it was stored.
func (s *UserService) Delete(ctx context.Context, id int) (_ *domain.User, err error) {
	ctx, span := tracer.Start(ctx, "UserService.Delete", trace.WithAttributes(attribute.Int("user.id", id)))
	defer func() { endSpan(span, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(users, id)
	if idx == -1 {
		logf(ctx, "user %d not found", id)
		return nil, domain.ErrUserNotFound
	}

	removed := users[idx]
	users = slices.Delete(users, idx, idx+1)

	if err := s.repo.Save(ctx, users); err != nil {
		logf(ctx, "failed to save after deleting user %d: %v", id, err)
		return nil, storageWriteError(err)
	}

	logf(ctx, "user %d deleted", id)
	return &removed, nil
}

// Ready reports whether the backing document can be loaded, regardless of
// the read policy.
func (s *UserService) Ready(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := s.repo.Load(ctx)
	return err
}

func (s *UserService) load(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.Load(ctx)
	if err == nil {
		if users == nil {
			users = []domain.User{}
		}
		return users, nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if !errors.Is(err, domain.ErrStorageRead) {
		err = fmt.Errorf("%w: %v", domain.ErrStorageRead, err)
	}
	if s.readPolicy == ReadPolicyStrict {
		return nil, err
	}

	logf(ctx, "error reading users, continuing with an empty collection: %v", err)
	return []domain.User{}, nil
}

func validateNewUser(input map[string]any) (string, any, string, error) {
	name, age, email := input[domain.FieldName], input[domain.FieldAge], input[domain.FieldEmail]
	if !domain.Truthy(name) || !domain.Truthy(age) || !domain.Truthy(email) {
		return "", nil, "", domain.ErrMissingFields
	}

	nameStr, ok := name.(string)
	if !ok {
		return "", nil, "", fmt.Errorf("%w: name must be a string", domain.ErrInvalidInput)
	}
	emailStr, ok := email.(string)
	if !ok {
		return "", nil, "", fmt.Errorf("%w: email must be a string", domain.ErrInvalidInput)
	}

	return nameStr, age, emailStr, nil
}

func indexOf(users []domain.User, id int) int {
	return slices.IndexFunc(users, func(u domain.User) bool {
		return u.ID == id
	})
}

func storageWriteError(err error) error {
	if errors.Is(err, domain.ErrStorageWrite) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func logf(ctx context.Context, format string, args ...any) {
	log.Printf("[users] request=%s "+format, append([]any{requestid.Tag(ctx)}, args...)...)
}
