package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryUserRepository implements UserRepository using in-memory storage.
// It backs service tests and local mode, and is shared by the other in-memory
// repositories so cross-table mutations stay consistent.
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[uuid.UUID]User),
	}
}

// CreateUser creates a new user
func (r *InMemoryUserRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == params.Email {
			return User{}, ErrEmailTaken
		}
	}

	user := User{
		ID:           uuid.New(),
		Email:        params.Email,
		Name:         params.Name,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    time.Now(),
	}
	r.users[user.ID] = user
	return user, nil
}

// GetUserByID gets a user regardless of status
func (r *InMemoryUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// GetActiveUserByID gets a non-deactivated user
func (r *InMemoryUserRepository) GetActiveUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok || !user.Active() {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

// FindActiveUserByEmail looks up a non-deactivated user by normalized email
func (r *InMemoryUserRepository) FindActiveUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email && user.Active() {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

// EmailExists reports whether any account holds the email
func (r *InMemoryUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// UpdateLastLoginAt records a successful login
func (r *InMemoryUserRepository) UpdateLastLoginAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.LastLoginAt = &at
	r.users[id] = user
	return nil
}

// UpdatePasswordHash replaces the stored credential
func (r *InMemoryUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	r.users[id] = user
	return nil
}

// UpdateRole changes the user's role
func (r *InMemoryUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.Role = role
	r.users[id] = user
	return nil
}

// SetDeletedAt marks a user deactivated. Exposed for the composed in-memory
// repositories that need to mutate users alongside their own tables.
func (r *InMemoryUserRepository) SetDeletedAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrUserNotFound
	}
	user.DeletedAt = &at
	r.users[id] = user
	return nil
}

// CountActiveAdmins counts non-deactivated ADMIN users excluding the given id
func (r *InMemoryUserRepository) CountActiveAdmins(ctx context.Context, excluding uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, user := range r.users {
		if user.Role == RoleAdmin && user.Active() && user.ID != excluding {
			count++
		}
	}
	return count, nil
}

// ListUsers lists users ordered by creation time descending
func (r *InMemoryUserRepository) ListUsers(ctx context.Context, params ListUsersParams) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []User
	for _, user := range r.users {
		if !params.ShowDeactivated && !user.Active() {
			continue
		}
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	if params.Skip >= len(users) {
		return nil, nil
	}
	users = users[params.Skip:]
	if params.Take > 0 && params.Take < len(users) {
		users = users[:params.Take]
	}
	return users, nil
}
