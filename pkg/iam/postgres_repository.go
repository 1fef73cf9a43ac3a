package iam

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tracklight/idm/pkg/identity"
)

// PostgresRepository implements Repository using PostgreSQL. Single-table
// operations delegate to the identity repository; DeactivateUser runs its own
// two-table transaction.
type PostgresRepository struct {
	pool  *pgxpool.Pool
	users *identity.PostgresUserRepository
}

// NewPostgresRepository creates a new PostgreSQL IAM repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool:  pool,
		users: identity.NewPostgresUserRepository(pool),
	}
}

// GetActiveUser gets a non-deactivated user
func (r *PostgresRepository) GetActiveUser(ctx context.Context, id uuid.UUID) (identity.User, error) {
	return r.users.GetActiveUserByID(ctx, id)
}

// CountActiveAdmins counts non-deactivated ADMIN users excluding the given id
func (r *PostgresRepository) CountActiveAdmins(ctx context.Context, excluding uuid.UUID) (int, error) {
	return r.users.CountActiveAdmins(ctx, excluding)
}

// UpdateRole changes the user's role
func (r *PostgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role identity.Role) error {
	return r.users.UpdateRole(ctx, id, role)
}

// DeactivateUser soft-deletes the user and invalidates their active reset
// codes in one transaction
func (r *PostgresRepository) DeactivateUser(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE users
		SET deleted_at = $2
		WHERE id = $1
		  AND deleted_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE password_reset_codes
		SET invalidated_at = $2
		WHERE user_id = $1
		  AND consumed_at IS NULL
		  AND invalidated_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to invalidate reset codes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// ListUsers lists users ordered by creation time descending
func (r *PostgresRepository) ListUsers(ctx context.Context, params identity.ListUsersParams) ([]identity.User, error) {
	return r.users.ListUsers(ctx, params)
}
