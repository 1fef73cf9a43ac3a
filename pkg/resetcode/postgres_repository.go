package resetcode

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL reset-code repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

const codeColumns = `id, user_id, code_hash, expires_at, attempts, consumed_at, invalidated_at, issued_by, issued_by_user_id, created_at`

func scanCode(row pgx.Row) (Code, error) {
	var code Code
	var consumedAt, invalidatedAt sql.NullTime
	var issuedByUserID uuid.NullUUID

	err := row.Scan(
		&code.ID,
		&code.UserID,
		&code.CodeHash,
		&code.ExpiresAt,
		&code.Attempts,
		&consumedAt,
		&invalidatedAt,
		&code.IssuedBy,
		&issuedByUserID,
		&code.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Code{}, ErrNoActiveCode
		}
		return Code{}, fmt.Errorf("failed to scan reset code: %w", err)
	}

	if consumedAt.Valid {
		code.ConsumedAt = &consumedAt.Time
	}
	if invalidatedAt.Valid {
		code.InvalidatedAt = &invalidatedAt.Time
	}
	if issuedByUserID.Valid {
		code.IssuedByUserID = &issuedByUserID.UUID
	}

	return code, nil
}

// Create invalidates active codes for the user and inserts the new one atomically
func (r *PostgresRepository) Create(ctx context.Context, params CreateCodeParams, now time.Time) (Code, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Code{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE password_reset_codes
		SET invalidated_at = $2
		WHERE user_id = $1
		  AND consumed_at IS NULL
		  AND invalidated_at IS NULL
	`, params.UserID, now)
	if err != nil {
		return Code{}, fmt.Errorf("failed to invalidate active codes: %w", err)
	}

	code, err := scanCode(tx.QueryRow(ctx, `
		INSERT INTO password_reset_codes (id, user_id, code_hash, expires_at, issued_by, issued_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+codeColumns,
		uuid.New(),
		params.UserID,
		params.CodeHash,
		params.ExpiresAt,
		params.IssuedBy,
		params.IssuedByUserID,
		now,
	))
	if err != nil {
		return Code{}, fmt.Errorf("failed to insert reset code: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Code{}, fmt.Errorf("failed to commit: %w", err)
	}
	return code, nil
}

// FindActiveByUserID returns the most recent active code for the user
func (r *PostgresRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID, now time.Time) (Code, error) {
	query := `
		SELECT ` + codeColumns + `
		FROM password_reset_codes
		WHERE user_id = $1
		  AND consumed_at IS NULL
		  AND invalidated_at IS NULL
		  AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanCode(r.pool.QueryRow(ctx, query, userID, now))
}

// Invalidate marks one code invalidated
func (r *PostgresRepository) Invalidate(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE password_reset_codes
		SET invalidated_at = $2
		WHERE id = $1
		  AND invalidated_at IS NULL
	`, id, at)
	if err != nil {
		return fmt.Errorf("failed to invalidate reset code: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// RecordFailedAttempt stores the attempt count, optionally burning the code
func (r *PostgresRepository) RecordFailedAttempt(ctx context.Context, id uuid.UUID, attempts int, invalidate bool, at time.Time) error {
	var invalidatedAt *time.Time
	if invalidate {
		invalidatedAt = &at
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE password_reset_codes
		SET attempts = $2, invalidated_at = $3
		WHERE id = $1
	`, id, attempts, invalidatedAt)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCodeNotFound
	}
	return nil
}

// ConsumeAndSetPassword atomically rotates the credential and consumes the code
func (r *PostgresRepository) ConsumeAndSetPassword(ctx context.Context, codeID, userID uuid.UUID, passwordHash string, at time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}

	result, err = tx.Exec(ctx, `
		UPDATE password_reset_codes
		SET consumed_at = $2
		WHERE id = $1
		  AND consumed_at IS NULL
		  AND invalidated_at IS NULL
	`, codeID, at)
	if err != nil {
		return fmt.Errorf("failed to consume reset code: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Lost the race against a concurrent confirm or invalidation.
		return ErrCodeNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE password_reset_codes
		SET invalidated_at = $3
		WHERE user_id = $1
		  AND id != $2
		  AND consumed_at IS NULL
		  AND invalidated_at IS NULL
	`, userID, codeID, at)
	if err != nil {
		return fmt.Errorf("failed to invalidate sibling codes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// InvalidateActiveForUser invalidates all active codes for the user
func (r *PostgresRepository) InvalidateActiveForUser(ctx context.Context, userID uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE password_reset_codes
		SET invalidated_at = $2
		WHERE user_id = $1
		  AND consumed_at IS NULL
		  AND invalidated_at IS NULL
	`, userID, at)
	if err != nil {
		return fmt.Errorf("failed to invalidate reset codes: %w", err)
	}
	return nil
}
