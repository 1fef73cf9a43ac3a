package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBucketRepository implements BucketRepository using PostgreSQL.
// Each call runs in one transaction with the bucket row locked FOR UPDATE,
// so concurrent hits on the same (scope, keyHash) serialize at the store.
type PostgresBucketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresBucketRepository creates a new PostgreSQL bucket repository
func NewPostgresBucketRepository(pool *pgxpool.Pool) *PostgresBucketRepository {
	return &PostgresBucketRepository{
		pool: pool,
	}
}

// CheckAndConsume implements BucketRepository.CheckAndConsume
func (r *PostgresBucketRepository) CheckAndConsume(ctx context.Context, scope, keyHash string, rule Rule, now time.Time) (Decision, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const selectBucket = `
		SELECT id, hits, window_start, blocked_until
		FROM rate_limit_buckets
		WHERE scope = $1 AND key_hash = $2
		FOR UPDATE
	`

	var (
		id           int64
		hits         int
		windowStart  time.Time
		blockedUntil sql.NullTime
	)

	err = tx.QueryRow(ctx, selectBucket, scope, keyHash).Scan(&id, &hits, &windowStart, &blockedUntil)

	if errors.Is(err, pgx.ErrNoRows) {
		// First hit for this key. A concurrent first hit loses the insert
		// race on the (scope, key_hash) unique index; the loser re-reads
		// the row under lock and falls through to the ordinary rules, so a
		// block set in between is never bypassed.
		insErr := tx.QueryRow(ctx, `
			INSERT INTO rate_limit_buckets (scope, key_hash, hits, window_start)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (scope, key_hash) DO NOTHING
			RETURNING id
		`, scope, keyHash, now).Scan(&id)
		if insErr == nil {
			if err := tx.Commit(ctx); err != nil {
				return Decision{}, fmt.Errorf("failed to commit: %w", err)
			}
			return Decision{Allowed: true}, nil
		}
		if !errors.Is(insErr, pgx.ErrNoRows) {
			return Decision{}, fmt.Errorf("failed to create bucket: %w", insErr)
		}
		err = tx.QueryRow(ctx, selectBucket, scope, keyHash).Scan(&id, &hits, &windowStart, &blockedUntil)
	}
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read bucket: %w", err)
	}

	if blockedUntil.Valid && blockedUntil.Time.After(now) {
		if err := tx.Commit(ctx); err != nil {
			return Decision{}, fmt.Errorf("failed to commit: %w", err)
		}
		return Decision{Allowed: false, RetryAfterSeconds: retrySeconds(blockedUntil.Time, now)}, nil
	}

	if now.Sub(windowStart) >= rule.Window() {
		_, err = tx.Exec(ctx, `
			UPDATE rate_limit_buckets
			SET hits = 1, window_start = $2, blocked_until = NULL
			WHERE id = $1
		`, id, now)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to reset bucket: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return Decision{}, fmt.Errorf("failed to commit: %w", err)
		}
		return Decision{Allowed: true}, nil
	}

	hits++
	if hits > rule.Max {
		until := now.Add(rule.Block())
		_, err = tx.Exec(ctx, `
			UPDATE rate_limit_buckets
			SET hits = $2, blocked_until = $3
			WHERE id = $1
		`, id, hits, until)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to block bucket: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return Decision{}, fmt.Errorf("failed to commit: %w", err)
		}
		return Decision{Allowed: false, RetryAfterSeconds: retrySeconds(until, now)}, nil
	}

	_, err = tx.Exec(ctx, `UPDATE rate_limit_buckets SET hits = $2 WHERE id = $1`, id, hits)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment bucket: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Decision{}, fmt.Errorf("failed to commit: %w", err)
	}
	return Decision{Allowed: true}, nil
}
