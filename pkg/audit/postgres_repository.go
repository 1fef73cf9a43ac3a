package audit

import (
	"encoding/json"
	"fmt"

	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL audit repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

// Write appends an audit entry
func (r *PostgresRepository) Write(ctx context.Context, entry Entry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (event, actor_user_id, target_user_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, entry.Event, entry.ActorUserID, entry.TargetUserID, metadata)
	if err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
