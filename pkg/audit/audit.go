// Package audit provides the append-only audit log for domain events.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event identifies a domain event in the audit log
type Event string

const (
	EventLoginSuccess     Event = "AUTH_LOGIN_SUCCESS"
	EventLoginFail        Event = "AUTH_LOGIN_FAIL"
	EventResetCodeIssued  Event = "RESET_CODE_ISSUED"
	EventAdminResetIssued Event = "ADMIN_RESET_ISSUED"
	EventResetConsumed    Event = "RESET_CODE_CONSUMED"
	EventRoleChanged      Event = "ROLE_CHANGED"
	EventUserDeactivated  Event = "USER_DEACTIVATED"
)

// Entry is a single audit log row. Actor is nil for system-initiated events.
// Rows reference user ids but carry no foreign keys: audit history survives
// user deactivation.
type Entry struct {
	ID           int64                  `json:"id"`
	Event        Event                  `json:"event"`
	ActorUserID  *uuid.UUID             `json:"actor_user_id,omitempty"`
	TargetUserID *uuid.UUID             `json:"target_user_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// Repository is the append-only sink. Entries are never mutated or deleted.
type Repository interface {
	Write(ctx context.Context, entry Entry) error
}

// Recorder writes audit entries best-effort: mutations commit first and a
// failed audit write is logged, never propagated to the caller.
type Recorder struct {
	repo Repository
}

// NewRecorder creates a new Recorder
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{
		repo: repo,
	}
}

// Record writes an audit entry, logging on failure
func (r *Recorder) Record(ctx context.Context, event Event, actorUserID, targetUserID *uuid.UUID, metadata map[string]interface{}) {
	err := r.repo.Write(ctx, Entry{
		Event:        event,
		ActorUserID:  actorUserID,
		TargetUserID: targetUserID,
		Metadata:     metadata,
	})
	if err != nil {
		slog.Error("Failed to write audit log", "event", event, "err", err)
	}
}
