// Package todo is the thin project/task CRUD tracker. No invariants beyond
// ownership checks live here.
package todo

import (
	"time"

	"github.com/google/uuid"
)

// Project is a named container of tasks owned by one user
type Project struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is one item inside a project
type Task struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"created_at"`
}
