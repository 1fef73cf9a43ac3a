package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// Repository defines the persistence operations for projects and tasks
type Repository interface {
	CreateProject(ctx context.Context, ownerID uuid.UUID, name string) (Project, error)
	GetProject(ctx context.Context, id uuid.UUID) (Project, error)
	ListProjects(ctx context.Context, ownerID uuid.UUID) ([]Project, error)

	CreateTask(ctx context.Context, projectID uuid.UUID, title string) (Task, error)
	GetTask(ctx context.Context, id uuid.UUID) (Task, error)
	ListTasks(ctx context.Context, projectID uuid.UUID) ([]Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, title string, done bool) (Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
}
