package todo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL todo repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

func scanProject(row pgx.Row) (Project, error) {
	var project Project
	err := row.Scan(&project.ID, &project.OwnerID, &project.Name, &project.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, fmt.Errorf("failed to scan project: %w", err)
	}
	return project, nil
}

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &task.Done, &task.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrTaskNotFound
		}
		return Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	return task, nil
}

// CreateProject creates a project
func (r *PostgresRepository) CreateProject(ctx context.Context, ownerID uuid.UUID, name string) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, owner_id, name, created_at
	`, uuid.New(), ownerID, name))
}

// GetProject gets one project
func (r *PostgresRepository) GetProject(ctx context.Context, id uuid.UUID) (Project, error) {
	return scanProject(r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, created_at
		FROM projects
		WHERE id = $1
	`, id))
}

// ListProjects lists the owner's projects, newest first
func (r *PostgresRepository) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, created_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// CreateTask creates a task in a project
func (r *PostgresRepository) CreateTask(ctx context.Context, projectID uuid.UUID, title string) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, project_id, title, done, created_at)
		VALUES ($1, $2, $3, false, now())
		RETURNING id, project_id, title, done, created_at
	`, uuid.New(), projectID, title))
}

// GetTask gets one task
func (r *PostgresRepository) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		SELECT id, project_id, title, done, created_at
		FROM tasks
		WHERE id = $1
	`, id))
}

// ListTasks lists a project's tasks, oldest first
func (r *PostgresRepository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, project_id, title, done, created_at
		FROM tasks
		WHERE project_id = $1
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// UpdateTask updates a task's title and done flag
func (r *PostgresRepository) UpdateTask(ctx context.Context, id uuid.UUID, title string, done bool) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET title = $2, done = $3
		WHERE id = $1
		RETURNING id, project_id, title, done, created_at
	`, id, title, done))
}

// DeleteTask deletes a task
func (r *PostgresRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}
