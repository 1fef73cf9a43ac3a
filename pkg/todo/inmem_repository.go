package todo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]Project
	tasks    map[uuid.UUID]Task
}

// NewInMemoryRepository creates a new in-memory todo repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		projects: make(map[uuid.UUID]Project),
		tasks:    make(map[uuid.UUID]Task),
	}
}

// CreateProject creates a project
func (r *InMemoryRepository) CreateProject(ctx context.Context, ownerID uuid.UUID, name string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	project := Project{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	r.projects[project.ID] = project
	return project, nil
}

// GetProject gets one project
func (r *InMemoryRepository) GetProject(ctx context.Context, id uuid.UUID) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[id]
	if !ok {
		return Project{}, ErrProjectNotFound
	}
	return project, nil
}

// ListProjects lists the owner's projects, newest first
func (r *InMemoryRepository) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var projects []Project
	for _, project := range r.projects {
		if project.OwnerID == ownerID {
			projects = append(projects, project)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

// CreateTask creates a task in a project
func (r *InMemoryRepository) CreateTask(ctx context.Context, projectID uuid.UUID, title string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		Title:     title,
		CreatedAt: time.Now(),
	}
	r.tasks[task.ID] = task
	return task, nil
}

// GetTask gets one task
func (r *InMemoryRepository) GetTask(ctx context.Context, id uuid.UUID) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return task, nil
}

// ListTasks lists a project's tasks, oldest first
func (r *InMemoryRepository) ListTasks(ctx context.Context, projectID uuid.UUID) ([]Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []Task
	for _, task := range r.tasks {
		if task.ProjectID == projectID {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// UpdateTask updates a task's title and done flag
func (r *InMemoryRepository) UpdateTask(ctx context.Context, id uuid.UUID, title string, done bool) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	task.Title = title
	task.Done = done
	r.tasks[id] = task
	return task, nil
}

// DeleteTask deletes a task
func (r *InMemoryRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}
