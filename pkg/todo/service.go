package todo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/errors"
)

// Service applies ownership checks over the repository. A caller can only
// see and mutate projects they own and tasks inside those projects.
type Service struct {
	repo Repository
}

// NewService creates a todo Service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// CreateProject creates a project owned by the caller
func (s *Service) CreateProject(ctx context.Context, ownerID uuid.UUID, name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, errors.InvalidInput("name", "must not be empty")
	}

	project, err := s.repo.CreateProject(ctx, ownerID, name)
	if err != nil {
		return Project{}, errors.InternalWrap(err, "failed to create project")
	}
	return project, nil
}

// ListProjects lists the caller's projects
func (s *Service) ListProjects(ctx context.Context, ownerID uuid.UUID) ([]Project, error) {
	projects, err := s.repo.ListProjects(ctx, ownerID)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to list projects")
	}
	return projects, nil
}

// CreateTask adds a task to one of the caller's projects
func (s *Service) CreateTask(ctx context.Context, ownerID, projectID uuid.UUID, title string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, errors.InvalidInput("title", "must not be empty")
	}

	if _, err := s.ownedProject(ctx, ownerID, projectID); err != nil {
		return Task{}, err
	}

	task, err := s.repo.CreateTask(ctx, projectID, title)
	if err != nil {
		return Task{}, errors.InternalWrap(err, "failed to create task")
	}
	return task, nil
}

// ListTasks lists the tasks of one of the caller's projects
func (s *Service) ListTasks(ctx context.Context, ownerID, projectID uuid.UUID) ([]Task, error) {
	if _, err := s.ownedProject(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return nil, errors.InternalWrap(err, "failed to list tasks")
	}
	return tasks, nil
}

// UpdateTask updates a task the caller owns through its project
func (s *Service) UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, title *string, done *bool) (Task, error) {
	task, err := s.ownedTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}

	newTitle := task.Title
	if title != nil {
		newTitle = strings.TrimSpace(*title)
		if newTitle == "" {
			return Task{}, errors.InvalidInput("title", "must not be empty")
		}
	}
	newDone := task.Done
	if done != nil {
		newDone = *done
	}

	updated, err := s.repo.UpdateTask(ctx, taskID, newTitle, newDone)
	if err != nil {
		return Task{}, errors.InternalWrap(err, "failed to update task")
	}
	return updated, nil
}

// ToggleTask flips a task's done flag
func (s *Service) ToggleTask(ctx context.Context, ownerID, taskID uuid.UUID) (Task, error) {
	task, err := s.ownedTask(ctx, ownerID, taskID)
	if err != nil {
		return Task{}, err
	}

	updated, err := s.repo.UpdateTask(ctx, taskID, task.Title, !task.Done)
	if err != nil {
		return Task{}, errors.InternalWrap(err, "failed to toggle task")
	}
	return updated, nil
}

// DeleteTask deletes a task the caller owns through its project
func (s *Service) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	if _, err := s.ownedTask(ctx, ownerID, taskID); err != nil {
		return err
	}

	if err := s.repo.DeleteTask(ctx, taskID); err != nil {
		return errors.InternalWrap(err, "failed to delete task")
	}
	return nil
}

// ownedProject returns the project when the caller owns it; a project owned
// by someone else reads the same as a missing one.
func (s *Service) ownedProject(ctx context.Context, ownerID, projectID uuid.UUID) (Project, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil || project.OwnerID != ownerID {
		return Project{}, errors.NotFound("project", projectID.String())
	}
	return project, nil
}

func (s *Service) ownedTask(ctx context.Context, ownerID, taskID uuid.UUID) (Task, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, errors.NotFound("task", taskID.String())
	}
	if _, err := s.ownedProject(ctx, ownerID, task.ProjectID); err != nil {
		return Task{}, errors.NotFound("task", taskID.String())
	}
	return task, nil
}
