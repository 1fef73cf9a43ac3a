package todo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracklight/idm/pkg/errors"
)

func TestProjectAndTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewInMemoryRepository())
	owner := uuid.New()

	project, err := service.CreateProject(ctx, owner, "  Chores  ")
	require.NoError(t, err)
	assert.Equal(t, "Chores", project.Name)

	task, err := service.CreateTask(ctx, owner, project.ID, "take out trash")
	require.NoError(t, err)
	assert.False(t, task.Done)

	toggled, err := service.ToggleTask(ctx, owner, task.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Done)

	newTitle := "take out recycling"
	updated, err := service.UpdateTask(ctx, owner, task.ID, &newTitle, nil)
	require.NoError(t, err)
	assert.Equal(t, "take out recycling", updated.Title)
	assert.True(t, updated.Done)

	require.NoError(t, service.DeleteTask(ctx, owner, task.ID))

	tasks, err := service.ListTasks(ctx, owner, project.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewInMemoryRepository())
	owner := uuid.New()
	stranger := uuid.New()

	project, err := service.CreateProject(ctx, owner, "Private")
	require.NoError(t, err)
	task, err := service.CreateTask(ctx, owner, project.ID, "secret")
	require.NoError(t, err)

	// A stranger sees someone else's project as missing, never as forbidden.
	_, err = service.ListTasks(ctx, stranger, project.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	_, err = service.ToggleTask(ctx, stranger, task.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	err = service.DeleteTask(ctx, stranger, task.ID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	projects, err := service.ListProjects(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestValidation(t *testing.T) {
	ctx := context.Background()
	service := NewService(NewInMemoryRepository())
	owner := uuid.New()

	_, err := service.CreateProject(ctx, owner, "   ")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	project, err := service.CreateProject(ctx, owner, "P")
	require.NoError(t, err)

	_, err = service.CreateTask(ctx, owner, project.ID, "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}
