// Package api exposes the project/task CRUD endpoints.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tracklight/idm/pkg/api"
	"github.com/tracklight/idm/pkg/errors"
	"github.com/tracklight/idm/pkg/iam"
	"github.com/tracklight/idm/pkg/todo"
)

type Handle struct {
	service *todo.Service
}

// NewHandle creates the todo handler
func NewHandle(service *todo.Service) Handle {
	return Handle{
		service: service,
	}
}

// RegisterRoutes mounts the todo endpoints. The caller wraps the router in
// the authentication middleware.
func (h Handle) RegisterRoutes(r chi.Router) {
	r.Get("/projects", h.ListProjects)
	r.Post("/projects", h.CreateProject)
	r.Get("/projects/{id}/tasks", h.ListTasks)
	r.Post("/projects/{id}/tasks", h.CreateTask)
	r.Patch("/tasks/{id}", h.UpdateTask)
	r.Delete("/tasks/{id}", h.DeleteTask)
	r.Post("/tasks/{id}/toggle", h.ToggleTask)
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

type CreateTaskRequest struct {
	Title string `json:"title"`
}

type UpdateTaskRequest struct {
	Title *string `json:"title"`
	Done  *bool   `json:"done"`
}

// ListProjects handles GET /projects
func (h Handle) ListProjects(w http.ResponseWriter, r *http.Request) {
	actor, ok := iam.ActorFromContext(r.Context())
	if !ok {
		api.RespondError(w, r, errors.Unauthorized("no authenticated actor"))
		return
	}

	projects, err := h.service.ListProjects(r.Context(), actor.ID)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	if projects == nil {
		projects = []todo.Project{}
	}
	api.RespondJSON(w, r, http.StatusOK, projects)
}

// CreateProject handles POST /projects
func (h Handle) CreateProject(w http.ResponseWriter, r *http.Request) {
	actor, ok := iam.ActorFromContext(r.Context())
	if !ok {
		api.RespondError(w, r, errors.Unauthorized("no authenticated actor"))
		return
	}

	var req CreateProjectRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}

	project, err := h.service.CreateProject(r.Context(), actor.ID, req.Name)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondJSON(w, r, http.StatusCreated, project)
}

// ListTasks handles GET /projects/{id}/tasks
func (h Handle) ListTasks(w http.ResponseWriter, r *http.Request) {
	actor, projectID, err := h.actorAndID(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), actor.ID, projectID)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []todo.Task{}
	}
	api.RespondJSON(w, r, http.StatusOK, tasks)
}

// CreateTask handles POST /projects/{id}/tasks
func (h Handle) CreateTask(w http.ResponseWriter, r *http.Request) {
	actor, projectID, err := h.actorAndID(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	var req CreateTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}

	task, err := h.service.CreateTask(r.Context(), actor.ID, projectID, req.Title)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondJSON(w, r, http.StatusCreated, task)
}

// UpdateTask handles PATCH /tasks/{id}
func (h Handle) UpdateTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := h.actorAndID(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	var req UpdateTaskRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		api.RespondError(w, r, errors.InvalidInput("body", "unable to parse request body"))
		return
	}

	task, err := h.service.UpdateTask(r.Context(), actor.ID, taskID, req.Title, req.Done)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondJSON(w, r, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{id}
func (h Handle) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := h.actorAndID(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	if err := h.service.DeleteTask(r.Context(), actor.ID, taskID); err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondMessage(w, r, http.StatusOK, "Task deleted")
}

// ToggleTask handles POST /tasks/{id}/toggle
func (h Handle) ToggleTask(w http.ResponseWriter, r *http.Request) {
	actor, taskID, err := h.actorAndID(r)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}

	task, err := h.service.ToggleTask(r.Context(), actor.ID, taskID)
	if err != nil {
		api.RespondError(w, r, err)
		return
	}
	api.RespondJSON(w, r, http.StatusOK, task)
}

func (h Handle) actorAndID(r *http.Request) (iam.Actor, uuid.UUID, error) {
	actor, ok := iam.ActorFromContext(r.Context())
	if !ok {
		return iam.Actor{}, uuid.Nil, errors.Unauthorized("no authenticated actor")
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return iam.Actor{}, uuid.Nil, errors.InvalidInput("id", "must be a UUID")
	}
	return actor, id, nil
}
