package router

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todotracker/internal/auth"
	"github.com/patric-chuzhbe/todotracker/internal/logger"
	"github.com/patric-chuzhbe/todotracker/internal/metrics"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/service"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

// GetHealth reports liveness without touching storage.
func (router *Router) GetHealth(response http.ResponseWriter, request *http.Request) {
	writeJSON(response, http.StatusOK, models.HealthResponse{Status: "healthy"})
}

// GetPing answers 200 when the storage is reachable.
func (router *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := router.service.Ping(request.Context()); err != nil {
		logger.Log.Errorln("storage ping failed", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetInternalStats returns the number of users and todos.
func (router *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	stats, err := router.service.GetInternalStats(request.Context())
	if err != nil {
		writeServiceError(response, request, err, messageInternalError)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

// PostSignup registers a user and starts a session.
func (router *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var body models.SignupRequest
	if err := decodeJSON(request, &body, false); err != nil {
		writeDecodeError(response, err)
		return
	}
	if err := service.ValidateStruct(body); err != nil {
		writeServiceError(response, request, err, "")
		return
	}

	userID, err := router.service.InsertUser(request.Context(), body.Email, body.Password, body.Age)
	if err != nil {
		writeServiceError(response, request, err, "")
		return
	}

	if err := router.auth.IssueSession(response, userID); err != nil {
		writeServiceError(response, request, err, "")
		return
	}
	router.metrics.AuthEvent(metrics.EventSignup)

	writeJSON(response, http.StatusOK, models.AuthResponse{
		Message: "User registered successfully",
		User:    user.Public{ID: userID, Email: body.Email},
	})
}

// PostLogin checks the credentials and starts a session.
func (router *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	var body models.LoginRequest
	if err := decodeJSON(request, &body, false); err != nil {
		writeDecodeError(response, err)
		return
	}
	if err := service.ValidateStruct(body); err != nil {
		writeServiceError(response, request, err, "")
		return
	}

	usr, err := router.service.Login(request.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			router.metrics.AuthEvent(metrics.EventLoginFailure)
		}
		writeServiceError(response, request, err, "")
		return
	}

	if err := router.auth.IssueSession(response, usr.ID); err != nil {
		writeServiceError(response, request, err, "")
		return
	}
	router.metrics.AuthEvent(metrics.EventLoginSuccess)

	writeJSON(response, http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		User:    usr.Public(),
	})
}

// PostLogout clears the session cookie. No server state changes.
func (router *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	router.auth.ClearSession(response)
	router.metrics.AuthEvent(metrics.EventLogout)

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "Logout successful"})
}

// GetMe returns the id and email of the session's user.
func (router *Router) GetMe(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeErrors(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	usr, err := router.service.GetUserByID(request.Context(), userID)
	if err != nil {
		writeServiceError(response, request, err, messageUserNotFound)
		return
	}

	writeJSON(response, http.StatusOK, usr.Public())
}

// DeleteMe deletes the session's user with all of their todos and ends the session.
func (router *Router) DeleteMe(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeErrors(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := router.service.DeleteUser(request.Context(), userID); err != nil {
		writeServiceError(response, request, err, messageUserNotFound)
		return
	}
	router.auth.ClearSession(response)

	writeJSON(response, http.StatusOK, models.MessageResponse{Message: "Account deleted"})
}

// PostTodos creates a todo owned by the session's user.
func (router *Router) PostTodos(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeErrors(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var body models.CreateTodoRequest
	if err := decodeJSON(request, &body, false); err != nil {
		writeDecodeError(response, err)
		return
	}
	if err := service.ValidateStruct(body); err != nil {
		writeServiceError(response, request, err, "")
		return
	}

	todo, err := router.service.InsertTodo(request.Context(), &models.NewTodo{
		UserID:      userID,
		Title:       body.Title,
		Description: body.Description,
		Completed:   body.Completed,
	})
	if err != nil {
		writeServiceError(response, request, err, messageTodoNotFound)
		return
	}

	writeJSON(response, http.StatusCreated, todo)
}

// GetTodos lists the session user's todos, newest first.
func (router *Router) GetTodos(response http.ResponseWriter, request *http.Request) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeErrors(response, http.StatusUnauthorized, "Unauthorized")
		return
	}

	todos, err := router.service.GetTodosByUserID(request.Context(), userID)
	if err != nil {
		writeServiceError(response, request, err, messageTodoNotFound)
		return
	}

	writeJSON(response, http.StatusOK, todos)
}

// PatchTodo updates title, description or completed of one of the user's todos.
func (router *Router) PatchTodo(response http.ResponseWriter, request *http.Request) {
	userID, todoID, ok := router.todoTarget(response, request)
	if !ok {
		return
	}

	var patch models.TodoPatch
	if err := decodeTodoPatch(request, &patch); err != nil {
		writeDecodeError(response, err)
		return
	}
	if err := service.ValidateStruct(patch); err != nil {
		writeServiceError(response, request, err, "")
		return
	}

	todo, err := router.service.UpdateTodo(request.Context(), todoID, userID, &patch)
	if err != nil {
		writeServiceError(response, request, err, messageTodoNotFound)
		return
	}

	writeJSON(response, http.StatusOK, todo)
}

// DeleteTodo removes one of the user's todos and returns it.
func (router *Router) DeleteTodo(response http.ResponseWriter, request *http.Request) {
	userID, todoID, ok := router.todoTarget(response, request)
	if !ok {
		return
	}

	todo, err := router.service.DeleteTodo(request.Context(), todoID, userID)
	if err != nil {
		writeServiceError(response, request, err, messageTodoNotFound)
		return
	}

	writeJSON(response, http.StatusOK, todo)
}

// todoTarget resolves the acting user and validates the {id} URL parameter.
// It writes the error response itself and reports false on failure.
func (router *Router) todoTarget(response http.ResponseWriter, request *http.Request) (string, string, bool) {
	userID, ok := auth.UserIDFromContext(request.Context())
	if !ok {
		writeErrors(response, http.StatusUnauthorized, "Unauthorized")
		return "", "", false
	}

	param := models.NewTodoIDParam(chi.URLParam(request, "id"))
	if err := service.ValidateStruct(param); err != nil {
		writeServiceError(response, request, err, "")
		return "", "", false
	}

	return userID, param.ID, true
}
