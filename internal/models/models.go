package models

import (
	"strings"
	"time"

	"github.com/patric-chuzhbe/todotracker/internal/user"
)

// Todo is a task record owned by exactly one user.
type Todo struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Todos []Todo

// NewTodo carries the fields accepted by insertTodo.
type NewTodo struct {
	UserID      string
	Title       string
	Description *string
	Completed   *bool
}

// TodoPatch lists the fields updateTodo may change. Nil means "leave as is".
type TodoPatch struct {
	Title       *string `json:"title" validate:"omitnil,min=1,max=500" errmsg:"Title needs to be at least 1 character long"`
	Description *string `json:"description" validate:"omitnil,max=1000" errmsg:"Description must be at most 1000 characters long"`
	Completed   *bool   `json:"completed"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=256" errmsg:"Invalid email"`
	Password string `json:"password" validate:"required,min=10,max=256" errmsg:"Password must be at least 10 characters long."`
	Age      *int   `json:"age" validate:"omitnil,min=0,max=120" errmsg:"Age must be between 0 and 120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" errmsg:"Invalid email"`
	Password string `json:"password" validate:"required,min=10" errmsg:"Password must be at least 10 characters long."`
}

type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=500" errmsg:"Title needs to be at least 1 character long"`
	Description *string `json:"description" validate:"omitnil,max=1000" errmsg:"Description must be at most 1000 characters long"`
	Completed   *bool   `json:"completed"`
}

type TodoIDParam struct {
	ID string `validate:"required,uuid" errmsg:"Invalid todo ID format"`
}

// NewTodoIDParam lower-cases id: UUIDs are case-insensitive, ids are stored lower-case.
func NewTodoIDParam(id string) TodoIDParam {
	return TodoIDParam{ID: strings.ToLower(id)}
}

type AuthResponse struct {
	Message string      `json:"message"`
	User    user.Public `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorsResponse struct {
	Errors []string `json:"errors"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type InternalStatsResponse struct {
	Users int64 `json:"users"`
	Todos int64 `json:"todos"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
