// Package mockstorage provides a testify-based mock implementation
// of the storage contract used by the service package.
// It lets tests inject storage failures the real backends cannot easily produce.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

// StorageMock is a testify mock that implements service.Storage.
type StorageMock struct {
	mock.Mock

	// OnGetNumberOfUsers is an optional function field that can be assigned
	// to define custom mock behavior for GetNumberOfUsers in tests.
	//
	// If set, GetNumberOfUsers will delegate to this function instead of
	// using testify's generic mock handler.
	OnGetNumberOfUsers func(ctx context.Context) (int64, error)

	// OnGetNumberOfTodos works like OnGetNumberOfUsers for GetNumberOfTodos.
	OnGetNumberOfTodos func(ctx context.Context) (int64, error)
}

// Ping mocks the pinger interface to simulate a health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	args := m.Called(ctx, usr)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

func (m *StorageMock) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	args := m.Called(ctx, userID)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Error(1)
}

func (m *StorageMock) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *StorageMock) InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error) {
	args := m.Called(ctx, newTodo)
	todo, _ := args.Get(0).(*models.Todo)
	return todo, args.Error(1)
}

func (m *StorageMock) GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error) {
	args := m.Called(ctx, userID)
	todos, _ := args.Get(0).(models.Todos)
	return todos, args.Error(1)
}

func (m *StorageMock) UpdateTodo(
	ctx context.Context,
	todoID,
	userID string,
	patch *models.TodoPatch,
) (*models.Todo, error) {
	args := m.Called(ctx, todoID, userID, patch)
	todo, _ := args.Get(0).(*models.Todo)
	return todo, args.Error(1)
}

func (m *StorageMock) DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error) {
	args := m.Called(ctx, todoID, userID)
	todo, _ := args.Get(0).(*models.Todo)
	return todo, args.Error(1)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// GetNumberOfUsers returns the mocked number of users.
// If OnGetNumberOfUsers is non-nil, it will be called to produce the result.
func (m *StorageMock) GetNumberOfUsers(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfUsers != nil {
		return m.OnGetNumberOfUsers(ctx)
	}
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// GetNumberOfTodos returns the mocked number of todos.
func (m *StorageMock) GetNumberOfTodos(ctx context.Context) (int64, error) {
	if m.OnGetNumberOfTodos != nil {
		return m.OnGetNumberOfTodos(ctx)
	}
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
