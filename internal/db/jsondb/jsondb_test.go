package jsondb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/todotracker/internal/db/storage"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

func intPtr(value int) *int { return &value }

func stringPtr(value string) *string { return &value }

func boolPtr(value bool) *bool { return &value }

func newTestDB(t *testing.T) (*JSONDB, string) {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), "db_test.json")
	theStorage, err := New(fileName)
	require.NoError(t, err)
	require.NotNil(t, theStorage)
	t.Cleanup(func() {
		require.NoError(t, theStorage.Close())
	})

	return theStorage, fileName
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	theStorage, _ := newTestDB(t)

	userID, err := theStorage.CreateUser(ctx, &user.User{Email: "a@example.com", PasswordHash: "hash", Age: intPtr(30)})
	require.NoError(t, err)
	assert.NotEmpty(t, userID)

	_, err = theStorage.CreateUser(ctx, &user.User{Email: "a@example.com", PasswordHash: "other"})
	assert.True(t, storage.IsKind(err, storage.UniqueViolation))

	_, err = theStorage.CreateUser(ctx, &user.User{Email: "old@example.com", PasswordHash: "hash", Age: intPtr(121)})
	assert.True(t, storage.IsKind(err, storage.CheckViolation))

	usr, err := theStorage.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, userID, usr.ID)
	assert.Equal(t, "hash", usr.PasswordHash)
	assert.Equal(t, 30, *usr.Age)

	usr, err = theStorage.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", usr.Email)
	assert.Empty(t, usr.PasswordHash)

	_, err = theStorage.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = theStorage.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := theStorage.GetNumberOfUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestTodos(t *testing.T) {
	ctx := context.Background()
	theStorage, _ := newTestDB(t)

	ownerID, err := theStorage.CreateUser(ctx, &user.User{Email: "owner@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	strangerID, err := theStorage.CreateUser(ctx, &user.User{Email: "stranger@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	theStorage.now = func() time.Time { return fixed }

	first, err := theStorage.InsertTodo(ctx, &models.NewTodo{UserID: ownerID, Title: "first"})
	require.NoError(t, err)
	assert.False(t, first.Completed)
	assert.Nil(t, first.Description)

	second, err := theStorage.InsertTodo(ctx, &models.NewTodo{
		UserID:      ownerID,
		Title:       "second",
		Description: stringPtr("details"),
		Completed:   boolPtr(true),
	})
	require.NoError(t, err)

	_, err = theStorage.InsertTodo(ctx, &models.NewTodo{UserID: "ghost", Title: "orphan"})
	assert.True(t, storage.IsKind(err, storage.ForeignKeyViolation))

	todos, err := theStorage.GetTodosByUserID(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, second.ID, todos[0].ID, "equal creation times fall back to insertion order, newest first")
	assert.Equal(t, first.ID, todos[1].ID)

	empty, err := theStorage.GetTodosByUserID(ctx, strangerID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	later := fixed.Add(time.Minute)
	theStorage.now = func() time.Time { return later }

	_, err = theStorage.UpdateTodo(ctx, first.ID, strangerID, &models.TodoPatch{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	updated, err := theStorage.UpdateTodo(ctx, first.ID, ownerID, &models.TodoPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.Completed)
	assert.Equal(t, "first", updated.Title)
	assert.Equal(t, later, updated.UpdatedAt)
	assert.Equal(t, fixed, updated.CreatedAt)

	touched, err := theStorage.UpdateTodo(ctx, first.ID, ownerID, &models.TodoPatch{})
	require.NoError(t, err)
	assert.True(t, touched.Completed)

	_, err = theStorage.DeleteTodo(ctx, second.ID, strangerID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	deleted, err := theStorage.DeleteTodo(ctx, second.ID, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "details", *deleted.Description)

	count, err := theStorage.GetNumberOfTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	theStorage, _ := newTestDB(t)

	userID, err := theStorage.CreateUser(ctx, &user.User{Email: "gone@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	_, err = theStorage.InsertTodo(ctx, &models.NewTodo{UserID: userID, Title: "t"})
	require.NoError(t, err)

	require.NoError(t, theStorage.DeleteUser(ctx, userID))
	assert.ErrorIs(t, theStorage.DeleteUser(ctx, userID), storage.ErrNotFound)

	count, err := theStorage.GetNumberOfTodos(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteUserKeepsRecordsWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	theStorage, fileName := newTestDB(t)

	userID, err := theStorage.CreateUser(ctx, &user.User{Email: "stays@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	todo, err := theStorage.InsertTodo(ctx, &models.NewTodo{UserID: userID, Title: "t"})
	require.NoError(t, err)

	theStorage.fileName = filepath.Join(t.TempDir(), "missing-dir", "db.json")
	assert.Error(t, theStorage.DeleteUser(ctx, userID))
	theStorage.fileName = fileName

	usr, err := theStorage.GetUserByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "stays@example.com", usr.Email)

	todos, err := theStorage.GetTodosByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, todo.ID, todos[0].ID)
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	theStorage, fileName := newTestDB(t)

	userID, err := theStorage.CreateUser(ctx, &user.User{Email: "p@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	todo, err := theStorage.InsertTodo(ctx, &models.NewTodo{UserID: userID, Title: "persisted"})
	require.NoError(t, err)

	reopened, err := New(fileName)
	require.NoError(t, err)

	usr, err := reopened.GetUserByEmail(ctx, "p@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", usr.PasswordHash)

	todos, err := reopened.GetTodosByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, todo.ID, todos[0].ID)

	assert.NoError(t, reopened.Ping(ctx))
}
