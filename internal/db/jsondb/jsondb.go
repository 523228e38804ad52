// Package jsondb is a storage backend that keeps users and todos in memory and
// mirrors them to a JSON file after every write. It enforces the same constraints
// as the relational schema: unique emails, the age range, the todo owner
// foreign key and cascade deletion.
package jsondb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/todotracker/internal/db/storage"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

// Constraint names match the ones Postgres generates for the migrations.
const (
	constraintUsersEmailKey  = "users_email_key"
	constraintUsersAgeCheck  = "users_age_check"
	constraintTodosUserIDKey = "todos_user_id_fkey"
	constraintTodosTitle     = "todos_title_check"
)

type JSONDB struct {
	mu       sync.RWMutex
	fileName string
	Cache    CacheStruct
	now      func() time.Time
}

// CacheStruct is the persisted document.
type CacheStruct struct {
	Users   map[string]*UserRecord `json:"users"`
	Todos   map[string]*TodoRecord `json:"todos"`
	NextSeq int64                  `json:"nextSeq"`
}

// UserRecord is the stored form of a user, password hash included.
type UserRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Age          *int      `json:"age,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TodoRecord is a stored todo. Seq breaks ties between equal creation times.
type TodoRecord struct {
	models.Todo
	Seq int64 `json:"seq"`
}

// NewCache returns an empty document.
func NewCache() CacheStruct {
	return CacheStruct{
		Users:   map[string]*UserRecord{},
		Todos:   map[string]*TodoRecord{},
		NextSeq: 1,
	}
}

// New opens the JSON file, creating it when it does not exist.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    NewCache(),
		now:      func() time.Time { return time.Now().UTC() },
	}

	err := parseJSONFile(fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		if err := db.save(); err != nil {
			return nil, err
		}
	}
	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*UserRecord{}
	}
	if db.Cache.Todos == nil {
		db.Cache.Todos = map[string]*TodoRecord{}
	}

	return db, nil
}

// NewInMemory returns a JSONDB that never touches the file system.
func NewInMemory() *JSONDB {
	return &JSONDB{
		Cache: NewCache(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cache)
}

// save writes the document atomically. The caller holds the write lock.
func (db *JSONDB) save() error {
	if db.fileName == "" {
		return nil
	}

	jsonData, err := json.MarshalIndent(db.Cache, "", "\t")
	if err != nil {
		return fmt.Errorf("in internal/db/jsondb/jsondb.go/save(): error while `json.MarshalIndent()` calling: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(db.fileName), filepath.Base(db.fileName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("in internal/db/jsondb/jsondb.go/save(): error while `os.CreateTemp()` calling: %w", err)
	}
	if _, err := tmp.Write(jsonData); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("in internal/db/jsondb/jsondb.go/save(): error while `tmp.Write()` calling: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), db.fileName)
}

func (r *UserRecord) toUser() *user.User {
	return &user.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Age:          copyInt(r.Age),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *TodoRecord) toTodo() *models.Todo {
	todo := r.Todo
	todo.Description = copyString(r.Description)

	return &todo
}

// CreateUser stores a new user and returns its generated ID.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User) (string, error) {
	if !user.AgeInRange(usr.Age) {
		return "", storage.NewError(storage.CheckViolation, constraintUsersAgeCheck, errors.New("age out of range"))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.Cache.Users {
		if existing.Email == usr.Email {
			return "", storage.NewError(storage.UniqueViolation, constraintUsersEmailKey, errors.New("email already exists"))
		}
	}

	now := db.now()
	record := &UserRecord{
		ID:           uuid.New().String(),
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		Age:          copyInt(usr.Age),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	db.Cache.Users[record.ID] = record

	if err := db.save(); err != nil {
		delete(db.Cache.Users, record.ID)
		return "", err
	}

	return record.ID, nil
}

// GetUserByEmail returns storage.ErrNotFound when nobody uses the email.
func (db *JSONDB) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, record := range db.Cache.Users {
		if record.Email == email {
			return record.toUser(), nil
		}
	}

	return nil, storage.ErrNotFound
}

// GetUserByID returns the user without the password hash.
func (db *JSONDB) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	record, ok := db.Cache.Users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	usr := record.toUser()
	usr.PasswordHash = ""

	return usr, nil
}

// DeleteUser removes the user and, by cascade, the user's todos.
func (db *JSONDB) DeleteUser(ctx context.Context, userID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	removedUser, ok := db.Cache.Users[userID]
	if !ok {
		return storage.ErrNotFound
	}

	delete(db.Cache.Users, userID)
	removedTodos := map[string]*TodoRecord{}
	for todoID, record := range db.Cache.Todos {
		if record.UserID == userID {
			removedTodos[todoID] = record
			delete(db.Cache.Todos, todoID)
		}
	}

	if err := db.save(); err != nil {
		db.Cache.Users[userID] = removedUser
		for todoID, record := range removedTodos {
			db.Cache.Todos[todoID] = record
		}
		return err
	}

	return nil
}

// InsertTodo stores a todo for an existing user.
func (db *JSONDB) InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error) {
	if newTodo.Title == "" {
		return nil, storage.NewError(storage.CheckViolation, constraintTodosTitle, errors.New("empty title"))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.Cache.Users[newTodo.UserID]; !ok {
		return nil, storage.NewError(storage.ForeignKeyViolation, constraintTodosUserIDKey, errors.New("user does not exist"))
	}

	now := db.now()
	record := &TodoRecord{
		Todo: models.Todo{
			ID:          uuid.New().String(),
			UserID:      newTodo.UserID,
			Title:       newTodo.Title,
			Description: copyString(newTodo.Description),
			Completed:   newTodo.Completed != nil && *newTodo.Completed,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Seq: db.Cache.NextSeq,
	}
	db.Cache.NextSeq++
	db.Cache.Todos[record.ID] = record

	if err := db.save(); err != nil {
		delete(db.Cache.Todos, record.ID)
		return nil, err
	}

	return record.toTodo(), nil
}

// GetTodosByUserID returns the user's todos, newest first.
func (db *JSONDB) GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error) {
	db.mu.RLock()
	all := make([]*TodoRecord, 0, len(db.Cache.Todos))
	for _, record := range db.Cache.Todos {
		all = append(all, record)
	}
	owned := funk.Filter(all, func(record *TodoRecord) bool {
		return record.UserID == userID
	}).([]*TodoRecord)
	result := make(models.Todos, 0, len(owned))
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].Seq > owned[j].Seq
	})
	for _, record := range owned {
		result = append(result, *record.toTodo())
	}
	db.mu.RUnlock()

	return result, nil
}

// UpdateTodo applies the patch to a todo matching both IDs and refreshes UpdatedAt.
func (db *JSONDB) UpdateTodo(ctx context.Context, todoID, userID string, patch *models.TodoPatch) (*models.Todo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	record, ok := db.Cache.Todos[todoID]
	if !ok || record.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, storage.NewError(storage.CheckViolation, constraintTodosTitle, errors.New("empty title"))
	}

	previous := *record
	if patch.Title != nil {
		record.Title = *patch.Title
	}
	if patch.Description != nil {
		record.Description = copyString(patch.Description)
	}
	if patch.Completed != nil {
		record.Completed = *patch.Completed
	}
	record.UpdatedAt = db.now()

	if err := db.save(); err != nil {
		*record = previous
		return nil, err
	}

	return record.toTodo(), nil
}

// DeleteTodo removes a todo matching both IDs and returns its last state.
func (db *JSONDB) DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	record, ok := db.Cache.Todos[todoID]
	if !ok || record.UserID != userID {
		return nil, storage.ErrNotFound
	}

	delete(db.Cache.Todos, todoID)
	if err := db.save(); err != nil {
		db.Cache.Todos[todoID] = record
		return nil, err
	}

	return record.toTodo(), nil
}

func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

func (db *JSONDB) GetNumberOfTodos(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Todos)), nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close flushes the document to disk.
func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.save()
}

func copyInt(value *int) *int {
	if value == nil {
		return nil
	}
	result := *value

	return &result
}

func copyString(value *string) *string {
	if value == nil {
		return nil
	}
	result := *value

	return &result
}
