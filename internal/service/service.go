// Package service implements the domain operations of the todo tracker on top of
// a storage backend. It hashes credentials, enforces ownership scoping and
// translates storage failures into the errors the transports report.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/patric-chuzhbe/todotracker/internal/db/storage"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/passwordhash"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (string, error)

	GetUserByEmail(ctx context.Context, email string) (*user.User, error)

	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	DeleteUser(ctx context.Context, userID string) error
}

type todoKeeper interface {
	InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error)

	GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error)

	UpdateTodo(ctx context.Context, todoID, userID string, patch *models.TodoPatch) (*models.Todo, error)

	DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error)
}

type statsKeeper interface {
	GetNumberOfUsers(ctx context.Context) (int64, error)

	GetNumberOfTodos(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Storage is the contract every backend implements.
type Storage interface {
	userKeeper
	todoKeeper
	statsKeeper
	pinger
}

type passwordHasher interface {
	Hash(plaintext string) (string, error)

	Verify(plaintext, digest string) (bool, error)
}

var (
	// ErrConflict is returned when the email is already registered.
	ErrConflict = errors.New("email already exists")

	// ErrInvalidCredentials does not tell an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound covers both missing rows and rows owned by someone else.
	ErrNotFound = errors.New("not found")

	// ErrReferential is returned when a todo names an owner that does not exist.
	ErrReferential = errors.New("referenced user does not exist")
)

// Client-facing messages shared with the transports.
const (
	MessageInvalidEmail    = "Invalid email"
	MessagePasswordTooWeak = "Password must be at least 10 characters long."
	MessageAgeOutOfRange   = "Age must be between 0 and 120"
	MessageTitleRequired   = "Title needs to be at least 1 character long"
)

type Service struct {
	db     Storage
	hasher passwordHasher

	// dummyDigest is verified against when the email is unknown, so both
	// login failures cost the same.
	dummyDigest string
}

func New(db Storage, hasher passwordHasher) (*Service, error) {
	dummyDigest, err := hasher.Hash("timing-equalizer-password")
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/New(): error while `hasher.Hash()` calling: %w", err)
	}

	return &Service{
		db:          db,
		hasher:      hasher,
		dummyDigest: dummyDigest,
	}, nil
}

// InsertUser hashes the password and stores a new user.
func (s *Service) InsertUser(ctx context.Context, email, password string, age *int) (string, error) {
	if !user.AgeInRange(age) {
		return "", NewValidationError(MessageAgeOutOfRange)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, passwordhash.ErrInvalidInput) {
			return "", NewValidationError(MessagePasswordTooWeak)
		}
		return "", fmt.Errorf("in internal/service/service.go/InsertUser(): error while `s.hasher.Hash()` calling: %w", err)
	}

	userID, err := s.db.CreateUser(ctx, &user.User{
		Email:        email,
		PasswordHash: digest,
		Age:          age,
	})
	if err != nil {
		switch storage.KindOf(err) {
		case storage.UniqueViolation:
			return "", ErrConflict
		case storage.CheckViolation:
			return "", NewValidationError(MessageAgeOutOfRange)
		}
		return "", fmt.Errorf("in internal/service/service.go/InsertUser(): error while `s.db.CreateUser()` calling: %w", err)
	}

	return userID, nil
}

// GetUserByEmail returns the stored user, password hash included.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	usr, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, translateLookupError(err, "GetUserByEmail", "s.db.GetUserByEmail")
	}

	return usr, nil
}

// GetUserByID returns the user without the password hash.
func (s *Service) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	usr, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translateLookupError(err, "GetUserByID", "s.db.GetUserByID")
	}
	usr.PasswordHash = ""

	return usr, nil
}

// Login checks the credentials and returns the matching user.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, error) {
	usr, err := s.db.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("in internal/service/service.go/Login(): error while `s.db.GetUserByEmail()` calling: %w", err)
		}
		_, _ = s.hasher.Verify(password, s.dummyDigest)

		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, usr.PasswordHash)
	if err != nil {
		if errors.Is(err, passwordhash.ErrInvalidInput) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("in internal/service/service.go/Login(): error while `s.hasher.Verify()` calling: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	usr.PasswordHash = ""

	return usr, nil
}

// DeleteUser removes the user together with all of their todos.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.db.DeleteUser(ctx, userID); err != nil {
		return translateLookupError(err, "DeleteUser", "s.db.DeleteUser")
	}

	return nil
}

// InsertTodo creates a todo owned by newTodo.UserID.
func (s *Service) InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error) {
	if newTodo.Title == "" {
		return nil, NewValidationError(MessageTitleRequired)
	}

	todo, err := s.db.InsertTodo(ctx, newTodo)
	if err != nil {
		switch storage.KindOf(err) {
		case storage.ForeignKeyViolation:
			return nil, fmt.Errorf("%w: %v", ErrReferential, err)
		case storage.CheckViolation:
			return nil, NewValidationError(MessageTitleRequired)
		}
		return nil, fmt.Errorf("in internal/service/service.go/InsertTodo(): error while `s.db.InsertTodo()` calling: %w", err)
	}

	return todo, nil
}

// GetTodosByUserID lists the user's todos, newest first. An unknown user has none.
func (s *Service) GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error) {
	todos, err := s.db.GetTodosByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("in internal/service/service.go/GetTodosByUserID(): error while `s.db.GetTodosByUserID()` calling: %w", err)
	}
	if todos == nil {
		todos = models.Todos{}
	}

	return todos, nil
}

// UpdateTodo applies patch to the todo when it belongs to userID.
func (s *Service) UpdateTodo(ctx context.Context, todoID, userID string, patch *models.TodoPatch) (*models.Todo, error) {
	if patch.Title != nil && *patch.Title == "" {
		return nil, NewValidationError(MessageTitleRequired)
	}

	todo, err := s.db.UpdateTodo(ctx, todoID, userID, patch)
	if err != nil {
		if storage.IsKind(err, storage.CheckViolation) {
			return nil, NewValidationError(MessageTitleRequired)
		}
		return nil, translateLookupError(err, "UpdateTodo", "s.db.UpdateTodo")
	}

	return todo, nil
}

// DeleteTodo removes the todo when it belongs to userID and returns its last state.
func (s *Service) DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error) {
	todo, err := s.db.DeleteTodo(ctx, todoID, userID)
	if err != nil {
		return nil, translateLookupError(err, "DeleteTodo", "s.db.DeleteTodo")
	}

	return todo, nil
}

// GetInternalStats returns the number of users and todos.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	todos, err := s.db.GetNumberOfTodos(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users: users,
		Todos: todos,
	}, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func translateLookupError(err error, function, call string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}

	return fmt.Errorf("in internal/service/service.go/%s(): error while `%s()` calling: %w", function, call, err)
}
