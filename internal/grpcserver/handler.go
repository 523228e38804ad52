package grpcserver

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/todotracker/internal/auth"
	"github.com/patric-chuzhbe/todotracker/internal/logger"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/service"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

type todoTracker interface {
	InsertUser(ctx context.Context, email, password string, age *int) (string, error)
	Login(ctx context.Context, email, password string) (*user.User, error)
	GetUserByID(ctx context.Context, userID string) (*user.User, error)
	InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error)
	GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error)
	UpdateTodo(ctx context.Context, todoID, userID string, patch *models.TodoPatch) (*models.Todo, error)
	DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error)
}

type tokenIssuer interface {
	Issue(userID string) (string, error)
}

type TodoHandler struct {
	svc    todoTracker
	issuer tokenIssuer
}

func NewTodoHandler(svc todoTracker, issuer tokenIssuer) *TodoHandler {
	return &TodoHandler{svc: svc, issuer: issuer}
}

func (h *TodoHandler) Signup(ctx context.Context, req *models.SignupRequest) (*SessionReply, error) {
	if err := service.ValidateStruct(req); err != nil {
		return nil, toStatus(err, "")
	}

	userID, err := h.svc.InsertUser(ctx, req.Email, req.Password, req.Age)
	if err != nil {
		return nil, toStatus(err, "")
	}

	return h.session(user.Public{ID: userID, Email: req.Email})
}

func (h *TodoHandler) Login(ctx context.Context, req *models.LoginRequest) (*SessionReply, error) {
	if err := service.ValidateStruct(req); err != nil {
		return nil, toStatus(err, "")
	}

	usr, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, toStatus(err, "")
	}

	return h.session(usr.Public())
}

func (h *TodoHandler) session(public user.Public) (*SessionReply, error) {
	token, err := h.issuer.Issue(public.ID)
	if err != nil {
		return nil, toStatus(err, "")
	}

	return &SessionReply{Token: token, User: public}, nil
}

func (h *TodoHandler) Me(ctx context.Context, _ *Empty) (*user.Public, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}

	usr, err := h.svc.GetUserByID(ctx, userID)
	if err != nil {
		return nil, toStatus(err, "User not found")
	}
	public := usr.Public()

	return &public, nil
}

func (h *TodoHandler) CreateTodo(ctx context.Context, req *models.CreateTodoRequest) (*models.Todo, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}
	if err := service.ValidateStruct(req); err != nil {
		return nil, toStatus(err, "")
	}

	todo, err := h.svc.InsertTodo(ctx, &models.NewTodo{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return nil, toStatus(err, "")
	}

	return todo, nil
}

func (h *TodoHandler) ListTodos(ctx context.Context, _ *Empty) (*ListTodosReply, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}

	todos, err := h.svc.GetTodosByUserID(ctx, userID)
	if err != nil {
		return nil, toStatus(err, "")
	}

	return &ListTodosReply{Todos: todos}, nil
}

func (h *TodoHandler) UpdateTodo(ctx context.Context, req *UpdateTodoRequest) (*models.Todo, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}
	param := models.NewTodoIDParam(req.ID)
	if err := service.ValidateStruct(param); err != nil {
		return nil, toStatus(err, "")
	}
	if err := service.ValidateStruct(req.TodoPatch); err != nil {
		return nil, toStatus(err, "")
	}

	todo, err := h.svc.UpdateTodo(ctx, param.ID, userID, &req.TodoPatch)
	if err != nil {
		return nil, toStatus(err, "Todo not found")
	}

	return todo, nil
}

func (h *TodoHandler) DeleteTodo(ctx context.Context, req *TodoIDRequest) (*models.Todo, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "Unauthorized")
	}
	param := models.NewTodoIDParam(req.ID)
	if err := service.ValidateStruct(param); err != nil {
		return nil, toStatus(err, "")
	}

	todo, err := h.svc.DeleteTodo(ctx, param.ID, userID)
	if err != nil {
		return nil, toStatus(err, "Todo not found")
	}

	return todo, nil
}

// toStatus maps service errors onto gRPC codes. Anything unexpected is logged
// and reported as Internal without details.
func toStatus(err error, notFoundMessage string) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return status.Error(codes.InvalidArgument, strings.Join(validationErr.Messages, "; "))
	case errors.Is(err, service.ErrConflict):
		return status.Error(codes.AlreadyExists, "Email already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "Invalid credentials")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, notFoundMessage)
	default:
		logger.Log.Errorln("unexpected error while handling gRPC call", zap.Error(err))
		return status.Error(codes.Internal, "Internal server error")
	}
}
