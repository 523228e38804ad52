// Package router exposes the todo tracker over HTTP. It wires the chi routes,
// the middleware chain and the session gate around the service operations,
// and maps service errors onto status codes with an {"errors": [...]} body.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/todotracker/internal/gzippedhttp"
	"github.com/patric-chuzhbe/todotracker/internal/logger"
	"github.com/patric-chuzhbe/todotracker/internal/metrics"
	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/service"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

const (
	messageInternalError   = "Internal server error"
	messageTodoNotFound    = "Todo not found"
	messageUserNotFound    = "User not found"
	messageInvalidJSON     = "Invalid JSON body"
	messageTooManyRequests = "Too many requests"
	messageUnknownFields   = "You provided invalid data, only title, description, and completed are allowed"
	messageEmailExists     = "Email already exists"
	messageBadCredentials  = "Invalid credentials"
	messageBodyTooLarge    = "Request body too large"

	// maxRequestBodyBytes bounds request bodies after gzip decoding.
	maxRequestBodyBytes = 1 << 20
)

type userService interface {
	InsertUser(ctx context.Context, email, password string, age *int) (string, error)

	Login(ctx context.Context, email, password string) (*user.User, error)

	GetUserByID(ctx context.Context, userID string) (*user.User, error)

	DeleteUser(ctx context.Context, userID string) error
}

type todoService interface {
	InsertTodo(ctx context.Context, newTodo *models.NewTodo) (*models.Todo, error)

	GetTodosByUserID(ctx context.Context, userID string) (models.Todos, error)

	UpdateTodo(ctx context.Context, todoID, userID string, patch *models.TodoPatch) (*models.Todo, error)

	DeleteTodo(ctx context.Context, todoID, userID string) (*models.Todo, error)
}

type systemService interface {
	GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error)

	Ping(ctx context.Context) error
}

type todoTracker interface {
	userService
	todoService
	systemService
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler

	IssueSession(response http.ResponseWriter, userID string) error

	ClearSession(response http.ResponseWriter)
}

type subnetGuard interface {
	TrustedOnly(h http.Handler) http.Handler
}

// Router holds the handlers' dependencies.
type Router struct {
	service todoTracker
	auth    authenticator
	metrics *metrics.Metrics
}

type initOptions struct {
	authRateLimit int
	production    bool
	metrics       *metrics.Metrics
}

// InitOption defines a functional option for New.
type InitOption func(*initOptions)

// WithAuthRateLimit caps requests per minute and client IP on /auth routes.
// Zero disables the limit.
func WithAuthRateLimit(requestsPerMinute int) InitOption {
	return func(options *initOptions) {
		options.authRateLimit = requestsPerMinute
	}
}

// WithProduction turns on HTTPS redirects and HSTS.
func WithProduction(production bool) InitOption {
	return func(options *initOptions) {
		options.production = production
	}
}

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) InitOption {
	return func(options *initOptions) {
		options.metrics = m
	}
}

// New builds the HTTP handler.
func New(
	theService todoTracker,
	theAuth authenticator,
	ipChecker subnetGuard,
	optionsProto ...InitOption,
) *chi.Mux {
	options := &initOptions{
		authRateLimit: 0,
		production:    false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	myRouter := &Router{
		service: theService,
		auth:    theAuth,
		metrics: options.metrics,
	}

	secureOptions := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        options.production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	}
	if options.production {
		secureOptions.STSSeconds = 31536000
		secureOptions.STSIncludeSubdomains = true
	}
	secureMiddleware := secure.New(secureOptions)

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		options.metrics.Middleware,
		secureMiddleware.Handler,
		sameOriginOnly,
		gzippedhttp.UngzipRequest,
		middleware.RequestSize(maxRequestBodyBytes),
		gzippedhttp.GzipResponse,
	)

	router.Get(`/health`, myRouter.GetHealth)
	router.Get(`/ping`, myRouter.GetPing)
	router.Handle(`/metrics`, options.metrics.Handler())
	router.With(ipChecker.TrustedOnly).Get(`/internal/stats`, myRouter.GetInternalStats)

	router.Route(`/auth`, func(authRouter chi.Router) {
		if options.authRateLimit > 0 {
			authRouter.Use(httprate.Limit(
				options.authRateLimit,
				time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(response http.ResponseWriter, request *http.Request) {
					writeErrors(response, http.StatusTooManyRequests, messageTooManyRequests)
				}),
			))
		}
		authRouter.Post(`/signup`, myRouter.PostSignup)
		authRouter.Post(`/login`, myRouter.PostLogin)
		authRouter.Post(`/logout`, myRouter.PostLogout)
	})

	router.Route(`/protected`, func(protectedRouter chi.Router) {
		protectedRouter.Use(theAuth.AuthenticateUser)
		protectedRouter.Get(`/me`, myRouter.GetMe)
		protectedRouter.Delete(`/me`, myRouter.DeleteMe)
		protectedRouter.Post(`/todos`, myRouter.PostTodos)
		protectedRouter.Get(`/todos`, myRouter.GetTodos)
		protectedRouter.Patch(`/todos/{id}`, myRouter.PatchTodo)
		protectedRouter.Delete(`/todos/{id}`, myRouter.DeleteTodo)
	})

	router.NotFound(func(response http.ResponseWriter, request *http.Request) {
		writeErrors(response, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(response http.ResponseWriter, request *http.Request) {
		writeErrors(response, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return router
}

func writeJSON(response http.ResponseWriter, status int, payload any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("error while encoding the response", zap.Error(err))
	}
}

func writeErrors(response http.ResponseWriter, status int, messages ...string) {
	writeJSON(response, status, models.ErrorsResponse{Errors: messages})
}

// writeServiceError maps a service error onto the HTTP taxonomy.
// notFoundMessage names the missing resource for 404 answers.
func writeServiceError(response http.ResponseWriter, request *http.Request, err error, notFoundMessage string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeErrors(response, http.StatusBadRequest, validationErr.Messages...)
	case errors.Is(err, service.ErrConflict):
		writeErrors(response, http.StatusConflict, messageEmailExists)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeErrors(response, http.StatusUnauthorized, messageBadCredentials)
	case errors.Is(err, service.ErrNotFound):
		writeErrors(response, http.StatusNotFound, notFoundMessage)
	default:
		logger.Log.Errorln(
			"unexpected error while handling request",
			"method", request.Method,
			"uri", request.RequestURI,
			zap.Error(err),
		)
		writeErrors(response, http.StatusInternalServerError, messageInternalError)
	}
}

// decodeJSON reads the request body into target. An empty body decodes as {}.
// With strict set, unknown fields are rejected with errUnknownField.
func decodeJSON(request *http.Request, target any, strict bool) error {
	decoder := json.NewDecoder(request.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	err := decoder.Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil && strings.HasPrefix(err.Error(), "json: unknown field") {
		return errUnknownField
	}

	return err
}

// decodeTodoPatch decodes a PATCH body strictly. An explicit null is not
// "leave as is": it is reported as a type mismatch of the named field.
func decodeTodoPatch(request *http.Request, patch *models.TodoPatch) error {
	body, err := io.ReadAll(request.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	nullErr := &nullFieldsError{}
	for _, field := range todoPatchFields {
		if value, ok := fields[field.name]; ok && bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			nullErr.messages = append(nullErr.messages, "Expected "+field.kind+", received null")
		}
	}

	request.Body = io.NopCloser(bytes.NewReader(body))
	if err := decodeJSON(request, patch, true); err != nil {
		return err
	}
	if len(nullErr.messages) > 0 {
		return nullErr
	}

	return nil
}

var todoPatchFields = []struct {
	name string
	kind string
}{
	{name: "title", kind: "string"},
	{name: "description", kind: "string"},
	{name: "completed", kind: "boolean"},
}

type nullFieldsError struct {
	messages []string
}

func (e *nullFieldsError) Error() string {
	return strings.Join(e.messages, "; ")
}

// writeDecodeError answers a body that could not be decoded.
func writeDecodeError(response http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	var nullErr *nullFieldsError
	switch {
	case errors.As(err, &tooLarge):
		writeErrors(response, http.StatusRequestEntityTooLarge, messageBodyTooLarge)
	case errors.Is(err, errUnknownField):
		writeErrors(response, http.StatusBadRequest, messageUnknownFields)
	case errors.As(err, &nullErr):
		writeErrors(response, http.StatusBadRequest, nullErr.messages...)
	default:
		writeErrors(response, http.StatusBadRequest, messageInvalidJSON)
	}
}

var errUnknownField = errors.New("unknown field")
