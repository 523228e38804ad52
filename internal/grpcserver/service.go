package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/todotracker/internal/models"
	"github.com/patric-chuzhbe/todotracker/internal/user"
)

const serviceName = "todotracker.TodoService"

// Full method names, as seen by interceptors.
const (
	MethodSignup     = "/" + serviceName + "/Signup"
	MethodLogin      = "/" + serviceName + "/Login"
	MethodMe         = "/" + serviceName + "/Me"
	MethodCreateTodo = "/" + serviceName + "/CreateTodo"
	MethodListTodos  = "/" + serviceName + "/ListTodos"
	MethodUpdateTodo = "/" + serviceName + "/UpdateTodo"
	MethodDeleteTodo = "/" + serviceName + "/DeleteTodo"
)

// AllMethods lists every unary method of the service.
var AllMethods = []string{
	MethodSignup,
	MethodLogin,
	MethodMe,
	MethodCreateTodo,
	MethodListTodos,
	MethodUpdateTodo,
	MethodDeleteTodo,
}

// PublicMethods can be called without a session token.
var PublicMethods = []string{
	MethodSignup,
	MethodLogin,
}

type Empty struct{}

// SessionReply carries the session token that the caller must send back
// as the "authorization" metadata.
type SessionReply struct {
	Token string      `json:"token"`
	User  user.Public `json:"user"`
}

type TodoIDRequest struct {
	ID string `json:"id"`
}

type UpdateTodoRequest struct {
	ID string `json:"id"`
	models.TodoPatch
}

type ListTodosReply struct {
	Todos models.Todos `json:"todos"`
}

// TodoServiceServer is implemented by TodoHandler.
type TodoServiceServer interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*SessionReply, error)
	Login(ctx context.Context, req *models.LoginRequest) (*SessionReply, error)
	Me(ctx context.Context, req *Empty) (*user.Public, error)
	CreateTodo(ctx context.Context, req *models.CreateTodoRequest) (*models.Todo, error)
	ListTodos(ctx context.Context, req *Empty) (*ListTodosReply, error)
	UpdateTodo(ctx context.Context, req *UpdateTodoRequest) (*models.Todo, error)
	DeleteTodo(ctx context.Context, req *TodoIDRequest) (*models.Todo, error)
}

func unaryHandler[Req any, Resp any](
	fullMethod string,
	call func(TodoServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TodoServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TodoServiceServer), ctx, req.(*Req))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// TodoServiceDesc describes the service for grpc.Server.RegisterService.
var TodoServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TodoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Signup",
			Handler:    unaryHandler(MethodSignup, TodoServiceServer.Signup),
		},
		{
			MethodName: "Login",
			Handler:    unaryHandler(MethodLogin, TodoServiceServer.Login),
		},
		{
			MethodName: "Me",
			Handler:    unaryHandler(MethodMe, TodoServiceServer.Me),
		},
		{
			MethodName: "CreateTodo",
			Handler:    unaryHandler(MethodCreateTodo, TodoServiceServer.CreateTodo),
		},
		{
			MethodName: "ListTodos",
			Handler:    unaryHandler(MethodListTodos, TodoServiceServer.ListTodos),
		},
		{
			MethodName: "UpdateTodo",
			Handler:    unaryHandler(MethodUpdateTodo, TodoServiceServer.UpdateTodo),
		},
		{
			MethodName: "DeleteTodo",
			Handler:    unaryHandler(MethodDeleteTodo, TodoServiceServer.DeleteTodo),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "todotracker",
}

// TodoServiceClient calls the service over the json codec.
type TodoServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTodoServiceClient(cc grpc.ClientConnInterface) *TodoServiceClient {
	return &TodoServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *TodoServiceClient) Signup(ctx context.Context, in *models.SignupRequest, opts ...grpc.CallOption) (*SessionReply, error) {
	return invoke[SessionReply](ctx, c.cc, MethodSignup, in, opts)
}

func (c *TodoServiceClient) Login(ctx context.Context, in *models.LoginRequest, opts ...grpc.CallOption) (*SessionReply, error) {
	return invoke[SessionReply](ctx, c.cc, MethodLogin, in, opts)
}

func (c *TodoServiceClient) Me(ctx context.Context, opts ...grpc.CallOption) (*user.Public, error) {
	return invoke[user.Public](ctx, c.cc, MethodMe, &Empty{}, opts)
}

func (c *TodoServiceClient) CreateTodo(ctx context.Context, in *models.CreateTodoRequest, opts ...grpc.CallOption) (*models.Todo, error) {
	return invoke[models.Todo](ctx, c.cc, MethodCreateTodo, in, opts)
}

func (c *TodoServiceClient) ListTodos(ctx context.Context, opts ...grpc.CallOption) (*ListTodosReply, error) {
	return invoke[ListTodosReply](ctx, c.cc, MethodListTodos, &Empty{}, opts)
}

func (c *TodoServiceClient) UpdateTodo(ctx context.Context, in *UpdateTodoRequest, opts ...grpc.CallOption) (*models.Todo, error) {
	return invoke[models.Todo](ctx, c.cc, MethodUpdateTodo, in, opts)
}

func (c *TodoServiceClient) DeleteTodo(ctx context.Context, in *TodoIDRequest, opts ...grpc.CallOption) (*models.Todo, error) {
	return invoke[models.Todo](ctx, c.cc, MethodDeleteTodo, in, opts)
}
