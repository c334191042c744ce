package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const ServiceName = "bookbuddy.BookBuddy"

// Full method names, as seen by interceptors.
const (
	MethodToken          = "/" + ServiceName + "/Token"
	MethodRegister       = "/" + ServiceName + "/Register"
	MethodListSavedBooks = "/" + ServiceName + "/ListSavedBooks"
	MethodAddBook        = "/" + ServiceName + "/AddBook"
	MethodSetComment     = "/" + ServiceName + "/SetComment"
	MethodRemoveBook     = "/" + ServiceName + "/RemoveBook"
	MethodGetUser        = "/" + ServiceName + "/GetUser"
)

// LoggedInMethods require an authenticated caller.
var LoggedInMethods = []string{
	MethodListSavedBooks,
	MethodAddBook,
	MethodSetComment,
	MethodRemoveBook,
	MethodGetUser,
}

// AllMethods lists every method of the service.
var AllMethods = append([]string{MethodToken, MethodRegister}, LoggedInMethods...)

type ListSavedBooksRequest struct{}

type ListSavedBooksResponse struct {
	Books []models.BookSummary `json:"books"`
}

type AddBookResponse struct {
	Book *models.SavedBook `json:"book"`
}

type SetCommentRequest struct {
	BookID  string `json:"book_id" validate:"required"`
	Comment string `json:"comment" validate:"max=1000"`
}

type SetCommentResponse struct {
	UpdatedBook *models.SavedBook `json:"updatedBook"`
}

type RemoveBookRequest struct {
	BookID string `json:"book_id" validate:"required"`
}

type RemoveBookResponse struct {
	Deleted string `json:"deleted"`
}

type GetUserRequest struct {
	Username string `json:"username" validate:"required"`
}

type GetUserResponse struct {
	User *models.UserWithBooks `json:"user"`
}

// BookBuddyServer is the server side of the service.
type BookBuddyServer interface {
	Token(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error)
	ListSavedBooks(ctx context.Context, req *ListSavedBooksRequest) (*ListSavedBooksResponse, error)
	AddBook(ctx context.Context, req *models.AddBookRequest) (*AddBookResponse, error)
	SetComment(ctx context.Context, req *SetCommentRequest) (*SetCommentResponse, error)
	RemoveBook(ctx context.Context, req *RemoveBookRequest) (*RemoveBookResponse, error)
	GetUser(ctx context.Context, req *GetUserRequest) (*GetUserResponse, error)
}

func unary[Req, Resp any](
	name string,
	call func(BookBuddyServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookBuddyServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookBuddyServer), ctx, req.(*Req))
			})
		},
	}
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookBuddyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Token", BookBuddyServer.Token),
		unary("Register", BookBuddyServer.Register),
		unary("ListSavedBooks", BookBuddyServer.ListSavedBooks),
		unary("AddBook", BookBuddyServer.AddBook),
		unary("SetComment", BookBuddyServer.SetComment),
		unary("RemoveBook", BookBuddyServer.RemoveBook),
		unary("GetUser", BookBuddyServer.GetUser),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookbuddy",
}

// Client calls the service over conn using the JSON codec.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	if err := c.conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Token(ctx context.Context, in *models.TokenRequest, opts ...grpc.CallOption) (*models.TokenResponse, error) {
	return invoke[models.TokenResponse](ctx, c, MethodToken, in, opts...)
}

func (c *Client) Register(ctx context.Context, in *models.RegisterRequest, opts ...grpc.CallOption) (*models.TokenResponse, error) {
	return invoke[models.TokenResponse](ctx, c, MethodRegister, in, opts...)
}

func (c *Client) ListSavedBooks(ctx context.Context, in *ListSavedBooksRequest, opts ...grpc.CallOption) (*ListSavedBooksResponse, error) {
	return invoke[ListSavedBooksResponse](ctx, c, MethodListSavedBooks, in, opts...)
}

func (c *Client) AddBook(ctx context.Context, in *models.AddBookRequest, opts ...grpc.CallOption) (*AddBookResponse, error) {
	return invoke[AddBookResponse](ctx, c, MethodAddBook, in, opts...)
}

func (c *Client) SetComment(ctx context.Context, in *SetCommentRequest, opts ...grpc.CallOption) (*SetCommentResponse, error) {
	return invoke[SetCommentResponse](ctx, c, MethodSetComment, in, opts...)
}

func (c *Client) RemoveBook(ctx context.Context, in *RemoveBookRequest, opts ...grpc.CallOption) (*RemoveBookResponse, error) {
	return invoke[RemoveBookResponse](ctx, c, MethodRemoveBook, in, opts...)
}

func (c *Client) GetUser(ctx context.Context, in *GetUserRequest, opts ...grpc.CallOption) (*GetUserResponse, error) {
	return invoke[GetUserResponse](ctx, c, MethodGetUser, in, opts...)
}
