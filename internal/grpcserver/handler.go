package grpcserver

import (
	"context"
	"errors"
	"fmt"

	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/patric-chuzhbe/bookbuddy/internal/auth"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

type userService interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Register(ctx context.Context, request models.RegisterRequest) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.UserWithBooks, error)
	GetIDByUsername(ctx context.Context, username string) (int64, error)
}

type bookService interface {
	Add(ctx context.Context, book models.NewSavedBook) (*models.SavedBook, error)
	ListSummariesByOwner(ctx context.Context, ownerID int64) ([]models.BookSummary, error)
	SetComment(ctx context.Context, bookID string, ownerID int64, comment *string) (*models.SavedBook, error)
	Remove(ctx context.Context, bookID string, ownerID int64) error
}

type tokenIssuer interface {
	Issue(usr models.User) (string, error)
}

// Handler implements BookBuddyServer on top of the repositories.
type Handler struct {
	users    userService
	books    bookService
	tokens   tokenIssuer
	validate *validator.Validate
}

func NewHandler(users userService, books bookService, tokens tokenIssuer) *Handler {
	return &Handler{
		users:    users,
		books:    books,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// toStatus maps an error kind onto a gRPC status. Unknown errors are logged
// and hidden behind codes.Internal.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrBadInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, models.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, models.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	}

	logger.FromContext(ctx).Errorw("grpc call failed", zap.Error(err))
	return status.Error(codes.Internal, "internal server error")
}

func (h *Handler) check(ctx context.Context, req any) error {
	if err := h.validate.Struct(req); err != nil {
		return toStatus(ctx, fmt.Errorf("%w: %v", models.ErrBadInput, err))
	}
	return nil
}

func (h *Handler) ownerID(ctx context.Context) (int64, error) {
	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		return 0, status.Error(codes.Unauthenticated, "unauthorized")
	}

	id, err := h.users.GetIDByUsername(ctx, identity.Username)
	if errors.Is(err, models.ErrNotFound) {
		return 0, status.Error(codes.Unauthenticated, "unauthorized")
	}
	if err != nil {
		return 0, toStatus(ctx, err)
	}

	return id, nil
}

func (h *Handler) issue(ctx context.Context, usr *models.User) (*models.TokenResponse, error) {
	token, err := h.tokens.Issue(*usr)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &models.TokenResponse{Token: token}, nil
}

func (h *Handler) Token(ctx context.Context, req *models.TokenRequest) (*models.TokenResponse, error) {
	if err := h.check(ctx, req); err != nil {
		return nil, err
	}

	usr, err := h.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return h.issue(ctx, usr)
}

func (h *Handler) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	if err := h.check(ctx, req); err != nil {
		return nil, err
	}

	usr, err := h.users.Register(ctx, *req)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return h.issue(ctx, usr)
}

func (h *Handler) ListSavedBooks(ctx context.Context, _ *ListSavedBooksRequest) (*ListSavedBooksResponse, error) {
	ownerID, err := h.ownerID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := h.books.ListSummariesByOwner(ctx, ownerID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &ListSavedBooksResponse{Books: books}, nil
}

func (h *Handler) AddBook(ctx context.Context, req *models.AddBookRequest) (*AddBookResponse, error) {
	if err := h.check(ctx, req); err != nil {
		return nil, err
	}

	ownerID, err := h.ownerID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := h.books.Add(ctx, models.NewSavedBook{
		UserID:       ownerID,
		BookID:       req.BookID,
		Title:        req.Title,
		Authors:      req.Authors,
		ThumbnailURL: req.ThumbnailURL,
		Comment:      req.Comment,
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &AddBookResponse{Book: book}, nil
}

func (h *Handler) SetComment(ctx context.Context, req *SetCommentRequest) (*SetCommentResponse, error) {
	if err := h.check(ctx, req); err != nil {
		return nil, err
	}

	ownerID, err := h.ownerID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := h.books.SetComment(ctx, req.BookID, ownerID, &req.Comment)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &SetCommentResponse{UpdatedBook: book}, nil
}

func (h *Handler) RemoveBook(ctx context.Context, req *RemoveBookRequest) (*RemoveBookResponse, error) {
	if err := h.check(ctx, req); err != nil {
		return nil, err
	}

	ownerID, err := h.ownerID(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.books.Remove(ctx, req.BookID, ownerID); err != nil {
		return nil, toStatus(ctx, err)
	}

	return &RemoveBookResponse{Deleted: req.BookID}, nil
}

func (h *Handler) GetUser(ctx context.Context, req *GetUserRequest) (*GetUserResponse, error) {
	if err := h.check(ctx, req); err != nil {
		return nil, err
	}

	usr, err := h.users.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &GetUserResponse{User: usr}, nil
}
