package examples

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/patric-chuzhbe/bookbuddy/internal/auth"
	"github.com/patric-chuzhbe/bookbuddy/internal/catalog"
	"github.com/patric-chuzhbe/bookbuddy/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookbuddy/internal/grpcserver"
	"github.com/patric-chuzhbe/bookbuddy/internal/hasher"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/repository"
	"github.com/patric-chuzhbe/bookbuddy/internal/router"
)

type stack struct {
	users *repository.UserRepository
	books *repository.BookRepository
	codec *auth.Codec
	db    *memorystorage.MemoryStorage
}

func newStack() *stack {
	db := memorystorage.New()
	h, err := hasher.New(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &stack{
		users: repository.NewUserRepository(db, h),
		books: repository.NewBookRepository(db),
		codec: auth.NewCodec([]byte("examples-secret")),
		db:    db,
	}
}

func (s *stack) httpServer() *httptest.Server {
	rtr := router.New(s.users, s.books, catalog.Stub{}, s.codec, s.db, auth.New(s.codec))
	return httptest.NewServer(rtr.Handler())
}

func call(method, url, token string, payload any, result any) int {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			panic(err)
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			panic(err)
		}
	}

	return resp.StatusCode
}

// A reader signs up, saves a book, comments on it and reads the list back.
func Example_httpSession() {
	server := newStack().httpServer()
	defer server.Close()

	var token models.TokenResponse
	code := call(http.MethodPost, server.URL+"/auth/register", "", models.RegisterRequest{
		Username: "reader",
		Password: "secret1",
		Email:    "reader@example.com",
	}, &token)
	fmt.Println("register:", code)

	var added struct {
		Book models.SavedBook `json:"book"`
	}
	code = call(http.MethodPost, server.URL+"/books", token.Token, models.AddBookRequest{
		BookID:  "v1",
		Title:   "Dune",
		Authors: "Frank Herbert",
	}, &added)
	fmt.Println("save:", code, added.Book.Title)

	code = call(http.MethodPost, server.URL+"/books", token.Token, models.AddBookRequest{
		BookID:  "v1",
		Title:   "Dune",
		Authors: "Frank Herbert",
	}, nil)
	fmt.Println("save again:", code)

	var commented struct {
		UpdatedBook models.SavedBook `json:"updatedBook"`
	}
	code = call(http.MethodPatch, server.URL+"/books/v1/comment", token.Token, models.CommentRequest{Comment: "spice"}, &commented)
	fmt.Println("comment:", code, *commented.UpdatedBook.Comment)

	var saved struct {
		Books []models.BookSummary `json:"books"`
	}
	code = call(http.MethodGet, server.URL+"/books/saved", token.Token, nil, &saved)
	fmt.Println("list:", code, len(saved.Books), saved.Books[0].BookID)

	code = call(http.MethodGet, server.URL+"/books/saved", "", nil, nil)
	fmt.Println("anonymous list:", code)

	// Output:
	// register: 201
	// save: 201 Dune
	// save again: 409
	// comment: 200 spice
	// list: 200 1 v1
	// anonymous list: 401
}

// Profiles can only be changed by their owner.
func Example_httpOwnership() {
	server := newStack().httpServer()
	defer server.Close()

	tokens := map[string]string{}
	for _, name := range []string{"alice", "bob"} {
		var token models.TokenResponse
		call(http.MethodPost, server.URL+"/auth/register", "", models.RegisterRequest{
			Username: name,
			Password: "secret1",
			Email:    name + "@example.com",
		}, &token)
		tokens[name] = token.Token
	}

	email := "new@example.com"
	fmt.Println("bob edits alice:", call(http.MethodPatch, server.URL+"/users/alice", tokens["bob"], models.UserUpdate{Email: &email}, nil))
	fmt.Println("alice edits alice:", call(http.MethodPatch, server.URL+"/users/alice", tokens["alice"], models.UserUpdate{Email: &email}, nil))
	fmt.Println("bob deletes alice:", call(http.MethodDelete, server.URL+"/users/alice", tokens["bob"], nil, nil))

	// Output:
	// bob edits alice: 401
	// alice edits alice: 200
	// bob deletes alice: 401
}

// The same repositories are reachable over gRPC with a bearer token in the
// call metadata.
func Example_grpcSession() {
	s := newStack()
	server := grpcserver.NewServer(grpcserver.NewHandler(s.users, s.books, s.codec), s.codec)

	listener := bufconn.Listen(1024 * 1024)
	go func() {
		_ = server.Serve(listener)
	}()
	defer server.Stop()

	conn, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	client := grpcserver.NewClient(conn)

	_, err = client.ListSavedBooks(context.Background(), &grpcserver.ListSavedBooksRequest{})
	fmt.Println("anonymous:", status.Code(err))

	token, err := client.Register(context.Background(), &models.RegisterRequest{
		Username: "reader",
		Password: "secret1",
		Email:    "reader@example.com",
	})
	if err != nil {
		panic(err)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token.Token)
	if _, err := client.AddBook(ctx, &models.AddBookRequest{BookID: "v1", Title: "Dune", Authors: "Frank Herbert"}); err != nil {
		panic(err)
	}

	listed, err := client.ListSavedBooks(ctx, &grpcserver.ListSavedBooksRequest{})
	if err != nil {
		panic(err)
	}
	fmt.Println("saved:", len(listed.Books), listed.Books[0].Title)

	_, err = client.RemoveBook(ctx, &grpcserver.RemoveBookRequest{BookID: "missing"})
	fmt.Println("remove missing:", status.Code(err) == codes.NotFound)

	// Output:
	// anonymous: Unauthenticated
	// saved: 1 Dune
	// remove missing: true
}
