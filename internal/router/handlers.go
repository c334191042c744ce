package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/patric-chuzhbe/bookbuddy/internal/httpresponse"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/repository"
)

// GetPing answers 200 when the storage is reachable.
func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.storage.Ping(request.Context()); err != nil {
		r.fail(response, request, err)
		return
	}
	response.WriteHeader(http.StatusOK)
}

// GetInternalStats returns the number of users and saved books.
func (r *Router) GetInternalStats(response http.ResponseWriter, request *http.Request) {
	stats, err := r.users.Stats(request.Context())
	if err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, stats)
}

// PostAuthToken exchanges a username and password for a token.
func (r *Router) PostAuthToken(response http.ResponseWriter, request *http.Request) {
	var body models.TokenRequest
	if err := r.decodeJSON(response, request, &body); err != nil {
		r.fail(response, request, err)
		return
	}

	usr, err := r.users.Authenticate(request.Context(), body.Username, body.Password)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	r.respondWithToken(response, request, http.StatusOK, usr)
}

// PostAuthRegister creates a user and returns a token for it.
func (r *Router) PostAuthRegister(response http.ResponseWriter, request *http.Request) {
	var body models.RegisterRequest
	if err := r.decodeJSON(response, request, &body); err != nil {
		r.fail(response, request, err)
		return
	}

	usr, err := r.users.Register(request.Context(), body)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	r.respondWithToken(response, request, http.StatusCreated, usr)
}

func (r *Router) respondWithToken(response http.ResponseWriter, request *http.Request, status int, usr *models.User) {
	token, err := r.tokens.Issue(*usr)
	if err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, status, models.TokenResponse{Token: token})
}

type usersPageResponse struct {
	Users      []models.User `json:"users"`
	TotalPages int64         `json:"totalPages"`
}

// GetUsers lists users a page at a time.
func (r *Router) GetUsers(response http.ResponseWriter, request *http.Request) {
	page, err := queryInt(request, "page", 1)
	if err != nil {
		r.fail(response, request, err)
		return
	}
	limit, err := queryInt(request, "limit", repository.DefaultPageLimit)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	result, err := r.users.ListPage(request.Context(), page, limit)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	httpresponse.JSON(response, http.StatusOK, usersPageResponse{Users: result.Users, TotalPages: result.TotalPages})
}

type userResponse[T any] struct {
	User T `json:"user"`
}

func (r *Router) GetUser(response http.ResponseWriter, request *http.Request) {
	usr, err := r.users.GetByUsername(request.Context(), chi.URLParam(request, "username"))
	if err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, userResponse[*models.UserWithBooks]{User: usr})
}

func (r *Router) PatchUser(response http.ResponseWriter, request *http.Request) {
	var body models.UserUpdate
	if err := r.decodeJSON(response, request, &body); err != nil {
		r.fail(response, request, err)
		return
	}

	usr, err := r.users.Update(request.Context(), chi.URLParam(request, "username"), body)
	if err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, userResponse[*models.User]{User: usr})
}

type deletedResponse struct {
	Deleted string `json:"deleted"`
}

func (r *Router) DeleteUser(response http.ResponseWriter, request *http.Request) {
	username := chi.URLParam(request, "username")
	if err := r.users.Remove(request.Context(), username); err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, deletedResponse{Deleted: username})
}

// PostBooks saves a catalog book for the caller.
func (r *Router) PostBooks(response http.ResponseWriter, request *http.Request) {
	var body models.AddBookRequest
	if err := r.decodeJSON(response, request, &body); err != nil {
		r.fail(response, request, err)
		return
	}

	ownerID, err := r.ownerID(request)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	book, err := r.books.Add(request.Context(), models.NewSavedBook{
		UserID:       ownerID,
		BookID:       body.BookID,
		Title:        body.Title,
		Authors:      body.Authors,
		ThumbnailURL: body.ThumbnailURL,
		Comment:      body.Comment,
	})
	if err != nil {
		r.fail(response, request, err)
		return
	}

	httpresponse.JSON(response, http.StatusCreated, struct {
		Book *models.SavedBook `json:"book"`
	}{Book: book})
}

// PatchBookComment replaces the comment of one of the caller's books.
func (r *Router) PatchBookComment(response http.ResponseWriter, request *http.Request) {
	var body models.CommentRequest
	if err := r.decodeJSON(response, request, &body); err != nil {
		r.fail(response, request, err)
		return
	}

	ownerID, err := r.ownerID(request)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	book, err := r.books.SetComment(request.Context(), chi.URLParam(request, "bookId"), ownerID, &body.Comment)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	httpresponse.JSON(response, http.StatusOK, struct {
		UpdatedBook *models.SavedBook `json:"updatedBook"`
	}{UpdatedBook: book})
}

type booksResponse[T any] struct {
	Books []T `json:"books"`
}

// GetBooksSearch looks the query up in the external catalog.
func (r *Router) GetBooksSearch(response http.ResponseWriter, request *http.Request) {
	books, err := r.catalog.Search(request.Context(), request.URL.Query().Get("q"))
	if err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, booksResponse[models.CatalogBook]{Books: books})
}

// GetBooksSaved lists the caller's books, most recent first.
func (r *Router) GetBooksSaved(response http.ResponseWriter, request *http.Request) {
	ownerID, err := r.ownerID(request)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	books, err := r.books.ListSummariesByOwner(request.Context(), ownerID)
	if err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, booksResponse[models.BookSummary]{Books: books})
}

func (r *Router) DeleteBook(response http.ResponseWriter, request *http.Request) {
	ownerID, err := r.ownerID(request)
	if err != nil {
		r.fail(response, request, err)
		return
	}

	bookID := chi.URLParam(request, "bookId")
	if err := r.books.Remove(request.Context(), bookID, ownerID); err != nil {
		r.fail(response, request, err)
		return
	}
	httpresponse.JSON(response, http.StatusOK, deletedResponse{Deleted: bookID})
}
