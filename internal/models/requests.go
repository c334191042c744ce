package models

// TokenRequest is the body of POST /auth/token.
type TokenRequest struct {
	Username string `json:"username" validate:"required,min=1,max=30"`
	Password string `json:"password" validate:"required,min=1,max=20"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=30"`
	Password string `json:"password" validate:"required,min=5,max=20"`
	Email    string `json:"email" validate:"required,email,max=60"`
}

// TokenResponse carries a freshly issued identity token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UserUpdate is a sparse set of user fields to change. Nil fields are left
// untouched.
type UserUpdate struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=1,max=30"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=60"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=5,max=20"`
}

// AddBookRequest is the body of POST /books.
type AddBookRequest struct {
	BookID       string  `json:"book_id" validate:"required,min=1"`
	Title        string  `json:"title" validate:"required,min=1"`
	Authors      string  `json:"authors" validate:"required,min=1"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty" validate:"omitempty,url"`
	Comment      *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

// CommentRequest is the body of PATCH /books/{id}/comment.
type CommentRequest struct {
	Comment string `json:"comment" validate:"max=1000"`
}
