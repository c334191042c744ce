// Package auth issues and verifies signed credentials and provides the HTTP
// middleware that derives the caller's identity from them.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookbuddy/internal/httpresponse"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

// ErrInvalidCredential is returned for tokens that are malformed, expired or
// signed with another secret.
var ErrInvalidCredential = fmt.Errorf("%w: invalid credential", models.ErrUnauthorized)

const bearerPrefix = "Bearer "

// Claims is the signed payload. Only the username and the standard
// timestamps are ever encoded.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Identity is what a verified credential proves about its holder.
type Identity struct {
	Username string
	IssuedAt time.Time
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// IdentityKey is the context key under which the authenticated Identity is stored.
const IdentityKey ContextKey = "identity"

// Codec signs and verifies credentials with a single HMAC secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithTTL makes issued credentials expire after ttl. A zero ttl issues
// credentials without an expiry.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a Codec signing with secret.
func NewCodec(secret []byte, opts ...CodecOption) *Codec {
	c := &Codec{
		secret: secret,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Issue signs a credential for usr. Every field except the username is
// dropped.
func (c *Codec) Issue(usr models.User) (string, error) {
	if usr.Username == "" {
		return "", fmt.Errorf("%w: username is required to issue a credential", models.ErrBadInput)
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		Username: usr.Username,
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("in internal/auth/auth.go/Issue(): error while `token.SignedString()` calling: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and timestamps of tokenString and returns the
// identity it carries.
func (c *Codec) Verify(tokenString string) (*Identity, error) {
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return c.secret, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid || claims.Username == "" {
		return nil, ErrInvalidCredential
	}

	identity := &Identity{Username: claims.Username}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}

	return identity, nil
}

// TokenFromHeader extracts the token from an "Authorization: Bearer <token>"
// header value. An empty string means no credential was presented.
func TokenFromHeader(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFrom returns the authenticated identity of ctx. The second result
// is false for anonymous callers.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*Identity)
	return identity, ok && identity != nil
}

// Auth holds the HTTP middleware built around a Codec.
type Auth struct {
	codec *Codec
}

// New creates the middleware set verifying credentials with codec.
func New(codec *Codec) *Auth {
	return &Auth{codec: codec}
}

// Authenticate derives the caller's identity from the bearer credential. A
// missing or invalid credential leaves the request anonymous; it never
// rejects on its own.
func (a *Auth) Authenticate(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString := TokenFromHeader(request.Header.Get("Authorization"))
		if tokenString == "" {
			h.ServeHTTP(response, request)
			return
		}

		identity, err := a.codec.Verify(tokenString)
		if err != nil {
			logger.FromContext(request.Context()).Debugln("Error calling the `a.codec.Verify()`: ", zap.Error(err))
			h.ServeHTTP(response, request)
			return
		}

		h.ServeHTTP(response, request.WithContext(WithIdentity(request.Context(), identity)))
	}

	return http.HandlerFunc(middleware)
}

// EnsureLoggedIn rejects anonymous callers with 401.
func (a *Auth) EnsureLoggedIn(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if _, ok := IdentityFrom(request.Context()); !ok {
			httpresponse.Error(response, fmt.Errorf("%w: login required", models.ErrUnauthorized))
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// EnsureCorrectUser rejects callers whose username differs from the
// "username" route parameter with 401.
func (a *Auth) EnsureCorrectUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		identity, ok := IdentityFrom(request.Context())
		if !ok || identity.Username != chi.URLParam(request, "username") {
			httpresponse.Error(response, fmt.Errorf("%w: not allowed to act on this user", models.ErrUnauthorized))
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
