package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookbuddy/internal/auth"
	"github.com/patric-chuzhbe/bookbuddy/internal/httpresponse"
	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst, rejecting unknown fields,
// and validates it.
func (r *Router) decodeJSON(response http.ResponseWriter, request *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(response, request.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", models.ErrBadInput, err)
	}
	if decoder.More() {
		return fmt.Errorf("%w: body must contain a single JSON object", models.ErrBadInput)
	}

	if err := r.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %s", models.ErrBadInput, describeValidation(err))
	}

	return nil
}

func describeValidation(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Param() != "" {
			messages = append(messages, fmt.Sprintf("%s must satisfy %s=%s", fieldErr.Field(), fieldErr.Tag(), fieldErr.Param()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s must satisfy %s", fieldErr.Field(), fieldErr.Tag()))
	}

	return strings.Join(messages, "; ")
}

// queryInt parses an optional numeric query parameter.
func queryInt(request *http.Request, name string, fallback int) (int, error) {
	raw := request.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", models.ErrBadInput, name)
	}
	return value, nil
}

// ownerID resolves the authenticated caller to its user id. A token whose
// user no longer exists is treated as an invalid credential.
func (r *Router) ownerID(request *http.Request) (int64, error) {
	identity, ok := auth.IdentityFrom(request.Context())
	if !ok {
		return 0, fmt.Errorf("%w: login required", models.ErrUnauthorized)
	}

	id, err := r.users.GetIDByUsername(request.Context(), identity.Username)
	if errors.Is(err, models.ErrNotFound) {
		return 0, fmt.Errorf("%w: unknown user %s", models.ErrUnauthorized, identity.Username)
	}

	return id, err
}

func (r *Router) fail(response http.ResponseWriter, request *http.Request, err error) {
	logger.FromContext(request.Context()).Debugln("request failed: ", zap.Error(err))
	httpresponse.Error(response, err)
}

func notFound(response http.ResponseWriter, request *http.Request) {
	httpresponse.Message(response, http.StatusNotFound, "not found")
}

func methodNotAllowed(response http.ResponseWriter, request *http.Request) {
	httpresponse.Message(response, http.StatusMethodNotAllowed, "method not allowed")
}

func denyAll(response http.ResponseWriter, request *http.Request) {
	httpresponse.Message(response, http.StatusForbidden, "forbidden")
}

// serveSPA serves files from the static directory and falls back to
// index.html for client side routes.
func (r *Router) serveSPA(response http.ResponseWriter, request *http.Request) {
	path := filepath.Join(r.staticDir, filepath.FromSlash(filepath.Clean("/"+request.URL.Path)))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(response, request, path)
		return
	}

	index := filepath.Join(r.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		notFound(response, request)
		return
	}
	http.ServeFile(response, request, index)
}
