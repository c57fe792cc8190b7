package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/tranquilhq/tranquil-api/internal/domain/auth"
	"github.com/tranquilhq/tranquil-api/internal/ports"
	"github.com/tranquilhq/tranquil-api/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	Signup(ctx context.Context, input service.SignupInput) (*service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (*service.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*domainauth.User, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc    AuthServiceInterface
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User    domainauth.UserSummary `json:"user"`
	Token   string                 `json:"token"`
	Message string                 `json:"message,omitempty"`
}

// Signup handles POST /api/auth/signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Signup(r.Context(), service.SignupInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		DeviceInfo: r.UserAgent(),
	})
	if err != nil {
		h.renderAuthError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{
		User:    result.User,
		Token:   result.Token,
		Message: "signup successful",
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.Svc.Login(r.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceInfo: r.UserAgent(),
	})
	if err != nil {
		h.renderAuthError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{
		User:    result.User,
		Token:   result.Token,
		Message: "login successful",
	})
}

// Logout handles POST /api/auth/logout. A request without a usable token
// still logs out successfully; there is nothing to revoke.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	token, ok := BearerToken(r)
	if ok {
		if err := h.Svc.Logout(r.Context(), token); err != nil {
			h.renderAuthError(w, r, err)
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

// Me handles GET /api/auth/me. RequireAuth has already resolved the user.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]domainauth.UserSummary{"user": user.Summary()})
}

// renderAuthError maps service errors to the response taxonomy. Anything
// outside the known cases logs in full and renders a generic 500.
func (h *AuthHandlers) renderAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: ve})
	case errors.Is(err, ports.ErrEmailTaken):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "email_taken", Err: ports.ErrEmailTaken})
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials", Err: service.ErrInvalidCredentials})
	case errors.Is(err, service.ErrUnauthenticated):
		writeUnauthenticated(w)
	default:
		h.logger().ErrorContext(r.Context(), "auth request failed",
			"error", err, "path", r.URL.Path, "method", r.Method)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("internal server error"),
		})
	}
}
