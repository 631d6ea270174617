package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hraccess/internal/domain/access"
	"hraccess/internal/domain/auth"
	"hraccess/internal/transport/http/api"
	"hraccess/internal/transport/http/middleware"
	"hraccess/internal/transport/http/shared"
)

type UserSource interface {
	FindCredentials(ctx context.Context, email string) (access.Credentials, error)
	GetMFA(ctx context.Context, userID string) (access.MFAState, error)
	SetMFASecret(ctx context.Context, userID, secret string) error
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error
}

type Handler struct {
	Users    UserSource
	Secret   string
	TokenTTL time.Duration
	Now      func() time.Time
}

func NewHandler(users UserSource, secret string, ttl time.Duration) *Handler {
	return &Handler{Users: users, Secret: secret, TokenTTL: ttl, Now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode" validate:"omitempty,numeric,len=6"`
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

type loginUser struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Email string       `json:"email"`
	Role  string       `json:"role"`
	Level access.Level `json:"level"`
}

type loginResponse struct {
	Token       string             `json:"token"`
	ExpiresAt   time.Time          `json:"expiresAt"`
	User        loginUser          `json:"user"`
	Permissions access.Permissions `json:"permissions"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	creds, err := h.Users.FindCredentials(r.Context(), payload.Email)
	if errors.Is(err, access.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}
	if err != nil {
		slog.Error("credential lookup failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to sign in", reqID)
		return
	}

	if err := auth.CheckPassword(creds.PasswordHash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	}

	switch err := auth.CheckMFA(creds.MFA.Enabled, creds.MFA.Secret, payload.MFACode); {
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
		return
	}

	user := creds.User
	token, err := auth.GenerateToken(h.Secret, auth.Claims{UserID: user.ID, Email: user.Email, Role: user.Role}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", reqID)
		return
	}

	perms := user.Permissions()
	slog.Info("user signed in", "userId", user.ID, "level", perms.Level, "requestId", reqID)

	api.Success(w, loginResponse{
		Token:     token,
		ExpiresAt: h.now().Add(h.TokenTTL),
		User: loginUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
			Level: perms.Level,
		},
		Permissions: perms,
	}, reqID)
}

// HandleMFASetup issues a new secret. MFA stays disabled until HandleMFAEnable
// sees a valid code for it.
func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	account := user.Email
	if account == "" {
		account = user.UserID
	}
	enrollment, err := auth.GenerateMFASecret(account)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "mfa_setup_failed", "failed to generate mfa secret", reqID)
		return
	}
	if err := h.Users.SetMFASecret(r.Context(), user.UserID, enrollment.Secret); err != nil {
		h.failMFAStore(w, err, "mfa_setup_failed", reqID)
		return
	}
	api.Success(w, enrollment, reqID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.setMFA(w, r, false)
}

func (h *Handler) setMFA(w http.ResponseWriter, r *http.Request, enabled bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload mfaCodeRequest
	if !shared.DecodeAndValidate(w, r, &payload, reqID) {
		return
	}

	state, err := h.Users.GetMFA(r.Context(), user.UserID)
	if err != nil {
		h.failMFAStore(w, err, "mfa_update_failed", reqID)
		return
	}
	if state.Secret == "" {
		api.Fail(w, http.StatusBadRequest, "mfa_missing", "mfa setup required", reqID)
		return
	}
	if !auth.ValidateMFACode(payload.Code, state.Secret) {
		api.Fail(w, http.StatusBadRequest, "mfa_invalid", "invalid mfa code", reqID)
		return
	}
	if err := h.Users.SetMFAEnabled(r.Context(), user.UserID, enabled); err != nil {
		h.failMFAStore(w, err, "mfa_update_failed", reqID)
		return
	}
	slog.Info("mfa updated", "userId", user.UserID, "enabled", enabled, "requestId", reqID)
	api.Success(w, map[string]bool{"mfaEnabled": enabled}, reqID)
}

func (h *Handler) failMFAStore(w http.ResponseWriter, err error, code, reqID string) {
	if errors.Is(err, access.ErrUserNotFound) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	slog.Error("mfa store failed", "err", err, "requestId", reqID)
	api.Fail(w, http.StatusInternalServerError, code, "failed to update mfa", reqID)
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}
