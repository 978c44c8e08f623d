package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/auth"
	"github.com/JulianaCelis/hatsusound-backend/internal/middleware"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

type accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, error)
	Login(ctx context.Context, email, password string) (auth.TokenPair, models.User, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
	Get(ctx context.Context, id string) (models.User, error)
}

type AuthHandler struct {
	users accounts
	log   *slog.Logger
}

func NewAuthHandler(users accounts, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{users: users, log: log}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	auth.TokenPair
	User models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	u, err := h.users.Register(r.Context(), in)
	if errors.Is(err, services.ErrEmailTaken) {
		httpx.WriteError(w, http.StatusConflict, "email_taken", "email already registered", nil)
		return
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "email and password are required", nil)
		return
	}
	pair, u, err := h.users.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", nil)
		return
	case errors.Is(err, services.ErrInactiveUser):
		httpx.WriteError(w, http.StatusForbidden, "inactive_user", "user is inactive", nil)
		return
	case err != nil:
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResp{TokenPair: pair, User: u})
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshReq
	if err := httpx.DecodeJSON(r, &req); err != nil || req.RefreshToken == "" {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "refreshToken is required", nil)
		return
	}
	pair, err := h.users.Refresh(r.Context(), req.RefreshToken)
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_token", "invalid refresh token", nil)
		return
	case errors.Is(err, services.ErrInactiveUser):
		httpx.WriteError(w, http.StatusForbidden, "inactive_user", "user is inactive", nil)
		return
	case err != nil:
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, pair)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		return
	}
	u, err := h.users.Get(r.Context(), uid)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}
