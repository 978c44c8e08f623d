package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JulianaCelis/hatsusound-backend/internal/auth"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInactiveUser       = errors.New("user is inactive")
)

type RegisterInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type UserService struct {
	r  repo.Users
	tm *auth.TokenManager
}

func NewUserService(r repo.Users, tm *auth.TokenManager) *UserService {
	return &UserService{r: r, tm: tm}
}

// Register always creates plain users; admins are promoted out of band.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	u := models.User{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      models.RoleUser,
		IsActive:  true,
	}
	if err := u.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	hash, err := auth.HashPassword(in.Password)
	if errors.Is(err, auth.ErrWeakPassword) {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err != nil {
		return models.User{}, err
	}
	u.PasswordHash = hash

	created, err := s.r.Create(ctx, u)
	if errors.Is(err, repo.ErrConflict) {
		return models.User{}, fmt.Errorf("%w: %s", ErrEmailTaken, u.Email)
	}
	return created, err
}

func (s *UserService) Login(ctx context.Context, email, password string) (auth.TokenPair, models.User, error) {
	u, err := s.r.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repo.ErrNotFound) {
		return auth.TokenPair{}, models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return auth.TokenPair{}, models.User{}, err
	}
	if err := auth.VerifyPassword(password, u.PasswordHash); err != nil {
		return auth.TokenPair{}, models.User{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return auth.TokenPair{}, models.User{}, ErrInactiveUser
	}
	pair, err := s.tm.GeneratePair(u.ID, u.Role)
	return pair, u, err
}

// Refresh re-reads the user so a role change or deactivation takes effect.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tm.ParseRefresh(refreshToken)
	if err != nil {
		return auth.TokenPair{}, err
	}
	u, err := s.r.GetByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return auth.TokenPair{}, auth.ErrInvalidToken
	}
	if err != nil {
		return auth.TokenPair{}, err
	}
	if !u.IsActive {
		return auth.TokenPair{}, ErrInactiveUser
	}
	return s.tm.GeneratePair(u.ID, u.Role)
}

func (s *UserService) Get(ctx context.Context, id string) (models.User, error) {
	return s.r.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	return s.r.List(ctx, limit, max(offset, 0))
}

// SetRole changes a user's role, e.g. to promote the first admin.
func (s *UserService) SetRole(ctx context.Context, email, role string) (models.User, error) {
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	u, err := s.r.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return models.User{}, err
	}
	u.Role = role
	if err := s.r.Update(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}
