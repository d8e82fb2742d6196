package hubservice

import (
	"context"
	"net/mail"
	"strings"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/auth"
	"github.com/robowatch/hub/internal/errors"
	"github.com/robowatch/hub/internal/models"
)

const minPasswordLength = 8

// LoginResult is returned by a successful password login
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// NewUser holds the fields needed to register a dashboard user
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
}

// Login checks a password and issues a session token. Unknown emails and
// wrong passwords fail the same way.
func (s *HubService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.sessions == nil {
		return nil, errors.NewUnavailableError("password login is disabled", nil)
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.NewValidationError("email and password are required", nil)
	}

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewAuthError("invalid email or password", nil)
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, errors.NewAuthError("invalid email or password", nil)
	}

	token, expires, err := s.sessions.Issue(user)
	if err != nil {
		return nil, err
	}
	nuts.L.Infof("[HubService] User %s logged in", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expires, User: user}, nil
}

// CreateUser registers a user with a bcrypt password hash. The role
// defaults to USER.
func (s *HubService) CreateUser(ctx context.Context, in NewUser) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, errors.NewValidationError("name is required", nil)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, errors.NewValidationError("a valid email is required", err)
	}
	if len(in.Password) < minPasswordLength {
		return nil, errors.NewValidationError("password must be at least 8 characters", nil)
	}
	if in.Role == "" {
		in.Role = models.RoleUser
	}
	if !in.Role.Valid() {
		return nil, errors.NewValidationError("role must be ADMIN or USER", nil)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           nuts.NID("usr", 12),
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	nuts.L.Infof("[HubService] Created %s user %s", user.Role, user.ID)
	return user, nil
}
