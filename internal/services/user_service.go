// Package services implements the operations the API exposes: account
// registration and login, owner-scoped expense and goal CRUD, and advice
// lookups. Services validate input, enforce ownership through the storage
// ports and publish change events.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type UserService struct {
	users  storage.UserStore
	tokens *auth.TokenCodec
}

func NewUserService(users storage.UserStore, tokens *auth.TokenCodec) *UserService {
	return &UserService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// ProfileUpdate carries a partial profile change. A non-nil Password
// triggers a full rehash with a freshly derived salt.
type ProfileUpdate struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Register creates an account. The plaintext password never reaches
// storage: a fresh salt is derived and only the digest is persisted.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (core.Profile, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return core.Profile{}, core.Validationf("username is required")
	}
	if in.Password == "" {
		return core.Profile{}, core.Validationf("password is required")
	}

	salt, err := auth.NewSalt()
	if err != nil {
		return core.Profile{}, fmt.Errorf("derive salt: %w", err)
	}

	user, err := s.users.CreateUser(ctx, core.User{
		Username:       username,
		Salt:           salt,
		PasswordDigest: auth.HashPassword(in.Password, salt),
		FullName:       strings.TrimSpace(in.FullName),
		Email:          strings.TrimSpace(in.Email),
	})
	if err != nil {
		return core.Profile{}, err
	}
	return user.Profile(), nil
}

// Login verifies the credentials and issues a session token. Unknown
// username and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.UserByName(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		return "", core.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if !auth.VerifyPassword(password, user.Salt, user.PasswordDigest) {
		return "", core.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (core.Profile, error) {
	user, err := s.users.UserByID(ctx, userID)
	if err != nil {
		return core.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile applies the provided fields. A password change derives a
// new salt; the old one is never reused.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, upd ProfileUpdate) (core.Profile, error) {
	if upd.Password != nil && *upd.Password == "" {
		return core.Profile{}, core.Validationf("password cannot be empty")
	}

	var salt string
	if upd.Password != nil {
		var err error
		if salt, err = auth.NewSalt(); err != nil {
			return core.Profile{}, fmt.Errorf("derive salt: %w", err)
		}
	}

	user, err := s.users.UpdateUser(ctx, userID, func(u core.User) core.User {
		if upd.FullName != nil {
			u.FullName = strings.TrimSpace(*upd.FullName)
		}
		if upd.Email != nil {
			u.Email = strings.TrimSpace(*upd.Email)
		}
		if upd.Password != nil {
			u.Salt = salt
			u.PasswordDigest = auth.HashPassword(*upd.Password, salt)
		}
		return u
	})
	if err != nil {
		return core.Profile{}, err
	}
	return user.Profile(), nil
}
