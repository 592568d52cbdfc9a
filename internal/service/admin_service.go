package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/hackfest/registration-backend/internal/auth"
	"github.com/hackfest/registration-backend/internal/repository"
	"github.com/hackfest/registration-backend/pkg/logger"
)

type AdminService struct {
	admins repository.AdminRepository

	sessionTTL time.Duration
}

func NewAdminService(sessionTTL time.Duration) *AdminService {
	return &AdminService{sessionTTL: sessionTTL}
}

func (s *AdminService) Register(ctx context.Context, username, password string) *Error {
	l := logger.FromContext(ctx)

	hash, err := auth.HashPassword(password)
	if err != nil {
		l.Error("failed to hash password", zap.String("username", username), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to create admin")
	}

	err = s.admins.Create(ctx, &repository.Admin{
		Username:     username,
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		l.Warn("admin already exists", zap.String("username", username))
		return NewError(ErrorCodeAdminExists, "admin already exists")
	}
	if err != nil {
		l.Error("failed to create admin", zap.String("username", username), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to create admin")
	}

	l.Info("admin created", zap.String("username", username))

	return nil
}

// Login checks credentials and issues a session token. Unknown username and
// wrong password produce the same client-visible error; the distinction only
// reaches the server log.
func (s *AdminService) Login(ctx context.Context, username, password string) (string, *Error) {
	l := logger.FromContext(ctx)

	admin, err := s.admins.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("login for unknown admin", zap.String("username", username))
		return "", NewError(ErrorCodeInvalidCredentials, "invalid credentials")
	}
	if err != nil {
		l.Error("failed to look up admin", zap.String("username", username), zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "login failed")
	}

	if !auth.CheckPassword(admin.PasswordHash, password) {
		l.Warn("password mismatch", zap.String("username", username))
		return "", NewError(ErrorCodeInvalidCredentials, "invalid credentials")
	}

	token, err := auth.GenerateSessionToken(admin.Username, s.sessionTTL)
	if err != nil {
		l.Error("failed to generate session token", zap.String("username", username), zap.Error(err))
		return "", NewError(ErrorCodeUnspecified, "login failed")
	}

	l.Info("login successful", zap.String("username", username))

	return token, nil
}

func (s *AdminService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *AdminService) WithAdminRepo(r repository.AdminRepository) *AdminService {
	s.admins = r
	return s
}
