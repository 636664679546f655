package service

import (
	"context"
	"fmt"
	"time"

	"github.com/expensio/expense-ledger/internal/address"
	"github.com/expensio/expense-ledger/internal/application/port"
	"github.com/expensio/expense-ledger/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// IdentityService manages principal profile records
type IdentityService interface {
	Register(ctx context.Context, principal entity.Principal, username, realName string) (*entity.UserData, error)
	Get(ctx context.Context, principal entity.Principal) (*entity.UserData, error)
}

type identityServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(userRepo port.UserRepository, logger Logger) IdentityService {
	return &identityServiceImpl{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register creates a profile for a principal. Registration is one-time;
// a second attempt fails with ErrAlreadyExists.
func (s *identityServiceImpl) Register(ctx context.Context, principal entity.Principal, username, realName string) (*entity.UserData, error) {
	if principal == "" {
		return nil, fmt.Errorf("%w: empty principal", entity.ErrUninitialized)
	}
	if len(username) > entity.MaxUsernameLen {
		return nil, fmt.Errorf("%w: username exceeds %d bytes", entity.ErrDataTooLarge, entity.MaxUsernameLen)
	}
	if len(realName) > entity.MaxRealNameLen {
		return nil, fmt.Errorf("%w: real name exceeds %d bytes", entity.ErrDataTooLarge, entity.MaxRealNameLen)
	}

	existing, err := s.userRepo.Get(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user %s", entity.ErrAlreadyExists, principal)
	}

	user := &entity.UserData{
		Address:   address.ForUser(principal.String()),
		Principal: principal,
		Username:  username,
		RealName:  realName,
		CreatedAt: time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to register user", "error", err, "principal", principal)
		return nil, err
	}

	s.logger.Info("User registered", "principal", principal, "username", username)
	return user, nil
}

// Get retrieves a profile by principal
func (s *identityServiceImpl) Get(ctx context.Context, principal entity.Principal) (*entity.UserData, error) {
	user, err := s.userRepo.Get(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", entity.ErrUninitialized, principal)
	}
	return user, nil
}
