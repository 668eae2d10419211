package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/domain"
	"github.com/phrazzld/todo-api/internal/platform/logger"
	"github.com/phrazzld/todo-api/internal/service/auth"
	"github.com/phrazzld/todo-api/internal/store"
)

// UserService provides account registration, credential checks and lookups.
type UserService interface {
	// Register creates a new account. Returns store.ErrEmailExists when the
	// email is taken and ErrInvalidInput when the email or password is invalid.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// Authenticate verifies the credentials and returns the matching user.
	// Unknown emails and wrong passwords both return auth.ErrInvalidCredentials.
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateUser changes the email and/or password of the user. Nil
	// arguments leave the field alone.
	UpdateUser(ctx context.Context, userID uuid.UUID, email, password *string) (*domain.User, error)

	// DeleteUser removes the user together with their tasks.
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore store.UserStore
	verifier  auth.PasswordVerifier
	logger    *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userStore store.UserStore, verifier auth.PasswordVerifier, logger *slog.Logger) UserService {
	return &UserServiceImpl{
		userStore: userStore,
		verifier:  verifier,
		logger:    logger.With(slog.String("component", "user_service")),
	}
}

// Register implements UserService.
func (s *UserServiceImpl) Register(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(email, password)
	if err != nil {
		return nil, invalidInput(err)
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration rejected, email exists", slog.String("email", user.Email))
			return nil, err
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("email", user.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Authenticate implements UserService.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			return nil, auth.ErrInvalidCredentials
		}
		log.Error("failed to look up user by email", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to authenticate user: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Debug("login with wrong password", slog.String("user_id", user.ID.String()))
			return nil, auth.ErrInvalidCredentials
		}
		log.Error("failed to verify password",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	return user, nil
}

// GetUser implements UserService.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to retrieve user",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// UpdateUser implements UserService.
func (s *UserServiceImpl) UpdateUser(
	ctx context.Context,
	userID uuid.UUID,
	email, password *string,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := user.Update(email, password); err != nil {
		return nil, fmt.Errorf("update_user: %w", invalidInput(err))
	}

	if err := s.userStore.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) || errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		log.Error("failed to update user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	log.Info("user updated", slog.String("user_id", userID.String()))
	return user, nil
}

// DeleteUser implements UserService.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.userStore.Delete(ctx, userID); err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			log.Error("failed to delete user",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted", slog.String("user_id", userID.String()))
	return nil
}
