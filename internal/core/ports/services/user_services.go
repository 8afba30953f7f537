package services

import (
	"context"

	"github.com/talkal/home_finance_app/internal/core/domain"
	"github.com/talkal/home_finance_app/internal/dto"
)

// UserSvcFacade manages user accounts and credential checks.
type UserSvcFacade interface {
	// CreateUser registers a new user with a hashed password.
	CreateUser(ctx context.Context, req dto.RegisterUserRequest) (*domain.User, error)

	// AuthenticateUser verifies email/password and returns the user.
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error)

	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}
