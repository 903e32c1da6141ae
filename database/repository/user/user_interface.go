package userRepo

import (
	"context"

	"daresni/models"
)

// UserRepository defines methods for user profile access.
type UserRepository interface {
	// GetByID retrieves a user by its unique ID. Returns repository.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// ListByRole retrieves every user with the given role.
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
	// Upsert creates or replaces a user record.
	Upsert(ctx context.Context, user *models.User) error
}
