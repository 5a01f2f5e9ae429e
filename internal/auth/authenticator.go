package auth

import (
	"context"

	"github.com/mmynk/lessonbook/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, SSO, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a staff account with the given role.
	Register(ctx context.Context, username, displayName, credential string, role models.Role) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if successful.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
