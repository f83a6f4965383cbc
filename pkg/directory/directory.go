// Package directory abstracts the identity/role directory the engine resolves
// approvers against.
package directory

import (
	"context"
	"errors"
)

// ErrUserNotFound indicates a user lookup failed.
var ErrUserNotFound = errors.New("user not found")

// User is a directory entry.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	IsActive   bool   `json:"is_active"`
}

// Directory looks up active users by role. Implementations must return users
// in a deterministic order (ascending ID) so approver resolution is stable.
type Directory interface {
	// UsersWithRole returns active users holding the role. An empty
	// department matches any department.
	UsersWithRole(ctx context.Context, role, department string) ([]User, error)

	UserByID(ctx context.Context, id string) (*User, error)
}
