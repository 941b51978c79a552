package domain

import (
	"errors"
	"strings"
	"time"
)

// User is an account holder. Each user owns at most one business profile.
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Business is populated by the repository when loaded together with the
	// user; nil when the user has not completed business setup.
	Business *Business
}

// NewUser creates a new user with required fields
func NewUser(name, email string) *User {
	now := time.Now()
	return &User{
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate returns an error if the user is invalid
func (u *User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return errors.New("user name is required")
	}
	if !strings.Contains(u.Email, "@") {
		return errors.New("valid email is required")
	}
	return nil
}
