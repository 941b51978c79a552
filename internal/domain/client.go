package domain

import (
	"errors"
	"strings"
	"time"
)

// Client is a billable customer, owned by a single user.
type Client struct {
	ID         int64
	UserID     int64
	Name       string
	Email      string
	Company    string
	Address    string
	Notes      string
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewClient creates a new client with required fields
func NewClient(userID int64, name string) *Client {
	now := time.Now()
	return &Client{
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate returns an error if the client is invalid
func (c *Client) Validate() error {
	if c.UserID <= 0 {
		return errors.New("owner user ID is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name is required")
	}
	return nil
}
