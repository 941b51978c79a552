package tui

import "github.com/mara/billdesk/internal/domain"

// SwitchScreenMsg requests a screen change
type SwitchScreenMsg struct {
	Screen Screen
}

// RefreshDataMsg requests data refresh
type RefreshDataMsg struct{}

// ErrorMsg carries error information
type ErrorMsg struct {
	Err error
}

// OpenNewClientFormMsg tells the clients screen to open the new client form
type OpenNewClientFormMsg struct{}

// sessionLoadedMsg reports the active account resolved at startup.
// user is nil when no account is configured yet.
type sessionLoadedMsg struct {
	user *domain.User
	err  error
}
