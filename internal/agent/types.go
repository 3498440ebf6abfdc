package agent

import (
	"strings"
	"time"
)

// Settings is the agent's free-form branding and notification preferences.
// Stored as a single JSON document; every field is optional except the
// notification flag which defaults to enabled.
type Settings struct {
	BrandName           string `json:"brand_name,omitempty"`
	LogoURL             string `json:"logo_url,omitempty"`
	BrandColor          string `json:"brand_color,omitempty"`
	BackgroundImageURL  string `json:"background_image_url,omitempty"`
	Address             string `json:"address,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Email               string `json:"email,omitempty"`
	Website             string `json:"website,omitempty"`
	EnableNotifications bool   `json:"enable_notifications"`
	NotificationEmail   string `json:"notification_email,omitempty"`
}

// DefaultSettings returns the settings a freshly registered agent starts
// with: notifications on, everything else empty.
func DefaultSettings() Settings {
	return Settings{EnableNotifications: true}
}

// Agent is a registered real-estate professional. Each agent owns zero or
// more invitation links and zero or more applications; ownership is by
// identifier reference, never containment.
type Agent struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	CompanyName  string    `json:"company_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	Settings     Settings  `json:"settings"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName joins first and last name for display.
func (a *Agent) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// NotificationAddress is where document notifications go: the dedicated
// notification email when set, the account email otherwise.
func (a *Agent) NotificationAddress() string {
	if a.Settings.NotificationEmail != "" {
		return a.Settings.NotificationEmail
	}
	return a.Email
}
