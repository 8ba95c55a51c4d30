// Package auth signs loan officers in with Google and keeps them in a cookie
// session.
package auth

import (
	"log"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"gorm.io/gorm"
)

// Session keys
const (
	SessionUserID    = "user_id"
	SessionUserEmail = "user_email"
	SessionUserName  = "user_name"
	SessionAvatar    = "user_avatar"
)

// ProviderName is the only OAuth provider in use.
const ProviderName = "google"

// Provider owns the OAuth configuration for the process. Create it once at
// startup and Close it at shutdown.
type Provider struct {
	db      *gorm.DB
	enabled bool
	devMode bool
}

// NewProvider configures gothic and the Google provider from cfg. Without a
// client id login is disabled; outside production the dev login is offered
// instead.
func NewProvider(cfg *config.Config, db *gorm.DB) *Provider {
	// Gothic uses its own gorilla/sessions store separate from gin-contrib/sessions.
	// The default has Secure=true which breaks localhost (plain HTTP).
	gothStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	gothStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = gothStore

	p := &Provider{db: db, devMode: !cfg.IsProduction()}

	if cfg.GoogleClientID == "" {
		log.Println("WARNING: GOOGLE_CLIENT_ID not set. OAuth login will not work until credentials are configured.")
		log.Println("See: Google Cloud Console -> APIs & Services -> Credentials -> OAuth 2.0 Client IDs")
		return p
	}

	goth.UseProviders(
		google.New(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleCallbackURL,
			"email",
			"profile",
		),
	)
	p.enabled = true

	log.Println("Goth providers initialized: google")
	return p
}

// Enabled reports whether Google login is configured.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// DevLoginEnabled reports whether the password-less dev login is offered.
func (p *Provider) DevLoginEnabled() bool {
	return p.devMode && !p.enabled
}

// Close unregisters the OAuth providers.
func (p *Provider) Close() {
	goth.ClearProviders()
	p.enabled = false
}
