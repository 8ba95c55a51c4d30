package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Login error codes shown on the login page
const (
	LoginErrorAuthFailed     = "auth_failed"
	LoginErrorNoSubscription = "no_subscription"
	LoginErrorSession        = "session_failed"
)

// HandleLogin initiates the Google OAuth flow
func (p *Provider) HandleLogin(c *gin.Context) {
	if !p.enabled {
		c.Redirect(http.StatusFound, "/login?error="+LoginErrorAuthFailed)
		return
	}

	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", ProviderName)
	c.Request.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// HandleCallback completes the OAuth flow. Only accounts provisioned through
// checkout may sign in.
func (p *Provider) HandleCallback(c *gin.Context) {
	// Gothic requires the "provider" query parameter
	q := c.Request.URL.Query()
	q.Add("provider", ProviderName)
	c.Request.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("Auth error: %v", err)
		c.Redirect(http.StatusFound, "/login?error="+LoginErrorAuthFailed)
		return
	}

	user, err := p.signIn(gothUser)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Login refused for unprovisioned email: %s", gothUser.Email)
		c.Redirect(http.StatusFound, "/login?error="+LoginErrorNoSubscription)
		return
	}
	if err != nil {
		log.Printf("Auth error: %v", err)
		c.Redirect(http.StatusFound, "/login?error="+LoginErrorAuthFailed)
		return
	}

	if err := SaveSession(sessions.Default(c), user); err != nil {
		log.Printf("Session save error: %v", err)
		c.Redirect(http.StatusFound, "/login?error="+LoginErrorSession)
		return
	}

	log.Printf("User authenticated: %s (%s)", user.Name, user.Email)
	c.Redirect(http.StatusFound, "/dashboard")
}

// signIn loads the provisioned user for the OAuth identity, refreshes its
// profile and stores the identity.
func (p *Provider) signIn(gu goth.User) (*models.User, error) {
	var user models.User
	email := strings.ToLower(strings.TrimSpace(gu.Email))
	if err := p.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	updates := map[string]interface{}{"last_login_at": now}
	if gu.Name != "" {
		updates["name"] = gu.Name
	}
	if gu.AvatarURL != "" {
		updates["avatar_url"] = gu.AvatarURL
	}
	if err := p.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}

	identity := models.AuthIdentity{
		UserID:         user.ID,
		Provider:       ProviderName,
		ProviderUserID: gu.UserID,
		AccessToken:    gu.AccessToken,
		RefreshToken:   gu.RefreshToken,
	}
	if !gu.ExpiresAt.IsZero() {
		identity.TokenExpiry = &gu.ExpiresAt
	}
	err := p.db.Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "provider_user_id"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "deleted_at IS NULL"}}},
		DoUpdates:   clause.AssignmentColumns([]string{"access_token", "refresh_token", "token_expiry", "updated_at"}),
	}).Create(&identity).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HandleDevLogin signs in the seeded dev user. Only registered when
// DevLoginEnabled.
func (p *Provider) HandleDevLogin(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := p.db.Where("email = ?", email).First(&user).Error; err != nil {
			c.Redirect(http.StatusFound, "/login?error="+LoginErrorNoSubscription)
			return
		}
		if err := SaveSession(sessions.Default(c), &user); err != nil {
			c.Redirect(http.StatusFound, "/login?error="+LoginErrorSession)
			return
		}
		c.Redirect(http.StatusFound, "/dashboard")
	}
}

// SaveSession stores the signed-in user in the session.
func SaveSession(session sessions.Session, user *models.User) error {
	session.Set(SessionUserID, user.ID)
	session.Set(SessionUserEmail, user.Email)
	session.Set(SessionUserName, user.Name)
	session.Set(SessionAvatar, user.AvatarURL)
	return session.Save()
}

// HandleLogout clears the session and redirects to login
func HandleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()

	if err := session.Save(); err != nil {
		log.Printf("Session clear error: %v", err)
	}

	c.Redirect(http.StatusFound, "/login")
}
