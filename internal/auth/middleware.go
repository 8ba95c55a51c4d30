package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/models"
	"gorm.io/gorm"
)

const contextUserKey = "user"

// RequireAuth is a middleware that ensures the user is authenticated
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(uint)
		if !ok || userID == 0 {
			reject(c)
			return
		}

		// User is authenticated - set context values for downstream handlers
		c.Set(SessionUserID, userID)
		c.Set(SessionUserEmail, session.Get(SessionUserEmail))
		c.Set(SessionUserName, session.Get(SessionUserName))

		c.Next()
	}
}

// CurrentUser loads the signed-in user row. It must run after RequireAuth.
// A session pointing at a deleted user is cleared.
func CurrentUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint(SessionUserID)

		var user models.User
		err := db.WithContext(c.Request.Context()).First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			session := sessions.Default(c)
			session.Clear()
			session.Save()
			reject(c)
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "We couldn't reach the database. Please retry in a moment."})
			return
		}

		c.Set(contextUserKey, &user)
		c.Next()
	}
}

// RequireSubscription rejects users without an active subscription.
func RequireSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFrom(c)
		if !ok || !user.HasActiveSubscription() {
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "An active subscription is required."})
				return
			}
			c.Redirect(http.StatusFound, "/checkout")
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserFrom returns the user CurrentUser loaded.
func UserFrom(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// SetUser stores user on the request context as CurrentUser does.
func SetUser(c *gin.Context, user *models.User) {
	c.Set(SessionUserID, user.ID)
	c.Set(contextUserKey, user)
}

func reject(c *gin.Context) {
	switch {
	case c.GetHeader("HX-Request") == "true":
		// HTMX request: send HX-Redirect header
		c.Header("HX-Redirect", "/login")
		c.AbortWithStatus(http.StatusUnauthorized)
	case wantsJSON(c):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Please sign in to continue."})
	default:
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}
