package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/jimdaga/nextrend/internal/database"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/markbates/goth"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	return db
}

func newTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("nextrend_session", cookie.NewStore([]byte("test-secret"))))

	r.GET("/test-login/:email", func(c *gin.Context) {
		var user models.User
		if err := db.Where("email = ?", c.Param("email")).First(&user).Error; err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		SaveSession(sessions.Default(c), &user)
		c.Status(http.StatusOK)
	})

	protected := r.Group("/", RequireAuth(), CurrentUser(db))
	protected.GET("/dashboard", func(c *gin.Context) {
		user, _ := UserFrom(c)
		c.String(http.StatusOK, user.Email)
	})
	protected.POST("/api/batches", RequireSubscription(), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func login(t *testing.T, r http.Handler, email string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test-login/"+email, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("test login failed with %d", w.Code)
	}
	return w.Result().Cookies()
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	r := newTestRouter(newTestDB(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Errorf("expected redirect to /login, got %d %s", w.Code, w.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized || w.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("expected 401 with HX-Redirect, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/batches", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for API request, got %d", w.Code)
	}
}

func TestCurrentUserAndSubscription(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.User{Email: "active@example.com", SubscriptionStatus: models.SubscriptionActive})
	db.Create(&models.User{Email: "lapsed@example.com", SubscriptionStatus: models.SubscriptionCanceled})
	r := newTestRouter(db)

	cookies := login(t, r, "active@example.com")
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "active@example.com" {
		t.Errorf("expected dashboard for active user, got %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/batches", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Errorf("expected active user to start a batch, got %d", w.Code)
	}

	cookies = login(t, r, "lapsed@example.com")
	req = httptest.NewRequest(http.MethodPost, "/api/batches", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402 for canceled subscription, got %d", w.Code)
	}
}

func TestCurrentUserClearsStaleSession(t *testing.T) {
	db := newTestDB(t)
	db.Create(&models.User{Email: "gone@example.com"})
	r := newTestRouter(db)

	cookies := login(t, r, "gone@example.com")
	db.Unscoped().Where("email = ?", "gone@example.com").Delete(&models.User{})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Errorf("expected redirect for deleted user, got %d", w.Code)
	}
}

func TestSignInOnlyProvisionedUsers(t *testing.T) {
	db := newTestDB(t)
	p := NewProvider(&config.Config{SessionSecret: "s", Env: "development"}, db)
	defer p.Close()

	if p.Enabled() || !p.DevLoginEnabled() {
		t.Errorf("expected dev login without Google credentials")
	}

	_, err := p.signIn(goth.User{UserID: "g-1", Email: "stranger@example.com"})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected unprovisioned email to be refused, got %v", err)
	}

	db.Create(&models.User{Email: "lo@example.com", SubscriptionStatus: models.SubscriptionActive})
	gu := goth.User{UserID: "g-2", Email: "LO@example.com", Name: "Loan Officer", AccessToken: "a1", ExpiresAt: time.Now().Add(time.Hour)}
	user, err := p.signIn(gu)
	if err != nil {
		t.Fatal(err)
	}
	if user.Email != "lo@example.com" {
		t.Errorf("unexpected user %+v", user)
	}

	gu.AccessToken = "a2"
	if _, err := p.signIn(gu); err != nil {
		t.Fatalf("second sign-in: %v", err)
	}

	var identities []models.AuthIdentity
	db.Where("user_id = ?", user.ID).Find(&identities)
	if len(identities) != 1 || identities[0].AccessToken != "a2" {
		t.Errorf("expected one refreshed identity, got %+v", identities)
	}

	var stored models.User
	db.First(&stored, user.ID)
	if stored.Name != "Loan Officer" || stored.LastLoginAt == nil {
		t.Errorf("expected profile refresh, got %+v", stored)
	}
}
