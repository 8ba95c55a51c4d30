// Package web serves the loan officer studio: server-rendered pages, the
// batch API and its event stream.
package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/auth"
	"github.com/jimdaga/nextrend/internal/billing"
	"github.com/jimdaga/nextrend/internal/brandvoice"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/chat"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/jimdaga/nextrend/internal/health"
	"github.com/jimdaga/nextrend/internal/library"
	"github.com/jimdaga/nextrend/internal/logging"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/jimdaga/nextrend/internal/streams"
	"github.com/jimdaga/nextrend/internal/usage"
	"github.com/jimdaga/nextrend/internal/worker"
	"gorm.io/gorm"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps are the services the web layer calls.
type Deps struct {
	Config     *config.Config
	DB         *gorm.DB
	Auth       *auth.Provider
	Catalog    *catalog.Catalog
	Sources    *sources.Store
	Index      *sources.Index
	Voices     *brandvoice.Store
	Usage      *usage.Recorder
	Chat       *chat.Log
	Library    *library.Library
	Billing    *billing.Service
	Broker     streams.Broker
	Dispatcher worker.Dispatcher
	Logger     *slog.Logger

	// DevLoginEmail is the account the dev login signs in as.
	DevLoginEmail string
	// Authenticate replaces the session middleware chain, for tests.
	Authenticate []gin.HandlerFunc
}

// Server holds the route handlers.
type Server struct {
	Deps
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	s := &Server{Deps: d}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(d.Logger))
	r.SetHTMLTemplate(tmpl)

	store := cookie.NewStore([]byte(d.Config.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   d.Config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("nextrend_session", store))

	r.GET("/health", gin.WrapF(health.Handler))
	r.GET("/ready", gin.WrapF(health.Ready(s.readinessChecks())))
	r.StaticFS("/static", http.FS(static))

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/dashboard") })
	r.GET("/login", s.loginPage)
	if d.Auth != nil {
		r.GET("/auth/google", d.Auth.HandleLogin)
		r.GET("/auth/google/callback", d.Auth.HandleCallback)
		if d.Auth.DevLoginEnabled() && d.DevLoginEmail != "" {
			r.GET("/auth/dev", d.Auth.HandleDevLogin(d.DevLoginEmail))
		}
	}
	r.POST("/logout", auth.HandleLogout)
	r.GET("/checkout", billing.HandleCheckout(d.Config.StripePaymentLink))
	if d.Billing != nil {
		r.POST("/webhooks/stripe", d.Billing.HandleWebhook())
	}

	authn := d.Authenticate
	if authn == nil {
		authn = []gin.HandlerFunc{auth.RequireAuth(), auth.CurrentUser(d.DB)}
	}
	app := r.Group("/", authn...)
	app.GET("/dashboard", s.dashboardPage)
	app.GET("/sources/:option", s.sourcesPage)
	app.GET("/sources/:option/:id", s.editorPage)
	app.GET("/custom", s.customPage)
	app.GET("/brand-voice", s.brandVoicePage)
	app.POST("/brand-voice", s.saveBrandVoice)
	app.POST("/brand-voice/upload", s.uploadBrandVoice)
	app.GET("/library", s.libraryPage)

	api := app.Group("/api")
	api.POST("/batches", auth.RequireSubscription(), s.createBatch)
	api.GET("/batches/:id", s.batchStatus)
	api.GET("/batches/:id/events", s.batchEvents)
	api.POST("/batches/:id/save", s.saveBatch)
	api.GET("/share", s.share)
	api.GET("/chat", s.chatHistory)
	api.DELETE("/library/:id", s.deleteSaved)

	return r, nil
}

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"paragraphs": func(s string) []string {
		var out []string
		for _, p := range strings.Split(s, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	},
}

// currentUser returns the signed-in user. Routes behind the auth group always
// have one.
func currentUser(c *gin.Context) *models.User {
	user, _ := auth.UserFrom(c)
	return user
}

// respondError renders err as JSON for API routes and as the error page
// otherwise.
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := apperr.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("Request failed", "path", c.FullPath(), "error", err.Error())
	}

	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(status, gin.H{"error": msg, "retryable": apperr.KindOf(err) == apperr.KindDataAccess})
		return
	}
	c.HTML(status, "error.html", gin.H{"Title": "Something went wrong", "Message": msg, "Status": status})
	c.Abort()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readinessChecks probes the database and, when it has a connection, the broker.
func (s *Server) readinessChecks() map[string]health.Check {
	checks := map[string]health.Check{}
	if s.DB != nil {
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := s.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if p, ok := s.Broker.(pinger); ok {
		checks["redis"] = p.Ping
	}
	return checks
}
