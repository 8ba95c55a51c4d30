package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/auth"
	"github.com/jimdaga/nextrend/internal/brandvoice"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/chat"
	"github.com/jimdaga/nextrend/internal/config"
	"github.com/jimdaga/nextrend/internal/database"
	"github.com/jimdaga/nextrend/internal/generation"
	"github.com/jimdaga/nextrend/internal/library"
	"github.com/jimdaga/nextrend/internal/llm"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/jimdaga/nextrend/internal/streams"
	"github.com/jimdaga/nextrend/internal/usage"
	"github.com/jimdaga/nextrend/internal/worker"
	"gorm.io/gorm"
)

const testCatalog = `version: v1
content_types:
  - key: linkedin
    label: LinkedIn Post
    description: Thought Leadership
    share: linkedin
  - key: client_sms
    label: Client SMS
    description: Concise
    max_chars: 150
`

// closeNotifyingRecorder lets c.Stream run against a recorder.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newRecorder() *closeNotifyingRecorder {
	return &closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool { return r.closed }

type testApp struct {
	router     *gin.Engine
	db         *gorm.DB
	user       *models.User
	source     uint
	dispatcher *worker.InlineDispatcher
	release    chan struct{}
}

func newTestApp(t *testing.T, blocking bool) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	cat, err := catalog.Parse([]byte(testCatalog))
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app := &testApp{db: db, release: make(chan struct{})}
	completer := llm.CompleterFunc(func(ctx context.Context, p llm.Prompt) (string, error) {
		if blocking {
			select {
			case <-app.release:
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
		return "Rates are moving, call me.", nil
	})
	pipeline := generation.NewPipeline(completer, cat, logger)

	user := &models.User{Email: "lo@example.com", Name: "Pat", SubscriptionStatus: models.SubscriptionActive}
	db.Create(user)
	app.user = user
	link := "https://example.com/rates"
	item := models.SourceItem{Kind: models.SourceKindTrending, Status: models.SourceStatusPublished, Title: "Rates dip", Body: "Rates fell this week.", Category: "Mortgage", SourceURL: &link, PublishedAt: time.Now()}
	db.Create(&item)
	app.source = item.ID

	broker := streams.NewMemoryBroker()
	store := sources.NewStore(db)
	voices := brandvoice.NewStore(db, pipeline, logger)
	gen := worker.NewGenerator(worker.GeneratorDeps{
		DB:       db,
		Pipeline: pipeline,
		Sources:  store,
		Voices:   voices,
		Usage:    usage.NewRecorder(db),
		Chat:     chat.NewLog(db),
		Broker:   broker,
		Logger:   logger,
	})
	app.dispatcher = worker.NewInlineDispatcher(gen, time.Second)

	router, err := NewRouter(Deps{
		Config:     &config.Config{SessionSecret: "test-secret", Env: "test"},
		DB:         db,
		Catalog:    cat,
		Sources:    store,
		Voices:     voices,
		Usage:      usage.NewRecorder(db),
		Chat:       chat.NewLog(db),
		Library:    library.New(db),
		Broker:     broker,
		Dispatcher: app.dispatcher,
		Logger:     logger,
		Authenticate: []gin.HandlerFunc{func(c *gin.Context) {
			auth.SetUser(c, app.user)
			c.Next()
		}},
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	app.router = router

	t.Cleanup(func() {
		select {
		case <-app.release:
		default:
			close(app.release)
		}
		app.dispatcher.Wait()
	})
	return app
}

func (a *testApp) do(method, path string, body string) *closeNotifyingRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	w := newRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) createBatch(t *testing.T) string {
	t.Helper()
	w := a.do(http.MethodPost, "/api/batches", `{"source_id":`+itoa(a.source)+`}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		BatchID string `json:"batch_id"`
		Slots   []struct {
			Index int    `json:"index"`
			Key   string `json:"key"`
		} `json:"slots"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.BatchID == "" || len(resp.Slots) != 2 || resp.Slots[1].Key != "client_sms" {
		t.Fatalf("unexpected create response %s", w.Body.String())
	}
	return resp.BatchID
}

func itoa(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, false)
	w := app.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("expected healthy response, got %d %s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodGet, "/ready", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ready"`) {
		t.Errorf("expected ready response, got %d %s", w.Code, w.Body.String())
	}
}

func TestDashboardAndSources(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(http.MethodGet, "/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Trending Topics") {
		t.Errorf("expected source options on dashboard")
	}

	w = app.do(http.MethodGet, "/sources/trending", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Rates dip") {
		t.Errorf("expected trending list with seeded item, got %d", w.Code)
	}

	w = app.do(http.MethodGet, "/sources/trending/"+itoa(app.source), "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `data-key="client_sms"`) {
		t.Errorf("expected editor with slot cards, got %d", w.Code)
	}

	w = app.do(http.MethodGet, "/sources/podcasts", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown option, got %d", w.Code)
	}

	w = app.do(http.MethodGet, "/sources/custom", "")
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/custom" {
		t.Errorf("expected redirect to custom page, got %d", w.Code)
	}
}

func TestCreateBatchRejectsSecondInFlight(t *testing.T) {
	app := newTestApp(t, true)
	app.createBatch(t)

	w := app.do(http.MethodPost, "/api/batches", `{"text":"Tips for first-time buyers"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBatchValidation(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(http.MethodPost, "/api/batches", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without input, got %d", w.Code)
	}
	w = app.do(http.MethodPost, "/api/batches", `{"text":"x","types":["tiktok"]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", w.Code)
	}
	w = app.do(http.MethodPost, "/api/batches", `{"source_id":9999}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for missing source, got %d", w.Code)
	}
}

func TestCreateBatchRequiresSubscription(t *testing.T) {
	app := newTestApp(t, false)
	app.user.SubscriptionStatus = models.SubscriptionCanceled

	w := app.do(http.MethodPost, "/api/batches", `{"text":"hello"}`)
	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected 402, got %d", w.Code)
	}
}

func TestBatchEventsStream(t *testing.T) {
	app := newTestApp(t, false)
	id := app.createBatch(t)
	app.dispatcher.Wait()

	w := app.do(http.MethodGet, "/api/batches/"+id+"/events", "")
	body := w.Body.String()
	if !strings.Contains(body, "event:slot") || !strings.Contains(body, "event:done") {
		t.Fatalf("expected slot and done events, got %q", body)
	}
	if strings.Index(body, "event:done") < strings.LastIndex(body, "event:slot") {
		t.Errorf("expected done to be the last event")
	}

	w = app.do(http.MethodGet, "/api/batches/"+id, "")
	if !strings.Contains(w.Body.String(), `"status":"completed"`) {
		t.Errorf("expected completed batch, got %s", w.Body.String())
	}

	w = app.do(http.MethodGet, "/api/batches/unknown/events", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown batch, got %d", w.Code)
	}
}

func TestSaveBatchToLibrary(t *testing.T) {
	app := newTestApp(t, false)
	id := app.createBatch(t)
	app.dispatcher.Wait()

	w := app.do(http.MethodPost, "/api/batches/"+id+"/save", `{"items":[{"content_type":"linkedin","content":"Edited post"},{"content_type":"client_sms","content":" "}]}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"saved":1`) {
		t.Fatalf("expected one saved item, got %d %s", w.Code, w.Body.String())
	}

	w = app.do(http.MethodGet, "/library", "")
	if !strings.Contains(w.Body.String(), "Edited post") || !strings.Contains(w.Body.String(), "Rates dip") {
		t.Errorf("expected saved item in library")
	}

	var saved models.SavedContent
	app.db.First(&saved)
	w = app.do(http.MethodDelete, "/api/library/"+itoa(saved.ID), "")
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	w = app.do(http.MethodDelete, "/api/library/"+itoa(saved.ID), "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestShareRedirects(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(http.MethodGet, "/api/share?type=linkedin&content="+url.QueryEscape("Rates dipped"), "")
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Location"), "linkedin.com") {
		t.Errorf("expected linkedin compose url, got %s", w.Header().Get("Location"))
	}

	w = app.do(http.MethodGet, "/api/share?type=client_sms&content=hi", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unshareable type, got %d", w.Code)
	}
}

func TestBrandVoiceForm(t *testing.T) {
	app := newTestApp(t, false)

	w := app.do(http.MethodPost, "/brand-voice", "content="+url.QueryEscape("I keep things friendly."))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}

	var voice models.BrandVoice
	if err := app.db.Where("user_id = ?", app.user.ID).First(&voice).Error; err != nil {
		t.Fatalf("expected stored voice: %v", err)
	}

	w = app.do(http.MethodPost, "/brand-voice", "content=")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank voice, got %d", w.Code)
	}
}

func TestStudioScriptCancelsRunningReveal(t *testing.T) {
	app := newTestApp(t, false)
	w := app.do(http.MethodGet, "/static/app.js", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	script := w.Body.String()

	rules := map[string]string{
		"reveal stops the previous timer":       `function reveal\(card, text\) \{\s*stopReveal\(card\);`,
		"reset stops the running timer":         `function reset\(card\) \{\s*stopReveal\(card\);`,
		"timer is kept on the card":             `card\._revealTimer = timer;`,
		"stale ticks are dropped":               `if \(card\._revealTimer !== timer\) return;`,
		"buttons enable only on done slots":     `if \(card\.dataset\.status === "done"\) setButtons\(card, true\);`,
		"non-done updates stop the reveal":      `if \(u\.status !== "done"\) stopReveal\(card\);`,
		"stopReveal clears the interval handle": `clearInterval\(card\._revealTimer\);`,
	}
	for name, pattern := range rules {
		if !regexp.MustCompile(pattern).MatchString(script) {
			t.Errorf("%s: expected script to match %s", name, pattern)
		}
	}
}
