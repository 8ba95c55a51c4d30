package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/jimdaga/nextrend/internal/auth"
	"github.com/jimdaga/nextrend/internal/brandvoice"
	"github.com/jimdaga/nextrend/internal/catalog"
	"github.com/jimdaga/nextrend/internal/sources"
)

var loginErrors = map[string]string{
	auth.LoginErrorAuthFailed:     "Sign-in failed. Please try again.",
	auth.LoginErrorNoSubscription: "No subscription was found for that Google account. Subscribe to get started.",
	auth.LoginErrorSession:        "We couldn't start your session. Please try again.",
}

// slotView is one content card on the editor and custom pages.
type slotView struct {
	Index int
	catalog.ContentType
	Shareable bool
}

func (s *Server) slotViews() []slotView {
	types := s.Catalog.Types()
	out := make([]slotView, len(types))
	for i, ct := range types {
		out[i] = slotView{Index: i, ContentType: ct, Shareable: ct.Share != ""}
	}
	return out
}

func (s *Server) loginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title":        "Sign in",
		"Error":        loginErrors[c.Query("error")],
		"GoogleLogin":  s.Auth != nil && s.Auth.Enabled(),
		"DevLogin":     s.Auth != nil && s.Auth.DevLoginEnabled() && s.DevLoginEmail != "",
		"CheckoutLink": "/checkout",
	})
}

func (s *Server) dashboardPage(c *gin.Context) {
	user := currentUser(c)
	ctx := c.Request.Context()

	counts, err := s.Usage.Counts(ctx, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	summary, err := s.Voices.SummaryFor(ctx, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	type card struct {
		sources.Option
		Uses int64
	}
	var cards []card
	for _, o := range sources.Options() {
		key := o.Kind
		if o.IsCustom() {
			key = "custom"
		}
		cards = append(cards, card{Option: o, Uses: counts[key]})
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title":      "Dashboard",
		"User":       user,
		"Options":    cards,
		"HasVoice":   summary != "",
		"Subscribed": user.HasActiveSubscription(),
	})
}

func (s *Server) sourcesPage(c *gin.Context) {
	opt, ok := sources.OptionBySlug(c.Param("option"))
	if !ok {
		s.respondError(c, apperr.NotFound("web.sourcesPage", "unknown content source"))
		return
	}
	if opt.IsCustom() {
		c.Redirect(http.StatusFound, "/custom")
		return
	}

	tab := strings.ToLower(c.DefaultQuery("tab", "all"))
	if !opt.HasTab(tab) {
		tab = "all"
	}
	pageNum, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	q := strings.TrimSpace(c.Query("q"))

	var page sources.Page
	var err error
	if q != "" && s.Index != nil {
		page, err = s.search(c, opt, q)
	} else {
		page, err = s.Sources.List(c.Request.Context(), opt.Kind, sources.Query{Tab: tab, Page: pageNum})
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	items := make([]sources.Meta, len(page.Items))
	for i, it := range page.Items {
		items[i] = it.Meta()
	}

	c.HTML(http.StatusOK, "sources.html", gin.H{
		"Title":  opt.Title,
		"User":   currentUser(c),
		"Option": opt,
		"Tab":    tab,
		"Query":  q,
		"Items":  items,
		"Page":   page,
	})
}

func (s *Server) search(c *gin.Context, opt sources.Option, q string) (sources.Page, error) {
	ids, err := s.Index.Search(q, opt.Kind, sources.PerPage)
	if err != nil {
		return sources.Page{}, apperr.Validation("web.search", "could not understand that search")
	}
	items, err := s.Sources.GetMany(c.Request.Context(), ids)
	if err != nil {
		return sources.Page{}, err
	}
	return sources.Page{Items: items, Page: 1, PerPage: sources.PerPage, Total: int64(len(items)), TotalPages: 1}, nil
}

func (s *Server) editorPage(c *gin.Context) {
	opt, ok := sources.OptionBySlug(c.Param("option"))
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if !ok || opt.IsCustom() || err != nil {
		s.respondError(c, apperr.NotFound("web.editorPage", "source not found"))
		return
	}

	src, err := s.Sources.Get(c.Request.Context(), uint(id))
	if err != nil {
		s.respondError(c, err)
		return
	}
	meta := src.Meta()
	if meta.Kind != opt.Kind {
		s.respondError(c, apperr.NotFound("web.editorPage", "source not found"))
		return
	}

	c.HTML(http.StatusOK, "editor.html", gin.H{
		"Title":  meta.Title,
		"User":   currentUser(c),
		"Option": opt,
		"Source": meta,
		"Body":   sources.Input(src).Body,
		"Slots":  s.slotViews(),
	})
}

func (s *Server) customPage(c *gin.Context) {
	user := currentUser(c)
	history, err := s.Chat.History(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	opt, _ := sources.OptionBySlug("custom")
	c.HTML(http.StatusOK, "custom.html", gin.H{
		"Title":   opt.Title,
		"User":    user,
		"History": history,
		"Slots":   s.slotViews(),
	})
}

func (s *Server) brandVoicePage(c *gin.Context) {
	s.renderBrandVoice(c, http.StatusOK, "", c.Query("saved") == "1")
}

func (s *Server) renderBrandVoice(c *gin.Context, status int, errMsg string, saved bool) {
	user := currentUser(c)
	profile, err := s.Voices.Get(c.Request.Context(), user.ID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		s.respondError(c, err)
		return
	}
	c.HTML(status, "brand_voice.html", gin.H{
		"Title":   "Brand Voice",
		"User":    user,
		"Profile": profile,
		"Error":   errMsg,
		"Saved":   saved,
		"MaxMB":   brandvoice.MaxUploadSize >> 20,
	})
}

func (s *Server) saveBrandVoice(c *gin.Context) {
	user := currentUser(c)
	if _, err := s.Voices.Save(c.Request.Context(), user.ID, c.PostForm("content")); err != nil {
		s.voiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/brand-voice?saved=1")
}

func (s *Server) uploadBrandVoice(c *gin.Context) {
	user := currentUser(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, brandvoice.MaxUploadSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		s.voiceError(c, apperr.Validation("web.uploadBrandVoice", "choose a file of 10MB or less"))
		return
	}
	if fh.Size > brandvoice.MaxUploadSize {
		s.voiceError(c, apperr.Validation("web.uploadBrandVoice", "file must be 10MB or smaller"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.voiceError(c, apperr.Validation("web.uploadBrandVoice", "could not read the uploaded file"))
		return
	}
	defer f.Close()

	text, err := brandvoice.ExtractText(fh.Filename, f)
	if err != nil {
		s.voiceError(c, err)
		return
	}
	if _, err := s.Voices.Save(c.Request.Context(), user.ID, text); err != nil {
		s.voiceError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/brand-voice?saved=1")
}

// voiceError re-renders the form for errors the user can act on.
func (s *Server) voiceError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindGeneration, apperr.KindEmptyResponse:
		s.renderBrandVoice(c, apperr.HTTPStatus(err), apperr.UserMessage(err), false)
	default:
		s.respondError(c, err)
	}
}

func (s *Server) libraryPage(c *gin.Context) {
	user := currentUser(c)
	items, err := s.Library.List(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	labels := make(map[string]string)
	for _, ct := range s.Catalog.Types() {
		labels[ct.Key] = ct.Label
	}
	c.HTML(http.StatusOK, "library.html", gin.H{
		"Title":  "Library",
		"User":   user,
		"Items":  items,
		"Labels": labels,
	})
}
