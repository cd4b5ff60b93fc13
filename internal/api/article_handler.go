package api

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/service"
	"github.com/read-it-later/internal/validation"
	"github.com/read-it-later/internal/view"
	"github.com/rs/zerolog"
)

// ArticleHandler handles the list pages, the bookmarklet save and the
// record actions
type ArticleHandler struct {
	services  *service.Services
	pages     pages
	validator *validation.Validator
	cfg       *config.Config
	log       zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, renderer *view.Renderer, cfg *config.Config, log zerolog.Logger) *ArticleHandler {
	log = log.With().Str("handler", "article").Logger()
	return &ArticleHandler{
		services:  services,
		pages:     pages{renderer: renderer, log: log},
		validator: validation.NewValidator(cfg.Collect.MaxCount),
		cfg:       cfg,
		log:       log,
	}
}

// Extract handles GET /extract?url=
// Responds with JSON when asked to, otherwise with a page that closes itself
func (h *ArticleHandler) Extract(c *gin.Context) {
	rawURL := c.Query("url")

	if errs := h.validator.ValidateSaveURL(rawURL); len(errs) > 0 {
		h.saveFailed(c, http.StatusBadRequest, validation.AsError(errs))
		return
	}

	result, err := h.services.Articles.Save(c.Request.Context(), rawURL)
	if err != nil {
		h.log.Error().Err(err).Str("url", rawURL).Msg("Save failed")
		h.saveFailed(c, statusFor(err), err)
		return
	}

	status := "saved"
	if result.Degraded {
		status = "saved_fallback"
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, models.SaveResponse{
			Status: status,
			ID:     result.Article.ID,
			Title:  result.Article.Title,
		})
		return
	}

	h.pages.render(c, http.StatusOK, func(w io.Writer) error {
		return h.pages.renderer.Saved(w, result.Article.Title, result.Degraded)
	})
}

func (h *ArticleHandler) saveFailed(c *gin.Context, status int, err error) {
	if wantsJSON(c) {
		c.JSON(status, gin.H{"status": "error", "error": err.Error()})
		return
	}
	h.pages.diagnostic(c, status, "Save failed", err)
}

// Unread handles GET /
func (h *ArticleHandler) Unread(c *gin.Context) {
	h.list(c, view.TabUnread, models.Unread(h.cfg.UI.ListLimit))
}

// Archived handles GET /archived
func (h *ArticleHandler) Archived(c *gin.Context) {
	h.list(c, view.TabArchived, models.Archived(h.cfg.UI.ListLimit))
}

func (h *ArticleHandler) list(c *gin.Context, tab view.Tab, filter models.ListFilter) {
	ctx := c.Request.Context()
	page := view.Page{Tab: tab}

	articles, err := h.services.Articles.List(ctx, filter)
	if err != nil {
		h.log.Warn().Err(err).Str("tab", string(tab)).Msg("Failed to list articles")
		page.Notice = "Could not load articles. Try again later."
	} else {
		page.Articles = articles
	}

	if tab == view.TabUnread {
		page.Digest = h.services.Articles.Digest(ctx, articles)
		page.CollectEnabled = h.services.Collect.Enabled()
		page.CollectDefault = h.cfg.Collect.DefaultCount
		page.CollectMax = h.cfg.Collect.MaxCount
	}

	h.pages.render(c, http.StatusOK, func(w io.Writer) error {
		return h.pages.renderer.List(w, page)
	})
}

// Archive handles POST /archive/:id
func (h *ArticleHandler) Archive(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		h.pages.diagnostic(c, http.StatusBadRequest, "Archive failed", err)
		return
	}

	if err := h.services.Articles.Archive(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Archive failed")
		h.pages.diagnostic(c, statusFor(err), "Archive failed", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// Unarchive handles POST /unarchive/:id
func (h *ArticleHandler) Unarchive(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		h.pages.diagnostic(c, http.StatusBadRequest, "Restore failed", err)
		return
	}

	if err := h.services.Articles.Unarchive(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Unarchive failed")
		h.pages.diagnostic(c, statusFor(err), "Restore failed", err)
		return
	}

	c.Redirect(http.StatusSeeOther, "/archived")
}

// Delete handles POST /delete/:id
// Deleting an absent record succeeds
func (h *ArticleHandler) Delete(c *gin.Context) {
	id, err := validation.ParseID(c.Param("id"))
	if err != nil {
		h.pages.diagnostic(c, http.StatusBadRequest, "Delete failed", err)
		return
	}

	if err := h.services.Articles.Delete(c.Request.Context(), id); err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Delete failed")
		h.pages.diagnostic(c, statusFor(err), "Delete failed", err)
		return
	}

	c.Redirect(http.StatusSeeOther, h.deleteTarget(c))
}

// deleteTarget is the configured path, or the referring page when it is
// on this host
func (h *ArticleHandler) deleteTarget(c *gin.Context) string {
	target := h.cfg.UI.DeleteRedirect
	if target != "" && target != "referer" {
		return target
	}

	ref, err := url.Parse(c.GetHeader("Referer"))
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") {
		return "/"
	}
	if ref.Host != "" && ref.Host != c.Request.Host {
		return "/"
	}
	return ref.RequestURI()
}
