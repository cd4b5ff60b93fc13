package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/service"
	"github.com/read-it-later/internal/validation"
	"github.com/read-it-later/internal/view"
	"github.com/rs/zerolog"
)

// CollectHandler handles the AI-collect form
type CollectHandler struct {
	services  *service.Services
	pages     pages
	validator *validation.Validator
	log       zerolog.Logger
}

// NewCollectHandler creates a new CollectHandler
func NewCollectHandler(services *service.Services, renderer *view.Renderer, cfg *config.Config, log zerolog.Logger) *CollectHandler {
	log = log.With().Str("handler", "collect").Logger()
	return &CollectHandler{
		services:  services,
		pages:     pages{renderer: renderer, log: log},
		validator: validation.NewValidator(cfg.Collect.MaxCount),
		log:       log,
	}
}

// Collect handles POST /ai-collect with form fields urls and count
func (h *CollectHandler) Collect(c *gin.Context) {
	var req models.CollectRequest
	if err := c.ShouldBind(&req); err != nil {
		h.pages.diagnostic(c, http.StatusBadRequest, "AI collect failed",
			fmt.Errorf("%w: count must be a number", common.ErrInvalidInput))
		return
	}

	if errs := h.validator.ValidateCollect(&req); len(errs) > 0 {
		h.pages.diagnostic(c, http.StatusBadRequest, "AI collect failed", validation.AsError(errs))
		return
	}

	articles, err := h.services.Collect.Collect(c.Request.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Int("count", req.Count).Msg("AI collect failed")
		h.pages.diagnostic(c, statusFor(err), "AI collect failed", err)
		return
	}

	h.log.Info().Int("collected", len(articles)).Msg("AI collect finished")
	c.Redirect(http.StatusSeeOther, "/")
}
