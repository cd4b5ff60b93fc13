package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/view"
	"github.com/rs/zerolog"
)

// pages writes rendered HTML and diagnostic pages
type pages struct {
	renderer *view.Renderer
	log      zerolog.Logger
}

func (p pages) render(c *gin.Context, status int, fn func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		p.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, "failed to render page")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (p pages) diagnostic(c *gin.Context, status int, title string, err error) {
	p.render(c, status, func(w io.Writer) error {
		return p.renderer.Diagnostic(w, title, err.Error())
	})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var (
		saveErr   *common.SaveError
		aiErr     *common.AIError
		searchErr *common.SearchError
	)
	switch {
	case errors.As(err, &saveErr):
		return http.StatusInternalServerError
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &aiErr), errors.As(err, &searchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func wantsJSON(c *gin.Context) bool {
	return c.Query("format") == "json" || strings.Contains(c.GetHeader("Accept"), "application/json")
}
