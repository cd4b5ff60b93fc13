// Package view renders the HTML pages. It holds no business logic: pages are
// a function of the records and the optional digest handed in.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/read-it-later/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Tab selects which list is rendered
type Tab string

const (
	TabUnread   Tab = "unread"
	TabArchived Tab = "archived"
)

// Page is the input of a list render
type Page struct {
	Tab      Tab
	Articles []*models.Article
	Digest   string
	// Notice is shown above the list, e.g. when the store could not be read
	Notice string

	CollectEnabled bool
	CollectDefault int
	CollectMax     int
}

type savedPage struct {
	Title    string
	Degraded bool
}

type diagnosticPage struct {
	Title  string
	Detail string
}

// Renderer executes the embedded templates
type Renderer struct {
	tmpl *template.Template
	ugc  *bluemonday.Policy
	now  func() time.Time
}

// New parses the embedded templates. now may be nil, in which case relative
// ages are computed against time.Now.
func New(now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}
	r := &Renderer{
		ugc: bluemonday.UGCPolicy(),
		now: now,
	}

	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"domain":  Domain,
		"favicon": Favicon,
		"timeAgo": r.timeAgo,
		"digest":  r.digest,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// List renders the unread or archived tab
func (r *Renderer) List(w io.Writer, page Page) error {
	if page.Tab == "" {
		page.Tab = TabUnread
	}
	return r.execute(w, "list", page)
}

// Saved renders the page returned to the bookmarklet; it closes itself
func (r *Renderer) Saved(w io.Writer, title string, degraded bool) error {
	return r.execute(w, "saved", savedPage{Title: title, Degraded: degraded})
}

// Diagnostic renders a failure page with a short detail
func (r *Renderer) Diagnostic(w io.Writer, title, detail string) error {
	return r.execute(w, "diagnostic", diagnosticPage{Title: title, Detail: detail})
}

// execute renders into a buffer so a template failure never leaves a
// half-written page
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// digest sanitizes AI output before it is emitted as markup
func (r *Renderer) digest(s string) template.HTML {
	clean := r.ugc.Sanitize(strings.TrimSpace(s))
	return template.HTML(strings.ReplaceAll(clean, "\n", "<br>"))
}

func (r *Renderer) timeAgo(t time.Time) string {
	return TimeAgo(t, r.now())
}

// TimeAgo formats the age of t relative to now
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	}
}

// Domain returns the host of rawURL without a leading "www.", or "WEB"
// when there is none
func Domain(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return "WEB"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// Favicon returns the favicon service URL for the domain of rawURL
func Favicon(rawURL string) string {
	domain := Domain(rawURL)
	if domain == "WEB" {
		return ""
	}
	return "https://www.google.com/s2/favicons?domain=" + url.QueryEscape(domain) + "&sz=64"
}
