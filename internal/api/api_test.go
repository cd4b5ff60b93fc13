package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/read-it-later/internal/api"
	"github.com/read-it-later/internal/common"
	"github.com/read-it-later/internal/config"
	"github.com/read-it-later/internal/metrics"
	"github.com/read-it-later/internal/mocks"
	"github.com/read-it-later/internal/models"
	"github.com/read-it-later/internal/service"
	"github.com/read-it-later/internal/view"
	"github.com/rs/zerolog"
)

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: "8080"},
		Collect: config.CollectConfig{DefaultCount: 5, MaxCount: 10},
		UI:      config.UIConfig{DeleteRedirect: "referer", ListLimit: 200},
	}
}

func setupTestRouter(t *testing.T) (*gin.Engine, *mocks.MockArticleService, *mocks.MockCollectService) {
	return setupTestRouterWith(t, testConfig(), nil, nil)
}

func setupTestRouterWith(t *testing.T, cfg *config.Config, m *metrics.Metrics, health api.HealthChecker) (*gin.Engine, *mocks.MockArticleService, *mocks.MockCollectService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockArticles := mocks.NewMockArticleService()
	mockCollect := &mocks.MockCollectService{}

	services := &service.Services{
		Articles: mockArticles,
		Collect:  mockCollect,
	}

	renderer, err := view.New(nil)
	if err != nil {
		t.Fatalf("view.New failed: %v", err)
	}

	router := api.NewRouter(services, renderer, m, health, cfg, zerolog.Nop())
	return router, mockArticles, mockCollect
}

func seed(repo *mocks.MockArticleRepository, title string, archived bool) *models.Article {
	a := &models.Article{URL: "https://www.example.com/" + url.PathEscape(title), Title: title}
	repo.Create(context.Background(), a)
	repo.Articles[a.ID].IsArchived = archived
	return a
}

func postForm(router *gin.Engine, path string, form url.Values, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupTestRouterWith(t, testConfig(), nil, fakeHealth{})

	w := get(router, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "read-it-later" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestHealthEndpoint_StoreDown(t *testing.T) {
	router, _, _ := setupTestRouterWith(t, testConfig(), nil, fakeHealth{err: errors.New("connection refused")})

	w := get(router, "/health", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)
	seed(mockArticles.Repo, "one", false)
	seed(mockArticles.Repo, "two", false)
	seed(mockArticles.Repo, "three", true)

	w := get(router, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Articles models.Stats `json:"articles"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Articles.Unread != 2 || response.Articles.Archived != 1 {
		t.Errorf("Unexpected stats: %+v", response.Articles)
	}

	mockArticles.StatsErr = &common.StoreError{Op: "count", Err: errors.New("down")}
	if w := get(router, "/stats", nil); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _, _ := setupTestRouterWith(t, testConfig(), metrics.New(), nil)

	get(router, "/health", nil)
	w := get(router, "/metrics", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	want := `readlater_http_requests_total{method="GET",route="/health",status="200"} 1`
	if !strings.Contains(w.Body.String(), want) {
		t.Errorf("Expected metrics output to contain %q", want)
	}
}

func TestExtract_HTML(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)

	w := get(router, "/extract?url="+url.QueryEscape("https://example.com/a"), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "window.close()") {
		t.Error("Expected the saved page to close itself")
	}
	if len(mockArticles.SavedURLs) != 1 || mockArticles.SavedURLs[0] != "https://example.com/a" {
		t.Errorf("Unexpected saved urls: %v", mockArticles.SavedURLs)
	}
}

func TestExtract_JSON(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)

	w := get(router, "/extract?format=json&url="+url.QueryEscape("https://example.com/a"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response models.SaveResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Status != "saved" || response.ID != 1 || response.Title != "https://example.com/a" {
		t.Errorf("Unexpected response: %+v", response)
	}

	mockArticles.SaveFunc = func(ctx context.Context, u string) (*models.SaveResult, error) {
		return &models.SaveResult{Article: &models.Article{ID: 9, URL: u, Title: u}, Degraded: true}, nil
	}
	w = get(router, "/extract?url="+url.QueryEscape("https://example.com/b"), map[string]string{"Accept": "application/json"})
	json.Unmarshal(w.Body.Bytes(), &response)
	if w.Code != http.StatusOK || response.Status != "saved_fallback" || response.ID != 9 {
		t.Errorf("Expected 200 saved_fallback, got %d %+v", w.Code, response)
	}
}

func TestExtract_Failures(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)

	if w := get(router, "/extract", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for missing url, got %d", w.Code)
	}
	if len(mockArticles.SavedURLs) != 0 {
		t.Error("Save must not be called for an invalid url")
	}

	mockArticles.SaveFunc = func(ctx context.Context, u string) (*models.SaveResult, error) {
		return nil, &common.SaveError{
			URL:   u,
			Cause: &common.ExtractionError{URL: u, Err: common.ErrInvalidInput},
			Err:   &common.StoreError{Op: "insert", Err: errors.New("down")},
		}
	}
	w := get(router, "/extract?format=json&url="+url.QueryEscape("https://example.com/a"), nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for SaveError, got %d", w.Code)
	}
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response["status"] != "error" {
		t.Errorf("Expected error status, got %v", response["status"])
	}
}

func TestUnreadPage(t *testing.T) {
	router, mockArticles, mockCollect := setupTestRouter(t)
	seed(mockArticles.Repo, "Unread headline", false)
	seed(mockArticles.Repo, "Archived headline", true)
	mockArticles.DigestText = "Today you saved one article."
	mockCollect.Available = true

	w := get(router, "/", nil)
	body := w.Body.String()

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(body, "Unread headline") {
		t.Error("Expected the unread article")
	}
	if strings.Contains(body, "Archived headline") {
		t.Error("Archived article must not be listed on the unread tab")
	}
	if !strings.Contains(body, "Today you saved one article.") {
		t.Error("Expected the digest")
	}
	if !strings.Contains(body, `action="/ai-collect"`) {
		t.Error("Expected the AI collect form")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected text/html, got %s", ct)
	}
}

func TestUnreadPage_StoreError(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)
	mockArticles.Repo.ListError = &common.StoreError{Op: "list", Err: errors.New("down")}

	w := get(router, "/", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Could not load articles") {
		t.Error("Expected the store failure notice")
	}
	if !strings.Contains(w.Body.String(), "No articles yet") {
		t.Error("Expected the empty state")
	}
}

func TestArchivedPage(t *testing.T) {
	router, mockArticles, mockCollect := setupTestRouter(t)
	seed(mockArticles.Repo, "Unread headline", false)
	seed(mockArticles.Repo, "Archived headline", true)
	mockCollect.Available = true

	w := get(router, "/archived", nil)
	body := w.Body.String()

	if !strings.Contains(body, "Archived headline") || strings.Contains(body, "Unread headline") {
		t.Error("Archive tab must list exactly the archived articles")
	}
	if strings.Contains(body, `action="/ai-collect"`) {
		t.Error("AI collect form belongs to the unread tab")
	}

	empty, _, _ := setupTestRouter(t)
	if w := get(empty, "/archived", nil); !strings.Contains(w.Body.String(), "The archive is empty") {
		t.Error("Expected the archive empty state")
	}
}

func TestArchiveAndUnarchive(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)
	a := seed(mockArticles.Repo, "x", false)

	for _, path := range []string{"/archive/1", "/archive-action/1"} {
		w := postForm(router, path, nil, nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
			t.Errorf("%s: expected 303 to /, got %d %s", path, w.Code, w.Header().Get("Location"))
		}
		if !mockArticles.Repo.Articles[a.ID].IsArchived {
			t.Errorf("%s: expected article to be archived", path)
		}
	}

	for _, path := range []string{"/unarchive/1", "/unarchive-action/1"} {
		w := postForm(router, path, nil, nil)
		if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/archived" {
			t.Errorf("%s: expected 303 to /archived, got %d %s", path, w.Code, w.Header().Get("Location"))
		}
		if mockArticles.Repo.Articles[a.ID].IsArchived {
			t.Errorf("%s: expected article to be unarchived", path)
		}
	}
}

func TestArchive_Errors(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)

	tests := []struct {
		name       string
		path       string
		setup      func()
		wantStatus int
	}{
		{name: "non numeric id", path: "/archive/abc", wantStatus: http.StatusBadRequest},
		{name: "zero id", path: "/unarchive/0", wantStatus: http.StatusBadRequest},
		{name: "unknown id", path: "/archive/404", wantStatus: http.StatusNotFound},
		{
			name:       "store failure",
			path:       "/archive/1",
			setup:      func() { mockArticles.Repo.UpdateError = &common.StoreError{Op: "update", Err: errors.New("down")} },
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			w := postForm(router, tt.path, nil, nil)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), "failed") {
				t.Error("Expected a diagnostic page")
			}
		})
	}
}

func TestDelete_RedirectTarget(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		referer  string
		want     string
	}{
		{name: "same host referer", redirect: "referer", referer: "http://example.com/archived", want: "/archived"},
		{name: "relative referer", redirect: "referer", referer: "/archived", want: "/archived"},
		{name: "foreign referer", redirect: "referer", referer: "https://evil.example/phish", want: "/"},
		{name: "no referer", redirect: "referer", want: "/"},
		{name: "fixed target", redirect: "/archived", referer: "http://example.com/", want: "/archived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.UI.DeleteRedirect = tt.redirect
			router, mockArticles, _ := setupTestRouterWith(t, cfg, nil, nil)
			seed(mockArticles.Repo, "x", false)

			headers := map[string]string{}
			if tt.referer != "" {
				headers["Referer"] = tt.referer
			}
			w := postForm(router, "/delete/1", nil, headers)

			if w.Code != http.StatusSeeOther {
				t.Errorf("Expected status 303, got %d", w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.want {
				t.Errorf("Expected redirect to %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDelete_Idempotent(t *testing.T) {
	router, mockArticles, _ := setupTestRouter(t)
	seed(mockArticles.Repo, "x", false)

	for i, path := range []string{"/delete/1", "/delete-action/1"} {
		if w := postForm(router, path, nil, nil); w.Code != http.StatusSeeOther {
			t.Errorf("delete #%d: expected status 303, got %d", i+1, w.Code)
		}
	}
	if len(mockArticles.Repo.Articles) != 0 {
		t.Error("Expected the article to be gone")
	}

	mockArticles.Repo.DeleteError = &common.StoreError{Op: "delete", Err: errors.New("down")}
	if w := postForm(router, "/delete/1", nil, nil); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 on store failure, got %d", w.Code)
	}
}

func TestCollect(t *testing.T) {
	router, _, mockCollect := setupTestRouter(t)
	mockCollect.Available = true
	mockCollect.Articles = []*models.Article{{ID: 1}}

	w := postForm(router, "/ai-collect", url.Values{"urls": {"https://go.dev golang"}, "count": {"3"}}, nil)

	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Errorf("Expected 303 to /, got %d %s", w.Code, w.Header().Get("Location"))
	}
	if len(mockCollect.Requests) != 1 {
		t.Fatalf("Expected one collect call, got %d", len(mockCollect.Requests))
	}
	if got := mockCollect.Requests[0]; got.Hint != "https://go.dev golang" || got.Count != 3 {
		t.Errorf("Unexpected request: %+v", got)
	}

	postForm(router, "/ai-collect", url.Values{}, nil)
	if got := mockCollect.Requests[1]; got.Count != 0 {
		t.Errorf("Missing count should bind as 0, got %d", got.Count)
	}
}

func TestCollect_Errors(t *testing.T) {
	tests := []struct {
		name       string
		form       url.Values
		err        error
		wantStatus int
	}{
		{name: "count not a number", form: url.Values{"count": {"many"}}, wantStatus: http.StatusBadRequest},
		{name: "count above max", form: url.Values{"count": {"11"}}, wantStatus: http.StatusBadRequest},
		{name: "not configured", err: common.ErrUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "ai failure", err: &common.AIError{Op: "synthesize_query", Err: common.ErrQuotaExceeded}, wantStatus: http.StatusBadGateway},
		{name: "search failure", err: &common.SearchError{Query: "q", Err: errors.New("503")}, wantStatus: http.StatusBadGateway},
		{name: "store failure", err: &common.StoreError{Op: "insert batch", Err: errors.New("down")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, mockCollect := setupTestRouter(t)
			mockCollect.Err = tt.err

			form := tt.form
			if form == nil {
				form = url.Values{"count": {"2"}}
			}
			w := postForm(router, "/ai-collect", form, nil)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), "AI collect failed") {
				t.Error("Expected a diagnostic page")
			}
		})
	}
}

func TestCORSHeaders(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/extract", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != 204 {
		t.Errorf("Expected status 204 for OPTIONS, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
}

func TestRequestID(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := get(router, "/health", nil)
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated request id")
	}

	const id = "7f1b9a4e-2c3d-4e5f-8a9b-0c1d2e3f4a5b"
	w = get(router, "/health", map[string]string{"X-Request-ID": id})
	if got := w.Header().Get("X-Request-ID"); got != id {
		t.Errorf("Expected request id %s to be echoed, got %s", id, got)
	}

	w = get(router, "/health", map[string]string{"X-Request-ID": "not-a-uuid"})
	if got := w.Header().Get("X-Request-ID"); got == "not-a-uuid" {
		t.Error("Invalid request ids must be replaced")
	}
}
