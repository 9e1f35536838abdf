package http

import (
	"bytes"
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/storyfeed-backend/internal/domain"
	"github.com/yungbote/storyfeed-backend/internal/feed"
	httpH "github.com/yungbote/storyfeed-backend/internal/http/handlers"
	httpMW "github.com/yungbote/storyfeed-backend/internal/http/middleware"
	"github.com/yungbote/storyfeed-backend/internal/http/response"
	"github.com/yungbote/storyfeed-backend/internal/observability"
	"github.com/yungbote/storyfeed-backend/internal/platform/apierr"
	"github.com/yungbote/storyfeed-backend/internal/platform/logger"
	"github.com/yungbote/storyfeed-backend/internal/services"
)

type stubFeed struct {
	got services.FeedRequest
	err error
}

func (s *stubFeed) GetFeed(ctx context.Context, req services.FeedRequest) (*services.FeedPage, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	next := 2
	return &services.FeedPage{
		Items:    []feed.Item{{Type: feed.ItemTryBadge}},
		Keywords: map[string]feed.Keyword{},
		HasMore:  true,
		NextPage: &next,
	}, nil
}

type stubViews struct {
	device string
}

func (s *stubViews) Record(ctx context.Context, deviceID string, in services.ViewInput) (*types.ViewRecord, error) {
	s.device = deviceID
	return &types.ViewRecord{DeviceID: deviceID, ContentID: in.ContentID, ContentType: in.ContentType, ViewedAt: time.Unix(0, 0)}, nil
}

func (s *stubViews) History(ctx context.Context, deviceID string, limit int) ([]feed.ViewRecord, error) {
	if deviceID == "" {
		return nil, apierr.BadRequest("missing_device_id", "deviceId is required")
	}
	return []feed.ViewRecord{}, nil
}

func (s *stubViews) Forget(ctx context.Context, deviceID string) (int64, error) {
	return 3, nil
}

func newTestRouter(fs *stubFeed, vs *stubViews, anonKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.Nop()
	return NewRouter(RouterConfig{
		Log:            log,
		Metrics:        observability.New(),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, anonKey, "", nil),
		FeedHandler:    httpH.NewFeedHandler(fs),
		ViewHandler:    httpH.NewViewHandler(vs),
		HealthHandler:  httpH.NewHealthHandler(nil),
	})
}

func do(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v body=%s", err, rec.Body.String())
	}
	return env.Error.Code
}

func TestFeedRoute(t *testing.T) {
	fs := &stubFeed{}
	r := newTestRouter(fs, &stubViews{}, "")

	body := `{"targetLanguage":"fr","level":"B1","viewHistory":[{"id":"s1","type":"story","timestamp":"2025-03-01T10:00:00Z"}],"firstVisit":null,"page":2,"pageSize":5}`
	rec := do(r, nethttp.MethodPost, "/api/feed", body, map[string]string{"X-Device-Id": "dev-9"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("cache-control: got=%q", got)
	}
	if fs.got.TargetLanguage != "fr" || fs.got.Page != 2 || fs.got.PageSize != 5 || fs.got.DeviceID != "dev-9" || len(fs.got.ViewHistory) != 1 {
		t.Fatalf("decoded request: got=%+v", fs.got)
	}
	var page struct {
		Items    []map[string]any `json:"items"`
		HasMore  bool             `json:"hasMore"`
		NextPage *int             `json:"nextPage"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0]["type"] != "try_badge" || !page.HasMore || page.NextPage == nil || *page.NextPage != 2 {
		t.Fatalf("page: got=%s", rec.Body.String())
	}
}

func TestFeedRouteErrors(t *testing.T) {
	cases := []struct {
		name       string
		method     string
		body       string
		feedErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "malformed_body", method: nethttp.MethodPost, body: `{"page":`, wantStatus: nethttp.StatusBadRequest, wantCode: "invalid_body"},
		{name: "empty_body", method: nethttp.MethodPost, wantStatus: nethttp.StatusBadRequest, wantCode: "invalid_body"},
		{name: "wrong_method", method: nethttp.MethodGet, wantStatus: nethttp.StatusMethodNotAllowed, wantCode: "method_not_allowed"},
		{
			name:       "service_validation",
			method:     nethttp.MethodPost,
			body:       `{"level":"A1"}`,
			feedErr:    apierr.BadRequest("missing_target_language", "targetLanguage is required"),
			wantStatus: nethttp.StatusBadRequest,
			wantCode:   "missing_target_language",
		},
		{
			name:       "store_failure",
			method:     nethttp.MethodPost,
			body:       `{"targetLanguage":"fr","level":"A1"}`,
			feedErr:    apierr.Internal("content_store_unavailable", context.DeadlineExceeded),
			wantStatus: nethttp.StatusInternalServerError,
			wantCode:   "content_store_unavailable",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(&stubFeed{err: tc.feedErr}, &stubViews{}, "")
			rec := do(r, tc.method, "/api/feed", tc.body, nil)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: got=%d want=%d body=%s", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if got := errorCode(t, rec); got != tc.wantCode {
				t.Fatalf("code: got=%s want=%s", got, tc.wantCode)
			}
		})
	}
}

func TestAuthGuardsAPIOnly(t *testing.T) {
	r := newTestRouter(&stubFeed{}, &stubViews{}, "anon-key")

	rec := do(r, nethttp.MethodPost, "/api/feed", `{"targetLanguage":"fr","level":"A1"}`, nil)
	if rec.Code != nethttp.StatusUnauthorized || errorCode(t, rec) != "unauthorized" {
		t.Fatalf("missing auth: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodPost, "/api/feed", `{"targetLanguage":"fr","level":"A1"}`, map[string]string{"apikey": "anon-key"})
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("anon key: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, "/healthcheck", "", nil)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestAuthBeforeMethodCheck(t *testing.T) {
	r := newTestRouter(&stubFeed{}, &stubViews{}, "anon-key")

	rec := do(r, nethttp.MethodGet, "/api/feed", "", nil)
	if rec.Code != nethttp.StatusUnauthorized || errorCode(t, rec) != "unauthorized" {
		t.Fatalf("missing auth: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, "/api/feed", "", map[string]string{"apikey": "anon-key"})
	if rec.Code != nethttp.StatusMethodNotAllowed || errorCode(t, rec) != "method_not_allowed" {
		t.Fatalf("authed wrong method: got=%d body=%s", rec.Code, rec.Body.String())
	}

	open := newTestRouter(&stubFeed{}, &stubViews{}, "")
	rec = do(open, nethttp.MethodGet, "/api/feed", "", nil)
	if rec.Code != nethttp.StatusMethodNotAllowed {
		t.Fatalf("auth disabled: got=%d want=405", rec.Code)
	}
}

func TestViewRoutes(t *testing.T) {
	vs := &stubViews{}
	r := newTestRouter(&stubFeed{}, vs, "")

	rec := do(r, nethttp.MethodPost, "/api/views", `{"deviceId":"dev-1","id":"s1","type":"story"}`, nil)
	if rec.Code != nethttp.StatusCreated || vs.device != "dev-1" {
		t.Fatalf("record: got=%d device=%q body=%s", rec.Code, vs.device, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"id":"s1"`) {
		t.Fatalf("record body: got=%s", rec.Body.String())
	}

	rec = do(r, nethttp.MethodGet, "/api/views?deviceId=dev-1&limit=20", "", nil)
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), `"viewHistory":[]`) {
		t.Fatalf("list: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, "/api/views?deviceId=dev-1&limit=abc", "", nil)
	if rec.Code != nethttp.StatusBadRequest || errorCode(t, rec) != "invalid_limit" {
		t.Fatalf("bad limit: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodGet, "/api/views", "", nil)
	if rec.Code != nethttp.StatusBadRequest || errorCode(t, rec) != "missing_device_id" {
		t.Fatalf("missing device: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = do(r, nethttp.MethodDelete, "/api/views", "", map[string]string{"X-Device-Id": "dev-1"})
	if rec.Code != nethttp.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":3`) {
		t.Fatalf("forget: got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(&stubFeed{}, &stubViews{}, "")
	do(r, nethttp.MethodGet, "/healthcheck", "", nil)
	if rec := do(r, nethttp.MethodPost, "/api/feed", `{"targetLanguage":"fr","level":"A1"}`, nil); rec.Code != nethttp.StatusOK {
		t.Fatalf("feed status: got=%d want=200", rec.Code)
	}

	rec := do(r, nethttp.MethodGet, "/metrics", "", nil)
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("metrics status: got=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `sf_api_requests_total{method="POST",route="/api/feed",status="200"} 1`) {
		t.Fatalf("metrics body missing feed sample:\n%s", body)
	}
	if strings.Contains(body, `route="/healthcheck"`) {
		t.Fatalf("healthcheck should not be recorded:\n%s", body)
	}
}
