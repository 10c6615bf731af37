package player

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/request"
)

type fakeAPI struct {
	payload   json.RawMessage
	err       error
	lastTag   string
	lastToken string
	calls     int
}

func (f *fakeAPI) Player(_ context.Context, rawTag string) (json.RawMessage, error) {
	f.calls++
	f.lastTag = rawTag
	return f.payload, f.err
}

func (f *fakeAPI) VerifyPlayerToken(_ context.Context, rawTag, token string) (json.RawMessage, error) {
	f.calls++
	f.lastTag = rawTag
	f.lastToken = token
	return f.payload, f.err
}

func newRouter(api Upstream) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(request.Handler(logger))
	RegisterRoutes(r.Group("/api"), NewHandler(api, logger))
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetPlayer(t *testing.T) {
	api := &fakeAPI{payload: json.RawMessage(`{"tag":"#P2","name":"Chief"}`)}
	rec := serve(newRouter(api), http.MethodGet, "/api/players/P2", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P2", api.lastTag)
	assert.JSONEq(t, `{"tag":"#P2","name":"Chief"}`, rec.Body.String())
}

func TestGetPlayerNotFound(t *testing.T) {
	api := &fakeAPI{err: &clashapi.UpstreamError{Status: http.StatusNotFound, Body: []byte(`{"reason":"notFound"}`)}}
	rec := serve(newRouter(api), http.MethodGet, "/api/players/NOPE", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Player not found","details":{"reason":"notFound"}}`, rec.Body.String())
}

func TestVerifyTokenRequiresToken(t *testing.T) {
	api := &fakeAPI{}
	r := newRouter(api)

	for _, body := range []string{"", `{}`, `{"token":"  "}`, `{"token":123}`, `not json`} {
		rec := serve(r, http.MethodPost, "/api/players/P2/verifytoken", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Player API token is required"}`, rec.Body.String(), body)
	}
	assert.Zero(t, api.calls)
}

func TestVerifyToken(t *testing.T) {
	api := &fakeAPI{payload: json.RawMessage(`{"tag":"#P2","token":"abc","status":"invalid"}`)}
	rec := serve(newRouter(api), http.MethodPost, "/api/players/%23P2/verifytoken", `{"token":"abc"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#P2", api.lastTag)
	assert.Equal(t, "abc", api.lastToken)
	assert.Contains(t, rec.Body.String(), `"status":"invalid"`)
}

func TestVerifyTokenUpstreamFailure(t *testing.T) {
	api := &fakeAPI{err: &clashapi.UpstreamError{Status: http.StatusForbidden, Body: []byte(`{"reason":"accessDenied"}`)}}
	rec := serve(newRouter(api), http.MethodPost, "/api/players/P2/verifytoken", `{"token":"abc"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Token verification failed","details":{"reason":"accessDenied"}}`, rec.Body.String())
}
