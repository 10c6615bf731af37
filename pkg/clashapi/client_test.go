package clashapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/coc-proxy-go/pkg/tag"
)

type captured struct {
	method  string
	rawPath string
	query   string
	auth    string
	body    string
}

func newTestServer(t *testing.T, status int, payload string, got *captured) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*got = captured{
			method:  r.Method,
			rawPath: r.URL.EscapedPath(),
			query:   r.URL.RawQuery,
			auth:    r.Header.Get("Authorization"),
			body:    string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestClientClanPaths(t *testing.T) {
	var got captured
	ts := newTestServer(t, http.StatusOK, `{"tag":"#2LYPQQLG9","name":"Test"}`, &got)
	client := NewClient(ts.URL+"/v1/", "secret", WithHTTPClient(ts.Client()))

	ctx := context.Background()

	raw, err := client.Clan(ctx, "2LYPQQLG9")
	require.NoError(t, err)
	assert.Equal(t, "/v1/clans/%232LYPQQLG9", got.rawPath)
	assert.Equal(t, "Bearer secret", got.auth)
	assert.JSONEq(t, `{"tag":"#2LYPQQLG9","name":"Test"}`, string(raw))

	_, err = client.ClanMembers(ctx, "#2LYPQQLG9")
	require.NoError(t, err)
	assert.Equal(t, "/v1/clans/%232LYPQQLG9/members", got.rawPath)

	_, err = client.ClanWarLog(ctx, "#2LYPQQLG9")
	require.NoError(t, err)
	assert.Equal(t, "/v1/clans/%232LYPQQLG9/warlog", got.rawPath)
}

func TestClientPreEncodedTagModes(t *testing.T) {
	var got captured
	ts := newTestServer(t, http.StatusOK, `{}`, &got)

	legacy := NewClient(ts.URL, "k", WithHTTPClient(ts.Client()))
	_, err := legacy.Player(context.Background(), "%232LYPQQLG9")
	require.NoError(t, err)
	assert.Equal(t, "/players/%25232LYPQQLG9", got.rawPath)

	canonical := NewClient(ts.URL, "k",
		WithHTTPClient(ts.Client()),
		WithTagNormalizer(tag.Normalizer{Mode: tag.ModeCanonical}),
	)
	_, err = canonical.Player(context.Background(), "%232LYPQQLG9")
	require.NoError(t, err)
	assert.Equal(t, "/players/%232LYPQQLG9", got.rawPath)
}

func TestClientSearchForwardsQuery(t *testing.T) {
	var got captured
	ts := newTestServer(t, http.StatusOK, `{"items":[]}`, &got)
	client := NewClient(ts.URL, "k", WithHTTPClient(ts.Client()))

	_, err := client.SearchClans(context.Background(), url.Values{"name": {"clash"}, "limit": {"10"}})
	require.NoError(t, err)
	assert.Equal(t, "/clans", got.rawPath)
	assert.Equal(t, "limit=10&name=clash", got.query)
}

func TestClientVerifyToken(t *testing.T) {
	var got captured
	ts := newTestServer(t, http.StatusOK, `{"tag":"#P","token":"abc","status":"ok"}`, &got)
	client := NewClient(ts.URL, "k", WithHTTPClient(ts.Client()))

	raw, err := client.VerifyPlayerToken(context.Background(), "P", "abc")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/players/%23P/verifytoken", got.rawPath)
	assert.JSONEq(t, `{"token":"abc"}`, got.body)

	verification, err := Decode[TokenVerification](raw)
	require.NoError(t, err)
	assert.True(t, verification.OK())
}

func TestClientUpstreamError(t *testing.T) {
	var got captured
	ts := newTestServer(t, http.StatusNotFound, `{"reason":"notFound"}`, &got)
	client := NewClient(ts.URL, "k", WithHTTPClient(ts.Client()))

	_, err := client.Clan(context.Background(), "NOPE")
	require.Error(t, err)

	upstreamErr, ok := AsUpstream(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, upstreamErr.Status)
	assert.Equal(t, "notFound", upstreamErr.Reason())
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	details, ok := DetailsOf(err).(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"reason":"notFound"}`, string(details))
}

func TestStatusOfTransportError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "k")
	_, err := client.Clan(context.Background(), "ABC")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Nil(t, DetailsOf(err))
}

func TestUpstreamErrorPlainBody(t *testing.T) {
	err := &UpstreamError{Status: http.StatusBadGateway, Body: []byte("bad gateway")}
	assert.Equal(t, "bad gateway", err.Details())
	assert.Empty(t, err.Reason())
	assert.Nil(t, (&UpstreamError{Status: 503}).Details())
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("  ", " token ")
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.True(t, client.Configured())
	assert.False(t, NewClient("", "").Configured())
	assert.Equal(t, "/clans/%23ABC/warlog", client.ClanPath("ABC", "warlog"))
}

func TestParseTime(t *testing.T) {
	parsed, ok := ParseTime("20240102T030405.000Z")
	require.True(t, ok)
	assert.Equal(t, 2024, parsed.Year())
	assert.Equal(t, 3, parsed.Hour())

	_, ok = ParseTime("")
	assert.False(t, ok)
	_, ok = ParseTime("yesterday")
	assert.False(t, ok)
}
