package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	errors    map[string]error
	queries   []url.Values
	tokens    []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		responses: map[string]json.RawMessage{},
		errors:    map[string]error{},
	}
}

func (f *fakeAPI) get(key string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errors[key]; ok {
		return nil, err
	}
	return f.responses[key], nil
}

func (f *fakeAPI) SearchClans(_ context.Context, query url.Values) (json.RawMessage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.get("search")
}

func (f *fakeAPI) Clan(_ context.Context, rawTag string) (json.RawMessage, error) {
	return f.get("clan:" + rawTag)
}

func (f *fakeAPI) ClanMembers(_ context.Context, rawTag string) (json.RawMessage, error) {
	return f.get("members:" + rawTag)
}

func (f *fakeAPI) ClanWarLog(_ context.Context, rawTag string) (json.RawMessage, error) {
	return f.get("warlog:" + rawTag)
}

func (f *fakeAPI) Player(_ context.Context, rawTag string) (json.RawMessage, error) {
	return f.get("player:" + rawTag)
}

func (f *fakeAPI) VerifyPlayerToken(_ context.Context, rawTag, token string) (json.RawMessage, error) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	return f.get("verify:" + rawTag)
}

func newEngine(t *testing.T, api Upstream) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
	handler.now = func() time.Time { return fixedNow }

	r := gin.New()
	require.NoError(t, RegisterRoutes(r, handler))
	return r
}

func fetch(t *testing.T, r http.Handler, req *http.Request) (int, *goquery.Document) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return rec.Code, doc
}

func getPage(t *testing.T, r http.Handler, target string) (int, *goquery.Document) {
	return fetch(t, r, httptest.NewRequest(http.MethodGet, target, nil))
}

func members(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"tag":"#M%d","name":"Member %d","role":"member","clanRank":%d,"trophies":%d,"expLevel":100}`, i, i, i+1, 3000-i)
	}
	return `{"items":[` + strings.Join(items, ",") + `]}`
}

func TestHomeAndEmptyForms(t *testing.T) {
	r := newEngine(t, newFakeAPI())

	code, doc := getPage(t, r, "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Explore Clash of Clans", doc.Find(".hero h1").Text())

	code, doc = getPage(t, r, "/clans")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, doc.Find("form.search").Length())
	assert.Zero(t, doc.Find(".error").Length())
}

func TestClanSearch(t *testing.T) {
	api := newFakeAPI()
	api.responses["search"] = json.RawMessage(`{"items":[
		{"tag":"#AAA","name":"Alpha","clanLevel":10,"members":48,"warFrequency":"always"},
		{"tag":"#BBB","name":"Bravo","clanLevel":7,"members":30},
		{"tag":"#CCC","name":"Charlie","clanLevel":3,"members":12},
		{"tag":"#DDD","name":"Delta","clanLevel":2,"members":5},
		{"tag":"#EEE","name":"Echo","clanLevel":1,"members":2},
		{"tag":"#FFF","name":"Foxtrot","clanLevel":1,"members":1}
	]}`)
	r := newEngine(t, api)

	code, doc := getPage(t, r, "/clans?mode=name&q=alpha&limit=5")
	require.Equal(t, http.StatusOK, code)

	cards := doc.Find("#results .clan-card")
	assert.Equal(t, 5, cards.Length())
	assert.Equal(t, "Alpha", cards.First().Find("h2").Text())
	href, _ := cards.First().Attr("href")
	assert.Equal(t, "/clans?mode=tag&q=AAA", href)
	assert.Contains(t, cards.First().Text(), "Members: 48/50")

	require.Len(t, api.queries, 1)
	assert.Equal(t, "alpha", api.queries[0].Get("name"))
	assert.Equal(t, "5", api.queries[0].Get("limit"))
}

func TestClanQueryTooShort(t *testing.T) {
	api := newFakeAPI()
	code, doc := getPage(t, newEngine(t, api), "/clans?mode=name&q=ab")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Minimum 3 characters required", doc.Find(".error").Text())
	assert.Empty(t, api.queries)
}

func TestClanByTag(t *testing.T) {
	api := newFakeAPI()
	api.responses["clan:2LYPQQLG9"] = json.RawMessage(`{"tag":"#2LYPQQLG9","name":"Warriors","clanLevel":12,"members":60,"clanPoints":41000}`)
	api.responses["members:2LYPQQLG9"] = json.RawMessage(members(60))
	api.responses["warlog:2LYPQQLG9"] = json.RawMessage(`{"items":[
		{"result":"win","endTime":"20240305T120000.000Z","teamSize":15,
		 "clan":{"stars":40,"destructionPercentage":87.5333},
		 "opponent":{"name":"Rivals","stars":30,"destructionPercentage":100}},
		{"endTime":"bad","clan":{"stars":1},"opponent":{"name":"  "}}
	]}`)
	r := newEngine(t, api)

	code, doc := getPage(t, r, "/clans?mode=tag&q=2LYPQQLG9")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "Warriors", doc.Find("#clan h2").Text())
	assert.Equal(t, 50, doc.Find("#members tbody tr").Length())

	wars := doc.Find("#warlog .war")
	require.Equal(t, 2, wars.Length())

	first := wars.Eq(0)
	assert.Equal(t, "WIN", first.Find(".result").Text())
	assert.True(t, first.Find(".result").HasClass("result-win"))
	assert.Contains(t, first.Text(), "5 days ago")
	assert.Contains(t, first.Find(".versus").Text(), "Warriors")
	assert.Contains(t, first.Find(".versus").Text(), "Rivals")
	assert.Equal(t, "87.53% - 100%", first.Find(".destruction").Text())

	second := wars.Eq(1)
	assert.Equal(t, "UNKNOWN", second.Find(".result").Text())
	assert.Contains(t, second.Find(".versus").Text(), "Unknown Clan")
	assert.NotContains(t, second.Text(), "days ago")
}

func TestClanByTagPrivateWarLog(t *testing.T) {
	api := newFakeAPI()
	api.responses["clan:ABC"] = json.RawMessage(`{"tag":"#ABC","name":"Hidden"}`)
	api.responses["members:ABC"] = json.RawMessage(`{"items":[]}`)
	api.errors["warlog:ABC"] = &clashapi.UpstreamError{Status: http.StatusForbidden, Body: []byte(`{"reason":"accessDenied"}`)}

	code, doc := getPage(t, newEngine(t, api), "/clans?mode=tag&q=ABC")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, doc.Find("#warlog-private").Length())
	assert.Zero(t, doc.Find("#warlog").Length())
}

func TestClanByTagNotFound(t *testing.T) {
	api := newFakeAPI()
	api.errors["clan:NOPE"] = &clashapi.UpstreamError{Status: http.StatusNotFound, Body: []byte(`{"reason":"notFound"}`)}
	api.responses["members:NOPE"] = json.RawMessage(`{"items":[]}`)

	code, doc := getPage(t, newEngine(t, api), "/clans?mode=tag&q=NOPE")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Clan not found (404)", doc.Find(".error").Text())
	assert.Zero(t, doc.Find("#clan").Length())
}

func TestClanByTagReportsFailuresInOrder(t *testing.T) {
	api := newFakeAPI()
	api.responses["clan:ABC"] = json.RawMessage(`{"tag":"#ABC","name":"Alpha"}`)
	api.errors["members:ABC"] = &clashapi.UpstreamError{Status: http.StatusServiceUnavailable}
	api.errors["clan:XYZ"] = &clashapi.UpstreamError{Status: http.StatusForbidden}
	api.errors["members:XYZ"] = &clashapi.UpstreamError{Status: http.StatusServiceUnavailable}
	r := newEngine(t, api)

	code, doc := getPage(t, r, "/clans?mode=tag&q=ABC")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "Members fetch failed", doc.Find(".error").Text())

	code, doc = getPage(t, r, "/clans?mode=tag&q=XYZ")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Clan not found (403)", doc.Find(".error").Text())
}

const playerJSON = `{"tag":"#P2","name":"Chief","townHallLevel":15,"expLevel":220,"trophies":5000,"bestTrophies":5600,
	"clan":{"tag":"#2LYPQQLG9","name":"Warriors"},
	"heroes":[{"name":"Barbarian King","level":90,"maxLevel":95}],
	"troops":[{"name":"Giant","level":11}],
	"spells":[]}`

func TestPlayerPage(t *testing.T) {
	api := newFakeAPI()
	api.responses["player:PL2"] = json.RawMessage(playerJSON)

	code, doc := getPage(t, newEngine(t, api), "/players?tag=PL2")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "Chief", doc.Find("#player h2").Text())
	assert.Contains(t, doc.Find("#player .stats").Text(), "Town Hall: 15")
	assert.Equal(t, 1, doc.Find("#heroes li").Length())
	assert.Equal(t, 1, doc.Find("#troops li").Length())
	assert.Zero(t, doc.Find("#spells").Length())

	href, _ := doc.Find(".player-clan a").Attr("href")
	assert.Equal(t, "/clans?mode=tag&q=2LYPQQLG9", href)
}

func TestPlayerPageErrors(t *testing.T) {
	api := newFakeAPI()
	api.errors["player:NOPE"] = &clashapi.UpstreamError{Status: http.StatusNotFound, Body: []byte(`{"reason":"notFound"}`)}
	r := newEngine(t, api)

	code, doc := getPage(t, r, "/players?tag=NOPE")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Player not found", doc.Find(".error").Text())

	for _, target := range []string{"/players?tag=", "/players?tag=AB", "/players?tag=%20%23A%20"} {
		code, doc = getPage(t, r, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.Equal(t, "Player tag is too short", doc.Find(".error").Text(), target)
	}
}

func postForm(t *testing.T, r http.Handler, form url.Values) (int, *goquery.Document) {
	req := httptest.NewRequest(http.MethodPost, "/players/verify", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return fetch(t, r, req)
}

func TestVerifyTokenForm(t *testing.T) {
	api := newFakeAPI()
	api.responses["player:PL2"] = json.RawMessage(playerJSON)
	api.responses["verify:PL2"] = json.RawMessage(`{"tag":"#P2","token":"abc","status":"ok"}`)
	r := newEngine(t, api)

	code, doc := postForm(t, r, url.Values{"tag": {"PL2"}, "token": {"abc"}})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Token status: OK", doc.Find("#token-status").Text())
	assert.True(t, doc.Find("#token-status").HasClass("result-win"))
	assert.Equal(t, []string{"abc"}, api.tokens)

	code, doc = postForm(t, r, url.Values{"tag": {"PL2"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Token is required for verification", doc.Find(".verify .error").Text())
}

func TestVerifyTokenUpstreamFailure(t *testing.T) {
	api := newFakeAPI()
	api.responses["player:PL2"] = json.RawMessage(playerJSON)
	api.errors["verify:PL2"] = &clashapi.UpstreamError{Status: http.StatusForbidden, Body: []byte(`{"reason":"accessDenied"}`)}

	code, doc := postForm(t, newEngine(t, api), url.Values{"tag": {"PL2"}, "token": {"abc"}})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Token verification failed", doc.Find(".verify .error").Text())
	assert.Zero(t, doc.Find("#token-status").Length())
}
