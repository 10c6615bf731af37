package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/mo-amir99/coc-proxy-go/internal/features/clan"
	"github.com/mo-amir99/coc-proxy-go/internal/features/player"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/pagination"
	"github.com/mo-amir99/coc-proxy-go/pkg/response"
)

const (
	minQueryLength = 3

	msgQueryTooShort = "Minimum 3 characters required"
	msgFetchFailed   = "Failed to fetch data"
	msgTagTooShort   = "Player tag is too short"
	msgEnterToken    = "Token is required for verification"
)

// pageError carries the message a page shows for a failed upstream call.
type pageError struct {
	message string
	err     error
}

func (e *pageError) Error() string { return e.message + ": " + e.err.Error() }

func (e *pageError) Unwrap() error { return e.err }

// Upstream is the client surface the dashboard renders from.
type Upstream interface {
	SearchClans(ctx context.Context, query url.Values) (json.RawMessage, error)
	Clan(ctx context.Context, rawTag string) (json.RawMessage, error)
	ClanMembers(ctx context.Context, rawTag string) (json.RawMessage, error)
	ClanWarLog(ctx context.Context, rawTag string) (json.RawMessage, error)
	Player(ctx context.Context, rawTag string) (json.RawMessage, error)
	VerifyPlayerToken(ctx context.Context, rawTag, token string) (json.RawMessage, error)
}

// Handler renders the HTML dashboard.
type Handler struct {
	api    Upstream
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler constructs a dashboard handler instance.
func NewHandler(api Upstream, logger *slog.Logger) *Handler {
	return &Handler{api: api, logger: logger, now: time.Now}
}

// Home renders the landing page.
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.tmpl", nil)
}

// Clans renders search by name or lookup by tag depending on ?mode.
func (h *Handler) Clans(c *gin.Context) {
	page := ClanPage{
		Mode:   "name",
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  pagination.Limit(c, "limit", pagination.DefaultSearchLimit, pagination.SearchLimits...),
		Limits: pagination.SearchLimits,
	}
	if c.Query("mode") == "tag" {
		page.Mode = "tag"
	}

	if _, submitted := c.GetQuery("q"); !submitted {
		h.render(c, http.StatusOK, "clans.tmpl", page)
		return
	}

	if utf8.RuneCountInString(page.Query) < minQueryLength {
		page.Error = msgQueryTooShort
		h.render(c, http.StatusBadRequest, "clans.tmpl", page)
		return
	}

	var err error
	if page.Mode == "tag" {
		err = h.loadClan(c.Request.Context(), &page)
	} else {
		err = h.searchClans(c.Request.Context(), &page)
	}

	if err != nil {
		h.logger.WarnContext(c.Request.Context(), "dashboard clan fetch failed",
			slog.String("mode", page.Mode),
			slog.String("query", page.Query),
			slog.String("error", err.Error()),
		)
		page.Error = messageFor(err, msgFetchFailed)
		h.render(c, clashapi.StatusOf(err), "clans.tmpl", page)
		return
	}

	h.render(c, http.StatusOK, "clans.tmpl", page)
}

func (h *Handler) searchClans(ctx context.Context, page *ClanPage) error {
	query := url.Values{}
	query.Set("name", page.Query)
	query.Set("limit", strconv.Itoa(page.Limit))

	raw, err := h.api.SearchClans(ctx, query)
	if err != nil {
		return err
	}

	list, err := clashapi.Decode[clashapi.ListResponse[clashapi.ClanSummary]](raw)
	if err != nil {
		return err
	}

	page.Results = pagination.Head(list.Items, page.Limit)
	return nil
}

// loadClan fetches clan, members and war log together. Failures are reported
// in that order with the API's own messages. A private war log does not fail
// the page.
func (h *Handler) loadClan(ctx context.Context, page *ClanPage) error {
	var (
		clanRaw, membersRaw, warsRaw json.RawMessage
		clanErr, membersErr, warErr  error
	)

	var g errgroup.Group
	g.Go(func() error {
		clanRaw, clanErr = h.api.Clan(ctx, page.Query)
		return nil
	})
	g.Go(func() error {
		membersRaw, membersErr = h.api.ClanMembers(ctx, page.Query)
		return nil
	})
	g.Go(func() error {
		warsRaw, warErr = h.api.ClanWarLog(ctx, page.Query)
		return nil
	})
	_ = g.Wait()

	if clanErr != nil {
		return &pageError{message: clan.NotFoundMessage(clanErr), err: clanErr}
	}
	if membersErr != nil {
		return &pageError{message: clan.MsgMembersFailed, err: membersErr}
	}

	info, err := clashapi.Decode[clashapi.Clan](clanRaw)
	if err != nil {
		return err
	}
	page.Clan = &info

	members, err := clashapi.Decode[clashapi.ListResponse[clashapi.Member]](membersRaw)
	if err != nil {
		return err
	}
	page.Members = pagination.Head(members.Items, pagination.MembersShown)

	if warErr != nil {
		page.WarLogPrivate = true
		return nil
	}

	wars, err := clashapi.Decode[clashapi.ListResponse[clashapi.War]](warsRaw)
	if err != nil {
		return err
	}

	now := h.now()
	for _, war := range pagination.Head(wars.Items, pagination.WarsShown) {
		page.Wars = append(page.Wars, newWarView(war, info.Name, now))
	}

	return nil
}

// Players renders the player lookup.
func (h *Handler) Players(c *gin.Context) {
	page := PlayerPage{Tag: strings.TrimSpace(c.Query("tag"))}

	if _, submitted := c.GetQuery("tag"); !submitted {
		h.render(c, http.StatusOK, "players.tmpl", page)
		return
	}

	if utf8.RuneCountInString(page.Tag) < minQueryLength {
		page.Error = msgTagTooShort
		h.render(c, http.StatusBadRequest, "players.tmpl", page)
		return
	}

	if status, err := h.loadPlayer(c.Request.Context(), &page); err != nil {
		h.render(c, status, "players.tmpl", page)
		return
	}

	h.render(c, http.StatusOK, "players.tmpl", page)
}

// VerifyToken handles the verify-token form and re-renders the player card.
func (h *Handler) VerifyToken(c *gin.Context) {
	page := PlayerPage{Tag: strings.TrimSpace(c.PostForm("tag"))}
	token := strings.TrimSpace(c.PostForm("token"))

	if utf8.RuneCountInString(page.Tag) < minQueryLength {
		page.Error = msgTagTooShort
		h.render(c, http.StatusBadRequest, "players.tmpl", page)
		return
	}

	if status, err := h.loadPlayer(c.Request.Context(), &page); err != nil {
		h.render(c, status, "players.tmpl", page)
		return
	}

	if token == "" {
		page.TokenError = msgEnterToken
		h.render(c, http.StatusBadRequest, "players.tmpl", page)
		return
	}

	raw, err := h.api.VerifyPlayerToken(c.Request.Context(), page.Tag, token)
	if err == nil {
		var result clashapi.TokenVerification
		result, err = clashapi.Decode[clashapi.TokenVerification](raw)
		page.TokenStatus = result.Status
	}
	if err != nil {
		h.logger.WarnContext(c.Request.Context(), "dashboard token verification failed", slog.String("error", err.Error()))
		page.TokenError = player.MsgVerifyFailed
	}

	h.render(c, http.StatusOK, "players.tmpl", page)
}

func (h *Handler) loadPlayer(ctx context.Context, page *PlayerPage) (int, error) {
	raw, err := h.api.Player(ctx, page.Tag)
	if err == nil {
		var info clashapi.Player
		info, err = clashapi.Decode[clashapi.Player](raw)
		page.Player = &info
	}
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard player fetch failed",
			slog.String("tag", page.Tag),
			slog.String("error", err.Error()),
		)
		page.Player = nil
		page.Error = player.MsgPlayerNotFound
		return clashapi.StatusOf(err), err
	}
	return http.StatusOK, nil
}

func (h *Handler) render(c *gin.Context, status int, name string, data interface{}) {
	response.NoStore(c)
	c.HTML(status, name, data)
}

// messageFor prefers the message attached by a pageError and otherwise
// appends the upstream reason, e.g. "Failed to fetch data (notFound)".
func messageFor(err error, message string) string {
	var pe *pageError
	if errors.As(err, &pe) {
		return pe.message
	}
	if upstreamErr, ok := clashapi.AsUpstream(err); ok {
		if reason := upstreamErr.Reason(); reason != "" {
			return fmt.Sprintf("%s (%s)", message, reason)
		}
	}
	return message
}
