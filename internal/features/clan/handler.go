package clan

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/pkg/apperrors"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/response"
)

// Upstream is the part of the Clash of Clans client the clan routes use.
type Upstream interface {
	SearchClans(ctx context.Context, query url.Values) (json.RawMessage, error)
	Clan(ctx context.Context, rawTag string) (json.RawMessage, error)
	ClanMembers(ctx context.Context, rawTag string) (json.RawMessage, error)
	ClanWarLog(ctx context.Context, rawTag string) (json.RawMessage, error)
	ClanPath(rawTag string, sub ...string) string
}

// Handler proxies clan requests.
type Handler struct {
	api    Upstream
	logger *slog.Logger
}

// NewHandler constructs a clan handler instance.
func NewHandler(api Upstream, logger *slog.Logger) *Handler {
	return &Handler{api: api, logger: logger}
}

// Search forwards every query parameter to the clan search endpoint.
func (h *Handler) Search(c *gin.Context) {
	query := c.Request.URL.Query()

	if name := query.Get("name"); name != "" && utf8.RuneCountInString(name) < MinSearchNameLength {
		_ = c.Error(apperrors.Validation(msgNameTooShort))
		return
	}

	payload, err := h.api.SearchClans(c.Request.Context(), query)
	if err != nil {
		// The search endpoint reports the upstream body itself as the error.
		status := clashapi.StatusOf(err)
		h.logger.ErrorContext(c.Request.Context(), "clan search failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)

		var message interface{} = msgSearchFailed
		if details := clashapi.DetailsOf(err); details != nil {
			message = details
		}
		response.Error(c, status, message)
		return
	}

	response.Raw(c, http.StatusOK, payload)
}

// GetByTag returns one clan.
func (h *Handler) GetByTag(c *gin.Context) {
	rawTag := c.Param("clanTag")

	h.logger.DebugContext(c.Request.Context(), "clan lookup",
		slog.String("input_tag", rawTag),
		slog.String("upstream_path", h.api.ClanPath(rawTag)),
	)

	payload, err := h.api.Clan(c.Request.Context(), rawTag)
	if err != nil {
		_ = c.Error(clanNotFound(err))
		return
	}

	response.Raw(c, http.StatusOK, payload)
}

// Members returns the clan member list.
func (h *Handler) Members(c *gin.Context) {
	payload, err := h.api.ClanMembers(c.Request.Context(), c.Param("clanTag"))
	if err != nil {
		_ = c.Error(fetchFailed(MsgMembersFailed, err))
		return
	}

	response.Raw(c, http.StatusOK, payload)
}

// WarLog returns the clan war log.
func (h *Handler) WarLog(c *gin.Context) {
	payload, err := h.api.ClanWarLog(c.Request.Context(), c.Param("clanTag"))
	if err != nil {
		_ = c.Error(fetchFailed(msgWarLogFailed, err))
		return
	}

	response.Raw(c, http.StatusOK, payload)
}
