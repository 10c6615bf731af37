package player

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/pkg/apperrors"
	"github.com/mo-amir99/coc-proxy-go/pkg/response"
)

// Upstream is the part of the Clash of Clans client the player routes use.
type Upstream interface {
	Player(ctx context.Context, rawTag string) (json.RawMessage, error)
	VerifyPlayerToken(ctx context.Context, rawTag, token string) (json.RawMessage, error)
}

// Handler proxies player requests.
type Handler struct {
	api    Upstream
	logger *slog.Logger
}

// NewHandler constructs a player handler instance.
func NewHandler(api Upstream, logger *slog.Logger) *Handler {
	return &Handler{api: api, logger: logger}
}

// GetByTag returns one player profile.
func (h *Handler) GetByTag(c *gin.Context) {
	payload, err := h.api.Player(c.Request.Context(), c.Param("playerTag"))
	if err != nil {
		_ = c.Error(upstreamFailure(MsgPlayerNotFound, err))
		return
	}

	response.Raw(c, http.StatusOK, payload)
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

// VerifyToken checks the in-game API token a player copied from settings.
func (h *Handler) VerifyToken(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		_ = c.Error(apperrors.Validation(msgTokenRequired))
		return
	}

	payload, err := h.api.VerifyPlayerToken(c.Request.Context(), c.Param("playerTag"), req.Token)
	if err != nil {
		_ = c.Error(upstreamFailure(MsgVerifyFailed, err))
		return
	}

	response.Raw(c, http.StatusOK, payload)
}
