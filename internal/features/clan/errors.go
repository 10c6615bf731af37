package clan

import (
	"fmt"

	"github.com/mo-amir99/coc-proxy-go/pkg/apperrors"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
)

const (
	msgNameTooShort = "Name must be at least 3 characters long"
	msgSearchFailed = "Search failed"
	msgWarLogFailed = "War log fetch failed"

	// MsgMembersFailed is the error text for a failed member list fetch.
	MsgMembersFailed = "Members fetch failed"
)

// MinSearchNameLength is the shortest clan name the search endpoint accepts.
const MinSearchNameLength = 3

// NotFoundMessage is the error text for a failed clan lookup, e.g. "Clan not found (404)".
func NotFoundMessage(err error) string {
	return fmt.Sprintf("Clan not found (%d)", clashapi.StatusOf(err))
}

func clanNotFound(err error) *apperrors.AppError {
	return apperrors.New(NotFoundMessage(err), clashapi.StatusOf(err), apperrors.ErrUpstream, err).
		WithDetails(clashapi.DetailsOf(err))
}

func fetchFailed(message string, err error) *apperrors.AppError {
	return apperrors.New(message, clashapi.StatusOf(err), apperrors.ErrUpstream, err)
}
