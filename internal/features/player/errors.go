package player

import (
	"github.com/mo-amir99/coc-proxy-go/pkg/apperrors"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
)

const (
	// MsgPlayerNotFound is the error text for a failed player lookup.
	MsgPlayerNotFound = "Player not found"
	// MsgVerifyFailed is the error text for a failed token check.
	MsgVerifyFailed = "Token verification failed"

	msgTokenRequired = "Player API token is required"
)

func upstreamFailure(message string, err error) *apperrors.AppError {
	return apperrors.New(message, clashapi.StatusOf(err), apperrors.ErrUpstream, err).
		WithDetails(clashapi.DetailsOf(err))
}
