package request

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mo-amir99/coc-proxy-go/pkg/apperrors"
	"github.com/mo-amir99/coc-proxy-go/pkg/clashapi"
	"github.com/mo-amir99/coc-proxy-go/pkg/response"
)

// Handler returns a middleware that renders errors recorded with c.Error
// into the proxy's JSON error body.
func Handler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := errors.Join(errorsFromContext(c.Errors)...)
		if err == nil {
			return
		}

		status, message, code := classify(err)
		appErr := apperrors.Wrap(err, message, status, code)

		logError(logger, c, appErr, err)
		if details := appErr.Details(); details != nil {
			response.ErrorWithDetails(c, appErr.StatusCode(), appErr.Message(), details)
			return
		}
		response.Error(c, appErr.StatusCode(), appErr.Message())
	}
}

func errorsFromContext(errs []*gin.Error) []error {
	list := make([]error, 0, len(errs))
	for _, item := range errs {
		if item != nil && item.Err != nil {
			list = append(list, item.Err)
		}
	}
	return list
}

// classify picks the response for errors that are not already AppErrors.
func classify(err error) (int, string, apperrors.ErrorCode) {
	if upstreamErr, ok := clashapi.AsUpstream(err); ok {
		return upstreamErr.Status, http.StatusText(upstreamErr.Status), apperrors.ErrUpstream
	}

	return http.StatusInternalServerError, "Internal server error", apperrors.ErrInternal
}

// Client errors are expected traffic; only 5xx go to the error log.
func logError(logger *slog.Logger, c *gin.Context, appErr *apperrors.AppError, err error) {
	if logger == nil {
		return
	}
	attrs := []any{
		slog.Int("status", appErr.StatusCode()),
		slog.String("code", string(appErr.Code())),
		slog.String("path", c.Request.URL.Path),
		slog.String("error", err.Error()),
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		logger.ErrorContext(c.Request.Context(), appErr.Message(), attrs...)
		return
	}
	logger.WarnContext(c.Request.Context(), appErr.Message(), attrs...)
}
