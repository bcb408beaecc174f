package resolver

import (
	"context"
	"errors"
	"net/http"

	"github.com/denisAlshanov/mediaresolver/internal/utils"
)

// Classify maps any failure raised by the pipeline onto the error taxonomy.
// It is the only place that decides kinds for errors that were not already
// classified by the stage that raised them.
func Classify(err error) *utils.ResolutionError {
	if err == nil {
		return nil
	}

	if re, ok := utils.AsResolutionError(err); ok {
		return re
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return utils.NewResolutionError(utils.KindToolExecution, "resolution timed out", err)
	case errors.Is(err, context.Canceled):
		return utils.NewResolutionError(utils.KindToolExecution, "resolution was cancelled", err)
	default:
		return utils.NewResolutionError(utils.KindToolExecution, "unexpected resolution failure", err)
	}
}

// StatusCode is the HTTP status suggested for a kind.
func StatusCode(kind utils.ErrorKind) int {
	switch kind {
	case utils.KindInvalidURL:
		return http.StatusBadRequest
	case utils.KindMissingCredential, utils.KindInvalidCredential:
		return http.StatusUnauthorized
	case utils.KindOverloaded:
		return http.StatusTooManyRequests
	case utils.KindNoSuitableFormat:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether retrying the same request is expected to help.
func Retryable(kind utils.ErrorKind) bool {
	return kind == utils.KindOverloaded
}

// ToAppError classifies err and wraps it in the API error envelope.
func ToAppError(err error) *utils.AppError {
	re := Classify(err)
	return utils.NewResolutionAppError(re, StatusCode(re.Kind), Retryable(re.Kind))
}
