package api

import (
	"errors"

	"solo-persona/backend/internal/quiz"
	"solo-persona/backend/internal/session"
	apperrors "solo-persona/backend/pkg/errors"
)

// toAppError maps domain errors onto HTTP errors.
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, session.ErrNotFound):
		return apperrors.NewNotFoundError("SESSION_NOT_FOUND", msg)
	case errors.Is(err, session.ErrInvalidTransition):
		return apperrors.NewConflictError("INVALID_TRANSITION", msg)
	case errors.Is(err, session.ErrAnalysisInProgress):
		return apperrors.NewConflictError("ANALYSIS_IN_PROGRESS", msg)
	case errors.Is(err, session.ErrMatchInProgress):
		return apperrors.NewConflictError("MATCH_IN_PROGRESS", msg)
	case errors.Is(err, session.ErrMatchPresent):
		return apperrors.NewConflictError("MATCH_PRESENT", msg)
	case errors.Is(err, session.ErrNoProfile):
		return apperrors.NewConflictError("NO_PROFILE", msg)
	case errors.Is(err, session.ErrStaleQuestion):
		return apperrors.NewConflictError("STALE_QUESTION", msg)
	case errors.Is(err, session.ErrEmptyPartnerName):
		return apperrors.NewBadRequestError("EMPTY_PARTNER_NAME", msg)
	case errors.Is(err, session.ErrUnknownOption):
		return apperrors.NewBadRequestError("UNKNOWN_OPTION", msg)
	case errors.Is(err, quiz.ErrPoolTooSmall):
		return apperrors.NewInternalServerError("POOL_TOO_SMALL", msg)
	}
	return apperrors.FromError(err)
}
