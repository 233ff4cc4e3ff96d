package session

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrAnalysisInProgress is returned when regenerate is triggered while a regeneration is pending.
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrNoProfile is returned when a match check is attempted without a profile.
	ErrNoProfile = errors.New("no character profile")
	// ErrEmptyPartnerName is returned for a blank partner name.
	ErrEmptyPartnerName = errors.New("partner name is empty")
	// ErrUnknownOption is returned when the chosen option is not on the current question.
	ErrUnknownOption = errors.New("unknown option")
	// ErrStaleQuestion is returned when an answer targets a question other than the current one.
	ErrStaleQuestion = errors.New("answer does not match the current question")
	// ErrMatchInProgress is returned when a match check is already running.
	ErrMatchInProgress = errors.New("match check already in progress")
	// ErrMatchPresent is returned when a new check is started before clearing the previous result.
	ErrMatchPresent = errors.New("match result present, clear it first")
	// ErrNotFound is returned for unknown, expired or closed sessions.
	ErrNotFound = errors.New("session not found")
)
