package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrProspectNotFound   = errors.New("prospect not found")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidAction      = errors.New("invalid activity action")
	ErrInvalidMethod      = errors.New("invalid outreach method")
	ErrTemplateNotFound   = errors.New("outreach template not found")
	ErrDailyImportLimit   = errors.New("daily import limit reached")
	ErrMissingStoreToken  = errors.New("remote store token not configured")
	ErrRemoteUnavailable  = errors.New("remote store unreachable")
	ErrStaleEvaluation    = errors.New("prospect changed while evaluation was in flight")
	ErrQueueEntryNotFound = errors.New("sync queue entry not found")
	ErrDrainInProgress    = errors.New("sync drain already running")
)
