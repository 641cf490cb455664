package service

import "errors"

// Lifecycle errors
var (
	ErrEventNotFound    = errors.New("event not found")
	ErrAlreadyConfirmed = errors.New("event already confirmed")
	ErrNotConfirmed     = errors.New("event not confirmed")
	ErrConflict         = errors.New("event changed concurrently, refresh and retry")
	ErrNotCreator       = errors.New("only the event creator may do this")
	ErrNotPermitted     = errors.New("calendar management permission required")
)

// Scheduling errors
var (
	ErrRunInProgress = errors.New("scheduling run already in progress for workspace")
)
