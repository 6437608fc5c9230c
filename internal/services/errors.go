// Package services holds the check lifecycle: classification of source
// events, due-time math, dispatch, reaping, outward sync and the command
// operations the worker routes to. This file centralizes service-level error
// values so callers can match them with errors.Is.
//
// Translation into HTTP status codes happens in the handler layer.
package services

import "errors"

var (
	// ErrInvalidCommand is returned when a command lacks a field it needs,
	// e.g. a TEST command without an event id or with a check number < 1.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrCheckNotFound indicates that no issued check has the given id.
	ErrCheckNotFound = errors.New("check not found")
)
