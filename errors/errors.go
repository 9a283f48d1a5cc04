// Package errors provides error handling for osu2sm.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.IsConfigError(err) {
//	    // abort the run before any chart is processed
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
	Join      = crdb.Join
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors forming the converter's failure taxonomy.
// Use these with errors.Is() for type-safe checks, and wrap them with
// errors.Wrap() to add context while preserving the class.
var (
	// ErrConfig indicates a malformed node graph or stage configuration.
	// Config errors are fatal and abort the run before any chart is
	// processed: a cycle, a dangling Auto route, a reserved bucket name,
	// more selected charts than difficulty labels, an unknown node kind.
	ErrConfig = New("invalid configuration")

	// ErrTransform indicates a recoverable per-chart transform failure,
	// such as selecting more columns than there are candidates or a chart
	// below the minimum keycount for a stage. Transform errors are handled
	// locally with a documented fallback and never abort the whole run.
	ErrTransform = New("transform failed")

	// ErrCollaborator indicates an external parse or write failure for one
	// beatmapset. The failure is isolated: the run continues with the
	// remaining beatmapsets.
	ErrCollaborator = New("collaborator failed")

	// ErrModeMismatch indicates a beatmap whose native gamemode cannot feed
	// the requested target. Suppressible: under a permissive configuration
	// the chart is skipped instead of failing the beatmapset.
	ErrModeMismatch = New("gamemode mismatch")
)

// IsConfigError checks if an error is or wraps ErrConfig.
func IsConfigError(err error) bool {
	return err != nil && Is(err, ErrConfig)
}

// IsTransformError checks if an error is or wraps ErrTransform.
func IsTransformError(err error) bool {
	return err != nil && Is(err, ErrTransform)
}

// IsCollaboratorError checks if an error is or wraps ErrCollaborator.
func IsCollaboratorError(err error) bool {
	return err != nil && Is(err, ErrCollaborator)
}

// IsModeMismatch checks if an error is or wraps ErrModeMismatch.
func IsModeMismatch(err error) bool {
	return err != nil && Is(err, ErrModeMismatch)
}

// NewConfigError creates a config error with a formatted message.
func NewConfigError(format string, args ...interface{}) error {
	return Wrap(ErrConfig, Newf(format, args...).Error())
}

// NewTransformError creates a transform error with a formatted message.
func NewTransformError(format string, args ...interface{}) error {
	return Wrap(ErrTransform, Newf(format, args...).Error())
}

// WrapCollaborator wraps an external failure, tagging it with the source
// identity so the beatmapset can be located in logs.
func WrapCollaborator(err error, source string) error {
	return Wrap(Wrap(ErrCollaborator, err.Error()), source)
}
