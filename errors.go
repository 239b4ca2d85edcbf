package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies resolution and initialization failures.
type ErrorKind int

const (
	// ErrKindUnknownSetting marks an input key with no specifier.
	ErrKindUnknownSetting ErrorKind = iota
	// ErrKindNamespaceShapeMismatch marks an object given to a leaf, or a
	// scalar given to a namespace without shorthand.
	ErrKindNamespaceShapeMismatch
	// ErrKindShorthandFailure marks a failed shorthand hook.
	ErrKindShorthandFailure
	// ErrKindFixupFailure marks a failed fixup hook.
	ErrKindFixupFailure
	// ErrKindFixupCallbackFailure marks a failed fixup event handler.
	ErrKindFixupCallbackFailure
	// ErrKindValidationFailure marks a value the validator rejected.
	ErrKindValidationFailure
	// ErrKindValidationUnexpectedFailure marks a validator that failed to run.
	ErrKindValidationUnexpectedFailure
	// ErrKindTypeMapperFailure marks a map type hook that failed or is not invocable.
	ErrKindTypeMapperFailure
	// ErrKindInitializerFailure marks a failed leaf or namespace initializer.
	ErrKindInitializerFailure
	// ErrKindBadSpecConfiguration marks a malformed spec.
	ErrKindBadSpecConfiguration
)

// Sentinels matched by errors.Is against an *Error of the same kind.
var (
	ErrUnknownSetting              = errors.New("unknown setting")
	ErrNamespaceShapeMismatch      = errors.New("namespace shape mismatch")
	ErrShorthandFailure            = errors.New("shorthand expansion failed")
	ErrFixupFailure                = errors.New("fixup failed")
	ErrFixupCallbackFailure        = errors.New("fixup handler failed")
	ErrValidationFailure           = errors.New("validation failed")
	ErrValidationUnexpectedFailure = errors.New("validation unexpectedly failed")
	ErrTypeMapperFailure           = errors.New("type mapper failed")
	ErrInitializerFailure          = errors.New("initializer failed")
	ErrBadSpecConfiguration        = errors.New("bad spec configuration")
)

// Errors outside the resolution taxonomy.
var (
	ErrFileNotFound = errors.New("settings file not found")
	ErrStaleView    = errors.New("view is stale: manager was reset")
)

var kindSentinels = [...]error{
	ErrKindUnknownSetting:              ErrUnknownSetting,
	ErrKindNamespaceShapeMismatch:      ErrNamespaceShapeMismatch,
	ErrKindShorthandFailure:            ErrShorthandFailure,
	ErrKindFixupFailure:                ErrFixupFailure,
	ErrKindFixupCallbackFailure:        ErrFixupCallbackFailure,
	ErrKindValidationFailure:           ErrValidationFailure,
	ErrKindValidationUnexpectedFailure: ErrValidationUnexpectedFailure,
	ErrKindTypeMapperFailure:           ErrTypeMapperFailure,
	ErrKindInitializerFailure:          ErrInitializerFailure,
	ErrKindBadSpecConfiguration:        ErrBadSpecConfiguration,
}

func (k ErrorKind) String() string {
	if int(k) < 0 || int(k) >= len(kindSentinels) {
		return "unknown error kind"
	}
	return kindSentinels[k].Error()
}

// Error is a failure raised while initializing or resolving a setting.
// Field is the setting name only, not its namespace path.
type Error struct {
	Kind     ErrorKind
	Field    string
	Value    any
	Messages []string
	// Detail refines the message for kinds with more than one trigger.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case ErrKindUnknownSetting:
		return fmt.Sprintf("unknown setting %q", e.Field)
	case ErrKindNamespaceShapeMismatch:
		return fmt.Sprintf("setting %q %s (got %T %v)", e.Field, e.Detail, e.Value, e.Value)
	case ErrKindValidationFailure:
		return fmt.Sprintf("validation failed for %q with value %v: %s", e.Field, e.Value, strings.Join(e.Messages, "; "))
	case ErrKindBadSpecConfiguration:
		msg := fmt.Sprintf("bad spec configuration for %q: %s (got %T %v)", e.Field, e.Detail, e.Value, e.Value)
		if e.Err != nil {
			msg += ": " + e.Err.Error()
		}
		return msg
	case ErrKindFixupCallbackFailure, ErrKindTypeMapperFailure, ErrKindInitializerFailure:
		return fmt.Sprintf("%s for %q: %v", e.Kind, e.Field, e.Err)
	default:
		return fmt.Sprintf("%s for %q with value %v: %v", e.Kind, e.Field, e.Value, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	if e == nil || int(e.Kind) < 0 || int(e.Kind) >= len(kindSentinels) {
		return false
	}
	return kindSentinels[e.Kind] == target
}

func newError(kind ErrorKind, field string, value any, cause error) *Error {
	return &Error{Kind: kind, Field: field, Value: value, Err: cause}
}

func badSpec(field, detail string, value any) *Error {
	return &Error{Kind: ErrKindBadSpecConfiguration, Field: field, Value: value, Detail: detail}
}
