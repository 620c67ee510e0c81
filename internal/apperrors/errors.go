// Package apperrors defines the error kinds shared by the ledger components
// and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinels identifying each error kind. Match with errors.Is.
var (
	ErrReferenceNotFound = errors.New("reference not found")
	ErrDuplicateVote     = errors.New("duplicate vote")
	ErrValidation        = errors.New("validation failure")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

var kindNames = map[error]string{
	ErrReferenceNotFound: "reference_not_found",
	ErrDuplicateVote:     "duplicate_vote",
	ErrValidation:        "validation_failure",
	ErrInvalidAmount:     "invalid_amount",
	ErrStoreUnavailable:  "store_unavailable",
}

// Error carries the kind plus the entity and key that caused it.
type Error struct {
	Kind    error
	Entity  string
	Key     string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.public()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// public renders the kind, entity, key and message without the cause.
func (e *Error) public() string {
	msg := e.Kind.Error()
	if e.Entity != "" {
		msg += ": " + e.Entity
		if e.Key != "" {
			msg += " " + e.Key
		}
	} else if e.Key != "" {
		msg += ": " + e.Key
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NotFound reports a missing referenced entity.
func NotFound(entity string, key any) *Error {
	return &Error{Kind: ErrReferenceNotFound, Entity: entity, Key: fmt.Sprint(key)}
}

// DuplicateVote reports a second vote by the same citizen on the same proposal.
func DuplicateVote(citizenID, proposalID uint) *Error {
	return &Error{
		Kind:    ErrDuplicateVote,
		Entity:  "proposal",
		Key:     fmt.Sprint(proposalID),
		Message: fmt.Sprintf("citizen %d has already voted", citizenID),
	}
}

// Validation reports a malformed or disallowed input field.
func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Key: field, Message: message}
}

// InvalidAmount reports a budget allocation amount outside its bounds.
func InvalidAmount(key, message string) *Error {
	return &Error{Kind: ErrInvalidAmount, Entity: "budget_category", Key: key, Message: message}
}

// Unavailable wraps a transient store failure.
func Unavailable(err error) *Error {
	return &Error{Kind: ErrStoreUnavailable, Err: err}
}

// KindName returns the wire name of err's kind, or "internal" when err
// carries no known kind.
func KindName(err error) string {
	for sentinel, name := range kindNames {
		if errors.Is(err, sentinel) {
			return name
		}
	}
	return "internal"
}

// PublicMessage describes err for clients. Driver and wrapped causes are
// left out; errors without a known kind get an empty message.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.public()
	}
	for sentinel := range kindNames {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}

// Key returns the offending key recorded on err, if any.
func Key(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Key
	}
	return ""
}
