package services

import (
	"errors"
	"fmt"
)

// Business-rule rejections. Each one is a distinct, caller-actionable
// outcome and is never collapsed into a generic failure.
var (
	ErrRateLimited         = errors.New("too many OTP requests, please try again later")
	ErrCodeNotFound        = errors.New("no valid OTP code found")
	ErrCodeExpired         = errors.New("OTP code has expired")
	ErrCodeMismatch        = errors.New("OTP code does not match")
	ErrUserExists          = errors.New("user with this phone number already exists")
	ErrUserNotFound        = errors.New("user with this phone number does not exist")
	ErrRegistrationClosed  = errors.New("registration window is closed")
	ErrAlreadyParticipated = errors.New("user already has a ticket for the current week")
	ErrRecentWinner        = errors.New("user has won within the last 180 days")
	ErrNoWinningTicket     = errors.New("user has no winning ticket")
	ErrDeadlinePassed      = errors.New("completion deadline has passed")
)

// ValidationError reports malformed input with field-level detail
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AsValidationError unwraps err into a *ValidationError if it is one
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
