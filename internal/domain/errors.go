package domain

import "errors"

var (
	ErrAlreadyBooked       = errors.New("booking already confirmed for this occurrence")
	ErrNotAvailable        = errors.New("occurrence has no remaining capacity")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrOccurrenceNotFound  = errors.New("occurrence not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUnauthorized        = errors.New("requester does not own this resource")
	ErrConfirmationTimeout = errors.New("booking confirmation timed out")
	ErrInvalidID           = errors.New("invalid id")

	ErrOccurrenceNameRequired = errors.New("occurrence name required")
	ErrInvalidCapacity        = errors.New("capacity must not be negative")
	ErrEmailRequired          = errors.New("email required")
	ErrPasswordRequired       = errors.New("password required")
)
