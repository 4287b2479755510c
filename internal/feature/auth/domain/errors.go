// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

// Domain errors for authentication operations.
// These errors represent business logic failures; the transport layer maps
// them to HTTP statuses.
var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicateUser indicates a unique-field conflict that could not be
	// attributed to a specific field.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrDuplicateEmail indicates that a user with the given email already exists.
	ErrDuplicateEmail = errors.New("user with this email already exists")

	// ErrDuplicateUsername indicates that a user with the given username already exists.
	ErrDuplicateUsername = errors.New("user with this username already exists")

	// ErrDuplicatePhone indicates that a user with the given phone number already exists.
	ErrDuplicatePhone = errors.New("user with this phone number already exists")

	// ErrUserNotFound indicates that no user was found with the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials indicates that identifier or password is wrong.
	// Login failures for "no such user" and "wrong password" both surface as
	// this error so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOrExpiredToken indicates that a verification or reset secret
	// did not match any user, was already consumed, or has expired.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

	// ErrUnauthorized indicates a missing, invalid, expired or revoked
	// session or refresh token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEmailDelivery indicates the mail transport failed. Token state
	// persisted before the send stays valid for a retry.
	ErrEmailDelivery = errors.New("email could not be sent")
)
