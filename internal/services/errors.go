// Package services defines the business logic of the messaging relay: the
// conversation router, the credit ledger, the prompt assembler, and operator
// authentication. This file centralizes common service-level error values so
// that they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the handler
// layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when an inbound or operator message body is
	// empty after trimming.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrCustomerNotFound indicates the referenced customer does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrInvalidMode is returned when a mode toggle names something other
	// than "bot" or "humano".
	ErrInvalidMode = errors.New("mode must be bot or humano")

	// ErrInsufficientCredit is returned on the operator send path when the
	// ledger refuses the consumption. On the webhook path the same refusal
	// is silent, never an error.
	ErrInsufficientCredit = errors.New("insufficient credit")

	// ErrDeliveryFailed is returned when a synchronous operator send could
	// not be delivered to the outbound channel.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrDuplicateMessage is returned when the transport redelivers an
	// inbound message that is already recorded.
	ErrDuplicateMessage = errors.New("duplicate message")

	// ErrInvalidCredentials is returned on a failed login. Unknown username
	// and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned when creating an operator account with an
	// existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidRole is returned when an operator account names a role other
	// than "admin" or "agent".
	ErrInvalidRole = errors.New("role must be admin or agent")
)
