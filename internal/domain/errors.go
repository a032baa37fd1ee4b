package domain

import "errors"

var (
	// ErrUnknownEvent is returned when no handler is registered for a (role, event) pair
	ErrUnknownEvent = errors.New("unknown event")

	// ErrReferenceNotFound is returned when an event references an entity that has
	// not been materialized yet. It signals out-of-order delivery and is expected
	// to self-heal when the gateway redelivers the event.
	ErrReferenceNotFound = errors.New("referenced entity not found")

	// ErrBankMismatch is returned when a campaign authorization event is emitted by
	// a bank that does not match the campaign's stored banking contract
	ErrBankMismatch = errors.New("campaign banking contract mismatch")

	// ErrChainReadFailed is returned when a required point-in-time contract read fails
	ErrChainReadFailed = errors.New("chain read failed")
)
