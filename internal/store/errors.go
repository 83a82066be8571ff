package store

import "errors"

var (
	// ErrEmptyFundingTxID is returned when a snapshot channel has no funding txid.
	ErrEmptyFundingTxID = errors.New("empty funding txid")

	// ErrInvalidState is returned when a snapshot channel has no recognised state.
	ErrInvalidState = errors.New("invalid channel state")

	// ErrAmountOverflow is returned when a balance does not fit in a SQLite INTEGER.
	ErrAmountOverflow = errors.New("amount exceeds int64 range")

	// ErrClock is returned when the current time cannot be read.
	ErrClock = errors.New("clock unavailable")

	// ErrChannelNotFound is returned by GetChannel for an unknown funding txid.
	ErrChannelNotFound = errors.New("channel not found")
)
