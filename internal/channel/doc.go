// Package channel defines the payment channel record tracked by chansync.
//
// This package contains type definitions only. All other internal packages
// import channel; channel imports nothing internal.
//
// Key constraints:
//   - FundingTxID is the identity of a channel and never changes
//   - State is stored as its name; the spelling is an on-disk contract
//   - ClosedAt is seconds since the Unix epoch and is written at most once
package channel
