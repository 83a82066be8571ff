package snapshot

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/roach88/chansync/internal/channel"
)

// ErrMissingFundingTxID is returned when a snapshot entry has no funding txid.
var ErrMissingFundingTxID = errors.New("missing funding_txid")

// ErrMissingState is returned when a snapshot entry has no state.
var ErrMissingState = errors.New("missing state")

// Validate rejects snapshots the store would refuse.
func Validate(channels []channel.Channel) error {
	for i, c := range channels {
		if c.FundingTxID == "" {
			return fmt.Errorf("channels[%d]: %w", i, ErrMissingFundingTxID)
		}
		if c.State == 0 {
			return fmt.Errorf("channels[%d]: %w", i, ErrMissingState)
		}
		if !c.State.IsValid() {
			return fmt.Errorf("channels[%d]: invalid state %s", i, c.State)
		}
	}
	return nil
}

// Duplicates returns funding txids that appear more than once, in order of
// first appearance. The store applies duplicates last-write-wins.
func Duplicates(channels []channel.Channel) []string {
	ids := lo.Map(channels, func(c channel.Channel, _ int) string {
		return c.FundingTxID
	})
	return lo.FindDuplicates(ids)
}
