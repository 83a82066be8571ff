package channel

import (
	"fmt"
	"time"
)

// Channel is a tracked payment channel as observed in a snapshot and
// persisted by the store.
type Channel struct {
	FundingTxID    string `json:"funding_txid" yaml:"funding_txid"`
	ShortChannelID string `json:"short_channel_id" yaml:"short_channel_id"`
	State          State  `json:"state" yaml:"state"`
	SpendableMsat  uint64 `json:"spendable_msat" yaml:"spendable_msat"`
	ReceivableMsat uint64 `json:"receivable_msat" yaml:"receivable_msat"`

	// ClosedAt is set by the store on first closure. Snapshots never carry it.
	ClosedAt *int64 `json:"closed_at,omitempty" yaml:"-"`
}

// IsClosed reports whether the channel has ever entered a closing state.
func (c Channel) IsClosed() bool {
	return c.ClosedAt != nil
}

// ClosedTime returns ClosedAt as a UTC time, or the zero time if unset.
func (c Channel) ClosedTime() time.Time {
	if c.ClosedAt == nil {
		return time.Time{}
	}
	return time.Unix(*c.ClosedAt, 0).UTC()
}

func (c Channel) String() string {
	return fmt.Sprintf("%s(%s %s)", c.FundingTxID, c.ShortChannelID, c.State)
}

// Unix returns a pointer to t's seconds since the epoch, for use as ClosedAt.
func Unix(t time.Time) *int64 {
	sec := t.Unix()
	return &sec
}
