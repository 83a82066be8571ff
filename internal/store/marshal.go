package store

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/roach88/chansync/internal/channel"
)

// marshalFundingTxIDs encodes the snapshot keys as a JSON array for a
// json_each(?) parameter. Duplicates are dropped; an empty snapshot
// yields "[]".
func marshalFundingTxIDs(channels []channel.Channel) (string, error) {
	ids := lo.Uniq(lo.Map(channels, func(c channel.Channel, _ int) string {
		return c.FundingTxID
	}))
	if ids == nil {
		// json_each('null') yields one NULL row, which would make NOT IN match nothing
		ids = []string{}
	}

	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("marshal funding txids: %w", err)
	}
	return string(data), nil
}

// toSQLAmount converts a msat balance to the signed column type.
func toSQLAmount(msat uint64) (int64, error) {
	if msat > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", ErrAmountOverflow, msat)
	}
	return int64(msat), nil
}

// fromSQLAmount converts a stored balance back to msat.
func fromSQLAmount(v int64) (uint64, error) {
	if v < 0 {
		return 0, fmt.Errorf("negative stored amount %d", v)
	}
	return uint64(v), nil
}
