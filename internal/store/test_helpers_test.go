package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/chansync/internal/channel"
	"github.com/roach88/chansync/internal/testutil"
)

// syncStep is how far the test clock advances per sync.
const syncStep = time.Minute

// createTestStore opens a store in a temp dir with a deterministic clock
// that advances one minute per sync and sequential run ids.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{
		WithClock(testutil.NewStepClock(testutil.Epoch, syncStep)),
		WithRunIDGenerator(testutil.NewSequentialRunIDs("run")),
	}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// syncTime is the instant the n-th sync (1-based) of a test store reads.
func syncTime(n int) int64 {
	return testutil.Epoch.Add(time.Duration(n-1) * syncStep).Unix()
}

// testChannels returns the two open channels used across tests.
func testChannels() []channel.Channel {
	return []channel.Channel{
		{
			FundingTxID:    "123",
			ShortChannelID: "10x11x12",
			State:          channel.StateOpened,
			SpendableMsat:  100,
			ReceivableMsat: 1000,
		},
		{
			FundingTxID:    "456",
			ShortChannelID: "13x14x15",
			State:          channel.StateOpened,
			SpendableMsat:  200,
			ReceivableMsat: 2000,
		},
	}
}

// fixedIDs returns the same run id every time.
type fixedIDs struct {
	id string
}

func (f *fixedIDs) Generate() string {
	return f.id
}
