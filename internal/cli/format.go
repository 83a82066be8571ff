package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/chansync/internal/channel"
	"github.com/roach88/chansync/internal/store"
)

var printer = message.NewPrinter(language.English)

// formatMsat renders a balance as grouped msat plus its satoshi value,
// e.g. "1,000 msat (1.000 sat)".
func formatMsat(msat uint64) string {
	// Stored balances never exceed math.MaxInt64
	sat := decimal.New(int64(msat), -3)
	return printer.Sprintf("%d msat (%s sat)", msat, sat.StringFixed(3))
}

// formatClosedAt renders closed_at as RFC 3339 UTC, or "-" when unset.
func formatClosedAt(c channel.Channel) string {
	if !c.IsClosed() {
		return "-"
	}
	return c.ClosedTime().Format(time.RFC3339)
}

// writeChannelsText prints one line per channel followed by a summary.
func writeChannelsText(w io.Writer, channels []channel.Channel) {
	if len(channels) == 0 {
		fmt.Fprintln(w, "No channels stored.")
		return
	}

	for _, c := range channels {
		fmt.Fprintf(w, "%s  %s  %s  spendable=%s  receivable=%s  closed_at=%s\n",
			c.FundingTxID,
			c.ShortChannelID,
			c.State,
			formatMsat(c.SpendableMsat),
			formatMsat(c.ReceivableMsat),
			formatClosedAt(c),
		)
	}

	closed := lo.CountBy(channels, func(c channel.Channel) bool {
		return c.IsClosed()
	})
	fmt.Fprintf(w, "%d channel(s), %d closed\n", len(channels), closed)
}

// writeChannelText prints a single channel as labelled fields.
func writeChannelText(w io.Writer, c channel.Channel) {
	fmt.Fprintf(w, "Funding txid:     %s\n", c.FundingTxID)
	fmt.Fprintf(w, "Short channel id: %s\n", c.ShortChannelID)
	fmt.Fprintf(w, "State:            %s\n", c.State)
	fmt.Fprintf(w, "Spendable:        %s\n", formatMsat(c.SpendableMsat))
	fmt.Fprintf(w, "Receivable:       %s\n", formatMsat(c.ReceivableMsat))
	fmt.Fprintf(w, "Closed at:        %s\n", formatClosedAt(c))
}

// writeReportText prints a sync report.
func writeReportText(w io.Writer, r store.SyncReport) {
	fmt.Fprintf(w, "Synced %d channel(s) at %s (run %s)\n", r.SnapshotSize, r.SyncedAt.Format(time.RFC3339), r.RunID)
	fmt.Fprintf(w, "  Inserted:     %d\n", r.Inserted)
	fmt.Fprintf(w, "  Refreshed:    %d\n", r.Refreshed)
	fmt.Fprintf(w, "  First closed: %d\n", r.FirstClosed)
	fmt.Fprintf(w, "  Swept:        %d\n", r.Swept)
}

// writeRunsText prints sync runs, most recent first.
func writeRunsText(w io.Writer, runs []store.SyncRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No sync runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  snapshot=%d inserted=%d refreshed=%d first_closed=%d swept=%d\n",
			r.ID,
			r.SyncedAt.Format(time.RFC3339),
			r.SnapshotSize,
			r.Inserted,
			r.Refreshed,
			r.FirstClosed,
			r.Swept,
		)
	}
}
