package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/chansync/internal/channel"
)

// SyncReport summarizes one SyncChannels pass.
type SyncReport struct {
	RunID        string    `json:"run_id"`
	SyncedAt     time.Time `json:"synced_at"`
	SnapshotSize int       `json:"snapshot_size"`

	// Inserted counts channels seen for the first time.
	Inserted int `json:"inserted"`

	// Refreshed counts existing channels updated without a first closure.
	Refreshed int `json:"refreshed"`

	// FirstClosed counts channels whose closed_at was stamped by this pass,
	// whether by a closing state in the snapshot or by the sweep.
	FirstClosed int `json:"first_closed"`

	// Swept counts stored channels absent from the snapshot. Already-closed
	// rows are included; their closed_at is left as is.
	Swept int `json:"swept"`
}

// upsertAction is the write chosen for one snapshot channel.
type upsertAction int

const (
	// actionInsert creates the row. closed_at is stamped if the state is closing.
	actionInsert upsertAction = iota

	// actionFirstClose updates fields and stamps closed_at.
	actionFirstClose

	// actionRefresh updates fields and leaves closed_at alone.
	actionRefresh
)

func (a upsertAction) String() string {
	switch a {
	case actionInsert:
		return "insert"
	case actionFirstClose:
		return "first_close"
	case actionRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("upsertAction(%d)", int(a))
	}
}

// planUpsert picks the write for an incoming channel given the stored row.
//
//   - no row: insert
//   - closed_at unset, incoming closing: first close
//   - closed_at set: refresh, closed_at untouched
//   - closed_at unset, incoming open: refresh, closed_at stays unset
func planUpsert(exists bool, storedClosedAt sql.NullInt64, incoming channel.State) upsertAction {
	switch {
	case !exists:
		return actionInsert
	case !storedClosedAt.Valid && incoming.IsClosing():
		return actionFirstClose
	default:
		return actionRefresh
	}
}

// SyncChannels reconciles the store against a snapshot of known channels.
//
// Every channel in the snapshot is upserted in order; duplicate funding
// txids are last-write-wins. Every stored channel absent from the snapshot
// is then set to Closed, stamping closed_at only if it was unset. An empty
// snapshot closes every stored channel.
//
// The whole pass, including its sync_runs audit row, commits atomically.
// Any error rolls everything back.
func (s *Store) SyncChannels(ctx context.Context, snapshot []channel.Channel) (SyncReport, error) {
	if err := validateSnapshot(snapshot); err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: %w", err)
	}

	now, err := s.clock.Now()
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: %w: %w", ErrClock, err)
	}

	keys, err := marshalFundingTxIDs(snapshot)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: %w", err)
	}

	report := SyncReport{
		RunID:        s.runIDs.Generate(),
		SyncedAt:     time.Unix(now.Unix(), 0).UTC(),
		SnapshotSize: len(snapshot),
	}
	closedAt := now.Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, c := range snapshot {
		action, err := upsertChannel(ctx, tx, c, closedAt)
		if err != nil {
			return SyncReport{}, fmt.Errorf("sync channels: upsert %s: %w", c.FundingTxID, err)
		}
		switch action {
		case actionInsert:
			report.Inserted++
			if c.State.IsClosing() {
				report.FirstClosed++
			}
		case actionFirstClose:
			report.FirstClosed++
		case actionRefresh:
			report.Refreshed++
		}
	}

	newlyClosed, swept, err := sweepAbsent(ctx, tx, keys, closedAt)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: %w", err)
	}
	report.FirstClosed += newlyClosed
	report.Swept = swept

	if err := writeSyncRun(ctx, tx, report); err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return SyncReport{}, fmt.Errorf("sync channels: commit: %w", err)
	}

	s.logger.Info("channels synced",
		"run_id", report.RunID,
		"snapshot_size", report.SnapshotSize,
		"inserted", report.Inserted,
		"refreshed", report.Refreshed,
		"first_closed", report.FirstClosed,
		"swept", report.Swept,
	)

	return report, nil
}

// validateSnapshot checks every channel before anything is written.
func validateSnapshot(snapshot []channel.Channel) error {
	for i, c := range snapshot {
		if c.FundingTxID == "" {
			return fmt.Errorf("channel %d: %w", i, ErrEmptyFundingTxID)
		}
		if !c.State.IsValid() {
			return fmt.Errorf("channel %s: %w: %s", c.FundingTxID, ErrInvalidState, c.State)
		}
		if _, err := toSQLAmount(c.SpendableMsat); err != nil {
			return fmt.Errorf("channel %s: spendable: %w", c.FundingTxID, err)
		}
		if _, err := toSQLAmount(c.ReceivableMsat); err != nil {
			return fmt.Errorf("channel %s: receivable: %w", c.FundingTxID, err)
		}
	}
	return nil
}

// upsertChannel reads the stored closed_at for c, chooses a write with
// planUpsert and applies it.
func upsertChannel(ctx context.Context, tx *sql.Tx, c channel.Channel, now int64) (upsertAction, error) {
	var storedClosedAt sql.NullInt64
	exists := true
	err := tx.QueryRowContext(ctx, `
		SELECT closed_at FROM channels
		WHERE funding_txid = ?
	`, c.FundingTxID).Scan(&storedClosedAt)
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
	} else if err != nil {
		return 0, fmt.Errorf("select existing: %w", err)
	}

	// validateSnapshot already checked both amounts
	spendable, _ := toSQLAmount(c.SpendableMsat)
	receivable, _ := toSQLAmount(c.ReceivableMsat)

	action := planUpsert(exists, storedClosedAt, c.State)
	switch action {
	case actionInsert:
		var closedAt sql.NullInt64
		if c.State.IsClosing() {
			closedAt = sql.NullInt64{Int64: now, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO channels
			(funding_txid, short_channel_id, state, spendable_msat, receivable_msat, closed_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`,
			c.FundingTxID,
			c.ShortChannelID,
			c.State.String(),
			spendable,
			receivable,
			closedAt,
		)

	case actionFirstClose:
		_, err = tx.ExecContext(ctx, `
			UPDATE channels
			SET short_channel_id = ?, state = ?, spendable_msat = ?, receivable_msat = ?, closed_at = ?
			WHERE funding_txid = ? AND closed_at IS NULL
		`,
			c.ShortChannelID,
			c.State.String(),
			spendable,
			receivable,
			now,
			c.FundingTxID,
		)

	case actionRefresh:
		_, err = tx.ExecContext(ctx, `
			UPDATE channels
			SET short_channel_id = ?, state = ?, spendable_msat = ?, receivable_msat = ?
			WHERE funding_txid = ?
		`,
			c.ShortChannelID,
			c.State.String(),
			spendable,
			receivable,
			c.FundingTxID,
		)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", action, err)
	}

	return action, nil
}

// sweepAbsent closes every stored channel whose funding txid is not in
// keys, a JSON array bound through json_each. Returns how many of those
// rows had no closed_at before the sweep and how many rows were updated.
func sweepAbsent(ctx context.Context, tx *sql.Tx, keys string, now int64) (newlyClosed, swept int, err error) {
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM channels
		WHERE closed_at IS NULL
		AND funding_txid NOT IN (SELECT value FROM json_each(?))
	`, keys).Scan(&newlyClosed)
	if err != nil {
		return 0, 0, fmt.Errorf("sweep: count open: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE channels
		SET state = ?, closed_at = COALESCE(closed_at, ?)
		WHERE funding_txid NOT IN (SELECT value FROM json_each(?))
	`, channel.StateClosed.String(), now, keys)
	if err != nil {
		return 0, 0, fmt.Errorf("sweep: update: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("sweep: rows affected: %w", err)
	}

	return newlyClosed, int(affected), nil
}

// writeSyncRun records the audit row for a pass.
func writeSyncRun(ctx context.Context, tx *sql.Tx, r SyncReport) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sync_runs
		(id, synced_at, snapshot_size, inserted, refreshed, first_closed, swept)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		r.RunID,
		r.SyncedAt.Unix(),
		r.SnapshotSize,
		r.Inserted,
		r.Refreshed,
		r.FirstClosed,
		r.Swept,
	)
	if err != nil {
		return fmt.Errorf("write sync run: %w", err)
	}
	return nil
}
