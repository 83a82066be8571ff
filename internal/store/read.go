package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/chansync/internal/channel"
)

// SyncRun is the audit record of one successful SyncChannels pass.
type SyncRun struct {
	ID           string    `json:"id"`
	SyncedAt     time.Time `json:"synced_at"`
	SnapshotSize int       `json:"snapshot_size"`
	Inserted     int       `json:"inserted"`
	Refreshed    int       `json:"refreshed"`
	FirstClosed  int       `json:"first_closed"`
	Swept        int       `json:"swept"`
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// ListChannels returns every stored channel ordered by funding txid.
//
// A row whose state does not parse is returned as Closed and logged; the
// stored value is not modified. Returns an empty slice (not nil) if no
// channels exist.
func (s *Store) ListChannels(ctx context.Context) ([]channel.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT funding_txid, short_channel_id, state, spendable_msat, receivable_msat, closed_at
		FROM channels
		ORDER BY funding_txid COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	var channels []channel.Channel
	for rows.Next() {
		c, err := s.scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}

	if channels == nil {
		channels = []channel.Channel{}
	}

	return channels, nil
}

// GetChannel returns the channel with the given funding txid.
// Returns ErrChannelNotFound if no such row exists.
func (s *Store) GetChannel(ctx context.Context, fundingTxID string) (channel.Channel, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT funding_txid, short_channel_id, state, spendable_msat, receivable_msat, closed_at
		FROM channels
		WHERE funding_txid = ?
	`, fundingTxID)

	c, err := s.scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return channel.Channel{}, fmt.Errorf("get channel %s: %w", fundingTxID, ErrChannelNotFound)
	}
	if err != nil {
		return channel.Channel{}, fmt.Errorf("get channel %s: %w", fundingTxID, err)
	}
	return c, nil
}

// ListSyncRuns returns recorded sync runs, most recent first.
// A limit of zero or less returns every run.
func (s *Store) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, synced_at, snapshot_size, inserted, refreshed, first_closed, swept
		FROM sync_runs
		ORDER BY synced_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	runs := []SyncRun{}
	for rows.Next() {
		var (
			r        SyncRun
			syncedAt int64
		)
		if err := rows.Scan(&r.ID, &syncedAt, &r.SnapshotSize, &r.Inserted, &r.Refreshed, &r.FirstClosed, &r.Swept); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		r.SyncedAt = time.Unix(syncedAt, 0).UTC()
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}

	return runs, nil
}

// scanChannel scans one channels row. sql.ErrNoRows is returned unwrapped
// so callers can test for it.
func (s *Store) scanChannel(row rowScanner) (channel.Channel, error) {
	var (
		c          channel.Channel
		state      string
		spendable  int64
		receivable int64
		closedAt   sql.NullInt64
	)

	err := row.Scan(&c.FundingTxID, &c.ShortChannelID, &state, &spendable, &receivable, &closedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return channel.Channel{}, err
	}
	if err != nil {
		return channel.Channel{}, fmt.Errorf("scan channel: %w", err)
	}

	parsed, parseErr := channel.ParseState(state)
	if parseErr != nil {
		s.logger.Warn("unparseable channel state, reporting as Closed",
			"funding_txid", c.FundingTxID,
			"state", state,
		)
		parsed = channel.StateClosed
	}
	c.State = parsed

	if c.SpendableMsat, err = fromSQLAmount(spendable); err != nil {
		return channel.Channel{}, fmt.Errorf("scan channel %s: spendable: %w", c.FundingTxID, err)
	}
	if c.ReceivableMsat, err = fromSQLAmount(receivable); err != nil {
		return channel.Channel{}, fmt.Errorf("scan channel %s: receivable: %w", c.FundingTxID, err)
	}

	if closedAt.Valid {
		v := closedAt.Int64
		c.ClosedAt = &v
	}

	return c, nil
}
