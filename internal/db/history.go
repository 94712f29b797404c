package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/oumg-gold/oumg-console/internal/pricing"
)

// HistoryRow is one locally recorded snapshot with the time we fetched it.
type HistoryRow struct {
	FetchedAt time.Time
	Snapshot  pricing.Snapshot
}

// InsertSnapshot records a normalized snapshot in the local history.
func (d *DB) InsertSnapshot(ctx context.Context, fetchedAt time.Time, s pricing.Snapshot) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO price_history(fetched_at,source,effective_at,base,buy,sell,user_buy,user_sell,spread_myr,spread_bps,note)
		 VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		fetchedAt.Unix(), s.Source, s.UpdatedAt,
		nullF(s.Base), nullF(s.Buy), nullF(s.Sell), nullF(s.UserBuy), nullF(s.UserSell),
		nullF(s.SpreadMYR), nullI(s.SpreadBps), s.Note)
	return err
}

// LastSnapshot returns the most recently recorded snapshot, if any.
func (d *DB) LastSnapshot(ctx context.Context) (HistoryRow, bool, error) {
	rows, err := d.listHistory(ctx, 1)
	if err != nil {
		return HistoryRow{}, false, err
	}
	if len(rows) == 0 {
		return HistoryRow{}, false, nil
	}
	return rows[0], true, nil
}

// ListHistory returns up to limit rows, newest first.
func (d *DB) ListHistory(ctx context.Context, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 500
	}
	return d.listHistory(ctx, limit)
}

func (d *DB) listHistory(ctx context.Context, limit int) ([]HistoryRow, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT fetched_at,source,effective_at,base,buy,sell,user_buy,user_sell,spread_myr,spread_bps,note
		 FROM price_history ORDER BY fetched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HistoryRow
	for rows.Next() {
		var r HistoryRow
		var fetched int64
		var base, buy, sell, userBuy, userSell, spread sql.NullFloat64
		var bps sql.NullInt64
		if err := rows.Scan(&fetched, &r.Snapshot.Source, &r.Snapshot.UpdatedAt,
			&base, &buy, &sell, &userBuy, &userSell, &spread, &bps, &r.Snapshot.Note); err != nil {
			return nil, err
		}
		r.FetchedAt = time.Unix(fetched, 0)
		r.Snapshot.Base = fromNullF(base)
		r.Snapshot.Buy = fromNullF(buy)
		r.Snapshot.Sell = fromNullF(sell)
		r.Snapshot.UserBuy = fromNullF(userBuy)
		r.Snapshot.UserSell = fromNullF(userSell)
		r.Snapshot.SpreadMYR = fromNullF(spread)
		r.Snapshot.SpreadBps = fromNullI(bps)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PruneHistory keeps the newest keep rows and drops the rest.
func (d *DB) PruneHistory(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := d.sql.ExecContext(ctx,
		`DELETE FROM price_history WHERE id NOT IN (SELECT id FROM price_history ORDER BY fetched_at DESC, id DESC LIMIT ?)`, keep)
	return err
}

func nullF(p *float64) sql.NullFloat64 {
	if p == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *p, Valid: true}
}

func nullI(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func fromNullF(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func fromNullI(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
