package postgres

import (
	"context"
	"fmt"
	"time"

	"dietplan/internal/domain"
)

var _ domain.HistoryRepository = (*DB)(nil)

type observationRow struct {
	UserID     int64     `db:"user_id"`
	Kind       string    `db:"kind"`
	Seq        int       `db:"seq"`
	Value      float64   `db:"value"`
	ObservedAt time.Time `db:"observed_at"`
}

// LoadSeries returns the user's series in append order.
func (d *DB) LoadSeries(ctx context.Context, userID int64, kind domain.SeriesKind) (domain.Series, error) {
	var rows []observationRow
	err := d.sql.SelectContext(ctx, &rows,
		"SELECT user_id, kind, seq, value, observed_at FROM observations WHERE user_id = $1 AND kind = $2 ORDER BY seq",
		userID, string(kind),
	)
	if err != nil {
		return nil, err
	}
	series := make(domain.Series, len(rows))
	for i, r := range rows {
		series[i] = domain.Observation{Value: r.Value, At: r.ObservedAt}
	}
	return series, nil
}

// StoreSeries writes the entries of series the table does not hold yet.
// Stored rows are append-only, so only the tail past the stored count is
// inserted. If the stored count already reaches len(series), or a concurrent
// transaction inserts the same sequence number, domain.ErrStaleSeries is
// returned.
func (d *DB) StoreSeries(ctx context.Context, userID int64, kind domain.SeriesKind, series domain.Series) error {
	tx, err := d.sql.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var stored int
	err = tx.GetContext(ctx, &stored,
		"SELECT COUNT(*) FROM observations WHERE user_id = $1 AND kind = $2",
		userID, string(kind),
	)
	if err != nil {
		return err
	}
	if stored >= len(series) {
		return domain.ErrStaleSeries
	}

	rows := make([]observationRow, 0, len(series)-stored)
	for i := stored; i < len(series); i++ {
		rows = append(rows, observationRow{
			UserID:     userID,
			Kind:       string(kind),
			Seq:        i,
			Value:      series[i].Value,
			ObservedAt: series[i].At.UTC(),
		})
	}
	_, err = tx.NamedExecContext(ctx,
		`INSERT INTO observations (user_id, kind, seq, value, observed_at)
		VALUES (:user_id, :kind, :seq, :value, :observed_at)`,
		rows,
	)
	if isUniqueViolation(err) {
		return domain.ErrStaleSeries
	}
	if err != nil {
		return fmt.Errorf("insert observations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStaleSeries
		}
		return err
	}
	return nil
}
