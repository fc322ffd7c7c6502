package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kamikazebr/ou-toggle/pkg/models"
)

// AccessRepository is the Postgres AccessStore. The version column is
// bumped on every update and checked in the WHERE clause.
type AccessRepository struct {
	db *DB
}

func NewAccessRepository(db *DB) *AccessRepository {
	return &AccessRepository{db: db}
}

type accessRow struct {
	Email                string       `db:"email"`
	UnrestrictedSwitches int          `db:"unrestricted_switches"`
	LastRequestDate      string       `db:"last_request_date"`
	OUState              string       `db:"ou_state"`
	ExpirationTimeUTC    sql.NullTime `db:"expiration_time_utc"`
	Version              int64        `db:"version"`
	UpdatedAt            time.Time    `db:"updated_at"`
}

func (r *AccessRepository) Get(ctx context.Context, email string) (*models.AccessRecord, error) {
	var row accessRow
	query := `SELECT * FROM access_records WHERE email = $1`
	err := r.db.GetContext(ctx, &row, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	rec := &models.AccessRecord{
		UnrestrictedSwitches: row.UnrestrictedSwitches,
		LastRequestDate:      row.LastRequestDate,
		OUState:              models.OUState(row.OUState),
		Version:              row.Version,
	}
	if row.ExpirationTimeUTC.Valid {
		t := row.ExpirationTimeUTC.Time.UTC()
		rec.ExpirationTimeUTC = &t
	}
	return rec, nil
}

func (r *AccessRepository) Put(ctx context.Context, email string, rec *models.AccessRecord) error {
	var expiration sql.NullTime
	if rec.ExpirationTimeUTC != nil {
		expiration = sql.NullTime{Time: rec.ExpirationTimeUTC.UTC(), Valid: true}
	}

	var (
		result sql.Result
		err    error
	)
	if rec.Version == 0 {
		query := `
			INSERT INTO access_records (email, unrestricted_switches, last_request_date, ou_state, expiration_time_utc, version)
			VALUES ($1, $2, $3, $4, $5, 1)
			ON CONFLICT (email) DO NOTHING
		`
		result, err = r.db.ExecContext(ctx, query,
			email, rec.UnrestrictedSwitches, rec.LastRequestDate, string(rec.OUState), expiration,
		)
	} else {
		query := `
			UPDATE access_records
			SET unrestricted_switches = $1, last_request_date = $2, ou_state = $3,
			    expiration_time_utc = $4, version = version + 1, updated_at = NOW()
			WHERE email = $5 AND version = $6
		`
		result, err = r.db.ExecContext(ctx, query,
			rec.UnrestrictedSwitches, rec.LastRequestDate, string(rec.OUState), expiration,
			email, rec.Version,
		)
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVersionConflict
	}

	rec.Version++
	return nil
}

// Close is a no-op; the DB handle is owned by the caller.
func (r *AccessRepository) Close() error {
	return nil
}
