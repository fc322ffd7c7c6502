package testutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/kamikazebr/ou-toggle/pkg/models"
)

// CreateTestRecord inserts rec for email directly, bypassing version checks,
// and returns the stored version.
func (tdb *TestDB) CreateTestRecord(ctx context.Context, email string, rec *models.AccessRecord) int64 {
	tdb.t.Helper()

	var expiration sql.NullTime
	if rec.ExpirationTimeUTC != nil {
		expiration = sql.NullTime{Time: rec.ExpirationTimeUTC.UTC(), Valid: true}
	}

	var version int64
	err := tdb.DB.QueryRowContext(ctx, `
		INSERT INTO access_records (email, unrestricted_switches, last_request_date, ou_state, expiration_time_utc)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version
	`, email, rec.UnrestrictedSwitches, rec.LastRequestDate, string(rec.OUState), expiration).Scan(&version)
	if err != nil {
		tdb.t.Fatalf("Failed to create test record: %v", err)
	}
	return version
}

// DeleteTestRecord removes the record for email
func (tdb *TestDB) DeleteTestRecord(ctx context.Context, email string) {
	tdb.t.Helper()
	_, _ = tdb.DB.ExecContext(ctx, "DELETE FROM access_records WHERE email = $1", email)
}

// GenerateTestEmail generates a unique test email
func GenerateTestEmail() string {
	return fmt.Sprintf("test-%s@example.com", uuid.New().String()[:8])
}
