package models

import "time"

// OUState mirrors which organizational unit the user is believed to be in.
type OUState string

const (
	OUStateRestricted   OUState = "RESTRICTED"
	OUStateUnrestricted OUState = "UNRESTRICTED"
)

// DateLayout is the layout of AccessRecord.LastRequestDate.
const DateLayout = "2006-01-02"

// AccessRecord is the durable per-user state of the access toggle.
// Version is the optimistic concurrency token of the backing store; zero
// means the record has not been persisted yet.
type AccessRecord struct {
	UnrestrictedSwitches int        `json:"unrestricted_switches" firestore:"unrestricted_switches"`
	LastRequestDate      string     `json:"last_request_date" firestore:"last_request_date"`
	OUState              OUState    `json:"ou_state" firestore:"ou_state"`
	ExpirationTimeUTC    *time.Time `json:"expiration_time_utc" firestore:"expiration_time_utc"`
	Version              int64      `json:"-" firestore:"-"`
}

// NewAccessRecord returns the defaults for a user seen for the first time.
func NewAccessRecord(date string) *AccessRecord {
	return &AccessRecord{
		UnrestrictedSwitches: 0,
		LastRequestDate:      date,
		OUState:              OUStateRestricted,
	}
}

// Clone returns a deep copy of the record.
func (r *AccessRecord) Clone() *AccessRecord {
	c := *r
	if r.ExpirationTimeUTC != nil {
		t := *r.ExpirationTimeUTC
		c.ExpirationTimeUTC = &t
	}
	return &c
}

// SameState reports whether two records carry the same persisted fields,
// ignoring the version.
func (r *AccessRecord) SameState(o *AccessRecord) bool {
	if r.UnrestrictedSwitches != o.UnrestrictedSwitches ||
		r.LastRequestDate != o.LastRequestDate ||
		r.OUState != o.OUState {
		return false
	}
	if r.ExpirationTimeUTC == nil || o.ExpirationTimeUTC == nil {
		return r.ExpirationTimeUTC == nil && o.ExpirationTimeUTC == nil
	}
	return r.ExpirationTimeUTC.Equal(*o.ExpirationTimeUTC)
}

// ResetForDate zeroes the switch counter when date differs from the stored
// request date. It reports whether anything changed.
func (r *AccessRecord) ResetForDate(date string) bool {
	if r.LastRequestDate == date {
		return false
	}
	r.UnrestrictedSwitches = 0
	r.LastRequestDate = date
	return true
}

// RevertJob is the scheduled callback that moves the user back to the
// restricted OU.
type RevertJob struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
}
