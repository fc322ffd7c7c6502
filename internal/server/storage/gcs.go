package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/kamikazebr/ou-toggle/pkg/models"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GCSStore keeps all records in a single JSON object, keyed by email. The
// object generation is the version token for every record inside it.
type GCSStore struct {
	client *storage.Client
	bucket string
	object string

	legacyUnrestrictedOU string
}

func NewGCSStore(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		object: object,
	}, nil
}

// SetLegacyUnrestrictedOU names the OU path that older objects stored in
// ou_state for an unrestricted user. Any other path reads as restricted.
func (s *GCSStore) SetLegacyUnrestrictedOU(ou string) {
	s.legacyUnrestrictedOU = ou
}

// storedRecord is the object's per-user entry. It also accepts entries
// written with naive ISO timestamps and OU paths as state.
type storedRecord struct {
	UnrestrictedSwitches int     `json:"unrestricted_switches"`
	LastRequestDate      string  `json:"last_request_date"`
	OUState              string  `json:"ou_state"`
	ExpirationTimeUTC    *string `json:"expiration_time_utc"`
}

// naiveISOLayout is an ISO 8601 timestamp without a zone, read as UTC.
const naiveISOLayout = "2006-01-02T15:04:05.999999999"

func (s *GCSStore) decodeRecord(raw *storedRecord) (*models.AccessRecord, error) {
	rec := &models.AccessRecord{
		UnrestrictedSwitches: raw.UnrestrictedSwitches,
		LastRequestDate:      raw.LastRequestDate,
	}

	switch state := models.OUState(raw.OUState); state {
	case models.OUStateRestricted, models.OUStateUnrestricted:
		rec.OUState = state
	default:
		rec.OUState = models.OUStateRestricted
		if s.legacyUnrestrictedOU != "" && raw.OUState == s.legacyUnrestrictedOU {
			rec.OUState = models.OUStateUnrestricted
		}
	}

	if raw.ExpirationTimeUTC != nil && *raw.ExpirationTimeUTC != "" {
		exp, err := time.Parse(time.RFC3339Nano, *raw.ExpirationTimeUTC)
		if err != nil {
			exp, err = time.ParseInLocation(naiveISOLayout, *raw.ExpirationTimeUTC, time.UTC)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid expiration_time_utc %q", *raw.ExpirationTimeUTC)
		}
		exp = exp.UTC()
		rec.ExpirationTimeUTC = &exp
	}
	return rec, nil
}

// readAll returns the decoded object and its generation (0 if absent).
func (s *GCSStore) readAll(ctx context.Context) (map[string]*models.AccessRecord, int64, error) {
	records := make(map[string]*models.AccessRecord)

	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return records, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open gs://%s/%s: %w", s.bucket, s.object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, s.object, err)
	}
	if len(data) > 0 {
		var stored map[string]*storedRecord
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, 0, fmt.Errorf("failed to parse gs://%s/%s: %w", s.bucket, s.object, err)
		}
		for email, raw := range stored {
			if raw == nil {
				continue
			}
			rec, err := s.decodeRecord(raw)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to parse record %s in gs://%s/%s: %w", email, s.bucket, s.object, err)
			}
			records[email] = rec
		}
	}

	return records, r.Attrs.Generation, nil
}

func (s *GCSStore) Get(ctx context.Context, email string) (*models.AccessRecord, error) {
	records, generation, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	rec, ok := records[email]
	if !ok || rec == nil {
		return nil, ErrRecordNotFound
	}
	rec.Version = generation
	return rec, nil
}

// Put rewrites the whole object. A record that did not exist yet carries
// version 0, so the precondition is taken from the current generation as
// long as the email is still absent from the object.
func (s *GCSStore) Put(ctx context.Context, email string, rec *models.AccessRecord) error {
	records, generation, err := s.readAll(ctx)
	if err != nil {
		return err
	}

	if _, exists := records[email]; exists {
		if rec.Version != generation {
			return ErrVersionConflict
		}
	} else if rec.Version != 0 {
		return ErrVersionConflict
	}

	records[email] = rec
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode access records: %w", err)
	}

	obj := s.client.Bucket(s.bucket).Object(s.object)
	if generation == 0 {
		obj = obj.If(storage.Conditions{DoesNotExist: true})
	} else {
		obj = obj.If(storage.Conditions{GenerationMatch: generation})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, s.object, err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, s.object, err)
	}

	rec.Version = w.Attrs().Generation
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
