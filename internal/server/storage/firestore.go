package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/kamikazebr/ou-toggle/pkg/models"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore keeps one document per user in a collection.
// Path: {collection}/{email}
// The document update time (unix nanoseconds) is the version token.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore initializes a Firebase app for projectID and opens its
// Firestore client.
func NewFirestoreStore(ctx context.Context, projectID, collection string, opts ...option.ClientOption) (*FirestoreStore, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firestore client: %w", err)
	}

	return &FirestoreStore{
		client:     client,
		collection: collection,
	}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, email string) (*models.AccessRecord, error) {
	doc, err := s.client.Collection(s.collection).Doc(email).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get access record: %w", err)
	}

	var rec models.AccessRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to parse access record: %w", err)
	}
	rec.Version = doc.UpdateTime.UnixNano()
	return &rec, nil
}

func (s *FirestoreStore) Put(ctx context.Context, email string, rec *models.AccessRecord) error {
	ref := s.client.Collection(s.collection).Doc(email)

	var (
		result *firestore.WriteResult
		err    error
	)
	if rec.Version == 0 {
		result, err = ref.Create(ctx, rec)
	} else {
		result, err = ref.Update(ctx, []firestore.Update{
			{Path: "unrestricted_switches", Value: rec.UnrestrictedSwitches},
			{Path: "last_request_date", Value: rec.LastRequestDate},
			{Path: "ou_state", Value: rec.OUState},
			{Path: "expiration_time_utc", Value: rec.ExpirationTimeUTC},
		}, firestore.LastUpdateTime(time.Unix(0, rec.Version)))
	}

	switch status.Code(err) {
	case codes.OK:
	case codes.AlreadyExists, codes.FailedPrecondition, codes.NotFound:
		return ErrVersionConflict
	default:
		return fmt.Errorf("failed to save access record: %w", err)
	}

	rec.Version = result.UpdateTime.UnixNano()
	return nil
}

func (s *FirestoreStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
