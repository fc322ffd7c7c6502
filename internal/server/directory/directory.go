package directory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2/google"
	admin "google.golang.org/api/admin/directory/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrUserNotFound is returned when the directory has no such user.
var ErrUserNotFound = errors.New("directory user not found")

// Service reads and changes a user's organizational unit.
type Service interface {
	GetUserOU(ctx context.Context, email string) (string, error)
	SetUserOU(ctx context.Context, email, orgUnitPath string) error
}

// AdminService is the Admin SDK Directory API implementation of Service.
type AdminService struct {
	users *admin.UsersService
}

// NewAdminService builds a Directory API client acting as adminEmail via
// domain-wide delegation. credentialsFile may be empty to use Application
// Default Credentials; delegation then requires service account key
// credentials in GOOGLE_APPLICATION_CREDENTIALS.
func NewAdminService(ctx context.Context, adminEmail, credentialsFile string) (*AdminService, error) {
	params := google.CredentialsParams{
		Scopes:  []string{admin.AdminDirectoryUserScope},
		Subject: adminEmail,
	}

	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", readErr)
		}
		creds, err = google.CredentialsFromJSONWithParams(ctx, data, params)
	} else {
		creds, err = google.FindDefaultCredentialsWithParams(ctx, params)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load delegated credentials: %w", err)
	}

	svc, err := admin.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create directory service: %w", err)
	}

	return &AdminService{users: svc.Users}, nil
}

func (s *AdminService) GetUserOU(ctx context.Context, email string) (string, error) {
	user, err := s.users.Get(email).Fields("orgUnitPath").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("failed to get user %s: %w", email, err)
	}
	return user.OrgUnitPath, nil
}

func (s *AdminService) SetUserOU(ctx context.Context, email, orgUnitPath string) error {
	_, err := s.users.Update(email, &admin.User{OrgUnitPath: orgUnitPath}).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to set OU of %s to %s: %w", email, orgUnitPath, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
