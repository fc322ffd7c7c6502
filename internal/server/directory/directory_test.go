package directory

import (
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"404", &googleapi.Error{Code: http.StatusNotFound}, true},
		{"wrapped 404", fmt.Errorf("get: %w", &googleapi.Error{Code: http.StatusNotFound}), true},
		{"403", &googleapi.Error{Code: http.StatusForbidden}, false},
		{"plain", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
