package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/kamikazebr/ou-toggle/internal/server/services"
	"github.com/kamikazebr/ou-toggle/pkg/models"
	"go.uber.org/zap"
)

// AccessToggler is the part of services.AccessService the handlers use.
type AccessToggler interface {
	Toggle(ctx context.Context) (*services.ToggleResult, error)
	RevertExpired(ctx context.Context, email string) (*services.RevertResult, error)
}

type AccessHandler struct {
	service AccessToggler
	log     *zap.Logger
}

func NewAccessHandler(service AccessToggler, log *zap.Logger) *AccessHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccessHandler{
		service: service,
		log:     log,
	}
}

// ToggleAccess handles GET /toggle-access. The API key is checked by
// APIKeyAuth before this runs.
func (h *AccessHandler) ToggleAccess(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Toggle(r.Context())
	if err == nil {
		respondToggle(w, http.StatusOK, true, res.Message, "None")
		return
	}

	var rateErr *services.RateLimitError
	var upErr *services.UpstreamError
	switch {
	case errors.As(err, &rateErr):
		respondToggle(w, http.StatusForbidden, false, rateErr.Error(), "Switch limit exceeded")
	case errors.As(err, &upErr):
		h.log.Error("toggle failed", zap.Error(err))
		respondToggle(w, http.StatusServiceUnavailable, false, upErr.UserMessage, "Service Unavailable")
	default:
		h.log.Error("toggle failed", zap.Error(err))
		respondToggle(w, http.StatusInternalServerError, false, "Unknown error", "Internal Server Error")
	}
}

// RevertOU handles the scheduler's revert callback.
func (h *AccessHandler) RevertOU(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.log.Error("revert callback called with wrong HTTP method", zap.String("method", r.Method))
		respondError(w, http.StatusMethodNotAllowed, "This function expects a POST request")
		return
	}

	var req models.RevertRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.service.RevertExpired(r.Context(), req.Email)
	if err != nil {
		var upErr *services.UpstreamError
		switch {
		case errors.Is(err, services.ErrWrongUser):
			respondError(w, http.StatusBadRequest, "email does not match the managed user")
		case errors.As(err, &upErr):
			respondError(w, http.StatusServiceUnavailable, upErr.UserMessage)
		default:
			h.log.Error("revert failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Unknown error")
		}
		return
	}

	respondJSON(w, http.StatusOK, models.RevertResponse{
		Success: res.Success,
		Message: res.Message,
	})
}
