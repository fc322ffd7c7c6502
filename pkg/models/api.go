package models

// ToggleResponse is returned by GET /toggle-access.
type ToggleResponse struct {
	Success     bool   `json:"success"`
	UserMessage string `json:"user_message"`
	Error       string `json:"error"`
}

// RevertRequest is the body the scheduler posts to the revert callback.
type RevertRequest struct {
	Email string `json:"email"`
}

// RevertResponse is returned by the revert callback on success.
type RevertResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StatusResponse describes the current access state for the admin CLI.
type StatusResponse struct {
	Email     string        `json:"email"`
	Record    *AccessRecord `json:"record"`
	ActualOU  string        `json:"actual_ou"`
	RevertJob *RevertJob    `json:"revert_job,omitempty"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
