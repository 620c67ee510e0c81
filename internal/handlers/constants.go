package handlers

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidProcessID   = "Invalid process ID"
	ErrMsgInvalidProposalID  = "Invalid proposal ID"
	ErrMsgInvalidBudgetID    = "Invalid budget ID"
	ErrMsgInvalidQueryParam  = "Invalid query parameter"
	ErrMsgInternal           = "Internal server error"
)

// API path constants
const (
	APIBasePath = "/api/v1"
)

const maxBodyBytes = 1 << 20
