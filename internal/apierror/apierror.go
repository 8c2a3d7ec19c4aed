// Package apierror holds the domain error taxonomy and the JSON bodies the
// API answers with. Handlers never serialize raw errors; they go through
// Status and FromError.
package apierror

// APIError is the body of every non-validation error response.
type APIError struct {
	Detail string                 `json:"detail"`
	Extra  map[string]interface{} `json:"extra,omitempty"`
}

func New(msg string) *APIError { return &APIError{Detail: msg} }

// ValidationError lists the failing tag per request field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
