package types

import "github.com/dukahub/duka-backend/pkg/pagination"

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// PagedResult wraps a list payload with its pagination metadata.
type PagedResult struct {
	Items any             `json:"items"`
	Page  pagination.Page `json:"page"`
}
