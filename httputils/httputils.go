package httputils

// RequestError is the error payload returned by the API
type RequestError struct {
	Error string `json:"error"`
}

// RequestSuccess is the generic success payload for actions without a body
type RequestSuccess struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
