// Package types holds the wire envelopes shared by every API response.
package types

// SuccessEnvelope wraps all 2xx payloads under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details is only populated for
// codes whose metadata allows it, such as validation and stock conflicts.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps non-2xx payloads under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
