// Package types holds the wire envelopes shared by every API handler.
// Success responses wrap their payload under "data"; failures carry a
// machine-readable code from pkg/errors plus a safe public message.
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a pkg/errors code. Details are only
// populated for codes whose metadata allows them.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
