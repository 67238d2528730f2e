package types

// API responses always carry one of two envelopes: `{"data": ...}` on
// success, `{"error": {...}}` on failure. Clients never see a bare payload.

// SuccessEnvelope wraps every successful API response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed API response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func WrapData(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}

func WrapError(code, message string, details any) ErrorEnvelope {
	return ErrorEnvelope{Error: APIError{Code: code, Message: message, Details: details}}
}
