package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal   ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidCurrency  ErrorCode = "INVALID_CURRENCY"

	// Authorization-time failures.
	ErrCodeAPINotInitialized ErrorCode = "API_NOT_INITIALIZED"
	ErrCodeProviderRejected  ErrorCode = "PROVIDER_REJECTED"

	// Capture-time failures.
	ErrCodeConnectionUnavailable ErrorCode = "CONNECTION_UNAVAILABLE"
	ErrCodePaymentUnreadable     ErrorCode = "PAYMENT_UNREADABLE"
	ErrCodeUpdateFailed          ErrorCode = "UPDATE_FAILED"

	// Webhook-time failures.
	ErrCodeInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrCodePaymentNotFound ErrorCode = "PAYMENT_NOT_FOUND"

	ErrCodeEntryNotFound ErrorCode = "ENTRY_NOT_FOUND"
	ErrCodeFeedNotFound  ErrorCode = "FEED_NOT_FOUND"
	ErrCodeFormNotFound  ErrorCode = "FORM_NOT_FOUND"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Join() string {
	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return strings.Join(messages, "; ")
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewExternalError tags a failure reported by, or while talking to, the
// payment provider. The message is what the end user may see; the cause
// carries the provider's detail for logging.
func NewExternalError(message string, code ErrorCode, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

var (
	// ErrAPINotInitialized means provider credentials are missing or
	// expired and could not be refreshed. Recoverable by re-connecting
	// the Mollie account.
	ErrAPINotInitialized = NewExternalError("Unable to create payment because API is not initialized.", ErrCodeAPINotInitialized, nil)

	// Capture-time errors carry generic user-facing messages; the
	// provider detail is logged, never surfaced.
	ErrConnectionUnavailable = NewExternalError("Connection to Mollie cannot be initialized.", ErrCodeConnectionUnavailable, nil)
	ErrPaymentUnreadable     = NewExternalError("The status of your payment cannot be read.", ErrCodePaymentUnreadable, nil)
	ErrUpdateFailed          = NewExternalError("The status of your payment cannot be updated.", ErrCodeUpdateFailed, nil)
	ErrOrderUpdateFailed     = NewExternalError("The status of your order cannot be updated.", ErrCodeUpdateFailed, nil)

	ErrInvalidRequest  = NewValidationError("invalid webhook request", ErrCodeInvalidRequest)
	ErrPaymentNotFound = NewNotFoundError("Payment not found", ErrCodePaymentNotFound)

	ErrEntryNotFound = NewNotFoundError("Entry not found", ErrCodeEntryNotFound)
	ErrFeedNotFound  = NewNotFoundError("Feed not found", ErrCodeFeedNotFound)
	ErrFormNotFound  = NewNotFoundError("Form not found", ErrCodeFormNotFound)
)

// NewProviderRejectedError surfaces the provider's own message verbatim.
// Only the authorization path shows this to end users; there the message
// is provider-author-controlled and assumed user-safe.
func NewProviderRejectedError(providerMessage string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Code:       ErrCodeProviderRejected,
		Message:    providerMessage,
		StatusCode: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

func HasErrorCode(err error, code ErrorCode) bool {
	if appErr, ok := IsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
