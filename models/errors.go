package models

import "errors"

// Error codes surfaced by the booking flows. Handlers map these onto HTTP
// statuses; services and workers match on them to decide retries.
const (
	CodeBadInput                  = "BAD_INPUT"
	CodeNoSkillMatch              = "NO_SKILL_MATCH"
	CodeMixedCurrency             = "MIXED_CURRENCY"
	CodeLeadTimeBlocked           = "LEAD_TIME_BLOCKED"
	CodeBeyondHorizon             = "BEYOND_HORIZON"
	CodeLockWindow                = "LOCK_WINDOW"
	CodeTooManyReschedules        = "TOO_MANY_RESCHEDULES"
	CodeSlotUnavailable           = "SLOT_UNAVAILABLE"
	CodeIllegalTransition         = "ILLEGAL_TRANSITION"
	CodeAlreadyRated              = "ALREADY_RATED"
	CodePaymentInitFailed         = "PAYMENT_INIT_FAILED"
	CodePaymentVerificationFailed = "PAYMENT_VERIFICATION_FAILED"
	CodeNotifierUnavailable       = "NOTIFIER_UNAVAILABLE"
	CodeTimeout                   = "TIMEOUT"
	CodeStoreUnavailable          = "STORE_UNAVAILABLE"
)

// BookingError is the typed error every service in the booking path returns.
type BookingError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *BookingError) Error() string {
	return e.Message
}

func NewBookingError(code, message string) *BookingError {
	return &BookingError{Code: code, Message: message}
}

// HasCode reports whether err carries the given booking error code anywhere
// in its chain.
func HasCode(err error, code string) bool {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// ErrCode extracts the booking error code from err, or returns the empty
// string for untyped errors.
func ErrCode(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
