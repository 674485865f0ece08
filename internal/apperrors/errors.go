package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindNetwork             Kind = "network"
	KindTimeout             Kind = "timeout"
	KindUnsupportedLanguage Kind = "unsupported_language"
	KindService             Kind = "service"
	KindDOMWrite            Kind = "dom_write"
	KindGeneric             Kind = "generic"
)

type Error struct {
	Kind Kind
	// Status is the upstream HTTP status for KindService errors, 0 otherwise.
	Status int
	// SafeMessage is intended for user-facing output and logs.
	SafeMessage string
	// Cause keeps the original internal error for troubleshooting.
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if msg := strings.TrimSpace(e.SafeMessage); msg != "" {
		return msg
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func defaultSafeMessage(kind Kind, status int) string {
	switch kind {
	case KindNetwork:
		return "Translation service unreachable. Please check the connection."
	case KindTimeout:
		return "Translation request timed out."
	case KindUnsupportedLanguage:
		return "Language pair is not supported by the translation service."
	case KindService:
		switch status {
		case http.StatusBadRequest:
			return "Translation request rejected as malformed (400)."
		case http.StatusTooManyRequests:
			return "Translation rate limit exceeded (429). Please try again later."
		case http.StatusServiceUnavailable:
			return "Translation service unavailable (503)."
		}
		if status > 0 {
			return fmt.Sprintf("Translation service error (%d).", status)
		}
		return "Translation service error."
	case KindDOMWrite:
		return "Document node could not be updated."
	default:
		return "Translation failed."
	}
}

func New(kind Kind, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(kind, 0)
	}
	return &Error{
		Kind:        kind,
		SafeMessage: msg,
		Cause:       cause,
	}
}

func Network(err error) error {
	return New(KindNetwork, "", err)
}

func Timeout(err error) error {
	return New(KindTimeout, "", err)
}

func UnsupportedLanguage(err error) error {
	return New(KindUnsupportedLanguage, "", err)
}

func DOMWrite(err error) error {
	return New(KindDOMWrite, "", err)
}

func Generic(err error) error {
	return New(KindGeneric, "", err)
}

// Service builds a KindService error carrying the upstream status code.
func Service(status int, safeMessage string, cause error) error {
	msg := strings.TrimSpace(safeMessage)
	if msg == "" {
		msg = defaultSafeMessage(KindService, status)
	}
	return &Error{
		Kind:        KindService,
		Status:      status,
		SafeMessage: msg,
		Cause:       cause,
	}
}

// KindOf reports the kind of err. Errors that are not *Error are reported
// as KindGeneric with ok=false.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return KindGeneric, false
	}
	return e.Kind, true
}

func StatusOf(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return 0
	}
	return e.Status
}

func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindService:
		// Only rate limiting and unavailability are transient.
		return e.Status == http.StatusTooManyRequests ||
			e.Status == http.StatusServiceUnavailable
	default:
		return false
	}
}

func IsRateLimit(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindService && e.Status == http.StatusTooManyRequests
}
