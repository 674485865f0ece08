package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kisanseva/pagetrans/internal/apperrors"
	"google.golang.org/api/googleapi"
)

func classifyGeminiError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	wrapped := fmt.Errorf("gemini generate content failed: %w", err)

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusBadRequest:
			return apperrors.Service(gerr.Code, "Gemini request rejected (400).", wrapped)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.Service(gerr.Code, fmt.Sprintf("Gemini authentication/authorization failed (%d).", gerr.Code), wrapped)
		case http.StatusNotFound:
			return apperrors.Service(gerr.Code, "Gemini model not found or no access (404).", wrapped)
		case http.StatusTooManyRequests:
			return apperrors.Service(gerr.Code, "Gemini rate limit exceeded (429). Please try again later.", wrapped)
		case http.StatusGatewayTimeout:
			return apperrors.Timeout(wrapped)
		default:
			return apperrors.Service(gerr.Code, fmt.Sprintf("Gemini service error (%d).", gerr.Code), wrapped)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(wrapped)
	}
	// DNS, socket and other transport failures.
	return apperrors.New(apperrors.KindNetwork, "Gemini request failed due to a network error.", wrapped)
}
