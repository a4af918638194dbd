// Package handlers defines the error codes of the HTTP API and the mapping
// from service errors to status codes.
//
// Codes are lowercase snake_case. Generic codes mirror HTTP status semantics;
// domain codes (craft_failed, generate_failed, ...) name failures that a
// status alone cannot convey. Clients branch on the code, never the message.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "already_guessed",
//	  "message": "character already guessed"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Flint2004/infinite-crafting/internal/content"
	"github.com/Flint2004/infinite-crafting/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeCraftFailed    = "craft_failed"
	ErrCodeGenerateFailed = "generate_failed"
	ErrCodeReloadFailed   = "reload_failed"
	ErrCodeAlreadyGuessed = "already_guessed"
	ErrCodeQuestionExists = "question_exists"
)

// apiError is the transport form of a service error.
type apiError struct {
	status  int
	code    string
	message string
}

// classify maps service errors onto status, code and a client-safe message.
// Anything unrecognized becomes a 500 internal_error.
func classify(err error) apiError {
	switch {
	case errors.Is(err, services.ErrInvalidUsername),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrEmptyToken),
		errors.Is(err, services.ErrMissingElementIDs),
		errors.Is(err, services.ErrInvalidCharacter),
		errors.Is(err, services.ErrEmptyGuessBatch),
		errors.Is(err, services.ErrInvalidSeed):
		return apiError{http.StatusBadRequest, ErrCodeBadRequest, err.Error()}

	case errors.Is(err, services.ErrAlreadyGuessed):
		return apiError{http.StatusBadRequest, ErrCodeAlreadyGuessed, err.Error()}

	case errors.Is(err, services.ErrQuestionExists):
		return apiError{http.StatusBadRequest, ErrCodeQuestionExists, err.Error()}

	case errors.Is(err, services.ErrInvalidToken):
		return apiError{http.StatusUnauthorized, ErrCodeUnauthorized, err.Error()}

	case errors.Is(err, services.ErrElementNotFound),
		errors.Is(err, services.ErrQuestionNotFound),
		errors.Is(err, services.ErrQuestionNotGenerated):
		return apiError{http.StatusNotFound, ErrCodeNotFound, err.Error()}

	case errors.Is(err, services.ErrCraftFailed):
		return apiError{http.StatusInternalServerError, ErrCodeCraftFailed, "craft failed, please retry"}

	case errors.Is(err, services.ErrWordGeneration),
		errors.Is(err, content.ErrContentNotFound):
		return apiError{http.StatusInternalServerError, ErrCodeGenerateFailed, "question generation failed, please retry"}
	}
	return apiError{http.StatusInternalServerError, ErrCodeInternal, "internal server error"}
}

// failErr writes the envelope for err. The underlying error of 5xx responses
// is logged, never returned to the client.
func failErr(c *gin.Context, err error) {
	ae := classify(err)
	if ae.status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	fail(c, ae.status, ae.code, ae.message)
}
