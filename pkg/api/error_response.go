// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"errors"
	"net/http"

	"github.com/clawdhub/registry/pkg/service"
	"github.com/gin-gonic/gin"
)

// ErrorCode defines standard error codes for the API
type ErrorCode string

const (
	// Client errors (4xx)
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeInvalidParameter ErrorCode = "INVALID_PARAMETER"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden        ErrorCode = "FORBIDDEN"
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeConflict         ErrorCode = "CONFLICT"

	// Server errors (5xx)
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotConfigured ErrorCode = "SERVICE_NOT_CONFIGURED"

	// Business logic errors
	ErrCodeAccessDenied ErrorCode = "ACCESS_DENIED"
	ErrCodeIntegrity    ErrorCode = "INTEGRITY_ERROR"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// respondWithError sends a standardized error response
func respondWithError(c *gin.Context, statusCode int, errorCode ErrorCode, message string) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode:    string(errorCode),
		ErrorMessage: message,
	})
}

// respondBadRequest sends a 400 Bad Request error
func respondBadRequest(c *gin.Context, message string, detail ...string) {
	if len(detail) > 0 {
		message = message + ": " + detail[0]
	}
	respondWithError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// respondInvalidParameter sends a 400 Bad Request error for invalid parameters
func respondInvalidParameter(c *gin.Context, paramName string, detail ...string) {
	message := "Invalid parameter: " + paramName
	if len(detail) > 0 {
		message = message + ". " + detail[0]
	}
	respondWithError(c, http.StatusBadRequest, ErrCodeInvalidParameter, message)
}

// respondUnauthorized sends a 401 Unauthorized error
func respondUnauthorized(c *gin.Context, message string) {
	respondWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// respondNotFound sends a 404 Not Found error
func respondNotFound(c *gin.Context, resource string) {
	respondWithError(c, http.StatusNotFound, ErrCodeNotFound, resource+" not found")
}

// respondInternalError sends a 500 Internal Server Error
func respondInternalError(c *gin.Context, detail ...string) {
	message := "Internal server error"
	if len(detail) > 0 {
		message = message + ": " + detail[0]
	}
	respondWithError(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// respondServiceError maps service errors to standardized HTTP error
// responses. Hidden and deleted content surfaces as NOT_FOUND so the
// API never confirms that moderated content exists.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		respondWithError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		respondWithError(c, http.StatusForbidden, ErrCodeAccessDenied, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondWithError(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(c, http.StatusBadRequest, ErrCodeInvalidParameter, err.Error())
	case errors.Is(err, service.ErrIntegrity):
		respondWithError(c, http.StatusInternalServerError, ErrCodeIntegrity, err.Error())
	case errors.Is(err, service.ErrNotConfigured):
		respondWithError(c, http.StatusServiceUnavailable, ErrCodeNotConfigured, err.Error())
	default:
		respondInternalError(c, err.Error())
	}
}
