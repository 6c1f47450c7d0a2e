package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/vedhub/mailsync/internal/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`

	// Reconnect tells the client to send the user through consent again
	Reconnect bool `json:"reconnect,omitempty"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int64  `json:"total"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Unread *int64 `json:"unread,omitempty"`
}

// Success returns a successful response with data
func Success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 Created response
func Created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

// Paginated returns a paginated response
func Paginated(c echo.Context, data interface{}, total int64, limit, offset int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta: Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// PaginatedWithUnread is Paginated with the mailbox's unread count in the metadata
func PaginatedWithUnread(c echo.Context, data interface{}, total, unread int64, limit, offset int) error {
	return c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    data,
		Meta: Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
			Unread: &unread,
		},
	})
}

// Error returns an error response with the status for the error's code.
// Store and internal failures are reported without their cause.
func Error(c echo.Context, err error) error {
	code := apperrors.GetErrorCode(err)

	message := err.Error()
	switch code {
	case apperrors.CodePersistenceError:
		message = apperrors.ErrPersistence.Error()
	case apperrors.CodeInternalError:
		message = apperrors.ErrInternal.Error()
	}

	return c.JSON(HTTPStatus(code), ErrorResponse{
		Success:   false,
		Error:     message,
		Code:      code,
		Reconnect: code == apperrors.CodeNotAuthenticated || code == apperrors.CodeCredentialExpired,
	})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInvalidInput,
	})
}

// NotFound returns a 404 Not Found response
func NotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeNotFound,
	})
}

// Unauthorized returns a 401 response for a missing or bad session
func Unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeUnauthorized,
	})
}

// InternalError returns a 500 Internal Server Error response
func InternalError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   message,
		Code:    apperrors.CodeInternalError,
	})
}

// HTTPStatus maps error codes to HTTP status codes
func HTTPStatus(code string) int {
	switch code {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeUnauthorized, apperrors.CodeNotAuthenticated, apperrors.CodeCredentialExpired:
		return http.StatusUnauthorized
	case apperrors.CodeSyncInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
