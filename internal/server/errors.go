package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/ftzflow/internal/customer/domain"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
	inventorydomain "github.com/smallbiznis/ftzflow/internal/inventory/domain"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
	"github.com/smallbiznis/ftzflow/pkg/db"
	"github.com/smallbiznis/ftzflow/pkg/validation"
	"gorm.io/gorm"
)

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// ErrNotFound is returned for unknown routes.
var ErrNotFound = errors.New("not_found")

const (
	typeValidation = "validation_error"
	typeState      = "state_error"
	typeNotFound   = "not_found"
	typeConflict   = "conflict"
	typeInternal   = "internal_error"
)

// Domain sentinels rejected because of bad input (400). The sentinel text
// doubles as the error code and "invalid_<field>" names the field.
var validationSentinels = []error{
	preshipmentdomain.ErrInvalidShipmentID,
	preshipmentdomain.ErrInvalidCustomer,
	preshipmentdomain.ErrInvalidItem,
	preshipmentdomain.ErrInvalidStage,
	preshipmentdomain.ErrInvalidSignature,
	entrysummarydomain.ErrInvalidGroupName,
	entrysummarydomain.ErrNoLineItems,
	inventorydomain.ErrInvalidQuantity,
}

// Sentinels for requests that conflict with the current record state (409).
var stateSentinels = []error{
	preshipmentdomain.ErrInvalidTransition,
	preshipmentdomain.ErrInvalidStageForSignoff,
	preshipmentdomain.ErrSignoffRequired,
	preshipmentdomain.ErrStageConflict,
	preshipmentdomain.ErrDuplicateShipmentID,
	entrysummarydomain.ErrInvalidGroupStatus,
	entrysummarydomain.ErrEmptyGroup,
	entrysummarydomain.ErrAlreadyFiled,
	entrysummarydomain.ErrBuildInProgress,
}

var notFoundSentinels = []error{
	ErrNotFound,
	preshipmentdomain.ErrNotFound,
	entrysummarydomain.ErrNotFound,
	entrysummarydomain.ErrGroupNotFound,
	customerdomain.ErrNotFound,
	inventorydomain.ErrLotNotFound,
	gorm.ErrRecordNotFound,
}

// ErrorHandlingMiddleware renders the last handler error as a JSON error
// body unless the handler already wrote a response.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		lastErr := c.Errors.Last()
		if lastErr == nil || c.Writer.Written() {
			return
		}
		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

func mapError(err error) (int, errorPayload) {
	var (
		fieldErrs *ValidationErrors
		missing   *validation.MissingFieldsError
	)
	switch {
	case err == nil:
	case errors.As(err, &fieldErrs) && fieldErrs != nil:
		return http.StatusBadRequest, errorPayload{Type: typeValidation, Message: "validation error", Errors: fieldErrs.Errors}
	case errors.As(err, &missing):
		return http.StatusBadRequest, missingFieldsPayload(missing)
	}

	if sentinel := firstMatch(err, validationSentinels); sentinel != nil {
		code := sentinel.Error()
		field := ""
		if strings.HasPrefix(code, "invalid_") {
			field = strings.TrimPrefix(code, "invalid_")
		}
		return http.StatusBadRequest, errorPayload{
			Type:    typeValidation,
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   field,
				Code:    code,
				Message: err.Error(),
			}},
		}
	}
	if sentinel := firstMatch(err, stateSentinels); sentinel != nil {
		return http.StatusConflict, errorPayload{Type: typeState, Code: sentinel.Error(), Message: err.Error()}
	}
	if firstMatch(err, notFoundSentinels) != nil {
		return http.StatusNotFound, errorPayload{Type: typeNotFound, Message: "not found"}
	}
	if err != nil && db.IsDuplicateKeyErr(err) {
		return http.StatusConflict, errorPayload{Type: typeConflict, Code: "duplicate_key", Message: "conflict"}
	}
	return http.StatusInternalServerError, errorPayload{Type: typeInternal, Message: "internal server error"}
}

func missingFieldsPayload(missing *validation.MissingFieldsError) errorPayload {
	code := "missing_fields"
	if missing.Code != nil {
		code = missing.Code.Error()
	}
	fields := make([]ValidationError, 0, len(missing.Fields))
	for _, field := range missing.Fields {
		fields = append(fields, ValidationError{Field: field, Code: "required", Message: field + " is required"})
	}
	return errorPayload{Type: typeValidation, Code: code, Message: missing.Error(), Errors: fields}
}

func firstMatch(err error, sentinels []error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// classifyErrorForLog returns the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
