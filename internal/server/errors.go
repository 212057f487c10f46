package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/volunteerhub/internal/audit/domain"
	authdomain "github.com/smallbiznis/volunteerhub/internal/auth/domain"
	"github.com/smallbiznis/volunteerhub/internal/auth/token"
	"github.com/smallbiznis/volunteerhub/internal/authorization"
	matchdomain "github.com/smallbiznis/volunteerhub/internal/match/domain"
	opportunitydomain "github.com/smallbiznis/volunteerhub/internal/opportunity/domain"
	organizationdomain "github.com/smallbiznis/volunteerhub/internal/organization/domain"
	"github.com/smallbiznis/volunteerhub/internal/ratelimit"
	reportingdomain "github.com/smallbiznis/volunteerhub/internal/reporting/domain"
	volunteerdomain "github.com/smallbiznis/volunteerhub/internal/volunteer/domain"
	hourdomain "github.com/smallbiznis/volunteerhub/internal/volunteerhour/domain"
	"gorm.io/gorm"
)

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
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationFields names the request field behind codes whose name does not
// follow the invalid_<field> pattern.
var validationFields = map[string]string{
	"invalid_match_status":           "status",
	"invalid_hour_status":            "status",
	"invalid_verification_decision":  "status",
	"invalid_opportunity_title":      "title",
	"invalid_opportunity_dates":      "end_date",
	"invalid_organization_name":      "name",
	"invalid_date_range":             "to",
	"invalid_skill":                  "skills",
	"invalid_user_id":                "id",
	"invalid_volunteer_id":           "id",
	"invalid_opportunity_id":         "opportunity_id",
	"invalid_organization_id":        "organization_id",
	"invalid_admin_registration_key": "admin_key",
}

var validationSentinels = []error{
	ErrInvalidRequest,
	authdomain.ErrInvalidUsername,
	authdomain.ErrInvalidEmail,
	authdomain.ErrInvalidPassword,
	authdomain.ErrInvalidRole,
	authdomain.ErrInvalidUserID,
	organizationdomain.ErrInvalidID,
	organizationdomain.ErrInvalidName,
	organizationdomain.ErrInvalidEmail,
	opportunitydomain.ErrInvalidID,
	opportunitydomain.ErrInvalidTitle,
	opportunitydomain.ErrInvalidDates,
	opportunitydomain.ErrInvalidOrganization,
	matchdomain.ErrInvalidOpportunityID,
	matchdomain.ErrInvalidStatus,
	hourdomain.ErrInvalidOpportunityID,
	hourdomain.ErrInvalidHours,
	hourdomain.ErrInvalidDate,
	hourdomain.ErrInvalidDecision,
	hourdomain.ErrInvalidStatus,
	volunteerdomain.ErrInvalidID,
	volunteerdomain.ErrInvalidSkill,
	auditdomain.ErrInvalidAction,
	auditdomain.ErrInvalidLevel,
	reportingdomain.ErrInvalidOrganization,
	reportingdomain.ErrInvalidRange,
}

var unauthorizedSentinels = []error{
	ErrUnauthorized,
	authdomain.ErrInvalidCredentials,
	authdomain.ErrUnauthenticated,
	token.ErrInvalidToken,
	token.ErrExpiredToken,
	token.ErrWrongTokenType,
}

var forbiddenSentinels = []error{
	ErrForbidden,
	authorization.ErrForbidden,
	authdomain.ErrInvalidAdminKey,
	authdomain.ErrAdminLimitReached,
	authdomain.ErrCannotDeleteSelf,
}

var notFoundSentinels = []error{
	ErrNotFound,
	gorm.ErrRecordNotFound,
	authdomain.ErrUserNotFound,
	organizationdomain.ErrNotFound,
	opportunitydomain.ErrNotFound,
	matchdomain.ErrNotFound,
	hourdomain.ErrNotFound,
	volunteerdomain.ErrProfileNotFound,
}

var conflictSentinels = []error{
	ErrConflict,
	authdomain.ErrUserExists,
	authdomain.ErrUserHasDependents,
	opportunitydomain.ErrHasDependents,
	matchdomain.ErrAlreadyApplied,
	matchdomain.ErrAlreadyDecided,
	hourdomain.ErrAlreadyDecided,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
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
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case err == nil:
		return internalError()
	case matchesAny(err, validationSentinels):
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	case matchesAny(err, unauthorizedSentinels):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "authentication required",
		}
	case matchesAny(err, forbiddenSentinels):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "you do not have permission to perform this action",
		}
	case matchesAny(err, notFoundSentinels):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: notFoundMessage(err),
		}
	case matchesAny(err, conflictSentinels):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests, try again later",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return internalError()
	}
}

func internalError() (int, errorPayload) {
	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog feeds the request logger the same type the client sees.
func classifyErrorForLog(err error) (string, int) {
	status, payload := mapError(err)
	return payload.Type, status
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorCode(err error) string {
	for _, target := range validationSentinels {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "invalid_request"
}

func validationErrorField(code string) string {
	if field, ok := validationFields[code]; ok {
		return field
	}
	if code == "invalid_request" {
		return "request"
	}
	return strings.TrimPrefix(code, "invalid_")
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_hours":
		return "hours must be greater than 0 and at most 24"
	case "invalid_match_status":
		return "status must be accepted or rejected"
	case "invalid_verification_decision":
		return "status must be approved or rejected"
	case "invalid_opportunity_dates":
		return "end_date must not be before start_date"
	case "invalid_password":
		return "password must be at least 8 characters"
	case "invalid_username":
		return "username must be 3 to 50 characters"
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, matchdomain.ErrNotFound):
		return "match not found"
	case errors.Is(err, hourdomain.ErrNotFound):
		return "hour record not found"
	case errors.Is(err, opportunitydomain.ErrNotFound):
		return "opportunity not found"
	case errors.Is(err, organizationdomain.ErrNotFound):
		return "organization not found"
	case errors.Is(err, authdomain.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, volunteerdomain.ErrProfileNotFound):
		return "volunteer profile not found"
	default:
		return "not found"
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, matchdomain.ErrAlreadyApplied):
		return "you have already applied to this opportunity"
	case errors.Is(err, matchdomain.ErrAlreadyDecided):
		return "match has already been decided"
	case errors.Is(err, hourdomain.ErrAlreadyDecided):
		return "hour record has already been verified or rejected"
	case errors.Is(err, opportunitydomain.ErrHasDependents):
		return "opportunity has dependents"
	case errors.Is(err, authdomain.ErrUserHasDependents):
		return "user has matches or hour records"
	case errors.Is(err, authdomain.ErrUserExists):
		return "username or email already registered"
	default:
		return "conflict"
	}
}
