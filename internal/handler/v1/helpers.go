package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	mr "github.com/clinicore/clinicore/internal/domain/medical_record"
	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/domain/prescription"
	"github.com/clinicore/clinicore/internal/handler/middleware"
	"github.com/clinicore/clinicore/internal/service"
	"github.com/clinicore/clinicore/pkg/riskml"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound),
		errors.Is(err, doctor.ErrDoctorNotFound),
		errors.Is(err, availability.ErrDayNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, mr.ErrRecordNotFound),
		errors.Is(err, prescription.ErrPrescriptionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})

	case errors.Is(err, availability.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "SLOT_UNAVAILABLE",
		})

	case errors.Is(err, availability.ErrDayHasBookings):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: err.Error(),
			Code:  "DAY_HAS_BOOKINGS",
		})

	case errors.Is(err, patient.ErrPatientAlreadyExists),
		errors.Is(err, doctor.ErrDoctorAlreadyExists),
		errors.Is(err, mr.ErrDuplicateRecord):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidDuration),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrInvalidAppointmentType),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, availability.ErrInvalidWorkingHours),
		errors.Is(err, availability.ErrInvalidSlotDuration),
		errors.Is(err, availability.ErrInvalidPattern),
		errors.Is(err, doctor.ErrDoctorInactive),
		errors.Is(err, patient.ErrPatientDeceased),
		errors.Is(err, patient.ErrInvalidGender),
		errors.Is(err, prescription.ErrNotRefillable),
		errors.Is(err, prescription.ErrInvalidDEASchedule),
		errors.Is(err, mr.ErrInvalidRecordType):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})

	case errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "account inactive"})

	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error: "account temporarily locked",
			Code:  "ACCOUNT_LOCKED",
		})

	case errors.Is(err, riskml.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "risk assessment temporarily unavailable",
			Code:  "RISK_SERVICE_DOWN",
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// callerFrom builds the service-layer caller identity from the authenticated
// claims. Responds 401 when the route was somehow reached unauthenticated.
func callerFrom(c *gin.Context) (service.Caller, bool) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:    claims.UserID,
		Role:      claims.Role,
		DoctorID:  claims.DoctorID,
		PatientID: claims.PatientID,
		IP:        c.ClientIP(),
	}, true
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

// parseQueryDate reads a "2006-01-02" query parameter. Responds with 400 and
// returns ok=false on a malformed value; required dates are the caller's check.
func parseQueryDate(c *gin.Context, key string) (time.Time, bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + key + ": must be YYYY-MM-DD"})
		return time.Time{}, false, false
	}
	return t, true, true
}
