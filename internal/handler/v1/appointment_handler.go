package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/appointment"
	"github.com/clinicore/clinicore/internal/service"
)

type AppointmentHandler struct {
	schedulerSvc *service.SchedulerService
}

func NewAppointmentHandler(schedulerSvc *service.SchedulerService) *AppointmentHandler {
	return &AppointmentHandler{schedulerSvc: schedulerSvc}
}

func (h *AppointmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id/status", h.UpdateStatus)
}

type createAppointmentRequest struct {
	PatientID    uuid.UUID                   `json:"patient_id" binding:"required"`
	DoctorID     uuid.UUID                   `json:"doctor_id" binding:"required"`
	ScheduledAt  time.Time                   `json:"scheduled_at" binding:"required"`
	DurationMins int                         `json:"duration_mins"`
	Type         appointment.AppointmentType `json:"type" binding:"required"`
	Reason       string                      `json:"reason"`
	Notes        string                      `json:"notes"`
	Room         string                      `json:"room"`
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.CreateAppointmentCommand{
		PatientID:    req.PatientID,
		DoctorID:     req.DoctorID,
		ScheduledAt:  req.ScheduledAt,
		DurationMins: req.DurationMins,
		Type:         req.Type,
		Reason:       req.Reason,
		Notes:        req.Notes,
		Room:         req.Room,
		CreatedBy:    caller.UserID,
	}

	a, err := h.schedulerSvc.CreateAppointment(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, a)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.schedulerSvc.GetAppointment(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

type updateStatusRequest struct {
	Status appointment.AppointmentStatus `json:"status" binding:"required"`
	Reason string                        `json:"reason"`
}

func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateStatusCommand{
		NewStatus: req.Status,
		Reason:    req.Reason,
		UpdatedBy: caller.UserID,
	}

	a, err := h.schedulerSvc.UpdateStatus(c.Request.Context(), id, cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid patient_id")
			return
		}
		q.PatientID = &id
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid doctor_id")
			return
		}
		q.DoctorID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := appointment.AppointmentStatus(raw)
		q.Status = &status
	}
	if raw := c.Query("type"); raw != "" {
		t := appointment.AppointmentType(raw)
		q.Type = &t
	}
	if from, have, ok := parseQueryDate(c, "from"); ok {
		if have {
			q.DateFrom = &from
		}
	} else {
		return
	}
	if to, have, ok := parseQueryDate(c, "to"); ok {
		if have {
			q.DateTo = &to
		}
	} else {
		return
	}

	page, err := h.schedulerSvc.ListAppointments(c.Request.Context(), q, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}
