package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinicore/internal/domain/availability"
	"github.com/clinicore/clinicore/internal/domain/doctor"
	"github.com/clinicore/clinicore/internal/service"
)

type DoctorHandler struct {
	doctorSvc       *service.DoctorService
	availabilitySvc *service.AvailabilityService
}

func NewDoctorHandler(doctorSvc *service.DoctorService, availabilitySvc *service.AvailabilityService) *DoctorHandler {
	return &DoctorHandler{doctorSvc: doctorSvc, availabilitySvc: availabilitySvc}
}

func (h *DoctorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/working-hours", h.UpdateWorkingHours)

	rg.PUT("/:id/availability", h.SetAvailability)
	rg.GET("/:id/availability", h.GetFreeSlots)
	rg.DELETE("/:id/availability", h.RemoveAvailability)
}

type createDoctorRequest struct {
	FirstName        string             `json:"first_name" binding:"required"`
	LastName         string             `json:"last_name" binding:"required"`
	Specialty        string             `json:"specialty" binding:"required"`
	LicenseNumber    string             `json:"license_number" binding:"required"`
	Phone            string             `json:"phone"`
	Email            string             `json:"email"`
	WeeklyHours      doctor.WeeklyHours `json:"weekly_hours"`
	SlotDurationMins int                `json:"slot_duration_mins"`
}

func (h *DoctorHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &doctor.CreateDoctorCommand{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Specialty:        req.Specialty,
		LicenseNumber:    req.LicenseNumber,
		Phone:            req.Phone,
		Email:            req.Email,
		WeeklyHours:      req.WeeklyHours,
		SlotDurationMins: req.SlotDurationMins,
		CreatedBy:        caller.UserID,
	}

	d, err := h.doctorSvc.CreateDoctor(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, d)
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	d, err := h.doctorSvc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}

func (h *DoctorHandler) List(c *gin.Context) {
	q := &doctor.ListDoctorsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("specialty"); raw != "" {
		q.Specialty = &raw
	}
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		q.Active = &active
	}

	page, err := h.doctorSvc.ListDoctors(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

type updateWorkingHoursRequest struct {
	WeeklyHours      *doctor.WeeklyHours `json:"weekly_hours"`
	SlotDurationMins *int                `json:"slot_duration_mins"`
}

func (h *DoctorHandler) UpdateWorkingHours(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateWorkingHoursRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &doctor.UpdateWorkingHoursCommand{
		WeeklyHours:      req.WeeklyHours,
		SlotDurationMins: req.SlotDurationMins,
		UpdatedBy:        caller.UserID,
	}

	d, err := h.doctorSvc.UpdateWorkingHours(c.Request.Context(), id, cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, d)
}

type setAvailabilityRequest struct {
	Date             time.Time                      `json:"date" binding:"required"`
	Start            string                         `json:"start" binding:"required"`
	End              string                         `json:"end" binding:"required"`
	SlotDurationMins int                            `json:"slot_duration_mins"`
	Pattern          availability.RecurrencePattern `json:"pattern"`
	Force            bool                           `json:"force"`
}

func (h *DoctorHandler) SetAvailability(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req setAvailabilityRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &service.SetAvailabilityCommand{
		DoctorID:         id,
		Date:             req.Date,
		Hours:            availability.WorkingHours{Start: req.Start, End: req.End},
		SlotDurationMins: req.SlotDurationMins,
		Pattern:          req.Pattern,
		Force:            req.Force,
	}

	day, err := h.availabilitySvc.SetAvailability(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, day)
}

func (h *DoctorHandler) GetFreeSlots(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	from, haveFrom, ok := parseQueryDate(c, "from")
	if !ok {
		return
	}
	to, haveTo, ok := parseQueryDate(c, "to")
	if !ok {
		return
	}
	if !haveFrom {
		from = time.Now()
	}
	if !haveTo {
		to = from.AddDate(0, 0, 7)
	}

	slots, err := h.availabilitySvc.FindFreeSlots(c.Request.Context(), id, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, slots)
}

func (h *DoctorHandler) RemoveAvailability(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	date, haveDate, ok := parseQueryDate(c, "date")
	if !ok {
		return
	}
	if !haveDate {
		respondError(c, http.StatusBadRequest, "date query parameter is required")
		return
	}
	force := c.Query("force") == "true"

	if err := h.availabilitySvc.RemoveAvailability(c.Request.Context(), id, date, force, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[any]{Message: "availability removed"})
}
