package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/service"
)

type PatientHandler struct {
	patientSvc *service.PatientService
	riskSvc    *service.RiskService
}

func NewPatientHandler(patientSvc *service.PatientService, riskSvc *service.RiskService) *PatientHandler {
	return &PatientHandler{patientSvc: patientSvc, riskSvc: riskSvc}
}

func (h *PatientHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PATCH("/:id", h.Update)
	rg.DELETE("/:id", h.Deactivate)
	rg.POST("/:id/risk-assessment", h.AssessRisk)
}

type createPatientRequest struct {
	FirstName         string                    `json:"first_name" binding:"required"`
	LastName          string                    `json:"last_name" binding:"required"`
	DateOfBirth       time.Time                 `json:"date_of_birth" binding:"required"`
	Gender            patient.Gender            `json:"gender" binding:"required"`
	BloodType         patient.BloodType         `json:"blood_type"`
	NationalID        string                    `json:"national_id" binding:"required"`
	Phone             string                    `json:"phone"`
	Email             string                    `json:"email"`
	Address           string                    `json:"address"`
	City              string                    `json:"city"`
	State             string                    `json:"state"`
	ZipCode           string                    `json:"zip_code"`
	Country           string                    `json:"country"`
	EmergencyContact  *patient.EmergencyContact `json:"emergency_contact"`
	Insurance         *patient.Insurance        `json:"insurance"`
	Allergies         []string                  `json:"allergies"`
	ChronicConditions []string                  `json:"chronic_conditions"`
	AssignedDoctorID  *uuid.UUID                `json:"assigned_doctor_id"`
	Notes             string                    `json:"notes"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.CreatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		DateOfBirth:       req.DateOfBirth,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		NationalID:        req.NationalID,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		ZipCode:           req.ZipCode,
		Country:           req.Country,
		EmergencyContact:  req.EmergencyContact,
		Insurance:         req.Insurance,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		AssignedDoctorID:  req.AssignedDoctorID,
		Notes:             req.Notes,
		CreatedBy:         caller.UserID,
	}

	p, err := h.patientSvc.CreatePatient(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PatientHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.patientSvc.GetPatient(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

type updatePatientRequest struct {
	FirstName         *string                   `json:"first_name"`
	LastName          *string                   `json:"last_name"`
	Gender            *patient.Gender           `json:"gender"`
	BloodType         *patient.BloodType        `json:"blood_type"`
	Phone             *string                   `json:"phone"`
	Email             *string                   `json:"email"`
	Address           *string                   `json:"address"`
	City              *string                   `json:"city"`
	State             *string                   `json:"state"`
	ZipCode           *string                   `json:"zip_code"`
	Country           *string                   `json:"country"`
	EmergencyContact  *patient.EmergencyContact `json:"emergency_contact"`
	Insurance         *patient.Insurance        `json:"insurance"`
	Allergies         *[]string                 `json:"allergies"`
	ChronicConditions *[]string                 `json:"chronic_conditions"`
	AssignedDoctorID  *uuid.UUID                `json:"assigned_doctor_id"`
	Notes             *string                   `json:"notes"`
}

func (h *PatientHandler) Update(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Gender:            req.Gender,
		BloodType:         req.BloodType,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		City:              req.City,
		State:             req.State,
		ZipCode:           req.ZipCode,
		Country:           req.Country,
		EmergencyContact:  req.EmergencyContact,
		Insurance:         req.Insurance,
		Allergies:         req.Allergies,
		ChronicConditions: req.ChronicConditions,
		AssignedDoctorID:  req.AssignedDoctorID,
		Notes:             req.Notes,
		UpdatedBy:         caller.UserID,
	}

	p, err := h.patientSvc.UpdatePatient(c.Request.Context(), id, cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.patientSvc.DeactivatePatient(c.Request.Context(), id, caller); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[any]{Message: "patient deactivated"})
}

func (h *PatientHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	q := &patient.ListPatientsQuery{
		Search:    c.Query("search"),
		Page:      parseQueryInt(c, "page", 1),
		PageSize:  parseQueryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := patient.Status(raw)
		q.Status = &status
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid doctor_id")
			return
		}
		q.AssignedDoctorID = &id
	}

	page, err := h.patientSvc.ListPatients(c.Request.Context(), q, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

type assessRiskRequest struct {
	HeartRateBPM       *int     `json:"heart_rate_bpm"`
	SystolicBP         *int     `json:"systolic_bp"`
	DiastolicBP        *int     `json:"diastolic_bp"`
	TemperatureCelsius *float64 `json:"temperature_celsius"`
	WeightKg           *float64 `json:"weight_kg"`
	HeightCm           *float64 `json:"height_cm"`
}

func (h *PatientHandler) AssessRisk(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req assessRiskRequest
	if !bindJSON(c, &req) {
		return
	}

	vitals := service.AssessVitals{
		HeartRateBPM:       req.HeartRateBPM,
		SystolicBP:         req.SystolicBP,
		DiastolicBP:        req.DiastolicBP,
		TemperatureCelsius: req.TemperatureCelsius,
		WeightKg:           req.WeightKg,
		HeightCm:           req.HeightCm,
	}

	pred, err := h.riskSvc.AssessPatient(c.Request.Context(), id, vitals, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pred)
}
