package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mr "github.com/clinicore/clinicore/internal/domain/medical_record"
	"github.com/clinicore/clinicore/internal/domain/prescription"
	"github.com/clinicore/clinicore/internal/service"
)

type MedicalRecordHandler struct {
	recordSvc *service.MedicalRecordService
}

func NewMedicalRecordHandler(recordSvc *service.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{recordSvc: recordSvc}
}

func (h *MedicalRecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/addenda", h.AddAddendum)
}

type createRecordRequest struct {
	PatientID     uuid.UUID     `json:"patient_id" binding:"required"`
	AppointmentID *uuid.UUID    `json:"appointment_id"`
	DoctorID      uuid.UUID     `json:"doctor_id" binding:"required"`
	Type          mr.RecordType `json:"type" binding:"required"`
	SOAPNote      *mr.SOAPNote  `json:"soap_note"`
	Vitals        *mr.Vitals    `json:"vitals"`
	Diagnoses     []string      `json:"diagnoses"`
	Notes         string        `json:"notes"`
}

func (h *MedicalRecordHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req createRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &mr.CreateRecordCommand{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		DoctorID:      req.DoctorID,
		Type:          req.Type,
		SOAPNote:      req.SOAPNote,
		Vitals:        req.Vitals,
		Diagnoses:     req.Diagnoses,
		Notes:         req.Notes,
		CreatedBy:     caller.UserID,
	}

	record, err := h.recordSvc.CreateRecord(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, record)
}

func (h *MedicalRecordHandler) Get(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	record, err := h.recordSvc.GetRecord(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, record)
}

type addAddendumRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *MedicalRecordHandler) AddAddendum(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req addAddendumRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &mr.AddAddendumCommand{
		MedicalRecordID: id,
		Content:         req.Content,
		CreatedBy:       caller.UserID,
	}

	addendum, err := h.recordSvc.AddAddendum(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, addendum)
}

func (h *MedicalRecordHandler) List(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	q := &mr.ListRecordsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err == nil {
			q.PatientID = &id
		}
	}
	if raw := c.Query("type"); raw != "" {
		t := mr.RecordType(raw)
		q.Type = &t
	}

	page, err := h.recordSvc.ListRecords(c.Request.Context(), q, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}

type PrescriptionHandler struct {
	prescriptionSvc *service.PrescriptionService
}

func NewPrescriptionHandler(prescriptionSvc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{prescriptionSvc: prescriptionSvc}
}

func (h *PrescriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/:id/refill", h.Refill)
}

type createPrescriptionRequest struct {
	PatientID             uuid.UUID                          `json:"patient_id" binding:"required"`
	DoctorID              uuid.UUID                          `json:"doctor_id" binding:"required"`
	AppointmentID         *uuid.UUID                         `json:"appointment_id"`
	MedicationName        string                             `json:"medication_name" binding:"required"`
	GenericName           string                             `json:"generic_name"`
	DosageAmount          string                             `json:"dosage_amount" binding:"required"`
	DosageFrequency       string                             `json:"dosage_frequency" binding:"required"`
	Route                 prescription.RouteOfAdministration `json:"route" binding:"required"`
	Duration              string                             `json:"duration"`
	Quantity              int                                `json:"quantity" binding:"required"`
	RefillsAllowed        int                                `json:"refills_allowed"`
	IsControlledSubstance bool                               `json:"is_controlled_substance"`
	DEASchedule           *int                               `json:"dea_schedule"`
	IssuedAt              time.Time                          `json:"issued_at"`
	ExpiresAt             time.Time                          `json:"expires_at" binding:"required"`
	Instructions          string                             `json:"instructions"`
	Warnings              []string                           `json:"warnings"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}

	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	if req.IssuedAt.IsZero() {
		req.IssuedAt = time.Now()
	}

	cmd := &prescription.CreatePrescriptionCommand{
		PatientID:             req.PatientID,
		DoctorID:              req.DoctorID,
		AppointmentID:         req.AppointmentID,
		MedicationName:        req.MedicationName,
		GenericName:           req.GenericName,
		DosageAmount:          req.DosageAmount,
		DosageFrequency:       req.DosageFrequency,
		Route:                 req.Route,
		Duration:              req.Duration,
		Quantity:              req.Quantity,
		RefillsAllowed:        req.RefillsAllowed,
		IsControlledSubstance: req.IsControlledSubstance,
		DEASchedule:           req.DEASchedule,
		IssuedAt:              req.IssuedAt,
		ExpiresAt:             req.ExpiresAt,
		Instructions:          req.Instructions,
		Warnings:              req.Warnings,
		CreatedBy:             caller.UserID,
	}

	p, err := h.prescriptionSvc.CreatePrescription(c.Request.Context(), cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PrescriptionHandler) Refill(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.prescriptionSvc.RefillPrescription(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}
