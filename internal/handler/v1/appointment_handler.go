package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AppointmentService interface {
	CreateAppointment(ctx context.Context, cmd *appointment.CreateAppointmentCommand, caller domain.Identity) (*appointment.Appointment, *mr.MedicalRecord, error)
	GetAppointment(ctx context.Context, id uuid.UUID, caller domain.Identity) (*service.AppointmentDetail, error)
	CancelAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.CancelAppointmentCommand, caller domain.Identity) (*appointment.Appointment, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, cmd *appointment.RescheduleAppointmentCommand, caller domain.Identity) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, cmd *appointment.UpdateStatusCommand, caller domain.Identity) (*appointment.Appointment, error)
	ListPatientAppointments(ctx context.Context, caller domain.Identity) ([]*service.AppointmentView, error)
	ListDoctorAppointments(ctx context.Context, caller domain.Identity) ([]*service.AppointmentView, error)
}

type AppointmentHandler struct {
	svc AppointmentService
}

func NewAppointmentHandler(svc AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type CreateAppointmentResponse struct {
	Appointment   *AppointmentResponse   `json:"appointment"`
	MedicalRecord *MedicalRecordResponse `json:"medical_record"`
}

func parseDate(c *gin.Context, raw string) (time.Time, bool) {
	d, err := schedule.ParseDate(raw)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return d, false
	}
	return d, true
}

// Create handles POST /appointments.
func (h *AppointmentHandler) Create(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	var req CreateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	date, ok := parseDate(c, req.Date)
	if !ok {
		return
	}

	a, rec, err := h.svc.CreateAppointment(c.Request.Context(), &appointment.CreateAppointmentCommand{
		DoctorID:       req.DoctorID,
		PatientID:      req.PatientID,
		Date:           date,
		Window:         req.toWindow(),
		ReasonForVisit: req.ReasonForVisit,
		Notes:          req.Notes,
		Mode:           appointment.CreationMode(req.Mode),
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, CreateAppointmentResponse{
		Appointment:   toAppointmentResponse(a),
		MedicalRecord: toMedicalRecordResponse(rec),
	})
}

// ListMine handles GET /appointments for the calling patient.
func (h *AppointmentHandler) ListMine(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	views, err := h.svc.ListPatientAppointments(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentViews(views))
}

// ListDoctor handles GET /appointments/doctor.
func (h *AppointmentHandler) ListDoctor(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	views, err := h.svc.ListDoctorAppointments(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentViews(views))
}

// Get handles GET /appointments/:id with its medical record and chat channel.
func (h *AppointmentHandler) Get(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetAppointment(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentDetailResponse(detail))
}

// UpdateStatus handles PUT /appointments/:id/status.
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.svc.UpdateStatus(c.Request.Context(), id, &appointment.UpdateStatusCommand{Status: req.Status}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}

// Cancel handles DELETE /appointments/:id/cancel. The body is optional.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req CancelAppointmentRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	if req.Reason == "" {
		req.Reason = c.Query("reason")
	}

	a, err := h.svc.CancelAppointment(c.Request.Context(), id, &appointment.CancelAppointmentCommand{Reason: req.Reason}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse[*AppointmentResponse]{
		Data:    toAppointmentResponse(a),
		Message: "appointment cancelled",
	})
}

// Reschedule handles PUT /appointments/:id/reschedule.
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req RescheduleAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}
	date, ok := parseDate(c, req.Date)
	if !ok {
		return
	}

	a, err := h.svc.RescheduleAppointment(c.Request.Context(), id, &appointment.RescheduleAppointmentCommand{
		Date:   date,
		Window: req.toWindow(),
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toAppointmentResponse(a))
}
