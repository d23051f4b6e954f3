package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MedicalRecordService interface {
	GetRecord(ctx context.Context, id uuid.UUID, caller domain.Identity) (*mr.MedicalRecord, error)
	UpdateRecord(ctx context.Context, id uuid.UUID, cmd *mr.UpdateRecordCommand, caller domain.Identity) (*mr.MedicalRecord, error)
	MarkPaid(ctx context.Context, orderCode int64) (*mr.MedicalRecord, error)
	MarkCancelled(ctx context.Context, orderCode int64) (*mr.MedicalRecord, error)
	ListDoctorRecords(ctx context.Context, caller domain.Identity) ([]*mr.MedicalRecord, error)
	ListPatientRecords(ctx context.Context, caller domain.Identity, onlyFilled bool) ([]*mr.MedicalRecord, error)
	ListRecords(ctx context.Context, q *mr.ListRecordsQuery, caller domain.Identity) ([]*mr.MedicalRecord, error)
}

type MedicalRecordHandler struct {
	svc MedicalRecordService
}

func NewMedicalRecordHandler(svc MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{svc: svc}
}

func (h *MedicalRecordHandler) Get(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	rec, err := h.svc.GetRecord(c.Request.Context(), id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toMedicalRecordResponse(rec))
}

// Update handles PUT /medical-records/:id. A present prescribed_medicines
// list replaces the prescription and may create a payment link.
func (h *MedicalRecordHandler) Update(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateMedicalRecordRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, err := h.svc.UpdateRecord(c.Request.Context(), id, req.toCommand(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toMedicalRecordResponse(rec))
}

// ListDoctor handles GET /medical-records/doctor.
func (h *MedicalRecordHandler) ListDoctor(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	records, err := h.svc.ListDoctorRecords(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toMedicalRecordResponses(records))
}

// ListMine handles GET /medical-records/me.
func (h *MedicalRecordHandler) ListMine(c *gin.Context) {
	h.listPatient(c, false)
}

// ListUpdated handles GET /medical-records/updated: the patient's records a
// doctor has filled in.
func (h *MedicalRecordHandler) ListUpdated(c *gin.Context) {
	h.listPatient(c, true)
}

func (h *MedicalRecordHandler) listPatient(c *gin.Context, onlyFilled bool) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	records, err := h.svc.ListPatientRecords(c.Request.Context(), caller, onlyFilled)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toMedicalRecordResponses(records))
}

// List handles GET /medical-records for admins, filtered by patient_id,
// doctor_id and only_filled.
func (h *MedicalRecordHandler) List(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	q := &mr.ListRecordsQuery{OnlyFilled: parseQueryBool(c, "only_filled")}
	for key, dst := range map[string]**uuid.UUID{"patient_id": &q.PatientID, "doctor_id": &q.DoctorID} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid "+key+": must be a valid UUID")
			return
		}
		*dst = &id
	}

	records, err := h.svc.ListRecords(c.Request.Context(), q, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toMedicalRecordResponses(records))
}

type PaymentCallbackResponse struct {
	OrderCode     int64  `json:"order_code"`
	PaymentStatus string `json:"payment_status"`
}

// PaymentSuccess handles the provider's return redirect,
// GET /medical-records/payment-success?orderCode=...&code=00&status=PAID
func (h *MedicalRecordHandler) PaymentSuccess(c *gin.Context) {
	h.paymentCallback(c, func(q paymentCallbackQuery) bool {
		return q.Code == payOSSuccessCode && strings.EqualFold(q.Status, payment.StatusPaid) && !q.Cancel
	}, h.svc.MarkPaid)
}

// PaymentCancel handles GET /medical-records/payment-cancel?orderCode=...&cancel=true
func (h *MedicalRecordHandler) PaymentCancel(c *gin.Context) {
	h.paymentCallback(c, func(q paymentCallbackQuery) bool {
		return q.Cancel || strings.EqualFold(q.Status, payment.StatusCancelled)
	}, h.svc.MarkCancelled)
}

const payOSSuccessCode = "00"

// paymentCallbackQuery mirrors the parameters PayOS appends to the return
// and cancel URLs.
type paymentCallbackQuery struct {
	OrderCode int64  `form:"orderCode" binding:"required,gt=0"`
	Code      string `form:"code"`
	Status    string `form:"status"`
	Cancel    bool   `form:"cancel"`
}

// paymentCallback rejects a redirect whose own parameters contradict the
// route before the service confirms the order with the provider.
func (h *MedicalRecordHandler) paymentCallback(
	c *gin.Context,
	matches func(paymentCallbackQuery) bool,
	apply func(context.Context, int64) (*mr.MedicalRecord, error),
) {
	var q paymentCallbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "invalid payment callback: "+err.Error())
		return
	}
	if !matches(q) {
		respondError(c, http.StatusBadRequest, "callback status does not match this endpoint")
		return
	}
	rec, err := apply(c.Request.Context(), q.OrderCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, PaymentCallbackResponse{OrderCode: q.OrderCode, PaymentStatus: string(rec.PaymentStatus)})
}
