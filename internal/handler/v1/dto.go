package v1

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WindowRequest is a shift, a start/end range, or both.
type WindowRequest struct {
	Shift     string `json:"shift" binding:"omitempty,shift"`
	StartTime string `json:"start_time" binding:"required_with=EndTime,omitempty,hhmm"`
	EndTime   string `json:"end_time" binding:"required_with=StartTime,omitempty,hhmm"`
}

func (w WindowRequest) toWindow() schedule.Window {
	return schedule.Window{Shift: schedule.Shift(w.Shift), StartTime: w.StartTime, EndTime: w.EndTime}
}

type CreateAppointmentRequest struct {
	DoctorID  uuid.UUID  `json:"doctor_id" binding:"required"`
	PatientID *uuid.UUID `json:"patient_id"`
	Date      string     `json:"date" binding:"required"`
	WindowRequest
	ReasonForVisit string `json:"reason_for_visit" binding:"max=2000"`
	Notes          string `json:"notes" binding:"max=2000"`
	Mode           string `json:"mode" binding:"omitempty,oneof=strict unchecked"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required"`
	WindowRequest
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type CreateSlotRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date" binding:"required"`
	WindowRequest
}

type UpdateSlotRequest struct {
	Date        *string `json:"date"`
	Shift       *string `json:"shift" binding:"omitempty,shift"`
	StartTime   *string `json:"start_time" binding:"omitempty,hhmm"`
	EndTime     *string `json:"end_time" binding:"omitempty,hhmm"`
	IsAvailable *bool   `json:"is_available"`
}

type PrescriptionLineRequest struct {
	MedicineID uuid.UUID `json:"medicine_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required,gt=0"`
}

type UpdateMedicalRecordRequest struct {
	Diagnosis           *string                    `json:"diagnosis" binding:"omitempty,max=5000"`
	Treatment           *string                    `json:"treatment" binding:"omitempty,max=5000"`
	Notes               *string                    `json:"notes" binding:"omitempty,max=5000"`
	PrescribedMedicines *[]PrescriptionLineRequest `json:"prescribed_medicines" binding:"omitempty,dive"`
}

func (r *UpdateMedicalRecordRequest) toCommand() *mr.UpdateRecordCommand {
	cmd := &mr.UpdateRecordCommand{
		Diagnosis: r.Diagnosis,
		Treatment: r.Treatment,
		Notes:     r.Notes,
	}
	if r.PrescribedMedicines != nil {
		lines := make([]mr.PrescriptionLine, 0, len(*r.PrescribedMedicines))
		for _, l := range *r.PrescribedMedicines {
			lines = append(lines, mr.PrescriptionLine{MedicineID: l.MedicineID, Quantity: l.Quantity})
		}
		cmd.PrescribedMedicines = &lines
	}
	return cmd
}

type AppointmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PatientID          uuid.UUID  `json:"patient_id"`
	DoctorID           uuid.UUID  `json:"doctor_id"`
	Date               string     `json:"date"`
	Shift              string     `json:"shift,omitempty"`
	StartTime          string     `json:"start_time,omitempty"`
	EndTime            string     `json:"end_time,omitempty"`
	ReasonForVisit     string     `json:"reason_for_visit,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Status             string     `json:"status"`
	CreationMode       string     `json:"creation_mode"`
	SlotReserved       bool       `json:"slot_reserved"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`

	Doctor  *DoctorSummaryResponse `json:"doctor,omitempty"`
	Patient *PersonResponse        `json:"patient,omitempty"`
}

type PersonResponse struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
}

type DoctorSummaryResponse struct {
	PersonResponse
	Specialty      string   `json:"specialty,omitempty"`
	Experience     int      `json:"experience"`
	Qualifications []string `json:"qualifications,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		DoctorID:           a.DoctorID,
		Date:               a.Date.Format(schedule.DateLayout),
		Shift:              string(a.Shift),
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		ReasonForVisit:     a.ReasonForVisit,
		Notes:              a.Notes,
		Status:             string(a.Status),
		CreationMode:       string(a.CreationMode),
		SlotReserved:       a.SlotReserved,
		CancellationReason: a.CancellationReason,
		CancelledAt:        a.CancelledAt,
		CompletedAt:        a.CompletedAt,
		CreatedAt:          a.CreatedAt,
	}
}

type AppointmentDetailResponse struct {
	*AppointmentResponse
	MedicalRecord *MedicalRecordResponse `json:"medical_record,omitempty"`
	ChatChannelID *uuid.UUID             `json:"chat_channel_id,omitempty"`
}

func toAppointmentDetailResponse(d *service.AppointmentDetail) *AppointmentDetailResponse {
	resp := &AppointmentDetailResponse{AppointmentResponse: toAppointmentResponse(d.Appointment)}
	if d.MedicalRecord != nil {
		resp.MedicalRecord = toMedicalRecordResponse(d.MedicalRecord)
	}
	if d.Channel != nil {
		resp.ChatChannelID = &d.Channel.ID
	}
	return resp
}

func toPersonResponse(p *service.PersonSummary) *PersonResponse {
	if p == nil {
		return nil
	}
	return &PersonResponse{ID: p.ID, FullName: p.FullName, Email: p.Email, Phone: p.Phone}
}

func toAppointmentViews(views []*service.AppointmentView) []*AppointmentResponse {
	out := make([]*AppointmentResponse, 0, len(views))
	for _, v := range views {
		resp := toAppointmentResponse(v.Appointment)
		resp.Patient = toPersonResponse(v.Patient)
		if v.Doctor != nil {
			resp.Doctor = &DoctorSummaryResponse{
				PersonResponse: *toPersonResponse(&v.Doctor.PersonSummary),
				Specialty:      v.Doctor.Specialty,
				Experience:     v.Doctor.Experience,
				Qualifications: v.Doctor.Qualifications,
			}
		}
		out = append(out, resp)
	}
	return out
}

type SlotResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Date        string    `json:"date"`
	Shift       string    `json:"shift,omitempty"`
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	IsAvailable bool      `json:"is_available"`
}

func toSlotResponse(s *schedule.Slot) *SlotResponse {
	return &SlotResponse{
		ID:          s.ID,
		DoctorID:    s.DoctorID,
		Date:        s.Date.Format(schedule.DateLayout),
		Shift:       string(s.Shift),
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		IsAvailable: s.IsAvailable,
	}
}

func toSlotResponses(slots []*schedule.Slot) []*SlotResponse {
	out := make([]*SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	return out
}

type MedicalRecordResponse struct {
	ID                  uuid.UUID               `json:"id"`
	PatientID           uuid.UUID               `json:"patient_id"`
	DoctorID            uuid.UUID               `json:"doctor_id"`
	AppointmentID       uuid.UUID               `json:"appointment_id"`
	Diagnosis           string                  `json:"diagnosis"`
	Treatment           string                  `json:"treatment"`
	Notes               string                  `json:"notes"`
	PrescribedMedicines []mr.PrescribedMedicine `json:"prescribed_medicines"`
	TotalCost           decimal.Decimal         `json:"total_cost"`
	PaymentStatus       string                  `json:"payment_status"`
	PaymentLink         string                  `json:"payment_link,omitempty"`
	QRCode              string                  `json:"qr_code,omitempty"`
	OrderCode           *int64                  `json:"order_code,omitempty"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

func toMedicalRecordResponse(r *mr.MedicalRecord) *MedicalRecordResponse {
	lines := r.PrescribedMedicines
	if lines == nil {
		lines = []mr.PrescribedMedicine{}
	}
	return &MedicalRecordResponse{
		ID:                  r.ID,
		PatientID:           r.PatientID,
		DoctorID:            r.DoctorID,
		AppointmentID:       r.AppointmentID,
		Diagnosis:           r.Diagnosis,
		Treatment:           r.Treatment,
		Notes:               r.Notes,
		PrescribedMedicines: lines,
		TotalCost:           r.TotalCost,
		PaymentStatus:       string(r.PaymentStatus),
		PaymentLink:         r.PaymentLink,
		QRCode:              r.QRCode,
		OrderCode:           r.OrderCode,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toMedicalRecordResponses(records []*mr.MedicalRecord) []*MedicalRecordResponse {
	out := make([]*MedicalRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toMedicalRecordResponse(r))
	}
	return out
}
