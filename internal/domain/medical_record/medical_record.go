package medical_record

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "Unpaid"
	PaymentPending   PaymentStatus = "Pending"
	PaymentPaid      PaymentStatus = "Paid"
	PaymentCancelled PaymentStatus = "Cancelled"
)

// PrescribedMedicine is one line item of a prescription. Its payment status
// always mirrors the record's.
type PrescribedMedicine struct {
	MedicineID    uuid.UUID       `json:"medicine_id"`
	Name          string          `json:"name,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// MedicalRecord is created together with its appointment and deleted when
// the appointment is cancelled.
type MedicalRecord struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID     uuid.UUID `gorm:"column:patient_id;type:char(36);not null;index"`
	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:char(36);not null;index"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:char(36);not null;uniqueIndex"`

	Diagnosis string `gorm:"column:diagnosis;type:text"`
	Treatment string `gorm:"column:treatment;type:text"`
	Notes     string `gorm:"column:notes;type:text"`

	PrescribedMedicines []PrescribedMedicine `gorm:"column:prescribed_medicines;serializer:json"`
	TotalCost           decimal.Decimal      `gorm:"column:total_cost;type:decimal(14,2);not null;default:0"`

	PaymentStatus PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;default:'Unpaid';index"`
	PaymentLink   string        `gorm:"column:payment_link;type:text"`
	QRCode        string        `gorm:"column:qr_code;type:text"`
	OrderCode     *int64        `gorm:"column:order_code;uniqueIndex"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}

// HasClinicalContent reports whether the doctor has filled in the record.
func (r *MedicalRecord) HasClinicalContent() bool {
	return r.Diagnosis != "" || r.Treatment != "" || r.Notes != "" || len(r.PrescribedMedicines) > 0
}

func (r *MedicalRecord) setPaymentStatus(status PaymentStatus) {
	r.PaymentStatus = status
	for i := range r.PrescribedMedicines {
		r.PrescribedMedicines[i].PaymentStatus = status
	}
}

// SetPrescription replaces the line items, computes line totals and the
// record total, and returns the total.
func (r *MedicalRecord) SetPrescription(lines []PrescribedMedicine) decimal.Decimal {
	total := decimal.Zero
	items := make([]PrescribedMedicine, 0, len(lines))
	for _, l := range lines {
		l.Total = l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		total = total.Add(l.Total)
		items = append(items, l)
	}
	r.PrescribedMedicines = items
	r.TotalCost = total
	return total
}

// AwaitPayment attaches a freshly created payment link.
func (r *MedicalRecord) AwaitPayment(orderCode int64, link, qrCode string) {
	r.OrderCode = &orderCode
	r.PaymentLink = link
	r.QRCode = qrCode
	r.setPaymentStatus(PaymentPending)
}

// ClearPayment resets the record to an unpaid state with no payment link.
func (r *MedicalRecord) ClearPayment() {
	r.OrderCode = nil
	r.PaymentLink = ""
	r.QRCode = ""
	r.setPaymentStatus(PaymentUnpaid)
}

// MarkPaid returns false when the record was already paid.
func (r *MedicalRecord) MarkPaid() bool {
	if r.PaymentStatus == PaymentPaid {
		return false
	}
	r.setPaymentStatus(PaymentPaid)
	return true
}

// MarkCancelled returns false when the record is already cancelled or paid.
func (r *MedicalRecord) MarkCancelled() bool {
	if r.PaymentStatus == PaymentCancelled || r.PaymentStatus == PaymentPaid {
		return false
	}
	r.setPaymentStatus(PaymentCancelled)
	return true
}

type PrescriptionLine struct {
	MedicineID uuid.UUID
	Quantity   int
}

// UpdateRecordCommand patches a record; nil fields keep their value. A non-nil
// PrescribedMedicines replaces the whole prescription.
type UpdateRecordCommand struct {
	Diagnosis           *string
	Treatment           *string
	Notes               *string
	PrescribedMedicines *[]PrescriptionLine
}

func (c *UpdateRecordCommand) ApplyNotes(r *MedicalRecord) {
	if c.Diagnosis != nil {
		r.Diagnosis = *c.Diagnosis
	}
	if c.Treatment != nil {
		r.Treatment = *c.Treatment
	}
	if c.Notes != nil {
		r.Notes = *c.Notes
	}
}

type ListRecordsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	// Only records with clinical content.
	OnlyFilled bool
}
