package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medicine"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/payment"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OrderCodeFunc yields a fresh payment correlation id.
type OrderCodeFunc func() int64

// NewOrderCode derives a positive order code from a random UUID.
func NewOrderCode() int64 {
	return int64(uuid.New().ID())
}

type MedicalRecordService struct {
	repo       mr.Repository
	medicines  medicine.Repository
	gateway    payment.Gateway
	tx         Transactor
	orderCodes OrderCodeFunc
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
}

func NewMedicalRecordService(
	repo mr.Repository,
	medicines medicine.Repository,
	gateway payment.Gateway,
	tx Transactor,
	orderCodes OrderCodeFunc,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *MedicalRecordService {
	if orderCodes == nil {
		orderCodes = NewOrderCode
	}
	return &MedicalRecordService{
		repo:       repo,
		medicines:  medicines,
		gateway:    gateway,
		tx:         tx,
		orderCodes: orderCodes,
		auditSvc:   auditSvc,
		metrics:    collector,
		log:        log,
	}
}

// CreateFor creates the empty, unpaid record of a new appointment. It joins
// the caller's transaction when ctx carries one.
func (s *MedicalRecordService) CreateFor(ctx context.Context, a *appointment.Appointment) (*mr.MedicalRecord, error) {
	rec := &mr.MedicalRecord{
		PatientID:           a.PatientID,
		DoctorID:            a.DoctorID,
		AppointmentID:       a.ID,
		PrescribedMedicines: []mr.PrescribedMedicine{},
		PaymentStatus:       mr.PaymentUnpaid,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating medical record: %w", err)
	}
	return rec, nil
}

func (s *MedicalRecordService) ForAppointment(ctx context.Context, appointmentID uuid.UUID) (*mr.MedicalRecord, error) {
	return s.repo.GetByAppointmentID(ctx, appointmentID)
}

func (s *MedicalRecordService) DeleteFor(ctx context.Context, appointmentID uuid.UUID) error {
	if err := s.repo.DeleteByAppointmentID(ctx, appointmentID); err != nil {
		return fmt.Errorf("deleting medical record: %w", err)
	}
	return nil
}

func (s *MedicalRecordService) authorize(caller domain.Identity, rec *mr.MedicalRecord) error {
	switch {
	case caller.IsAdmin():
		return nil
	case caller.Role == domain.RoleDoctor && caller.UserID == rec.DoctorID:
		return nil
	case caller.Role == domain.RolePatient && caller.UserID == rec.PatientID:
		return nil
	}
	return ErrForbidden
}

func (s *MedicalRecordService) GetRecord(ctx context.Context, id uuid.UUID, caller domain.Identity) (*mr.MedicalRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRecord applies the doctor's notes and prescription. Stock
// decrements, the record write and the payment link request form one unit:
// if any of them fails nothing is persisted.
func (s *MedicalRecordService) UpdateRecord(ctx context.Context, id uuid.UUID, cmd *mr.UpdateRecordCommand, caller domain.Identity) (_ *mr.MedicalRecord, err error) {
	ctx, span := tracer.Start(ctx, "MedicalRecordService.UpdateRecord")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("record_id", id.String()))

	if caller.Role != domain.RoleDoctor && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if cmd.PrescribedMedicines != nil {
		var fields []string
		for i, line := range *cmd.PrescribedMedicines {
			if line.MedicineID == uuid.Nil {
				fields = append(fields, fmt.Sprintf("prescribed_medicines[%d].medicine_id is required", i))
			}
			if line.Quantity <= 0 {
				fields = append(fields, fmt.Sprintf("prescribed_medicines[%d].quantity must be greater than zero", i))
			}
		}
		if len(fields) > 0 {
			return nil, validationError(fields...)
		}
	}

	var updated *mr.MedicalRecord
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if caller.Role == domain.RoleDoctor && rec.DoctorID != caller.UserID {
			return ErrForbidden
		}

		cmd.ApplyNotes(rec)

		if cmd.PrescribedMedicines != nil {
			if err := s.prescribe(ctx, rec, *cmd.PrescribedMedicines); err != nil {
				return err
			}
		}

		if err := s.repo.Update(ctx, rec); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cmd.PrescribedMedicines != nil {
		s.metrics.PrescriptionsIssued.Inc()
	}
	s.log.Info("medical record updated",
		zap.String("record_id", updated.ID.String()),
		zap.String("payment_status", string(updated.PaymentStatus)),
		zap.String("total_cost", updated.TotalCost.String()),
	)
	s.auditSvc.LogAsync(ctx, auditEntry(caller, domain.ActionUpdate, "medical_record", updated.ID,
		fmt.Sprintf(`{"total_cost":%q,"payment_status":%q}`, updated.TotalCost.String(), updated.PaymentStatus)))

	return updated, nil
}

// prescribe decrements stock per line, prices the prescription and, when
// there is something to pay, requests a payment link.
func (s *MedicalRecordService) prescribe(ctx context.Context, rec *mr.MedicalRecord, lines []mr.PrescriptionLine) error {
	items := make([]mr.PrescribedMedicine, 0, len(lines))
	for _, line := range lines {
		med, err := s.medicines.GetByID(ctx, line.MedicineID)
		if err != nil {
			return err
		}
		if err := s.medicines.DecrementStock(ctx, line.MedicineID, line.Quantity); err != nil {
			return err
		}
		items = append(items, mr.PrescribedMedicine{
			MedicineID: med.ID,
			Name:       med.Name,
			Quantity:   line.Quantity,
			Price:      med.Price,
		})
	}

	total := rec.SetPrescription(items)
	if !total.IsPositive() {
		rec.ClearPayment()
		return nil
	}

	// Runs while the record and stock rows are locked so a failed link
	// rolls the stock back. The gateway timeout and breaker bound the wait.
	orderCode := s.orderCodes()
	link, err := s.gateway.CreatePaymentLink(ctx, payment.LinkRequest{
		OrderCode:   orderCode,
		Amount:      total.Ceil().IntPart(),
		Description: fmt.Sprintf("Rx %d", orderCode),
	})
	if err != nil {
		s.metrics.PaymentLinksTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("creating payment link: %w", err)
	}
	s.metrics.PaymentLinksTotal.WithLabelValues("created").Inc()

	rec.AwaitPayment(orderCode, link.CheckoutURL, link.QRCode)
	return nil
}

// MarkPaid applies a successful payment callback once the provider reports
// the order as paid. Repeated callbacks are no-ops.
func (s *MedicalRecordService) MarkPaid(ctx context.Context, orderCode int64) (*mr.MedicalRecord, error) {
	return s.applyPayment(ctx, orderCode, mr.PaymentPaid, (*mr.MedicalRecord).MarkPaid,
		payment.StatusPaid)
}

// MarkCancelled applies a cancelled payment callback once the provider
// reports the order as cancelled or expired. A paid record stays paid.
func (s *MedicalRecordService) MarkCancelled(ctx context.Context, orderCode int64) (*mr.MedicalRecord, error) {
	return s.applyPayment(ctx, orderCode, mr.PaymentCancelled, (*mr.MedicalRecord).MarkCancelled,
		payment.StatusCancelled, payment.StatusExpired)
}

func (s *MedicalRecordService) applyPayment(
	ctx context.Context,
	orderCode int64,
	target mr.PaymentStatus,
	apply func(*mr.MedicalRecord) bool,
	confirmedBy ...string,
) (_ *mr.MedicalRecord, err error) {
	ctx, span := tracer.Start(ctx, "MedicalRecordService.applyPayment")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.Int64("order_code", orderCode), attribute.String("target", string(target)))

	// Ask the provider before touching the row; the call stays outside the
	// transaction.
	providerStatus, err := s.gateway.PaymentStatus(ctx, orderCode)
	if err != nil {
		return nil, fmt.Errorf("confirming payment: %w", err)
	}
	if !slices.Contains(confirmedBy, providerStatus) {
		s.metrics.PaymentEventsTotal.WithLabelValues("unconfirmed").Inc()
		s.log.Warn("payment callback not confirmed by provider",
			zap.Int64("order_code", orderCode),
			zap.String("target", string(target)),
			zap.String("provider_status", providerStatus),
		)
		return nil, mr.ErrPaymentNotConfirmed
	}

	var (
		rec     *mr.MedicalRecord
		changed bool
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.LockByOrderCode(ctx, orderCode)
		if err != nil {
			return err
		}
		if changed = apply(rec); !changed {
			return nil
		}
		return s.repo.Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.metrics.PaymentEventsTotal.WithLabelValues(string(target)).Inc()
		s.log.Info("payment status updated",
			zap.Int64("order_code", orderCode),
			zap.String("record_id", rec.ID.String()),
			zap.String("payment_status", string(rec.PaymentStatus)),
		)
	} else {
		s.log.Debug("payment callback ignored",
			zap.Int64("order_code", orderCode),
			zap.String("payment_status", string(rec.PaymentStatus)),
		)
	}
	return rec, nil
}

// ListDoctorRecords returns the records of the calling doctor.
func (s *MedicalRecordService) ListDoctorRecords(ctx context.Context, caller domain.Identity) ([]*mr.MedicalRecord, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, &mr.ListRecordsQuery{DoctorID: &caller.UserID})
}

// ListPatientRecords returns the calling patient's records; with onlyFilled,
// just those a doctor has written into.
func (s *MedicalRecordService) ListPatientRecords(ctx context.Context, caller domain.Identity, onlyFilled bool) ([]*mr.MedicalRecord, error) {
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, &mr.ListRecordsQuery{PatientID: &caller.UserID, OnlyFilled: onlyFilled})
}

func (s *MedicalRecordService) ListRecords(ctx context.Context, q *mr.ListRecordsQuery, caller domain.Identity) ([]*mr.MedicalRecord, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx, q)
}
