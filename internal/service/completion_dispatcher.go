package service

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompletionDispatcher runs the side effects of an appointment reaching
// completed. They are best-effort: failures are logged and counted.
type CompletionDispatcher struct {
	chats   chat.Repository
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewCompletionDispatcher(chats chat.Repository, collector *metrics.Collector, log *zap.Logger) *CompletionDispatcher {
	return &CompletionDispatcher{chats: chats, metrics: collector, log: log}
}

// Dispatch opens the doctor-patient chat channel for a. Safe to call any
// number of times for the same appointment.
func (d *CompletionDispatcher) Dispatch(ctx context.Context, a *appointment.Appointment) {
	ctx, span := tracer.Start(ctx, "CompletionDispatcher.Dispatch")
	defer span.End()

	created, err := d.chats.EnsureChannel(ctx, chat.NewChannel(a.DoctorID, a.PatientID, a.ID))
	if err != nil {
		span.RecordError(err)
		d.metrics.SideEffectFailures.WithLabelValues("chat_channel").Inc()
		d.log.Error("failed to open chat channel for completed appointment",
			zap.String("appointment_id", a.ID.String()),
			zap.Error(err),
		)
		return
	}

	if created {
		d.metrics.ChatChannelsCreated.Inc()
		d.log.Info("chat channel opened",
			zap.String("appointment_id", a.ID.String()),
			zap.String("doctor_id", a.DoctorID.String()),
			zap.String("patient_id", a.PatientID.String()),
		)
	}
}

// ChannelFor returns the channel opened for the appointment, or
// chat.ErrChannelNotFound before it completes.
func (d *CompletionDispatcher) ChannelFor(ctx context.Context, appointmentID uuid.UUID) (*chat.Channel, error) {
	return d.chats.GetByAppointmentID(ctx, appointmentID)
}
