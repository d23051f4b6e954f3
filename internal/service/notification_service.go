package service

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	notificationBufferSize = 1_000
	notifyTimeout          = 10 * time.Second
)

type patientEmail struct {
	patientID uuid.UUID
	subject   string
	body      string
}

// NotificationService emails patients from a single background worker.
// Sends are best-effort: a full queue drops the email and failures are
// logged and counted only.
type NotificationService struct {
	users    UserRepository
	notifier notify.Notifier
	metrics  *metrics.Collector
	log      *zap.Logger
	queue    chan patientEmail
	done     chan struct{}
}

func NewNotificationService(users UserRepository, notifier notify.Notifier, collector *metrics.Collector, log *zap.Logger) *NotificationService {
	svc := &NotificationService{
		users:    users,
		notifier: notifier,
		metrics:  collector,
		log:      log,
		queue:    make(chan patientEmail, notificationBufferSize),
		done:     make(chan struct{}),
	}
	go svc.worker()
	return svc
}

// NotifyPatient enqueues an email to the patient and never blocks.
func (s *NotificationService) NotifyPatient(patientID uuid.UUID, subject, body string) {
	select {
	case s.queue <- patientEmail{patientID: patientID, subject: subject, body: body}:
	default:
		s.metrics.SideEffectFailures.WithLabelValues("notification_dropped").Inc()
		s.log.Warn("notification queue full, dropping email",
			zap.String("patient_id", patientID.String()),
			zap.String("subject", subject),
		)
	}
}

// Shutdown stops accepting emails and waits for the queued ones to go out.
func (s *NotificationService) Shutdown() {
	close(s.queue)
	select {
	case <-s.done:
	case <-time.After(notifyTimeout):
		s.log.Warn("notification shutdown timed out; queued emails may be lost")
	}
}

func (s *NotificationService) worker() {
	defer close(s.done)
	for email := range s.queue {
		s.send(email)
	}
}

func (s *NotificationService) send(email patientEmail) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	user, err := s.users.GetByID(ctx, email.patientID)
	if err == nil {
		err = s.notifier.SendEmail(ctx, user.Email, email.subject, email.body)
	}
	if err != nil {
		s.metrics.SideEffectFailures.WithLabelValues("notification").Inc()
		s.log.Warn("failed to send notification",
			zap.String("patient_id", email.patientID.String()),
			zap.String("subject", email.subject),
			zap.Error(err),
		)
	}
}
