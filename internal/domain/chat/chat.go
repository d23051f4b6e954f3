package chat

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	SenderID uuid.UUID `json:"sender_id"`
	Content  string    `json:"content"`
	SentAt   time.Time `json:"sent_at"`
}

// Channel is the doctor-patient conversation opened once an appointment
// completes. There is at most one channel per appointment.
type Channel struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:char(36);not null;index"`
	PatientID     uuid.UUID `gorm:"column:patient_id;type:char(36);not null;index"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:char(36);not null;uniqueIndex"`

	Messages []Message `gorm:"column:messages;serializer:json"`
}

func (Channel) TableName() string {
	return "chat_channels"
}

func NewChannel(doctorID, patientID, appointmentID uuid.UUID) *Channel {
	return &Channel{
		DoctorID:      doctorID,
		PatientID:     patientID,
		AppointmentID: appointmentID,
		Messages:      []Message{},
	}
}
