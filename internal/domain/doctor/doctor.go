package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is the professional profile of a user with the doctor role.
// Appointments and slots reference the doctor by UserID.
type Doctor struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	UserID         uuid.UUID `gorm:"column:user_id;type:char(36);not null;uniqueIndex"`
	Specialty      string    `gorm:"column:specialty;type:varchar(120)"`
	Experience     int       `gorm:"column:experience"`
	Qualifications []string  `gorm:"column:qualifications;serializer:json"`
}

func (Doctor) TableName() string {
	return "doctors"
}

// AppointmentLink is the doctor's list of booked appointments.
type AppointmentLink struct {
	DoctorID      uuid.UUID `gorm:"column:doctor_id;type:char(36);primaryKey"`
	AppointmentID uuid.UUID `gorm:"column:appointment_id;type:char(36);primaryKey;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (AppointmentLink) TableName() string {
	return "doctor_appointments"
}
