package service

import (
	"context"
	"errors"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/chat"
	mr "github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medical_record"
	"github.com/google/uuid"
)

type PersonSummary struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Phone    string
}

type DoctorSummary struct {
	PersonSummary
	Specialty      string
	Experience     int
	Qualifications []string
}

// AppointmentView is an appointment with its participants resolved.
type AppointmentView struct {
	*appointment.Appointment
	Doctor  *DoctorSummary
	Patient *PersonSummary
}

// AppointmentDetail is one appointment with the records bound to it. Either
// may be nil: cancelled appointments have no medical record and the chat
// channel only exists once the appointment completes.
type AppointmentDetail struct {
	*appointment.Appointment
	MedicalRecord *mr.MedicalRecord
	Channel       *chat.Channel
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, caller domain.Identity) (*AppointmentDetail, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(caller, a); err != nil {
		return nil, err
	}

	detail := &AppointmentDetail{Appointment: a}
	detail.MedicalRecord, err = s.records.ForAppointment(ctx, a.ID)
	if err != nil && !errors.Is(err, mr.ErrRecordNotFound) {
		return nil, err
	}
	detail.Channel, err = s.completion.ChannelFor(ctx, a.ID)
	if err != nil && !errors.Is(err, chat.ErrChannelNotFound) {
		return nil, err
	}
	return detail, nil
}

func summarize(u *domain.User) *PersonSummary {
	if u == nil {
		return nil
	}
	return &PersonSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Phone: u.Phone}
}

// ListPatientAppointments returns the caller's appointments with doctor
// details, loaded in one batch.
func (s *AppointmentService) ListPatientAppointments(ctx context.Context, caller domain.Identity) ([]*AppointmentView, error) {
	if caller.Role != domain.RolePatient {
		return nil, ErrForbidden
	}
	list, err := s.repo.ListByPatient(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, list, true, false)
}

// ListDoctorAppointments returns the caller's appointments with patient
// details.
func (s *AppointmentService) ListDoctorAppointments(ctx context.Context, caller domain.Identity) ([]*AppointmentView, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	list, err := s.repo.ListByDoctor(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, list, false, true)
}

func (s *AppointmentService) resolve(ctx context.Context, list []*appointment.Appointment, withDoctor, withPatient bool) ([]*AppointmentView, error) {
	seen := make(map[uuid.UUID]struct{})
	var userIDs, doctorIDs []uuid.UUID
	for _, a := range list {
		if withDoctor {
			if _, ok := seen[a.DoctorID]; !ok {
				seen[a.DoctorID] = struct{}{}
				userIDs = append(userIDs, a.DoctorID)
				doctorIDs = append(doctorIDs, a.DoctorID)
			}
		}
		if withPatient {
			if _, ok := seen[a.PatientID]; !ok {
				seen[a.PatientID] = struct{}{}
				userIDs = append(userIDs, a.PatientID)
			}
		}
	}

	users := map[uuid.UUID]*domain.User{}
	if len(userIDs) > 0 {
		var err error
		if users, err = s.users.ListByIDs(ctx, userIDs); err != nil {
			return nil, err
		}
	}

	views := make([]*AppointmentView, 0, len(list))
	if !withDoctor {
		for _, a := range list {
			views = append(views, &AppointmentView{Appointment: a, Patient: summarize(users[a.PatientID])})
		}
		return views, nil
	}

	doctors, err := s.doctors.ListByUserIDs(ctx, doctorIDs)
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		v := &AppointmentView{Appointment: a}
		if withPatient {
			v.Patient = summarize(users[a.PatientID])
		}
		if person := summarize(users[a.DoctorID]); person != nil {
			v.Doctor = &DoctorSummary{PersonSummary: *person}
			if d, ok := doctors[a.DoctorID]; ok {
				v.Doctor.Specialty = d.Specialty
				v.Doctor.Experience = d.Experience
				v.Doctor.Qualifications = d.Qualifications
			}
		}
		views = append(views, v)
	}
	return views, nil
}
