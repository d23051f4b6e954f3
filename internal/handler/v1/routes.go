package v1

import (
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth           *AuthHandler
	Appointments   *AppointmentHandler
	Schedules      *ScheduleHandler
	MedicalRecords *MedicalRecordHandler
}

// Register mounts the v1 API on rg. auth must set the caller identity.
func (h *Handlers) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	var (
		admin   = domain.RoleAdmin
		doctor  = domain.RoleDoctor
		patient = domain.RolePatient
		anyone  = middleware.RequireRole(admin, doctor, patient)
	)

	// Public: token refresh, schedule browsing and payment provider
	// redirects.
	rg.POST("/auth/refresh", h.Auth.Refresh)
	rg.GET("/schedule/:doctorId", h.Schedules.ListByDoctor)
	rg.GET("/medical-records/payment-success", h.MedicalRecords.PaymentSuccess)
	rg.GET("/medical-records/payment-cancel", h.MedicalRecords.PaymentCancel)

	authed := rg.Group("", auth)

	appts := authed.Group("/appointments")
	appts.POST("", middleware.RequireRole(patient, admin), h.Appointments.Create)
	appts.GET("", middleware.RequireRole(patient), h.Appointments.ListMine)
	appts.GET("/doctor", middleware.RequireRole(doctor), h.Appointments.ListDoctor)
	appts.GET("/:id", anyone, h.Appointments.Get)
	appts.PUT("/:id/status", middleware.RequireRole(doctor, admin), h.Appointments.UpdateStatus)
	appts.DELETE("/:id/cancel", anyone, h.Appointments.Cancel)
	appts.PUT("/:id/reschedule", anyone, h.Appointments.Reschedule)

	sched := authed.Group("/doctor/schedule")
	sched.POST("", middleware.RequireRole(doctor, admin), h.Schedules.Create)
	sched.GET("/me", middleware.RequireRole(doctor), h.Schedules.ListMine)
	sched.PUT("/:slotId", middleware.RequireRole(doctor, admin), h.Schedules.Update)

	records := authed.Group("/medical-records")
	records.GET("", middleware.RequireRole(admin), h.MedicalRecords.List)
	records.GET("/me", middleware.RequireRole(patient), h.MedicalRecords.ListMine)
	records.GET("/updated", middleware.RequireRole(patient), h.MedicalRecords.ListUpdated)
	records.GET("/doctor", middleware.RequireRole(doctor), h.MedicalRecords.ListDoctor)
	records.GET("/:id", anyone, h.MedicalRecords.Get)
	records.PUT("/:id", middleware.RequireRole(doctor, admin), h.MedicalRecords.Update)
}
