package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/schedule"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ScheduleService interface {
	CreateSlot(ctx context.Context, cmd *schedule.CreateSlotCommand, caller domain.Identity) (*schedule.Slot, error)
	ListSchedule(ctx context.Context, doctorID uuid.UUID) ([]*schedule.Slot, error)
	ListMySchedule(ctx context.Context, caller domain.Identity) ([]*schedule.Slot, error)
	UpdateSlot(ctx context.Context, slotID uuid.UUID, cmd *schedule.UpdateSlotCommand, caller domain.Identity) (*schedule.Slot, error)
}

type ScheduleHandler struct {
	svc ScheduleService
}

func NewScheduleHandler(svc ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// Create handles POST /doctor/schedule.
func (h *ScheduleHandler) Create(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	var req CreateSlotRequest
	if !bindJSON(c, &req) {
		return
	}
	date, ok := parseDate(c, req.Date)
	if !ok {
		return
	}

	slot, err := h.svc.CreateSlot(c.Request.Context(), &schedule.CreateSlotCommand{
		DoctorID: req.DoctorID,
		Date:     date,
		Window:   req.toWindow(),
	}, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, toSlotResponse(slot))
}

// ListMine handles GET /doctor/schedule/me.
func (h *ScheduleHandler) ListMine(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	slots, err := h.svc.ListMySchedule(c.Request.Context(), caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toSlotResponses(slots))
}

// ListByDoctor handles GET /schedule/:doctorId.
func (h *ScheduleHandler) ListByDoctor(c *gin.Context) {
	doctorID, ok := parseUUID(c, "doctorId")
	if !ok {
		return
	}
	slots, err := h.svc.ListSchedule(c.Request.Context(), doctorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toSlotResponses(slots))
}

// Update handles PUT /doctor/schedule/:slotId with patch semantics.
func (h *ScheduleHandler) Update(c *gin.Context) {
	caller, ok := identity(c)
	if !ok {
		return
	}
	slotID, ok := parseUUID(c, "slotId")
	if !ok {
		return
	}
	var req UpdateSlotRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &schedule.UpdateSlotCommand{
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsAvailable: req.IsAvailable,
	}
	if req.Date != nil {
		date, ok := parseDate(c, *req.Date)
		if !ok {
			return
		}
		cmd.Date = &date
	}
	if req.Shift != nil {
		shift := schedule.Shift(*req.Shift)
		cmd.Shift = &shift
	}

	slot, err := h.svc.UpdateSlot(c.Request.Context(), slotID, cmd, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, toSlotResponse(slot))
}
