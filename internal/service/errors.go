package service

import (
	"strings"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/google/uuid"
)

var ErrForbidden = domain.NewError(domain.ErrUnauthorized, "forbidden: insufficient permissions")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func validationError(fields ...string) error {
	return &ValidationError{Fields: fields}
}

type AuditEntry struct {
	UserID       uuid.UUID
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	IPAddress    string
	RequestID    string
	Changes      string
}

func auditEntry(caller domain.Identity, action domain.AuditAction, resource string, id uuid.UUID, changes string) AuditEntry {
	return AuditEntry{
		UserID:       caller.UserID,
		UserRole:     caller.Role,
		Action:       action,
		ResourceType: resource,
		ResourceID:   id.String(),
		IPAddress:    caller.IPAddress,
		RequestID:    caller.RequestID,
		Changes:      changes,
	}
}
