package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain/medicine"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/middleware"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/service"
	"github.com/dmehra2102/prod-golang-projects/clinicbook/pkg/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps error kinds to HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	var stockErr *medicine.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error: "insufficient stock",
			Code:  "INSUFFICIENT_STOCK",
			Details: map[string]string{
				"medicine_id": stockErr.MedicineID.String(),
				"requested":   strconv.Itoa(stockErr.Requested),
				"available":   strconv.Itoa(stockErr.Available),
			},
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})

	case errors.Is(err, domain.ErrSlotUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "SLOT_UNAVAILABLE"})

	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "CONFLICT"})

	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "INVALID_TRANSITION"})

	case errors.Is(err, domain.ErrInsufficientStock):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "INSUFFICIENT_STOCK"})

	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_STATUS"})

	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAccountInactive):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied"})

	case errors.Is(err, payment.ErrGatewayUnavailable):
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "payment provider unavailable, try again later",
			Code:  "PAYMENT_UNAVAILABLE",
		})

	case errors.Is(err, payment.ErrGatewayRejected):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider rejected the request", Code: "PAYMENT_REJECTED"})

	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + param + ": must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

// identity reads the caller set by the auth middleware; a missing identity
// means the route was mounted without it.
func identity(c *gin.Context) (domain.Identity, bool) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
	}
	return id, ok
}
