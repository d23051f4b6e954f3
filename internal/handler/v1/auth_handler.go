package v1

import (
	"context"

	"github.com/dmehra2102/prod-golang-projects/clinicbook/internal/domain"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh handles POST /auth/refresh. The caller's role and status are
// re-read, so a demoted or deactivated account stops getting tokens.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	pair, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}
