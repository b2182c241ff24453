package handler

import (
	"context"

	taxapp "github.com/erp/taxsvc/internal/application/tax"
	"github.com/gin-gonic/gin"
)

// Seeder creates the initial tax setup of a company
type Seeder interface {
	Seed(ctx context.Context, payload taxapp.OnboardingPayload) taxapp.SeedResult
}

// OnboardingHandler receives company onboarding events
type OnboardingHandler struct {
	BaseHandler
	seeder Seeder
}

// NewOnboardingHandler creates a new OnboardingHandler
func NewOnboardingHandler(base BaseHandler, seeder Seeder) *OnboardingHandler {
	return &OnboardingHandler{BaseHandler: base, seeder: seeder}
}

// Seed godoc
// @ID           seedOnboardingTax
// @Summary      Seed taxes of an onboarded company
// @Description  Creates the listed taxes then categories for the company and branch. Invalid items are skipped and counted as failed.
// @Tags         onboarding
// @Accept       json
// @Produce      json
// @Param        request body taxapp.OnboardingPayload true "Onboarding event"
// @Success      200 {object} APIResponse[taxapp.SeedResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /internal/onboarding/tax [post]
func (h *OnboardingHandler) Seed(c *gin.Context) {
	var payload taxapp.OnboardingPayload
	if !h.bindJSON(c, &payload) {
		return
	}
	h.Success(c, h.seeder.Seed(c.Request.Context(), payload))
}
