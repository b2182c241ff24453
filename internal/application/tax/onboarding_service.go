package tax

import (
	"context"

	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// OnboardingPayload is the event sent when a company is onboarded
type OnboardingPayload struct {
	Data OnboardingData `json:"data" binding:"required"`
}

// OnboardingData lists the taxes and categories to create for a new
// company and branch
type OnboardingData struct {
	CompanyID   int64                      `json:"company_id" binding:"required"`
	BranchID    int64                      `json:"branch_id" binding:"required"`
	Tax         []CreateTaxRequest         `json:"tax"`
	TaxCategory []CreateTaxCategoryRequest `json:"tax_category"`
}

// SeedResult counts the records a seed created and the ones it skipped
type SeedResult struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// OnboardingService seeds the tax setup of newly onboarded companies
type OnboardingService struct {
	taxes      *TaxService
	categories *TaxCategoryService
}

// NewOnboardingService creates a new OnboardingService
func NewOnboardingService(taxes *TaxService, categories *TaxCategoryService) *OnboardingService {
	return &OnboardingService{taxes: taxes, categories: categories}
}

// Seed creates every tax then every category of the payload. Items are
// independent: an invalid item is logged and counted, the rest proceed.
func (s *OnboardingService) Seed(ctx context.Context, payload OnboardingPayload) SeedResult {
	data := payload.Data
	ctx, span := telemetry.StartServiceSpan(ctx, "onboarding", "seed",
		attribute.Int64("company_id", data.CompanyID),
		attribute.Int64("branch_id", data.BranchID),
	)
	defer span.End()

	companyID, branchID := data.CompanyID, data.BranchID
	actor := Actor{CompanyID: &companyID, BranchID: &branchID}
	ctx = logger.WithCompanyID(ctx, companyID)
	log := logger.L(ctx)

	var res SeedResult
	for _, req := range data.Tax {
		if _, err := s.taxes.Create(ctx, actor, req); err != nil {
			log.Error("failed to create tax", zap.String("name", req.Name), zap.Error(err))
			res.Failed++
			continue
		}
		res.Created++
	}
	for _, req := range data.TaxCategory {
		if _, err := s.categories.Create(ctx, actor, req); err != nil {
			log.Error("failed to create tax category", zap.String("name", req.Name), zap.Error(err))
			res.Failed++
			continue
		}
		res.Created++
	}

	span.SetAttributes(attribute.Int("created", res.Created), attribute.Int("failed", res.Failed))
	log.Info("onboarding seed finished", zap.Int("created", res.Created), zap.Int("failed", res.Failed))
	return res
}
