package tax

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const categoryService = "tax_category"

// TaxCategoryService handles tax category use cases
type TaxCategoryService struct {
	repo tax.CategoryRepository
	serviceOptions
}

// NewTaxCategoryService creates a new TaxCategoryService
func NewTaxCategoryService(repo tax.CategoryRepository, opts ...ServiceOption) *TaxCategoryService {
	return &TaxCategoryService{
		repo:           repo,
		serviceOptions: newServiceOptions(opts),
	}
}

// Create creates a new category as the root of its chain
func (s *TaxCategoryService) Create(ctx context.Context, actor Actor, req CreateTaxCategoryRequest) (*TaxCategoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, categoryService, "create")
	defer span.End()

	category, err := tax.NewTaxCategory(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	category.CreateUID = actor.UserID
	category.CompanyID = actor.CompanyID
	category.BranchID = actor.BranchID

	start := time.Now()
	outcome, err := s.repo.Save(ctx, category)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordSave(ctx, tax.CategoryRevisionConfig.Entity, outcome, start)

	logger.L(ctx).Info("tax category created",
		zap.Int64("id", category.ID),
		zap.String("code", category.Code),
	)
	resp := ToTaxCategoryResponse(category)
	return &resp, nil
}

// Update applies the request to a category. The returned record is the
// head of the chain after the save.
func (s *TaxCategoryService) Update(ctx context.Context, actor Actor, id int64, req UpdateTaxCategoryRequest) (*SaveResult[TaxCategoryResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, categoryService, "update", attribute.Int64("id", id))
	defer span.End()

	category, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	name, description := category.Name, category.Description
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}
	if err := category.Update(name, description); err != nil {
		return nil, err
	}
	if req.Version != nil {
		category.Version = *req.Version
	}
	category.Touch(actor.UserID, s.now())

	start := time.Now()
	outcome, err := s.repo.Save(ctx, category)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordSave(ctx, tax.CategoryRevisionConfig.Entity, outcome, start)
	span.SetAttributes(telemetry.AttrOutcome.String(string(outcome)))

	if outcome == revision.OutcomeForked {
		logger.L(ctx).Info("tax category revision forked",
			zap.Int64("previous_id", id),
			zap.Int64("id", category.ID),
		)
	}
	return &SaveResult[TaxCategoryResponse]{Record: ToTaxCategoryResponse(category), Outcome: outcome}, nil
}

// Delete archives then removes the whole chain containing id
func (s *TaxCategoryService) Delete(ctx context.Context, actor Actor, id int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, categoryService, "delete", attribute.Int64("id", id))
	defer span.End()

	category, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return err
	}
	entity := tax.CategoryRevisionConfig.Entity
	if err := s.archive(ctx, entity, category.RootID(), ToTaxCategoryResponses(history)); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("archive %s chain %d: %w", entity, category.RootID(), err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.metrics.RecordChainDeleted(ctx, entity)

	logger.L(ctx).Info("tax category chain deleted",
		zap.Int64("root_id", category.RootID()),
		zap.Int("revisions", len(history)),
	)
	return nil
}

// GetByID returns a single revision
func (s *TaxCategoryService) GetByID(ctx context.Context, actor Actor, id int64) (*TaxCategoryResponse, error) {
	category, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := ToTaxCategoryResponse(category)
	return &resp, nil
}

// List returns a page of active heads in the actor's company
func (s *TaxCategoryService) List(ctx context.Context, actor Actor, filter shared.Filter) (shared.Paginated[TaxCategoryResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, categoryService, "list")
	defer span.End()

	page, err := s.repo.FindAll(ctx, actor.scope(filter))
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[TaxCategoryResponse]{}, err
	}
	return shared.Paginated[TaxCategoryResponse]{
		Items:    ToTaxCategoryResponses(page.Items),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Unpaged:  page.Unpaged,
	}, nil
}

// History returns every revision of the chain containing id, oldest first
func (s *TaxCategoryService) History(ctx context.Context, actor Actor, id int64) ([]TaxCategoryResponse, error) {
	if _, err := s.find(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToTaxCategoryResponses(history), nil
}

// Latest returns the active head of the chain containing id
func (s *TaxCategoryService) Latest(ctx context.Context, actor Actor, id int64) (*TaxCategoryResponse, error) {
	category, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	head, err := s.repo.Latest(ctx, category)
	if err != nil {
		return nil, err
	}
	resp := ToTaxCategoryResponse(head)
	return &resp, nil
}

// ToggleForceChange flips the force change flag of an active head
func (s *TaxCategoryService) ToggleForceChange(ctx context.Context, actor Actor, id int64) (*TaxCategoryResponse, error) {
	if _, err := s.find(ctx, actor, id); err != nil {
		return nil, err
	}
	category, err := s.repo.ToggleForceChange(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("tax category force change toggled",
		zap.Int64("id", id),
		zap.Bool("force_change", category.ForceChange),
	)
	resp := ToTaxCategoryResponse(category)
	return &resp, nil
}

// find loads a revision visible to the actor. Records of other companies
// are reported as not found.
func (s *TaxCategoryService) find(ctx context.Context, actor Actor, id int64) (*tax.TaxCategory, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(category.CompanyID) {
		return nil, shared.ErrNotFound
	}
	return category, nil
}
