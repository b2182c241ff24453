package tax

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/erp/taxsvc/internal/domain/revision"
	"github.com/erp/taxsvc/internal/domain/shared"
	"github.com/erp/taxsvc/internal/domain/shared/valueobject"
	"github.com/erp/taxsvc/internal/domain/tax"
	"github.com/erp/taxsvc/internal/infrastructure/logger"
	"github.com/erp/taxsvc/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const taxService = "tax"

// ErrUnknownTaxCategory is returned when a tax links a missing category
var ErrUnknownTaxCategory = shared.NewDomainError("INVALID_TAX_CATEGORY", "Tax category not found")

// TaxService handles tax use cases
type TaxService struct {
	repo         tax.Repository
	categoryRepo tax.CategoryRepository
	serviceOptions
}

// NewTaxService creates a new TaxService
func NewTaxService(repo tax.Repository, categoryRepo tax.CategoryRepository, opts ...ServiceOption) *TaxService {
	return &TaxService{
		repo:           repo,
		categoryRepo:   categoryRepo,
		serviceOptions: newServiceOptions(opts),
	}
}

// Create creates a new tax as the root of its chain
func (s *TaxService) Create(ctx context.Context, actor Actor, req CreateTaxRequest) (*TaxResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, taxService, "create")
	defer span.End()

	t, err := tax.NewTax(req.attributes())
	if err != nil {
		return nil, err
	}
	categories, err := s.loadCategories(ctx, actor, t.TaxCategoryIDs)
	if err != nil {
		return nil, err
	}
	t.CreateUID = actor.UserID
	t.CompanyID = actor.CompanyID
	t.BranchID = actor.BranchID

	start := time.Now()
	outcome, err := s.repo.Save(ctx, t)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordSave(ctx, tax.TaxRevisionConfig.Entity, outcome, start)

	logger.L(ctx).Info("tax created",
		zap.Int64("id", t.ID),
		zap.String("code", t.Code),
	)
	resp := ToTaxResponse(t, categories)
	return &resp, nil
}

// Update applies the request to a tax. The returned record is the head of
// the chain after the save.
func (s *TaxService) Update(ctx context.Context, actor Actor, id int64, req UpdateTaxRequest) (*SaveResult[TaxResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, taxService, "update", attribute.Int64("id", id))
	defer span.End()

	t, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	linked := slices.Clone(t.TaxCategoryIDs)
	if err := t.Update(req.merge(t)); err != nil {
		return nil, err
	}
	if _, err := s.loadCategories(ctx, actor, req.TaxCategoryIDs, linked...); err != nil {
		return nil, err
	}
	if req.Version != nil {
		t.Version = *req.Version
	}
	t.Touch(actor.UserID, s.now())

	start := time.Now()
	outcome, err := s.repo.Save(ctx, t)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.recordSave(ctx, tax.TaxRevisionConfig.Entity, outcome, start)
	span.SetAttributes(telemetry.AttrOutcome.String(string(outcome)))

	if outcome == revision.OutcomeForked {
		logger.L(ctx).Info("tax revision forked",
			zap.Int64("previous_id", id),
			zap.Int64("id", t.ID),
		)
	}
	categories, err := s.categoriesOf(ctx, []tax.Tax{*t})
	if err != nil {
		return nil, err
	}
	return &SaveResult[TaxResponse]{Record: ToTaxResponse(t, categories), Outcome: outcome}, nil
}

// Delete archives then removes the whole chain containing id
func (s *TaxService) Delete(ctx context.Context, actor Actor, id int64) error {
	ctx, span := telemetry.StartServiceSpan(ctx, taxService, "delete", attribute.Int64("id", id))
	defer span.End()

	t, err := s.find(ctx, actor, id)
	if err != nil {
		return err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return err
	}
	responses, err := s.toResponses(ctx, history)
	if err != nil {
		return err
	}
	entity := tax.TaxRevisionConfig.Entity
	if err := s.archive(ctx, entity, t.RootID(), responses); err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("archive %s chain %d: %w", entity, t.RootID(), err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.metrics.RecordChainDeleted(ctx, entity)

	logger.L(ctx).Info("tax chain deleted",
		zap.Int64("root_id", t.RootID()),
		zap.Int("revisions", len(history)),
	)
	return nil
}

// GetByID returns a single revision
func (s *TaxService) GetByID(ctx context.Context, actor Actor, id int64) (*TaxResponse, error) {
	t, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, t)
}

// List returns a page of active heads in the actor's company
func (s *TaxService) List(ctx context.Context, actor Actor, filter shared.Filter) (shared.Paginated[TaxResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, taxService, "list")
	defer span.End()

	page, err := s.repo.FindAll(ctx, actor.scope(filter))
	if err != nil {
		telemetry.RecordError(span, err)
		return shared.Paginated[TaxResponse]{}, err
	}
	items, err := s.toResponses(ctx, page.Items)
	if err != nil {
		return shared.Paginated[TaxResponse]{}, err
	}
	return shared.Paginated[TaxResponse]{
		Items:    items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		Unpaged:  page.Unpaged,
	}, nil
}

// History returns every revision of the chain containing id, oldest first
func (s *TaxService) History(ctx context.Context, actor Actor, id int64) ([]TaxResponse, error) {
	if _, err := s.find(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, history)
}

// Latest returns the active head of the chain containing id
func (s *TaxService) Latest(ctx context.Context, actor Actor, id int64) (*TaxResponse, error) {
	t, err := s.find(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	head, err := s.repo.Latest(ctx, t)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, head)
}

// ToggleForceChange flips the force change flag of an active head
func (s *TaxService) ToggleForceChange(ctx context.Context, actor Actor, id int64) (*TaxResponse, error) {
	if _, err := s.find(ctx, actor, id); err != nil {
		return nil, err
	}
	t, err := s.repo.ToggleForceChange(ctx, id)
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("tax force change toggled",
		zap.Int64("id", id),
		zap.Bool("force_change", t.ForceChange),
	)
	return s.toResponse(ctx, t)
}

// Calculate prices the request under the active taxes it names
func (s *TaxService) Calculate(ctx context.Context, actor Actor, req CalculateRequest) (*CalculateResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, taxService, "calculate", attribute.Int("taxes", len(req.TaxIDs)))
	defer span.End()

	if req.BasePrice.IsNegative() || req.Discount.IsNegative() {
		return nil, shared.NewDomainError(tax.ErrInvalidCalculation.Code, "Price and discount cannot be negative")
	}
	if req.Discount.GreaterThan(req.BasePrice) {
		return nil, shared.NewDomainError(tax.ErrInvalidCalculation.Code, "Discount cannot exceed the base price")
	}

	ids := slices.Compact(slices.Sorted(slices.Values(req.TaxIDs)))
	taxes, err := s.repo.FindActiveByIDs(ctx, actor.CompanyID, ids)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(taxes) != len(ids) {
		return nil, shared.NewDomainError("TAX_NOT_FOUND", fmt.Sprintf("Taxes not found or inactive: %v", missingIDs(ids, taxes)))
	}

	calc := tax.Calculator{BasePrice: req.BasePrice, Discount: req.Discount}
	applied := make([]int64, 0, len(taxes))
	for i := range taxes {
		calc.Rates = append(calc.Rates, taxes[i].Rate())
		applied = append(applied, taxes[i].ID)
	}
	res, err := calc.Calculate()
	if err != nil {
		return nil, err
	}

	resp := &CalculateResponse{
		BasePrice:     res.BasePrice,
		FinalPrice:    res.FinalPrice,
		TotalTax:      res.TotalTax,
		Breakdown:     res.Breakdown,
		AppliedTaxIDs: applied,
	}
	if req.Currency != "" {
		currency := valueobject.Currency(req.Currency)
		final, err := valueobject.NewMoney(res.FinalPrice, currency)
		if err != nil {
			return nil, err
		}
		total, err := valueobject.NewMoney(res.TotalTax, currency)
		if err != nil {
			return nil, err
		}
		resp.DisplayFinal = final.Format(2, 2, valueobject.SymbolBefore)
		resp.DisplayTax = total.Format(2, 2, valueobject.SymbolBefore)
	}
	return resp, nil
}

func missingIDs(want []int64, found []tax.Tax) []int64 {
	var missing []int64
	for _, id := range want {
		if !slices.ContainsFunc(found, func(t tax.Tax) bool { return t.ID == id }) {
			missing = append(missing, id)
		}
	}
	return missing
}

// loadCategories fetches the named categories indexed by id. Every id must
// be a category of the actor's company, active unless it is among linked.
// A tax keeps its links to categories superseded by a fork.
func (s *TaxService) loadCategories(ctx context.Context, actor Actor, ids []int64, linked ...int64) (map[int64]tax.TaxCategory, error) {
	out := make(map[int64]tax.TaxCategory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	categories, err := s.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		if (c.Active || slices.Contains(linked, c.ID)) && actor.owns(c.CompanyID) {
			out[c.ID] = c
		}
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, shared.NewDomainError(ErrUnknownTaxCategory.Code, fmt.Sprintf("Tax category %d not found", id))
		}
	}
	return out, nil
}

// categoriesOf fetches the categories linked by any of taxes. Superseded
// categories are still shown on the revisions that link them.
func (s *TaxService) categoriesOf(ctx context.Context, taxes []tax.Tax) (map[int64]tax.TaxCategory, error) {
	var ids []int64
	for _, t := range taxes {
		ids = append(ids, t.TaxCategoryIDs...)
	}
	out := make(map[int64]tax.TaxCategory)
	if len(ids) == 0 {
		return out, nil
	}
	categories, err := s.categoryRepo.FindByIDs(ctx, slices.Compact(slices.Sorted(slices.Values(ids))))
	if err != nil {
		return nil, err
	}
	for _, c := range categories {
		out[c.ID] = c
	}
	return out, nil
}

func (s *TaxService) toResponse(ctx context.Context, t *tax.Tax) (*TaxResponse, error) {
	out, err := s.toResponses(ctx, []tax.Tax{*t})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *TaxService) toResponses(ctx context.Context, taxes []tax.Tax) ([]TaxResponse, error) {
	categories, err := s.categoriesOf(ctx, taxes)
	if err != nil {
		return nil, err
	}
	out := make([]TaxResponse, len(taxes))
	for i := range taxes {
		out[i] = ToTaxResponse(&taxes[i], categories)
	}
	return out, nil
}

// find loads a revision visible to the actor. Records of other companies
// are reported as not found.
func (s *TaxService) find(ctx context.Context, actor Actor, id int64) (*tax.Tax, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(t.CompanyID) {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Tax not found")
	}
	return t, nil
}
