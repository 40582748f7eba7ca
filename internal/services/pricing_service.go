package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pricing-service/internal/locks"
	"pricing-service/internal/models"
	"pricing-service/internal/pricing"
	"pricing-service/internal/repository"
)

// Outcome messages of a batch run
const (
	MsgNoProducts       = "No products found"
	MsgBaseNotSet       = "Base price not set"
	MsgRecentlyUpdated  = "Price updated recently, skipping"
	MsgInsignificant    = "Price change not significant"
	MsgLockHeld         = "Pricing update already in progress"
	MsgConcurrentUpdate = "Price updated concurrently, skipping"
	MsgDeadlineExceeded = "Batch deadline exceeded"
)

// PriceEventPublisher is notified of every committed price change
type PriceEventPublisher interface {
	PublishPriceChanged(ctx context.Context, tenantID string, product *models.Product, oldPrice, newPrice decimal.Decimal, reason string) error
}

// PricingOptions tunes the orchestrator. Zero values fall back to defaults.
type PricingOptions struct {
	Policy       pricing.Policy
	Workers      int
	BatchTimeout time.Duration
	LockTTL      time.Duration
	Locker       locks.Locker
	Publisher    PriceEventPublisher
}

// PricingService runs the dynamic pricing batch and its inspection endpoints
type PricingService struct {
	repo         repository.PricingRepositoryInterface
	scorer       pricing.DemandScorer
	policy       pricing.Policy
	locker       locks.Locker
	publisher    PriceEventPublisher
	logger       *logrus.Entry
	workers      int
	batchTimeout time.Duration
	lockTTL      time.Duration
	now          func() time.Time
}

// NewPricingService creates a new PricingService
func NewPricingService(repo repository.PricingRepositoryInterface, scorer pricing.DemandScorer, opts PricingOptions, logger *logrus.Logger) *PricingService {
	s := &PricingService{
		repo:         repo,
		scorer:       scorer,
		policy:       opts.Policy,
		locker:       opts.Locker,
		publisher:    opts.Publisher,
		logger:       logger.WithField("component", "pricing-service"),
		workers:      opts.Workers,
		batchTimeout: opts.BatchTimeout,
		lockTTL:      opts.LockTTL,
		now:          time.Now,
	}
	if s.policy.StockTiers == nil && s.policy.DemandTiers == nil {
		s.policy = pricing.DefaultPolicy()
	}
	if s.locker == nil {
		s.locker = locks.NoopLocker{}
	}
	if s.workers <= 0 {
		s.workers = 4
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 30 * time.Second
	}
	return s
}

// ListTenantIDs returns the tenants the scheduler should price
func (s *PricingService) ListTenantIDs(ctx context.Context) ([]string, error) {
	return s.repo.ListTenantIDs(ctx)
}

// RunBatchUpdate evaluates every product of a tenant and commits new prices.
// A failing product is reported in its outcome and never aborts the batch.
func (s *PricingService) RunBatchUpdate(ctx context.Context, tenantID string) (*models.BatchUpdateResult, error) {
	products, err := s.repo.ListProducts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	if len(products) == 0 {
		return &models.BatchUpdateResult{Message: MsgNoProducts, Updates: []models.ProductUpdate{}}, nil
	}

	if s.batchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.batchTimeout)
		defer cancel()
	}

	updates := make([]models.ProductUpdate, len(products))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range products {
		product := &products[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				updates[i] = outcome(product, models.UpdateStatusSkipped, MsgDeadlineExceeded)
				return nil
			}
			updates[i] = s.updateProduct(ctx, tenantID, product)
			return nil
		})
	}
	_ = g.Wait()

	var updated, skipped, failed int
	for _, u := range updates {
		switch u.Status {
		case models.UpdateStatusUpdated:
			updated++
		case models.UpdateStatusSkipped:
			skipped++
		case models.UpdateStatusFailed:
			failed++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tenantId": tenantID,
		"products": len(products),
		"updated":  updated,
		"skipped":  skipped,
		"failed":   failed,
	}).Info("Dynamic pricing batch completed")

	return &models.BatchUpdateResult{
		Message: fmt.Sprintf("Processed %d products: %d updated, %d skipped, %d failed", len(products), updated, skipped, failed),
		Updates: updates,
	}, nil
}

func priceLockKey(tenantID string, productID uuid.UUID) string {
	return fmt.Sprintf("pricing:%s:%s", tenantID, productID)
}

func (s *PricingService) updateProduct(ctx context.Context, tenantID string, product *models.Product) models.ProductUpdate {
	if !product.HasBasePrice() {
		return outcome(product, models.UpdateStatusSkipped, MsgBaseNotSet)
	}
	log := s.logger.WithFields(logrus.Fields{"tenantId": tenantID, "productId": product.ID})

	release, err := s.locker.Obtain(ctx, priceLockKey(tenantID, product.ID), s.lockTTL)
	switch {
	case errors.Is(err, locks.ErrNotObtained):
		return outcome(product, models.UpdateStatusSkipped, MsgLockHeld)
	case err != nil:
		log.WithError(err).Warn("Could not obtain pricing lock, relying on record version check")
	default:
		defer release()
	}

	var lastUpdated *time.Time
	record, err := s.repo.GetPricingRecord(ctx, tenantID, product.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		log.WithError(err).Error("Failed to load pricing record")
		return outcome(product, models.UpdateStatusFailed, "Failed to load pricing record: "+err.Error())
	default:
		lu := record.LastUpdated
		lastUpdated = &lu
	}

	demand, err := s.scorer.Score(ctx, tenantID, product)
	if err != nil {
		return outcome(product, models.UpdateStatusFailed, "Failed to score demand: "+err.Error())
	}

	base := product.BasePrice.Decimal
	now := s.now()
	decision, err := s.policy.Evaluate(pricing.Input{
		BasePrice:   base,
		StockLevel:  product.CountInStock,
		DemandScore: demand,
		LastUpdated: lastUpdated,
	}, now)
	if err != nil {
		return outcome(product, models.UpdateStatusFailed, err.Error())
	}
	if !decision.Changed {
		u := outcome(product, models.UpdateStatusSkipped, skipMessage(decision.SkipReason))
		u.DemandScore = &demand
		return u
	}

	discount := pricing.Discount(base, decision.NewPrice)
	reason := pricing.AdjustmentReason(product.CountInStock, demand)
	err = s.repo.ApplyPriceChange(ctx, repository.PriceChange{
		TenantID:            tenantID,
		ProductID:           product.ID,
		ExpectedLastUpdated: lastUpdated,
		BasePrice:           base,
		NewPrice:            decision.NewPrice,
		Discount:            discount,
		StockLevel:          product.CountInStock,
		DemandScore:         demand,
		Reason:              reason,
		At:                  now,
	})
	if errors.Is(err, repository.ErrConcurrentUpdate) {
		return outcome(product, models.UpdateStatusSkipped, MsgConcurrentUpdate)
	}
	if err != nil {
		log.WithError(err).Error("Failed to persist price change")
		return outcome(product, models.UpdateStatusFailed, "Failed to persist price change: "+err.Error())
	}

	oldPrice := product.Price
	if s.publisher != nil {
		_ = s.publisher.PublishPriceChanged(ctx, tenantID, product, oldPrice, decision.NewPrice, reason)
	}

	u := outcome(product, models.UpdateStatusUpdated,
		fmt.Sprintf("Price updated from %s to %s", oldPrice.StringFixed(2), decision.NewPrice.StringFixed(2)))
	newPrice := decision.NewPrice
	u.OldPrice = &oldPrice
	u.NewPrice = &newPrice
	u.Discount = &discount
	u.DemandScore = &demand
	return u
}

func outcome(product *models.Product, status models.UpdateStatus, message string) models.ProductUpdate {
	return models.ProductUpdate{
		ProductID:   product.ID,
		ProductName: product.Name,
		Status:      status,
		Message:     message,
	}
}

func skipMessage(reason string) string {
	switch reason {
	case pricing.SkipTimeGate:
		return MsgRecentlyUpdated
	case pricing.SkipInsignificantChange:
		return MsgInsignificant
	}
	return reason
}

// Initialize seeds base and old prices from existing prices and creates the
// pricing record with an initial history entry. Products already initialized are left alone.
func (s *PricingService) Initialize(ctx context.Context, tenantID string) (*models.InitializeResult, error) {
	products, err := s.repo.ListProducts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	res := &models.InitializeResult{ProductsScanned: len(products)}
	now := s.now()
	for i := range products {
		p := &products[i]
		in, ok := initialState(p)
		if !ok {
			s.logger.WithField("productId", p.ID).Warn("Skipping initialization of product without a price")
			continue
		}
		in.TenantID = tenantID
		in.At = now

		created, err := s.repo.InitializeProduct(ctx, in)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"tenantId":  tenantID,
				"productId": p.ID,
			}).WithError(err).Error("Failed to initialize product pricing")
			res.ProductsFailed++
			res.Failures = append(res.Failures, outcome(p, models.UpdateStatusFailed, "Failed to initialize pricing: "+err.Error()))
			continue
		}
		if in.UpdateProduct {
			res.ProductsUpdated++
		}
		if created {
			res.RecordsCreated++
		}
	}

	res.Message = fmt.Sprintf("Initialized pricing for %d products (%d updated, %d records created, %d failed)",
		res.ProductsScanned, res.ProductsUpdated, res.RecordsCreated, res.ProductsFailed)
	return res, nil
}

// initialState derives the seeded pricing fields of a product. ok is false when
// the product has no positive price to seed from.
func initialState(p *models.Product) (repository.InitializeInput, bool) {
	base := p.Price
	if p.BasePrice.Valid {
		base = p.BasePrice.Decimal
	} else if p.OldPrice.Valid && p.OldPrice.Decimal.IsPositive() {
		base = p.OldPrice.Decimal
	}
	if !base.IsPositive() {
		return repository.InitializeInput{}, false
	}

	old := base
	if p.OldPrice.Valid {
		old = p.OldPrice.Decimal
	}
	discount := pricing.Discount(base, p.Price)

	return repository.InitializeInput{
		ProductID:     p.ID,
		BasePrice:     base,
		OldPrice:      old,
		Discount:      discount,
		UpdateProduct: !p.BasePrice.Valid || !p.OldPrice.Valid || p.Discount != discount,
		CurrentPrice:  p.Price,
		StockLevel:    p.CountInStock,
	}, true
}

// SetBasePrices backfills missing base prices from the current price
func (s *PricingService) SetBasePrices(ctx context.Context, tenantID string) (*models.InitializeResult, error) {
	n, err := s.repo.BackfillBasePrices(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to set base prices: %w", err)
	}
	return &models.InitializeResult{
		Message:         fmt.Sprintf("Base price set for %d products", n),
		ProductsUpdated: n,
	}, nil
}

// GetPriceHistory returns a product's price log in insertion order
func (s *PricingService) GetPriceHistory(ctx context.Context, tenantID string, productID uuid.UUID) (*models.PriceHistoryResponse, error) {
	product, err := s.repo.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	entries, err := s.repo.GetPriceHistory(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return &models.PriceHistoryResponse{
		ProductID:    product.ID,
		ProductName:  product.Name,
		PriceHistory: entries,
	}, nil
}

// GetBulkDiscounts returns the volume discount tiers available for a product
func (s *PricingService) GetBulkDiscounts(ctx context.Context, tenantID string, productID uuid.UUID) (*models.BulkDiscountResponse, error) {
	product, err := s.repo.GetProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", productID, err)
	}
	return &models.BulkDiscountResponse{
		ProductID:    product.ID,
		ProductName:  product.Name,
		CurrentPrice: product.Price,
		CountInStock: product.CountInStock,
		Tiers:        pricing.BulkDiscountTiers(product.CountInStock, product.Price),
	}, nil
}

// GetStatus summarizes current versus original prices across all pricing records
func (s *PricingService) GetStatus(ctx context.Context, tenantID string) (*models.PricingStatus, error) {
	rows, err := s.repo.ListPricingSummaries(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing records: %w", err)
	}

	status := &models.PricingStatus{TotalProducts: len(rows), Products: make([]models.PricingSummaryRow, 0, len(rows))}
	var total float64
	for _, row := range rows {
		switch row.CurrentPrice.Cmp(row.OriginalPrice) {
		case 1:
			status.Increases++
		case -1:
			status.Decreases++
		default:
			status.NoChange++
		}
		if row.OriginalPrice.IsPositive() {
			row.ChangePercent = row.CurrentPrice.Sub(row.OriginalPrice).
				Div(row.OriginalPrice).
				Mul(decimal.NewFromInt(100)).
				Round(2).
				InexactFloat64()
		}
		total += row.ChangePercent
		status.Products = append(status.Products, row)
	}
	if len(rows) > 0 {
		status.AverageChangePercent = decimal.NewFromFloat(total / float64(len(rows))).Round(2).InexactFloat64()
	}
	return status, nil
}

// TestPriceCalculation runs the evaluator on a hypothetical input
func (s *PricingService) TestPriceCalculation(req models.TestPriceCalculationRequest) (*models.TestPriceCalculationResponse, error) {
	if req.BasePrice == nil || req.StockLevel == nil || req.DemandScore == nil {
		return nil, fmt.Errorf("%w: basePrice, stockLevel and demandScore are required", pricing.ErrInvalidInput)
	}
	decision, err := s.policy.Evaluate(pricing.Input{
		BasePrice:   *req.BasePrice,
		StockLevel:  *req.StockLevel,
		DemandScore: *req.DemandScore,
		LastUpdated: req.LastUpdated,
	}, s.now())
	if err != nil {
		return nil, err
	}
	return &models.TestPriceCalculationResponse{
		BasePrice:  *req.BasePrice,
		Multiplier: decision.Multiplier,
		RawPrice:   decision.RawPrice,
		MinPrice:   decision.MinPrice,
		MaxPrice:   decision.MaxPrice,
		Changed:    decision.Changed,
		NewPrice:   decision.NewPrice,
		Discount:   pricing.Discount(*req.BasePrice, decision.NewPrice),
		SkipReason: decision.SkipReason,
	}, nil
}
