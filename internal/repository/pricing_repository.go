package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricing-service/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConcurrentUpdate  = errors.New("pricing record was modified by another update")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrDuplicate         = errors.New("already exists")
)

// Cache TTL constants
const (
	PriceHistoryCacheTTL  = 10 * time.Minute
	PricingStatusCacheTTL = 2 * time.Minute
)

// InitialPriceReason is the reason recorded for the first history entry of a product
const InitialPriceReason = "Initial price"

// PricingRepositoryInterface is the persistence contract of the pricing orchestrator
type PricingRepositoryInterface interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
	ListProducts(ctx context.Context, tenantID string) ([]models.Product, error)
	GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error)
	GetPricingRecord(ctx context.Context, tenantID string, productID uuid.UUID) (*models.PricingRecord, error)
	GetPriceHistory(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.PriceHistoryEntry, error)
	ApplyPriceChange(ctx context.Context, change PriceChange) error
	InitializeProduct(ctx context.Context, in InitializeInput) (bool, error)
	BackfillBasePrices(ctx context.Context, tenantID string) (int64, error)
	ListPricingSummaries(ctx context.Context, tenantID string) ([]models.PricingSummaryRow, error)
}

// PriceChange is one evaluated price to commit.
// ExpectedLastUpdated is the record timestamp the evaluation was based on, nil when no record existed.
type PriceChange struct {
	TenantID            string
	ProductID           uuid.UUID
	ExpectedLastUpdated *time.Time
	BasePrice           decimal.Decimal
	NewPrice            decimal.Decimal
	Discount            int
	StockLevel          int
	DemandScore         float64
	Reason              string
	At                  time.Time
}

// InitializeInput seeds a product's pricing fields and record
type InitializeInput struct {
	TenantID      string
	ProductID     uuid.UUID
	BasePrice     decimal.Decimal
	OldPrice      decimal.Decimal
	Discount      int
	UpdateProduct bool
	CurrentPrice  decimal.Decimal
	StockLevel    int
	At            time.Time
}

type PricingRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

func NewPricingRepository(db *gorm.DB, redisClient *redis.Client) *PricingRepository {
	repo := &PricingRepository{db: db, redis: redisClient}

	if redisClient != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 2000,
			L1TTL:      30 * time.Second,
			DefaultTTL: PriceHistoryCacheTTL,
			KeyPrefix:  "tesseract:pricing:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redisClient, cacheConfig)
	}

	return repo
}

func priceHistoryCacheKey(tenantID string, productID uuid.UUID) string {
	return fmt.Sprintf("history:%s:%s", tenantID, productID.String())
}

func pricingStatusCacheKey(tenantID string) string {
	return fmt.Sprintf("status:%s", tenantID)
}

// invalidatePricingCaches drops cached history and status for a product
func (r *PricingRepository) invalidatePricingCaches(ctx context.Context, tenantID string, productID uuid.UUID) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, priceHistoryCacheKey(tenantID, productID), pricingStatusCacheKey(tenantID))
}

// InvalidateStatus drops the cached pricing status of a tenant
func (r *PricingRepository) InvalidateStatus(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Delete(ctx, pricingStatusCacheKey(tenantID))
}

// DBHealth pings the database
func (r *PricingRepository) DBHealth(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// RedisHealth checks Redis connectivity
func (r *PricingRepository) RedisHealth(ctx context.Context) error {
	if r.redis == nil {
		return fmt.Errorf("redis not configured")
	}
	return r.redis.Ping(ctx).Err()
}

// CacheStats returns cache statistics, nil when caching is disabled
func (r *PricingRepository) CacheStats() *cache.CacheStats {
	if r.cache == nil {
		return nil
	}
	stats := r.cache.Stats()
	return &stats
}

// ListTenantIDs returns every tenant that owns at least one product
func (r *PricingRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}

func (r *PricingRepository) ListProducts(ctx context.Context, tenantID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&products).Error
	return products, err
}

func (r *PricingRepository) GetProduct(ctx context.Context, tenantID string, productID uuid.UUID) (*models.Product, error) {
	return findProduct(r.db.WithContext(ctx), tenantID, productID)
}

func findProduct(db *gorm.DB, tenantID string, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.Where("tenant_id = ? AND id = ?", tenantID, productID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *PricingRepository) GetPricingRecord(ctx context.Context, tenantID string, productID uuid.UUID) (*models.PricingRecord, error) {
	var record models.PricingRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, productID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetPriceHistory returns the history of a product in insertion order
func (r *PricingRepository) GetPriceHistory(ctx context.Context, tenantID string, productID uuid.UUID) ([]models.PriceHistoryEntry, error) {
	load := func() ([]models.PriceHistoryEntry, error) {
		entries := []models.PriceHistoryEntry{}
		err := r.db.WithContext(ctx).
			Where("tenant_id = ? AND product_id = ?", tenantID, productID).
			Order("sequence ASC").
			Find(&entries).Error
		return entries, err
	}

	if r.cache != nil {
		var entries []models.PriceHistoryEntry
		err := r.cache.GetOrSetJSON(ctx, priceHistoryCacheKey(tenantID, productID), &entries, PriceHistoryCacheTTL, func() (any, error) {
			return load()
		})
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []models.PriceHistoryEntry{}
		}
		return entries, nil
	}

	return load()
}

// ApplyPriceChange commits a new price, the pricing record and a history entry
// in one transaction. The pricing record row is locked and its last_updated
// compared with the value the evaluation saw; a mismatch yields ErrConcurrentUpdate.
func (r *PricingRepository) ApplyPriceChange(ctx context.Context, change PriceChange) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.PricingRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND product_id = ?", change.TenantID, change.ProductID).
			First(&record).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if change.ExpectedLastUpdated != nil {
				return ErrConcurrentUpdate
			}
			record = models.PricingRecord{
				TenantID:      change.TenantID,
				ProductID:     change.ProductID,
				OriginalPrice: change.BasePrice,
				CurrentPrice:  change.NewPrice,
				StockLevel:    change.StockLevel,
				DemandScore:   change.DemandScore,
				LastUpdated:   change.At,
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrConcurrentUpdate
			}
		case err != nil:
			return err
		default:
			if change.ExpectedLastUpdated == nil || !record.LastUpdated.Equal(*change.ExpectedLastUpdated) {
				return ErrConcurrentUpdate
			}
			if err := tx.Model(&record).Updates(map[string]interface{}{
				"current_price": change.NewPrice,
				"stock_level":   change.StockLevel,
				"demand_score":  change.DemandScore,
				"last_updated":  change.At,
			}).Error; err != nil {
				return err
			}
		}

		result := tx.Model(&models.Product{}).
			Where("tenant_id = ? AND id = ?", change.TenantID, change.ProductID).
			Updates(map[string]interface{}{
				"price":      change.NewPrice,
				"old_price":  change.BasePrice,
				"discount":   change.Discount,
				"updated_at": change.At,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Create(&models.PriceHistoryEntry{
			TenantID:        change.TenantID,
			PricingRecordID: record.ID,
			ProductID:       change.ProductID,
			Price:           change.NewPrice,
			Date:            change.At,
			Reason:          change.Reason,
		}).Error
	})
	if err != nil {
		return err
	}

	r.invalidatePricingCaches(ctx, change.TenantID, change.ProductID)
	return nil
}

// InitializeProduct writes seeded base/old price and creates the pricing record with
// an initial history entry when none exists. It reports whether a record was created.
func (r *PricingRepository) InitializeProduct(ctx context.Context, in InitializeInput) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.UpdateProduct {
			result := tx.Model(&models.Product{}).
				Where("tenant_id = ? AND id = ?", in.TenantID, in.ProductID).
				Updates(map[string]interface{}{
					"base_price": in.BasePrice,
					"old_price":  in.OldPrice,
					"discount":   in.Discount,
					"updated_at": in.At,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return ErrNotFound
			}
		}

		record := models.PricingRecord{
			TenantID:      in.TenantID,
			ProductID:     in.ProductID,
			OriginalPrice: in.BasePrice,
			CurrentPrice:  in.CurrentPrice,
			StockLevel:    in.StockLevel,
			LastUpdated:   in.At,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		return tx.Create(&models.PriceHistoryEntry{
			TenantID:        in.TenantID,
			PricingRecordID: record.ID,
			ProductID:       in.ProductID,
			Price:           in.CurrentPrice,
			Date:            in.At,
			Reason:          InitialPriceReason,
		}).Error
	})
	if err != nil {
		return false, err
	}

	if created || in.UpdateProduct {
		r.invalidatePricingCaches(ctx, in.TenantID, in.ProductID)
	}
	return created, nil
}

// BackfillBasePrices sets base_price = price where base_price is missing
func (r *PricingRepository) BackfillBasePrices(ctx context.Context, tenantID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("tenant_id = ? AND base_price IS NULL", tenantID).
		Updates(map[string]interface{}{
			"base_price": gorm.Expr("price"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		r.InvalidateStatus(ctx, tenantID)
	}
	return result.RowsAffected, nil
}

// ListPricingSummaries joins every pricing record of a tenant with its product
func (r *PricingRepository) ListPricingSummaries(ctx context.Context, tenantID string) ([]models.PricingSummaryRow, error) {
	load := func() ([]models.PricingSummaryRow, error) {
		rows := []models.PricingSummaryRow{}
		err := r.db.WithContext(ctx).
			Table("pricing_records AS pr").
			Select("pr.product_id, p.name AS product_name, p.price, p.count_in_stock, pr.original_price, pr.current_price, pr.demand_score, pr.last_updated").
			Joins("JOIN products p ON p.id = pr.product_id AND p.tenant_id = pr.tenant_id").
			Where("pr.tenant_id = ?", tenantID).
			Order("p.name ASC").
			Scan(&rows).Error
		return rows, err
	}

	if r.cache != nil {
		var rows []models.PricingSummaryRow
		err := r.cache.GetOrSetJSON(ctx, pricingStatusCacheKey(tenantID), &rows, PricingStatusCacheTTL, func() (any, error) {
			return load()
		})
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	return load()
}
