// Package events provides NATS event publishing for pricing-service
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/Tesseract-Nexus/go-shared/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"pricing-service/internal/models"
)

const publishTimeout = 10 * time.Second

// EventPublisher publishes price change and stock events to NATS JetStream.
// All methods are safe on a nil receiver and then do nothing.
type EventPublisher struct {
	publisher *events.Publisher
	logger    *logrus.Entry
}

// NewEventPublisher connects to NATS and ensures the product and inventory streams exist
func NewEventPublisher(natsURL string, logger *logrus.Logger) (*EventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	config := events.DefaultPublisherConfig(natsURL)
	config.Name = "pricing-service-publisher"

	publisher, err := events.NewPublisher(config, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := publisher.EnsureStream(ctx, events.StreamProducts, []string{"product.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure products stream (may already exist)")
	}
	if err := publisher.EnsureStream(ctx, events.StreamInventory, []string{"inventory.>"}); err != nil {
		log.WithError(err).Warn("Failed to ensure inventory stream (may already exist)")
	}

	return &EventPublisher{
		publisher: publisher,
		logger:    log.WithField("component", "pricing-events"),
	}, nil
}

// PublishPriceChanged publishes a product.price_changed event for an automated adjustment
func (p *EventPublisher) PublishPriceChanged(_ context.Context, tenantID string, product *models.Product, oldPrice, newPrice decimal.Decimal, reason string) error {
	if p == nil {
		return nil
	}

	event := events.NewProductEvent("product.price_changed", tenantID)
	event.SourceID = uuid.New().String()
	event.ProductID = product.ID.String()
	event.ProductName = product.Name
	event.SKU = product.SKU
	event.Price = newPrice.InexactFloat64()
	event.ActorID = "system"
	event.ActorName = "dynamic-pricing"
	event.ChangeType = "price_changed"
	event.ChangedFields = []string{"price", "oldPrice", "discount"}
	event.OldValue = map[string]interface{}{"price": oldPrice.InexactFloat64()}
	event.NewValue = map[string]interface{}{
		"price":  newPrice.InexactFloat64(),
		"reason": reason,
	}

	p.publishProductAsync(event)
	return nil
}

// publishProductAsync publishes without blocking the batch
func (p *EventPublisher) publishProductAsync(event *events.ProductEvent) {
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.publisher.PublishProduct(pubCtx, event); err != nil {
			p.logger.WithFields(logrus.Fields{
				"eventType": event.EventType,
				"productId": event.ProductID,
				"tenantId":  event.TenantID,
			}).WithError(err).Error("Failed to publish product.price_changed event")
			return
		}

		p.logger.WithFields(logrus.Fields{
			"eventType": event.EventType,
			"productId": event.ProductID,
			"newPrice":  event.Price,
		}).Debug("Published product.price_changed event")
	}()
}

// PublishLowStockAlert publishes an inventory.low_stock event
func (p *EventPublisher) PublishLowStockAlert(ctx context.Context, tenantID string, product *models.Product, threshold int, location string) error {
	if p == nil {
		return nil
	}

	event := events.NewInventoryEvent(events.InventoryLowStock, tenantID)
	event.Items = []events.InventoryItem{
		{
			ProductID:     product.ID.String(),
			Name:          product.Name,
			SKU:           product.SKU,
			CurrentStock:  product.CountInStock,
			ReorderPoint:  threshold,
			WarehouseName: location,
		},
	}
	event.AlertLevel = "warning"
	if product.CountInStock == 0 {
		event.AlertLevel = "critical"
	}
	event.AlertMessage = fmt.Sprintf("Low stock alert: %s has %d units remaining at %s (threshold: %d)", product.Name, product.CountInStock, location, threshold)
	event.CalculateSummary()

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"productId": product.ID,
			"location":  location,
		}).WithError(err).Error("Failed to publish inventory.low_stock event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"productId":    product.ID,
		"currentStock": product.CountInStock,
		"threshold":    threshold,
	}).Info("Published inventory.low_stock event")
	return nil
}

// PublishStockDelivered publishes an inventory.adjusted event for a delivered stock order
func (p *EventPublisher) PublishStockDelivered(ctx context.Context, tenantID string, order *models.StockOrder, previousStock, currentStock int) error {
	if p == nil {
		return nil
	}

	event := events.NewInventoryEvent(events.InventoryAdjusted, tenantID)
	event.Items = []events.InventoryItem{
		{
			ProductID:     order.ProductID.String(),
			CurrentStock:  currentStock,
			PreviousStock: previousStock,
			WarehouseName: order.Location,
		},
	}
	event.AdjustmentType = "add"
	event.AdjustmentReason = fmt.Sprintf("Stock order %s delivered", order.ID)
	event.AdjustedBy = order.SupplierID.String()
	event.AlertLevel = "info"
	event.AlertMessage = fmt.Sprintf("Stock received: %d units, stock changed from %d to %d", order.Quantity, previousStock, currentStock)

	if err := p.publisher.PublishInventory(ctx, event); err != nil {
		p.logger.WithFields(logrus.Fields{
			"orderId":   order.ID,
			"productId": order.ProductID,
		}).WithError(err).Error("Failed to publish inventory.adjusted event")
		return err
	}
	return nil
}

// IsConnected returns true if connected to NATS
func (p *EventPublisher) IsConnected() bool {
	return p != nil && p.publisher.IsConnected()
}

// Close closes the NATS connection
func (p *EventPublisher) Close() {
	if p != nil && p.publisher != nil {
		p.publisher.Close()
	}
}
