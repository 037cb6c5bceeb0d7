package orders

import (
	"context"
	"time"

	"github.com/angelmondragon/vendora-backend/internal/cart"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/gateway"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders, their history and
// payment intents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByGatewayIDs(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	UpdateStatusIfCurrent(ctx context.Context, order *models.Order, observed enums.OrderStatus) (bool, error)
	AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) error
	FindPaymentIntent(ctx context.Context, gatewayOrderID string) (*models.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, gatewayOrderID string, orderID uuid.UUID) error
	ListStaleIntents(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentIntent, error)
	ClosePaymentIntent(ctx context.Context, id uuid.UUID, status enums.PaymentIntentStatus) (bool, error)
}

// OutboxPublisher writes domain events inside the caller's transaction.
type OutboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CartStore loads the shopper's cart and binds cart writes to a transaction.
type CartStore interface {
	WithTx(tx *gorm.DB) cart.CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
}

// ProductCatalog prices cart lines. Orders never write to it.
type ProductCatalog interface {
	FindByIDAndType(ctx context.Context, id uuid.UUID, productType enums.ProductType) (*models.Product, error)
}

// PaymentGateway is the slice of the gateway client the order flows use.
type PaymentGateway interface {
	KeyID() string
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (gateway.Order, error)
	FetchOrder(ctx context.Context, gatewayOrderID string) (gateway.Order, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// ConfirmMarker guards gateway confirmations with a short-lived key.
type ConfirmMarker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ConfirmMarkerKey(gatewayPaymentID string) string
}
