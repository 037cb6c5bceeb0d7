package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order row and then its items in position order.
func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return db.Create(&order.Items).Error
}

// FindByID loads the order with its items and status history.
func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Preload("History", historyOldestFirst).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByGatewayIDs finds an order carrying either gateway identifier.
func (r *repository) FindByGatewayIDs(ctx context.Context, gatewayOrderID, gatewayPaymentID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByPosition).
		Preload("History", historyOldestFirst).
		Where("gateway_order_id = ? OR gateway_payment_id = ?", gatewayOrderID, gatewayPaymentID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.listPage(ctx, qb, params, nil)
}

// ListByVendor pages through orders holding at least one of the vendor's items.
// Items belonging to other vendors are not loaded.
func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	sub := r.db.Model(&models.OrderItem{}).Select("order_id").Where("vendor_id = ?", vendorID)
	qb := r.db.WithContext(ctx).Model(&models.Order{}).Where("id IN (?)", sub)
	return r.listPage(ctx, qb, params, &vendorID)
}

func (r *repository) listPage(ctx context.Context, qb *gorm.DB, params pagination.Params, vendorID *uuid.UUID) ([]models.Order, string, error) {
	keyset, err := pagination.Keyset(params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var rows []models.Order
	if err := qb.Scopes(keyset).Find(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("list orders: %w", err)
	}

	page, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	if err := r.attachItems(ctx, page, vendorID); err != nil {
		return nil, "", err
	}
	if err := r.attachHistory(ctx, page); err != nil {
		return nil, "", err
	}
	return page, next, nil
}

func (r *repository) attachItems(ctx context.Context, orders []models.Order, vendorID *uuid.UUID) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	qb := r.db.WithContext(ctx).Where("order_id IN ?", ids)
	if vendorID != nil {
		qb = qb.Where("vendor_id = ?", *vendorID)
	}
	var items []models.OrderItem
	if err := qb.Order("position ASC").Find(&items).Error; err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

func (r *repository) attachHistory(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	var rows []models.OrderStatusHistory
	if err := historyOldestFirst(r.db.WithContext(ctx).Where("order_id IN ?", ids)).Find(&rows).Error; err != nil {
		return fmt.Errorf("list order history: %w", err)
	}
	byOrder := make(map[uuid.UUID][]models.OrderStatusHistory, len(orders))
	for _, row := range rows {
		byOrder[row.OrderID] = append(byOrder[row.OrderID], row)
	}
	for i := range orders {
		orders[i].History = byOrder[orders[i].ID]
	}
	return nil
}

// UpdateStatusIfCurrent writes the order's status and refund fields only while
// the stored status still equals observed.
func (r *repository) UpdateStatusIfCurrent(ctx context.Context, order *models.Order, observed enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", order.ID, observed).
		Updates(map[string]any{
			"order_status":        order.OrderStatus,
			"payment_status":      order.PaymentStatus,
			"refund_requested_at": order.RefundRequestedAt,
			"refund_completed_at": order.RefundCompletedAt,
			"updated_at":          order.UpdatedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := historyOldestFirst(r.db.WithContext(ctx).Where("order_id = ?", orderID)).Find(&rows).Error
	return rows, err
}

func (r *repository) CreatePaymentIntent(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *repository) FindPaymentIntent(ctx context.Context, gatewayOrderID string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// ConfirmPaymentIntent links the intent to the order it produced. A settled
// intent can still be confirmed.
func (r *repository) ConfirmPaymentIntent(ctx context.Context, gatewayOrderID string, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("gateway_order_id = ?", gatewayOrderID).
		Updates(map[string]any{
			"status":   enums.PaymentIntentStatusConfirmed,
			"order_id": orderID,
		}).Error
}

// ListStaleIntents returns unconfirmed intents whose expiry is before cutoff, oldest first.
func (r *repository) ListStaleIntents(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentIntent, error) {
	var rows []models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.PaymentIntentStatusCreated, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ClosePaymentIntent moves a still-open intent to status (expired or settled).
// False means the intent already left the created state.
func (r *repository) ClosePaymentIntent(ctx context.Context, id uuid.UUID, status enums.PaymentIntentStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, enums.PaymentIntentStatusCreated).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func orderItemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func historyOldestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}
