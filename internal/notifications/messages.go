package notifications

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
)

func orderLink(role enums.ActorRole, orderID uuid.UUID) *string {
	link := fmt.Sprintf("/orders/%s", orderID)
	if role == enums.ActorRoleVendor {
		link = fmt.Sprintf("/vendor/orders/%s", orderID)
	}
	return &link
}

func newNotification(to Recipient, kind enums.NotificationType, orderID uuid.UUID, title, message string) models.Notification {
	id := orderID
	return models.Notification{
		RecipientID:   to.ID,
		RecipientRole: to.Role,
		Type:          kind,
		Title:         title,
		Message:       strings.TrimSpace(message),
		OrderID:       &id,
		Link:          orderLink(to.Role, orderID),
	}
}

// statusLabel renders a status for people: return_requested -> return requested.
func statusLabel(s enums.OrderStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// forOrderCreated tells every vendor in the order about it, and confirms it to the buyer.
func forOrderCreated(e payloads.OrderCreatedEvent) []models.Notification {
	out := make([]models.Notification, 0, len(e.VendorIDs)+1)
	out = append(out, newNotification(
		Recipient{ID: e.UserID, Role: enums.ActorRoleUser},
		enums.NotificationTypeOrderPlaced,
		e.OrderID,
		"Order placed",
		fmt.Sprintf("Your order %s for %s %s has been placed.", e.OrderReference, e.TotalAmount, e.Currency),
	))
	for _, vendorID := range e.VendorIDs {
		out = append(out, newNotification(
			Recipient{ID: vendorID, Role: enums.ActorRoleVendor},
			enums.NotificationTypeOrderPlaced,
			e.OrderID,
			"New order received",
			fmt.Sprintf("Order %s includes your products.", e.OrderReference),
		))
	}
	return out
}

// forStatusChanged notifies the other side of a transition: vendor moves reach
// the buyer, buyer cancellations and return requests reach the vendors.
func forStatusChanged(e payloads.OrderStatusChangedEvent) []models.Notification {
	switch e.ActorRole {
	case enums.ActorRoleVendor:
		msg := fmt.Sprintf("Your order %s is now %s.", e.OrderReference, statusLabel(e.ToStatus))
		if e.ToStatus == enums.OrderStatusReturnRejected || e.ToStatus == enums.OrderStatusCancelled {
			msg = fmt.Sprintf("%s Reason: %s", msg, e.Reason)
		}
		return []models.Notification{newNotification(
			Recipient{ID: e.UserID, Role: enums.ActorRoleUser},
			enums.NotificationTypeOrderUpdate,
			e.OrderID,
			"Order "+statusLabel(e.ToStatus),
			msg,
		)}
	case enums.ActorRoleUser:
		kind := enums.NotificationTypeOrderUpdate
		title := "Order cancelled by customer"
		if e.ToStatus == enums.OrderStatusReturnRequested {
			kind = enums.NotificationTypeReturnRequest
			title = "Return requested"
		}
		out := make([]models.Notification, 0, len(e.VendorIDs))
		for _, vendorID := range e.VendorIDs {
			out = append(out, newNotification(
				Recipient{ID: vendorID, Role: enums.ActorRoleVendor},
				kind,
				e.OrderID,
				title,
				fmt.Sprintf("Order %s: %s", e.OrderReference, e.Reason),
			))
		}
		return out
	}
	return nil
}

func forRefundFlagged(e payloads.OrderRefundFlaggedEvent) []models.Notification {
	title := "Refund initiated"
	msg := fmt.Sprintf("A refund of %s %s for order %s has been initiated.", e.Amount, e.Currency, e.OrderReference)
	if e.Completed {
		title = "Refund completed"
		msg = fmt.Sprintf("The refund of %s %s for order %s has been completed.", e.Amount, e.Currency, e.OrderReference)
	}
	return []models.Notification{newNotification(
		Recipient{ID: e.UserID, Role: enums.ActorRoleUser},
		enums.NotificationTypeRefund,
		e.OrderID,
		title,
		msg,
	)}
}
