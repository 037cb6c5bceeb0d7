package orders

import (
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
)

// Rejection messages returned to clients.
const (
	msgReturnCompleted  = "Order return is already completed and cannot be changed"
	msgAlreadyCancelled = "Order is already cancelled and cannot be changed"
	msgDeliveredLocked  = "Delivered orders can only move into the return flow"
	msgNeedsReturnReq   = "Return can only be approved or rejected after it is requested"
	msgNeedsApproval    = "Return can only be completed after it is approved"
	msgCancelDelivered  = "Delivered orders cannot be cancelled"
	msgUserTerminal     = "Order is already closed and cannot be changed"
	msgReturnAfterDeliv = "Return can only be requested after delivery"
	msgCancelBeforeShip = "Order can only be cancelled before it is shipped"
	msgUserTargets      = "Users can only request a return or cancel an order"
	msgVendorTargets    = "Vendors cannot set this status"
	msgUnknownStatus    = "Invalid order status"
	msgConcurrentChange = "Order was modified concurrently, please retry"
)

var vendorTargets = map[enums.OrderStatus]struct{}{
	enums.OrderStatusProcessing:      {},
	enums.OrderStatusShipped:         {},
	enums.OrderStatusDelivered:       {},
	enums.OrderStatusCancelled:       {},
	enums.OrderStatusReturnApproved:  {},
	enums.OrderStatusReturnRejected:  {},
	enums.OrderStatusReturnCompleted: {},
}

// CheckTransition reports whether role may move an order from current to target.
// Ownership is checked separately; this only covers the state machine.
func CheckTransition(role enums.ActorRole, current, target enums.OrderStatus) error {
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, msgUnknownStatus)
	}
	switch role {
	case enums.ActorRoleUser:
		return checkUserTransition(current, target)
	case enums.ActorRoleVendor:
		return checkVendorTransition(current, target)
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unsupported actor role %q", role))
	}
}

func checkUserTransition(current, target enums.OrderStatus) error {
	if current.IsTerminal() {
		return stateConflict(msgUserTerminal)
	}
	switch target {
	case enums.OrderStatusReturnRequested:
		if current != enums.OrderStatusDelivered {
			return stateConflict(msgReturnAfterDeliv)
		}
	case enums.OrderStatusCancelled:
		if current != enums.OrderStatusPending && current != enums.OrderStatusProcessing {
			return stateConflict(msgCancelBeforeShip)
		}
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, msgUserTargets)
	}
	return nil
}

// checkVendorTransition applies the vendor rules in order; the first failure wins.
func checkVendorTransition(current, target enums.OrderStatus) error {
	if _, ok := vendorTargets[target]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, msgVendorTargets)
	}
	switch {
	case current == enums.OrderStatusReturnCompleted:
		return stateConflict(msgReturnCompleted)
	case current == enums.OrderStatusCancelled:
		return stateConflict(msgAlreadyCancelled)
	case current == enums.OrderStatusDelivered && !target.IsReturnFlow() && target != enums.OrderStatusDelivered:
		return stateConflict(msgDeliveredLocked)
	case (target == enums.OrderStatusReturnApproved || target == enums.OrderStatusReturnRejected) &&
		current != enums.OrderStatusReturnRequested:
		return stateConflict(msgNeedsReturnReq)
	case target == enums.OrderStatusReturnCompleted && current != enums.OrderStatusReturnApproved:
		return stateConflict(msgNeedsApproval)
	case target == enums.OrderStatusCancelled && current == enums.OrderStatusDelivered:
		return stateConflict(msgCancelDelivered)
	}
	return nil
}

func stateConflict(msg string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, msg)
}

// refundEffect describes how a transition changed the refund bookkeeping.
type refundEffect struct {
	flagged   bool
	completed bool
}

func (e refundEffect) changed() bool {
	return e.flagged || e.completed
}

// applyRefundEffects mutates order for a move into target. Only gateway orders
// take refund flags, and only once their payment has completed.
func applyRefundEffects(order *models.Order, target enums.OrderStatus, now time.Time) refundEffect {
	if order.PaymentMethod != enums.PaymentMethodGateway {
		return refundEffect{}
	}
	var effect refundEffect
	switch target {
	case enums.OrderStatusCancelled, enums.OrderStatusReturnApproved:
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			order.PaymentStatus = enums.PaymentStatusRefund
			if order.RefundRequestedAt == nil {
				order.RefundRequestedAt = &now
			}
			effect.flagged = true
		}
	case enums.OrderStatusReturnCompleted:
		switch order.PaymentStatus {
		case enums.PaymentStatusCompleted:
			order.PaymentStatus = enums.PaymentStatusRefund
			if order.RefundRequestedAt == nil {
				order.RefundRequestedAt = &now
			}
			order.RefundCompletedAt = &now
			effect.flagged = true
			effect.completed = true
		case enums.PaymentStatusRefund:
			if order.RefundCompletedAt == nil {
				order.RefundCompletedAt = &now
				effect.completed = true
			}
		}
	}
	return effect
}

func defaultReason(from, to enums.OrderStatus, role enums.ActorRole) string {
	return fmt.Sprintf("Status changed from %s to %s by %s", from, to, role)
}
