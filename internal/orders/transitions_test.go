package orders

import (
	"testing"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCheckTransitionUser(t *testing.T) {
	cases := []struct {
		name    string
		current enums.OrderStatus
		target  enums.OrderStatus
		code    pkgerrors.Code
		msg     string
	}{
		{"return after delivery", enums.OrderStatusDelivered, enums.OrderStatusReturnRequested, "", ""},
		{"return before delivery", enums.OrderStatusShipped, enums.OrderStatusReturnRequested, pkgerrors.CodeStateConflict, msgReturnAfterDeliv},
		{"cancel pending", enums.OrderStatusPending, enums.OrderStatusCancelled, "", ""},
		{"cancel processing", enums.OrderStatusProcessing, enums.OrderStatusCancelled, "", ""},
		{"cancel shipped", enums.OrderStatusShipped, enums.OrderStatusCancelled, pkgerrors.CodeStateConflict, msgCancelBeforeShip},
		{"cancel delivered", enums.OrderStatusDelivered, enums.OrderStatusCancelled, pkgerrors.CodeStateConflict, msgCancelBeforeShip},
		{"terminal cancelled", enums.OrderStatusCancelled, enums.OrderStatusCancelled, pkgerrors.CodeStateConflict, msgUserTerminal},
		{"terminal return completed", enums.OrderStatusReturnCompleted, enums.OrderStatusReturnRequested, pkgerrors.CodeStateConflict, msgUserTerminal},
		{"user cannot ship", enums.OrderStatusProcessing, enums.OrderStatusShipped, pkgerrors.CodeValidation, msgUserTargets},
		{"user cannot approve return", enums.OrderStatusReturnRequested, enums.OrderStatusReturnApproved, pkgerrors.CodeValidation, msgUserTargets},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(enums.ActorRoleUser, tc.current, tc.target)
			assertTransition(t, err, tc.code, tc.msg)
		})
	}
}

func TestCheckTransitionVendor(t *testing.T) {
	cases := []struct {
		name    string
		current enums.OrderStatus
		target  enums.OrderStatus
		code    pkgerrors.Code
		msg     string
	}{
		{"process pending", enums.OrderStatusPending, enums.OrderStatusProcessing, "", ""},
		{"ship processing", enums.OrderStatusProcessing, enums.OrderStatusShipped, "", ""},
		{"deliver shipped", enums.OrderStatusShipped, enums.OrderStatusDelivered, "", ""},
		{"cancel shipped", enums.OrderStatusShipped, enums.OrderStatusCancelled, "", ""},
		{"completed return is final", enums.OrderStatusReturnCompleted, enums.OrderStatusProcessing, pkgerrors.CodeStateConflict, msgReturnCompleted},
		{"cancelled is final", enums.OrderStatusCancelled, enums.OrderStatusShipped, pkgerrors.CodeStateConflict, msgAlreadyCancelled},
		{"delivered cannot go back", enums.OrderStatusDelivered, enums.OrderStatusShipped, pkgerrors.CodeStateConflict, msgDeliveredLocked},
		{"delivered cannot cancel", enums.OrderStatusDelivered, enums.OrderStatusCancelled, pkgerrors.CodeStateConflict, msgDeliveredLocked},
		{"delivered to delivered", enums.OrderStatusDelivered, enums.OrderStatusDelivered, "", ""},
		{"approve needs request", enums.OrderStatusDelivered, enums.OrderStatusReturnApproved, pkgerrors.CodeStateConflict, msgNeedsReturnReq},
		{"reject needs request", enums.OrderStatusShipped, enums.OrderStatusReturnRejected, pkgerrors.CodeStateConflict, msgNeedsReturnReq},
		{"approve requested", enums.OrderStatusReturnRequested, enums.OrderStatusReturnApproved, "", ""},
		{"reject requested", enums.OrderStatusReturnRequested, enums.OrderStatusReturnRejected, "", ""},
		{"complete needs approval", enums.OrderStatusReturnRequested, enums.OrderStatusReturnCompleted, pkgerrors.CodeStateConflict, msgNeedsApproval},
		{"complete approved", enums.OrderStatusReturnApproved, enums.OrderStatusReturnCompleted, "", ""},
		{"rejected return can ship again", enums.OrderStatusReturnRejected, enums.OrderStatusShipped, "", ""},
		{"rejected return can be cancelled", enums.OrderStatusReturnRejected, enums.OrderStatusCancelled, "", ""},
		{"vendor cannot request return", enums.OrderStatusDelivered, enums.OrderStatusReturnRequested, pkgerrors.CodeValidation, msgVendorTargets},
		{"vendor cannot reset to pending", enums.OrderStatusProcessing, enums.OrderStatusPending, pkgerrors.CodeValidation, msgVendorTargets},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckTransition(enums.ActorRoleVendor, tc.current, tc.target)
			assertTransition(t, err, tc.code, tc.msg)
		})
	}
}

func TestCheckTransitionUnknownValues(t *testing.T) {
	err := CheckTransition(enums.ActorRoleVendor, enums.OrderStatusPending, "lost")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = CheckTransition("admin", enums.OrderStatusPending, enums.OrderStatusShipped)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func assertTransition(t *testing.T, err error, code pkgerrors.Code, msg string) {
	t.Helper()
	if code == "" {
		require.NoError(t, err)
		return
	}
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, code, typed.Code())
	require.Equal(t, msg, typed.Message())
}

func TestApplyRefundEffects(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)

	t.Run("cancel completed gateway payment", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodGateway, PaymentStatus: enums.PaymentStatusCompleted}
		effect := applyRefundEffects(o, enums.OrderStatusCancelled, now)
		require.True(t, effect.flagged)
		require.False(t, effect.completed)
		require.Equal(t, enums.PaymentStatusRefund, o.PaymentStatus)
		require.Equal(t, now, *o.RefundRequestedAt)
		require.Nil(t, o.RefundCompletedAt)
	})

	t.Run("approval keeps earlier request time", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodGateway, PaymentStatus: enums.PaymentStatusCompleted, RefundRequestedAt: &earlier}
		applyRefundEffects(o, enums.OrderStatusReturnApproved, now)
		require.Equal(t, earlier, *o.RefundRequestedAt)
	})

	t.Run("return completed after approval", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodGateway, PaymentStatus: enums.PaymentStatusRefund, RefundRequestedAt: &earlier}
		effect := applyRefundEffects(o, enums.OrderStatusReturnCompleted, now)
		require.True(t, effect.completed)
		require.False(t, effect.flagged)
		require.Equal(t, now, *o.RefundCompletedAt)
	})

	t.Run("return completed straight from completed payment", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodGateway, PaymentStatus: enums.PaymentStatusCompleted}
		effect := applyRefundEffects(o, enums.OrderStatusReturnCompleted, now)
		require.True(t, effect.flagged)
		require.True(t, effect.completed)
		require.Equal(t, enums.PaymentStatusRefund, o.PaymentStatus)
		require.NotNil(t, o.RefundCompletedAt)
	})

	t.Run("cod never refunds", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodCOD, PaymentStatus: enums.PaymentStatusCompleted}
		effect := applyRefundEffects(o, enums.OrderStatusCancelled, now)
		require.False(t, effect.changed())
		require.Equal(t, enums.PaymentStatusCompleted, o.PaymentStatus)
		require.Nil(t, o.RefundRequestedAt)
	})

	t.Run("pending gateway payment is left alone", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodGateway, PaymentStatus: enums.PaymentStatusPending}
		require.False(t, applyRefundEffects(o, enums.OrderStatusCancelled, now).changed())
		require.Equal(t, enums.PaymentStatusPending, o.PaymentStatus)
	})

	t.Run("shipping has no refund effect", func(t *testing.T) {
		o := &models.Order{PaymentMethod: enums.PaymentMethodGateway, PaymentStatus: enums.PaymentStatusCompleted}
		require.False(t, applyRefundEffects(o, enums.OrderStatusShipped, now).changed())
	})
}

func TestToMinorUnits(t *testing.T) {
	minor, err := toMinorUnits(mustDecimal(t, "1499.50"))
	require.NoError(t, err)
	require.Equal(t, int64(149950), minor)

	_, err = toMinorUnits(mustDecimal(t, "10.005"))
	require.Error(t, err)
}

func TestNewOrderReferenceFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		ref := newOrderReference(time.UnixMilli(1735689600000))
		require.Regexp(t, `^ORD-1735689600000-[0-9A-Z]{6}$`, ref)
	}
}
