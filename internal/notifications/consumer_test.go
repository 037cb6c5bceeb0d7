package notifications

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type stubCreator struct {
	rows []models.Notification
	err  error
}

func (s *stubCreator) CreateBatch(_ context.Context, rows []models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, rows...)
	return nil
}

type stubProcessed struct {
	keys    map[string]bool
	deleted []string
	err     error
}

func (s *stubProcessed) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *stubProcessed) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.keys, k)
		s.deleted = append(s.deleted, k)
	}
	return nil
}

func (s *stubProcessed) IdempotencyKey(scope, id string) string {
	return "vendora:idempotency:" + scope + ":" + id
}

type nilReceiver struct{}

func (nilReceiver) Receive(context.Context, func(context.Context, *pubsub.Message)) error { return nil }

func newTestConsumer(t *testing.T, repo *stubCreator, processed *stubProcessed) *Consumer {
	t.Helper()
	c, err := NewConsumer(ConsumerParams{
		Repo:         repo,
		Subscription: nilReceiver{},
		Processed:    processed,
		Logger:       logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return c
}

func envelopeBytes(t *testing.T, eventID string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	out, err := json.Marshal(outbox.Envelope{Version: outbox.EnvelopeVersion, EventID: eventID, OccurredAt: time.Now(), Data: raw})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return out
}

func TestProcessOrderCreatedNotifiesBuyerAndVendors(t *testing.T) {
	repo := &stubCreator{}
	processed := &stubProcessed{}
	c := newTestConsumer(t, repo, processed)

	userID, v1, v2 := uuid.New(), uuid.New(), uuid.New()
	data := envelopeBytes(t, uuid.NewString(), payloads.OrderCreatedEvent{
		OrderID:        uuid.New(),
		OrderReference: "ORD-1-ABCDEF",
		UserID:         userID,
		VendorIDs:      []uuid.UUID{v1, v2},
		TotalAmount:    "1000.00",
		Currency:       "INR",
	})

	if !c.process(context.Background(), "m1", map[string]string{"event_type": string(enums.EventOrderCreated)}, data) {
		t.Fatal("expected ack")
	}
	if len(repo.rows) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(repo.rows))
	}
	if repo.rows[0].RecipientID != userID || repo.rows[0].RecipientRole != enums.ActorRoleUser {
		t.Fatalf("first notification should go to the buyer: %+v", repo.rows[0])
	}
	if repo.rows[2].RecipientID != v2 || repo.rows[2].RecipientRole != enums.ActorRoleVendor {
		t.Fatalf("vendor notification mismatch: %+v", repo.rows[2])
	}
}

func TestProcessSkipsDuplicateEvent(t *testing.T) {
	repo := &stubCreator{}
	c := newTestConsumer(t, repo, &stubProcessed{})
	attrs := map[string]string{"event_type": string(enums.EventOrderRefundFlagged)}
	data := envelopeBytes(t, uuid.NewString(), payloads.OrderRefundFlaggedEvent{
		OrderID: uuid.New(), UserID: uuid.New(), Amount: "10.00", Currency: "INR",
	})

	if !c.process(context.Background(), "m1", attrs, data) || !c.process(context.Background(), "m2", attrs, data) {
		t.Fatal("expected both deliveries acked")
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one notification, got %d", len(repo.rows))
	}
}

func TestProcessNacksAndClearsMarkerOnInsertFailure(t *testing.T) {
	repo := &stubCreator{err: errors.New("db down")}
	processed := &stubProcessed{}
	c := newTestConsumer(t, repo, processed)
	data := envelopeBytes(t, uuid.NewString(), payloads.OrderStatusChangedEvent{
		OrderID: uuid.New(), UserID: uuid.New(), ToStatus: enums.OrderStatusShipped, ActorRole: enums.ActorRoleVendor,
	})

	if c.process(context.Background(), "m1", map[string]string{"event_type": string(enums.EventOrderStatusChanged)}, data) {
		t.Fatal("expected nack")
	}
	if len(processed.deleted) != 1 {
		t.Fatalf("expected marker cleared, got %v", processed.deleted)
	}
}

func TestProcessAcksMalformedAndIgnoredEvents(t *testing.T) {
	repo := &stubCreator{}
	c := newTestConsumer(t, repo, &stubProcessed{})

	if !c.process(context.Background(), "bad", map[string]string{"event_type": string(enums.EventOrderCreated)}, []byte("{")) {
		t.Fatal("malformed envelope should be acked")
	}
	data := envelopeBytes(t, uuid.NewString(), payloads.PaymentIntentEvent{IntentID: uuid.New()})
	if !c.process(context.Background(), "intent", map[string]string{"event_type": string(enums.EventPaymentIntentExpired)}, data) {
		t.Fatal("unrelated event should be acked")
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected no notifications, got %d", len(repo.rows))
	}
}

func TestForStatusChangedRoutesByActor(t *testing.T) {
	userID, vendorID := uuid.New(), uuid.New()
	base := payloads.OrderStatusChangedEvent{
		OrderID:        uuid.New(),
		OrderReference: "ORD-1-XYZ123",
		UserID:         userID,
		VendorIDs:      []uuid.UUID{vendorID},
		Reason:         "Wrong size",
	}

	byUser := base
	byUser.ActorRole = enums.ActorRoleUser
	byUser.ToStatus = enums.OrderStatusReturnRequested
	rows := forStatusChanged(byUser)
	if len(rows) != 1 || rows[0].RecipientID != vendorID || rows[0].Type != enums.NotificationTypeReturnRequest {
		t.Fatalf("unexpected user-driven notifications: %+v", rows)
	}

	byVendor := base
	byVendor.ActorRole = enums.ActorRoleVendor
	byVendor.ToStatus = enums.OrderStatusReturnRejected
	rows = forStatusChanged(byVendor)
	if len(rows) != 1 || rows[0].RecipientID != userID {
		t.Fatalf("unexpected vendor-driven notifications: %+v", rows)
	}
	if rows[0].Title != "Order return rejected" {
		t.Fatalf("unexpected title %q", rows[0].Title)
	}
}
