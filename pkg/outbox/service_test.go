package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`).Error)
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	orderID := uuid.New()
	actor := &ActorRef{ID: uuid.New(), Role: "vendor"}
	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Actor:         actor,
			Data:          payloads.OrderStatusChangedEvent{OrderID: orderID, ToStatus: enums.OrderStatusShipped},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, orderID, rows[0].AggregateID)

	envelope, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	require.Equal(t, EnvelopeVersion, envelope.Version)
	require.Equal(t, actor.ID, envelope.Actor.ID)

	var data payloads.OrderStatusChangedEvent
	require.NoError(t, envelope.DecodeData(&data))
	require.Equal(t, orderID, data.OrderID)
	require.Equal(t, enums.OrderStatusShipped, data.ToStatus)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	boom := errors.New("business write failed")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.New(),
			Data:          &payloads.OrderCreatedEvent{},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEmitRejectsEventsOutsideTheirSchema(t *testing.T) {
	conn := setupOutboxTestDB(t)
	svc := NewService(NewRepository(conn), nil)

	tests := []struct {
		name  string
		event DomainEvent
	}{
		{"unknown type", DomainEvent{EventType: "order.vanished", AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Data: payloads.OrderCreatedEvent{}}},
		{"wrong aggregate", DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregatePaymentIntent, AggregateID: uuid.New(), Data: payloads.OrderCreatedEvent{}}},
		{"missing aggregate id", DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, Data: payloads.OrderCreatedEvent{}}},
		{"wrong data type", DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Data: payloads.PaymentIntentEvent{}}},
		{"untyped data", DomainEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Data: map[string]string{"orderId": "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, svc.Emit(context.Background(), conn, tt.event))
		})
	}
	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSchemasCoverEveryEventType(t *testing.T) {
	for _, eventType := range []enums.OutboxEventType{
		enums.EventOrderCreated,
		enums.EventOrderStatusChanged,
		enums.EventOrderRefundFlagged,
		enums.EventPaymentIntentExpired,
		enums.EventPaymentIntentSettled,
	} {
		schema, ok := LookupSchema(eventType)
		require.True(t, ok, eventType)
		require.True(t, schema.Accepts(schema.NewPayload()), eventType)
	}
	require.Len(t, Schemas(), 5)
}

func TestDecodeEnvelopeRejectsIncompleteDocuments(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":     `{"version":`,
		"bad event id": `{"version":1,"eventId":"evt-1","data":{}}`,
		"no data":      `{"version":1,"eventId":"` + uuid.NewString() + `"}`,
		"null data":    `{"version":1,"eventId":"` + uuid.NewString() + `","data":null}`,
	} {
		_, err := DecodeEnvelope([]byte(raw))
		require.ErrorIs(t, err, ErrMalformedEnvelope, name)
	}
}

func TestRepositoryPublishBookkeeping(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)

	first := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	second := models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{}`)}
	require.NoError(t, repo.Insert(conn, first))
	require.NoError(t, repo.Insert(conn, second))

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkTerminalTx(conn, rows[1].ID, errors.New("bad payload"), 3))

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Empty(t, rows)

	pending, err := repo.CountPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)
}
