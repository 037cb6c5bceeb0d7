package outbox

import (
	"reflect"
	"slices"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
)

// Schema ties an event type to the aggregate it describes and the Go type of
// its data.
type Schema struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	payload       reflect.Type
}

func schemaOf[T any](event enums.OutboxEventType, aggregate enums.OutboxAggregateType) Schema {
	return Schema{EventType: event, AggregateType: aggregate, payload: reflect.TypeFor[T]()}
}

var schemas = map[enums.OutboxEventType]Schema{}

func init() {
	for _, s := range []Schema{
		schemaOf[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder),
		schemaOf[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, enums.AggregateOrder),
		schemaOf[payloads.OrderRefundFlaggedEvent](enums.EventOrderRefundFlagged, enums.AggregateOrder),
		schemaOf[payloads.PaymentIntentEvent](enums.EventPaymentIntentExpired, enums.AggregatePaymentIntent),
		schemaOf[payloads.PaymentIntentEvent](enums.EventPaymentIntentSettled, enums.AggregatePaymentIntent),
	} {
		schemas[s.EventType] = s
	}
}

// LookupSchema returns the schema registered for eventType.
func LookupSchema(eventType enums.OutboxEventType) (Schema, bool) {
	s, ok := schemas[eventType]
	return s, ok
}

// Schemas lists every registered schema ordered by event type.
func Schemas() []Schema {
	out := make([]Schema, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Schema) int {
		switch {
		case a.EventType < b.EventType:
			return -1
		case a.EventType > b.EventType:
			return 1
		}
		return 0
	})
	return out
}

// NewPayload returns a pointer to a zero value of the schema's data type.
func (s Schema) NewPayload() any {
	if s.payload == nil {
		return nil
	}
	return reflect.New(s.payload).Interface()
}

// Accepts reports whether data is the schema's data type or a pointer to it.
func (s Schema) Accepts(data any) bool {
	t := reflect.TypeOf(data)
	if t == nil || s.payload == nil {
		return false
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t == s.payload
}
