package enums

import "fmt"

// PaymentIntentStatus tracks a phase-one gateway order until it is confirmed or abandoned.
type PaymentIntentStatus string

// A settled intent was paid at the gateway but never confirmed by the client.
const (
	PaymentIntentStatusCreated   PaymentIntentStatus = "created"
	PaymentIntentStatusConfirmed PaymentIntentStatus = "confirmed"
	PaymentIntentStatusExpired   PaymentIntentStatus = "expired"
	PaymentIntentStatusSettled   PaymentIntentStatus = "settled"
)

var validPaymentIntentStatuses = []PaymentIntentStatus{
	PaymentIntentStatusCreated,
	PaymentIntentStatusConfirmed,
	PaymentIntentStatusExpired,
	PaymentIntentStatusSettled,
}

// String implements fmt.Stringer.
func (s PaymentIntentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentIntentStatus.
func (s PaymentIntentStatus) IsValid() bool {
	for _, candidate := range validPaymentIntentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentIntentStatus converts raw input into a PaymentIntentStatus.
func ParsePaymentIntentStatus(value string) (PaymentIntentStatus, error) {
	for _, candidate := range validPaymentIntentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment intent status %q", value)
}
