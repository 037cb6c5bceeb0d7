package types

import (
	"fmt"
	"strings"
)

// ShippingAddress is the postal address snapshotted onto an order.
type ShippingAddress struct {
	FullName   string `json:"fullName"`
	Locality   string `json:"locality"`
	City       string `json:"city"`
	District   string `json:"district"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// Normalize trims every field.
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Locality:   strings.TrimSpace(a.Locality),
		City:       strings.TrimSpace(a.City),
		District:   strings.TrimSpace(a.District),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// MissingFields lists the json names of blank fields in declaration order.
func (a ShippingAddress) MissingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"locality", a.Locality},
		{"city", a.City},
		{"district", a.District},
		{"state", a.State},
		{"postalCode", a.PostalCode},
		{"country", a.Country},
		{"phone", a.Phone},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Validate fails when any field is blank.
func (a ShippingAddress) Validate() error {
	if missing := a.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("shipping address: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
