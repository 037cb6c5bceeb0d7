package enums

import (
	"fmt"
	"strings"
)

// ProductType names one of the catalog collections a product lives in.
type ProductType string

const (
	ProductTypeFashion     ProductType = "fashion"
	ProductTypeElectronics ProductType = "electronics"
	ProductTypeBags        ProductType = "bags"
	ProductTypeGroceries   ProductType = "groceries"
	ProductTypeFootwear    ProductType = "footwear"
	ProductTypeBeauty      ProductType = "beauty"
	ProductTypeWellness    ProductType = "wellness"
	ProductTypeJewellery   ProductType = "jewellery"
)

var validProductTypes = []ProductType{
	ProductTypeFashion,
	ProductTypeElectronics,
	ProductTypeBags,
	ProductTypeGroceries,
	ProductTypeFootwear,
	ProductTypeBeauty,
	ProductTypeWellness,
	ProductTypeJewellery,
}

// ProductTypes returns every supported product type in catalog order.
func ProductTypes() []ProductType {
	out := make([]ProductType, len(validProductTypes))
	copy(out, validProductTypes)
	return out
}

// String implements fmt.Stringer.
func (t ProductType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductType.
func (t ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validProductTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
