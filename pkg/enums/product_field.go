package enums

import "fmt"

// ProductField is the closed set of product attributes the admin console may
// update one at a time. Keeping this an enum prevents arbitrary column names
// from reaching the store.
type ProductField string

const (
	ProductFieldName        ProductField = "name"
	ProductFieldDescription ProductField = "description"
	ProductFieldCategory    ProductField = "category"
	ProductFieldPrice       ProductField = "price"
	ProductFieldStock       ProductField = "stock"
	ProductFieldIsActive    ProductField = "is_active"
)

var validProductFields = []ProductField{
	ProductFieldName,
	ProductFieldDescription,
	ProductFieldCategory,
	ProductFieldPrice,
	ProductFieldStock,
	ProductFieldIsActive,
}

// String implements fmt.Stringer.
func (p ProductField) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductField.
func (p ProductField) IsValid() bool {
	for _, candidate := range validProductFields {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductField converts raw input into a ProductField.
func ParseProductField(value string) (ProductField, error) {
	for _, candidate := range validProductFields {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product field %q", value)
}
