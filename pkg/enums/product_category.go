package enums

import "fmt"

// ProductCategory represents the canonical catalog categories.
type ProductCategory string

const (
	ProductCategoryEquipment   ProductCategory = "equipment"
	ProductCategoryWeights     ProductCategory = "weights"
	ProductCategoryCardio      ProductCategory = "cardio"
	ProductCategorySupplements ProductCategory = "supplements"
	ProductCategoryApparel     ProductCategory = "apparel"
	ProductCategoryAccessory   ProductCategory = "accessory"
)

var validProductCategories = []ProductCategory{
	ProductCategoryEquipment,
	ProductCategoryWeights,
	ProductCategoryCardio,
	ProductCategorySupplements,
	ProductCategoryApparel,
	ProductCategoryAccessory,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
