package billing

import (
	"net/url"
	"strings"
)

// ProductPlantKey identifies a product-plant record. Both parts are required.
type ProductPlantKey struct {
	Product string
	Plant   string
}

// String returns the cache key form "product/plant". Both parts are path-escaped, so
// distinct keys never share a string form.
func (k ProductPlantKey) String() string {
	return url.PathEscape(k.Product) + "/" + url.PathEscape(k.Plant)
}

// Valid reports whether both product and plant are present.
func (k ProductPlantKey) Valid() bool {
	return strings.TrimSpace(k.Product) != "" && strings.TrimSpace(k.Plant) != ""
}

// ProductPlant is the plant-specific view of a product.
type ProductPlant struct {
	Product        string `json:"Product"`
	Plant          string `json:"Plant"`
	TaxControlCode string `json:"ConsumptionTaxCtrlCode"`
}

// HasTaxControlCode reports whether the record carries a non-blank HSN code.
func (p *ProductPlant) HasTaxControlCode() bool {
	return p != nil && strings.TrimSpace(p.TaxControlCode) != ""
}
