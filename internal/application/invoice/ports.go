package invoice

import (
	"context"
	"time"

	"github.com/erp/invoice/internal/infrastructure/odata"
)

// Gateway reads from the ERP OData sources.
type Gateway interface {
	Fetch(ctx context.Context, q odata.Query) (odata.Payload, error)
}

// Metrics observes aggregation activity.
type Metrics interface {
	ObserveLookup(result string)
	ObserveAggregation(outcome string, elapsed time.Duration)
	ObservePartialFailure(branch string)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLookup(string) {}
func (nopMetrics) ObserveAggregation(string, time.Duration) {}
func (nopMetrics) ObservePartialFailure(string) {}

// Lookup results reported to Metrics.
const (
	LookupHit         = "hit"
	LookupNegativeHit = "negative_hit"
	LookupMiss        = "miss"
)

// Aggregation outcomes reported to Metrics.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Enrichment branches; a failed branch is logged and left empty.
const (
	BranchPricing        = "pricing"
	BranchSalesOrders    = "sales_orders"
	BranchDeliveryItems  = "delivery_items"
	BranchPlant          = "plant"
	BranchPlantTax       = "plant_tax"
	BranchProductPlant   = "product_plant"
	BranchDeliveryHeader = "delivery_header"
	BranchPartnerAddress = "partner_address"
	BranchPartnerTax     = "partner_tax"
	BranchPaymentTerms   = "payment_terms"
)
