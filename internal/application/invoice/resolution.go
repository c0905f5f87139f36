package invoice

import (
	"context"
	"strings"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Resolution is the outcome of resolving a delivery item's HSN code.
type Resolution struct {
	Record  *billing.ProductPlant
	Product string
	Status  billing.HSNStatus
}

// Code returns the trimmed tax-control code of the kept record.
func (r Resolution) Code() string {
	if r.Record == nil {
		return ""
	}
	return strings.TrimSpace(r.Record.TaxControlCode)
}

// Candidates returns the product ids to try for a delivery item, in priority order:
// the item's material, the material of the billing item it references, its reference
// item number, then its alternate product fields.
func Candidates(di billing.DeliveryItem, items []billing.BillingItem) []string {
	referenced := ""
	if item, ok := billing.FindReferencedItem(items, di.ReferenceSDDocument, di.ReferenceSDDocumentItem); ok {
		referenced = item.Material
	}
	raw := []string{di.Material, referenced, di.ReferenceSDDocumentItem, di.Product, di.ProductID}
	trimmed := lo.Map(raw, func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Uniq(lo.Compact(trimmed))
}

// Resolver walks candidate products through the product-plant lookup.
type Resolver struct {
	lookup *ProductPlantLookup
	logger *zap.Logger
}

// NewResolver creates a resolver over lookup.
func NewResolver(lookup *ProductPlantLookup, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{lookup: lookup, logger: logger}
}

// Resolve returns the first candidate whose record carries a non-blank code. Failing that,
// the first candidate that produced any record is kept as fallback. Lookup errors skip the
// candidate.
func (r *Resolver) Resolve(ctx context.Context, candidates []string, plant string) Resolution {
	res := Resolution{Status: billing.HSNUnresolved}
	if strings.TrimSpace(plant) == "" {
		return res
	}
	for _, product := range candidates {
		rec, err := r.lookup.Get(ctx, product, plant)
		if err != nil {
			r.logger.Debug("product plant candidate failed",
				zap.String("product", product),
				zap.String("plant", plant),
				zap.Error(err),
			)
			continue
		}
		if rec == nil {
			continue
		}
		if rec.HasTaxControlCode() {
			return Resolution{Record: rec, Product: product, Status: billing.HSNResolved}
		}
		if res.Record == nil {
			res = Resolution{Record: rec, Product: product, Status: billing.HSNFallback}
		}
	}
	return res
}
