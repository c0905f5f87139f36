package billing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// BillingDocument is the enriched, invoice-shaped view of one ERP billing document.
// JSON names follow the contract the invoice front end reads.
type BillingDocument struct {
	BillingDocumentID   string `json:"billingDocumentID"`
	BillingDocument     string `json:"BillingDocument"`
	DocumentCategory    string `json:"DocumentCategory"`
	Division            string `json:"Division"`
	BillingDocumentDate string `json:"BillingDocumentDate"`
	BillingDocumentType string `json:"BillingDocumentType"`
	CompanyCode         string `json:"CompanyCode"`
	FiscalYear          string `json:"FiscalYear"`
	SalesOrganization   string `json:"SalesOrganization"`
	DistributionChannel string `json:"DistributionChannel"`
	InvoiceNo           string `json:"invoiceNo"`
	InvoiceDate         string `json:"invoiceDate"`
	DestinationCountry  string `json:"destinationCountry"`
	SoldToParty         string `json:"SoldToParty"`
	TermsOfPayment      string `json:"termsOfPayment"`
	PaymentTermsName    string `json:"PaymentTermsName"`
	MotorVehicleNo      string `json:"motorVehicleNo"`

	Items       []BillingItem `json:"Items"`
	SalesOrders []SalesOrder  `json:"SalesOrders"`

	// Buyer and Consignee are read from the first sales order's first delivery item only.
	Buyer     *PartnerAddress `json:"Buyer"`
	Consignee *PartnerAddress `json:"Consignee"`
}

// DocumentSummary is the list/detail view of a billing document without enrichment.
type DocumentSummary struct {
	BillingDocumentID   string `json:"billingDocumentID"`
	BillingDocument     string `json:"BillingDocument"`
	DocumentCategory    string `json:"DocumentCategory"`
	Division            string `json:"Division"`
	BillingDocumentDate string `json:"BillingDocumentDate"`
	BillingDocumentType string `json:"BillingDocumentType"`
	CompanyCode         string `json:"CompanyCode"`
	FiscalYear          string `json:"FiscalYear"`
	SalesOrganization   string `json:"SalesOrganization"`
	DistributionChannel string `json:"DistributionChannel"`
	CustomerName        string `json:"CustomerName"`
}

// BillingItem is one projected line of a billing document.
type BillingItem struct {
	BillingDocumentItem        string          `json:"BillingDocumentItem"`
	ItemCategory               string          `json:"ItemCategory"`
	SalesDocumentItemType      string          `json:"SalesDocumentItemType"`
	SalesDocument              string          `json:"SalesDocument"`
	ReferenceSDDocument        string          `json:"ReferenceSDDocument"`
	ReferenceSDDocumentItem    string          `json:"ReferenceSDDocumentItem"`
	BillingDocumentItemText    string          `json:"BillingDocumentItemText"`
	Batch                      string          `json:"Batch"`
	BillingQuantity            decimal.Decimal `json:"BillingQuantity"`
	BillingQuantityUnitSAPCode string          `json:"BillingQuantityUnitSAPCode"`
	NetAmount                  decimal.Decimal `json:"NetAmount"`
	// Rate is NetAmount / BillingQuantity rounded to 2 places, nil for a zero quantity.
	Rate *decimal.Decimal `json:"Rate,omitempty"`
	// Material is the first non-empty of the item's candidate product fields.
	Material        string           `json:"Material"`
	PricingElements []PricingElement `json:"PricingElements"`
}

// PricingElement is one pricing condition of a billing item.
type PricingElement struct {
	ConditionType         string          `json:"ConditionType"`
	ConditionBaseValue    decimal.Decimal `json:"ConditionBaseValue"`
	ConditionRateValue    decimal.Decimal `json:"ConditionRateValue"`
	ConditionQuantityUnit string          `json:"ConditionQuantityUnit"`
	ConditionAmount       decimal.Decimal `json:"ConditionAmount"`
}

// MaterialFields lists the upstream item fields that may carry the product id, in priority order.
var MaterialFields = []string{"Material", "Product", "ProductID"}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ComputeRate returns net / quantity rounded to two places.
func ComputeRate(net, quantity decimal.Decimal) *decimal.Decimal {
	if quantity.IsZero() {
		return nil
	}
	rate := net.Div(quantity).Round(2)
	return &rate
}

// SameItemNumber compares two item numbers ignoring leading zeros ("000010" == "10").
func SameItemNumber(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return trimZeros(a) == trimZeros(b)
}

func trimZeros(s string) string {
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return "0"
	}
	return t
}

// SalesDocumentIDs returns the distinct, non-empty sales documents referenced by items,
// in first-seen order.
func SalesDocumentIDs(items []BillingItem) []string {
	seen := make(map[string]struct{}, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		if it.SalesDocument == "" {
			continue
		}
		if _, ok := seen[it.SalesDocument]; ok {
			continue
		}
		seen[it.SalesDocument] = struct{}{}
		ids = append(ids, it.SalesDocument)
	}
	return ids
}

// FindReferencedItem returns the billing item that a delivery line points at: same sales or
// reference document, and same reference or billing item number.
func FindReferencedItem(items []BillingItem, refDocument, refItem string) (BillingItem, bool) {
	if refDocument == "" || refItem == "" {
		return BillingItem{}, false
	}
	for _, it := range items {
		docMatch := it.ReferenceSDDocument == refDocument || it.SalesDocument == refDocument
		if !docMatch {
			continue
		}
		if SameItemNumber(it.ReferenceSDDocumentItem, refItem) || SameItemNumber(it.BillingDocumentItem, refItem) {
			return it, true
		}
	}
	return BillingItem{}, false
}
