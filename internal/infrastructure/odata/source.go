// Package odata is the gateway to the ERP's OData services. It encodes typed queries,
// performs authenticated GET requests and normalizes the response envelopes.
package odata

// Source names one configured OData entity-set endpoint.
type Source string

const (
	SourceBillingDocument     Source = "billing_document"
	SourceBillingDocumentItem Source = "billing_document_item"
	SourceSalesOrder          Source = "sales_order"
	SourceDeliveryItem        Source = "delivery_item"
	SourceDeliveryHeader      Source = "delivery_header"
	SourcePlant               Source = "plant"
	SourceTaxDetail           Source = "tax_detail"
	SourceBusinessPartner     Source = "business_partner"
	SourcePaymentTerms        Source = "payment_terms"
	SourceProductPlant        Source = "product_plant"
)

// AllSources lists every source the aggregation may call.
var AllSources = []Source{
	SourceBillingDocument,
	SourceBillingDocumentItem,
	SourceSalesOrder,
	SourceDeliveryItem,
	SourceDeliveryHeader,
	SourcePlant,
	SourceTaxDetail,
	SourceBusinessPartner,
	SourcePaymentTerms,
	SourceProductPlant,
}

// String returns the source name.
func (s Source) String() string {
	return string(s)
}
