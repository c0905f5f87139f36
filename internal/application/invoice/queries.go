package invoice

import "github.com/erp/invoice/internal/infrastructure/odata"

// Projections requested from each source.
var (
	documentExpand     = []string{"_Item", "_Text"}
	salesOrderSelect   = []string{"SalesOrder", "CustomerPurchaseOrderDate", "PurchaseOrderByCustomer"}
	deliveryItemSelect = []string{"DeliveryDocument", "DeliveryDocumentItem", "ReferenceSDDocument", "ReferenceSDDocumentItem", "Plant", "Material"}
	plantSelect        = []string{"PlantName", "Plant", "StreetName", "HouseNumber", "CityName", "PostalCode", "Region", "Country", "BusinessPlace"}
	taxDetailSelect    = []string{"BusinessPlace", "IN_GSTIdentificationNumber"}
	headerSelect       = []string{"DeliveryDocument", "ShipToParty", "SoldToParty"}
	productPlantSelect = []string{"Product", "Plant", "ConsumptionTaxCtrlCode"}
	paymentTermsSelect = []string{"PaymentTerms", "PaymentTermsName"}
	pricingSelect      = []string{"ConditionType", "ConditionBaseValue", "ConditionRateValue", "ConditionQuantityUnit", "ConditionAmount"}
)

// Navigation properties.
const (
	navPricingElement = "to_PricingElement"
	navPartnerAddress = "to_BusinessPartnerAddress"
	navPartnerTax     = "to_BusinessPartnerTax"
)

func documentQuery(id string) odata.Query {
	return odata.Query{Source: odata.SourceBillingDocument, Key: odata.Key(id), Expand: documentExpand}
}

func documentSummaryQuery(id string) odata.Query {
	return odata.Query{Source: odata.SourceBillingDocument, Key: odata.Key(id)}
}

func documentListQuery(top, skip int) odata.Query {
	return odata.Query{Source: odata.SourceBillingDocument, Top: top, Skip: skip}
}

func pricingQuery(document, item string) odata.Query {
	return odata.Query{
		Source: odata.SourceBillingDocumentItem,
		Key:    odata.CompositeKey("BillingDocument", document, "BillingDocumentItem", item),
		Nav:    navPricingElement,
		Select: pricingSelect,
	}
}

func salesOrderQuery(ids []string) odata.Query {
	return odata.Query{Source: odata.SourceSalesOrder, Filter: odata.In("SalesOrder", ids...), Select: salesOrderSelect}
}

func deliveryItemQuery(salesOrder string) odata.Query {
	return odata.Query{Source: odata.SourceDeliveryItem, Filter: odata.Eq("ReferenceSDDocument", salesOrder), Select: deliveryItemSelect}
}

func plantQuery(plant string) odata.Query {
	return odata.Query{Source: odata.SourcePlant, Filter: odata.Eq("Plant", plant), Select: plantSelect}
}

func taxDetailQuery(businessPlace string) odata.Query {
	return odata.Query{Source: odata.SourceTaxDetail, Filter: odata.Eq("BusinessPlace", businessPlace), Select: taxDetailSelect}
}

func headerQuery(delivery string) odata.Query {
	return odata.Query{Source: odata.SourceDeliveryHeader, Filter: odata.Eq("DeliveryDocument", delivery), Select: headerSelect}
}

func productPlantKeyQuery(product, plant string) odata.Query {
	return odata.Query{
		Source: odata.SourceProductPlant,
		Key:    odata.CompositeKey("Product", product, "Plant", plant),
		Select: productPlantSelect,
	}
}

func productPlantFilterQuery(product, plant string) odata.Query {
	return odata.Query{
		Source: odata.SourceProductPlant,
		Filter: odata.And(odata.Eq("Product", product), odata.Eq("Plant", plant)),
		Select: productPlantSelect,
	}
}

func partnerAddressQuery(partner string) odata.Query {
	return odata.Query{Source: odata.SourceBusinessPartner, Key: odata.Key(partner), Nav: navPartnerAddress}
}

func partnerTaxQuery(partner string) odata.Query {
	return odata.Query{Source: odata.SourceBusinessPartner, Key: odata.Key(partner), Nav: navPartnerTax}
}

func paymentTermsQuery(code, language string) odata.Query {
	return odata.Query{
		Source: odata.SourcePaymentTerms,
		Key:    odata.CompositeKey("PaymentTerms", code, "Language", language),
		Select: paymentTermsSelect,
	}
}
