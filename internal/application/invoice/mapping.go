package invoice

import (
	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/domain/region"
	"github.com/erp/invoice/internal/infrastructure/odata"
)

// Mapping functions are total: missing upstream fields map to their zero value.

func mapDocument(rec odata.Record) *billing.BillingDocument {
	doc := &billing.BillingDocument{
		BillingDocumentID:   rec.String("BillingDocument"),
		BillingDocument:     rec.String("BillingDocument"),
		DocumentCategory:    rec.String("SDDocumentCategory"),
		Division:            rec.String("Division"),
		BillingDocumentDate: billing.NormalizeODataDate(rec.String("BillingDocumentDate")),
		BillingDocumentType: rec.String("BillingDocumentType"),
		CompanyCode:         rec.String("CompanyCode"),
		FiscalYear:          rec.String("FiscalYear"),
		SalesOrganization:   rec.String("SalesOrganization"),
		DistributionChannel: rec.String("DistributionChannel"),
		InvoiceNo:           rec.String("BillingDocument"),
		InvoiceDate:         billing.NormalizeODataDate(rec.String("CreationDate")),
		DestinationCountry:  rec.String("Country"),
		SoldToParty:         rec.String("SoldToParty"),
		TermsOfPayment:      rec.String("CustomerPaymentTerms"),
		MotorVehicleNo:      rec.String("YY1_VehicleNo2_BDH"),
		Items:               []billing.BillingItem{},
		SalesOrders:         []billing.SalesOrder{},
	}
	for _, item := range rec.Nested("_Item") {
		doc.Items = append(doc.Items, mapItem(item))
	}
	return doc
}

func mapSummary(rec odata.Record) billing.DocumentSummary {
	return billing.DocumentSummary{
		BillingDocumentID:   rec.String("BillingDocument"),
		BillingDocument:     rec.String("BillingDocument"),
		DocumentCategory:    rec.String("SDDocumentCategory"),
		Division:            rec.String("Division"),
		BillingDocumentDate: billing.NormalizeODataDate(rec.String("BillingDocumentDate")),
		BillingDocumentType: rec.String("BillingDocumentType"),
		CompanyCode:         rec.String("CompanyCode"),
		FiscalYear:          rec.String("FiscalYear"),
		SalesOrganization:   rec.String("SalesOrganization"),
		DistributionChannel: rec.String("DistributionChannel"),
		CustomerName:        rec.String("CustomerName"),
	}
}

func mapItem(rec odata.Record) billing.BillingItem {
	qty := rec.Decimal("BillingQuantity")
	net := rec.Decimal("NetAmount")
	materials := make([]string, 0, len(billing.MaterialFields))
	for _, field := range billing.MaterialFields {
		materials = append(materials, rec.String(field))
	}
	return billing.BillingItem{
		BillingDocumentItem:        rec.String("BillingDocumentItem"),
		ItemCategory:               rec.String("SalesDocumentItemCategory"),
		SalesDocumentItemType:      rec.String("SalesDocumentItemType"),
		SalesDocument:              rec.String("SalesDocument"),
		ReferenceSDDocument:        rec.String("ReferenceSDDocument"),
		ReferenceSDDocumentItem:    rec.String("ReferenceSDDocumentItem"),
		BillingDocumentItemText:    rec.String("BillingDocumentItemText"),
		Batch:                      rec.String("Batch"),
		BillingQuantity:            qty,
		BillingQuantityUnitSAPCode: rec.String("BillingQuantityUnitSAPCode"),
		NetAmount:                  net,
		Rate:                       billing.ComputeRate(net, qty),
		Material:                   billing.FirstNonEmpty(materials...),
		PricingElements:            []billing.PricingElement{},
	}
}

func mapPricingElement(rec odata.Record) billing.PricingElement {
	return billing.PricingElement{
		ConditionType:         rec.String("ConditionType"),
		ConditionBaseValue:    rec.Decimal("ConditionBaseValue"),
		ConditionRateValue:    rec.Decimal("ConditionRateValue"),
		ConditionQuantityUnit: rec.String("ConditionQuantityUnit"),
		ConditionAmount:       rec.Decimal("ConditionAmount"),
	}
}

func mapSalesOrder(rec odata.Record) billing.SalesOrder {
	return billing.SalesOrder{
		SalesOrder:                rec.String("SalesOrder"),
		PurchaseOrderByCustomer:   rec.String("PurchaseOrderByCustomer"),
		CustomerPurchaseOrderDate: billing.NormalizeODataDate(rec.String("CustomerPurchaseOrderDate")),
		DeliveryItems:             []billing.DeliveryItem{},
	}
}

func mapDeliveryItem(rec odata.Record) billing.DeliveryItem {
	return billing.DeliveryItem{
		DeliveryDocument:        rec.String("DeliveryDocument"),
		DeliveryDocumentItem:    rec.String("DeliveryDocumentItem"),
		ReferenceSDDocument:     rec.String("ReferenceSDDocument"),
		ReferenceSDDocumentItem: rec.String("ReferenceSDDocumentItem"),
		Plant:                   rec.String("Plant"),
		Material:                rec.String("Material"),
		Product:                 rec.String("Product"),
		ProductID:               rec.String("ProductID"),
	}
}

// applyPlant copies plant master fields onto addr and resolves the state.
func applyPlant(addr *billing.PlantAddress, rec odata.Record) {
	addr.Plant = billing.FirstNonEmpty(rec.String("Plant"), addr.Plant)
	addr.PlantName = rec.String("PlantName")
	addr.StreetName = rec.String("StreetName")
	addr.HouseNumber = rec.String("HouseNumber")
	addr.CityName = rec.String("CityName")
	addr.PostalCode = rec.String("PostalCode")
	addr.Region = rec.String("Region")
	addr.Country = rec.String("Country")
	addr.BusinessPlace = rec.String("BusinessPlace")
	if addr.Region != "" {
		addr.StateName, addr.StateCode = region.Resolve(addr.Region)
	}
}

func mapHeader(rec odata.Record, delivery string) *billing.DeliveryHeader {
	return &billing.DeliveryHeader{
		DeliveryDocument: billing.FirstNonEmpty(rec.String("DeliveryDocument"), delivery),
		ShipToParty:      rec.String("ShipToParty"),
		SoldToParty:      rec.String("SoldToParty"),
	}
}

// applyPartnerAddress copies the first address record of a business partner onto p.
func applyPartnerAddress(p *billing.PartnerAddress, rec odata.Record) {
	p.FullName = rec.String("FullName")
	p.StreetName = rec.String("StreetName")
	p.HouseNumber = rec.String("HouseNumber")
	p.CityName = rec.String("CityName")
	p.PostalCode = billing.FirstNonEmpty(rec.String("PostalCode"), rec.String("CompanyPostalCode"))
	p.Region = rec.String("Region")
	p.Country = rec.String("Country")
	if p.Region != "" {
		p.StateName, p.StateCode = region.Resolve(p.Region)
	}
}

func toProductPlant(rec odata.Record, key billing.ProductPlantKey) *billing.ProductPlant {
	return &billing.ProductPlant{
		Product:        billing.FirstNonEmpty(rec.String("Product"), key.Product),
		Plant:          billing.FirstNonEmpty(rec.String("Plant"), key.Plant),
		TaxControlCode: rec.String("ConsumptionTaxCtrlCode"),
	}
}

// isProductPlant reports whether rec looks like a product-plant entity.
func isProductPlant(rec odata.Record) bool {
	return rec.Has("ConsumptionTaxCtrlCode") || rec.String("Product") != "" || rec.String("Plant") != ""
}
