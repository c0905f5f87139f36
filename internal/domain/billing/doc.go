// Package billing contains the invoice view model assembled from the ERP billing,
// sales, delivery, plant and business-partner sources.
//
// Key concepts:
//   - BillingDocument: root of one aggregation run, never persisted
//   - BillingItem: projected line item with its resolved Material
//   - SalesOrder / DeliveryItem: fetched per referenced sales document
//   - PlantAddress: plant, GSTIN and HSN enrichment of a delivery item
//   - PartnerAddress: business-partner address shared by every header naming the partner
//
// All types are plain values; remote lookups live in the application layer.
package billing
