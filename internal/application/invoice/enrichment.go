package invoice

import (
	"context"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// plantAddress builds the plant enrichment of a delivery item. A failed or empty plant
// fetch yields a zero PlantAddress and no HSN resolution.
func (r *run) plantAddress(ctx context.Context, di billing.DeliveryItem, items []billing.BillingItem) billing.PlantAddress {
	if di.Plant == "" {
		return billing.PlantAddress{}
	}

	payload, err := r.svc.gateway.Fetch(ctx, plantQuery(di.Plant))
	if err != nil {
		r.tolerate(BranchPlant, err,
			zap.String("plant", di.Plant),
			zap.String("delivery_document", di.DeliveryDocument),
			zap.String("delivery_item", di.DeliveryDocumentItem),
		)
		return billing.PlantAddress{}
	}
	rec, ok := payload.First()
	if !ok {
		return billing.PlantAddress{}
	}

	addr := billing.PlantAddress{Plant: di.Plant}
	applyPlant(&addr, rec)
	if addr.BusinessPlace != "" {
		addr.GSTIN = r.plantGSTIN(ctx, addr.BusinessPlace)
	}

	res := r.svc.resolver.Resolve(ctx, Candidates(di, items), addr.Plant)
	addr.HSNStatus = res.Status
	if res.Record != nil {
		addr.HSN = res.Code()
		addr.MatchedProduct = res.Product
	}
	return addr
}

func (r *run) plantGSTIN(ctx context.Context, businessPlace string) string {
	payload, err := r.svc.gateway.Fetch(ctx, taxDetailQuery(businessPlace))
	if err != nil {
		r.tolerate(BranchPlantTax, err, zap.String("business_place", businessPlace))
		return ""
	}
	rec, ok := payload.First()
	if !ok {
		return ""
	}
	return rec.String("IN_GSTIdentificationNumber")
}

// partner fetches the address and GST registration of one business partner. It returns
// nil when neither address data nor a matching tax number was found.
func (r *run) partner(ctx context.Context, id string) *billing.PartnerAddress {
	p := &billing.PartnerAddress{BusinessPartner: id}

	addresses, err := r.svc.gateway.Fetch(ctx, partnerAddressQuery(id))
	if err != nil {
		r.tolerate(BranchPartnerAddress, err, zap.String("business_partner", id))
	} else if rec, ok := addresses.First(); ok {
		applyPartnerAddress(p, rec)
	}

	taxes, err := r.svc.gateway.Fetch(ctx, partnerTaxQuery(id))
	if err != nil {
		r.tolerate(BranchPartnerTax, err, zap.String("business_partner", id))
	} else {
		for _, rec := range taxes.Records() {
			if rec.String("BPTaxType") == r.svc.cfg.PartnerTaxType {
				p.GSTIN = rec.String("BPTaxNumber")
				break
			}
		}
	}

	if p.Empty() {
		return nil
	}
	return p
}

// attachPricing fetches the pricing conditions of every item.
func (r *run) attachPricing(ctx context.Context, doc *billing.BillingDocument) {
	if len(doc.Items) == 0 {
		return
	}
	ctx, span := telemetry.StartStageSpan(ctx, "pricing", telemetry.SpanAttrCount, len(doc.Items))
	defer span.End()

	var g errgroup.Group
	g.SetLimit(r.svc.cfg.MaxConcurrency)
	for i := range doc.Items {
		item := &doc.Items[i]
		if item.BillingDocumentItem == "" {
			continue
		}
		g.Go(func() error {
			payload, err := r.svc.gateway.Fetch(ctx, pricingQuery(doc.BillingDocument, item.BillingDocumentItem))
			if err != nil {
				r.tolerate(BranchPricing, err, zap.String("billing_document_item", item.BillingDocumentItem))
				return nil
			}
			if payload.IsSingle() {
				if rec, ok := payload.First(); ok && rec.Has("ConditionType") {
					item.PricingElements = append(item.PricingElements, mapPricingElement(rec))
				}
				return nil
			}
			for _, rec := range payload.Records() {
				item.PricingElements = append(item.PricingElements, mapPricingElement(rec))
			}
			return nil
		})
	}
	_ = g.Wait()
}

// attachPaymentTerms resolves the display name of the document's payment terms. Without a
// name the code itself is shown.
func (r *run) attachPaymentTerms(ctx context.Context, doc *billing.BillingDocument) {
	code := doc.TermsOfPayment
	if code == "" {
		return
	}
	payload, err := r.svc.gateway.Fetch(ctx, paymentTermsQuery(code, r.svc.cfg.PaymentTermsLanguage))
	if err != nil {
		r.tolerate(BranchPaymentTerms, err, zap.String("payment_terms", code))
		doc.PaymentTermsName = code
		return
	}
	rec, ok := payload.First()
	if !ok {
		doc.PaymentTermsName = code
		return
	}
	doc.TermsOfPayment = billing.FirstNonEmpty(rec.String("PaymentTerms"), code)
	doc.PaymentTermsName = billing.FirstNonEmpty(rec.String("PaymentTermsName"), code)
}
