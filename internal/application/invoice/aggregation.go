package invoice

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/infrastructure/odata"
	"github.com/erp/invoice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// run holds the state of one aggregation. Nothing in it outlives the request.
type run struct {
	svc     *Service
	log     *zap.Logger
	partial atomic.Int64

	mu          sync.Mutex
	headers     map[string]*billing.DeliveryHeader
	headerGroup singleflight.Group
	partners    map[string]*billing.PartnerAddress
}

type runStats struct {
	deliveryItems int
	partners      int
}

func newRun(s *Service, log *zap.Logger) *run {
	return &run{
		svc:     s,
		log:     log,
		headers: make(map[string]*billing.DeliveryHeader),
	}
}

func (r *run) generate(ctx context.Context, id string) (*billing.BillingDocument, error) {
	rec, err := r.svc.fetchDocument(ctx, documentQuery(id), id)
	if err != nil {
		return nil, err
	}
	doc := mapDocument(rec)
	if doc.BillingDocument == "" {
		doc.BillingDocument = id
		doc.BillingDocumentID = id
		doc.InvoiceNo = id
	}

	if r.svc.cfg.PricingElements {
		r.attachPricing(ctx, doc)
	}

	if ids := billing.SalesDocumentIDs(doc.Items); len(ids) > 0 {
		doc.SalesOrders = r.salesOrders(ctx, ids, doc.Items)
	}
	doc.Buyer, doc.Consignee = billing.PrimaryParties(doc.SalesOrders)

	r.attachPaymentTerms(ctx, doc)
	return doc, nil
}

// salesOrders fetches every referenced sales order in one query, then its delivery items,
// then enriches all delivery items and finally the partners they name.
func (r *run) salesOrders(ctx context.Context, ids []string, items []billing.BillingItem) []billing.SalesOrder {
	ctx, span := telemetry.StartStageSpan(ctx, "sales_orders", telemetry.SpanAttrCount, len(ids))
	defer span.End()

	payload, err := r.svc.gateway.Fetch(ctx, salesOrderQuery(ids))
	if err != nil {
		telemetry.RecordError(span, err)
		r.tolerate(BranchSalesOrders, err, zap.Strings("sales_orders", ids))
		return []billing.SalesOrder{}
	}
	orders := make([]billing.SalesOrder, 0, payload.Len())
	for _, rec := range payload.Records() {
		orders = append(orders, mapSalesOrder(rec))
	}

	r.fetchDeliveryItems(ctx, orders)
	r.enrichDeliveryItems(ctx, orders, items)
	r.attachPartners(ctx, orders)
	return orders
}

func (r *run) fetchDeliveryItems(ctx context.Context, orders []billing.SalesOrder) {
	var g errgroup.Group
	g.SetLimit(r.svc.cfg.MaxConcurrency)
	for i := range orders {
		so := &orders[i]
		if so.SalesOrder == "" {
			continue
		}
		g.Go(func() error {
			payload, err := r.svc.gateway.Fetch(ctx, deliveryItemQuery(so.SalesOrder))
			if err != nil {
				r.tolerate(BranchDeliveryItems, err, zap.String("sales_order", so.SalesOrder))
				return nil
			}
			items := make([]billing.DeliveryItem, 0, payload.Len())
			for _, rec := range payload.Records() {
				items = append(items, mapDeliveryItem(rec))
			}
			so.DeliveryItems = items
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) enrichDeliveryItems(ctx context.Context, orders []billing.SalesOrder, items []billing.BillingItem) {
	ctx, span := telemetry.StartStageSpan(ctx, "delivery_items")
	defer span.End()

	var g errgroup.Group
	g.SetLimit(r.svc.cfg.MaxConcurrency)
	for i := range orders {
		for j := range orders[i].DeliveryItems {
			di := &orders[i].DeliveryItems[j]
			g.Go(func() error {
				di.PlantAddress = r.plantAddress(ctx, *di, items)
				if di.DeliveryDocument != "" {
					di.DeliveryHeader = r.header(ctx, di.DeliveryDocument)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
}

// header returns the delivery header of delivery, fetching it at most once per run.
func (r *run) header(ctx context.Context, delivery string) *billing.DeliveryHeader {
	r.mu.Lock()
	h, ok := r.headers[delivery]
	r.mu.Unlock()
	if ok {
		return h
	}

	v, _, _ := r.headerGroup.Do(delivery, func() (any, error) {
		r.mu.Lock()
		h, ok := r.headers[delivery]
		r.mu.Unlock()
		if ok {
			return h, nil
		}
		h = r.fetchHeader(ctx, delivery)
		r.mu.Lock()
		r.headers[delivery] = h
		r.mu.Unlock()
		return h, nil
	})
	h, _ = v.(*billing.DeliveryHeader)
	return h
}

func (r *run) fetchHeader(ctx context.Context, delivery string) *billing.DeliveryHeader {
	payload, err := r.svc.gateway.Fetch(ctx, headerQuery(delivery))
	if err != nil {
		r.tolerate(BranchDeliveryHeader, err, zap.String("delivery_document", delivery))
		return nil
	}
	rec, ok := payload.First()
	if !ok {
		return nil
	}
	return mapHeader(rec, delivery)
}

// attachPartners fetches each distinct partner once and points every header at the shared
// result.
func (r *run) attachPartners(ctx context.Context, orders []billing.SalesOrder) {
	ids := partnerIDs(orders)
	if len(ids) == 0 {
		return
	}
	ctx, span := telemetry.StartStageSpan(ctx, "partners", telemetry.SpanAttrCount, len(ids))
	defer span.End()

	results := make([]*billing.PartnerAddress, len(ids))
	var g errgroup.Group
	g.SetLimit(r.svc.cfg.MaxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = r.partner(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	partners := make(map[string]*billing.PartnerAddress, len(ids))
	for i, id := range ids {
		partners[id] = results[i]
	}
	r.mu.Lock()
	r.partners = partners
	r.mu.Unlock()

	for i := range orders {
		for j := range orders[i].DeliveryItems {
			h := orders[i].DeliveryItems[j].DeliveryHeader
			if h == nil {
				continue
			}
			if h.SoldToParty != "" {
				h.BuyerAddress = partners[h.SoldToParty]
			}
			if h.ShipToParty != "" {
				h.ConsigneeAddress = partners[h.ShipToParty]
			}
		}
	}
}

// partnerIDs returns the sorted distinct partner ids named by any delivery header.
func partnerIDs(orders []billing.SalesOrder) []string {
	seen := make(map[string]struct{})
	for _, so := range orders {
		for _, di := range so.DeliveryItems {
			for _, id := range di.DeliveryHeader.PartnerIDs() {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// tolerate records a failed enrichment branch. Unconfigured sources are expected and only
// logged at debug level.
func (r *run) tolerate(branch string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("branch", branch), zap.Error(err))
	if errors.Is(err, odata.ErrSourceNotConfigured) {
		r.log.Debug("enrichment source not configured", fields...)
		return
	}
	r.partial.Add(1)
	r.svc.metrics.ObservePartialFailure(branch)
	r.log.Warn("partial enrichment failure", fields...)
}

func (r *run) stats(doc *billing.BillingDocument) runStats {
	var st runStats
	for _, so := range doc.SalesOrders {
		st.deliveryItems += len(so.DeliveryItems)
	}
	r.mu.Lock()
	for _, p := range r.partners {
		if p != nil {
			st.partners++
		}
	}
	r.mu.Unlock()
	return st
}
