package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/domain/shared"
	"github.com/erp/invoice/internal/infrastructure/logger"
	"github.com/erp/invoice/internal/infrastructure/odata"
	"github.com/erp/invoice/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const upstreamErrorMessage = "Error fetching data from the remote ERP system"

// Config tunes the aggregation pipeline.
type Config struct {
	// MaxConcurrency bounds the fan-out within one stage. 1 runs every stage sequentially.
	MaxConcurrency int
	// RequestDeadline caps one whole aggregation. Zero disables it.
	RequestDeadline time.Duration
	// PricingElements enables the per-item pricing condition fetch.
	PricingElements bool
	// PaymentTermsLanguage is the language key of the payment-terms name.
	PaymentTermsLanguage string
	// PartnerTaxType selects the business-partner tax number used as GSTIN.
	PartnerTaxType string
	// ListPageSize is the default $top of the document list.
	ListPageSize int
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency:       4,
		RequestDeadline:      60 * time.Second,
		PricingElements:      true,
		PaymentTermsLanguage: "EN",
		PartnerTaxType:       "IN3",
		ListPageSize:         100,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the base logger. A logger carried in the request context takes precedence.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// Service builds invoice views of billing documents from the ERP sources.
type Service struct {
	gateway  Gateway
	lookup   *ProductPlantLookup
	resolver *Resolver
	cfg      Config
	logger   *zap.Logger
	metrics  Metrics
}

// NewService creates the aggregation service. The product-plant store is owned by the
// service for the lifetime of the process.
func NewService(gateway Gateway, store billing.ProductPlantStore, cfg Config, opts ...Option) *Service {
	defaults := DefaultConfig()
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.PaymentTermsLanguage == "" {
		cfg.PaymentTermsLanguage = defaults.PaymentTermsLanguage
	}
	if cfg.PartnerTaxType == "" {
		cfg.PartnerTaxType = defaults.PartnerTaxType
	}
	if cfg.ListPageSize <= 0 {
		cfg.ListPageSize = defaults.ListPageSize
	}

	s := &Service{
		gateway: gateway,
		cfg:     cfg,
		logger:  zap.NewNop(),
		metrics: nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lookup = NewProductPlantLookup(gateway, store, s.logger, s.metrics)
	if cfg.RequestDeadline > 0 {
		s.lookup.fetchTimeout = cfg.RequestDeadline
	}
	s.resolver = NewResolver(s.lookup, s.logger)
	return s
}

// Generate fetches billing document id with its items and enriches it with sales orders,
// delivery items, plant and partner data, and the payment-terms name. Only the document
// fetch itself can fail; every enrichment branch degrades to an empty value.
func (s *Service) Generate(ctx context.Context, id string) (*billing.BillingDocument, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewDomainError(shared.CodeBadRequest, `A "BillingDocument" ID must be provided.`)
	}

	if s.cfg.RequestDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestDeadline)
		defer cancel()
	}

	runID := uuid.NewString()
	ctx, log := logger.WithRunID(ctx, s.loggerFor(ctx), runID)
	log = log.With(zap.String("billing_document", id))
	ctx, span := telemetry.StartStageSpan(ctx, "generate",
		telemetry.SpanAttrBillingDocument, id,
		telemetry.SpanAttrRunID, runID,
	)
	defer span.End()

	start := time.Now()
	r := newRun(s, log)
	doc, err := r.generate(ctx, id)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveAggregation(outcomeOf(err), elapsed)
		telemetry.RecordError(span, err)
		log.Warn("billing document aggregation failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, err
	}

	stats := r.stats(doc)
	s.metrics.ObserveAggregation(OutcomeOK, elapsed)
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, stats.deliveryItems)
	log.Info("billing document aggregated",
		zap.Int("items", len(doc.Items)),
		zap.Int("sales_orders", len(doc.SalesOrders)),
		zap.Int("delivery_items", stats.deliveryItems),
		zap.Int("partners", stats.partners),
		zap.Int64("partial_failures", r.partial.Load()),
		zap.Duration("duration", elapsed),
	)
	return doc, nil
}

// Get returns the unenriched summary of billing document id.
func (s *Service) Get(ctx context.Context, id string) (*billing.DocumentSummary, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, shared.NewDomainError(shared.CodeBadRequest, "A billing document ID must be provided.")
	}
	rec, err := s.fetchDocument(ctx, documentSummaryQuery(id), id)
	if err != nil {
		return nil, err
	}
	summary := mapSummary(rec)
	return &summary, nil
}

// List returns one page of billing document summaries. A non-positive top uses the
// configured page size.
func (s *Service) List(ctx context.Context, top, skip int) ([]billing.DocumentSummary, error) {
	if top <= 0 {
		top = s.cfg.ListPageSize
	}
	if skip < 0 {
		skip = 0
	}
	payload, err := s.gateway.Fetch(ctx, documentListQuery(top, skip))
	if err != nil {
		return nil, upstreamError(err)
	}
	if payload.IsSingle() {
		return nil, shared.NewDomainError(shared.CodeUpstreamUnavailable, upstreamErrorMessage).
			WithDetails("Expected an array of billing documents.")
	}
	out := make([]billing.DocumentSummary, 0, payload.Len())
	for _, rec := range payload.Records() {
		out = append(out, mapSummary(rec))
	}
	return out, nil
}

func (s *Service) fetchDocument(ctx context.Context, q odata.Query, id string) (odata.Record, error) {
	payload, err := s.gateway.Fetch(ctx, q)
	if err != nil {
		if errors.Is(err, odata.ErrNotFound) {
			return nil, documentNotFound(id)
		}
		return nil, upstreamError(err)
	}
	rec, ok := payload.First()
	if !ok {
		return nil, documentNotFound(id)
	}
	return rec, nil
}

func (s *Service) loggerFor(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(logger.LoggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return s.logger
}

func documentNotFound(id string) error {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Billing Document '%s' not found.", id))
}

func upstreamError(err error) error {
	return shared.WrapDomainError(shared.CodeUpstreamUnavailable, upstreamErrorMessage, err).
		WithDetails(odata.UpstreamMessage(err))
}

func outcomeOf(err error) string {
	if errors.Is(err, shared.ErrNotFound) {
		return OutcomeNotFound
	}
	return OutcomeFailed
}
