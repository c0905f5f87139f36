package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/invoice/internal/application/invoice"
	"github.com/erp/invoice/internal/infrastructure/cache"
	"github.com/erp/invoice/internal/infrastructure/config"
	"github.com/erp/invoice/internal/infrastructure/logger"
	"github.com/erp/invoice/internal/infrastructure/odata"
	"github.com/erp/invoice/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

//	@title			Invoice Aggregation API
//	@version		1.0
//	@description	Builds invoice views of ERP billing documents from their OData sources.
//	@BasePath		/api/v1

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting invoice service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	metrics := telemetry.NewMetrics()

	store, err := cache.NewProductPlantStoreFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize product-plant cache", zap.Error(err))
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Error("Error closing product-plant cache", zap.Error(err))
			}
		}()
	}

	client := odata.NewClient(odataConfig(cfg),
		odata.WithLogger(log),
		odata.WithMetrics(metrics),
		odata.WithTracerProvider(tp.Provider()),
	)

	svc := invoice.NewService(client, store, invoice.Config{
		MaxConcurrency:       cfg.Upstream.MaxConcurrency,
		RequestDeadline:      cfg.Upstream.RequestDeadline,
		PricingElements:      cfg.Enrichment.PricingElements,
		PaymentTermsLanguage: cfg.Enrichment.PaymentTermsLanguage,
		PartnerTaxType:       cfg.Enrichment.PartnerTaxType,
		ListPageSize:         cfg.Enrichment.ListPageSize,
	},
		invoice.WithLogger(log),
		invoice.WithMetrics(metrics),
	)

	for _, source := range odata.AllSources {
		if !client.Configured(source) {
			log.Warn("OData source not configured, enrichment from it is skipped",
				zap.String("source", string(source)))
		}
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        newEngine(cfg, log, svc, metrics),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// odataConfig maps the upstream section onto the OData client settings
func odataConfig(cfg *config.Config) odata.Config {
	ep := cfg.Upstream.Endpoints
	return odata.Config{
		Endpoints: map[odata.Source]string{
			odata.SourceBillingDocument:     ep.BillingDocument,
			odata.SourceBillingDocumentItem: ep.BillingDocumentItem,
			odata.SourceSalesOrder:          ep.SalesOrder,
			odata.SourceDeliveryItem:        ep.DeliveryItem,
			odata.SourceDeliveryHeader:      ep.DeliveryHeader,
			odata.SourcePlant:               ep.Plant,
			odata.SourceTaxDetail:           ep.TaxDetail,
			odata.SourceBusinessPartner:     ep.BusinessPartner,
			odata.SourcePaymentTerms:        ep.PaymentTerms,
			odata.SourceProductPlant:        ep.ProductPlant,
		},
		Username:     cfg.Upstream.Username,
		Password:     cfg.Upstream.Password,
		Timeout:      cfg.Upstream.Timeout,
		RateLimitQPS: cfg.Upstream.RateLimitQPS,
		RateBurst:    cfg.Upstream.RateBurst,
		Format:       "json",
	}
}
