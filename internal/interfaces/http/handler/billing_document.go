package handler

import (
	"context"
	"strings"

	"github.com/erp/invoice/internal/domain/billing"
	"github.com/erp/invoice/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// InvoiceService is the application surface behind the billing document endpoints
type InvoiceService interface {
	Generate(ctx context.Context, id string) (*billing.BillingDocument, error)
	Get(ctx context.Context, id string) (*billing.DocumentSummary, error)
	List(ctx context.Context, top, skip int) ([]billing.DocumentSummary, error)
}

// BillingDocumentHandler serves billing document summaries and enriched invoice views
type BillingDocumentHandler struct {
	BaseHandler
	service InvoiceService
}

// NewBillingDocumentHandler creates a new BillingDocumentHandler
func NewBillingDocumentHandler(service InvoiceService) *BillingDocumentHandler {
	return &BillingDocumentHandler{service: service}
}

// ListBillingDocumentsQuery holds the paging parameters of the list endpoint
type ListBillingDocumentsQuery struct {
	Top  int `form:"top" binding:"omitempty,min=0,max=1000"`
	Skip int `form:"skip" binding:"omitempty,min=0"`
}

// GenerateInvoiceRequest is the body of the generate endpoint
type GenerateInvoiceRequest struct {
	BillingDocument string `json:"BillingDocument"`
}

// RegisterRoutes mounts the billing document endpoints
func (h *BillingDocumentHandler) RegisterRoutes(r *router.Router) {
	g := router.NewDomainGroup("billing-documents", "/billing-documents")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Generate)
	r.Register(g)
}

// List godoc
// @ID           listBillingDocuments
// @Summary      List billing documents
// @Tags         billing-documents
// @Produce      json
// @Param        top   query int false "Page size"
// @Param        skip  query int false "Offset"
// @Success      200 {object} DocumentSummaryListResponse
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /billing-documents [get]
func (h *BillingDocumentHandler) List(c *gin.Context) {
	var q ListBillingDocumentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	docs, err := h.service.List(c.Request.Context(), q.Top, q.Skip)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, q.Top, q.Skip, len(docs))
}

// Get godoc
// @ID           getBillingDocument
// @Summary      Get a billing document summary
// @Tags         billing-documents
// @Produce      json
// @Param        id  path string true "Billing document ID"
// @Success      200 {object} DocumentSummaryResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /billing-documents/{id} [get]
func (h *BillingDocumentHandler) Get(c *gin.Context) {
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}

// Generate godoc
// @ID           generateInvoice
// @Summary      Build the enriched invoice view of a billing document
// @Tags         billing-documents
// @Accept       json
// @Produce      json
// @Param        request body GenerateInvoiceRequest true "Billing document to aggregate"
// @Success      200 {object} BillingDocumentResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /billing-documents [post]
func (h *BillingDocumentHandler) Generate(c *gin.Context) {
	var req GenerateInvoiceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Request body must be a JSON object")
			return
		}
	}
	if strings.TrimSpace(req.BillingDocument) == "" {
		h.BadRequest(c, `A "BillingDocument" ID must be provided.`)
		return
	}

	doc, err := h.service.Generate(c.Request.Context(), strings.TrimSpace(req.BillingDocument))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, doc)
}
