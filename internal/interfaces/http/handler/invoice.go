// Package handler implements the thin HTTP trigger surface. Rendering
// is asynchronous: the render endpoint succeeds once the pre-render
// state is persisted and the request is emitted, and document
// population is observed by reading the invoice back later.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/invoice"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/domain/shared"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/logger"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/resourceclient"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RenderSubmitter submits invoices into the render pipeline
type RenderSubmitter interface {
	SubmitRender(ctx context.Context, invoices []*invoice.Invoice, subject *resourceclient.Subject) error
}

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	invoices invoice.Repository
	saga     RenderSubmitter
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices invoice.Repository, saga RenderSubmitter) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, saga: saga}
}

// RenderRequest is the optional render endpoint body
type RenderRequest struct {
	Subject *resourceclient.Subject `json:"subject,omitempty"`
}

// Get returns an invoice including its current document list
func (h *InvoiceHandler) Get(c *gin.Context) {
	inv, err := h.invoices.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse("NOT_FOUND", err.Error()))
			return
		}
		logger.GetGinLogger(c).Error("failed to load invoice", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("INTERNAL", "failed to load invoice"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(inv))
}

// Put inserts or replaces an invoice
func (h *InvoiceHandler) Put(c *gin.Context) {
	var inv invoice.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", err.Error()))
		return
	}
	inv.ID = c.Param("id")
	if inv.ID == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", "invoice id is required"))
		return
	}

	if err := h.invoices.Upsert(c.Request.Context(), &inv); err != nil {
		logger.GetGinLogger(c).Error("failed to upsert invoice", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("INTERNAL", "failed to persist invoice"))
		return
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(&inv))
}

// Render submits an invoice into the asynchronous render pipeline.
// The call succeeds once the pre-render upsert succeeded; documents
// appear on the invoice when the correlated response is processed.
func (h *InvoiceHandler) Render(c *gin.Context) {
	var req RenderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("INVALID_INPUT", err.Error()))
			return
		}
	}

	inv, err := h.invoices.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.NewErrorResponse("NOT_FOUND", err.Error()))
			return
		}
		logger.GetGinLogger(c).Error("failed to load invoice", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("INTERNAL", "failed to load invoice"))
		return
	}

	if err := h.saga.SubmitRender(c.Request.Context(), []*invoice.Invoice{inv}, req.Subject); err != nil {
		logger.GetGinLogger(c).Error("render submission failed",
			zap.String("invoice_id", inv.ID), zap.Error(err))
		c.JSON(http.StatusBadGateway, dto.NewErrorResponse("RENDER_SUBMIT_FAILED", err.Error()))
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(inv))
}
