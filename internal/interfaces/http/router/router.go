// Package router wires the gin engine for the invoicing service.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/infrastructure/logger"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/handler"
	"github.com/restorecommerce/invoicing-srv-sub000/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Handlers groups the handlers mounted by the router
type Handlers struct {
	System  *handler.SystemHandler
	Invoice *handler.InvoiceHandler
}

// Options carry router-level toggles
type Options struct {
	ServiceName    string
	TracingEnabled bool
}

// Setup builds the gin engine with middleware and routes
func Setup(log *zap.Logger, h Handlers, opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(
		logger.RequestID(),
		middleware.Tracing(opts.ServiceName, opts.TracingEnabled),
		logger.GinMiddleware(log),
		logger.Recovery(log),
	)

	engine.GET("/health", h.System.Health)

	api := engine.Group("/api/v1")
	{
		invoices := api.Group("/invoices")
		invoices.GET("/:id", h.Invoice.Get)
		invoices.PUT("/:id", h.Invoice.Put)
		invoices.POST("/:id/render", h.Invoice.Render)
	}

	return engine
}
