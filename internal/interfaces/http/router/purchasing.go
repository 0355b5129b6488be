package router

import (
	"github.com/erp/purchasing/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// PurchasingRoutes maps the purchase order lifecycle onto
// /purchasing/orders. Every action is a POST on the order resource.
// Group middleware, such as the mutation rate limit, runs before the handlers.
func PurchasingRoutes(h *handler.PurchaseOrderHandler, mw ...gin.HandlerFunc) *DomainGroup {
	return NewDomainGroup("purchasing", "/purchasing/orders").
		Use(mw...).
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		GET("/:id/summary", h.Summary).
		POST("/:id/summary", h.Summary).
		POST("/:id/submit", h.Submit).
		POST("/:id/approve", h.Approve).
		POST("/:id/approve-direct", h.ApproveDirect).
		POST("/:id/reject", h.Reject).
		POST("/:id/send", h.Send).
		POST("/:id/confirm", h.Confirm).
		POST("/:id/ship", h.Ship).
		POST("/:id/payments", h.Pay).
		POST("/:id/receive", h.Receive).
		POST("/:id/partial-receive", h.PartialReceive).
		POST("/:id/serial-receive", h.SerialReceive).
		POST("/:id/quality-check", h.QualityCheck).
		POST("/:id/complete", h.Complete).
		POST("/:id/cancel", h.Cancel).
		POST("/:id/returns", h.RecordReturn)
}
