package handler

import (
	"context"
	"net/http"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/erp/purchasing/internal/interfaces/http/dto"
	"github.com/erp/purchasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PurchaseOrderService is the lifecycle surface served over HTTP.
// *purchasingapp.LifecycleService implements it.
type PurchaseOrderService interface {
	CreateOrder(ctx context.Context, req purchasingapp.CreateOrderRequest) (*purchasingapp.OrderResponse, error)
	GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*purchasingapp.OrderDetailResponse, error)
	ListOrders(ctx context.Context, filter purchasingapp.ListOrdersFilter) ([]purchasingapp.OrderListItemResponse, int64, error)
	ReceiveSummary(ctx context.Context, orderID uuid.UUID, stock []purchasingapp.StockPosition) (*purchasingapp.ReceiveSummaryResponse, error)

	SubmitForApproval(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error)
	Approve(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, notes string) (*purchasingapp.OrderResponse, error)
	ApproveDirect(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, notes string) (*purchasingapp.OrderResponse, error)
	Reject(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, reason string) (*purchasingapp.OrderResponse, error)
	SendToSupplier(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error)
	Confirm(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error)
	MarkShipped(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error)
	MakePayment(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, req purchasingapp.PaymentRequestInput) (*purchasingapp.OrderResponse, error)
	Receive(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error)
	PartialReceive(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, lines []purchasingapp.ReceiveLineInput) (*purchasingapp.OrderResponse, error)
	SerialNumberReceive(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, assignments []purchasingapp.SerialAssignmentInput) (*purchasingapp.OrderResponse, error)
	CompleteQualityCheck(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, checks []purchasingapp.QualityCheckLineInput) (*purchasingapp.OrderResponse, error)
	CompleteOrder(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command) (*purchasingapp.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, reason string) (*purchasingapp.OrderResponse, error)
	RecordReturn(ctx context.Context, orderID uuid.UUID, cmd purchasingapp.Command, in purchasingapp.ReturnInput) (*purchasingapp.ReturnResponse, error)
}

// PurchaseOrderHandler handles purchase order lifecycle endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	orders PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(orders PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// orderID parses the :id path parameter
func (h *PurchaseOrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "Invalid order ID format")
		return uuid.Nil, false
	}
	return id, true
}

// command resolves the order, actor and expected version shared by every
// lifecycle action. The body's expected_version wins over If-Match.
func (h *PurchaseOrderHandler) command(c *gin.Context, body versioned, required bool) (uuid.UUID, purchasingapp.Command, bool) {
	id, ok := h.orderID(c)
	if !ok {
		return uuid.Nil, purchasingapp.Command{}, false
	}
	actor, err := getActorID(c)
	if err != nil {
		h.BindError(c, err)
		return uuid.Nil, purchasingapp.Command{}, false
	}

	if required {
		err = c.ShouldBindJSON(body)
	} else {
		err = bindOptionalJSON(c, body)
	}
	if err != nil {
		h.BindError(c, err)
		return uuid.Nil, purchasingapp.Command{}, false
	}

	version := body.expected()
	if version == 0 {
		if version, err = ifMatchVersion(c); err != nil {
			h.BindError(c, err)
			return uuid.Nil, purchasingapp.Command{}, false
		}
	}
	return id, purchasingapp.Command{ActorID: actor, ExpectedVersion: version}, true
}

// orderResult writes the order returned by a lifecycle action
func (h *PurchaseOrderHandler) orderResult(c *gin.Context) func(*purchasingapp.OrderResponse, error) {
	return func(order *purchasingapp.OrderResponse, err error) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		setETag(c, order.Version)
		h.Success(c, order)
	}
}

// Create godoc
// @Summary      Create a draft purchase order
// @Tags         purchasing
// @Security     BearerAuth
// @Param        request body purchasingapp.CreateOrderRequest true "Order"
// @Success      201 {object} dto.Response{data=purchasingapp.OrderResponse}
// @Failure      400,409,503 {object} dto.Response
// @Router       /purchasing/orders [post]
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BindError(c, err)
		return
	}
	var req purchasingapp.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.CreatedBy = &actor

	order, err := h.orders.CreateOrder(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	setETag(c, order.Version)
	c.Header("Location", c.FullPath()+"/"+order.ID.String())
	h.Created(c, order)
}

// List godoc
// @Summary      List purchase orders
// @Tags         purchasing
// @Security     BearerAuth
// @Param        status query []string false "Statuses, repeated or comma separated"
// @Param        payment_status query string false "Payment status"
// @Param        supplier_id query string false "Supplier"
// @Param        search query string false "Order number or supplier name"
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]purchasingapp.OrderListItemResponse,meta=dto.Meta}
// @Router       /purchasing/orders [get]
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var filter purchasingapp.ListOrdersFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = dto.DefaultPageSize
	}

	orders, total, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Get godoc
// @Summary      Get an order with its payments, units, audit trail and available actions
// @Tags         purchasing
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=purchasingapp.OrderDetailResponse}
// @Failure      404,503 {object} dto.Response
// @Router       /purchasing/orders/{id} [get]
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	detail, err := h.orders.GetOrderDetail(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	setETag(c, detail.Order.Version)
	h.Success(c, detail)
}

// Summary godoc
// @Summary      Receive summary per line; POST stock positions to project average costs
// @Tags         purchasing
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=purchasingapp.ReceiveSummaryResponse}
// @Router       /purchasing/orders/{id}/summary [get]
// @Router       /purchasing/orders/{id}/summary [post]
func (h *PurchaseOrderHandler) Summary(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	var req ReceiveSummaryRequest
	if c.Request.Method == http.MethodPost {
		if err := bindOptionalJSON(c, &req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	summary, err := h.orders.ReceiveSummary(c.Request.Context(), id, req.Stock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Submit godoc
// @Summary      Submit a draft for approval
// @Tags         purchasing
// @Param        id path string true "Order ID"
// @Security     BearerAuth
// @Param        If-Match header string false "Expected order version"
// @Success      200 {object} dto.Response{data=purchasingapp.OrderResponse}
// @Failure      409,422 {object} dto.Response
// @Router       /purchasing/orders/{id}/submit [post]
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	var req VersionRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.SubmitForApproval(c.Request.Context(), id, cmd))
}

// Approve godoc
// @Summary      Approve a pending order
// @Tags         purchasing
// @Security     BearerAuth
// @Param        id path string true "Order ID"
// @Param        request body ApproveOrderRequest false "Approval notes"
// @Success      200 {object} dto.Response{data=purchasingapp.OrderResponse}
// @Router       /purchasing/orders/{id}/approve [post]
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	var req ApproveOrderRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.Approve(c.Request.Context(), id, cmd, req.Notes))
}

// ApproveDirect approves a draft in one step. Deprecated: submit then approve.
// @Security     BearerAuth
// @Router       /purchasing/orders/{id}/approve-direct [post]
func (h *PurchaseOrderHandler) ApproveDirect(c *gin.Context) {
	c.Header("Deprecation", "true")
	var req ApproveOrderRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.ApproveDirect(c.Request.Context(), id, cmd, req.Notes))
}

// Reject godoc
// @Summary      Reject a pending order back to draft
// @Tags         purchasing
// @Security     BearerAuth
// @Param        request body ReasonRequest true "Rejection reason"
// @Router       /purchasing/orders/{id}/reject [post]
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	var req ReasonRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.Reject(c.Request.Context(), id, cmd, req.Reason))
}

// Send godoc
// @Summary      Send an approved order to the supplier
// @Tags         purchasing
// @Security     BearerAuth
// @Router       /purchasing/orders/{id}/send [post]
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	var req VersionRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.SendToSupplier(c.Request.Context(), id, cmd))
}

// Confirm records the supplier's confirmation
// @Security     BearerAuth
// @Router       /purchasing/orders/{id}/confirm [post]
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	var req VersionRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.Confirm(c.Request.Context(), id, cmd))
}

// Ship records that the supplier shipped the goods
// @Security     BearerAuth
// @Router       /purchasing/orders/{id}/ship [post]
func (h *PurchaseOrderHandler) Ship(c *gin.Context) {
	var req VersionRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.MarkShipped(c.Request.Context(), id, cmd))
}

// Pay godoc
// @Summary      Record a payment against an order
// @Tags         purchasing
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Refuses a second payment with the same key"
// @Param        request body MakePaymentRequest true "Payment"
// @Success      200 {object} dto.Response{data=purchasingapp.OrderResponse}
// @Failure      409,422,503 {object} dto.Response
// @Router       /purchasing/orders/{id}/payments [post]
func (h *PurchaseOrderHandler) Pay(c *gin.Context) {
	var req MakePaymentRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	req.IdempotencyKey = c.GetHeader(middleware.HeaderIdempotencyKey)
	h.orderResult(c)(h.orders.MakePayment(c.Request.Context(), id, cmd, req.PaymentRequestInput))
}

// Receive godoc
// @Summary      Receive every line in full
// @Tags         purchasing
// @Security     BearerAuth
// @Failure      402 {object} dto.Response "Order not fully paid"
// @Router       /purchasing/orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	var req VersionRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.Receive(c.Request.Context(), id, cmd))
}

// PartialReceive godoc
// @Summary      Set cumulative received quantities for some lines
// @Tags         purchasing
// @Security     BearerAuth
// @Param        request body PartialReceiveRequest true "Lines"
// @Failure      402,422 {object} dto.Response
// @Router       /purchasing/orders/{id}/partial-receive [post]
func (h *PurchaseOrderHandler) PartialReceive(c *gin.Context) {
	var req PartialReceiveRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.PartialReceive(c.Request.Context(), id, cmd, req.Lines))
}

// SerialReceive godoc
// @Summary      Receive serialized units
// @Tags         purchasing
// @Security     BearerAuth
// @Param        request body SerialReceiveRequest true "Serial assignments"
// @Failure      402,422 {object} dto.Response
// @Router       /purchasing/orders/{id}/serial-receive [post]
func (h *PurchaseOrderHandler) SerialReceive(c *gin.Context) {
	var req SerialReceiveRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.SerialNumberReceive(c.Request.Context(), id, cmd, req.Assignments))
}

// QualityCheck records inspection results for received lines
// @Security     BearerAuth
// @Router       /purchasing/orders/{id}/quality-check [post]
func (h *PurchaseOrderHandler) QualityCheck(c *gin.Context) {
	var req QualityCheckRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.CompleteQualityCheck(c.Request.Context(), id, cmd, req.Checks))
}

// Complete closes a fully received order
// @Security     BearerAuth
// @Router       /purchasing/orders/{id}/complete [post]
func (h *PurchaseOrderHandler) Complete(c *gin.Context) {
	var req VersionRequest
	id, cmd, ok := h.command(c, &req, false)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.CompleteOrder(c.Request.Context(), id, cmd))
}

// Cancel godoc
// @Summary      Cancel an unpaid order
// @Tags         purchasing
// @Security     BearerAuth
// @Param        request body ReasonRequest true "Cancel reason"
// @Router       /purchasing/orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	var req ReasonRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	h.orderResult(c)(h.orders.Cancel(c.Request.Context(), id, cmd, req.Reason))
}

// RecordReturn godoc
// @Summary      Record goods returned to the supplier
// @Tags         purchasing
// @Security     BearerAuth
// @Param        request body RecordReturnRequest true "Return"
// @Success      201 {object} dto.Response{data=purchasingapp.ReturnResponse}
// @Router       /purchasing/orders/{id}/returns [post]
func (h *PurchaseOrderHandler) RecordReturn(c *gin.Context) {
	var req RecordReturnRequest
	id, cmd, ok := h.command(c, &req, true)
	if !ok {
		return
	}
	ret, err := h.orders.RecordReturn(c.Request.Context(), id, cmd, req.ReturnInput)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}
