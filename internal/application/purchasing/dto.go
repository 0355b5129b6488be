package purchasing

import (
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Requests ====================

// CreateOrderRequest represents a request to create a draft purchase order
type CreateOrderRequest struct {
	OrderNumber          string                 `json:"order_number" binding:"required,min=1,max=50,order_number"`
	SupplierID           uuid.UUID              `json:"supplier_id" binding:"required"`
	SupplierName         string                 `json:"supplier_name" binding:"required,min=1,max=200"`
	Currency             string                 `json:"currency" binding:"omitempty,len=3"`
	ExchangeRate         decimal.Decimal        `json:"exchange_rate" binding:"gte=0"`
	ExpectedDeliveryDate *time.Time             `json:"expected_delivery_date"`
	Notes                string                 `json:"notes" binding:"max=2000"`
	Items                []CreateOrderItemInput `json:"items" binding:"dive"`
	CreatedBy            *uuid.UUID             `json:"-"`
}

// CreateOrderItemInput represents an item in the create order request
type CreateOrderItemInput struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	VariantID   uuid.UUID       `json:"variant_id"`
	ProductName string          `json:"product_name" binding:"required,min=1,max=200"`
	SKU         string          `json:"sku" binding:"max=100"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	CostPrice   decimal.Decimal `json:"cost_price" binding:"gte=0"`
}

// ListOrdersFilter represents filter options for listing orders
type ListOrdersFilter struct {
	Search        string     `form:"search"`
	Statuses      []string   `form:"status"`
	PaymentStatus string     `form:"payment_status"`
	SupplierID    *uuid.UUID `form:"supplier_id"`
	Page          int        `form:"page" binding:"min=0"`
	PageSize      int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at order_number supplier_name status payment_status total_amount"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReceiveLineInput sets the cumulative received quantity of one line
type ReceiveLineInput struct {
	ItemID           uuid.UUID `json:"item_id" binding:"required"`
	ReceivedQuantity int       `json:"received_quantity" binding:"min=0"`
}

// SerialUnitInput carries the identifiers of one received unit
type SerialUnitInput struct {
	SerialNumber string `json:"serial_number" binding:"required,max=100"`
	IMEI         string `json:"imei" binding:"max=50"`
	MACAddress   string `json:"mac_address" binding:"max=50"`
	Barcode      string `json:"barcode" binding:"max=100"`
	Location     string `json:"location" binding:"max=100"`
	Shelf        string `json:"shelf" binding:"max=50"`
	Bin          string `json:"bin" binding:"max=50"`
	Notes        string `json:"notes" binding:"max=500"`
}

// SerialAssignmentInput groups the units received for one line
type SerialAssignmentInput struct {
	ItemID   uuid.UUID         `json:"item_id" binding:"required"`
	Quantity int               `json:"quantity" binding:"min=0"`
	Units    []SerialUnitInput `json:"units" binding:"required,min=1,dive"`
}

// PaymentRequestInput represents a payment submitted against an order
type PaymentRequestInput struct {
	Method         string          `json:"method" binding:"required,oneof=cash bank_transfer mobile_money card cheque credit"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" binding:"omitempty,len=3"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	Status         string          `json:"status" binding:"omitempty,oneof=pending completed failed"`
	Reference      string          `json:"reference" binding:"max=100"`
	Notes          string          `json:"notes" binding:"max=500"`
	IdempotencyKey string          `json:"-"`
}

// QualityCheckLineInput is the verdict for one line
type QualityCheckLineInput struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Result string    `json:"result" binding:"required,oneof=passed failed attention"`
	Notes  string    `json:"notes" binding:"max=500"`
}

// ReturnInput represents a return of received goods
type ReturnInput struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,gt=0"`
	Reason   string    `json:"reason" binding:"required,oneof=damage defect wrong_item excess other"`
	Notes    string    `json:"notes" binding:"max=500"`
}

// StockPosition is the current stock of a product, used to project the
// weighted average cost after the order's goods are booked in
type StockPosition struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"min=0"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// ==================== Responses ====================

// OrderItemResponse represents a line item in API responses
type OrderItemResponse struct {
	ID                 uuid.UUID       `json:"id"`
	ProductID          uuid.UUID       `json:"product_id"`
	VariantID          uuid.UUID       `json:"variant_id"`
	ProductName        string          `json:"product_name"`
	SKU                string          `json:"sku"`
	Quantity           int             `json:"quantity"`
	ReceivedQuantity   int             `json:"received_quantity"`
	RemainingQuantity  int             `json:"remaining_quantity"`
	CostPrice          decimal.Decimal `json:"cost_price"`
	LineTotal          decimal.Decimal `json:"line_total"`
	ReceivedPercentage decimal.Decimal `json:"received_percentage"`
}

// OrderResponse represents a purchase order in API responses
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	OrderNumber          string              `json:"order_number"`
	SupplierID           uuid.UUID           `json:"supplier_id"`
	SupplierName         string              `json:"supplier_name"`
	Status               string              `json:"status"`
	PaymentStatus        string              `json:"payment_status"`
	Currency             string              `json:"currency"`
	ExchangeRate         decimal.Decimal     `json:"exchange_rate"`
	TotalAmount          decimal.Decimal     `json:"total_amount"`
	TotalAmountBase      decimal.Decimal     `json:"total_amount_base"`
	TotalPaid            decimal.Decimal     `json:"total_paid"`
	Outstanding          decimal.Decimal     `json:"outstanding"`
	FormattedTotal       string              `json:"formatted_total"`
	Items                []OrderItemResponse `json:"items"`
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	ReceivedDate         *time.Time          `json:"received_date,omitempty"`
	ApprovedBy           *uuid.UUID          `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time          `json:"approved_at,omitempty"`
	RejectionReason      string              `json:"rejection_reason,omitempty"`
	CancelReason         string              `json:"cancel_reason,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	AvailableActions     []string            `json:"available_actions"`
	Version              int                 `json:"version"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

// OrderListItemResponse represents an order row in list responses
type OrderListItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrderNumber     string          `json:"order_number"`
	SupplierName    string          `json:"supplier_name"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	Currency        string          `json:"currency"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ItemCount       int             `json:"item_count"`
	ReceiveProgress decimal.Decimal `json:"receive_progress"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID           uuid.UUID       `json:"id"`
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	OrderAmount  decimal.Decimal `json:"order_amount"`
	Status       string          `json:"status"`
	Reference    string          `json:"reference,omitempty"`
	Notes        string          `json:"notes,omitempty"`
	PaidBy       uuid.UUID       `json:"paid_by"`
	PaidAt       time.Time       `json:"paid_at"`
}

// ReceivedUnitResponse represents a serial-numbered unit
type ReceivedUnitResponse struct {
	ID           uuid.UUID `json:"id"`
	ItemID       uuid.UUID `json:"item_id"`
	SerialNumber string    `json:"serial_number"`
	IMEI         string    `json:"imei,omitempty"`
	MACAddress   string    `json:"mac_address,omitempty"`
	Barcode      string    `json:"barcode,omitempty"`
	Status       string    `json:"status"`
	Location     string    `json:"location,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// AuditEntryResponse represents one audit trail entry
type AuditEntryResponse struct {
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uuid.UUID `json:"actor_id"`
	Details    string    `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// QualityCheckResponse represents a recorded inspection verdict
type QualityCheckResponse struct {
	ItemID    uuid.UUID `json:"item_id"`
	Result    string    `json:"result"`
	Notes     string    `json:"notes,omitempty"`
	CheckedBy uuid.UUID `json:"checked_by"`
	CheckedAt time.Time `json:"checked_at"`
}

// ReturnResponse represents a recorded return
type ReturnResponse struct {
	ID        uuid.UUID `json:"id"`
	ItemID    uuid.UUID `json:"item_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderDetailResponse is an order together with its ledgers
type OrderDetailResponse struct {
	Order         OrderResponse          `json:"order"`
	Payments      []PaymentResponse      `json:"payments"`
	Units         []ReceivedUnitResponse `json:"units"`
	AuditTrail    []AuditEntryResponse   `json:"audit_trail"`
	QualityChecks []QualityCheckResponse `json:"quality_checks"`
	Returns       []ReturnResponse       `json:"returns"`
}

// ReceiveSummaryLine summarises receiving progress of one line
type ReceiveSummaryLine struct {
	ItemID             uuid.UUID        `json:"item_id"`
	ProductID          uuid.UUID        `json:"product_id"`
	ProductName        string           `json:"product_name"`
	Ordered            int              `json:"ordered"`
	Received           int              `json:"received"`
	Remaining          int              `json:"remaining"`
	Percentage         decimal.Decimal  `json:"percentage"`
	SerialUnits        int              `json:"serial_units"`
	BaseUnitCost       decimal.Decimal  `json:"base_unit_cost"`
	ProjectedAvgCost   *decimal.Decimal `json:"projected_average_cost,omitempty"`
	FormattedUnitCost  string           `json:"formatted_unit_cost"`
	FormattedBaseTotal string           `json:"formatted_base_total"`
}

// ReceiveSummaryResponse summarises receiving progress of an order
type ReceiveSummaryResponse struct {
	OrderID       uuid.UUID            `json:"order_id"`
	Status        string               `json:"status"`
	PaymentStatus string               `json:"payment_status"`
	Lines         []ReceiveSummaryLine `json:"lines"`
	Ordered       int                  `json:"ordered"`
	Received      int                  `json:"received"`
	Remaining     int                  `json:"remaining"`
	Percentage    decimal.Decimal      `json:"percentage"`
	SerialUnits   int                  `json:"serial_units"`
	FullyReceived bool                 `json:"fully_received"`
	CanReceive    bool                 `json:"can_receive"`
}

// ==================== Converters ====================

// ToOrderResponse converts a domain order to a response DTO
func ToOrderResponse(o *purchasing.PurchaseOrder) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i := range o.Items {
		items[i] = ToOrderItemResponse(&o.Items[i])
	}
	actions := purchasing.AvailableActions(o)
	actionNames := make([]string, len(actions))
	for i, a := range actions {
		actionNames[i] = string(a)
	}

	return OrderResponse{
		ID:                   o.ID,
		OrderNumber:          o.OrderNumber,
		SupplierID:           o.SupplierID,
		SupplierName:         o.SupplierName,
		Status:               string(o.Status),
		PaymentStatus:        string(o.PaymentStatus),
		Currency:             string(o.Currency),
		ExchangeRate:         o.ExchangeRate,
		TotalAmount:          o.TotalAmount,
		TotalAmountBase:      o.TotalAmountBaseCurrency(),
		TotalPaid:            o.TotalPaid,
		Outstanding:          o.OutstandingAmount(),
		FormattedTotal:       valueobject.FormatCurrency(o.TotalAmount, o.Currency),
		Items:                items,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		ReceivedDate:         o.ReceivedDate,
		ApprovedBy:           o.ApprovedBy,
		ApprovedAt:           o.ApprovedAt,
		RejectionReason:      o.RejectionReason,
		CancelReason:         o.CancelReason,
		Notes:                o.Notes,
		AvailableActions:     actionNames,
		Version:              o.Version,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

// ToOrderItemResponse converts a domain item to a response DTO
func ToOrderItemResponse(i *purchasing.PurchaseOrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:                 i.ID,
		ProductID:          i.ProductID,
		VariantID:          i.VariantID,
		ProductName:        i.ProductName,
		SKU:                i.SKU,
		Quantity:           i.Quantity,
		ReceivedQuantity:   i.ReceivedQuantity,
		RemainingQuantity:  i.RemainingQuantity(),
		CostPrice:          i.CostPrice,
		LineTotal:          i.LineTotal(),
		ReceivedPercentage: i.ReceivedPercentage(),
	}
}

// ToOrderListItemResponses converts domain orders to list rows
func ToOrderListItemResponses(orders []purchasing.PurchaseOrder) []OrderListItemResponse {
	out := make([]OrderListItemResponse, len(orders))
	for i := range orders {
		o := &orders[i]
		out[i] = OrderListItemResponse{
			ID:              o.ID,
			OrderNumber:     o.OrderNumber,
			SupplierName:    o.SupplierName,
			Status:          string(o.Status),
			PaymentStatus:   string(o.PaymentStatus),
			Currency:        string(o.Currency),
			TotalAmount:     o.TotalAmount,
			ItemCount:       o.ItemCount(),
			ReceiveProgress: o.ReceiveProgress(),
			CreatedAt:       o.CreatedAt,
		}
	}
	return out
}

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(p *purchasing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:           p.ID,
		Method:       string(p.Method),
		Amount:       p.Amount,
		Currency:     string(p.Currency),
		ExchangeRate: p.ExchangeRate,
		OrderAmount:  p.OrderAmount,
		Status:       string(p.Status),
		Reference:    p.Reference,
		Notes:        p.Notes,
		PaidBy:       p.PaidBy,
		PaidAt:       p.PaidAt,
	}
}

func toReceivedUnitResponses(units []purchasing.ReceivedUnit) []ReceivedUnitResponse {
	out := make([]ReceivedUnitResponse, len(units))
	for i, u := range units {
		out[i] = ReceivedUnitResponse{
			ID:           u.ID,
			ItemID:       u.ItemID,
			SerialNumber: u.SerialNumber,
			IMEI:         u.IMEI,
			MACAddress:   u.MACAddress,
			Barcode:      u.Barcode,
			Status:       string(u.Status),
			Location:     u.Location,
			ReceivedAt:   u.ReceivedAt,
		}
	}
	return out
}

func toAuditEntryResponses(entries []purchasing.AuditEntry) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = AuditEntryResponse{
			Action:     string(e.Action),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			Details:    e.Details,
			CreatedAt:  e.CreatedAt,
		}
	}
	return out
}

func toQualityCheckResponses(records []purchasing.QualityCheckRecord) []QualityCheckResponse {
	out := make([]QualityCheckResponse, len(records))
	for i, r := range records {
		out[i] = QualityCheckResponse{
			ItemID:    r.ItemID,
			Result:    string(r.Result),
			Notes:     r.Notes,
			CheckedBy: r.CheckedBy,
			CheckedAt: r.CheckedAt,
		}
	}
	return out
}

// ToReturnResponse converts a domain return record to a response DTO
func ToReturnResponse(r *purchasing.ReturnRecord) ReturnResponse {
	return ReturnResponse{
		ID:        r.ID,
		ItemID:    r.ItemID,
		Quantity:  r.Quantity,
		Reason:    string(r.Reason),
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
	}
}

func toReturnResponses(records []purchasing.ReturnRecord) []ReturnResponse {
	out := make([]ReturnResponse, len(records))
	for i := range records {
		out[i] = ToReturnResponse(&records[i])
	}
	return out
}

func toPaymentResponses(payments []purchasing.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}
