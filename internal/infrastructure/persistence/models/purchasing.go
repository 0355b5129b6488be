package models

import (
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root
type PurchaseOrderModel struct {
	AggregateModel
	OrderNumber          string                   `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	SupplierName         string                   `gorm:"type:varchar(200)"`
	Status               purchasing.Status        `gorm:"type:varchar(30);not null;default:'draft';index"`
	PaymentStatus        purchasing.PaymentStatus `gorm:"type:varchar(20);not null;default:'unpaid'"`
	Currency             string                   `gorm:"type:varchar(3);not null"`
	ExchangeRate         decimal.Decimal          `gorm:"type:decimal(18,6);not null;default:1"`
	TotalAmount          decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPaid            decimal.Decimal          `gorm:"type:decimal(18,4);not null;default:0"`
	ExpectedDeliveryDate *time.Time
	ReceivedDate         *time.Time
	ApprovedBy           *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt           *time.Time
	RejectionReason      string     `gorm:"type:varchar(500)"`
	CancelReason         string     `gorm:"type:varchar(500)"`
	Notes                string     `gorm:"type:text"`
	CreatedBy            *uuid.UUID `gorm:"type:uuid"`

	Items []PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *purchasing.PurchaseOrder {
	order := &purchasing.PurchaseOrder{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		OrderNumber:          m.OrderNumber,
		SupplierID:           m.SupplierID,
		SupplierName:         m.SupplierName,
		Status:               m.Status,
		PaymentStatus:        m.PaymentStatus,
		Currency:             valueobject.Currency(m.Currency),
		ExchangeRate:         m.ExchangeRate,
		TotalAmount:          m.TotalAmount,
		TotalPaid:            m.TotalPaid,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		ReceivedDate:         m.ReceivedDate,
		ApprovedBy:           m.ApprovedBy,
		ApprovedAt:           m.ApprovedAt,
		RejectionReason:      m.RejectionReason,
		CancelReason:         m.CancelReason,
		Notes:                m.Notes,
		CreatedBy:            m.CreatedBy,
		Items:                make([]purchasing.PurchaseOrderItem, len(m.Items)),
	}
	for i := range m.Items {
		order.Items[i] = m.Items[i].ToDomain()
	}
	return order
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain
// order. Items are numbered in slice order.
func PurchaseOrderModelFromDomain(o *purchasing.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		OrderNumber:          o.OrderNumber,
		SupplierID:           o.SupplierID,
		SupplierName:         o.SupplierName,
		Status:               o.Status,
		PaymentStatus:        o.PaymentStatus,
		Currency:             string(o.Currency),
		ExchangeRate:         o.ExchangeRate,
		TotalAmount:          o.TotalAmount,
		TotalPaid:            o.TotalPaid,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		ReceivedDate:         o.ReceivedDate,
		ApprovedBy:           o.ApprovedBy,
		ApprovedAt:           o.ApprovedAt,
		RejectionReason:      o.RejectionReason,
		CancelReason:         o.CancelReason,
		Notes:                o.Notes,
		CreatedBy:            o.CreatedBy,
		Items:                make([]PurchaseOrderItemModel, len(o.Items)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i := range o.Items {
		m.Items[i] = PurchaseOrderItemModelFromDomain(&o.Items[i], i+1)
		m.Items[i].OrderID = o.ID
	}
	return m
}

// PurchaseOrderItemModel is the persistence model for an order line
type PurchaseOrderItemModel struct {
	BaseModel
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo           int             `gorm:"not null"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID        uuid.UUID       `gorm:"type:uuid"`
	ProductName      string          `gorm:"type:varchar(200);not null"`
	SKU              string          `gorm:"column:sku;type:varchar(100)"`
	Quantity         int             `gorm:"not null"`
	ReceivedQuantity int             `gorm:"not null;default:0"`
	CostPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Notes            string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// ToDomain converts the model to a domain PurchaseOrderItem
func (m *PurchaseOrderItemModel) ToDomain() purchasing.PurchaseOrderItem {
	return purchasing.PurchaseOrderItem{
		ID:               m.ID,
		OrderID:          m.OrderID,
		ProductID:        m.ProductID,
		VariantID:        m.VariantID,
		ProductName:      m.ProductName,
		SKU:              m.SKU,
		Quantity:         m.Quantity,
		ReceivedQuantity: m.ReceivedQuantity,
		CostPrice:        m.CostPrice,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// PurchaseOrderItemModelFromDomain creates a line model at position lineNo
func PurchaseOrderItemModelFromDomain(item *purchasing.PurchaseOrderItem, lineNo int) PurchaseOrderItemModel {
	return PurchaseOrderItemModel{
		BaseModel: BaseModel{
			ID:        item.ID,
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		},
		OrderID:          item.OrderID,
		LineNo:           lineNo,
		ProductID:        item.ProductID,
		VariantID:        item.VariantID,
		ProductName:      item.ProductName,
		SKU:              item.SKU,
		Quantity:         item.Quantity,
		ReceivedQuantity: item.ReceivedQuantity,
		CostPrice:        item.CostPrice,
		Notes:            item.Notes,
	}
}

// PaymentModel is one row of the payments ledger
type PaymentModel struct {
	ID           uuid.UUID                      `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID                      `gorm:"type:uuid;not null;index"`
	Method       purchasing.PaymentMethod       `gorm:"type:varchar(30);not null"`
	Amount       decimal.Decimal                `gorm:"type:decimal(18,4);not null"`
	Currency     string                         `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal                `gorm:"type:decimal(18,6);not null;default:1"`
	OrderAmount  decimal.Decimal                `gorm:"type:decimal(18,4);not null"`
	Status       purchasing.PaymentRecordStatus `gorm:"type:varchar(20);not null"`
	Reference    string                         `gorm:"type:varchar(100);index"`
	Notes        string                         `gorm:"type:text"`
	PaidBy       uuid.UUID                      `gorm:"type:uuid"`
	PaidAt       time.Time                      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "purchase_order_payments"
}

// ToDomain converts the model to a domain Payment
func (m *PaymentModel) ToDomain() purchasing.Payment {
	return purchasing.Payment{
		ID:           m.ID,
		OrderID:      m.OrderID,
		Method:       m.Method,
		Amount:       m.Amount,
		Currency:     valueobject.Currency(m.Currency),
		ExchangeRate: m.ExchangeRate,
		OrderAmount:  m.OrderAmount,
		Status:       m.Status,
		Reference:    m.Reference,
		Notes:        m.Notes,
		PaidBy:       m.PaidBy,
		PaidAt:       m.PaidAt,
	}
}

// PaymentModelFromDomain creates a payment row from a domain Payment
func PaymentModelFromDomain(p *purchasing.Payment) *PaymentModel {
	return &PaymentModel{
		ID:           p.ID,
		OrderID:      p.OrderID,
		Method:       p.Method,
		Amount:       p.Amount,
		Currency:     string(p.Currency),
		ExchangeRate: p.ExchangeRate,
		OrderAmount:  p.OrderAmount,
		Status:       p.Status,
		Reference:    p.Reference,
		Notes:        p.Notes,
		PaidBy:       p.PaidBy,
		PaidAt:       p.PaidAt,
	}
}

// ReceivedUnitModel is a serial-numbered unit booked in against a line
type ReceivedUnitModel struct {
	ID           uuid.UUID             `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ItemID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex:idx_received_units_product_serial"`
	VariantID    uuid.UUID             `gorm:"type:uuid"`
	SerialNumber string                `gorm:"type:varchar(100);not null;uniqueIndex:idx_received_units_product_serial"`
	IMEI         string                `gorm:"column:imei;type:varchar(20)"`
	MACAddress   string                `gorm:"column:mac_address;type:varchar(17)"`
	Barcode      string                `gorm:"type:varchar(100)"`
	Status       purchasing.UnitStatus `gorm:"type:varchar(20);not null;default:'available'"`
	Location     string                `gorm:"type:varchar(100)"`
	Shelf        string                `gorm:"type:varchar(50)"`
	Bin          string                `gorm:"type:varchar(50)"`
	Notes        string                `gorm:"type:text"`
	ReceivedBy   uuid.UUID             `gorm:"type:uuid"`
	ReceivedAt   time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReceivedUnitModel) TableName() string {
	return "purchase_order_received_units"
}

// ToDomain converts the model to a domain ReceivedUnit
func (m *ReceivedUnitModel) ToDomain() purchasing.ReceivedUnit {
	return purchasing.ReceivedUnit{
		ID:           m.ID,
		OrderID:      m.OrderID,
		ItemID:       m.ItemID,
		ProductID:    m.ProductID,
		VariantID:    m.VariantID,
		SerialNumber: m.SerialNumber,
		IMEI:         m.IMEI,
		MACAddress:   m.MACAddress,
		Barcode:      m.Barcode,
		Status:       m.Status,
		Location:     m.Location,
		Shelf:        m.Shelf,
		Bin:          m.Bin,
		Notes:        m.Notes,
		ReceivedBy:   m.ReceivedBy,
		ReceivedAt:   m.ReceivedAt,
	}
}

// ReceivedUnitModelFromDomain creates a unit row from a domain ReceivedUnit
func ReceivedUnitModelFromDomain(u *purchasing.ReceivedUnit) ReceivedUnitModel {
	return ReceivedUnitModel{
		ID:           u.ID,
		OrderID:      u.OrderID,
		ItemID:       u.ItemID,
		ProductID:    u.ProductID,
		VariantID:    u.VariantID,
		SerialNumber: u.SerialNumber,
		IMEI:         u.IMEI,
		MACAddress:   u.MACAddress,
		Barcode:      u.Barcode,
		Status:       u.Status,
		Location:     u.Location,
		Shelf:        u.Shelf,
		Bin:          u.Bin,
		Notes:        u.Notes,
		ReceivedBy:   u.ReceivedBy,
		ReceivedAt:   u.ReceivedAt,
	}
}

// QualityCheckModel stores one inspection verdict
type QualityCheckModel struct {
	ID        uuid.UUID                `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID                `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID                `gorm:"type:uuid;not null"`
	Result    purchasing.QualityResult `gorm:"type:varchar(20);not null"`
	Notes     string                   `gorm:"type:text"`
	CheckedBy uuid.UUID                `gorm:"type:uuid"`
	CheckedAt time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (QualityCheckModel) TableName() string {
	return "purchase_order_quality_checks"
}

// ToDomain converts the model to a domain QualityCheckRecord
func (m *QualityCheckModel) ToDomain() purchasing.QualityCheckRecord {
	return purchasing.QualityCheckRecord{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ItemID:    m.ItemID,
		Result:    m.Result,
		Notes:     m.Notes,
		CheckedBy: m.CheckedBy,
		CheckedAt: m.CheckedAt,
	}
}

// QualityCheckModelFromDomain creates a verdict row
func QualityCheckModelFromDomain(r *purchasing.QualityCheckRecord) QualityCheckModel {
	return QualityCheckModel{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ItemID:    r.ItemID,
		Result:    r.Result,
		Notes:     r.Notes,
		CheckedBy: r.CheckedBy,
		CheckedAt: r.CheckedAt,
	}
}

// ReturnModel stores goods sent back to the supplier
type ReturnModel struct {
	ID        uuid.UUID               `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID               `gorm:"type:uuid;not null;index"`
	ItemID    uuid.UUID               `gorm:"type:uuid;not null"`
	Quantity  int                     `gorm:"not null"`
	Reason    purchasing.ReturnReason `gorm:"type:varchar(20);not null"`
	Notes     string                  `gorm:"type:text"`
	CreatedBy uuid.UUID               `gorm:"type:uuid"`
	CreatedAt time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ReturnModel) TableName() string {
	return "purchase_order_returns"
}

// ToDomain converts the model to a domain ReturnRecord
func (m *ReturnModel) ToDomain() purchasing.ReturnRecord {
	return purchasing.ReturnRecord{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ItemID:    m.ItemID,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

// ReturnModelFromDomain creates a return row
func ReturnModelFromDomain(r *purchasing.ReturnRecord) *ReturnModel {
	return &ReturnModel{
		ID:        r.ID,
		OrderID:   r.OrderID,
		ItemID:    r.ItemID,
		Quantity:  r.Quantity,
		Reason:    r.Reason,
		Notes:     r.Notes,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt,
	}
}

// AuditEntryModel records one persisted lifecycle action
type AuditEntryModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Action     purchasing.Action `gorm:"type:varchar(30);not null"`
	FromStatus purchasing.Status `gorm:"type:varchar(30)"`
	ToStatus   purchasing.Status `gorm:"type:varchar(30)"`
	ActorID    uuid.UUID         `gorm:"type:uuid"`
	Details    string            `gorm:"type:text"`
	CreatedAt  time.Time         `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "purchase_order_audit_entries"
}

// ToDomain converts the model to a domain AuditEntry
func (m *AuditEntryModel) ToDomain() purchasing.AuditEntry {
	return purchasing.AuditEntry{
		ID:         m.ID,
		OrderID:    m.OrderID,
		Action:     m.Action,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		ActorID:    m.ActorID,
		Details:    m.Details,
		CreatedAt:  m.CreatedAt,
	}
}

// AuditEntryModelFromDomain creates an audit row
func AuditEntryModelFromDomain(e *purchasing.AuditEntry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:         e.ID,
		OrderID:    e.OrderID,
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		ActorID:    e.ActorID,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}

// AllModels lists every model, in dependency order, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&PurchaseOrderModel{},
		&PurchaseOrderItemModel{},
		&PaymentModel{},
		&ReceivedUnitModel{},
		&QualityCheckModel{},
		&ReturnModel{},
		&AuditEntryModel{},
	}
}
