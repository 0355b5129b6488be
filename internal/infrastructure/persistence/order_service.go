package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// actionCreate tags the audit entry written when an order is inserted
const actionCreate purchasing.Action = "create"

// GormOrderService implements purchasing.OrderService on GORM. Every Persist
// call runs in one transaction that bumps the order version and writes an
// audit entry.
type GormOrderService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormOrderService creates a new GormOrderService
func NewGormOrderService(db *gorm.DB) *GormOrderService {
	return &GormOrderService{db: db, now: time.Now}
}

// FetchOrder loads an order with its items in line order
func (s *GormOrderService) FetchOrder(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByOrderNumber checks whether an order number is taken
func (s *GormOrderService) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateOrder inserts a new order and its items
func (s *GormOrderService) CreateOrder(ctx context.Context, order *purchasing.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(order)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.ErrAlreadyExists
			}
			return err
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		actor := uuid.Nil
		if order.CreatedBy != nil {
			actor = *order.CreatedBy
		}
		entry := purchasing.NewAuditEntry(order.ID, actionCreate, "", order.Status, actor,
			fmt.Sprintf("order %s created with %d items", order.OrderNumber, len(order.Items)))
		return s.audit(tx, &entry)
	})
}

// ListOrders returns a page of orders matching the filter and the total count
func (s *GormOrderService) ListOrders(ctx context.Context, filter purchasing.OrderFilter) ([]purchasing.PurchaseOrder, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})

	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filter.SupplierID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(supplier_name) LIKE ?", like, like)
	}

	query = query.Session(&gorm.Session{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	sortDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortDir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.PurchaseOrderModel
	if err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_no ASC") }).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]purchasing.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// PersistStatus stores a status-only transition
func (s *GormOrderService) PersistStatus(ctx context.Context, change *purchasing.StatusChange) error {
	now := s.now()
	updates := map[string]any{"status": change.To}
	switch change.Action {
	case purchasing.ActionApprove, purchasing.ActionApproveDirect:
		updates["approved_by"] = change.ActorID
		updates["approved_at"] = now
	case purchasing.ActionReject:
		updates["rejection_reason"] = change.Note
	case purchasing.ActionCancel:
		updates["cancel_reason"] = change.Note
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.advance(tx, change.OrderID, change.From, change.ExpectedVersion, updates); err != nil {
			return err
		}
		entry := purchasing.NewAuditEntry(change.OrderID, change.Action, change.From, change.To, change.ActorID, change.Note)
		return s.audit(tx, &entry)
	})
}

// PersistReceivedQuantities stores the cumulative quantities of a receipt,
// the new status and any serial-numbered units
func (s *GormOrderService) PersistReceivedQuantities(ctx context.Context, plan *purchasing.ReceiptPlan) error {
	updates := map[string]any{"status": plan.To}
	if plan.FullyReceived {
		updates["received_date"] = s.now()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.advance(tx, plan.OrderID, plan.From, plan.ExpectedVersion, updates); err != nil {
			return err
		}
		for _, line := range plan.Lines {
			res := tx.Model(&models.PurchaseOrderItemModel{}).
				Where("id = ? AND order_id = ?", line.ItemID, plan.OrderID).
				Updates(map[string]any{"received_quantity": line.ReceivedQuantity, "updated_at": s.now()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("order item %s: %w", line.ItemID, shared.ErrNotFound)
			}
		}
		if len(plan.Units) > 0 {
			units := make([]models.ReceivedUnitModel, len(plan.Units))
			for i := range plan.Units {
				units[i] = models.ReceivedUnitModelFromDomain(&plan.Units[i])
			}
			if err := tx.Create(&units).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return shared.ErrAlreadyExists
				}
				return err
			}
		}
		details := fmt.Sprintf("%d units received", plan.UnitsReceived)
		if len(plan.Units) > 0 {
			details += fmt.Sprintf(", %d serial numbers", len(plan.Units))
		}
		if plan.Note != "" {
			details += ": " + plan.Note
		}
		entry := purchasing.NewAuditEntry(plan.OrderID, plan.Action, plan.From, plan.To, plan.ActorID, details)
		return s.audit(tx, &entry)
	})
}

// PersistPayment stores a payment together with the new order totals
func (s *GormOrderService) PersistPayment(ctx context.Context, req *purchasing.PaymentRequest) error {
	p := req.Payment
	updates := map[string]any{
		"total_paid":     req.NewTotalPaid,
		"payment_status": req.NewPaymentStatus,
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.advance(tx, p.OrderID, "", req.ExpectedVersion, updates); err != nil {
			return err
		}
		if err := tx.Create(models.PaymentModelFromDomain(&p)).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("%s %s via %s, payment status %s -> %s",
			p.Currency, p.Amount.String(), p.Method, req.From, req.NewPaymentStatus)
		if p.Reference != "" {
			details += ", ref " + p.Reference
		}
		entry := purchasing.NewAuditEntry(p.OrderID, purchasing.ActionMakePayment, "", "", p.PaidBy, details)
		return s.audit(tx, &entry)
	})
}

// PersistQualityCheck stores inspection verdicts and the resulting status
func (s *GormOrderService) PersistQualityCheck(ctx context.Context, plan *purchasing.QualityPlan) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.advance(tx, plan.OrderID, plan.From, plan.ExpectedVersion, map[string]any{"status": plan.To}); err != nil {
			return err
		}
		if len(plan.Records) > 0 {
			rows := make([]models.QualityCheckModel, len(plan.Records))
			for i := range plan.Records {
				rows[i] = models.QualityCheckModelFromDomain(&plan.Records[i])
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		details := fmt.Sprintf("passed %d, failed %d, attention %d",
			plan.Summary.Passed, plan.Summary.Failed, plan.Summary.Attention)
		entry := purchasing.NewAuditEntry(plan.OrderID, purchasing.ActionQualityCheck, plan.From, plan.To, plan.ActorID, details)
		return s.audit(tx, &entry)
	})
}

// PersistReturn stores a return record. Returns do not change the order
// status or its received quantities.
func (s *GormOrderService) PersistReturn(ctx context.Context, record *purchasing.ReturnRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.PurchaseOrderModel
		if err := tx.Select("id", "status").Take(&order, "id = ?", record.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if err := tx.Create(models.ReturnModelFromDomain(record)).Error; err != nil {
			return err
		}
		details := fmt.Sprintf("%d units of item %s returned: %s", record.Quantity, record.ItemID, record.Reason)
		entry := purchasing.NewAuditEntry(record.OrderID, purchasing.ActionRecordReturn, order.Status, order.Status, record.CreatedBy, details)
		return s.audit(tx, &entry)
	})
}

// FetchReceivedUnits returns the serial-numbered units of an order
func (s *GormOrderService) FetchReceivedUnits(ctx context.Context, orderID uuid.UUID) ([]purchasing.ReceivedUnit, error) {
	var rows []models.ReceivedUnitModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("received_at ASC, serial_number ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchasing.ReceivedUnit, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FetchUnitsBySerial returns the units booked for the given products under
// any of the given serial numbers, across all orders
func (s *GormOrderService) FetchUnitsBySerial(ctx context.Context, productIDs []uuid.UUID, serials []string) ([]purchasing.ReceivedUnit, error) {
	if len(productIDs) == 0 || len(serials) == 0 {
		return nil, nil
	}
	var rows []models.ReceivedUnitModel
	if err := s.db.WithContext(ctx).
		Where("product_id IN ? AND serial_number IN ?", productIDs, serials).
		Order("received_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchasing.ReceivedUnit, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FetchPayments returns the payments of an order, oldest first
func (s *GormOrderService) FetchPayments(ctx context.Context, orderID uuid.UUID) ([]purchasing.Payment, error) {
	var rows []models.PaymentModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("paid_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchasing.Payment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FetchAuditTrail returns the audit entries of an order, oldest first
func (s *GormOrderService) FetchAuditTrail(ctx context.Context, orderID uuid.UUID) ([]purchasing.AuditEntry, error) {
	var rows []models.AuditEntryModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchasing.AuditEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FetchQualityChecks returns the inspection verdicts of an order
func (s *GormOrderService) FetchQualityChecks(ctx context.Context, orderID uuid.UUID) ([]purchasing.QualityCheckRecord, error) {
	var rows []models.QualityCheckModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("checked_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchasing.QualityCheckRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// FetchReturns returns the return records of an order
func (s *GormOrderService) FetchReturns(ctx context.Context, orderID uuid.UUID) ([]purchasing.ReturnRecord, error) {
	var rows []models.ReturnModel
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchasing.ReturnRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// advance applies updates to the order row and bumps its version. A non-zero
// expectedVersion and a non-empty from status are both enforced; when no row
// matches, the order is either gone (ErrNotFound) or has moved on
// (ErrConcurrencyConflict).
func (s *GormOrderService) advance(tx *gorm.DB, orderID uuid.UUID, from purchasing.Status, expectedVersion int, updates map[string]any) error {
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = s.now()

	query := tx.Model(&models.PurchaseOrderModel{}).Where("id = ?", orderID)
	if expectedVersion > 0 {
		query = query.Where("version = ?", expectedVersion)
	}
	if from != "" {
		query = query.Where("status = ?", from)
	}
	res := query.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.PurchaseOrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

func (s *GormOrderService) audit(tx *gorm.DB, entry *purchasing.AuditEntry) error {
	entry.CreatedAt = s.now()
	return tx.Create(models.AuditEntryModelFromDomain(entry)).Error
}

var _ purchasing.OrderService = (*GormOrderService)(nil)
