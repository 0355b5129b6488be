package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/domain/shared/valueobject"
	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultServiceTimeout bounds every call to the order store
const DefaultServiceTimeout = 10 * time.Second

const actionCreate purchasing.Action = "create"

// LifecycleConfig configures a LifecycleService
type LifecycleConfig struct {
	// ServiceTimeout bounds each order store call. Default: 10s
	ServiceTimeout time.Duration
	// IdempotencyTTL is how long a payment reference is remembered. Default: 24h
	IdempotencyTTL time.Duration
	Logger         *zap.Logger
}

// LifecycleService exposes the purchase order lifecycle operations. Every
// mutating operation runs through an OrderSession: guards are evaluated on
// the loaded snapshot, the change is persisted through the order service
// and the snapshot is replaced by a reload.
type LifecycleService struct {
	orders         purchasing.OrderService
	eventPublisher shared.EventPublisher
	idempotency    shared.IdempotencyStore
	metrics        *telemetry.LifecycleMetrics
	logger         *zap.Logger
	timeout        time.Duration
	idempotencyTTL time.Duration
	now            func() time.Time
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(orders purchasing.OrderService, cfg LifecycleConfig) *LifecycleService {
	if cfg.ServiceTimeout <= 0 {
		cfg.ServiceTimeout = DefaultServiceTimeout
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = shared.DefaultIdempotencyConfig().TTL
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &LifecycleService{
		orders:         orders,
		logger:         cfg.Logger,
		timeout:        cfg.ServiceTimeout,
		idempotencyTTL: cfg.IdempotencyTTL,
		now:            time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore sets the store used to refuse duplicate payments
func (s *LifecycleService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetMetrics sets the lifecycle metrics collector
func (s *LifecycleService) SetMetrics(m *telemetry.LifecycleMetrics) {
	s.metrics = m
}

// OpenSession loads an order and returns a session bound to it
func (s *LifecycleService) OpenSession(ctx context.Context, orderID, actorID uuid.UUID) (*OrderSession, error) {
	order, err := s.fetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderSession{svc: s, order: order, actorID: actorID}, nil
}

// ==================== Exposed operations ====================

// SubmitForApproval moves a draft order to pending_approval
func (s *LifecycleService) SubmitForApproval(ctx context.Context, orderID uuid.UUID, cmd Command) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.SubmitForApproval(ctx)
	})
}

// Approve approves an order awaiting approval
func (s *LifecycleService) Approve(ctx context.Context, orderID uuid.UUID, cmd Command, notes string) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.Approve(ctx, notes)
	})
}

// ApproveDirect approves a draft order in one step.
//
// Deprecated: submit for approval and approve instead.
func (s *LifecycleService) ApproveDirect(ctx context.Context, orderID uuid.UUID, cmd Command, notes string) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.ApproveDirect(ctx, notes)
	})
}

// Reject sends an order awaiting approval back to draft
func (s *LifecycleService) Reject(ctx context.Context, orderID uuid.UUID, cmd Command, reason string) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.Reject(ctx, reason)
	})
}

// SendToSupplier marks an approved order as sent
func (s *LifecycleService) SendToSupplier(ctx context.Context, orderID uuid.UUID, cmd Command) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.SendToSupplier(ctx)
	})
}

// Confirm records the supplier's confirmation
func (s *LifecycleService) Confirm(ctx context.Context, orderID uuid.UUID, cmd Command) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.Confirm(ctx)
	})
}

// MarkShipped records that the supplier dispatched the goods
func (s *LifecycleService) MarkShipped(ctx context.Context, orderID uuid.UUID, cmd Command) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.MarkShipped(ctx)
	})
}

// MakePayment records a supplier payment
func (s *LifecycleService) MakePayment(ctx context.Context, orderID uuid.UUID, cmd Command, req PaymentRequestInput) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.MakePayment(ctx, req)
	})
}

// Receive books in every outstanding unit
func (s *LifecycleService) Receive(ctx context.Context, orderID uuid.UUID, cmd Command) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.Receive(ctx)
	})
}

// PartialReceive sets cumulative received quantities for some lines
func (s *LifecycleService) PartialReceive(ctx context.Context, orderID uuid.UUID, cmd Command, lines []ReceiveLineInput) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.PartialReceive(ctx, lines)
	})
}

// SerialNumberReceive books in serial-numbered units
func (s *LifecycleService) SerialNumberReceive(ctx context.Context, orderID uuid.UUID, cmd Command, assignments []SerialAssignmentInput) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.SerialNumberReceive(ctx, assignments)
	})
}

// CompleteQualityCheck records inspection verdicts and advances the order
func (s *LifecycleService) CompleteQualityCheck(ctx context.Context, orderID uuid.UUID, cmd Command, checks []QualityCheckLineInput) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.CompleteQualityCheck(ctx, checks)
	})
}

// CompleteOrder closes a fully received order
func (s *LifecycleService) CompleteOrder(ctx context.Context, orderID uuid.UUID, cmd Command) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.CompleteOrder(ctx)
	})
}

// Cancel cancels an order that has not been paid in full
func (s *LifecycleService) Cancel(ctx context.Context, orderID uuid.UUID, cmd Command, reason string) (*OrderResponse, error) {
	return s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		return sess.Cancel(ctx, reason)
	})
}

// RecordReturn records goods sent back to the supplier
func (s *LifecycleService) RecordReturn(ctx context.Context, orderID uuid.UUID, cmd Command, in ReturnInput) (*ReturnResponse, error) {
	var record *purchasing.ReturnRecord
	_, err := s.runOnSession(ctx, orderID, cmd, func(ctx context.Context, sess *OrderSession) error {
		var err error
		record, err = sess.RecordReturn(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := ToReturnResponse(record)
	return &resp, nil
}

// Command carries the caller identity and optional precondition of a
// mutating request
type Command struct {
	ActorID uuid.UUID
	// ExpectedVersion, when non-zero, must match the stored order version
	ExpectedVersion int
}

func (s *LifecycleService) runOnSession(ctx context.Context, orderID uuid.UUID, cmd Command, fn func(context.Context, *OrderSession) error) (*OrderResponse, error) {
	ctx, _ = logger.WithActorID(ctx, s.log(ctx), cmd.ActorID.String())
	ctx, _ = logger.WithOrderID(ctx, s.log(ctx), orderID.String())
	ctx, span := telemetry.StartSpan(ctx, "purchase_order.session",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrActorID, cmd.ActorID),
	)
	defer span.End()

	sess, err := s.OpenSession(ctx, orderID, cmd.ActorID)
	if err == nil {
		err = sess.expectVersion(cmd.ExpectedVersion)
	}
	if err == nil {
		err = fn(ctx, sess)
	}
	if err != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrErrorKind, string(purchasing.KindOf(err)))
		telemetry.RecordError(span, err)
		return nil, err
	}

	order := sess.Order()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderStatus, string(order.Status),
		telemetry.SpanAttrVersion, order.Version,
	)
	resp := ToOrderResponse(order)
	return &resp, nil
}

// ==================== Queries and creation ====================

// CreateOrder creates a draft purchase order with its items
func (s *LifecycleService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResponse, error) {
	currency := valueobject.BaseCurrency
	if req.Currency != "" {
		c, err := valueobject.ParseCurrency(req.Currency)
		if err != nil {
			return nil, err
		}
		currency = c
	}

	order, err := purchasing.NewPurchaseOrder(req.OrderNumber, req.SupplierID, req.SupplierName, currency, req.ExchangeRate)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, err := order.AddItem(item.ProductID, item.VariantID, item.ProductName, item.SKU, item.Quantity, item.CostPrice); err != nil {
			return nil, err
		}
	}
	order.SetExpectedDeliveryDate(req.ExpectedDeliveryDate)
	order.SetNotes(strings.TrimSpace(req.Notes))
	if req.CreatedBy != nil {
		order.SetCreatedBy(*req.CreatedBy)
	}

	exists, err := callWithResult(ctx, s, "ExistsByOrderNumber", func(ctx context.Context) (bool, error) {
		return s.orders.ExistsByOrderNumber(ctx, order.OrderNumber)
	})
	if err != nil {
		return nil, s.wrapServiceError(actionCreate, order, err)
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Order number %s already exists", order.OrderNumber))
	}

	if err := s.call(ctx, "CreateOrder", func(ctx context.Context) error {
		return s.orders.CreateOrder(ctx, order)
	}); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Order number %s already exists", order.OrderNumber))
		}
		return nil, s.wrapServiceError(actionCreate, order, err)
	}

	events := order.GetDomainEvents()
	order.ClearDomainEvents()
	s.publish(ctx, events...)

	s.log(ctx).Info("Purchase order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", order.ItemCount()),
	)

	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetOrder returns the current state of an order
func (s *LifecycleService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.fetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(order)
	return &resp, nil
}

// GetOrderDetail loads an order and its ledgers concurrently
func (s *LifecycleService) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*OrderDetailResponse, error) {
	var (
		order    *purchasing.PurchaseOrder
		payments []purchasing.Payment
		units    []purchasing.ReceivedUnit
		audit    []purchasing.AuditEntry
		checks   []purchasing.QualityCheckRecord
		returns  []purchasing.ReturnRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		order, err = s.fetchOrder(gctx, orderID)
		return err
	})
	g.Go(func() (err error) {
		payments, err = callWithResult(gctx, s, "FetchPayments", func(ctx context.Context) ([]purchasing.Payment, error) {
			return s.orders.FetchPayments(ctx, orderID)
		})
		return err
	})
	g.Go(func() (err error) {
		units, err = callWithResult(gctx, s, "FetchReceivedUnits", func(ctx context.Context) ([]purchasing.ReceivedUnit, error) {
			return s.orders.FetchReceivedUnits(ctx, orderID)
		})
		return err
	})
	g.Go(func() (err error) {
		audit, err = callWithResult(gctx, s, "FetchAuditTrail", func(ctx context.Context) ([]purchasing.AuditEntry, error) {
			return s.orders.FetchAuditTrail(ctx, orderID)
		})
		return err
	})
	g.Go(func() (err error) {
		checks, err = callWithResult(gctx, s, "FetchQualityChecks", func(ctx context.Context) ([]purchasing.QualityCheckRecord, error) {
			return s.orders.FetchQualityChecks(ctx, orderID)
		})
		return err
	})
	g.Go(func() (err error) {
		returns, err = callWithResult(gctx, s, "FetchReturns", func(ctx context.Context) ([]purchasing.ReturnRecord, error) {
			return s.orders.FetchReturns(ctx, orderID)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.wrapServiceError("", orderRef(orderID), err)
	}

	return &OrderDetailResponse{
		Order:         ToOrderResponse(order),
		Payments:      toPaymentResponses(payments),
		Units:         toReceivedUnitResponses(units),
		AuditTrail:    toAuditEntryResponses(audit),
		QualityChecks: toQualityCheckResponses(checks),
		Returns:       toReturnResponses(returns),
	}, nil
}

// ListOrders returns a page of orders
func (s *LifecycleService) ListOrders(ctx context.Context, filter ListOrdersFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := purchasing.OrderFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
			Search:   strings.TrimSpace(filter.Search),
		},
		PaymentStatus: purchasing.PaymentStatus(filter.PaymentStatus),
		SupplierID:    filter.SupplierID,
	}
	if domainFilter.PaymentStatus != "" && !domainFilter.PaymentStatus.IsValid() {
		return nil, 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment status %q", filter.PaymentStatus))
	}
	for _, raw := range filter.Statuses {
		for _, part := range strings.Split(raw, ",") {
			st := purchasing.Status(strings.TrimSpace(part))
			if st == "" {
				continue
			}
			if !st.IsValid() {
				return nil, 0, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown status %q", st))
			}
			domainFilter.Statuses = append(domainFilter.Statuses, st)
		}
	}

	var (
		orders []purchasing.PurchaseOrder
		total  int64
	)
	err := s.call(ctx, "ListOrders", func(ctx context.Context) error {
		var err error
		orders, total, err = s.orders.ListOrders(ctx, domainFilter)
		return err
	})
	if err != nil {
		return nil, 0, s.wrapServiceError("", nil, err)
	}
	return ToOrderListItemResponses(orders), total, nil
}

// ReceiveSummary reports ordered, received and remaining quantities per line.
// When stock positions are given, the weighted average cost each product
// would have once the order's received units are added is projected too.
func (s *LifecycleService) ReceiveSummary(ctx context.Context, orderID uuid.UUID, stock []StockPosition) (*ReceiveSummaryResponse, error) {
	order, err := s.fetchOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	units, err := callWithResult(ctx, s, "FetchReceivedUnits", func(ctx context.Context) ([]purchasing.ReceivedUnit, error) {
		return s.orders.FetchReceivedUnits(ctx, orderID)
	})
	if err != nil {
		return nil, s.wrapServiceError("", order, err)
	}
	return buildReceiveSummary(order, units, stock), nil
}

// ==================== Internals ====================

func (s *LifecycleService) fetchOrder(ctx context.Context, orderID uuid.UUID) (*purchasing.PurchaseOrder, error) {
	order, err := callWithResult(ctx, s, "FetchOrder", func(ctx context.Context) (*purchasing.PurchaseOrder, error) {
		return s.orders.FetchOrder(ctx, orderID)
	})
	if err != nil {
		return nil, s.wrapServiceError("", orderRef(orderID), err)
	}
	return order, nil
}

func (s *LifecycleService) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// orderRef identifies an order in errors raised before it was loaded
func orderRef(id uuid.UUID) *purchasing.PurchaseOrder {
	o := &purchasing.PurchaseOrder{}
	o.ID = id
	return o
}

// call runs fn under the service timeout and records its latency
func (s *LifecycleService) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	ctx, span := telemetry.StartServiceSpan(ctx, "order_service", op)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if s.metrics != nil {
		s.metrics.RecordServiceCall(ctx, op, time.Since(start), err)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		s.log(ctx).Warn("Order service call failed",
			zap.String("operation", op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
	return err
}

func callWithResult[T any](ctx context.Context, s *LifecycleService, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := s.call(ctx, op, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// wrapServiceError attaches the matching error kind to an order service failure
func (s *LifecycleService) wrapServiceError(action purchasing.Action, order *purchasing.PurchaseOrder, err error) error {
	kind := purchasing.KindServiceUnreachable
	switch {
	case errors.Is(err, shared.ErrNotFound):
		kind = purchasing.KindNotFound
	case errors.Is(err, shared.ErrConcurrencyConflict):
		kind = purchasing.KindConflict
	case errors.Is(err, shared.ErrAlreadyExists):
		// a unique key raced past the up-front checks
		if action == purchasing.ActionSerialReceive {
			return purchasing.WrapServiceErrorWithReason(purchasing.KindSerialCountMismatch, action, order,
				"a serial number was booked by another receipt", err)
		}
		kind = purchasing.KindConflict
	}
	return purchasing.WrapServiceError(kind, action, order, err)
}

func (s *LifecycleService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Error("Failed to publish purchase order events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

func (s *LifecycleService) rejected(ctx context.Context, action purchasing.Action, err error) error {
	kind := purchasing.KindOf(err)
	if s.metrics != nil && kind != "" {
		s.metrics.RecordRejection(ctx, string(action), string(kind))
	}
	s.log(ctx).Info("Purchase order action rejected",
		zap.String("action", string(action)),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	return err
}
