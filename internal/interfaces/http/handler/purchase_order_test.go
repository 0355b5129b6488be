package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/interfaces/http/dto"
	"github.com/erp/purchasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testActor   = uuid.MustParse("5f0c7e51-3d0b-4c39-9a53-7a4a9b1a2c01")
	testOrderID = uuid.MustParse("0b8f3c2e-7a61-4a4e-8d0e-2c1f9f7d6a10")
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func setupHandler(t *testing.T) (*gin.Engine, *MockPurchaseOrderService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	svc := new(MockPurchaseOrderService)
	t.Cleanup(func() { svc.AssertExpectations(t) })

	h := NewPurchaseOrderHandler(svc)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.ActorHeader())
	g := r.Group("/api/v1/purchasing/orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/summary", h.Summary)
	g.POST("/:id/summary", h.Summary)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/approve-direct", h.ApproveDirect)
	g.POST("/:id/reject", h.Reject)
	g.POST("/:id/send", h.Send)
	g.POST("/:id/confirm", h.Confirm)
	g.POST("/:id/ship", h.Ship)
	g.POST("/:id/payments", h.Pay)
	g.POST("/:id/receive", h.Receive)
	g.POST("/:id/partial-receive", h.PartialReceive)
	g.POST("/:id/serial-receive", h.SerialReceive)
	g.POST("/:id/quality-check", h.QualityCheck)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/returns", h.RecordReturn)
	return r, svc
}

type call struct {
	method  string
	path    string
	body    string
	headers map[string]string
}

func (c call) do(t *testing.T, r *gin.Engine) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body *bytes.Reader
	if c.body != "" {
		body = bytes.NewReader([]byte(c.body))
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if _, ok := c.headers[middleware.HeaderActorID]; !ok {
		req.Header.Set(middleware.HeaderActorID, testActor.String())
	}
	for k, v := range c.headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func orderPath(suffix string) string {
	return "/api/v1/purchasing/orders/" + testOrderID.String() + suffix
}

func orderAt(status string, version int) *purchasingapp.OrderResponse {
	return &purchasingapp.OrderResponse{
		ID:               testOrderID,
		OrderNumber:      "PO-1001",
		Status:           status,
		PaymentStatus:    "paid",
		Version:          version,
		AvailableActions: []string{},
	}
}

func TestCreate_DraftWithActorAsCreator(t *testing.T) {
	r, svc := setupHandler(t)
	supplier := uuid.New()
	product := uuid.New()

	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req purchasingapp.CreateOrderRequest) bool {
		return req.OrderNumber == "PO-1001" &&
			req.CreatedBy != nil && *req.CreatedBy == testActor &&
			len(req.Items) == 1 && req.Items[0].CostPrice.Equal(decimal.RequireFromString("12.5"))
	})).Return(orderAt("draft", 1), nil)

	w, env := call{
		method: http.MethodPost,
		path:   "/api/v1/purchasing/orders",
		body: fmt.Sprintf(`{"order_number":"PO-1001","supplier_id":%q,"supplier_name":"Acme",
			"items":[{"product_id":%q,"product_name":"Widget","quantity":4,"cost_price":"12.5"}]}`, supplier, product),
	}.do(t, r)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, `"1"`, w.Header().Get("ETag"))
	assert.Equal(t, "/api/v1/purchasing/orders/"+testOrderID.String(), w.Header().Get("Location"))
}

func TestCreate_RequiresActor(t *testing.T) {
	r, _ := setupHandler(t)

	tests := []struct {
		name   string
		actor  string
		status int
		code   string
	}{
		{"missing", "", http.StatusUnauthorized, dto.ErrCodeUnauthorized},
		{"malformed", "bob", http.StatusBadRequest, dto.ErrCodeValidationFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := call{
				method:  http.MethodPost,
				path:    "/api/v1/purchasing/orders",
				body:    `{}`,
				headers: map[string]string{middleware.HeaderActorID: tt.actor},
			}.do(t, r)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestCreate_ValidationDetails(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{
		method: http.MethodPost,
		path:   "/api/v1/purchasing/orders",
		body:   `{"order_number":"","supplier_name":"Acme","items":[{"product_name":"Widget","quantity":0}]}`,
	}.do(t, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)

	fields := make([]string, 0, len(env.Error.Details))
	for _, d := range env.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "order_number")
	assert.Contains(t, fields, "supplier_id")
	assert.Contains(t, fields, "items[0].quantity")
}

func TestCreate_DuplicateOrderNumber(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, shared.NewDomainError("ALREADY_EXISTS", "Order number PO-1001 already exists"))

	w, env := call{
		method: http.MethodPost,
		path:   "/api/v1/purchasing/orders",
		body:   fmt.Sprintf(`{"order_number":"PO-1001","supplier_id":%q,"supplier_name":"Acme"}`, uuid.New()),
	}.do(t, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeAlreadyExists, env.Error.Code)
}

func TestLifecycleAction_BodylessActionsUseIfMatch(t *testing.T) {
	tests := []struct {
		path   string
		method string
	}{
		{"/submit", "SubmitForApproval"},
		{"/send", "SendToSupplier"},
		{"/confirm", "Confirm"},
		{"/ship", "MarkShipped"},
		{"/receive", "Receive"},
		{"/complete", "CompleteOrder"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			r, svc := setupHandler(t)
			cmd := purchasingapp.Command{ActorID: testActor, ExpectedVersion: 4}
			svc.On(tt.method, mock.Anything, testOrderID, cmd).Return(orderAt("sent", 5), nil)

			w, env := call{
				method:  http.MethodPost,
				path:    orderPath(tt.path),
				headers: map[string]string{middleware.HeaderIfMatch: `W/"4"`},
			}.do(t, r)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.True(t, env.Success)
			assert.Equal(t, `"5"`, w.Header().Get("ETag"))
		})
	}
}

func TestLifecycleAction_BodyVersionWinsOverIfMatch(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("Approve", mock.Anything, testOrderID,
		purchasingapp.Command{ActorID: testActor, ExpectedVersion: 7}, "looks fine").
		Return(orderAt("approved", 8), nil)

	w, _ := call{
		method:  http.MethodPost,
		path:    orderPath("/approve"),
		body:    `{"expected_version":7,"notes":"looks fine"}`,
		headers: map[string]string{middleware.HeaderIfMatch: `"2"`},
	}.do(t, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLifecycleAction_NoPreconditionByDefault(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("SubmitForApproval", mock.Anything, testOrderID, purchasingapp.Command{ActorID: testActor}).
		Return(orderAt("pending_approval", 2), nil)

	w, _ := call{method: http.MethodPost, path: orderPath("/submit")}.do(t, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLifecycleAction_BadIfMatch(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{
		method:  http.MethodPost,
		path:    orderPath("/submit"),
		headers: map[string]string{middleware.HeaderIfMatch: `"abc"`},
	}.do(t, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestLifecycleAction_InvalidOrderID(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{method: http.MethodPost, path: "/api/v1/purchasing/orders/not-a-uuid/submit"}.do(t, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidationFormat, env.Error.Code)
}

func TestLifecycleAction_MalformedJSON(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{method: http.MethodPost, path: orderPath("/partial-receive"), body: `{"lines": [`}.do(t, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, env.Error.Code)
}

func TestReceive_PaymentRequiredCarriesOrderState(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("Receive", mock.Anything, testOrderID, mock.Anything).Return(nil, &purchasing.LifecycleError{
		Kind:          purchasing.KindPaymentRequired,
		Action:        purchasing.ActionReceive,
		OrderID:       testOrderID,
		Status:        purchasing.StatusSent,
		PaymentStatus: purchasing.PaymentStatusPartial,
		Required:      "paid",
	})

	w, env := call{method: http.MethodPost, path: orderPath("/receive")}.do(t, r)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodePaymentRequired, env.Error.Code)
	assert.Equal(t, "receive", env.Error.Action)
	assert.Equal(t, "sent", env.Error.Status)
	assert.Equal(t, "partial", env.Error.PaymentStatus)
	assert.Equal(t, "paid", env.Error.Required)
	assert.Contains(t, env.Error.Message, "receive rejected")
}

func TestLifecycleErrors_StatusMapping(t *testing.T) {
	itemID := uuid.New()
	tests := []struct {
		kind   purchasing.ErrorKind
		status int
		code   string
	}{
		{purchasing.KindInvalidTransition, http.StatusUnprocessableEntity, dto.ErrCodeInvalidTransition},
		{purchasing.KindInvalidQuantity, http.StatusUnprocessableEntity, dto.ErrCodeInvalidQuantity},
		{purchasing.KindSerialCountMismatch, http.StatusUnprocessableEntity, dto.ErrCodeSerialCountMismatch},
		{purchasing.KindConflict, http.StatusConflict, dto.ErrCodeConflict},
		{purchasing.KindNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{purchasing.KindValidation, http.StatusBadRequest, dto.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			r, svc := setupHandler(t)
			svc.On("PartialReceive", mock.Anything, testOrderID, mock.Anything, mock.Anything).
				Return(nil, &purchasing.LifecycleError{Kind: tt.kind, Action: purchasing.ActionPartialReceive, ItemID: itemID})

			w, env := call{
				method: http.MethodPost,
				path:   orderPath("/partial-receive"),
				body:   fmt.Sprintf(`{"lines":[{"item_id":%q,"received_quantity":3}]}`, itemID),
			}.do(t, r)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, itemID.String(), env.Error.ItemID)
		})
	}
}

func TestServiceUnreachable_HidesCause(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("CompleteOrder", mock.Anything, testOrderID, mock.Anything).Return(nil, &purchasing.LifecycleError{
		Kind:   purchasing.KindServiceUnreachable,
		Action: purchasing.ActionComplete,
		Err:    errors.New("dial tcp 10.0.0.5:5432: connection refused"),
	})

	w, env := call{method: http.MethodPost, path: orderPath("/complete")}.do(t, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrCodeServiceUnreachable, env.Error.Code)
	assert.NotContains(t, env.Error.Message, "10.0.0.5")
}

func TestCommittedReloadFailure_TellsCallerNotToRetry(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("PartialReceive", mock.Anything, testOrderID, mock.Anything, mock.Anything).Return(nil, &purchasing.LifecycleError{
		Kind:      purchasing.KindServiceUnreachable,
		Action:    purchasing.ActionPartialReceive,
		OrderID:   testOrderID,
		Status:    purchasing.StatusPartialReceived,
		Reason:    "change was saved but the order could not be reloaded",
		Committed: true,
		Err:       errors.New("dial tcp 10.0.0.5:5432: i/o timeout"),
	})

	itemID := uuid.New()
	w, env := call{
		method: http.MethodPost,
		path:   orderPath("/partial-receive"),
		body:   fmt.Sprintf(`{"lines":[{"item_id":%q,"received_quantity":2}]}`, itemID),
	}.do(t, r)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NotNil(t, env.Error)
	assert.True(t, env.Error.Committed)
	assert.Equal(t, string(purchasing.ActionPartialReceive), env.Error.Action)
	assert.Contains(t, env.Error.Message, "was saved")
	assert.NotContains(t, env.Error.Message, "10.0.0.5")
}

func TestUnknownError_IsInternal(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("GetOrderDetail", mock.Anything, testOrderID).Return(nil, errors.New("boom"))

	w, env := call{method: http.MethodGet, path: orderPath("")}.do(t, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, dto.ErrCodeInternal, env.Error.Code)
	assert.Equal(t, "An unexpected error occurred", env.Error.Message)
}

func TestPay_ForwardsIdempotencyKey(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("MakePayment", mock.Anything, testOrderID,
		purchasingapp.Command{ActorID: testActor, ExpectedVersion: 3},
		mock.MatchedBy(func(in purchasingapp.PaymentRequestInput) bool {
			return in.IdempotencyKey == "pay-001" && in.Method == "bank_transfer" &&
				in.Amount.Equal(decimal.NewFromInt(250)) && in.Reference == "TRX-9"
		})).Return(orderAt("sent", 4), nil)

	w, env := call{
		method:  http.MethodPost,
		path:    orderPath("/payments"),
		body:    `{"expected_version":3,"method":"bank_transfer","amount":"250","reference":"TRX-9"}`,
		headers: map[string]string{middleware.HeaderIdempotencyKey: "pay-001"},
	}.do(t, r)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
}

func TestPay_DuplicateKeyConflicts(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("MakePayment", mock.Anything, testOrderID, mock.Anything, mock.Anything).Return(nil, &purchasing.LifecycleError{
		Kind:   purchasing.KindConflict,
		Action: purchasing.ActionMakePayment,
		Reason: "this payment was already submitted",
		Err:    shared.ErrDuplicateRequest,
	})

	w, env := call{
		method:  http.MethodPost,
		path:    orderPath("/payments"),
		body:    `{"method":"cash","amount":"10"}`,
		headers: map[string]string{middleware.HeaderIdempotencyKey: "pay-001"},
	}.do(t, r)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeConflict, env.Error.Code)
	assert.Equal(t, "make_payment", env.Error.Action)
}

func TestPay_RejectsUnknownMethod(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{method: http.MethodPost, path: orderPath("/payments"), body: `{"method":"barter","amount":"10"}`}.do(t, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, env.Error.Details, 1)
	assert.Equal(t, "method", env.Error.Details[0].Field)
}

func TestSerialReceive_PassesAssignments(t *testing.T) {
	r, svc := setupHandler(t)
	itemID := uuid.New()
	svc.On("SerialNumberReceive", mock.Anything, testOrderID, mock.Anything,
		mock.MatchedBy(func(in []purchasingapp.SerialAssignmentInput) bool {
			return len(in) == 1 && in[0].ItemID == itemID && in[0].Quantity == 2 && len(in[0].Units) == 2 &&
				in[0].Units[1].SerialNumber == "SN-2"
		})).Return(orderAt("partial_received", 6), nil)

	w, _ := call{
		method: http.MethodPost,
		path:   orderPath("/serial-receive"),
		body: fmt.Sprintf(`{"assignments":[{"item_id":%q,"quantity":2,
			"units":[{"serial_number":"SN-1"},{"serial_number":"SN-2","imei":"356938035643809"}]}]}`, itemID),
	}.do(t, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQualityCheck_RequiresChecks(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{method: http.MethodPost, path: orderPath("/quality-check"), body: `{"checks":[]}`}.do(t, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestRejectAndCancel_RequireReason(t *testing.T) {
	r, svc := setupHandler(t)

	for _, path := range []string{"/reject", "/cancel"} {
		w, env := call{method: http.MethodPost, path: orderPath(path), body: `{}`}.do(t, r)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		require.NotEmpty(t, env.Error.Details, path)
		assert.Equal(t, "reason", env.Error.Details[0].Field, path)
	}

	svc.On("Cancel", mock.Anything, testOrderID, mock.Anything, "supplier out of stock").
		Return(orderAt("cancelled", 3), nil)
	w, _ := call{method: http.MethodPost, path: orderPath("/cancel"), body: `{"reason":"supplier out of stock"}`}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApproveDirect_IsMarkedDeprecated(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("ApproveDirect", mock.Anything, testOrderID, mock.Anything, "").Return(orderAt("approved", 2), nil)

	w, _ := call{method: http.MethodPost, path: orderPath("/approve-direct")}.do(t, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Deprecation"))
}

func TestRecordReturn_Created(t *testing.T) {
	r, svc := setupHandler(t)
	itemID := uuid.New()
	svc.On("RecordReturn", mock.Anything, testOrderID, mock.Anything,
		purchasingapp.ReturnInput{ItemID: itemID, Quantity: 1, Reason: "defect"}).
		Return(&purchasingapp.ReturnResponse{ID: uuid.New(), ItemID: itemID, Quantity: 1, Reason: "defect"}, nil)

	w, env := call{
		method: http.MethodPost,
		path:   orderPath("/returns"),
		body:   fmt.Sprintf(`{"item_id":%q,"quantity":1,"reason":"defect"}`, itemID),
	}.do(t, r)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ret purchasingapp.ReturnResponse
	require.NoError(t, json.Unmarshal(env.Data, &ret))
	assert.Equal(t, itemID, ret.ItemID)
}

func TestGet_DetailWithETag(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("GetOrderDetail", mock.Anything, testOrderID).Return(&purchasingapp.OrderDetailResponse{
		Order: *orderAt("received", 9),
	}, nil)

	w, env := call{method: http.MethodGet, path: orderPath("")}.do(t, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `"9"`, w.Header().Get("ETag"))
	var detail purchasingapp.OrderDetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "received", detail.Order.Status)
}

func TestGet_NotFound(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("GetOrderDetail", mock.Anything, testOrderID).
		Return(nil, &purchasing.LifecycleError{Kind: purchasing.KindNotFound, OrderID: testOrderID})

	w, env := call{method: http.MethodGet, path: orderPath("")}.do(t, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
}

func TestList_PaginationMeta(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(f purchasingapp.ListOrdersFilter) bool {
		return f.Page == 2 && f.PageSize == 10 &&
			assert.ObjectsAreEqual([]string{"sent", "confirmed"}, f.Statuses)
	})).Return([]purchasingapp.OrderListItemResponse{{ID: testOrderID, OrderNumber: "PO-1001"}}, int64(25), nil)

	w, env := call{method: http.MethodGet, path: "/api/v1/purchasing/orders?status=sent&status=confirmed&page=2&page_size=10"}.do(t, r)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(25), env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestList_DefaultsPage(t *testing.T) {
	r, svc := setupHandler(t)
	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(f purchasingapp.ListOrdersFilter) bool {
		return f.Page == 1 && f.PageSize == dto.DefaultPageSize
	})).Return([]purchasingapp.OrderListItemResponse{}, int64(0), nil)

	w, env := call{method: http.MethodGet, path: "/api/v1/purchasing/orders"}.do(t, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.Meta.Page)
}

func TestList_RejectsBadOrderBy(t *testing.T) {
	r, _ := setupHandler(t)

	w, env := call{method: http.MethodGet, path: "/api/v1/purchasing/orders?order_by=password"}.do(t, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestSummary_ProjectsStockWhenPosted(t *testing.T) {
	r, svc := setupHandler(t)
	product := uuid.New()
	svc.On("ReceiveSummary", mock.Anything, testOrderID, []purchasingapp.StockPosition(nil)).
		Return(&purchasingapp.ReceiveSummaryResponse{}, nil).Once()
	svc.On("ReceiveSummary", mock.Anything, testOrderID, mock.MatchedBy(func(s []purchasingapp.StockPosition) bool {
		return len(s) == 1 && s[0].ProductID == product && s[0].Quantity == 10
	})).Return(&purchasingapp.ReceiveSummaryResponse{}, nil).Once()

	w, _ := call{method: http.MethodGet, path: orderPath("/summary")}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = call{
		method: http.MethodPost,
		path:   orderPath("/summary"),
		body:   fmt.Sprintf(`{"stock":[{"product_id":%q,"quantity":10,"unit_cost":"4.20"}]}`, product),
	}.do(t, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
