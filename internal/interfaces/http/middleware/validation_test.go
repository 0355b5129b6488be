package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/purchasing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineInput struct {
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
	CostPrice decimal.Decimal `json:"cost_price" binding:"gte=0"`
}

type draftInput struct {
	OrderNumber string      `json:"order_number" binding:"required,max=50,order_number"`
	Currency    string      `json:"currency" binding:"omitempty,len=3"`
	Items       []lineInput `json:"items" binding:"dive"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/orders", func(c *gin.Context) {
		var req draftInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req.OrderNumber))
	})
	return router
}

func postDraft(t *testing.T, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	validationRouter().ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSetupValidator_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		SetupValidator()
		SetupValidator()
	})
}

func TestValidation_ReportsJSONFieldPaths(t *testing.T) {
	w, resp := postDraft(t, `{"order_number":"PO 1","currency":"EURO","items":[{"quantity":0,"cost_price":"-1"}]}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, map[string]string{
		"order_number":        "May contain only letters, digits and . _ / -",
		"currency":            "Must be exactly 3 characters",
		"items[0].quantity":   "This field is required",
		"items[0].cost_price": "Must be greater than or equal to 0",
	}, fields)
}

func TestValidation_AcceptsValidDraft(t *testing.T) {
	w, resp := postDraft(t, `{"order_number":"PO-2024/001","items":[{"quantity":3,"cost_price":"12.50"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "PO-2024/001", resp.Data)
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(assert.AnError))
}
