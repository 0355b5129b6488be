package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/erp/purchasing/internal/domain/shared"
	"github.com/erp/purchasing/internal/infrastructure/logger"
	"github.com/erp/purchasing/internal/interfaces/http/dto"
	"github.com/erp/purchasing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

var (
	errActorMissing = shared.NewDomainError("UNAUTHORIZED", "The request does not identify an actor")
	errIfMatch      = shared.NewDomainError("VALIDATION_ERROR", "If-Match must carry an order version")
)

// getActorID returns the acting user resolved by the auth middleware from
// the token's user_id claim. Every mutating purchasing request needs one.
func getActorID(c *gin.Context) (uuid.UUID, error) {
	id, ok := middleware.GetActorID(c)
	if !ok {
		return uuid.Nil, errActorMissing
	}
	return id, nil
}

// ifMatchVersion parses If-Match: "3", W/"3" or a bare 3. An absent
// header yields 0, meaning no precondition.
func ifMatchVersion(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.GetHeader(middleware.HeaderIfMatch))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errIfMatch
	}
	return v, nil
}

// setETag exposes the order version for the next If-Match
func setETag(c *gin.Context, version int) {
	c.Header("ETag", strconv.Quote(strconv.Itoa(version)))
}

// bindOptionalJSON binds the body when one was sent. Actions whose only
// input is expected_version may be posted without a body.
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.Set(middleware.ErrorCodeContextKey, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.Set(middleware.ErrorCodeContextKey, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError maps lifecycle, domain and unknown service errors onto the
// response envelope.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var lerr *purchasing.LifecycleError
	if errors.As(err, &lerr) {
		h.lifecycleError(c, lerr, requestID)
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Unhandled purchasing error", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// BindError reports a request that could not be bound: validation rule
// failures get field details, oversized bodies 413, anything else is
// treated as malformed input.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		h.ValidationError(c, middleware.ValidationDetails(validationErrs))
		return
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
		return
	}

	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed request: "+err.Error())
}

// ErrorWithCode sends an error response, deriving the status from the
// normalized code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	code = dto.NormalizeErrorCode(code)
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

func (h *BaseHandler) lifecycleError(c *gin.Context, lerr *purchasing.LifecycleError, requestID string) {
	code := dto.NormalizeErrorCode(lerr.Code())
	status := dto.GetHTTPStatus(code)

	info := dto.ErrorInfo{
		Code:          code,
		Message:       lerr.Error(),
		RequestID:     requestID,
		Action:        string(lerr.Action),
		Status:        string(lerr.Status),
		PaymentStatus: string(lerr.PaymentStatus),
		Required:      lerr.Required,
	}
	if lerr.ItemID != uuid.Nil {
		info.ItemID = lerr.ItemID.String()
	}
	switch {
	case lerr.Committed:
		logger.GetGinLogger(c).Error("Order reload failed after commit", zap.Error(lerr))
		info.Committed = true
		info.Message = "The " + string(lerr.Action) + " action was saved but the order could not be reloaded. Fetch the order instead of retrying"
	case lerr.Kind == purchasing.KindServiceUnreachable:
		// the wrapped cause names storage internals
		logger.GetGinLogger(c).Error("Order service unreachable", zap.Error(lerr))
		info.Message = "The order service is unavailable, retry later"
	}

	c.Set(middleware.ErrorCodeContextKey, code)
	c.JSON(status, dto.NewErrorResponseFromInfo(info))
}
