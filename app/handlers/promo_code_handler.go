package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/app/middleware"
	businessflow "github.com/AlexPupki/gtsv-pricing/business_flow"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// PromoCodeHandlerInterface defines promo code and redemption ledger endpoints.
type PromoCodeHandlerInterface interface {
	CreatePromoCode(c fiber.Ctx) error
	RedeemPromoCode(c fiber.Ctx) error
	ConfirmRedemption(c fiber.Ctx) error
	VoidRedemption(c fiber.Ctx) error
	ListRedemptions(c fiber.Ctx) error
}

// PromoCodeHandler implements PromoCodeHandlerInterface
type PromoCodeHandler struct {
	flow      businessflow.PromoCodeFlow
	validator *validator.Validate
}

func NewPromoCodeHandler(flow businessflow.PromoCodeFlow) PromoCodeHandlerInterface {
	return &PromoCodeHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *PromoCodeHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *PromoCodeHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreatePromoCode creates a promo code bound to an offer
// @Summary Create Promo Code (Admin)
// @Tags Admin Promo Codes
// @Accept json
// @Produce json
// @Param request body dto.CreatePromoCodeRequest true "Promo code payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePromoCodeResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Promo code already exists"
// @Router /api/v1/admin/promo-codes [post]
func (h *PromoCodeHandler) CreatePromoCode(c fiber.Ctx) error {
	var req dto.CreatePromoCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	req.AdminID, _ = middleware.GetAdminIDFromContext(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.CreatePromoCode(h.createRequestContext(c, "/api/v1/admin/promo-codes"), &req, metadata)
	if err != nil {
		if businessflow.IsOfferNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Offer not found", "OFFER_NOT_FOUND", nil)
		}
		if businessflow.IsPromoCodeAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Promo code already exists", "PROMO_CODE_ALREADY_EXISTS", nil)
		}
		log.Println("Create promo code failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create promo code failed", "PROMO_CODE_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Promo code created", resp)
}

// RedeemPromoCode reserves one use of a promo code for an order
// @Summary Redeem Promo Code
// @Description Reserve one use of a promo code; idempotent per request ID
// @Tags Promo Codes
// @Accept json
// @Produce json
// @Param request body dto.RedeemPromoCodeRequest true "Redemption payload"
// @Success 200 {object} dto.APIResponse{data=dto.RedeemPromoCodeResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Promo code not found"
// @Failure 422 {object} dto.APIResponse "Redemption rejected"
// @Router /api/v1/promo-codes/redeem [post]
func (h *PromoCodeHandler) RedeemPromoCode(c fiber.Ctx) error {
	var req dto.RedeemPromoCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.RedeemPromoCode(h.createRequestContext(c, "/api/v1/promo-codes/redeem"), &req, metadata)
	if err != nil {
		middleware.RecordRedemption("rejected")
		if businessflow.IsPromoCodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Promo code not found", "PROMO_CODE_NOT_FOUND", nil)
		}
		if businessflow.IsPromoCodeInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Promo code is inactive", "PROMO_CODE_INACTIVE", nil)
		}
		if businessflow.IsPromoCodeNotAssigned(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Promo code is not assigned to this user", "PROMO_CODE_NOT_ASSIGNED", nil)
		}
		if businessflow.IsPromoCodeExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Promo code has no remaining uses", "PROMO_CODE_EXHAUSTED", nil)
		}
		if businessflow.IsOneTimeUseConsumed(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "One-time promo code already used", "ONE_TIME_USE_CONSUMED", nil)
		}
		if businessflow.IsPerUserCapExceeded(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Per-user usage cap exceeded", "PER_USER_CAP_EXCEEDED", nil)
		}
		if businessflow.IsOfferNotActive(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Underlying offer is not active", "OFFER_NOT_ACTIVE", nil)
		}
		if businessflow.IsOfferUsageExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Offer usage cap reached", "OFFER_USAGE_EXHAUSTED", nil)
		}
		log.Println("Redeem promo code failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Redeem promo code failed", "PROMO_REDEEM_FAILED", nil)
	}

	middleware.RecordRedemption("reserved")
	return h.SuccessResponse(c, fiber.StatusOK, "Promo code redeemed", resp)
}

// ConfirmRedemption confirms a reserved redemption
// @Summary Confirm Redemption
// @Tags Promo Codes
// @Accept json
// @Produce json
// @Param request body dto.ConfirmRedemptionRequest true "Request ID of the reservation"
// @Success 200 {object} dto.APIResponse{data=dto.RedemptionActionResponse}
// @Failure 404 {object} dto.APIResponse "Redemption not found"
// @Failure 409 {object} dto.APIResponse "Redemption not reserved"
// @Router /api/v1/promo-codes/redemptions/confirm [post]
func (h *PromoCodeHandler) ConfirmRedemption(c fiber.Ctx) error {
	var req dto.ConfirmRedemptionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.ConfirmRedemption(h.createRequestContext(c, "/api/v1/promo-codes/redemptions/confirm"), &req, metadata)
	if err != nil {
		if businessflow.IsRedemptionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Redemption not found", "REDEMPTION_NOT_FOUND", nil)
		}
		if businessflow.IsRedemptionNotReserved(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Only reserved redemptions can be confirmed", "REDEMPTION_NOT_RESERVED", nil)
		}
		log.Println("Confirm redemption failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Confirm redemption failed", "REDEMPTION_CONFIRM_FAILED", nil)
	}

	middleware.RecordRedemption("confirmed")
	return h.SuccessResponse(c, fiber.StatusOK, "Redemption confirmed", resp)
}

// VoidRedemption voids a redemption and releases its consumed use
// @Summary Void Redemption
// @Tags Promo Codes
// @Accept json
// @Produce json
// @Param request body dto.VoidRedemptionRequest true "Request ID of the redemption"
// @Success 200 {object} dto.APIResponse{data=dto.RedemptionActionResponse}
// @Failure 404 {object} dto.APIResponse "Redemption not found"
// @Failure 409 {object} dto.APIResponse "Redemption already voided"
// @Router /api/v1/promo-codes/redemptions/void [post]
func (h *PromoCodeHandler) VoidRedemption(c fiber.Ctx) error {
	var req dto.VoidRedemptionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.VoidRedemption(h.createRequestContext(c, "/api/v1/promo-codes/redemptions/void"), &req, metadata)
	if err != nil {
		if businessflow.IsRedemptionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Redemption not found", "REDEMPTION_NOT_FOUND", nil)
		}
		if businessflow.IsRedemptionAlreadyVoided(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Redemption is already voided", "REDEMPTION_ALREADY_VOIDED", nil)
		}
		log.Println("Void redemption failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Void redemption failed", "REDEMPTION_VOID_FAILED", nil)
	}

	middleware.RecordRedemption("voided")
	return h.SuccessResponse(c, fiber.StatusOK, "Redemption voided", resp)
}

// ListRedemptions retrieves ledger entries with filters and pagination
// @Summary List Redemptions (Admin)
// @Tags Admin Promo Codes
// @Produce json
// @Param code query string false "Promo code filter"
// @Param user_id query int false "User filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListRedemptionsResponse}
// @Failure 500 {object} dto.APIResponse "List failed"
// @Router /api/v1/admin/promo-codes/redemptions [get]
func (h *PromoCodeHandler) ListRedemptions(c fiber.Ctx) error {
	req := dto.ListRedemptionsRequest{Page: 1, PageSize: 20}

	if s := c.Query("code"); s != "" {
		req.Code = &s
	}
	if s := c.Query("status"); s != "" {
		req.Status = &s
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := strconv.ParseUint(userIDStr, 10, 64); err == nil {
			id := uint(userID)
			req.UserID = &id
		}
	}
	if pageStr := c.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil {
			req.Page = page
		}
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		if pageSize, err := strconv.Atoi(pageSizeStr); err == nil {
			req.PageSize = pageSize
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	resp, err := h.flow.ListRedemptions(h.createRequestContext(c, "/api/v1/admin/promo-codes/redemptions"), &req)
	if err != nil {
		if businessflow.IsPromoCodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Promo code not found", "PROMO_CODE_NOT_FOUND", nil)
		}
		log.Println("List redemptions failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List redemptions failed", "REDEMPTION_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Redemptions retrieved", resp)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *PromoCodeHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PromoCodeHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
