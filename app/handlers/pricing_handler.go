package handlers

import (
	"context"
	"log"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/app/middleware"
	businessflow "github.com/AlexPupki/gtsv-pricing/business_flow"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// PricingHandlerInterface defines the public quote endpoint
type PricingHandlerInterface interface {
	Quote(c fiber.Ctx) error
}

// PricingHandler implements PricingHandlerInterface
type PricingHandler struct {
	flow      businessflow.PricingFlow
	validator *validator.Validate
}

func NewPricingHandler(flow businessflow.PricingFlow) PricingHandlerInterface {
	return &PricingHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *PricingHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *PricingHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// Quote resolves the price of one booking against the published price lists
// @Summary Resolve a price quote
// @Description Resolve the applicable rule, run the modifier pipeline and stack running offers for one booking
// @Tags Pricing
// @Accept json
// @Produce json
// @Param request body dto.QuoteRequest true "Quote parameters"
// @Success 200 {object} dto.APIResponse{data=dto.QuoteResponse} "Quote resolved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Service not found"
// @Failure 422 {object} dto.APIResponse "No published rule matches"
// @Failure 500 {object} dto.APIResponse "Quote failed"
// @Router /api/v1/pricing/quote [post]
func (h *PricingHandler) Quote(c fiber.Ctx) error {
	var req dto.QuoteRequest
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
	resp, err := h.flow.Quote(h.createRequestContext(c, "/api/v1/pricing/quote"), &req, metadata)
	if err != nil {
		if businessflow.IsServiceNotFound(err) {
			middleware.RecordQuote("rejected")
			return h.ErrorResponse(c, fiber.StatusNotFound, "Service not found", "SERVICE_NOT_FOUND", nil)
		}
		if businessflow.IsServiceInactive(err) {
			middleware.RecordQuote("rejected")
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Service is inactive", "SERVICE_INACTIVE", nil)
		}
		if businessflow.IsGroupSizeExceeded(err) {
			middleware.RecordQuote("rejected")
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Group size exceeds service capacity", "GROUP_SIZE_EXCEEDED", nil)
		}
		if businessflow.IsNoPriceResolved(err) {
			middleware.RecordQuote("no_price")
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "No published rule matches the request", "NO_PRICE_RESOLVED", nil)
		}
		log.Println("Quote failed:", err)
		middleware.RecordQuote("rejected")
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Quote failed", "QUOTE_FAILED", nil)
	}

	middleware.RecordQuote("resolved")
	return h.SuccessResponse(c, fiber.StatusOK, "Quote resolved", resp)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *PricingHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PricingHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
