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

// OfferAdminHandlerInterface defines admin endpoints for offers.
type OfferAdminHandlerInterface interface {
	CreateOffer(c fiber.Ctx) error
	UpdateOffer(c fiber.Ctx) error
	ChangeOfferStatus(c fiber.Ctx) error
	GetOffer(c fiber.Ctx) error
	ListOffers(c fiber.Ctx) error
}

// OfferAdminHandler implements admin endpoints for offers.
type OfferAdminHandler struct {
	flow      businessflow.OfferFlow
	validator *validator.Validate
}

func NewOfferAdminHandler(flow businessflow.OfferFlow) OfferAdminHandlerInterface {
	return &OfferAdminHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *OfferAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *OfferAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreateOffer creates a planned offer
// @Summary Create Offer (Admin)
// @Description Create a promotional offer in planned status
// @Tags Admin Offers
// @Accept json
// @Produce json
// @Param request body dto.CreateOfferRequest true "Offer payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreateOfferResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Creation failed"
// @Router /api/v1/admin/offers [post]
func (h *OfferAdminHandler) CreateOffer(c fiber.Ctx) error {
	var req dto.CreateOfferRequest
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
	resp, err := h.flow.CreateOffer(h.createRequestContext(c, "/api/v1/admin/offers"), &req, metadata)
	if err != nil {
		if businessflow.IsServiceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Offer references an unknown service", "SERVICE_NOT_FOUND", nil)
		}
		log.Println("Create offer failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create offer failed", "OFFER_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Offer created", resp)
}

// UpdateOffer applies a partial update to an offer
// @Summary Update Offer (Admin)
// @Tags Admin Offers
// @Accept json
// @Produce json
// @Param uuid path string true "Offer UUID"
// @Param request body dto.UpdateOfferRequest true "Offer changes"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateOfferResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Offer not found"
// @Router /api/v1/admin/offers/{uuid} [put]
func (h *OfferAdminHandler) UpdateOffer(c fiber.Ctx) error {
	var req dto.UpdateOfferRequest
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
	req.UUID = c.Params("uuid")
	req.AdminID, _ = middleware.GetAdminIDFromContext(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.UpdateOffer(h.createRequestContext(c, "/api/v1/admin/offers/:uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsOfferNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Offer not found", "OFFER_NOT_FOUND", nil)
		}
		log.Println("Update offer failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update offer failed", "OFFER_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Offer updated", resp)
}

// ChangeOfferStatus moves an offer through its lifecycle
// @Summary Change Offer Status (Admin)
// @Description Transition an offer between planned, active, paused, expired and cancelled
// @Tags Admin Offers
// @Accept json
// @Produce json
// @Param uuid path string true "Offer UUID"
// @Param request body dto.ChangeOfferStatusRequest true "Target status"
// @Success 200 {object} dto.APIResponse{data=dto.ChangeOfferStatusResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Offer not found"
// @Failure 409 {object} dto.APIResponse "Invalid transition"
// @Router /api/v1/admin/offers/{uuid}/status [post]
func (h *OfferAdminHandler) ChangeOfferStatus(c fiber.Ctx) error {
	var req dto.ChangeOfferStatusRequest
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
	req.UUID = c.Params("uuid")
	req.AdminID, _ = middleware.GetAdminIDFromContext(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.ChangeOfferStatus(h.createRequestContext(c, "/api/v1/admin/offers/:uuid/status"), &req, metadata)
	if err != nil {
		if businessflow.IsOfferNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Offer not found", "OFFER_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidOfferTransition(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Invalid offer status transition", "INVALID_OFFER_TRANSITION", nil)
		}
		log.Println("Change offer status failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Change offer status failed", "OFFER_STATUS_CHANGE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Offer status changed", resp)
}

// GetOffer retrieves one offer
// @Summary Get Offer (Admin)
// @Tags Admin Offers
// @Produce json
// @Param uuid path string true "Offer UUID"
// @Success 200 {object} dto.APIResponse{data=dto.OfferDTO}
// @Failure 404 {object} dto.APIResponse "Offer not found"
// @Router /api/v1/admin/offers/{uuid} [get]
func (h *OfferAdminHandler) GetOffer(c fiber.Ctx) error {
	resp, err := h.flow.GetOffer(h.createRequestContext(c, "/api/v1/admin/offers/:uuid"), c.Params("uuid"))
	if err != nil {
		if businessflow.IsOfferNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Offer not found", "OFFER_NOT_FOUND", nil)
		}
		log.Println("Get offer failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get offer failed", "OFFER_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Offer retrieved", resp)
}

// ListOffers retrieves offers with filters and pagination
// @Summary List Offers (Admin)
// @Tags Admin Offers
// @Produce json
// @Param status query string false "Status filter"
// @Param type query string false "Type filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListOffersResponse}
// @Failure 500 {object} dto.APIResponse "List failed"
// @Router /api/v1/admin/offers [get]
func (h *OfferAdminHandler) ListOffers(c fiber.Ctx) error {
	req := dto.ListOffersRequest{Page: 1, PageSize: 20}

	if s := c.Query("status"); s != "" {
		req.Status = &s
	}
	if s := c.Query("type"); s != "" {
		req.Type = &s
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

	resp, err := h.flow.ListOffers(h.createRequestContext(c, "/api/v1/admin/offers"), &req)
	if err != nil {
		log.Println("List offers failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List offers failed", "OFFER_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Offers retrieved", resp)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *OfferAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *OfferAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
