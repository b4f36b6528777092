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

// ServiceAdminHandlerInterface defines admin endpoints for the service catalog.
type ServiceAdminHandlerInterface interface {
	CreateService(c fiber.Ctx) error
	UpdateService(c fiber.Ctx) error
	GetService(c fiber.Ctx) error
	ListServices(c fiber.Ctx) error
}

// ServiceAdminHandler implements admin endpoints for the service catalog.
type ServiceAdminHandler struct {
	flow      businessflow.ServiceFlow
	validator *validator.Validate
}

func NewServiceAdminHandler(flow businessflow.ServiceFlow) ServiceAdminHandlerInterface {
	return &ServiceAdminHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *ServiceAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *ServiceAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreateService adds a bookable service to the catalog
// @Summary Create Service (Admin)
// @Tags Admin Services
// @Accept json
// @Produce json
// @Param request body dto.CreateServiceRequest true "Service payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreateServiceResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Creation failed"
// @Router /api/v1/admin/services [post]
func (h *ServiceAdminHandler) CreateService(c fiber.Ctx) error {
	var req dto.CreateServiceRequest
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
	resp, err := h.flow.CreateService(h.createRequestContext(c, "/api/v1/admin/services"), &req, metadata)
	if err != nil {
		log.Println("Create service failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create service failed", "SERVICE_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Service created", resp)
}

// UpdateService applies a partial update to a catalog entry
// @Summary Update Service (Admin)
// @Tags Admin Services
// @Accept json
// @Produce json
// @Param uuid path string true "Service UUID"
// @Param request body dto.UpdateServiceRequest true "Service changes"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateServiceResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Service not found"
// @Router /api/v1/admin/services/{uuid} [put]
func (h *ServiceAdminHandler) UpdateService(c fiber.Ctx) error {
	var req dto.UpdateServiceRequest
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
	resp, err := h.flow.UpdateService(h.createRequestContext(c, "/api/v1/admin/services/:uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsServiceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Service not found", "SERVICE_NOT_FOUND", nil)
		}
		log.Println("Update service failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update service failed", "SERVICE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Service updated", resp)
}

// GetService retrieves one catalog entry
// @Summary Get Service (Admin)
// @Tags Admin Services
// @Produce json
// @Param uuid path string true "Service UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ServiceDTO}
// @Failure 404 {object} dto.APIResponse "Service not found"
// @Router /api/v1/admin/services/{uuid} [get]
func (h *ServiceAdminHandler) GetService(c fiber.Ctx) error {
	resp, err := h.flow.GetService(h.createRequestContext(c, "/api/v1/admin/services/:uuid"), c.Params("uuid"))
	if err != nil {
		if businessflow.IsServiceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Service not found", "SERVICE_NOT_FOUND", nil)
		}
		log.Println("Get service failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get service failed", "SERVICE_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Service retrieved", resp)
}

// ListServices retrieves the catalog
// @Summary List Services (Admin)
// @Tags Admin Services
// @Produce json
// @Param active_only query bool false "Limit to active services"
// @Success 200 {object} dto.APIResponse{data=dto.ListServicesResponse}
// @Failure 500 {object} dto.APIResponse "List failed"
// @Router /api/v1/admin/services [get]
func (h *ServiceAdminHandler) ListServices(c fiber.Ctx) error {
	activeOnly := c.Query("active_only") == "true"

	resp, err := h.flow.ListServices(h.createRequestContext(c, "/api/v1/admin/services"), activeOnly)
	if err != nil {
		log.Println("List services failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List services failed", "SERVICE_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Services retrieved", resp)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *ServiceAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ServiceAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
