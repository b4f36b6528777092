package handlers

import (
	"context"
	"errors"
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

// PriceListAdminHandlerInterface defines admin endpoints for price lists.
type PriceListAdminHandlerInterface interface {
	CreatePriceList(c fiber.Ctx) error
	UpdatePriceList(c fiber.Ctx) error
	GetPriceList(c fiber.Ctx) error
	ListPriceLists(c fiber.Ctx) error
	ClonePriceList(c fiber.Ctx) error
	GetLineage(c fiber.Ctx) error
	GetConflicts(c fiber.Ctx) error
	ExportPriceList(c fiber.Ctx) error
	PublishPriceList(c fiber.Ctx) error
	ArchivePriceList(c fiber.Ctx) error
}

// PriceListAdminHandler implements admin endpoints for price lists.
type PriceListAdminHandler struct {
	flow        businessflow.PriceListFlow
	publication businessflow.PublicationFlow
	validator   *validator.Validate
}

func NewPriceListAdminHandler(flow businessflow.PriceListFlow, publication businessflow.PublicationFlow) PriceListAdminHandlerInterface {
	return &PriceListAdminHandler{
		flow:        flow,
		publication: publication,
		validator:   validator.New(),
	}
}

func (h *PriceListAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *PriceListAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreatePriceList creates a draft price list at version 1 of a new lineage
// @Summary Create Price List (Admin)
// @Description Create a draft price list, optionally with its initial rules
// @Tags Admin Price Lists
// @Accept json
// @Produce json
// @Param request body dto.CreatePriceListRequest true "Price list payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreatePriceListResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Creation failed"
// @Router /api/v1/admin/price-lists [post]
func (h *PriceListAdminHandler) CreatePriceList(c fiber.Ctx) error {
	var req dto.CreatePriceListRequest
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
	resp, err := h.flow.CreatePriceList(h.createRequestContext(c, "/api/v1/admin/price-lists"), &req, metadata)
	if err != nil {
		if businessflow.IsServiceNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Rule references an unknown service", "SERVICE_NOT_FOUND", nil)
		}
		log.Println("Create price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create price list failed", "PRICE_LIST_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Price list created", resp)
}

// UpdatePriceList replaces the mutable fields and rules of a draft
// @Summary Update Price List (Admin)
// @Description Update a draft price list; published and archived lists are immutable
// @Tags Admin Price Lists
// @Accept json
// @Produce json
// @Param uuid path string true "Price list UUID"
// @Param request body dto.UpdatePriceListRequest true "Price list changes"
// @Success 200 {object} dto.APIResponse{data=dto.UpdatePriceListResponse}
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Failure 409 {object} dto.APIResponse "Price list is not editable"
// @Router /api/v1/admin/price-lists/{uuid} [put]
func (h *PriceListAdminHandler) UpdatePriceList(c fiber.Ctx) error {
	var req dto.UpdatePriceListRequest
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
	resp, err := h.flow.UpdatePriceList(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		if businessflow.IsPriceListNotEditable(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Only draft price lists can be edited", "PRICE_LIST_NOT_EDITABLE", nil)
		}
		log.Println("Update price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update price list failed", "PRICE_LIST_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Price list updated", resp)
}

// GetPriceList retrieves one price list with its rules
// @Summary Get Price List (Admin)
// @Tags Admin Price Lists
// @Produce json
// @Param uuid path string true "Price list UUID"
// @Success 200 {object} dto.APIResponse{data=dto.PriceListDTO}
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Router /api/v1/admin/price-lists/{uuid} [get]
func (h *PriceListAdminHandler) GetPriceList(c fiber.Ctx) error {
	resp, err := h.flow.GetPriceList(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid"), c.Params("uuid"))
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		log.Println("Get price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get price list failed", "PRICE_LIST_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Price list retrieved", resp)
}

// ListPriceLists retrieves price lists with filters and pagination
// @Summary List Price Lists (Admin)
// @Tags Admin Price Lists
// @Produce json
// @Param season query string false "Season filter"
// @Param channel query string false "Channel filter"
// @Param segment query string false "Segment filter"
// @Param status query string false "Status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListPriceListsResponse}
// @Failure 500 {object} dto.APIResponse "List failed"
// @Router /api/v1/admin/price-lists [get]
func (h *PriceListAdminHandler) ListPriceLists(c fiber.Ctx) error {
	req := dto.ListPriceListsRequest{Page: 1, PageSize: 20}

	if s := c.Query("season"); s != "" {
		req.Season = &s
	}
	if s := c.Query("channel"); s != "" {
		req.Channel = &s
	}
	if s := c.Query("segment"); s != "" {
		req.Segment = &s
	}
	if s := c.Query("status"); s != "" {
		req.Status = &s
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

	resp, err := h.flow.ListPriceLists(h.createRequestContext(c, "/api/v1/admin/price-lists"), &req)
	if err != nil {
		log.Println("List price lists failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List price lists failed", "PRICE_LIST_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Price lists retrieved", resp)
}

// ClonePriceList copies a list into a new draft version of the same lineage
// @Summary Clone Price List (Admin)
// @Description Create the next draft version of a lineage from an existing list
// @Tags Admin Price Lists
// @Produce json
// @Param uuid path string true "Source price list UUID"
// @Success 201 {object} dto.APIResponse{data=dto.ClonePriceListResponse}
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Router /api/v1/admin/price-lists/{uuid}/clone [post]
func (h *PriceListAdminHandler) ClonePriceList(c fiber.Ctx) error {
	req := dto.ClonePriceListRequest{UUID: c.Params("uuid")}
	req.AdminID, _ = middleware.GetAdminIDFromContext(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.flow.ClonePriceList(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid/clone"), &req, metadata)
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		log.Println("Clone price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Clone price list failed", "PRICE_LIST_CLONE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Price list cloned", resp)
}

// GetLineage retrieves all versions sharing the list's lineage
// @Summary Get Price List Lineage (Admin)
// @Tags Admin Price Lists
// @Produce json
// @Param uuid path string true "Price list UUID"
// @Success 200 {object} dto.APIResponse{data=dto.LineageResponse}
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Router /api/v1/admin/price-lists/{uuid}/lineage [get]
func (h *PriceListAdminHandler) GetLineage(c fiber.Ctx) error {
	resp, err := h.flow.GetLineage(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid/lineage"), c.Params("uuid"))
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		log.Println("Get lineage failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get lineage failed", "PRICE_LIST_LINEAGE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Lineage retrieved", resp)
}

// GetConflicts runs conflict detection against a price list
// @Summary Get Price List Conflicts (Admin)
// @Description Report contradictory bounds, overlapping slots and base price gaps
// @Tags Admin Price Lists
// @Produce json
// @Param uuid path string true "Price list UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ListConflictsResponse}
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Router /api/v1/admin/price-lists/{uuid}/conflicts [get]
func (h *PriceListAdminHandler) GetConflicts(c fiber.Ctx) error {
	resp, err := h.flow.GetConflicts(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid/conflicts"), c.Params("uuid"))
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		log.Println("Get conflicts failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get conflicts failed", "PRICE_LIST_CONFLICTS_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Conflicts retrieved", resp)
}

// ExportPriceList downloads a price list's rules as a spreadsheet
// @Summary Export Price List (Admin)
// @Tags Admin Price Lists
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param uuid path string true "Price list UUID"
// @Success 200 {string} string "XLSX file"
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Failure 500 {object} dto.APIResponse "Export failed"
// @Router /api/v1/admin/price-lists/{uuid}/export [get]
func (h *PriceListAdminHandler) ExportPriceList(c fiber.Ctx) error {
	data, filename, err := h.flow.ExportPriceList(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid/export"), c.Params("uuid"))
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		log.Println("Export price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to generate spreadsheet", "PRICE_LIST_EXPORT_FAILED", nil)
	}
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+filename)
	return c.Send(data)
}

// PublishPriceList publishes a draft, archiving the previous published version
// @Summary Publish Price List (Admin)
// @Description Publish a draft; blocked when high severity conflicts exist
// @Tags Admin Price Lists
// @Produce json
// @Param uuid path string true "Price list UUID"
// @Success 200 {object} dto.APIResponse{data=dto.PublishPriceListResponse}
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Failure 409 {object} dto.APIResponse "Concurrent modification or invalid transition"
// @Failure 422 {object} dto.APIResponse "Publication blocked by conflicts"
// @Router /api/v1/admin/price-lists/{uuid}/publish [post]
func (h *PriceListAdminHandler) PublishPriceList(c fiber.Ctx) error {
	req := dto.PublishPriceListRequest{UUID: c.Params("uuid")}
	req.AdminID, _ = middleware.GetAdminIDFromContext(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.publication.PublishPriceList(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid/publish"), &req, metadata)
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		if businessflow.IsPublishBlocked(err) {
			middleware.RecordPublish("blocked")
			var be *businessflow.BusinessError
			var details any
			if errors.As(err, &be) {
				details = be.Details
			}
			return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Publication blocked by conflicts", "PUBLISH_BLOCKED", details)
		}
		if businessflow.IsConcurrentModification(err) {
			middleware.RecordPublish("conflict")
			return h.ErrorResponse(c, fiber.StatusConflict, "Price list was modified concurrently", "CONCURRENT_MODIFICATION", nil)
		}
		log.Println("Publish price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Publish price list failed", "PRICE_LIST_PUBLISH_FAILED", nil)
	}

	middleware.RecordPublish("published")
	return h.SuccessResponse(c, fiber.StatusOK, "Price list published", resp)
}

// ArchivePriceList retires a list from quoting
// @Summary Archive Price List (Admin)
// @Tags Admin Price Lists
// @Produce json
// @Param uuid path string true "Price list UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ArchivePriceListResponse}
// @Failure 404 {object} dto.APIResponse "Price list not found"
// @Failure 409 {object} dto.APIResponse "Invalid transition"
// @Router /api/v1/admin/price-lists/{uuid}/archive [post]
func (h *PriceListAdminHandler) ArchivePriceList(c fiber.Ctx) error {
	req := dto.ArchivePriceListRequest{UUID: c.Params("uuid")}
	req.AdminID, _ = middleware.GetAdminIDFromContext(c)

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	resp, err := h.publication.ArchivePriceList(h.createRequestContext(c, "/api/v1/admin/price-lists/:uuid/archive"), &req, metadata)
	if err != nil {
		if businessflow.IsPriceListNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Price list not found", "PRICE_LIST_NOT_FOUND", nil)
		}
		if businessflow.IsConcurrentModification(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Price list was modified concurrently", "CONCURRENT_MODIFICATION", nil)
		}
		log.Println("Archive price list failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Archive price list failed", "PRICE_LIST_ARCHIVE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Price list archived", resp)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *PriceListAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PriceListAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
