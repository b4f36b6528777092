package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/pricing"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// PriceListFlow manages draft price lists and their version lineage
type PriceListFlow interface {
	CreatePriceList(ctx context.Context, req *dto.CreatePriceListRequest, metadata *ClientMetadata) (*dto.CreatePriceListResponse, error)
	UpdatePriceList(ctx context.Context, req *dto.UpdatePriceListRequest, metadata *ClientMetadata) (*dto.UpdatePriceListResponse, error)
	GetPriceList(ctx context.Context, uuid string) (*dto.PriceListDTO, error)
	ListPriceLists(ctx context.Context, req *dto.ListPriceListsRequest) (*dto.ListPriceListsResponse, error)
	ClonePriceList(ctx context.Context, req *dto.ClonePriceListRequest, metadata *ClientMetadata) (*dto.ClonePriceListResponse, error)
	GetLineage(ctx context.Context, uuid string) (*dto.LineageResponse, error)
	GetConflicts(ctx context.Context, uuid string) (*dto.ListConflictsResponse, error)
	ExportPriceList(ctx context.Context, uuid string) ([]byte, string, error)
}

// PriceListFlowImpl implements the price list business flow
type PriceListFlowImpl struct {
	priceListRepo repository.PriceListRepository
	priceRuleRepo repository.PriceRuleRepository
	serviceRepo   repository.ServiceRepository
	auditRepo     repository.AuditLogRepository
	db            *gorm.DB
}

// NewPriceListFlow creates a new price list flow instance
func NewPriceListFlow(
	priceListRepo repository.PriceListRepository,
	priceRuleRepo repository.PriceRuleRepository,
	serviceRepo repository.ServiceRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) PriceListFlow {
	return &PriceListFlowImpl{
		priceListRepo: priceListRepo,
		priceRuleRepo: priceRuleRepo,
		serviceRepo:   serviceRepo,
		auditRepo:     auditRepo,
		db:            db,
	}
}

// CreatePriceList creates a draft price list at the head of a new lineage
func (s *PriceListFlowImpl) CreatePriceList(ctx context.Context, req *dto.CreatePriceListRequest, metadata *ClientMetadata) (*dto.CreatePriceListResponse, error) {
	if req.ValidTo != nil && !req.ValidTo.After(req.ValidFrom) {
		return nil, NewBusinessError("PRICE_LIST_VALIDATION_FAILED", "Price list validation failed", ErrValidityWindowInvalid)
	}

	currency := utils.DefaultCurrency
	if req.Currency != nil {
		currency = *req.Currency
	}

	list := &models.PriceList{
		LineageID: uuid.New(),
		Name:      req.Name,
		Season:    req.Season,
		Channel:   req.Channel,
		Segment:   req.Segment,
		Currency:  currency,
		Version:   1,
		Status:    models.PriceListStatusDraft,
		ValidFrom: req.ValidFrom,
		ValidTo:   req.ValidTo,
	}

	rules, err := s.rulesFromDTOs(ctx, req.Rules)
	if err != nil {
		return nil, err
	}
	list.Rules = rules

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.priceListRepo.Save(txCtx, list)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Price list creation failed: %s", err.Error())
		_ = s.createAuditLog(ctx, req.AdminID, models.AuditActionPriceListCreated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PRICE_LIST_CREATION_FAILED", "Price list creation failed", err)
	}

	msg := fmt.Sprintf("Price list created: %s", list.UUID.String())
	_ = s.createAuditLog(ctx, req.AdminID, models.AuditActionPriceListCreated, msg, true, nil, metadata)

	return &dto.CreatePriceListResponse{
		Message:   "Price list created successfully",
		UUID:      list.UUID.String(),
		LineageID: list.LineageID.String(),
		Version:   list.Version,
		Status:    list.Status.String(),
		CreatedAt: list.CreatedAt.Format(time.RFC3339),
	}, nil
}

// UpdatePriceList edits a draft in place. Published and archived versions
// are immutable; callers clone instead.
func (s *PriceListFlowImpl) UpdatePriceList(ctx context.Context, req *dto.UpdatePriceListRequest, metadata *ClientMetadata) (*dto.UpdatePriceListResponse, error) {
	list, err := s.priceListRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}
	if !list.IsEditable() {
		return nil, NewBusinessError("PRICE_LIST_NOT_EDITABLE", "Only draft price lists can be edited", ErrPriceListNotEditable)
	}

	if req.Name != nil {
		list.Name = *req.Name
	}
	if req.Season != nil {
		list.Season = *req.Season
	}
	if req.ValidFrom != nil {
		list.ValidFrom = *req.ValidFrom
	}
	if req.ValidTo != nil {
		list.ValidTo = req.ValidTo
	}
	if list.ValidTo != nil && !list.ValidTo.After(list.ValidFrom) {
		return nil, NewBusinessError("PRICE_LIST_VALIDATION_FAILED", "Price list validation failed", ErrValidityWindowInvalid)
	}

	var newRules []models.PriceRule
	if req.Rules != nil {
		newRules, err = s.rulesFromDTOs(ctx, req.Rules)
		if err != nil {
			return nil, err
		}
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if req.Rules != nil {
			existing, err := s.priceRuleRepo.ByPriceListID(txCtx, list.ID)
			if err != nil {
				return err
			}
			for _, rule := range existing {
				if err := s.priceRuleRepo.Delete(txCtx, rule.ID); err != nil {
					return err
				}
			}
			ptrs := make([]*models.PriceRule, 0, len(newRules))
			for i := range newRules {
				newRules[i].PriceListID = list.ID
				ptrs = append(ptrs, &newRules[i])
			}
			if err := s.priceRuleRepo.SaveBatch(txCtx, ptrs); err != nil {
				return err
			}
		}
		return s.priceListRepo.Update(txCtx, *list)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Price list update failed: %s", err.Error())
		_ = s.createAuditLog(ctx, req.AdminID, models.AuditActionPriceListUpdated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PRICE_LIST_UPDATE_FAILED", "Price list update failed", err)
	}

	msg := fmt.Sprintf("Price list updated: %s", list.UUID.String())
	_ = s.createAuditLog(ctx, req.AdminID, models.AuditActionPriceListUpdated, msg, true, nil, metadata)

	return &dto.UpdatePriceListResponse{Message: "Price list updated successfully"}, nil
}

// GetPriceList retrieves one price list with its rules
func (s *PriceListFlowImpl) GetPriceList(ctx context.Context, uuid string) (*dto.PriceListDTO, error) {
	list, err := s.priceListRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}

	serviceUUIDs, err := s.serviceUUIDMap(ctx, list.Rules)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to resolve services", err)
	}

	out := ToPriceListDTO(*list, serviceUUIDs)
	return &out, nil
}

// ListPriceLists retrieves price lists with pagination
func (s *PriceListFlowImpl) ListPriceLists(ctx context.Context, req *dto.ListPriceListsRequest) (*dto.ListPriceListsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.PriceListFilter{
		Season:  req.Season,
		Channel: req.Channel,
		Segment: req.Segment,
	}
	if req.Status != nil {
		status := models.PriceListStatus(*req.Status)
		filter.Status = &status
	}

	lists, err := s.priceListRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to list price lists", err)
	}
	total, err := s.priceListRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to count price lists", err)
	}

	resp := &dto.ListPriceListsResponse{Total: total, Items: make([]dto.PriceListDTO, 0, len(lists))}
	for _, list := range lists {
		serviceUUIDs, err := s.serviceUUIDMap(ctx, list.Rules)
		if err != nil {
			return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to resolve services", err)
		}
		resp.Items = append(resp.Items, ToPriceListDTO(*list, serviceUUIDs))
	}
	return resp, nil
}

// ClonePriceList creates a new draft version of the lineage, rules copied
// from the source version. The new version points at its parent so the
// history stays navigable.
func (s *PriceListFlowImpl) ClonePriceList(ctx context.Context, req *dto.ClonePriceListRequest, metadata *ClientMetadata) (*dto.ClonePriceListResponse, error) {
	source, err := s.priceListRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if source == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}

	latest, err := s.priceListRepo.LatestInLineage(ctx, source.LineageID)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to resolve lineage head", err)
	}
	nextVersion := source.Version + 1
	if latest != nil && latest.Version >= nextVersion {
		nextVersion = latest.Version + 1
	}

	clone := &models.PriceList{
		LineageID:       source.LineageID,
		Name:            source.Name,
		Season:          source.Season,
		Channel:         source.Channel,
		Segment:         source.Segment,
		Currency:        source.Currency,
		Version:         nextVersion,
		ParentVersionID: &source.ID,
		Status:          models.PriceListStatusDraft,
		ValidFrom:       source.ValidFrom,
		ValidTo:         source.ValidTo,
	}
	for _, rule := range source.Rules {
		copied := rule
		copied.ID = 0
		copied.UUID = uuid.Nil
		copied.PriceListID = 0
		copied.CreatedAt = time.Time{}
		copied.UpdatedAt = nil
		clone.Rules = append(clone.Rules, copied)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.priceListRepo.Save(txCtx, clone)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Price list clone failed: %s", err.Error())
		_ = s.createAuditLog(ctx, req.AdminID, models.AuditActionPriceListCloned, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PRICE_LIST_CLONE_FAILED", "Price list clone failed", err)
	}

	msg := fmt.Sprintf("Price list %s cloned into version %d (%s)", source.UUID.String(), clone.Version, clone.UUID.String())
	_ = s.createAuditLog(ctx, req.AdminID, models.AuditActionPriceListCloned, msg, true, nil, metadata)

	return &dto.ClonePriceListResponse{
		Message: "Price list cloned successfully",
		UUID:    clone.UUID.String(),
		Version: clone.Version,
		Status:  clone.Status.String(),
	}, nil
}

// GetLineage retrieves the full version history of a list's lineage
func (s *PriceListFlowImpl) GetLineage(ctx context.Context, uuid string) (*dto.LineageResponse, error) {
	list, err := s.priceListRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}

	versions, err := s.priceListRepo.ByLineage(ctx, list.LineageID)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to load lineage", err)
	}

	resp := &dto.LineageResponse{LineageID: list.LineageID.String()}
	for _, version := range versions {
		resp.Versions = append(resp.Versions, ToPriceListDTO(*version, nil))
	}
	return resp, nil
}

// GetConflicts recomputes the conflict report for a price list
func (s *PriceListFlowImpl) GetConflicts(ctx context.Context, uuid string) (*dto.ListConflictsResponse, error) {
	list, err := s.priceListRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}

	conflicts := pricing.DetectConflicts(list)
	resp := &dto.ListConflictsResponse{
		UUID:      list.UUID.String(),
		Conflicts: make([]dto.PriceConflictDTO, 0, len(conflicts)),
		Blocking:  pricing.HasBlockingConflict(conflicts),
	}
	for _, conflict := range conflicts {
		resp.Conflicts = append(resp.Conflicts, ToPriceConflictDTO(conflict))
	}
	return resp, nil
}

// ExportPriceList renders a price list as a spreadsheet and returns the
// file contents with a suggested filename
func (s *PriceListFlowImpl) ExportPriceList(ctx context.Context, uuid string) ([]byte, string, error) {
	list, err := s.priceListRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, "", NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, "", NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}

	serviceNames := make(map[uint]string)
	for _, rule := range list.Rules {
		if _, ok := serviceNames[rule.ServiceID]; ok {
			continue
		}
		service, err := s.serviceRepo.ByID(ctx, rule.ServiceID)
		if err != nil {
			return nil, "", NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to resolve services", err)
		}
		if service != nil {
			serviceNames[rule.ServiceID] = service.Name
		}
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Rules"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", NewBusinessError("PRICE_LIST_EXPORT_FAILED", "Failed to build spreadsheet", err)
	}

	headers := []string{"Service", "Base Price", "Min Duration", "Max Duration", "Min Group", "Max Group", "Season x", "Weekend x", "Group Discounts", "Active"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", NewBusinessError("PRICE_LIST_EXPORT_FAILED", "Failed to build spreadsheet", err)
		}
	}

	for row, rule := range list.Rules {
		values := []any{
			serviceNames[rule.ServiceID],
			rule.BasePrice,
			intOrEmpty(rule.MinDuration),
			intOrEmpty(rule.MaxDuration),
			intOrEmpty(rule.MinGroupSize),
			intOrEmpty(rule.MaxGroupSize),
			rule.SeasonMultiplier,
			rule.WeekendMultiplier,
			formatGroupDiscounts(rule.GroupDiscounts),
			utils.IsTrue(rule.IsActive),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, "", NewBusinessError("PRICE_LIST_EXPORT_FAILED", "Failed to build spreadsheet", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", NewBusinessError("PRICE_LIST_EXPORT_FAILED", "Failed to build spreadsheet", err)
	}

	filename := fmt.Sprintf("price-list-%s-v%d.xlsx", list.UUID.String(), list.Version)
	return buf.Bytes(), filename, nil
}

// rulesFromDTOs resolves service UUIDs and maps rule DTOs to models
func (s *PriceListFlowImpl) rulesFromDTOs(ctx context.Context, dtos []dto.PriceRuleDTO) ([]models.PriceRule, error) {
	rules := make([]models.PriceRule, 0, len(dtos))
	for _, in := range dtos {
		service, err := s.serviceRepo.ByUUID(ctx, in.ServiceUUID)
		if err != nil {
			return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to lookup service", err)
		}
		if service == nil {
			return nil, NewBusinessErrorf("SERVICE_NOT_FOUND", "Service %s not found", ErrServiceNotFound, in.ServiceUUID)
		}

		rule := models.PriceRule{
			ServiceID:         service.ID,
			BasePrice:         in.BasePrice,
			MinDuration:       in.MinDuration,
			MaxDuration:       in.MaxDuration,
			MinGroupSize:      in.MinGroupSize,
			MaxGroupSize:      in.MaxGroupSize,
			SeasonMultiplier:  in.SeasonMultiplier,
			WeekendMultiplier: in.WeekendMultiplier,
			IsActive:          in.IsActive,
		}
		for _, gd := range in.GroupDiscounts {
			rule.GroupDiscounts = append(rule.GroupDiscounts, models.GroupDiscountRule{
				MinSize:          gd.MinSize,
				DiscountFraction: gd.DiscountFraction,
			})
		}
		for _, wd := range in.Weekdays {
			rule.WeekdaySet = append(rule.WeekdaySet, time.Weekday(wd))
		}
		for _, slot := range in.Slots {
			rule.Slots = append(rule.Slots, models.TimeSlot{Start: slot.Start, End: slot.End})
		}
		for _, addOn := range in.AddOns {
			rule.Extras = append(rule.Extras, models.AddOn{Name: addOn.Name, Price: addOn.Price})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// serviceUUIDMap resolves the service UUIDs referenced by a set of rules
func (s *PriceListFlowImpl) serviceUUIDMap(ctx context.Context, rules []models.PriceRule) (map[uint]string, error) {
	out := make(map[uint]string)
	for _, rule := range rules {
		if _, ok := out[rule.ServiceID]; ok {
			continue
		}
		service, err := s.serviceRepo.ByID(ctx, rule.ServiceID)
		if err != nil {
			return nil, err
		}
		if service != nil {
			out[rule.ServiceID] = service.UUID.String()
		}
	}
	return out, nil
}

func (s *PriceListFlowImpl) createAuditLog(ctx context.Context, adminID uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	return saveAuditLog(ctx, s.auditRepo, adminID, action, description, success, errorMsg, metadata)
}

func intOrEmpty(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func formatGroupDiscounts(rules models.GroupDiscountRules) string {
	if len(rules) == 0 {
		return ""
	}
	out := ""
	for i, gd := range rules {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%d+ -%.0f%%", gd.MinSize, gd.DiscountFraction*100)
	}
	return out
}

// saveAuditLog persists one audit entry, extracting the request ID from
// context when present. Audit failures never fail the operation.
func saveAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, adminID uint, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}
	if adminID != 0 {
		audit.AdminID = &adminID
	}

	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}
