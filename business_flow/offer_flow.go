package businessflow

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"gorm.io/gorm"
)

// OfferFlow manages promotional offers and their lifecycle
type OfferFlow interface {
	CreateOffer(ctx context.Context, req *dto.CreateOfferRequest, metadata *ClientMetadata) (*dto.CreateOfferResponse, error)
	UpdateOffer(ctx context.Context, req *dto.UpdateOfferRequest, metadata *ClientMetadata) (*dto.UpdateOfferResponse, error)
	ChangeOfferStatus(ctx context.Context, req *dto.ChangeOfferStatusRequest, metadata *ClientMetadata) (*dto.ChangeOfferStatusResponse, error)
	GetOffer(ctx context.Context, uuid string) (*dto.OfferDTO, error)
	ListOffers(ctx context.Context, req *dto.ListOffersRequest) (*dto.ListOffersResponse, error)
}

// OfferFlowImpl implements the offer business flow
type OfferFlowImpl struct {
	offerRepo   repository.OfferRepository
	serviceRepo repository.ServiceRepository
	auditRepo   repository.AuditLogRepository
	db          *gorm.DB
}

// NewOfferFlow creates a new offer flow instance
func NewOfferFlow(
	offerRepo repository.OfferRepository,
	serviceRepo repository.ServiceRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) OfferFlow {
	return &OfferFlowImpl{
		offerRepo:   offerRepo,
		serviceRepo: serviceRepo,
		auditRepo:   auditRepo,
		db:          db,
	}
}

// CreateOffer creates an offer in the planned state
func (s *OfferFlowImpl) CreateOffer(ctx context.Context, req *dto.CreateOfferRequest, metadata *ClientMetadata) (*dto.CreateOfferResponse, error) {
	if err := s.validateCreateOfferRequest(req); err != nil {
		return nil, NewBusinessError("OFFER_VALIDATION_FAILED", "Offer validation failed", err)
	}

	serviceIDs, err := s.resolveServiceIDs(ctx, req.ServiceUUIDs)
	if err != nil {
		return nil, err
	}

	offer := &models.Offer{
		Name:              req.Name,
		Type:              req.Type,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MinOrderAmount:    req.MinOrderAmount,
		MaxUsageCount:     req.MaxUsageCount,
		MaxUsagePerUser:   req.MaxUsagePerUser,
		ServiceIDs:        serviceIDs,
		Channels:          req.Channels,
		Segments:          req.Segments,
		ValidFrom:         req.ValidFrom,
		ValidTo:           req.ValidTo,
		Combinable:        req.Combinable,
		Priority:          req.Priority,
		Status:            models.OfferStatusPlanned,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.offerRepo.Save(txCtx, offer)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Offer creation failed: %s", err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionOfferCreated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("OFFER_CREATION_FAILED", "Offer creation failed", err)
	}

	msg := fmt.Sprintf("Offer created: %s", offer.UUID.String())
	_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionOfferCreated, msg, true, nil, metadata)

	return &dto.CreateOfferResponse{
		Message:   "Offer created successfully",
		UUID:      offer.UUID.String(),
		Status:    offer.Status.String(),
		CreatedAt: offer.CreatedAt.Format(time.RFC3339),
	}, nil
}

// UpdateOffer edits an offer's parameters. Lifecycle moves go through
// ChangeOfferStatus instead.
func (s *OfferFlowImpl) UpdateOffer(ctx context.Context, req *dto.UpdateOfferRequest, metadata *ClientMetadata) (*dto.UpdateOfferResponse, error) {
	offer, err := s.offerRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to lookup offer", err)
	}
	if offer == nil {
		return nil, NewBusinessError("OFFER_NOT_FOUND", "Offer not found", ErrOfferNotFound)
	}

	if req.Name != nil {
		offer.Name = *req.Name
	}
	if req.DiscountValue != nil {
		offer.DiscountValue = *req.DiscountValue
	}
	if req.MaxDiscountAmount != nil {
		offer.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.MinOrderAmount != nil {
		offer.MinOrderAmount = req.MinOrderAmount
	}
	if req.MaxUsageCount != nil {
		offer.MaxUsageCount = req.MaxUsageCount
	}
	if req.MaxUsagePerUser != nil {
		offer.MaxUsagePerUser = req.MaxUsagePerUser
	}
	if req.ValidFrom != nil {
		offer.ValidFrom = *req.ValidFrom
	}
	if req.ValidTo != nil {
		offer.ValidTo = *req.ValidTo
	}
	if req.Combinable != nil {
		offer.Combinable = *req.Combinable
	}
	if req.Priority != nil {
		offer.Priority = *req.Priority
	}

	if !offer.ValidTo.After(offer.ValidFrom) {
		return nil, NewBusinessError("OFFER_VALIDATION_FAILED", "Offer validation failed", ErrOfferWindowInvalid)
	}
	if offer.Priority < utils.MinOfferPriority || offer.Priority > utils.MaxOfferPriority {
		return nil, NewBusinessError("OFFER_VALIDATION_FAILED", "Offer validation failed", ErrOfferPriorityOutOfRange)
	}
	if offer.DiscountType == models.DiscountTypePercentage && (offer.DiscountValue <= 0 || offer.DiscountValue > 100) {
		return nil, NewBusinessError("OFFER_VALIDATION_FAILED", "Offer validation failed", ErrPercentageOutOfRange)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.offerRepo.Update(txCtx, *offer)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Offer update failed: %s", err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionOfferUpdated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("OFFER_UPDATE_FAILED", "Offer update failed", err)
	}

	msg := fmt.Sprintf("Offer updated: %s", offer.UUID.String())
	_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionOfferUpdated, msg, true, nil, metadata)

	return &dto.UpdateOfferResponse{Message: "Offer updated successfully"}, nil
}

// ChangeOfferStatus moves an offer through its lifecycle, rejecting
// transitions the state machine does not allow
func (s *OfferFlowImpl) ChangeOfferStatus(ctx context.Context, req *dto.ChangeOfferStatusRequest, metadata *ClientMetadata) (*dto.ChangeOfferStatusResponse, error) {
	offer, err := s.offerRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to lookup offer", err)
	}
	if offer == nil {
		return nil, NewBusinessError("OFFER_NOT_FOUND", "Offer not found", ErrOfferNotFound)
	}

	target := models.OfferStatus(req.Status)
	if !target.Valid() {
		return nil, NewBusinessError("INVALID_OFFER_TRANSITION", "Invalid offer status transition", ErrInvalidOfferTransition)
	}
	if !offer.CanTransitionTo(target) {
		return nil, NewBusinessErrorf("INVALID_OFFER_TRANSITION", "Offer cannot move from %s to %s", ErrInvalidOfferTransition, offer.Status, target)
	}

	if err := s.offerRepo.UpdateStatus(ctx, offer.ID, target); err != nil {
		errMsg := fmt.Sprintf("Offer status change failed: %s", err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionOfferStatusChanged, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("OFFER_STATUS_CHANGE_FAILED", "Offer status change failed", err)
	}

	msg := fmt.Sprintf("Offer %s moved from %s to %s", offer.UUID.String(), offer.Status, target)
	_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionOfferStatusChanged, msg, true, nil, metadata)

	return &dto.ChangeOfferStatusResponse{
		Message: "Offer status changed successfully",
		Status:  target.String(),
	}, nil
}

// GetOffer retrieves one offer
func (s *OfferFlowImpl) GetOffer(ctx context.Context, uuid string) (*dto.OfferDTO, error) {
	offer, err := s.offerRepo.ByUUID(ctx, uuid)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to lookup offer", err)
	}
	if offer == nil {
		return nil, NewBusinessError("OFFER_NOT_FOUND", "Offer not found", ErrOfferNotFound)
	}

	out := ToOfferDTO(*offer)
	return &out, nil
}

// ListOffers retrieves offers with pagination
func (s *OfferFlowImpl) ListOffers(ctx context.Context, req *dto.ListOffersRequest) (*dto.ListOffersResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.OfferFilter{Type: req.Type}
	if req.Status != nil {
		status := models.OfferStatus(*req.Status)
		filter.Status = &status
	}

	offers, err := s.offerRepo.ByFilter(ctx, filter, "priority DESC, created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to list offers", err)
	}
	total, err := s.offerRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to count offers", err)
	}

	resp := &dto.ListOffersResponse{Total: total, Items: make([]dto.OfferDTO, 0, len(offers))}
	for _, offer := range offers {
		resp.Items = append(resp.Items, ToOfferDTO(*offer))
	}
	return resp, nil
}

func (s *OfferFlowImpl) validateCreateOfferRequest(req *dto.CreateOfferRequest) error {
	if !req.ValidTo.After(req.ValidFrom) {
		return ErrOfferWindowInvalid
	}
	if req.Priority < utils.MinOfferPriority || req.Priority > utils.MaxOfferPriority {
		return ErrOfferPriorityOutOfRange
	}
	if req.DiscountType == models.DiscountTypePercentage && (req.DiscountValue <= 0 || req.DiscountValue > 100) {
		return ErrPercentageOutOfRange
	}
	return nil
}

func (s *OfferFlowImpl) resolveServiceIDs(ctx context.Context, uuids []string) (models.UintSlice, error) {
	if len(uuids) == 0 {
		return nil, nil
	}
	out := make(models.UintSlice, 0, len(uuids))
	for _, id := range uuids {
		service, err := s.serviceRepo.ByUUID(ctx, id)
		if err != nil {
			return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to lookup service", err)
		}
		if service == nil {
			return nil, NewBusinessErrorf("SERVICE_NOT_FOUND", "Service %s not found", ErrServiceNotFound, id)
		}
		out = append(out, service.ID)
	}
	return out, nil
}
