package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"gorm.io/gorm"
)

// PromoCodeFlow manages promo codes and the redemption ledger
type PromoCodeFlow interface {
	CreatePromoCode(ctx context.Context, req *dto.CreatePromoCodeRequest, metadata *ClientMetadata) (*dto.CreatePromoCodeResponse, error)
	RedeemPromoCode(ctx context.Context, req *dto.RedeemPromoCodeRequest, metadata *ClientMetadata) (*dto.RedeemPromoCodeResponse, error)
	ConfirmRedemption(ctx context.Context, req *dto.ConfirmRedemptionRequest, metadata *ClientMetadata) (*dto.RedemptionActionResponse, error)
	VoidRedemption(ctx context.Context, req *dto.VoidRedemptionRequest, metadata *ClientMetadata) (*dto.RedemptionActionResponse, error)
	ListRedemptions(ctx context.Context, req *dto.ListRedemptionsRequest) (*dto.ListRedemptionsResponse, error)
}

// PromoCodeFlowImpl implements the promo code business flow
type PromoCodeFlowImpl struct {
	promoCodeRepo  repository.PromoCodeRepository
	redemptionRepo repository.PromoRedemptionRepository
	offerRepo      repository.OfferRepository
	auditRepo      repository.AuditLogRepository
	db             *gorm.DB
}

// NewPromoCodeFlow creates a new promo code flow instance
func NewPromoCodeFlow(
	promoCodeRepo repository.PromoCodeRepository,
	redemptionRepo repository.PromoRedemptionRepository,
	offerRepo repository.OfferRepository,
	auditRepo repository.AuditLogRepository,
	db *gorm.DB,
) PromoCodeFlow {
	return &PromoCodeFlowImpl{
		promoCodeRepo:  promoCodeRepo,
		redemptionRepo: redemptionRepo,
		offerRepo:      offerRepo,
		auditRepo:      auditRepo,
		db:             db,
	}
}

// CreatePromoCode creates a promo code bound to an offer
func (s *PromoCodeFlowImpl) CreatePromoCode(ctx context.Context, req *dto.CreatePromoCodeRequest, metadata *ClientMetadata) (*dto.CreatePromoCodeResponse, error) {
	offer, err := s.offerRepo.ByUUID(ctx, req.OfferUUID)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to lookup offer", err)
	}
	if offer == nil {
		return nil, NewBusinessError("OFFER_NOT_FOUND", "Offer not found", ErrOfferNotFound)
	}

	normalized := utils.NormalizeCode(req.Code)
	existing, err := s.promoCodeRepo.ByCode(ctx, normalized)
	if err != nil {
		return nil, NewBusinessError("PROMO_CODE_LOOKUP_FAILED", "Failed to lookup promo code", err)
	}
	if existing != nil {
		return nil, NewBusinessError("PROMO_CODE_ALREADY_EXISTS", "Promo code already exists", ErrPromoCodeAlreadyExists)
	}

	code := &models.PromoCode{
		Code:            normalized,
		OfferID:         offer.ID,
		MaxUses:         req.MaxUses,
		AssignedUserIDs: models.UintSlice(req.AssignedUserIDs),
		OneTimeUse:      req.OneTimeUse,
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.promoCodeRepo.Save(txCtx, code)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Promo code creation failed: %s", err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPromoCodeCreated, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PROMO_CODE_CREATION_FAILED", "Promo code creation failed", err)
	}

	msg := fmt.Sprintf("Promo code created: %s", code.Code)
	_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPromoCodeCreated, msg, true, nil, metadata)

	return &dto.CreatePromoCodeResponse{
		Message:   "Promo code created successfully",
		UUID:      code.UUID.String(),
		Code:      code.Code,
		CreatedAt: code.CreatedAt.Format(time.RFC3339),
	}, nil
}

// RedeemPromoCode reserves one use of a promo code against an order. The
// code row is locked for the whole transaction so two concurrent redemptions
// of a nearly-exhausted code serialize: one reserves the last use, the other
// is rejected. Retries carrying a request ID already in the ledger replay
// the recorded outcome without consuming anything.
func (s *PromoCodeFlowImpl) RedeemPromoCode(ctx context.Context, req *dto.RedeemPromoCodeRequest, metadata *ClientMetadata) (*dto.RedeemPromoCodeResponse, error) {
	var (
		redemption *models.PromoRedemption
		offer      *models.Offer
		replayed   bool
	)

	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		existing, err := s.redemptionRepo.ByRequestID(txCtx, req.RequestID)
		if err != nil {
			return err
		}
		if existing != nil {
			redemption = existing
			replayed = true
			return nil
		}

		code, err := s.promoCodeRepo.ByCodeForUpdate(txCtx, req.Code)
		if err != nil {
			return err
		}
		if code == nil {
			return ErrPromoCodeNotFound
		}
		if !utils.IsTrue(code.IsActive) {
			return ErrPromoCodeInactive
		}
		if !code.AssignedTo(req.UserID) {
			return ErrPromoCodeNotAssigned
		}
		if code.Exhausted() {
			return ErrPromoCodeExhausted
		}

		offer, err = s.offerRepo.ByID(txCtx, code.OfferID)
		if err != nil {
			return err
		}
		if offer == nil || !offer.RunningAt(utils.UTCNow()) {
			return ErrOfferNotActive
		}
		if offer.UsageExhausted() {
			return ErrOfferUsageExhausted
		}

		codeUses, err := s.redemptionRepo.CountActiveByCodeAndUser(txCtx, code.ID, req.UserID)
		if err != nil {
			return err
		}
		if code.OneTimeUse && codeUses > 0 {
			return ErrOneTimeUseConsumed
		}
		if offer.MaxUsagePerUser != nil {
			// The cap is per offer, so uses through other codes of the
			// same offer count too
			offerUses, err := s.redemptionRepo.CountActiveByOfferAndUser(txCtx, offer.ID, req.UserID)
			if err != nil {
				return err
			}
			if offerUses >= int64(*offer.MaxUsagePerUser) {
				return ErrPerUserCapExceeded
			}
		}

		redemption = &models.PromoRedemption{
			PromoCodeID: code.ID,
			OfferID:     offer.ID,
			UserID:      req.UserID,
			OrderRef:    req.OrderRef,
			OrderAmount: req.OrderAmount,
			RequestID:   req.RequestID,
			Status:      models.RedemptionStatusReserved,
		}
		if err := s.redemptionRepo.Save(txCtx, redemption); err != nil {
			return err
		}
		if err := s.promoCodeRepo.IncrementUsage(txCtx, code.ID); err != nil {
			return err
		}
		// The guarded increment catches concurrent redemptions through
		// other codes of the same offer that the earlier read missed
		if err := s.offerRepo.IncrementUsage(txCtx, offer.ID, req.OrderAmount); err != nil {
			if errors.Is(err, repository.ErrOfferCapReached) {
				return ErrOfferUsageExhausted
			}
			return err
		}
		return nil
	})
	if err != nil {
		errMsg := fmt.Sprintf("Redemption of %s rejected: %s", utils.NormalizeCode(req.Code), err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, 0, models.AuditActionPromoRejected, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PROMO_REDEMPTION_REJECTED", "Promo code redemption rejected", err)
	}

	if !replayed {
		msg := fmt.Sprintf("Promo code %s redeemed by user %d for order %s", utils.NormalizeCode(req.Code), req.UserID, req.OrderRef)
		_ = saveAuditLog(ctx, s.auditRepo, 0, models.AuditActionPromoRedeemed, msg, true, nil, metadata)
	}

	resp := &dto.RedeemPromoCodeResponse{
		Message:        "Promo code redeemed successfully",
		RedemptionUUID: redemption.UUID.String(),
		Status:         redemption.Status.String(),
		Replayed:       replayed,
	}
	if offer != nil {
		resp.OfferUUID = offer.UUID.String()
	}
	return resp, nil
}

// ConfirmRedemption marks a reserved use as consumed by a completed order
func (s *PromoCodeFlowImpl) ConfirmRedemption(ctx context.Context, req *dto.ConfirmRedemptionRequest, metadata *ClientMetadata) (*dto.RedemptionActionResponse, error) {
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		redemption, err := s.redemptionRepo.ByRequestID(txCtx, req.RequestID)
		if err != nil {
			return err
		}
		if redemption == nil {
			return ErrRedemptionNotFound
		}
		if redemption.Status != models.RedemptionStatusReserved {
			return ErrRedemptionNotReserved
		}
		return s.redemptionRepo.UpdateStatus(txCtx, redemption.ID, models.RedemptionStatusConfirmed)
	})
	if err != nil {
		return nil, NewBusinessError("REDEMPTION_CONFIRM_FAILED", "Redemption confirmation failed", err)
	}

	return &dto.RedemptionActionResponse{
		Message: "Redemption confirmed successfully",
		Status:  models.RedemptionStatusConfirmed.String(),
	}, nil
}

// VoidRedemption releases a reserved or confirmed use, handing the capacity
// back to the code and its offer. Voided is terminal.
func (s *PromoCodeFlowImpl) VoidRedemption(ctx context.Context, req *dto.VoidRedemptionRequest, metadata *ClientMetadata) (*dto.RedemptionActionResponse, error) {
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		redemption, err := s.redemptionRepo.ByRequestID(txCtx, req.RequestID)
		if err != nil {
			return err
		}
		if redemption == nil {
			return ErrRedemptionNotFound
		}
		if redemption.Status == models.RedemptionStatusVoided {
			return ErrRedemptionAlreadyVoided
		}
		if err := s.redemptionRepo.UpdateStatus(txCtx, redemption.ID, models.RedemptionStatusVoided); err != nil {
			return err
		}
		if err := s.promoCodeRepo.DecrementUsage(txCtx, redemption.PromoCodeID); err != nil {
			return err
		}
		return s.offerRepo.DecrementUsage(txCtx, redemption.OfferID, redemption.OrderAmount)
	})
	if err != nil {
		errMsg := fmt.Sprintf("Void of redemption %s failed: %s", req.RequestID, err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, 0, models.AuditActionPromoVoided, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("REDEMPTION_VOID_FAILED", "Redemption void failed", err)
	}

	msg := fmt.Sprintf("Redemption %s voided", req.RequestID)
	_ = saveAuditLog(ctx, s.auditRepo, 0, models.AuditActionPromoVoided, msg, true, nil, metadata)

	return &dto.RedemptionActionResponse{
		Message: "Redemption voided successfully",
		Status:  models.RedemptionStatusVoided.String(),
	}, nil
}

// ListRedemptions retrieves ledger entries with pagination
func (s *PromoCodeFlowImpl) ListRedemptions(ctx context.Context, req *dto.ListRedemptionsRequest) (*dto.ListRedemptionsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	filter := models.PromoRedemptionFilter{UserID: req.UserID}
	if req.Status != nil {
		status := models.RedemptionStatus(*req.Status)
		filter.Status = &status
	}
	if req.Code != nil {
		code, err := s.promoCodeRepo.ByCode(ctx, *req.Code)
		if err != nil {
			return nil, NewBusinessError("PROMO_CODE_LOOKUP_FAILED", "Failed to lookup promo code", err)
		}
		if code == nil {
			return nil, NewBusinessError("PROMO_CODE_NOT_FOUND", "Promo code not found", ErrPromoCodeNotFound)
		}
		filter.PromoCodeID = &code.ID
	}

	redemptions, err := s.redemptionRepo.ByFilter(ctx, filter, "created_at DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("REDEMPTION_LOOKUP_FAILED", "Failed to list redemptions", err)
	}
	total, err := s.redemptionRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("REDEMPTION_LOOKUP_FAILED", "Failed to count redemptions", err)
	}

	resp := &dto.ListRedemptionsResponse{Total: total, Items: make([]dto.RedemptionDTO, 0, len(redemptions))}
	for _, redemption := range redemptions {
		resp.Items = append(resp.Items, ToRedemptionDTO(*redemption))
	}
	return resp, nil
}
