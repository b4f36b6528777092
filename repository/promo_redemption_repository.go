package repository

import (
	"context"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"gorm.io/gorm"
)

// PromoRedemptionRepositoryImpl implements the PromoRedemptionRepository interface
type PromoRedemptionRepositoryImpl struct {
	*BaseRepository[models.PromoRedemption, models.PromoRedemptionFilter]
}

// NewPromoRedemptionRepository creates a new promo redemption repository
func NewPromoRedemptionRepository(db *gorm.DB) PromoRedemptionRepository {
	return &PromoRedemptionRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PromoRedemption, models.PromoRedemptionFilter](db),
	}
}

// ByRequestID retrieves the redemption recorded for an idempotency key
func (r *PromoRedemptionRepositoryImpl) ByRequestID(ctx context.Context, requestID string) (*models.PromoRedemption, error) {
	filter := models.PromoRedemptionFilter{RequestID: &requestID}
	redemptions, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(redemptions) == 0 {
		return nil, nil
	}

	return redemptions[0], nil
}

// ByOrderRef retrieves the redemptions attached to an order
func (r *PromoRedemptionRepositoryImpl) ByOrderRef(ctx context.Context, orderRef string) ([]*models.PromoRedemption, error) {
	filter := models.PromoRedemptionFilter{OrderRef: &orderRef}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

// CountActiveByCode counts the reserved and confirmed redemptions of a code.
// Voided redemptions do not count against caps.
func (r *PromoRedemptionRepositoryImpl) CountActiveByCode(ctx context.Context, promoCodeID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.PromoRedemption{}).
		Where("promo_code_id = ? AND status IN ?", promoCodeID,
			[]models.RedemptionStatus{models.RedemptionStatusReserved, models.RedemptionStatusConfirmed}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountActiveByCodeAndUser counts a single user's reserved and confirmed
// redemptions of a code
func (r *PromoRedemptionRepositoryImpl) CountActiveByCodeAndUser(ctx context.Context, promoCodeID, userID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.PromoRedemption{}).
		Where("promo_code_id = ? AND user_id = ? AND status IN ?", promoCodeID, userID,
			[]models.RedemptionStatus{models.RedemptionStatusReserved, models.RedemptionStatusConfirmed}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CountActiveByOfferAndUser counts a single user's reserved and confirmed
// redemptions across every code of an offer
func (r *PromoRedemptionRepositoryImpl) CountActiveByOfferAndUser(ctx context.Context, offerID, userID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.PromoRedemption{}).
		Where("offer_id = ? AND user_id = ? AND status IN ?", offerID, userID,
			[]models.RedemptionStatus{models.RedemptionStatusReserved, models.RedemptionStatusConfirmed}).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// UpdateStatus transitions a ledger entry, stamping the matching timestamp
func (r *PromoRedemptionRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.RedemptionStatus) error {
	db := r.getDB(ctx)

	now := utils.UTCNow()
	updates := map[string]any{"status": status}
	switch status {
	case models.RedemptionStatusConfirmed:
		updates["confirmed_at"] = now
	case models.RedemptionStatusVoided:
		updates["voided_at"] = now
	}

	return db.Model(&models.PromoRedemption{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// ByFilter retrieves redemptions based on filter criteria
func (r *PromoRedemptionRepositoryImpl) ByFilter(ctx context.Context, filter models.PromoRedemptionFilter, orderBy string, limit, offset int) ([]*models.PromoRedemption, error) {
	db := r.getDB(ctx)

	var redemptions []*models.PromoRedemption
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&redemptions).Error
	if err != nil {
		return nil, err
	}

	return redemptions, nil
}

// Count returns the number of redemptions matching the filter
func (r *PromoRedemptionRepositoryImpl) Count(ctx context.Context, filter models.PromoRedemptionFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PromoRedemption{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any redemption matching the filter exists
func (r *PromoRedemptionRepositoryImpl) Exists(ctx context.Context, filter models.PromoRedemptionFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PromoRedemptionRepositoryImpl) applyFilter(db *gorm.DB, filter models.PromoRedemptionFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PromoCodeID != nil {
		db = db.Where("promo_code_id = ?", *filter.PromoCodeID)
	}
	if filter.OfferID != nil {
		db = db.Where("offer_id = ?", *filter.OfferID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.OrderRef != nil {
		db = db.Where("order_ref = ?", *filter.OrderRef)
	}
	if filter.RequestID != nil {
		db = db.Where("request_id = ?", *filter.RequestID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}

	return db
}
