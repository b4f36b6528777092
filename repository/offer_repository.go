package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"gorm.io/gorm"
)

// ErrOfferCapReached is returned when a usage increment finds the offer's
// max_usage_count already consumed
var ErrOfferCapReached = errors.New("offer usage cap reached")

// OfferRepositoryImpl implements the OfferRepository interface
type OfferRepositoryImpl struct {
	*BaseRepository[models.Offer, models.OfferFilter]
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &OfferRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Offer, models.OfferFilter](db),
	}
}

// ByUUID retrieves an offer by UUID
func (r *OfferRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Offer, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.OfferFilter{UUID: &parsedUUID}
	offers, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(offers) == 0 {
		return nil, nil
	}

	return offers[0], nil
}

// ListRunning retrieves active offers whose validity window covers the
// given instant, highest priority first
func (r *OfferRepositoryImpl) ListRunning(ctx context.Context, at time.Time) ([]*models.Offer, error) {
	db := r.getDB(ctx)

	var offers []*models.Offer
	err := db.Where("status = ?", models.OfferStatusActive).
		Where("valid_from <= ? AND valid_to >= ?", at, at).
		Order("priority DESC, created_at ASC").
		Find(&offers).Error
	if err != nil {
		return nil, err
	}

	return offers, nil
}

// ListDueForActivation retrieves planned offers whose window has opened
func (r *OfferRepositoryImpl) ListDueForActivation(ctx context.Context, at time.Time) ([]*models.Offer, error) {
	db := r.getDB(ctx)

	var offers []*models.Offer
	err := db.Where("status = ?", models.OfferStatusPlanned).
		Where("valid_from <= ? AND valid_to > ?", at, at).
		Find(&offers).Error
	if err != nil {
		return nil, err
	}

	return offers, nil
}

// ListDueForExpiry retrieves active or paused offers whose window has closed
func (r *OfferRepositoryImpl) ListDueForExpiry(ctx context.Context, at time.Time) ([]*models.Offer, error) {
	db := r.getDB(ctx)

	var offers []*models.Offer
	err := db.Where("status IN ?", []models.OfferStatus{models.OfferStatusActive, models.OfferStatusPaused}).
		Where("valid_to <= ?", at).
		Find(&offers).Error
	if err != nil {
		return nil, err
	}

	return offers, nil
}

// Update updates an offer
func (r *OfferRepositoryImpl) Update(ctx context.Context, offer models.Offer) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	offer.UpdatedAt = &now

	err = db.Save(&offer).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateStatus updates only the status of an offer
func (r *OfferRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.OfferStatus) error {
	db := r.getDB(ctx)

	return db.Model(&models.Offer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
}

// IncrementUsage bumps the usage counter and attributed revenue atomically.
// The update carries the cap predicate, so concurrent increments of a nearly
// exhausted offer cannot overshoot max_usage_count; the loser gets
// ErrOfferCapReached.
func (r *OfferRepositoryImpl) IncrementUsage(ctx context.Context, id uint, revenue float64) error {
	db := r.getDB(ctx)

	res := db.Model(&models.Offer{}).
		Where("id = ? AND (max_usage_count IS NULL OR usage_count < max_usage_count)", id).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"revenue":     gorm.Expr("revenue + ?", revenue),
			"updated_at":  utils.UTCNow(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOfferCapReached
	}

	return nil
}

// DecrementUsage releases one consumed use and takes back its attributed
// revenue, never dropping the counter below zero
func (r *OfferRepositoryImpl) DecrementUsage(ctx context.Context, id uint, revenue float64) error {
	db := r.getDB(ctx)

	return db.Model(&models.Offer{}).
		Where("id = ? AND usage_count > 0", id).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count - 1"),
			"revenue":     gorm.Expr("revenue - ?", revenue),
			"updated_at":  utils.UTCNow(),
		}).Error
}

// ByFilter retrieves offers based on filter criteria
func (r *OfferRepositoryImpl) ByFilter(ctx context.Context, filter models.OfferFilter, orderBy string, limit, offset int) ([]*models.Offer, error) {
	db := r.getDB(ctx)

	var offers []*models.Offer
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

	err := query.Find(&offers).Error
	if err != nil {
		return nil, err
	}

	return offers, nil
}

// Count returns the number of offers matching the filter
func (r *OfferRepositoryImpl) Count(ctx context.Context, filter models.OfferFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Offer{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any offer matching the filter exists
func (r *OfferRepositoryImpl) Exists(ctx context.Context, filter models.OfferFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *OfferRepositoryImpl) applyFilter(db *gorm.DB, filter models.OfferFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.DiscountType != nil {
		db = db.Where("discount_type = ?", *filter.DiscountType)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Combinable != nil {
		db = db.Where("combinable = ?", *filter.Combinable)
	}
	if filter.ValidAt != nil {
		db = db.Where("valid_from <= ? AND valid_to >= ?", *filter.ValidAt, *filter.ValidAt)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
