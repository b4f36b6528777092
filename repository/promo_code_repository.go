package repository

import (
	"context"
	"errors"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PromoCodeRepositoryImpl implements the PromoCodeRepository interface
type PromoCodeRepositoryImpl struct {
	*BaseRepository[models.PromoCode, models.PromoCodeFilter]
}

// NewPromoCodeRepository creates a new promo code repository
func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &PromoCodeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PromoCode, models.PromoCodeFilter](db),
	}
}

// ByCode retrieves a promo code by its normalized code
func (r *PromoCodeRepositoryImpl) ByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	normalized := utils.NormalizeCode(code)
	filter := models.PromoCodeFilter{Code: &normalized}
	codes, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(codes) == 0 {
		return nil, nil
	}

	return codes[0], nil
}

// ByCodeForUpdate retrieves a promo code holding a row lock until the
// surrounding transaction ends. Callers must run inside WithTransaction or
// concurrent redemptions can both pass the usage-cap check.
func (r *PromoCodeRepositoryImpl) ByCodeForUpdate(ctx context.Context, code string) (*models.PromoCode, error) {
	db := r.getDB(ctx)

	var promoCode models.PromoCode
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", utils.NormalizeCode(code)).
		First(&promoCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &promoCode, nil
}

// IncrementUsage bumps the usage counter atomically
func (r *PromoCodeRepositoryImpl) IncrementUsage(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	now := utils.UTCNow()
	return db.Model(&models.PromoCode{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"used_count":   gorm.Expr("used_count + 1"),
			"last_used_at": now,
			"updated_at":   now,
		}).Error
}

// DecrementUsage releases one consumed use, never dropping below zero
func (r *PromoCodeRepositoryImpl) DecrementUsage(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	return db.Model(&models.PromoCode{}).
		Where("id = ? AND used_count > 0", id).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count - 1"),
			"updated_at": utils.UTCNow(),
		}).Error
}

// Update updates a promo code
func (r *PromoCodeRepositoryImpl) Update(ctx context.Context, code models.PromoCode) error {
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
	code.UpdatedAt = &now

	err = db.Save(&code).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves promo codes based on filter criteria
func (r *PromoCodeRepositoryImpl) ByFilter(ctx context.Context, filter models.PromoCodeFilter, orderBy string, limit, offset int) ([]*models.PromoCode, error) {
	db := r.getDB(ctx)

	var codes []*models.PromoCode
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

	err := query.Find(&codes).Error
	if err != nil {
		return nil, err
	}

	return codes, nil
}

// Count returns the number of promo codes matching the filter
func (r *PromoCodeRepositoryImpl) Count(ctx context.Context, filter models.PromoCodeFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PromoCode{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any promo code matching the filter exists
func (r *PromoCodeRepositoryImpl) Exists(ctx context.Context, filter models.PromoCodeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PromoCodeRepositoryImpl) applyFilter(db *gorm.DB, filter models.PromoCodeFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Code != nil {
		db = db.Where("code = ?", *filter.Code)
	}
	if filter.OfferID != nil {
		db = db.Where("offer_id = ?", *filter.OfferID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
