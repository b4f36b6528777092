package repository

import (
	"context"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"gorm.io/gorm"
)

// PriceRuleRepositoryImpl implements the PriceRuleRepository interface
type PriceRuleRepositoryImpl struct {
	*BaseRepository[models.PriceRule, models.PriceRuleFilter]
}

// NewPriceRuleRepository creates a new price rule repository
func NewPriceRuleRepository(db *gorm.DB) PriceRuleRepository {
	return &PriceRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceRule, models.PriceRuleFilter](db),
	}
}

// ByUUID retrieves a price rule by UUID
func (r *PriceRuleRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PriceRule, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PriceRuleFilter{UUID: &parsedUUID}
	rules, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(rules) == 0 {
		return nil, nil
	}

	return rules[0], nil
}

// ByPriceListID retrieves the rules of a price list in creation order
func (r *PriceRuleRepositoryImpl) ByPriceListID(ctx context.Context, priceListID uint) ([]*models.PriceRule, error) {
	filter := models.PriceRuleFilter{PriceListID: &priceListID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// Update updates a price rule
func (r *PriceRuleRepositoryImpl) Update(ctx context.Context, rule models.PriceRule) error {
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
	rule.UpdatedAt = &now

	err = db.Save(&rule).Error
	if err != nil {
		return err
	}

	return nil
}

// Delete removes a price rule
func (r *PriceRuleRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Delete(&models.PriceRule{}, id).Error
}

// ByFilter retrieves price rules based on filter criteria
func (r *PriceRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceRuleFilter, orderBy string, limit, offset int) ([]*models.PriceRule, error) {
	db := r.getDB(ctx)

	var rules []*models.PriceRule
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

	err := query.Find(&rules).Error
	if err != nil {
		return nil, err
	}

	return rules, nil
}

// Count returns the number of price rules matching the filter
func (r *PriceRuleRepositoryImpl) Count(ctx context.Context, filter models.PriceRuleFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PriceRule{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any price rule matching the filter exists
func (r *PriceRuleRepositoryImpl) Exists(ctx context.Context, filter models.PriceRuleFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PriceRuleRepositoryImpl) applyFilter(db *gorm.DB, filter models.PriceRuleFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.PriceListID != nil {
		db = db.Where("price_list_id = ?", *filter.PriceListID)
	}
	if filter.ServiceID != nil {
		db = db.Where("service_id = ?", *filter.ServiceID)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
