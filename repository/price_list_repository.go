package repository

import (
	"context"
	"errors"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStaleLock is returned when a guarded update loses the optimistic lock race
var ErrStaleLock = errors.New("price list was modified concurrently")

// PriceListRepositoryImpl implements the PriceListRepository interface
type PriceListRepositoryImpl struct {
	*BaseRepository[models.PriceList, models.PriceListFilter]
}

// NewPriceListRepository creates a new price list repository
func NewPriceListRepository(db *gorm.DB) PriceListRepository {
	return &PriceListRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PriceList, models.PriceListFilter](db),
	}
}

// ByID retrieves a price list by ID with its rules
func (r *PriceListRepositoryImpl) ByID(ctx context.Context, id uint) (*models.PriceList, error) {
	db := r.getDB(ctx)

	var list models.PriceList
	err := db.Preload("Rules").Last(&list, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &list, nil
}

// ByUUID retrieves a price list by UUID
func (r *PriceListRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.PriceList, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PriceListFilter{UUID: &parsedUUID}
	lists, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(lists) == 0 {
		return nil, nil
	}

	return lists[0], nil
}

// ByLineage retrieves every version of a lineage, newest version first
func (r *PriceListRepositoryImpl) ByLineage(ctx context.Context, lineageID uuid.UUID) ([]*models.PriceList, error) {
	filter := models.PriceListFilter{LineageID: &lineageID}
	return r.ByFilter(ctx, filter, "version DESC", 0, 0)
}

// LatestInLineage retrieves the highest version of a lineage
func (r *PriceListRepositoryImpl) LatestInLineage(ctx context.Context, lineageID uuid.UUID) (*models.PriceList, error) {
	lists, err := r.ByFilter(ctx, models.PriceListFilter{LineageID: &lineageID}, "version DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, nil
	}
	return lists[0], nil
}

// ListPublished retrieves the published lists whose validity window covers
// the given instant, rules preloaded
func (r *PriceListRepositoryImpl) ListPublished(ctx context.Context, at time.Time) ([]*models.PriceList, error) {
	db := r.getDB(ctx)

	var lists []*models.PriceList
	err := db.Preload("Rules").
		Where("status = ?", models.PriceListStatusPublished).
		Where("valid_from <= ?", at).
		Where("valid_to IS NULL OR valid_to >= ?", at).
		Order("version DESC").
		Find(&lists).Error
	if err != nil {
		return nil, err
	}

	return lists, nil
}

// Update updates a price list
func (r *PriceListRepositoryImpl) Update(ctx context.Context, list models.PriceList) error {
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
	list.UpdatedAt = &now

	err = db.Omit("Rules").Save(&list).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateGuarded applies updates only if the stored lock_version still matches
// the one the caller read. The lock version is bumped on success; a zero
// rows-affected result means another writer got there first.
func (r *PriceListRepositoryImpl) UpdateGuarded(ctx context.Context, id uint, lockVersion int, updates map[string]any) error {
	db := r.getDB(ctx)

	updates["lock_version"] = lockVersion + 1
	updates["updated_at"] = utils.UTCNow()

	res := db.Model(&models.PriceList{}).
		Where("id = ? AND lock_version = ?", id, lockVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleLock
	}

	return nil
}

// ArchivePublishedInLineage archives every published version of a lineage
// except the given one
func (r *PriceListRepositoryImpl) ArchivePublishedInLineage(ctx context.Context, lineageID uuid.UUID, exceptID uint) error {
	db := r.getDB(ctx)

	now := utils.UTCNow()
	return db.Model(&models.PriceList{}).
		Where("lineage_id = ? AND status = ? AND id <> ?", lineageID, models.PriceListStatusPublished, exceptID).
		Updates(map[string]any{
			"status":      models.PriceListStatusArchived,
			"archived_at": now,
			"updated_at":  now,
		}).Error
}

// ArchivePublishedInScope archives every published list sharing a
// (channel, segment, season) scope except the given one, regardless of
// lineage. Independently created lists can share a scope, and at most one
// of them may stay published.
func (r *PriceListRepositoryImpl) ArchivePublishedInScope(ctx context.Context, channel, segment, season string, exceptID uint) error {
	db := r.getDB(ctx)

	now := utils.UTCNow()
	return db.Model(&models.PriceList{}).
		Where("channel = ? AND segment = ? AND season = ? AND status = ? AND id <> ?",
			channel, segment, season, models.PriceListStatusPublished, exceptID).
		Updates(map[string]any{
			"status":      models.PriceListStatusArchived,
			"archived_at": now,
			"updated_at":  now,
		}).Error
}

// ByFilter retrieves price lists based on filter criteria
func (r *PriceListRepositoryImpl) ByFilter(ctx context.Context, filter models.PriceListFilter, orderBy string, limit, offset int) ([]*models.PriceList, error) {
	db := r.getDB(ctx)

	var lists []*models.PriceList
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

	query = query.Preload("Rules")

	err := query.Find(&lists).Error
	if err != nil {
		return nil, err
	}

	return lists, nil
}

// Count returns the number of price lists matching the filter
func (r *PriceListRepositoryImpl) Count(ctx context.Context, filter models.PriceListFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PriceList{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any price list matching the filter exists
func (r *PriceListRepositoryImpl) Exists(ctx context.Context, filter models.PriceListFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PriceListRepositoryImpl) applyFilter(db *gorm.DB, filter models.PriceListFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.LineageID != nil {
		db = db.Where("lineage_id = ?", *filter.LineageID)
	}
	if filter.Season != nil {
		db = db.Where("season = ?", *filter.Season)
	}
	if filter.Channel != nil {
		db = db.Where("channel = ?", *filter.Channel)
	}
	if filter.Segment != nil {
		db = db.Where("segment = ?", *filter.Segment)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Version != nil {
		db = db.Where("version = ?", *filter.Version)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
