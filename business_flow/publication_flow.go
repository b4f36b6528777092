package businessflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/config"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/pricing"
	"github.com/AlexPupki/gtsv-pricing/repository"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PublicationFlow moves price list versions through publish and archive
type PublicationFlow interface {
	PublishPriceList(ctx context.Context, req *dto.PublishPriceListRequest, metadata *ClientMetadata) (*dto.PublishPriceListResponse, error)
	ArchivePriceList(ctx context.Context, req *dto.ArchivePriceListRequest, metadata *ClientMetadata) (*dto.ArchivePriceListResponse, error)
}

// PublicationFlowImpl implements the publication business flow
type PublicationFlowImpl struct {
	priceListRepo repository.PriceListRepository
	auditRepo     repository.AuditLogRepository
	cacheConfig   *config.CacheConfig
	rc            *redis.Client
	db            *gorm.DB
}

// NewPublicationFlow creates a new publication flow instance
func NewPublicationFlow(
	priceListRepo repository.PriceListRepository,
	auditRepo repository.AuditLogRepository,
	cacheConfig *config.CacheConfig,
	rc *redis.Client,
	db *gorm.DB,
) PublicationFlow {
	return &PublicationFlowImpl{
		priceListRepo: priceListRepo,
		auditRepo:     auditRepo,
		cacheConfig:   cacheConfig,
		rc:            rc,
		db:            db,
	}
}

// PublishPriceList publishes a draft version atomically: the conflict pass
// runs first and high-severity findings block the whole operation, leaving
// the previously published version untouched. On success every other
// published version of the lineage, and every published list sharing the
// (channel, segment, season) scope, is archived in the same transaction, so
// readers never observe two published lists for one scope.
func (s *PublicationFlowImpl) PublishPriceList(ctx context.Context, req *dto.PublishPriceListRequest, metadata *ClientMetadata) (*dto.PublishPriceListResponse, error) {
	list, err := s.priceListRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}
	if list.Status == models.PriceListStatusPublished {
		// Retried publish of an already published version is a no-op
		publishedAt := utils.UTCNow()
		if list.PublishedAt != nil {
			publishedAt = *list.PublishedAt
		}
		return &dto.PublishPriceListResponse{
			Message:     "Price list is already published",
			UUID:        list.UUID.String(),
			Version:     list.Version,
			PublishedAt: publishedAt.Format(time.RFC3339),
			Conflicts:   []dto.PriceConflictDTO{},
		}, nil
	}
	if !list.CanTransitionTo(models.PriceListStatusPublished) {
		return nil, NewBusinessError("PRICE_LIST_NOT_DRAFT", "Only draft price lists can be published", ErrPriceListNotDraft)
	}

	conflicts := pricing.DetectConflicts(list)
	conflictDTOs := make([]dto.PriceConflictDTO, 0, len(conflicts))
	for _, conflict := range conflicts {
		conflictDTOs = append(conflictDTOs, ToPriceConflictDTO(conflict))
	}

	if pricing.HasBlockingConflict(conflicts) {
		errMsg := fmt.Sprintf("Publication of %s blocked by %d conflicts", list.UUID.String(), len(conflicts))
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPublishBlocked, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessErrorWithDetails("PUBLISH_BLOCKED", "Publication blocked by high severity conflicts", ErrPublishBlocked, conflictDTOs)
	}

	now := utils.UTCNow()
	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.priceListRepo.UpdateGuarded(txCtx, list.ID, list.LockVersion, map[string]any{
			"status":       models.PriceListStatusPublished,
			"published_at": now,
		}); err != nil {
			return err
		}
		if err := s.priceListRepo.ArchivePublishedInLineage(txCtx, list.LineageID, list.ID); err != nil {
			return err
		}
		// Independently created lineages can share a (channel, segment,
		// season) scope; only one list per scope may stay published.
		return s.priceListRepo.ArchivePublishedInScope(txCtx, list.Channel, list.Segment, list.Season, list.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleLock) {
			err = ErrConcurrentModification
		}
		errMsg := fmt.Sprintf("Publication of %s failed: %s", list.UUID.String(), err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPriceListPublished, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PRICE_LIST_PUBLISH_FAILED", "Price list publication failed", err)
	}

	s.invalidatePublishedCache(ctx)

	msg := fmt.Sprintf("Price list %s version %d published", list.UUID.String(), list.Version)
	_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPriceListPublished, msg, true, nil, metadata)

	return &dto.PublishPriceListResponse{
		Message:     "Price list published successfully",
		UUID:        list.UUID.String(),
		Version:     list.Version,
		PublishedAt: now.Format(time.RFC3339),
		Conflicts:   conflictDTOs,
	}, nil
}

// ArchivePriceList retires a version. Archived is terminal.
func (s *PublicationFlowImpl) ArchivePriceList(ctx context.Context, req *dto.ArchivePriceListRequest, metadata *ClientMetadata) (*dto.ArchivePriceListResponse, error) {
	list, err := s.priceListRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to lookup price list", err)
	}
	if list == nil {
		return nil, NewBusinessError("PRICE_LIST_NOT_FOUND", "Price list not found", ErrPriceListNotFound)
	}
	if !list.CanTransitionTo(models.PriceListStatusArchived) {
		return nil, NewBusinessError("INVALID_STATUS_CHANGE", "Invalid price list status transition", ErrInvalidStatusChange)
	}

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		return s.priceListRepo.UpdateGuarded(txCtx, list.ID, list.LockVersion, map[string]any{
			"status":      models.PriceListStatusArchived,
			"archived_at": utils.UTCNow(),
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleLock) {
			err = ErrConcurrentModification
		}
		errMsg := fmt.Sprintf("Archival of %s failed: %s", list.UUID.String(), err.Error())
		_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPriceListArchived, errMsg, false, &errMsg, metadata)
		return nil, NewBusinessError("PRICE_LIST_ARCHIVE_FAILED", "Price list archival failed", err)
	}

	s.invalidatePublishedCache(ctx)

	msg := fmt.Sprintf("Price list %s version %d archived", list.UUID.String(), list.Version)
	_ = saveAuditLog(ctx, s.auditRepo, req.AdminID, models.AuditActionPriceListArchived, msg, true, nil, metadata)

	return &dto.ArchivePriceListResponse{Message: "Price list archived successfully"}, nil
}

func (s *PublicationFlowImpl) invalidatePublishedCache(ctx context.Context) {
	if s.rc == nil {
		return
	}
	_ = s.rc.Del(ctx, publishedListsCacheKey(s.cacheConfig)).Err()
}
