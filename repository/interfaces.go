// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ServiceRepository defines operations for the bookable service catalog
type ServiceRepository interface {
	Repository[models.Service, models.ServiceFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Service, error)
	ListActive(ctx context.Context) ([]*models.Service, error)
	Update(ctx context.Context, service models.Service) error
}

// PriceListRepository defines operations for versioned price lists
type PriceListRepository interface {
	Repository[models.PriceList, models.PriceListFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PriceList, error)
	ByLineage(ctx context.Context, lineageID uuid.UUID) ([]*models.PriceList, error)
	LatestInLineage(ctx context.Context, lineageID uuid.UUID) (*models.PriceList, error)
	ListPublished(ctx context.Context, at time.Time) ([]*models.PriceList, error)
	Update(ctx context.Context, list models.PriceList) error
	UpdateGuarded(ctx context.Context, id uint, lockVersion int, updates map[string]any) error
	ArchivePublishedInLineage(ctx context.Context, lineageID uuid.UUID, exceptID uint) error
	ArchivePublishedInScope(ctx context.Context, channel, segment, season string, exceptID uint) error
}

// PriceRuleRepository defines operations for price rules inside a list
type PriceRuleRepository interface {
	Repository[models.PriceRule, models.PriceRuleFilter]
	ByUUID(ctx context.Context, uuid string) (*models.PriceRule, error)
	ByPriceListID(ctx context.Context, priceListID uint) ([]*models.PriceRule, error)
	Update(ctx context.Context, rule models.PriceRule) error
	Delete(ctx context.Context, id uint) error
}

// OfferRepository defines operations for promotional offers
type OfferRepository interface {
	Repository[models.Offer, models.OfferFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Offer, error)
	ListRunning(ctx context.Context, at time.Time) ([]*models.Offer, error)
	ListDueForActivation(ctx context.Context, at time.Time) ([]*models.Offer, error)
	ListDueForExpiry(ctx context.Context, at time.Time) ([]*models.Offer, error)
	Update(ctx context.Context, offer models.Offer) error
	UpdateStatus(ctx context.Context, id uint, status models.OfferStatus) error
	IncrementUsage(ctx context.Context, id uint, revenue float64) error
	DecrementUsage(ctx context.Context, id uint, revenue float64) error
}

// PromoCodeRepository defines operations for promo codes
type PromoCodeRepository interface {
	Repository[models.PromoCode, models.PromoCodeFilter]
	ByCode(ctx context.Context, code string) (*models.PromoCode, error)
	ByCodeForUpdate(ctx context.Context, code string) (*models.PromoCode, error)
	IncrementUsage(ctx context.Context, id uint) error
	DecrementUsage(ctx context.Context, id uint) error
	Update(ctx context.Context, code models.PromoCode) error
}

// PromoRedemptionRepository defines operations for the redemption ledger
type PromoRedemptionRepository interface {
	Repository[models.PromoRedemption, models.PromoRedemptionFilter]
	ByRequestID(ctx context.Context, requestID string) (*models.PromoRedemption, error)
	ByOrderRef(ctx context.Context, orderRef string) ([]*models.PromoRedemption, error)
	CountActiveByCode(ctx context.Context, promoCodeID uint) (int64, error)
	CountActiveByCodeAndUser(ctx context.Context, promoCodeID, userID uint) (int64, error)
	CountActiveByOfferAndUser(ctx context.Context, offerID, userID uint) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.RedemptionStatus) error
}

// AdminRepository defines operations for back-office accounts
type AdminRepository interface {
	Repository[models.Admin, models.AdminFilter]
	ByUsername(ctx context.Context, username string) (*models.Admin, error)
	UpdateLastLogin(ctx context.Context, id uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAdmin(ctx context.Context, adminID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
