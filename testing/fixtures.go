// Package testing provides test utilities and database setup for testing the pricing engine
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAdmin creates an admin account with the given role
func (tf *TestFixtures) CreateTestAdmin(role string) (*models.Admin, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		UUID:         uuid.New(),
		Username:     fmt.Sprintf("admin_%s_%d", role, rand.Intn(1000000)),
		Role:         role,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create test admin: %w", err)
	}

	return admin, nil
}

// CreateTestService creates a bookable service
func (tf *TestFixtures) CreateTestService(category string, maxGroupSize int) (*models.Service, error) {
	service := &models.Service{
		Name:         fmt.Sprintf("Test %s %d", category, rand.Intn(1000000)),
		Category:     category,
		MaxGroupSize: maxGroupSize,
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(service).Error; err != nil {
		return nil, fmt.Errorf("failed to create test service: %w", err)
	}

	return service, nil
}

// CreateTestPriceList creates a draft price list at the head of a new lineage
func (tf *TestFixtures) CreateTestPriceList(season, channel, segment string) (*models.PriceList, error) {
	list := &models.PriceList{
		LineageID: uuid.New(),
		Name:      fmt.Sprintf("Test list %d", rand.Intn(1000000)),
		Season:    season,
		Channel:   channel,
		Segment:   segment,
		Currency:  utils.DefaultCurrency,
		Status:    models.PriceListStatusDraft,
		ValidFrom: utils.UTCNow().Add(-24 * time.Hour),
	}

	if err := tf.DB.DB.Create(list).Error; err != nil {
		return nil, fmt.Errorf("failed to create test price list: %w", err)
	}

	return list, nil
}

// CreatePublishedPriceList creates a price list already in the published state
func (tf *TestFixtures) CreatePublishedPriceList(season, channel, segment string) (*models.PriceList, error) {
	list, err := tf.CreateTestPriceList(season, channel, segment)
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	list.Status = models.PriceListStatusPublished
	list.PublishedAt = &now
	if err := tf.DB.DB.Save(list).Error; err != nil {
		return nil, fmt.Errorf("failed to publish test price list: %w", err)
	}

	return list, nil
}

// CreateTestPriceRule attaches a basic rule to a price list
func (tf *TestFixtures) CreateTestPriceRule(priceListID, serviceID uint, basePrice float64) (*models.PriceRule, error) {
	rule := &models.PriceRule{
		PriceListID:       priceListID,
		ServiceID:         serviceID,
		BasePrice:         basePrice,
		SeasonMultiplier:  1,
		WeekendMultiplier: 1,
		IsActive:          utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test price rule: %w", err)
	}

	return rule, nil
}

// CreateTestOffer creates an active percentage offer valid for one week around now
func (tf *TestFixtures) CreateTestOffer(discountValue float64, combinable bool, priority int) (*models.Offer, error) {
	now := utils.UTCNow()
	offer := &models.Offer{
		Name:          fmt.Sprintf("Test offer %d", rand.Intn(1000000)),
		Type:          models.OfferTypeSeasonal,
		DiscountType:  models.DiscountTypePercentage,
		DiscountValue: discountValue,
		ValidFrom:     now.Add(-24 * time.Hour),
		ValidTo:       now.Add(6 * 24 * time.Hour),
		Combinable:    combinable,
		Priority:      priority,
		Status:        models.OfferStatusActive,
	}

	if err := tf.DB.DB.Create(offer).Error; err != nil {
		return nil, fmt.Errorf("failed to create test offer: %w", err)
	}

	return offer, nil
}

// CreatePlannedOffer creates a planned offer with an explicit validity window
func (tf *TestFixtures) CreatePlannedOffer(validFrom, validTo time.Time) (*models.Offer, error) {
	offer := &models.Offer{
		Name:          fmt.Sprintf("Planned offer %d", rand.Intn(1000000)),
		Type:          models.OfferTypeFlash,
		DiscountType:  models.DiscountTypeFixed,
		DiscountValue: 500,
		ValidFrom:     validFrom,
		ValidTo:       validTo,
		Status:        models.OfferStatusPlanned,
	}

	if err := tf.DB.DB.Create(offer).Error; err != nil {
		return nil, fmt.Errorf("failed to create planned offer: %w", err)
	}

	return offer, nil
}

// CreateTestPromoCode creates an active promo code bound to the given offer
func (tf *TestFixtures) CreateTestPromoCode(offerID uint, maxUses *int, oneTimeUse bool) (*models.PromoCode, error) {
	code := &models.PromoCode{
		Code:       fmt.Sprintf("TEST%d", rand.Intn(100000000)),
		OfferID:    offerID,
		MaxUses:    maxUses,
		OneTimeUse: oneTimeUse,
		IsActive:   utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(code).Error; err != nil {
		return nil, fmt.Errorf("failed to create test promo code: %w", err)
	}

	return code, nil
}

// CreateTestRedemption creates a redemption ledger entry in the given status
func (tf *TestFixtures) CreateTestRedemption(codeID, offerID, userID uint, status models.RedemptionStatus) (*models.PromoRedemption, error) {
	redemption := &models.PromoRedemption{
		PromoCodeID: codeID,
		OfferID:     offerID,
		UserID:      userID,
		OrderRef:    fmt.Sprintf("order-%d", rand.Intn(100000000)),
		RequestID:   uuid.New().String(),
		Status:      status,
	}

	if err := tf.DB.DB.Create(redemption).Error; err != nil {
		return nil, fmt.Errorf("failed to create test redemption: %w", err)
	}

	return redemption, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(adminID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		AdminID:     adminID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
