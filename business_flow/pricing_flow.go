package businessflow

import (
	"context"
	"encoding/json"
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
)

// PricingFlow resolves booking prices against the published price lists
type PricingFlow interface {
	Quote(ctx context.Context, req *dto.QuoteRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error)
}

// PricingFlowImpl implements the pricing business flow
type PricingFlowImpl struct {
	serviceRepo   repository.ServiceRepository
	priceListRepo repository.PriceListRepository
	offerRepo     repository.OfferRepository
	promoCodeRepo repository.PromoCodeRepository
	matcher       *pricing.OfferMatcher
	cacheConfig   *config.CacheConfig
	rc            *redis.Client
}

// NewPricingFlow creates a new pricing flow instance
func NewPricingFlow(
	serviceRepo repository.ServiceRepository,
	priceListRepo repository.PriceListRepository,
	offerRepo repository.OfferRepository,
	promoCodeRepo repository.PromoCodeRepository,
	matcher *pricing.OfferMatcher,
	cacheConfig *config.CacheConfig,
	rc *redis.Client,
) PricingFlow {
	return &PricingFlowImpl{
		serviceRepo:   serviceRepo,
		priceListRepo: priceListRepo,
		offerRepo:     offerRepo,
		promoCodeRepo: promoCodeRepo,
		matcher:       matcher,
		cacheConfig:   cacheConfig,
		rc:            rc,
	}
}

// Quote resolves the price for one booking request. It never mutates state:
// promo codes sent with a quote are previewed, not consumed.
func (s *PricingFlowImpl) Quote(ctx context.Context, req *dto.QuoteRequest, metadata *ClientMetadata) (*dto.QuoteResponse, error) {
	service, err := s.serviceRepo.ByUUID(ctx, req.ServiceUUID)
	if err != nil {
		return nil, NewBusinessError("SERVICE_LOOKUP_FAILED", "Failed to lookup service", err)
	}
	if service == nil {
		return nil, NewBusinessError("SERVICE_NOT_FOUND", "Service not found", ErrServiceNotFound)
	}
	if !utils.IsTrue(service.IsActive) {
		return nil, NewBusinessError("SERVICE_INACTIVE", "Service is inactive", ErrServiceInactive)
	}
	if req.GroupSize > service.MaxGroupSize {
		return nil, NewBusinessErrorf("GROUP_SIZE_EXCEEDED", "Group of %d exceeds service capacity of %d", ErrGroupSizeExceeded, req.GroupSize, service.MaxGroupSize)
	}

	lists, err := s.loadPublishedLists(ctx)
	if err != nil {
		return nil, NewBusinessError("PRICE_LIST_LOOKUP_FAILED", "Failed to load published price lists", err)
	}

	priceReq := pricing.Request{
		ServiceID: service.ID,
		Duration:  req.Duration,
		GroupSize: req.GroupSize,
		Date:      req.Date,
		Channel:   req.Channel,
		Segment:   req.Segment,
	}

	rule, err := pricing.Match(lists, priceReq)
	if err != nil {
		if errors.Is(err, pricing.ErrNoMatchingRule) {
			return nil, NewBusinessError("NO_PRICE_RESOLVED", "No published price rule matches the request", ErrNoPriceResolved)
		}
		return nil, NewBusinessError("PRICE_RESOLUTION_FAILED", "Price resolution failed", err)
	}

	comp := pricing.Compute(rule, req.Duration, req.GroupSize, req.Date)

	var matchedList *models.PriceList
	for _, list := range lists {
		if list.ID == rule.PriceListID {
			matchedList = list
			break
		}
	}

	offers, err := s.offerRepo.ListRunning(ctx, req.Date)
	if err != nil {
		return nil, NewBusinessError("OFFER_LOOKUP_FAILED", "Failed to load running offers", err)
	}

	offerCtx := pricing.OfferContext{
		ServiceID:    service.ID,
		Channel:      req.Channel,
		Segment:      req.Segment,
		Date:         req.Date,
		CurrentPrice: comp.FinalPrice,
	}
	applications := s.matcher.ApplicableOffers(offers, offerCtx)

	finalPrice := comp.FinalPrice
	if len(applications) > 0 {
		finalPrice = applications[len(applications)-1].ResultingPrice
	}

	resp := &dto.QuoteResponse{
		ServiceUUID: service.UUID.String(),
		RuleUUID:    rule.UUID.String(),
		Currency:    utils.DefaultCurrency,
		BasePrice:   comp.BasePrice,
		FinalPrice:  finalPrice,
		Anomaly:     comp.Anomaly,
		QuotedAt:    utils.UTCNow().Format(time.RFC3339),
	}
	if matchedList != nil {
		resp.PriceListUUID = matchedList.UUID.String()
		resp.Currency = matchedList.Currency
	}
	for _, mod := range comp.Modifiers {
		resp.Modifiers = append(resp.Modifiers, dto.AppliedModifierDTO{
			Name:   mod.Name,
			Factor: mod.Factor,
			Delta:  mod.Delta,
			Price:  mod.Price,
		})
	}
	for _, app := range applications {
		resp.Offers = append(resp.Offers, dto.AppliedOfferDTO{
			OfferUUID:      app.Offer.UUID.String(),
			Name:           app.Offer.Name,
			DiscountType:   app.Offer.DiscountType,
			DiscountAmount: app.DiscountAmount,
			ResultingPrice: app.ResultingPrice,
		})
	}

	if req.PromoCode != nil {
		resp.PromoPreview = s.previewPromoCode(ctx, *req.PromoCode, req.Date, service.ID, req.Channel, req.Segment)
	}

	return resp, nil
}

// loadPublishedLists returns every published price list, from cache when
// fresh. Publication and archival invalidate the key.
func (s *PricingFlowImpl) loadPublishedLists(ctx context.Context) ([]*models.PriceList, error) {
	key := publishedListsCacheKey(s.cacheConfig)

	if s.rc != nil {
		if raw, err := s.rc.Get(ctx, key).Result(); err == nil && raw != "" {
			var cached []*models.PriceList
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	status := models.PriceListStatusPublished
	lists, err := s.priceListRepo.ByFilter(ctx, models.PriceListFilter{Status: &status}, "version DESC", 0, 0)
	if err != nil {
		return nil, err
	}

	if s.rc != nil {
		ttl := utils.PublishedListsCacheTTL
		if s.cacheConfig != nil && s.cacheConfig.QuoteTTL > 0 {
			ttl = s.cacheConfig.QuoteTTL
		}
		if raw, err := json.Marshal(lists); err == nil {
			_ = s.rc.Set(ctx, key, raw, ttl).Err()
		}
	}

	return lists, nil
}

func (s *PricingFlowImpl) previewPromoCode(ctx context.Context, code string, date time.Time, serviceID uint, channel, segment string) *dto.PromoPreviewDTO {
	normalized := utils.NormalizeCode(code)
	preview := &dto.PromoPreviewDTO{Code: normalized}

	reject := func(reason string) *dto.PromoPreviewDTO {
		preview.Eligible = false
		preview.Reason = &reason
		return preview
	}

	promoCode, err := s.promoCodeRepo.ByCode(ctx, normalized)
	if err != nil || promoCode == nil {
		return reject("code not found")
	}
	if !utils.IsTrue(promoCode.IsActive) {
		return reject("code is inactive")
	}
	if promoCode.Exhausted() {
		return reject("code has no remaining uses")
	}

	offer, err := s.offerRepo.ByID(ctx, promoCode.OfferID)
	if err != nil || offer == nil {
		return reject("offer not found")
	}
	if !offer.RunningAt(date) {
		return reject("offer is not active on the requested date")
	}
	if !offer.AppliesToService(serviceID) || !offer.AppliesToChannel(channel) || !offer.AppliesToSegment(segment) {
		return reject("offer does not apply to this booking")
	}
	if offer.UsageExhausted() {
		return reject("offer usage cap reached")
	}

	preview.Eligible = true
	return preview
}

func publishedListsCacheKey(cfg *config.CacheConfig) string {
	if cfg != nil && cfg.RedisPrefix != "" {
		return fmt.Sprintf("%s:%s", cfg.RedisPrefix, utils.PublishedListsCacheKey)
	}
	return utils.PublishedListsCacheKey
}
