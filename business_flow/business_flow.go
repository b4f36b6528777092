// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/AlexPupki/gtsv-pricing/app/dto"
	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/pricing"
	"github.com/AlexPupki/gtsv-pricing/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAdminDTO converts an admin model for login responses
func ToAdminDTO(admin models.Admin) dto.AdminDTO {
	return dto.AdminDTO{
		ID:        admin.ID,
		UUID:      admin.UUID.String(),
		Username:  admin.Username,
		FullName:  admin.FullName,
		Role:      admin.Role,
		IsActive:  admin.IsActive,
		CreatedAt: admin.CreatedAt.Format(time.RFC3339),
	}
}

// ToAdminSessionDTO builds the session payload returned on login
func ToAdminSessionDTO(accessToken, refreshToken string, expiresIn time.Duration) dto.AdminSessionDTO {
	return dto.AdminSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(expiresIn.Seconds()),
		TokenType:    "Bearer",
		CreatedAt:    utils.UTCNowRFC3339(),
	}
}

// ToServiceDTO converts a service model for catalog responses
func ToServiceDTO(service models.Service) dto.ServiceDTO {
	return dto.ServiceDTO{
		UUID:         service.UUID.String(),
		Name:         service.Name,
		Category:     service.Category,
		Description:  service.Description,
		MaxGroupSize: service.MaxGroupSize,
		IsActive:     service.IsActive,
		CreatedAt:    service.CreatedAt,
	}
}

// ToPriceRuleDTO converts a price rule model for admin responses
func ToPriceRuleDTO(rule models.PriceRule, serviceUUID string) dto.PriceRuleDTO {
	out := dto.PriceRuleDTO{
		UUID:              rule.UUID.String(),
		ServiceUUID:       serviceUUID,
		BasePrice:         rule.BasePrice,
		MinDuration:       rule.MinDuration,
		MaxDuration:       rule.MaxDuration,
		MinGroupSize:      rule.MinGroupSize,
		MaxGroupSize:      rule.MaxGroupSize,
		SeasonMultiplier:  rule.SeasonMultiplier,
		WeekendMultiplier: rule.WeekendMultiplier,
		IsActive:          rule.IsActive,
	}
	for _, gd := range rule.GroupDiscounts {
		out.GroupDiscounts = append(out.GroupDiscounts, dto.GroupDiscountRuleDTO{
			MinSize:          gd.MinSize,
			DiscountFraction: gd.DiscountFraction,
		})
	}
	for _, wd := range rule.WeekdaySet {
		out.Weekdays = append(out.Weekdays, int(wd))
	}
	for _, slot := range rule.Slots {
		out.Slots = append(out.Slots, dto.TimeSlotDTO{Start: slot.Start, End: slot.End})
	}
	for _, addOn := range rule.Extras {
		out.AddOns = append(out.AddOns, dto.AddOnDTO{Name: addOn.Name, Price: addOn.Price})
	}
	return out
}

// ToPriceListDTO converts a price list model for admin responses. Rule
// service UUIDs are resolved through the given lookup, which may be nil when
// rules are not included.
func ToPriceListDTO(list models.PriceList, serviceUUIDByID map[uint]string) dto.PriceListDTO {
	out := dto.PriceListDTO{
		UUID:        list.UUID.String(),
		LineageID:   list.LineageID.String(),
		Name:        list.Name,
		Season:      list.Season,
		Channel:     list.Channel,
		Segment:     list.Segment,
		Currency:    list.Currency,
		Version:     list.Version,
		Status:      list.Status.String(),
		ValidFrom:   list.ValidFrom,
		ValidTo:     list.ValidTo,
		PublishedAt: list.PublishedAt,
		ArchivedAt:  list.ArchivedAt,
		CreatedAt:   list.CreatedAt,
	}
	for _, rule := range list.Rules {
		out.Rules = append(out.Rules, ToPriceRuleDTO(rule, serviceUUIDByID[rule.ServiceID]))
	}
	return out
}

// ToOfferDTO converts an offer model for admin responses
func ToOfferDTO(offer models.Offer) dto.OfferDTO {
	return dto.OfferDTO{
		UUID:              offer.UUID.String(),
		Name:              offer.Name,
		Type:              offer.Type,
		DiscountType:      offer.DiscountType,
		DiscountValue:     offer.DiscountValue,
		MaxDiscountAmount: offer.MaxDiscountAmount,
		MinOrderAmount:    offer.MinOrderAmount,
		MaxUsageCount:     offer.MaxUsageCount,
		MaxUsagePerUser:   offer.MaxUsagePerUser,
		Channels:          offer.Channels,
		Segments:          offer.Segments,
		ValidFrom:         offer.ValidFrom,
		ValidTo:           offer.ValidTo,
		Combinable:        offer.Combinable,
		Priority:          offer.Priority,
		Status:            offer.Status.String(),
		UsageCount:        offer.UsageCount,
		Revenue:           offer.Revenue,
		CreatedAt:         offer.CreatedAt,
		UpdatedAt:         offer.UpdatedAt,
	}
}

// ToPromoCodeDTO converts a promo code model for admin responses
func ToPromoCodeDTO(code models.PromoCode, offerUUID string) dto.PromoCodeDTO {
	return dto.PromoCodeDTO{
		UUID:       code.UUID.String(),
		Code:       code.Code,
		OfferUUID:  offerUUID,
		MaxUses:    code.MaxUses,
		UsedCount:  code.UsedCount,
		OneTimeUse: code.OneTimeUse,
		IsActive:   code.IsActive,
		LastUsedAt: code.LastUsedAt,
		CreatedAt:  code.CreatedAt,
	}
}

// ToRedemptionDTO converts a ledger entry for admin responses
func ToRedemptionDTO(redemption models.PromoRedemption) dto.RedemptionDTO {
	out := dto.RedemptionDTO{
		UUID:        redemption.UUID.String(),
		UserID:      redemption.UserID,
		OrderRef:    redemption.OrderRef,
		OrderAmount: redemption.OrderAmount,
		RequestID:   redemption.RequestID,
		Status:      redemption.Status.String(),
		CreatedAt:   redemption.CreatedAt,
		ConfirmedAt: redemption.ConfirmedAt,
		VoidedAt:    redemption.VoidedAt,
	}
	if redemption.PromoCode != nil {
		out.Code = redemption.PromoCode.Code
	}
	return out
}

// ToPriceConflictDTO converts a detected conflict for admin responses
func ToPriceConflictDTO(conflict pricing.PriceConflict) dto.PriceConflictDTO {
	out := dto.PriceConflictDTO{
		Type:      string(conflict.Type),
		Severity:  string(conflict.Severity),
		ServiceID: conflict.ServiceID,
		Message:   conflict.Message,
	}
	for _, id := range conflict.RuleUUIDs {
		out.RuleUUIDs = append(out.RuleUUIDs, id.String())
	}
	return out
}
