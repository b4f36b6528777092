// Package businessflow contains the core business logic and use cases for pricing workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Admin-related errors
	ErrAdminNotFound     = errors.New("admin not found")
	ErrAdminInactive     = errors.New("admin account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrEditorRequired    = errors.New("editor role required")

	// Service-related errors
	ErrServiceNotFound    = errors.New("service not found")
	ErrServiceInactive    = errors.New("service is inactive")
	ErrGroupSizeExceeded  = errors.New("group size exceeds service capacity")
	ErrDurationOutOfRange = errors.New("duration must be positive")

	// Price list errors
	ErrPriceListNotFound      = errors.New("price list not found")
	ErrPriceListNotEditable   = errors.New("only draft price lists can be edited")
	ErrPriceListNotDraft      = errors.New("only draft price lists can be published")
	ErrPriceListArchived      = errors.New("archived price lists are immutable")
	ErrInvalidStatusChange    = errors.New("invalid price list status transition")
	ErrPublishBlocked         = errors.New("publication blocked by high severity conflicts")
	ErrConcurrentModification = errors.New("price list was modified concurrently")
	ErrValidityWindowInvalid  = errors.New("valid_to must be after valid_from")
	ErrRuleNotFound           = errors.New("price rule not found")
	ErrNoPriceResolved        = errors.New("no published price rule matches the request")

	// Offer errors
	ErrOfferNotFound           = errors.New("offer not found")
	ErrOfferNotActive          = errors.New("offer is not active")
	ErrOfferUsageExhausted     = errors.New("offer usage cap reached")
	ErrInvalidOfferTransition  = errors.New("invalid offer status transition")
	ErrOfferPriorityOutOfRange = errors.New("offer priority is out of range")
	ErrOfferWindowInvalid      = errors.New("offer valid_to must be after valid_from")
	ErrPercentageOutOfRange    = errors.New("percentage discount must be between 0 and 100")

	// Promo code errors
	ErrPromoCodeNotFound       = errors.New("promo code not found")
	ErrPromoCodeInactive       = errors.New("promo code is inactive")
	ErrPromoCodeExhausted      = errors.New("promo code has no remaining uses")
	ErrPromoCodeNotAssigned    = errors.New("promo code is not assigned to this user")
	ErrOneTimeUseConsumed      = errors.New("one-time promo code already used by this user")
	ErrPerUserCapExceeded      = errors.New("per-user usage cap exceeded")
	ErrPromoCodeAlreadyExists  = errors.New("promo code already exists")
	ErrRedemptionNotFound      = errors.New("redemption not found")
	ErrRedemptionNotReserved   = errors.New("only reserved redemptions can be confirmed")
	ErrRedemptionAlreadyVoided = errors.New("redemption is already voided")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
	Details any
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorWithDetails(code, message string, err error, details any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsAdminNotFound(err error) bool {
	return errors.Is(err, ErrAdminNotFound)
}

func IsAdminInactive(err error) bool {
	return errors.Is(err, ErrAdminInactive)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}

func IsServiceNotFound(err error) bool {
	return errors.Is(err, ErrServiceNotFound)
}

func IsGroupSizeExceeded(err error) bool {
	return errors.Is(err, ErrGroupSizeExceeded)
}

func IsPriceListNotFound(err error) bool {
	return errors.Is(err, ErrPriceListNotFound)
}

func IsPriceListNotEditable(err error) bool {
	return errors.Is(err, ErrPriceListNotEditable)
}

func IsPublishBlocked(err error) bool {
	return errors.Is(err, ErrPublishBlocked)
}

func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

func IsNoPriceResolved(err error) bool {
	return errors.Is(err, ErrNoPriceResolved)
}

func IsOfferNotFound(err error) bool {
	return errors.Is(err, ErrOfferNotFound)
}

func IsInvalidOfferTransition(err error) bool {
	return errors.Is(err, ErrInvalidOfferTransition)
}

func IsPromoCodeNotFound(err error) bool {
	return errors.Is(err, ErrPromoCodeNotFound)
}

func IsPromoCodeExhausted(err error) bool {
	return errors.Is(err, ErrPromoCodeExhausted)
}

func IsOneTimeUseConsumed(err error) bool {
	return errors.Is(err, ErrOneTimeUseConsumed)
}

func IsPerUserCapExceeded(err error) bool {
	return errors.Is(err, ErrPerUserCapExceeded)
}

func IsRedemptionNotFound(err error) bool {
	return errors.Is(err, ErrRedemptionNotFound)
}

func IsServiceInactive(err error) bool {
	return errors.Is(err, ErrServiceInactive)
}

func IsOfferNotActive(err error) bool {
	return errors.Is(err, ErrOfferNotActive)
}

func IsOfferUsageExhausted(err error) bool {
	return errors.Is(err, ErrOfferUsageExhausted)
}

func IsPromoCodeInactive(err error) bool {
	return errors.Is(err, ErrPromoCodeInactive)
}

func IsPromoCodeNotAssigned(err error) bool {
	return errors.Is(err, ErrPromoCodeNotAssigned)
}

func IsPromoCodeAlreadyExists(err error) bool {
	return errors.Is(err, ErrPromoCodeAlreadyExists)
}

func IsRedemptionNotReserved(err error) bool {
	return errors.Is(err, ErrRedemptionNotReserved)
}

func IsRedemptionAlreadyVoided(err error) bool {
	return errors.Is(err, ErrRedemptionAlreadyVoided)
}
