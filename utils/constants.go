package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Pricing constants
const (
	// DefaultCurrency is the currency new price lists are created with
	DefaultCurrency = "RUB"

	// MaxOfferPriority is the upper bound of the offer priority scale
	MaxOfferPriority = 10

	// MinOfferPriority is the lower bound of the offer priority scale
	MinOfferPriority = 1

	// BasePriceSpreadThreshold is the relative base-price spread per service
	// above which a price list is flagged with a gap conflict.
	BasePriceSpreadThreshold = 0.5
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// RequestIDKey is the context key carrying the inbound request ID
const RequestIDKey = "X-Request-ID"

// Request-scoped context keys
const (
	UserAgentKey  = "User-Agent"
	IPAddressKey  = "IP-Address"
	EndpointKey   = "Endpoint"
	TimeoutKey    = "Timeout"
	CancelFuncKey = "Cancel-Func"
)

// Cache key constants
const (
	// PublishedListsCacheKey caches the set of currently published price lists
	PublishedListsCacheKey = "pricing:published-lists"

	// PublishedListsCacheTTL bounds staleness of the published-lists cache
	PublishedListsCacheTTL = 5 * time.Minute
)
