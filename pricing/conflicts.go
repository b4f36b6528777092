package pricing

import (
	"fmt"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
)

// ConflictType classifies a structural problem in a price list's rules
type ConflictType string

const (
	ConflictTypeOverlap       ConflictType = "overlap"
	ConflictTypeGap           ConflictType = "gap"
	ConflictTypeInconsistency ConflictType = "inconsistency"
)

// ConflictSeverity ranks how serious a conflict is
type ConflictSeverity string

const (
	SeverityLow    ConflictSeverity = "low"
	SeverityMedium ConflictSeverity = "medium"
	SeverityHigh   ConflictSeverity = "high"
)

// PriceConflict is a derived finding, recomputed on demand and never
// persisted. High-severity conflicts block publication; medium and low are
// advisory.
type PriceConflict struct {
	Type      ConflictType     `json:"type"`
	Severity  ConflictSeverity `json:"severity"`
	ServiceID uint             `json:"service_id"`
	RuleUUIDs []uuid.UUID      `json:"rule_uuids"`
	Message   string           `json:"message"`
}

// DetectConflicts runs the static conflict pass over a single price list.
// It checks, per rule, bounds that make the rule unreachable (high), then
// pairwise time-slot overlaps between active rules of the same service
// (medium), then the base-price spread per service (low). Inactive rules
// are ignored throughout.
func DetectConflicts(list *models.PriceList) []PriceConflict {
	var conflicts []PriceConflict

	active := make([]*models.PriceRule, 0, len(list.Rules))
	for i := range list.Rules {
		rule := &list.Rules[i]
		if utils.IsTrue(rule.IsActive) {
			active = append(active, rule)
		}
	}

	for _, rule := range active {
		if rule.HasContradictoryBounds() {
			conflicts = append(conflicts, PriceConflict{
				Type:      ConflictTypeInconsistency,
				Severity:  SeverityHigh,
				ServiceID: rule.ServiceID,
				RuleUUIDs: []uuid.UUID{rule.UUID},
				Message:   fmt.Sprintf("rule %s has contradictory bounds and can never match", rule.UUID),
			})
		}
	}

	byService := make(map[uint][]*models.PriceRule)
	for _, rule := range active {
		byService[rule.ServiceID] = append(byService[rule.ServiceID], rule)
	}

	for serviceID, rules := range byService {
		for i := 0; i < len(rules); i++ {
			for j := i + 1; j < len(rules); j++ {
				if !rules[i].Slots.Intersects(rules[j].Slots) {
					continue
				}
				conflicts = append(conflicts, PriceConflict{
					Type:      ConflictTypeOverlap,
					Severity:  SeverityMedium,
					ServiceID: serviceID,
					RuleUUIDs: []uuid.UUID{rules[i].UUID, rules[j].UUID},
					Message:   fmt.Sprintf("rules %s and %s price service %d in intersecting time slots", rules[i].UUID, rules[j].UUID, serviceID),
				})
			}
		}

		if len(rules) < 2 {
			continue
		}
		min, max := rules[0].BasePrice, rules[0].BasePrice
		uuids := make([]uuid.UUID, 0, len(rules))
		for _, rule := range rules {
			uuids = append(uuids, rule.UUID)
			if rule.BasePrice < min {
				min = rule.BasePrice
			}
			if rule.BasePrice > max {
				max = rule.BasePrice
			}
		}
		if min > 0 && (max-min)/min > utils.BasePriceSpreadThreshold {
			conflicts = append(conflicts, PriceConflict{
				Type:      ConflictTypeGap,
				Severity:  SeverityLow,
				ServiceID: serviceID,
				RuleUUIDs: uuids,
				Message:   fmt.Sprintf("base prices for service %d spread more than %.0f%% (%.2f..%.2f)", serviceID, utils.BasePriceSpreadThreshold*100, min, max),
			})
		}
	}

	return conflicts
}

// HasBlockingConflict reports whether any conflict is severe enough to
// block publication.
func HasBlockingConflict(conflicts []PriceConflict) bool {
	for _, c := range conflicts {
		if c.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
