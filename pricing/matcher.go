package pricing

import (
	"sort"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
)

type candidate struct {
	rule        *models.PriceRule
	listVersion int
}

// Match selects the applicable price rule for the request from the given
// price lists. Only published lists whose channel/segment and validity
// window match the request are considered; within them a rule must price
// the requested service, be active, and cover the duration, group size and
// date (unset bounds are unbounded, an empty weekday set covers all days).
//
// When several rules qualify the tie-break is deterministic: highest list
// version first, then the narrowest combined duration/group window, then
// the most recently created rule. No match returns ErrNoMatchingRule —
// never a silent zero price.
func Match(lists []*models.PriceList, req Request) (*models.PriceRule, error) {
	var candidates []candidate

	for _, list := range lists {
		if list.Status != models.PriceListStatusPublished {
			continue
		}
		if list.Channel != req.Channel || list.Segment != req.Segment {
			continue
		}
		if !list.ValidAt(req.Date) {
			continue
		}
		for i := range list.Rules {
			rule := &list.Rules[i]
			if !ruleMatches(rule, req) {
				continue
			}
			candidates = append(candidates, candidate{rule: rule, listVersion: list.Version})
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoMatchingRule
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.listVersion != b.listVersion {
			return a.listVersion > b.listVersion
		}
		aw := a.rule.DurationWindowWidth() + a.rule.GroupWindowWidth()
		bw := b.rule.DurationWindowWidth() + b.rule.GroupWindowWidth()
		if aw != bw {
			return aw < bw
		}
		if !a.rule.CreatedAt.Equal(b.rule.CreatedAt) {
			return a.rule.CreatedAt.After(b.rule.CreatedAt)
		}
		return a.rule.ID > b.rule.ID
	})

	return candidates[0].rule, nil
}

func ruleMatches(rule *models.PriceRule, req Request) bool {
	if !utils.IsTrue(rule.IsActive) {
		return false
	}
	if rule.ServiceID != req.ServiceID {
		return false
	}
	if rule.HasContradictoryBounds() {
		return false
	}
	if !rule.CoversDuration(req.Duration) {
		return false
	}
	if !rule.CoversGroupSize(req.GroupSize) {
		return false
	}
	return rule.CoversDate(req.Date)
}
