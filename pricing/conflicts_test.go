package pricing

import (
	"testing"

	"github.com/AlexPupki/gtsv-pricing/models"
	"github.com/AlexPupki/gtsv-pricing/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conflictRule(serviceID uint, basePrice float64) models.PriceRule {
	return models.PriceRule{
		UUID:      uuid.New(),
		ServiceID: serviceID,
		BasePrice: basePrice,
		IsActive:  utils.ToPtr(true),
	}
}

func listWith(rules ...models.PriceRule) *models.PriceList {
	return &models.PriceList{
		Name:   "summer 2026",
		Status: models.PriceListStatusDraft,
		Rules:  rules,
	}
}

func findConflicts(conflicts []PriceConflict, ct ConflictType) []PriceConflict {
	var out []PriceConflict
	for _, c := range conflicts {
		if c.Type == ct {
			out = append(out, c)
		}
	}
	return out
}

func TestDetectConflicts(t *testing.T) {
	t.Run("ContradictoryBoundsReportedHigh", func(t *testing.T) {
		bad := conflictRule(1, 5000)
		bad.MinDuration = utils.ToPtr(5)
		bad.MaxDuration = utils.ToPtr(2)

		conflicts := DetectConflicts(listWith(bad))
		inconsistencies := findConflicts(conflicts, ConflictTypeInconsistency)
		require.Len(t, inconsistencies, 1)
		assert.Equal(t, SeverityHigh, inconsistencies[0].Severity)
		assert.Equal(t, []uuid.UUID{bad.UUID}, inconsistencies[0].RuleUUIDs)
	})

	t.Run("ContradictoryGroupBoundsReportedHigh", func(t *testing.T) {
		bad := conflictRule(1, 5000)
		bad.MinGroupSize = utils.ToPtr(8)
		bad.MaxGroupSize = utils.ToPtr(4)

		conflicts := DetectConflicts(listWith(bad))
		assert.Len(t, findConflicts(conflicts, ConflictTypeInconsistency), 1)
	})

	t.Run("IntersectingSlotsSameServiceReportedMedium", func(t *testing.T) {
		morning := conflictRule(1, 5000)
		morning.Slots = models.TimeSlots{{Start: "09:00", End: "13:00"}}
		midday := conflictRule(1, 5000)
		midday.Slots = models.TimeSlots{{Start: "12:00", End: "16:00"}}

		conflicts := DetectConflicts(listWith(morning, midday))
		overlaps := findConflicts(conflicts, ConflictTypeOverlap)
		require.Len(t, overlaps, 1)
		assert.Equal(t, SeverityMedium, overlaps[0].Severity)
		assert.Equal(t, uint(1), overlaps[0].ServiceID)
	})

	t.Run("DisjointSlotsDoNotOverlap", func(t *testing.T) {
		morning := conflictRule(1, 5000)
		morning.Slots = models.TimeSlots{{Start: "09:00", End: "12:00"}}
		afternoon := conflictRule(1, 5000)
		afternoon.Slots = models.TimeSlots{{Start: "14:00", End: "18:00"}}

		conflicts := DetectConflicts(listWith(morning, afternoon))
		assert.Empty(t, findConflicts(conflicts, ConflictTypeOverlap))
	})

	t.Run("EmptySlotsMeanAllDayAndOverlapEverything", func(t *testing.T) {
		allDay := conflictRule(1, 5000)
		evening := conflictRule(1, 5000)
		evening.Slots = models.TimeSlots{{Start: "18:00", End: "22:00"}}

		conflicts := DetectConflicts(listWith(allDay, evening))
		assert.Len(t, findConflicts(conflicts, ConflictTypeOverlap), 1)
	})

	t.Run("DifferentServicesNeverOverlap", func(t *testing.T) {
		a := conflictRule(1, 5000)
		b := conflictRule(2, 5000)
		conflicts := DetectConflicts(listWith(a, b))
		assert.Empty(t, findConflicts(conflicts, ConflictTypeOverlap))
	})

	t.Run("WideBasePriceSpreadReportedLow", func(t *testing.T) {
		cheap := conflictRule(1, 1000)
		cheap.Slots = models.TimeSlots{{Start: "09:00", End: "10:00"}}
		dear := conflictRule(1, 1600)
		dear.Slots = models.TimeSlots{{Start: "11:00", End: "12:00"}}

		conflicts := DetectConflicts(listWith(cheap, dear))
		gaps := findConflicts(conflicts, ConflictTypeGap)
		require.Len(t, gaps, 1)
		assert.Equal(t, SeverityLow, gaps[0].Severity)
		assert.Len(t, gaps[0].RuleUUIDs, 2)
	})

	t.Run("ModerateSpreadNotReported", func(t *testing.T) {
		a := conflictRule(1, 1000)
		a.Slots = models.TimeSlots{{Start: "09:00", End: "10:00"}}
		b := conflictRule(1, 1400)
		b.Slots = models.TimeSlots{{Start: "11:00", End: "12:00"}}

		conflicts := DetectConflicts(listWith(a, b))
		assert.Empty(t, findConflicts(conflicts, ConflictTypeGap))
	})

	t.Run("InactiveRulesIgnored", func(t *testing.T) {
		bad := conflictRule(1, 5000)
		bad.MinDuration = utils.ToPtr(5)
		bad.MaxDuration = utils.ToPtr(2)
		bad.IsActive = utils.ToPtr(false)

		assert.Empty(t, DetectConflicts(listWith(bad)))
	})

	t.Run("CleanListHasNoConflicts", func(t *testing.T) {
		a := conflictRule(1, 5000)
		a.Slots = models.TimeSlots{{Start: "09:00", End: "12:00"}}
		b := conflictRule(1, 5500)
		b.Slots = models.TimeSlots{{Start: "13:00", End: "17:00"}}

		assert.Empty(t, DetectConflicts(listWith(a, b)))
	})
}

func TestHasBlockingConflict(t *testing.T) {
	advisory := []PriceConflict{
		{Type: ConflictTypeOverlap, Severity: SeverityMedium},
		{Type: ConflictTypeGap, Severity: SeverityLow},
	}
	assert.False(t, HasBlockingConflict(advisory))
	assert.False(t, HasBlockingConflict(nil))

	blocking := append(advisory, PriceConflict{Type: ConflictTypeInconsistency, Severity: SeverityHigh})
	assert.True(t, HasBlockingConflict(blocking))
}
