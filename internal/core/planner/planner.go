// Package planner selects the best empty slot for an incoming weight.
// Scoring prefers locations near the warehouse entrance, low levels for
// heavy loads, tight fits to the level ceiling, and emptier bays.
package planner

import (
	"strconv"

	"github.com/rl1809/warehouse-slotting/internal/core/domain"
)

// disqualified marks a candidate that cannot take the weight at all.
const disqualified = -1

// FindOptimalLocation returns the lowest-scoring empty location able to
// accept weight, or nil when no bay has room. Bays whose aggregate
// weight plus the new load would exceed the bay cap are excluded
// entirely, even if they contain individually empty slots. Ties break
// on ascending location code so the result is deterministic regardless
// of input order.
func FindOptimalLocation(locations []domain.Location, weight float64, cfg domain.CapacityConfig) *domain.Location {
	bayGroups := domain.GroupByBay(locations)

	var best *domain.Location
	var bestScore float64
	for i := range locations {
		loc := &locations[i]
		if loc.Status != domain.LocationStatusEmpty {
			continue
		}
		bayLocations := bayGroups[loc.BayKey()]
		if domain.BayWeight(bayLocations)+weight > cfg.BayMaxWeight {
			continue
		}
		ws := weightScore(weight, loc.Level, bayLocations, cfg)
		if ws == disqualified {
			continue
		}
		score := distanceScore(loc.Row, loc.Bay) + ws
		if best == nil || score < bestScore || (score == bestScore && loc.Code < best.Code) {
			best = loc
			bestScore = score
		}
	}
	return best
}

// distanceScore orders candidates by walking distance from the start of
// the warehouse: rows sort before bays within a row.
func distanceScore(row, bay string) float64 {
	rowScore := float64(row[0]-'A') * 100
	bayNumber, _ := strconv.Atoi(bay)
	return rowScore + float64(bayNumber-1)
}

// weightScore rates how well the weight suits a level and its bay, or
// returns disqualified when a ceiling would be broken.
func weightScore(weight float64, level int, bayLocations []domain.Location, cfg domain.CapacityConfig) float64 {
	ceiling, ok := cfg.LevelCeiling(level)
	if !ok || weight > ceiling {
		return disqualified
	}

	bayWeight := domain.BayWeight(bayLocations)
	if bayWeight+weight > cfg.BayMaxWeight {
		return disqualified
	}

	// Heavy loads cost more the higher they go.
	heightPenalty := weight * float64(level) * 2

	// Prefer a tight fit to the level ceiling over wasting capacity.
	capacityPenalty := ceiling - weight
	if capacityPenalty < 0 {
		capacityPenalty = -capacityPenalty
	}

	// Spread load across bays: nearly full bays cost up to 1000.
	bayPenalty := (bayWeight + weight) / cfg.BayMaxWeight * 1000

	return heightPenalty + capacityPenalty + bayPenalty
}
