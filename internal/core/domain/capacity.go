package domain

// CapacityConfig carries the weight ceilings the engine validates
// against. It is injected rather than read from package globals so
// deployments (and tests) can vary the tables.
type CapacityConfig struct {
	// LevelCeilings maps a shelf level to the maximum weight (kg) one
	// location on that level may hold. Ceilings decrease with height.
	LevelCeilings map[int]float64
	// BayMaxWeight caps the summed weight of all locations in a bay.
	BayMaxWeight float64
}

// DefaultCapacityConfig returns the production weight tables: five
// levels, ground level strongest, 6000kg shared per bay.
func DefaultCapacityConfig() CapacityConfig {
	return CapacityConfig{
		LevelCeilings: map[int]float64{
			0: 2000, // ground
			1: 1500,
			2: 1000,
			3: 750,
			4: 500,
		},
		BayMaxWeight: 6000,
	}
}

// fallbackLevelCeiling is used by the repair routine for records whose
// level is missing from the configured tables.
const fallbackLevelCeiling = 500

func (c CapacityConfig) LevelCeiling(level int) (float64, bool) {
	max, ok := c.LevelCeilings[level]
	return max, ok
}

// LevelCeilingOrFallback never fails; unknown levels get the most
// conservative ceiling.
func (c CapacityConfig) LevelCeilingOrFallback(level int) float64 {
	if max, ok := c.LevelCeilings[level]; ok {
		return max
	}
	return fallbackLevelCeiling
}

// StatusFor derives a location's status from its weight. Status is
// never stored independently of weight.
func StatusFor(currentWeight, maxWeight float64) LocationStatus {
	if currentWeight == 0 {
		return LocationStatusEmpty
	}
	if currentWeight >= maxWeight {
		return LocationStatusFull
	}
	return LocationStatusPartial
}

// BayWeight sums the current weight across a bay's locations.
func BayWeight(locations []Location) float64 {
	var total float64
	for _, loc := range locations {
		total += loc.CurrentWeight
	}
	return total
}

// BayStatus rolls a bay's aggregate weight up to a single status
// against the shared bay cap.
func (c CapacityConfig) BayStatus(locations []Location) LocationStatus {
	return StatusFor(BayWeight(locations), c.BayMaxWeight)
}

// GroupByBay partitions locations by bay key.
func GroupByBay(locations []Location) map[string][]Location {
	groups := make(map[string][]Location)
	for _, loc := range locations {
		key := loc.BayKey()
		groups[key] = append(groups[key], loc)
	}
	return groups
}

// CanAccept reports whether a location can take the proposed weight:
// the location must be empty, the weight must fit the level ceiling,
// and the bay total including the new weight must stay under the bay
// cap. bayLocations is the full set sharing the location's bay key.
func (c CapacityConfig) CanAccept(location Location, weight float64, bayLocations []Location) bool {
	if location.Status != LocationStatusEmpty {
		return false
	}
	ceiling, ok := c.LevelCeiling(location.Level)
	if !ok || weight > ceiling {
		return false
	}
	if BayWeight(bayLocations)+weight > c.BayMaxWeight {
		return false
	}
	return true
}
