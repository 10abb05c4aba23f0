package domain

import (
	"fmt"
	"sort"
	"time"
)

type LocationStatus string

const (
	LocationStatusEmpty   LocationStatus = "empty"
	LocationStatusPartial LocationStatus = "partial"
	LocationStatusFull    LocationStatus = "full"
)

// Location is one physical storage slot, identified by its code
// (row + zero-padded bay, level, slot: e.g. "A01-0-1").
type Location struct {
	Code          string
	Row           string
	Bay           string // zero-padded, e.g. "01"
	Level         int
	Slot          int
	MaxWeight     float64
	CurrentWeight float64
	Status        LocationStatus
	Version       int64 // optimistic locking
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// BayKey groups locations sharing the same row and bay; the bay weight
// cap applies across this group.
func (l Location) BayKey() string {
	return l.Row + l.Bay
}

func LocationCode(row string, bay, level, slot int) string {
	return fmt.Sprintf("%s%02d-%d-%d", row, bay, level, slot)
}

const SlotsPerBayLevel = 3

// GenerateBayRange produces the location grid for one row across a bay
// range: every level in cfg, SlotsPerBayLevel slots per bay and level,
// maxWeight seeded from the level ceiling.
func GenerateBayRange(row string, startBay, endBay int, cfg CapacityConfig) ([]Location, error) {
	if len(row) != 1 || row[0] < 'A' || row[0] > 'G' {
		return nil, fmt.Errorf("%w: row must be a letter A-G, got %q", ErrValidation, row)
	}
	if startBay < 1 || endBay < startBay {
		return nil, fmt.Errorf("%w: invalid bay range %d..%d", ErrValidation, startBay, endBay)
	}

	levels := make([]int, 0, len(cfg.LevelCeilings))
	for level := range cfg.LevelCeilings {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	var locations []Location
	now := time.Now()
	for bay := startBay; bay <= endBay; bay++ {
		for slot := 1; slot <= SlotsPerBayLevel; slot++ {
			for _, level := range levels {
				locations = append(locations, Location{
					Code:          LocationCode(row, bay, level, slot),
					Row:           row,
					Bay:           fmt.Sprintf("%02d", bay),
					Level:         level,
					Slot:          slot,
					MaxWeight:     cfg.LevelCeilings[level],
					CurrentWeight: 0,
					Status:        LocationStatusEmpty,
					CreatedAt:     now,
					UpdatedAt:     now,
				})
			}
		}
	}
	return locations, nil
}
