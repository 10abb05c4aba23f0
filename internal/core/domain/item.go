package domain

import (
	"fmt"
	"math/rand"
	"time"
)

type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending"
	ItemStatusPlaced  ItemStatus = "placed"
	ItemStatusRemoved ItemStatus = "removed"
)

// Item is one inventory unit moving through the warehouse. Lifecycle is
// strictly pending -> placed -> removed; Location is set only while
// placed.
type Item struct {
	ID            string
	ReferenceCode string // supplied by the operator on goods-in
	SystemCode    string // engine-generated barcode value
	Description   string
	Weight        float64
	Category      string
	Location      string // location code; empty unless placed
	Status        ItemStatus
	UpdatedAt     time.Time
}

var categoryPrefixes = map[string]string{
	"raw":       "RAW",
	"finished":  "FIN",
	"packaging": "PKG",
	"spare":     "SPR",
}

// GenerateItemCode builds the barcode value printed onto an item:
// CAT-YYMMDDHHMM-XXX, e.g. "FIN-2411031818-665". The three-digit
// suffix disambiguates items received within the same minute.
func GenerateItemCode(category string, at time.Time) string {
	prefix, ok := categoryPrefixes[category]
	if !ok {
		prefix = "ITM"
	}
	return fmt.Sprintf("%s-%s-%03d", prefix, at.Format("0601021504"), rand.Intn(1000))
}
