package domain

import "time"

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Movement is an append-only audit record, written once per committed
// placement or removal and never mutated.
type Movement struct {
	ID            string
	ItemID        string
	ItemReference string
	Direction     Direction
	Weight        float64
	LocationCode  string
	Operator      string
	Notes         string
	Timestamp     time.Time
}
