package models

// -----------------------------------------------------------------------------

// Direction of the last price move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionNone Direction = "none"
)

// -----------------------------------------------------------------------------

// DirectionOf computes the move direction from current and previous price.
// Any nil input, or equal prices, yields DirectionNone.
func DirectionOf(current, previous *float64) Direction {
	if current == nil || previous == nil {
		return DirectionNone
	}
	if *current > *previous {
		return DirectionUp
	}
	if *current < *previous {
		return DirectionDown
	}
	return DirectionNone
}

// -----------------------------------------------------------------------------

// MPriceState holds the live price pair. Direction is always recomputed from
// (Current, Previous) after a mutation, never set independently.
type MPriceState struct {
	Current   *float64  `json:"current"`
	Previous  *float64  `json:"previous"`
	Direction Direction `json:"direction"`
}
