package models

// MTick is one price event from the feed. Immutable, consumed once.
type MTick struct {
	Time  string  `json:"time"`
	Price float64 `json:"price"`
}
