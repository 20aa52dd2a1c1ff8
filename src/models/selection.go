package models

// MSelection holds the user-controlled view filters.
type MSelection struct {
	YearMonth string `json:"yearMonth"`
	ShowAll   bool   `json:"showAll"`
	ShowChart bool   `json:"showChart"`
}
