package models

import "github.com/shopspring/decimal"

// UserSettings holds the per-session preferences. Exactly one instance
// exists per session; SyncEnabled mirrors whether the active backing
// store is the remote one.
type UserSettings struct {
	BaseCurrency    string           `json:"baseCurrency"`              // ISO 4217 code
	DisplayCurrency string           `json:"displayCurrency,omitempty"` // Optional secondary display currency
	MonthlyIncome   *decimal.Decimal `json:"monthlyIncome,omitempty"`
	SyncEnabled     bool             `json:"syncEnabled"`
}

// DefaultSettings returns the settings a fresh session starts with.
func DefaultSettings() UserSettings {
	return UserSettings{BaseCurrency: "USD"}
}
