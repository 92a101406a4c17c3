package api

import (
	"time"

	"billdue-backend-go/internal/models"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`             // A high-level error message or code
	Details string `json:"details,omitempty"` // More specific details about the error, if available
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BillResponse is the wire shape of a bill. Amount travels as decimal
// text so clients never see float rounding.
type BillResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Amount           string    `json:"amount"`
	Frequency        string    `json:"frequency"`
	NextDueDate      time.Time `json:"nextDueDate"`
	NotificationTime string    `json:"notificationTime"`
	Note             string    `json:"note,omitempty"`
	AutoMarkPaid     bool      `json:"autoMarkPaid"`
	NotifyUntilPaid  bool      `json:"notifyUntilPaid"`
	IsPaid           bool      `json:"isPaid"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func toBillResponse(b models.Bill) BillResponse {
	return BillResponse{
		ID:               b.ID,
		Name:             b.Name,
		Amount:           b.Amount.StringFixed(2),
		Frequency:        string(b.Frequency),
		NextDueDate:      b.NextDueDate,
		NotificationTime: b.NotificationTime,
		Note:             b.Note,
		AutoMarkPaid:     b.AutoMarkPaid,
		NotifyUntilPaid:  b.NotifyUntilPaid,
		IsPaid:           b.IsPaid,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func toBillResponses(bills []models.Bill) []BillResponse {
	out := make([]BillResponse, 0, len(bills))
	for _, b := range bills {
		out = append(out, toBillResponse(b))
	}
	return out
}

// SettingsResponse is the wire shape of the settings singleton.
type SettingsResponse struct {
	BaseCurrency    string `json:"baseCurrency"`
	DisplayCurrency string `json:"displayCurrency"`
	MonthlyIncome   string `json:"monthlyIncome,omitempty"`
	SyncEnabled     bool   `json:"syncEnabled"`
}

func toSettingsResponse(s models.UserSettings) SettingsResponse {
	resp := SettingsResponse{
		BaseCurrency:    s.BaseCurrency,
		DisplayCurrency: s.DisplayCurrency,
		SyncEnabled:     s.SyncEnabled,
	}
	if s.MonthlyIncome != nil {
		resp.MonthlyIncome = s.MonthlyIncome.StringFixed(2)
	}
	return resp
}
