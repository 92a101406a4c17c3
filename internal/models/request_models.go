package models

// CreateBillRequest represents the request body for creating a new bill.
// Amount travels as decimal text and the due date as an RFC 3339 string;
// both are parsed and validated at the handler boundary.
type CreateBillRequest struct {
	Name             string `json:"name" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
	Frequency        string `json:"frequency" binding:"required"`
	NextDueDate      string `json:"nextDueDate" binding:"required"`
	NotificationTime string `json:"notificationTime" binding:"required"`
	Note             string `json:"note,omitempty"`
	AutoMarkPaid     bool   `json:"autoMarkPaid"`
	NotifyUntilPaid  bool   `json:"notifyUntilPaid"`
}

// UpdateBillRequest represents the request body for updating an existing bill.
// Pointers distinguish fields not provided from fields set to a zero value.
type UpdateBillRequest struct {
	Name             *string `json:"name,omitempty"`
	Amount           *string `json:"amount,omitempty"`
	Frequency        *string `json:"frequency,omitempty"`
	NextDueDate      *string `json:"nextDueDate,omitempty"`
	NotificationTime *string `json:"notificationTime,omitempty"`
	Note             *string `json:"note,omitempty"` // Pointer allows clearing the note
	AutoMarkPaid     *bool   `json:"autoMarkPaid,omitempty"`
	NotifyUntilPaid  *bool   `json:"notifyUntilPaid,omitempty"`
	IsPaid           *bool   `json:"isPaid,omitempty"`
}

// UpdateSettingsRequest represents the request body for updating user settings.
type UpdateSettingsRequest struct {
	BaseCurrency    *string `json:"baseCurrency,omitempty"`
	DisplayCurrency *string `json:"displayCurrency,omitempty"` // Pointer allows clearing the display currency
	MonthlyIncome   *string `json:"monthlyIncome,omitempty"`
}

// SignInRequest carries the Firebase ID token obtained by the client's
// OAuth flow; the flow itself happens outside this service.
type SignInRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}
