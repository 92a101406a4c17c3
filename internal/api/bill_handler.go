package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billdue-backend-go/internal/core"
	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/recurrence"
)

// BillHandler exposes the bill ledger over HTTP.
type BillHandler struct {
	store  *core.BillStore
	logger *zap.Logger
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(store *core.BillStore, logger *zap.Logger) *BillHandler {
	return &BillHandler{store: store, logger: logger}
}

// ListBills handles GET /bills. An optional ?view= query parameter
// (week, fortnight, month, year, all) narrows the list to bills due
// inside that window; overdue bills always pass the filter.
func (h *BillHandler) ListBills(c *gin.Context) {
	bills := h.store.Bills()

	if raw := c.Query("view"); raw != "" {
		view, err := recurrence.ParseView(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid view", Details: err.Error()})
			return
		}
		bills = recurrence.FilterByWindow(bills, view, time.Now())
	}

	c.JSON(http.StatusOK, toBillResponses(bills))
}

// GetBill handles GET /bills/:billId.
func (h *BillHandler) GetBill(c *gin.Context) {
	billID := c.Param("billId")
	for _, b := range h.store.Bills() {
		if b.ID == billID {
			c.JSON(http.StatusOK, toBillResponse(b))
			return
		}
	}
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Bill not found"})
}

// CreateBill handles POST /bills.
func (h *BillHandler) CreateBill(c *gin.Context) {
	var req models.CreateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	bill, err := billFromCreateRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid bill", Details: err.Error()})
		return
	}

	created, err := h.store.Create(c.Request.Context(), bill)
	if err != nil {
		h.respondBillError(c, err, "Failed to create bill")
		return
	}
	c.JSON(http.StatusCreated, toBillResponse(created))
}

// UpdateBill handles PUT /bills/:billId.
func (h *BillHandler) UpdateBill(c *gin.Context) {
	var req models.UpdateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	patch, err := patchFromUpdateRequest(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid bill", Details: err.Error()})
		return
	}

	updated, err := h.store.Update(c.Request.Context(), c.Param("billId"), patch)
	if err != nil {
		h.respondBillError(c, err, "Failed to update bill")
		return
	}
	c.JSON(http.StatusOK, toBillResponse(updated))
}

// DeleteBill handles DELETE /bills/:billId.
func (h *BillHandler) DeleteBill(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("billId")); err != nil {
		h.respondBillError(c, err, "Failed to delete bill")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Bill deleted"})
}

// MarkBillPaid handles POST /bills/:billId/pay. A recurring bill rolls
// forward to its next occurrence; a one-time bill becomes terminal.
func (h *BillHandler) MarkBillPaid(c *gin.Context) {
	paid, err := h.store.MarkPaid(c.Request.Context(), c.Param("billId"))
	if err != nil {
		h.respondBillError(c, err, "Failed to mark bill paid")
		return
	}
	c.JSON(http.StatusOK, toBillResponse(paid))
}

func (h *BillHandler) respondBillError(c *gin.Context, err error, msg string) {
	var perr *core.PersistenceError
	switch {
	case errors.Is(err, core.ErrBillNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Bill not found"})
	case errors.As(err, &perr):
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Backing store unavailable"})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Details: err.Error()})
	}
}

func billFromCreateRequest(req models.CreateBillRequest) (models.Bill, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return models.Bill{}, errors.New("amount must be a decimal number")
	}
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return models.Bill{}, err
	}
	dueDate, err := time.Parse(time.RFC3339, req.NextDueDate)
	if err != nil {
		return models.Bill{}, errors.New("nextDueDate must be an RFC 3339 timestamp")
	}
	return models.Bill{
		Name:             req.Name,
		Amount:           amount,
		Frequency:        frequency,
		NextDueDate:      dueDate,
		NotificationTime: req.NotificationTime,
		Note:             req.Note,
		AutoMarkPaid:     req.AutoMarkPaid,
		NotifyUntilPaid:  req.NotifyUntilPaid,
	}, nil
}

func patchFromUpdateRequest(req models.UpdateBillRequest) (core.BillPatch, error) {
	var patch core.BillPatch
	patch.Name = req.Name
	patch.NotificationTime = req.NotificationTime
	patch.Note = req.Note
	patch.AutoMarkPaid = req.AutoMarkPaid
	patch.NotifyUntilPaid = req.NotifyUntilPaid
	patch.IsPaid = req.IsPaid

	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return core.BillPatch{}, errors.New("amount must be a decimal number")
		}
		patch.Amount = &amount
	}
	if req.Frequency != nil {
		frequency, err := models.ParseFrequency(*req.Frequency)
		if err != nil {
			return core.BillPatch{}, err
		}
		patch.Frequency = &frequency
	}
	if req.NextDueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *req.NextDueDate)
		if err != nil {
			return core.BillPatch{}, errors.New("nextDueDate must be an RFC 3339 timestamp")
		}
		patch.NextDueDate = &dueDate
	}
	return patch, nil
}
