package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/service"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"
	"github.com/forusastrid/info-booth-2025/common/logger"
	"github.com/labstack/echo/v4"
)

// LedgerHandler handles ledger-related requests
type LedgerHandler struct {
	ledger *service.LedgerService
	log    *logger.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger *service.LedgerService, log *logger.Logger) *LedgerHandler {
	return &LedgerHandler{
		ledger: ledger,
		log:    log,
	}
}

// SavePurchase records a purchase, merging it into the student's existing
// ledger when one exists
// POST /api/save-student
func (h *LedgerHandler) SavePurchase(c echo.Context) error {
	var in service.PurchaseInput
	if err := c.Bind(&in); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}

	result, err := h.ledger.RecordPurchase(c.Request().Context(), in)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		h.log.Error("failed to record purchase", "student_number", in.StudentNumber, "error", err)
		return fail(c, http.StatusInternalServerError, "failed to save purchase")
	}

	message := "purchase saved"
	if result.Merged {
		message = "uses added to existing record"
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"id":      result.ID,
		"merged":  result.Merged,
	})
}

// ListLedgers lists ledger records, optionally filtered
// GET /api/students?student_number=10203&search=kim
func (h *LedgerHandler) ListLedgers(c echo.Context) error {
	filter := storage.ListFilter{
		StudentNumber: c.QueryParam("student_number"),
		Search:        c.QueryParam("search"),
	}

	records, err := h.ledger.ListLedgers(c.Request().Context(), filter)
	if err != nil {
		h.log.Error("failed to list ledgers", "error", err)
		return fail(c, http.StatusInternalServerError, "failed to list records")
	}

	if records == nil {
		records = []*models.LedgerRecord{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    records,
	})
}

// GetLedger retrieves a single ledger record
// GET /api/students/:id
func (h *LedgerHandler) GetLedger(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid record id")
	}

	rec, err := h.ledger.GetLedger(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, http.StatusNotFound, "record not found")
		}
		h.log.Error("failed to get ledger", "record_id", id, "error", err)
		return fail(c, http.StatusInternalServerError, "failed to load record")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    rec,
	})
}

// AdjustBooth bumps one booth's remaining count by a signed delta
// POST /api/students/:id/adjust
func (h *LedgerHandler) AdjustBooth(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid record id")
	}

	var req struct {
		BoothNumber *int `json:"booth_number"`
		Delta       *int `json:"delta"`
	}
	if err := c.Bind(&req); err != nil || req.BoothNumber == nil || req.Delta == nil {
		return fail(c, http.StatusBadRequest, "booth_number and integer delta are required")
	}

	booths, err := h.ledger.AdjustRemaining(c.Request().Context(), id, *req.BoothNumber, *req.Delta)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, http.StatusNotFound, "record not found")
		}
		if errors.Is(err, service.ErrBoothNotFound) {
			return fail(c, http.StatusNotFound, "booth not found on record")
		}
		h.log.Error("failed to adjust booth", "record_id", id, "error", err)
		return fail(c, http.StatusInternalServerError, "failed to adjust booth")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "booth remaining updated",
		"data":    booths,
	})
}

// AddPayment adds a signed amount to the record's total
// POST /api/students/:id/add-payment
func (h *LedgerHandler) AddPayment(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid record id")
	}

	var req struct {
		Amount *int `json:"amount"`
	}
	if err := c.Bind(&req); err != nil || req.Amount == nil {
		return fail(c, http.StatusBadRequest, "integer amount is required")
	}

	total, err := h.ledger.AddPayment(c.Request().Context(), id, *req.Amount)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, http.StatusNotFound, "record not found")
		}
		h.log.Error("failed to add payment", "record_id", id, "error", err)
		return fail(c, http.StatusInternalServerError, "failed to add payment")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "payment applied",
		"total_price": total,
	})
}

// DeleteLedger removes a ledger record
// DELETE /api/students/:id
func (h *LedgerHandler) DeleteLedger(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid record id")
	}

	if err := h.ledger.DeleteLedger(c.Request().Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fail(c, http.StatusNotFound, "record not found")
		}
		h.log.Error("failed to delete ledger", "record_id", id, "error", err)
		return fail(c, http.StatusInternalServerError, "failed to delete record")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "record deleted",
	})
}

func recordID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
