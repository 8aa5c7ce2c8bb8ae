package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/you/gymdesk/internal/infrastructure/export"
)

func TestSessionHandlers(t *testing.T) {
	env := newLedgerEnv(t)
	r := env.router

	t.Run("required fields", func(t *testing.T) {
		w, body := do(t, r, http.MethodPost, "/api/sessions", gin.H{"notes": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Person count, starting time, and date are required", body["message"])
		assert.ElementsMatch(t, []string{"personCount", "startingTime", "date"}, fieldNames(body))
	})

	t.Run("capacity", func(t *testing.T) {
		w, body := do(t, r, http.MethodPost, "/api/sessions", gin.H{"personCount": 3, "startingTime": "07:00", "date": "2026-01-21"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Person count must be 1 or 2", body["message"])
	})

	w, body := do(t, r, http.MethodPost, "/api/sessions", gin.H{
		"personCount": 2, "startingTime": "07:00", "date": "2026-01-21",
		"users": []uint{env.member.ID}, "trainerId": env.trainer.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, body)
	assert.Equal(t, "Session created successfully", body["message"])
	created := body["data"].(map[string]any)
	id := uint(created["id"].(float64))
	sessionID := created["sessionId"].(string)
	assert.Regexp(t, `^SESSION_[0-9A-Z]{26}$`, sessionID)

	w, body = do(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/add-user", id), gin.H{"userId": env.other.ID})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Len(t, body["data"].(map[string]any)["users"], 2)

	w, body = do(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/add-user", id), gin.H{"userId": env.trainer.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Session is full", body["message"])

	w, body = do(t, r, http.MethodPost, fmt.Sprintf("/api/sessions/%d/add-user", id), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User ID is required", body["message"])

	w, body = do(t, r, http.MethodPut, fmt.Sprintf("/api/sessions/%d", id), gin.H{"personCount": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["message"], "Cannot reduce person count")

	w, _ = do(t, r, http.MethodPut, fmt.Sprintf("/api/sessions/%d", id), gin.H{"users": []uint{}, "notes": "cleared"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = do(t, r, http.MethodGet, "/api/sessions/session/"+sessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := body["data"].(map[string]any)
	assert.Empty(t, got["users"])
	assert.Equal(t, "cleared", got["notes"])

	t.Run("queries", func(t *testing.T) {
		_, body := do(t, r, http.MethodGet, "/api/sessions?date=2026-01-21", nil)
		assert.Len(t, body["data"], 1)
		_, body = do(t, r, http.MethodGet, "/api/sessions/date/2026-01-22", nil)
		assert.Len(t, body["data"], 0)
		_, body = do(t, r, http.MethodGet, "/api/sessions/date-range?startDate=2026-01-01&endDate=2026-01-31", nil)
		assert.Len(t, body["data"], 1)
		_, body = do(t, r, http.MethodGet, fmt.Sprintf("/api/sessions?trainerId=%d&upcoming=true", env.trainer.ID), nil)
		assert.Len(t, body["data"], 1)
		_, body = do(t, r, http.MethodGet, "/api/sessions/upcoming?limit=5", nil)
		assert.Len(t, body["data"], 1)

		w, body := do(t, r, http.MethodGet, "/api/sessions/date-range?startDate=2026-01-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Start date and end date are required", body["message"])

		w, _ = do(t, r, http.MethodGet, "/api/sessions?trainerId=abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status", func(t *testing.T) {
		path := fmt.Sprintf("/api/sessions/%d/status", id)
		w, body := do(t, r, http.MethodPatch, path, gin.H{"status": "paused"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid status. Must be one of: scheduled, in_progress, completed, cancelled", body["message"])

		w, body = do(t, r, http.MethodPatch, path, gin.H{"status": "completed"})
		assert.Equal(t, http.StatusBadRequest, w.Code, "scheduled cannot jump to completed")

		w, body = do(t, r, http.MethodPatch, path, gin.H{"status": "in_progress"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Session status updated successfully", body["message"])
		assert.Equal(t, "in_progress", body["data"].(map[string]any)["status"])
	})

	w, body = do(t, r, http.MethodDelete, fmt.Sprintf("/api/sessions/%d", id), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Session deleted successfully", body["message"])

	w, body = do(t, r, http.MethodGet, fmt.Sprintf("/api/sessions/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Session not found", body["message"])

	w, _ = do(t, r, http.MethodGet, "/api/sessions/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandlers(t *testing.T) {
	env := newLedgerEnv(t)
	r := env.router

	w, body := do(t, r, http.MethodPost, "/api/payments", gin.H{"notes": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User ID, amount, package type, and session count are required", body["message"])
	assert.ElementsMatch(t, []string{"userId", "amount", "packageType", "sessionCount"}, fieldNames(body))

	w, body = do(t, r, http.MethodPost, "/api/payments", gin.H{
		"userId": env.member.ID, "superUserId": env.member.ID, "amount": 100, "packageType": "basic", "sessionCount": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User cannot be their own super user (referrer)", body["message"])

	w, body = do(t, r, http.MethodPost, "/api/payments", gin.H{
		"userId": env.member.ID, "superUserId": env.other.ID, "amount": 1000, "gst": 180, "discount": 50,
		"packageType": "premium", "sessionCount": 12, "paymentMethod": "upi", "date": "2026-01-18",
	})
	require.Equal(t, http.StatusCreated, w.Code, body)
	assert.Equal(t, "Payment created successfully", body["message"])
	p := body["data"].(map[string]any)
	id := uint(p["id"].(float64))
	assert.Equal(t, 1130.0, p["finalAmount"])
	assert.Equal(t, "pending", p["paymentStatus"])
	assert.Equal(t, "2026-01-18T00:00:00Z", p["date"])

	t.Run("update clears referrer with null", func(t *testing.T) {
		w, body := do(t, r, http.MethodPut, fmt.Sprintf("/api/payments/%d", id), `{"superUserId": null, "discount": 80}`)
		require.Equal(t, http.StatusOK, w.Code, body)
		data := body["data"].(map[string]any)
		assert.NotContains(t, data, "superUserId")
		assert.Equal(t, 1100.0, data["finalAmount"])

		w, body = do(t, r, http.MethodPut, fmt.Sprintf("/api/payments/%d", id), gin.H{"superUserId": env.member.ID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User cannot be their own super user (referrer)", body["message"])
	})

	t.Run("status and refund", func(t *testing.T) {
		statusPath := fmt.Sprintf("/api/payments/%d/status", id)
		w, body := do(t, r, http.MethodPatch, statusPath, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Payment status is required", body["message"])

		w, body = do(t, r, http.MethodPatch, statusPath, gin.H{"status": "completed", "transactionReference": "UPI-1"})
		require.Equal(t, http.StatusOK, w.Code, body)
		data := body["data"].(map[string]any)
		assert.Equal(t, fmt.Sprintf("INV202601%06d", id), data["invoiceNumber"])
		assert.Equal(t, "UPI-1", data["transactionReference"])

		w, body = do(t, r, http.MethodPut, fmt.Sprintf("/api/payments/%d", id), gin.H{"amount": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Cannot modify a completed or refunded payment", body["message"])

		w, body = do(t, r, http.MethodDelete, fmt.Sprintf("/api/payments/%d", id), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w, body = do(t, r, http.MethodPost, fmt.Sprintf("/api/payments/%d/refund", id), gin.H{"reason": "injury"})
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.Equal(t, "Payment refunded successfully", body["message"])
		assert.Equal(t, "Refund Reason: injury", body["data"].(map[string]any)["notes"])
	})

	second := func() uint {
		w, body := do(t, r, http.MethodPost, "/api/payments", gin.H{
			"userId": env.member.ID, "superUserId": env.other.ID, "amount": 500, "packageType": "basic", "sessionCount": 4,
		})
		require.Equal(t, http.StatusCreated, w.Code, body)
		return uint(body["data"].(map[string]any)["id"].(float64))
	}()
	w, _ = do(t, r, http.MethodPatch, fmt.Sprintf("/api/payments/%d/status", second), gin.H{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("queries", func(t *testing.T) {
		_, body := do(t, r, http.MethodGet, "/api/payments?status=completed", nil)
		assert.Len(t, body["data"], 1)
		_, body = do(t, r, http.MethodGet, "/api/payments?startDate=2026-01-18&endDate=2026-01-18", nil)
		assert.Len(t, body["data"], 1)
		w, _ := do(t, r, http.MethodGet, "/api/payments?startDate=2026-01-18", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		_, body = do(t, r, http.MethodGet, fmt.Sprintf("/api/payments/user/%d", env.member.ID), nil)
		data := body["data"].(map[string]any)
		assert.Len(t, data["payments"], 2)
		assert.Equal(t, map[string]any{"totalPayments": 2.0, "totalSpent": 500.0}, data["summary"])

		_, body = do(t, r, http.MethodGet, fmt.Sprintf("/api/payments/super-user/%d", env.other.ID), nil)
		data = body["data"].(map[string]any)
		assert.Len(t, data["payments"], 1)
		assert.Equal(t, map[string]any{"totalReferrals": 1.0, "totalAmount": 500.0, "totalSessions": 4.0}, data["summary"])

		_, body = do(t, r, http.MethodGet, "/api/payments/statistics", nil)
		assert.Equal(t, 500.0, body["data"].(map[string]any)["totalRevenue"])

		w, body = do(t, r, http.MethodGet, "/api/payments/payment/PAY_missing", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Payment not found", body["message"])
	})

	t.Run("export", func(t *testing.T) {
		w, _ := do(t, r, http.MethodGet, "/api/payments/export?status=completed", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.XLSXMimeType, w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="payments-20260120.xlsx"`, w.Header().Get("Content-Disposition"))

		f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(export.PaymentsSheet)
		require.NoError(t, err)
		assert.Len(t, rows, 2, "header plus the completed payment")
	})
}

func TestProfileHandlers(t *testing.T) {
	env := newLedgerEnv(t)
	r := env.router
	base := fmt.Sprintf("/api/profile/%d", env.member.ID)

	w, body := do(t, r, http.MethodPut, base+"/measurements", gin.H{"chest": 92.5, "leftArm": 30})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, "Body measurements updated successfully", body["message"])

	w, body = do(t, r, http.MethodPut, base+"/bca", gin.H{"bodyFat": 21.5, "bodyAge": 29})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, "Body composition analysis updated successfully", body["message"])

	w, body = do(t, r, http.MethodPut, base+"/personal", gin.H{"height": 162})
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, "Personal details updated successfully", body["message"])
	assert.Equal(t, "Asha", body["data"].(map[string]any)["name"])

	w, body = do(t, r, http.MethodPut, base, gin.H{
		"measurements": gin.H{"chest": -1},
		"bca":          gin.H{"bmi": -2},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"measurements.chest", "bca.bmi"}, fieldNames(body))

	w, body = do(t, r, http.MethodPut, base, gin.H{"personalDetails": gin.H{"weight": 60}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile updated successfully", body["message"])

	w, body = do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := body["data"].(map[string]any)
	assert.Equal(t, 92.5, user["measurements"].(map[string]any)["chest"])
	assert.Equal(t, 29.0, user["bca"].(map[string]any)["bodyAge"])
	assert.Equal(t, 60.0, user["weight"])

	w, body = do(t, r, http.MethodGet, "/api/profile/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["message"])
}

func TestUserHandlers(t *testing.T) {
	env := newLedgerEnv(t)
	r := env.router

	_, body := do(t, r, http.MethodGet, "/api/users", nil)
	assert.Len(t, body["data"], 3)

	w, body := do(t, r, http.MethodPut, fmt.Sprintf("/api/users/%d/role", env.member.ID), gin.H{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "role must be one of: member, trainer, admin", body["message"])

	w, body = do(t, r, http.MethodPut, fmt.Sprintf("/api/users/%d/role", env.member.ID), gin.H{"role": "trainer"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "User role updated successfully", body["message"])

	_, body = do(t, r, http.MethodGet, fmt.Sprintf("/api/users/%d", env.member.ID), nil)
	user := body["data"].(map[string]any)
	assert.Equal(t, "trainer", user["role"])
	assert.Equal(t, true, user["isTrainer"])
}
