package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/infrastructure/export"
	"github.com/you/gymdesk/internal/pkg/response"
)

// PaymentHandlers serve the payment ledger.
type PaymentHandlers struct {
	payments domain.PaymentService
	location *time.Location
	log      *zap.Logger
	now      func() time.Time
}

// NewPaymentHandlers creates payment handlers. Query dates are read in loc.
func NewPaymentHandlers(payments domain.PaymentService, loc *time.Location, log *zap.Logger) *PaymentHandlers {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PaymentHandlers{payments: payments, location: loc, log: log.Named("payment_handlers"), now: time.Now}
}

// CreatePaymentRequest records a payment.
type CreatePaymentRequest struct {
	UserID               uint    `json:"userId" binding:"required"`
	SuperUserID          *uint   `json:"superUserId"`
	Amount               float64 `json:"amount" binding:"required"`
	Date                 string  `json:"date"`
	PackageType          string  `json:"packageType" binding:"required"`
	SessionCount         int     `json:"sessionCount" binding:"required"`
	PaymentMethod        string  `json:"paymentMethod"`
	TransactionReference string  `json:"transactionReference"`
	Currency             string  `json:"currency"`
	GST                  float64 `json:"gst"`
	Discount             float64 `json:"discount"`
	Notes                string  `json:"notes"`
}

// UpdatePaymentRequest is a partial update. superUserId: null clears the referrer.
type UpdatePaymentRequest struct {
	UserID               *uint      `json:"userId"`
	SuperUserID          nullableID `json:"superUserId"`
	Amount               *float64   `json:"amount"`
	Date                 *string    `json:"date"`
	PackageType          *string    `json:"packageType"`
	SessionCount         *int       `json:"sessionCount"`
	PaymentMethod        *string    `json:"paymentMethod"`
	TransactionReference *string    `json:"transactionReference"`
	GST                  *float64   `json:"gst"`
	Discount             *float64   `json:"discount"`
	Notes                *string    `json:"notes"`
}

type paymentStatusRequest struct {
	Status               string  `json:"status" binding:"required"`
	TransactionReference *string `json:"transactionReference"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (h *PaymentHandlers) day(c *gin.Context, field, v string) (*time.Time, bool) {
	t, err := parseDay(v, h.location)
	if err != nil {
		response.Error(c, domain.NewValidationError(domain.FieldError{
			Field: field, Message: "Date must be in YYYY-MM-DD format",
		}))
		return nil, false
	}
	return &t, true
}

func (h *PaymentHandlers) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if !bindJSON(c, &req, "User ID, amount, package type, and session count are required") {
		return
	}
	in := domain.NewPayment{
		UserID:               req.UserID,
		SuperUserID:          req.SuperUserID,
		Amount:               req.Amount,
		PackageType:          domain.PackageType(req.PackageType),
		SessionCount:         req.SessionCount,
		PaymentMethod:        domain.PaymentMethod(req.PaymentMethod),
		TransactionReference: req.TransactionReference,
		Currency:             req.Currency,
		GST:                  req.GST,
		Discount:             req.Discount,
		Notes:                req.Notes,
	}
	if req.Date != "" {
		d, ok := h.day(c, "date", req.Date)
		if !ok {
			return
		}
		in.Date = d
	}
	payment, err := h.payments.Create(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Payment created successfully", payment)
}

func (h *PaymentHandlers) filter(c *gin.Context) (domain.PaymentFilter, bool) {
	f := domain.PaymentFilter{
		Status:      domain.PaymentStatus(c.Query("status")),
		PackageType: domain.PackageType(c.Query("packageType")),
	}
	var ok bool
	if f.UserID, ok = uintQuery(c, "userId"); !ok {
		return f, false
	}
	if f.SuperUserID, ok = uintQuery(c, "superUserId"); !ok {
		return f, false
	}
	if f.From, f.To, ok = dateRangeQuery(c, h.location); !ok {
		return f, false
	}
	return f, true
}

// List supports the status, packageType, userId, superUserId and
// startDate/endDate filters.
func (h *PaymentHandlers) List(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	payments, err := h.payments.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", payments)
}

// Export streams the filtered payments as an xlsx workbook.
func (h *PaymentHandlers) Export(c *gin.Context) {
	f, ok := h.filter(c)
	if !ok {
		return
	}
	payments, err := h.payments.List(c.Request.Context(), f)
	if err != nil {
		response.Error(c, err)
		return
	}
	name := fmt.Sprintf("payments-%s.xlsx", h.now().In(h.location).Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Header("Content-Type", export.XLSXMimeType)
	c.Status(http.StatusOK)
	if err := export.WritePayments(c.Writer, payments); err != nil {
		// headers are gone; all that is left is to log it
		h.log.Error("payments export failed", zap.Error(err), zap.Int("rows", len(payments)))
		_ = c.Error(err)
		return
	}
	h.log.Info("payments exported", zap.Int("rows", len(payments)))
}

func (h *PaymentHandlers) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", payment)
}

func (h *PaymentHandlers) GetByPaymentID(c *gin.Context) {
	payment, err := h.payments.GetByPaymentID(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", payment)
}

// ByUser lists a payer's history with totals over completed payments.
func (h *PaymentHandlers) ByUser(c *gin.Context) {
	id, ok := idParam(c, "userId")
	if !ok {
		return
	}
	payments, summary, err := h.payments.ListForPayer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{"payments": payments, "summary": summary})
}

// BySuperUser lists referred payments with the commission basis.
func (h *PaymentHandlers) BySuperUser(c *gin.Context) {
	id, ok := idParam(c, "superUserId")
	if !ok {
		return
	}
	payments, summary, err := h.payments.ListForReferrer(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", gin.H{"payments": payments, "summary": summary})
}

func (h *PaymentHandlers) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdatePaymentRequest
	if !bindJSON(c, &req, "") {
		return
	}
	patch := domain.PaymentPatch{
		UserID:               req.UserID,
		Amount:               req.Amount,
		SessionCount:         req.SessionCount,
		TransactionReference: req.TransactionReference,
		GST:                  req.GST,
		Discount:             req.Discount,
		Notes:                req.Notes,
	}
	if req.SuperUserID.Set {
		patch.SuperUserID = req.SuperUserID.Value
		patch.ClearSuperUser = req.SuperUserID.Value == nil
	}
	if req.PackageType != nil {
		pt := domain.PackageType(*req.PackageType)
		patch.PackageType = &pt
	}
	if req.PaymentMethod != nil {
		pm := domain.PaymentMethod(*req.PaymentMethod)
		patch.PaymentMethod = &pm
	}
	if req.Date != nil {
		if patch.Date, ok = h.day(c, "date", *req.Date); !ok {
			return
		}
	}
	payment, err := h.payments.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment updated successfully", payment)
}

func (h *PaymentHandlers) SetStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req paymentStatusRequest
	if !bindJSON(c, &req, "Payment status is required") {
		return
	}
	payment, err := h.payments.SetStatus(c.Request.Context(), id, domain.PaymentStatus(req.Status), req.TransactionReference)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment status updated successfully", payment)
}

func (h *PaymentHandlers) Refund(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req refundRequest
	if !bindJSON(c, &req, "") {
		return
	}
	payment, err := h.payments.Refund(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment refunded successfully", payment)
}

func (h *PaymentHandlers) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Payment deleted successfully", nil)
}

// Statistics reports revenue, optionally within startDate/endDate.
func (h *PaymentHandlers) Statistics(c *gin.Context) {
	from, to, ok := dateRangeQuery(c, h.location)
	if !ok {
		return
	}
	stats, err := h.payments.Statistics(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", stats)
}
