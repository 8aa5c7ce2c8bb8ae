package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type PackageType string

const (
	PackageBasic    PackageType = "basic"
	PackageStandard PackageType = "standard"
	PackagePremium  PackageType = "premium"
	PackageCustom   PackageType = "custom"
)

func (p PackageType) Valid() bool {
	switch p {
	case PackageBasic, PackageStandard, PackagePremium, PackageCustom:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodCash       PaymentMethod = "cash"
	MethodCard       PaymentMethod = "card"
	MethodUPI        PaymentMethod = "upi"
	MethodNetBanking PaymentMethod = "netbanking"
	MethodWallet     PaymentMethod = "wallet"
	MethodOther      PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodNetBanking, MethodWallet, MethodOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// Locked reports whether payments in this status reject edits and deletion.
func (s PaymentStatus) Locked() bool {
	return s == PaymentCompleted || s == PaymentRefunded
}

const DefaultCurrency = "INR"

// Payment is a package purchase, optionally credited to a referring super user.
type Payment struct {
	ID                   uint          `json:"id"`
	PaymentID            string        `json:"paymentId"`
	UserID               uint          `json:"userId"`
	SuperUserID          *uint         `json:"superUserId,omitempty"`
	Amount               float64       `json:"amount"`
	Date                 time.Time     `json:"date"`
	PackageType          PackageType   `json:"packageType"`
	SessionCount         int           `json:"sessionCount"`
	PaymentMethod        PaymentMethod `json:"paymentMethod"`
	PaymentStatus        PaymentStatus `json:"paymentStatus"`
	TransactionReference string        `json:"transactionReference,omitempty"`
	Currency             string        `json:"currency"`
	GST                  float64       `json:"gst"`
	Discount             float64       `json:"discount"`
	FinalAmount          float64       `json:"finalAmount"`
	Notes                string        `json:"notes,omitempty"`
	InvoiceNumber        string        `json:"invoiceNumber,omitempty"`
	CreatedAt            time.Time     `json:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// ComputeFinalAmount rounds Amount, GST and Discount to paise, then sets
// FinalAmount = Amount + GST - Discount.
func (p *Payment) ComputeFinalAmount() {
	p.Amount = roundPaise(p.Amount)
	p.GST = roundPaise(p.GST)
	p.Discount = roundPaise(p.Discount)
	p.FinalAmount = roundPaise(p.Amount + p.GST - p.Discount)
}

func roundPaise(v float64) float64 {
	return math.Round(v*100) / 100
}

// CheckReferrer enforces that nobody refers their own purchase.
func (p *Payment) CheckReferrer() error {
	if p.SuperUserID != nil && *p.SuperUserID == p.UserID {
		return ErrInvalidReferrer
	}
	return nil
}

// AssignInvoice sets the invoice number once. It needs the persisted ID.
func (p *Payment) AssignInvoice() bool {
	if p.InvoiceNumber != "" || p.ID == 0 {
		return false
	}
	p.InvoiceNumber = fmt.Sprintf("INV%04d%02d%06d", p.Date.Year(), int(p.Date.Month()), p.ID)
	return true
}

// SetStatus applies a manual status change. Refunds go through Refund.
func (p *Payment) SetStatus(next PaymentStatus) error {
	if !next.Valid() || next == PaymentRefunded {
		return ErrInvalidPaymentStatus
	}
	if p.PaymentStatus.Locked() {
		return ErrPaymentLocked
	}
	p.PaymentStatus = next
	if next == PaymentCompleted {
		p.AssignInvoice()
	}
	return nil
}

// Refund moves a completed payment to refunded, appending reason to the notes.
func (p *Payment) Refund(reason string) error {
	if p.PaymentStatus != PaymentCompleted {
		return ErrRefundNotAllowed
	}
	p.PaymentStatus = PaymentRefunded
	if reason = strings.TrimSpace(reason); reason != "" {
		line := "Refund Reason: " + reason
		if p.Notes == "" {
			p.Notes = line
		} else {
			p.Notes += "\n" + line
		}
	}
	return nil
}

// PaymentPatch is a partial update; nil fields are left unchanged.
type PaymentPatch struct {
	UserID               *uint
	SuperUserID          *uint
	ClearSuperUser       bool
	Amount               *float64
	Date                 *time.Time
	PackageType          *PackageType
	SessionCount         *int
	PaymentMethod        *PaymentMethod
	TransactionReference *string
	GST                  *float64
	Discount             *float64
	Notes                *string
}

// Apply merges the patch into p and recomputes derived fields. The referrer
// rule is checked against the merged values.
func (p *Payment) Apply(patch PaymentPatch) error {
	if p.PaymentStatus.Locked() {
		return ErrPaymentLocked
	}
	next := *p
	if patch.UserID != nil {
		next.UserID = *patch.UserID
	}
	if patch.ClearSuperUser {
		next.SuperUserID = nil
	}
	if patch.SuperUserID != nil {
		v := *patch.SuperUserID
		next.SuperUserID = &v
	}
	if patch.Amount != nil {
		next.Amount = *patch.Amount
	}
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.PackageType != nil {
		next.PackageType = *patch.PackageType
	}
	if patch.SessionCount != nil {
		next.SessionCount = *patch.SessionCount
	}
	if patch.PaymentMethod != nil {
		next.PaymentMethod = *patch.PaymentMethod
	}
	if patch.TransactionReference != nil {
		next.TransactionReference = *patch.TransactionReference
	}
	if patch.GST != nil {
		next.GST = *patch.GST
	}
	if patch.Discount != nil {
		next.Discount = *patch.Discount
	}
	if patch.Notes != nil {
		next.Notes = *patch.Notes
	}
	if err := next.CheckReferrer(); err != nil {
		return err
	}
	next.ComputeFinalAmount()
	*p = next
	return nil
}

// PaymentFilter narrows payment listings. Zero values match everything.
type PaymentFilter struct {
	Status      PaymentStatus
	PackageType PackageType
	UserID      *uint
	SuperUserID *uint
	From        *time.Time
	To          *time.Time
}

// StatusTotal is a count and sum for one payment status.
type StatusTotal struct {
	Status PaymentStatus `json:"status"`
	Count  int64         `json:"count"`
	Amount float64       `json:"totalAmount"`
}

// PackageTotal aggregates completed payments of one package type.
type PackageTotal struct {
	PackageType   PackageType `json:"packageType"`
	Count         int64       `json:"count"`
	Amount        float64     `json:"totalAmount"`
	TotalSessions int64       `json:"totalSessions"`
}

// PaymentStatistics is the revenue overview shown to administrators.
type PaymentStatistics struct {
	TotalRevenue float64        `json:"totalRevenue"`
	ByStatus     []StatusTotal  `json:"paymentsByStatus"`
	ByPackage    []PackageTotal `json:"paymentsByPackage"`
}

// PayerSummary totals one user's purchases.
type PayerSummary struct {
	TotalPayments int     `json:"totalPayments"`
	TotalSpent    float64 `json:"totalSpent"`
}

// ReferrerSummary is a super user's commission basis.
type ReferrerSummary struct {
	TotalReferrals int     `json:"totalReferrals"`
	TotalAmount    float64 `json:"totalAmount"`
	TotalSessions  int     `json:"totalSessions"`
}
