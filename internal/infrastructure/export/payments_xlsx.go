// Package export renders ledger data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/you/gymdesk/domain"
)

const (
	PaymentsSheet = "Payments"
	XLSXMimeType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var paymentHeader = []any{
	"Payment ID", "Invoice", "User ID", "Super User ID", "Date", "Package",
	"Sessions", "Method", "Status", "Amount", "GST", "Discount", "Final Amount",
	"Currency", "Reference", "Notes",
}

// WritePayments writes payments as a single-sheet workbook to w.
func WritePayments(w io.Writer, payments []*domain.Payment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PaymentsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(PaymentsSheet, "A1", &paymentHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(PaymentsSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, p := range payments {
		superUser := ""
		if p.SuperUserID != nil {
			superUser = strconv.FormatUint(uint64(*p.SuperUserID), 10)
		}
		row := []any{
			p.PaymentID, p.InvoiceNumber, p.UserID, superUser, p.Date.Format("2006-01-02"),
			string(p.PackageType), p.SessionCount, string(p.PaymentMethod), string(p.PaymentStatus),
			p.Amount, p.GST, p.Discount, p.FinalAmount, p.Currency, p.TransactionReference, p.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(PaymentsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(PaymentsSheet, "A", "A", 28); err != nil {
		return err
	}
	return f.Write(w)
}
